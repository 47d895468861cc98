package trail

import (
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
)

// Step is one entry of a group's expanded timeline.
type Step struct {
	ID         string    `json:"id"`
	When       string    `json:"when"`
	At         time.Time `json:"at"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	Fields     []Field   `json:"fields"`
}

// Field is one snapshot key rendered as text.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Timeline lists the group's entries oldest first with their snapshot fields.
func Timeline(g Group, now time.Time) []Step {
	entries := append([]Log{g.Main}, g.Related...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	steps := make([]Step, 0, len(entries))
	for _, e := range entries {
		steps = append(steps, Step{
			ID:         e.ID,
			When:       humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
			At:         e.CreatedAt,
			Action:     e.Action,
			EntityType: e.EntityType,
			Fields:     snapshotFields(audit.DecodeChange(audit.EntityType(e.EntityType), e.Changes)),
		})
	}
	return steps
}

func snapshotFields(c audit.Change) []Field {
	snap := c.Fields().Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		if !skippedKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: plainText(snap[k])})
	}
	return fields
}
