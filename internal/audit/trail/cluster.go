package trail

import (
	"sort"
	"strconv"
	"time"
)

// DefaultWindow is the createdAt proximity that joins two entries of the same
// entity into one displayed group.
const DefaultWindow = time.Second

// Cluster groups logs for display. Logs are ordered newest first; each joins
// the first existing group whose first entry has the same entity id and a
// createdAt within window (inclusive). The write-time group id is not
// consulted.
func Cluster(logs []Log, window time.Duration) []Group {
	sorted := make([]Log, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var groups []Group
	for _, l := range sorted {
		joined := false
		for i := range groups {
			head := groups[i].Main
			if head.EntityID == l.EntityID && absDuration(head.CreatedAt.Sub(l.CreatedAt)) <= window {
				groups[i].Related = append(groups[i].Related, l)
				joined = true
				break
			}
		}
		if !joined {
			groups = append(groups, Group{
				Key:  l.EntityID + "-" + strconv.FormatInt(l.CreatedAt.UnixMilli(), 10),
				Main: l,
			})
		}
	}
	return groups
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
