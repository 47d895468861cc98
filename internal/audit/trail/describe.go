package trail

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
)

// clauseSeparator joins the field changes of one UPDATE.
const clauseSeparator = " • "

// Describe renders the one-line "main change" for an audit entry. Unknown
// actions, entity types and payload shapes degrade to a generic or empty line.
func Describe(action audit.Action, entity audit.EntityType, raw json.RawMessage) string {
	c := audit.DecodeChange(entity, raw)
	switch action {
	case audit.ActionCreate:
		return describeCreate(c)
	case audit.ActionUpdate:
		return strings.Join(describeUpdate(c), clauseSeparator)
	case audit.ActionDelete:
		return describeDelete(c)
	default:
		return ""
	}
}

func describeCreate(c audit.Change) string {
	fallback := "Created " + c.Entity().Label()

	switch c := c.(type) {
	case *audit.DonationChange:
		if c.New == nil {
			return fallback
		}
		n := c.New
		var b strings.Builder
		b.WriteString("Received")
		if n.Amount.Set() {
			b.WriteString(" " + n.Amount.Value.String())
		}
		if n.Type.Set() && n.Type.Value != "" {
			b.WriteString(" " + strings.ToLower(n.Type.Value))
		}
		b.WriteString(" donation")
		if n.DonorName.Set() && n.DonorName.Value != "" {
			b.WriteString(" from " + n.DonorName.Value)
		}
		if n.Purpose.Set() && n.Purpose.Value != "" {
			b.WriteString(" for " + n.Purpose.Value)
		}
		if n.Notes.Set() && n.Notes.Value != "" {
			b.WriteString(" (" + n.Notes.Value + ")")
		}
		return b.String()

	case *audit.ExpenseChange:
		if c.New == nil {
			return fallback
		}
		n := c.New
		var b strings.Builder
		b.WriteString("Recorded")
		if n.Amount.Set() {
			b.WriteString(" " + n.Amount.Value.String())
		}
		b.WriteString(" expense")
		if n.Category.Set() && n.Category.Value != "" {
			b.WriteString(" in " + n.Category.Value)
		}
		if n.Description.Set() && n.Description.Value != "" {
			b.WriteString(": " + n.Description.Value)
		}
		return b.String()

	case *audit.ActivityChange:
		if c.New == nil || !c.New.Title.Set() {
			return fallback
		}
		n := c.New
		s := `Planned activity "` + n.Title.Value + `"`
		if n.Date.Set() {
			s += " on " + formatDate(n.Date.Value)
		}
		if n.Location.Set() && n.Location.Value != "" {
			s += " at " + n.Location.Value
		}
		return s

	case *audit.MemberChange:
		if c.New == nil || !c.New.Name.Set() {
			return fallback
		}
		s := "Added member " + c.New.Name.Value
		if c.New.TrusteeRole.Set() && c.New.TrusteeRole.Value != "" {
			s += " as " + titleWords(c.New.TrusteeRole.Value)
		}
		return s

	case *audit.MeetingChange:
		if c.New == nil || !c.New.Title.Set() {
			return fallback
		}
		s := `Scheduled meeting "` + c.New.Title.Value + `"`
		if c.New.Date.Set() {
			s += " on " + formatDate(c.New.Date.Value)
		}
		return s

	case *audit.WorkshopChange:
		if c.New == nil || !c.New.Name.Set() {
			return fallback
		}
		s := "Added workshop resource " + c.New.Name.Value
		if c.New.Specialization.Set() && c.New.Specialization.Value != "" {
			s += " (" + c.New.Specialization.Value + ")"
		}
		return s

	case *audit.LinkChange:
		if c.New == nil || !c.New.Title.Set() {
			return fallback
		}
		return `Added link "` + c.New.Title.Value + `"`
	}
	return fallback
}

// identifyingKeys are tried in order to name a deleted row.
var identifyingKeys = []string{"title", "name", "description", "purpose", "donorName"}

func describeDelete(c audit.Change) string {
	s := "Deleted " + c.Entity().Label()
	old := c.Fields().Old
	for _, k := range identifyingKeys {
		if v, ok := old[k].(string); ok && v != "" {
			return s + ` "` + v + `"`
		}
	}
	return s
}

func describeUpdate(c audit.Change) []string {
	var out clauses

	switch c := c.(type) {
	case *audit.DonationChange:
		o, n := orZero(c.Old), orZero(c.New)
		out.add(amountClause(o.Amount, n.Amount))
		watch(&out, "purpose", o.Purpose, n.Purpose, func(v string) string { return "Changed purpose to " + v })
		watch(&out, "donor", o.DonorName, n.DonorName, func(v string) string { return "Changed donor to " + v })
		watch(&out, "type", o.Type, n.Type, func(v string) string { return "Changed type to " + v })
		watch(&out, "date", o.Date, n.Date, func(v string) string { return "Changed date to " + formatDate(v) })
		watch(&out, "notes", o.Notes, n.Notes, func(string) string { return "Updated notes" })
		watch(&out, "receipt number", o.ReceiptNumber, n.ReceiptNumber, func(v string) string { return "Changed receipt number to " + v })

	case *audit.ExpenseChange:
		o, n := orZero(c.Old), orZero(c.New)
		out.add(amountClause(o.Amount, n.Amount))
		watch(&out, "category", o.Category, n.Category, func(v string) string { return "Moved to " + v + " category" })
		watch(&out, "description", o.Description, n.Description, func(v string) string { return "Changed description to " + v })
		watch(&out, "date", o.Date, n.Date, func(v string) string { return "Changed date to " + formatDate(v) })
		watch(&out, "payee", o.PaidTo, n.PaidTo, func(v string) string { return "Changed payee to " + v })
		watch(&out, "payment mode", o.PaymentMode, n.PaymentMode, func(v string) string { return "Changed payment mode to " + v })
		watch(&out, "notes", o.Notes, n.Notes, func(string) string { return "Updated notes" })

	case *audit.ActivityChange:
		o, n := orZero(c.Old), orZero(c.New)
		watch(&out, "title", o.Title, n.Title, func(v string) string { return "Changed title to " + v })
		watch(&out, "date", o.Date, n.Date, func(v string) string { return "Rescheduled to " + formatDate(v) })
		watch(&out, "location", o.Location, n.Location, func(v string) string { return "Moved to " + v })
		watch(&out, "status", o.Status, n.Status, func(v string) string { return "Marked as " + v })
		watch(&out, "description", o.Description, n.Description, func(string) string { return "Updated description" })

	case *audit.MemberChange:
		o, n := orZero(c.Old), orZero(c.New)
		watch(&out, "name", o.Name, n.Name, func(v string) string { return "Renamed to " + v })
		watch(&out, "email", o.Email, n.Email, func(string) string { return "Updated email address" })
		watch(&out, "phone", o.Phone, n.Phone, func(string) string { return "Updated phone number" })
		watch(&out, "address", o.Address, n.Address, func(string) string { return "Updated address" })
		watch(&out, "role", o.TrusteeRole, n.TrusteeRole, func(v string) string { return "Changed role to " + titleWords(v) })
		watch(&out, "account status", o.AccountStatus, n.AccountStatus, func(v string) string { return "Marked as " + v })

	case *audit.MeetingChange:
		o, n := orZero(c.Old), orZero(c.New)
		watch(&out, "title", o.Title, n.Title, func(v string) string { return "Changed title to " + v })
		watch(&out, "date", o.Date, n.Date, func(v string) string { return "Rescheduled to " + formatDate(v) })
		watch(&out, "location", o.Location, n.Location, func(v string) string { return "Moved to " + v })
		watch(&out, "agenda", o.Agenda, n.Agenda, func(string) string { return "Updated agenda" })
		watch(&out, "minutes", o.Minutes, n.Minutes, func(string) string { return "Updated minutes" })
		watch(&out, "status", o.Status, n.Status, func(v string) string { return "Marked as " + v })

	case *audit.WorkshopChange:
		o, n := orZero(c.Old), orZero(c.New)
		watch(&out, "name", o.Name, n.Name, func(v string) string { return "Renamed to " + v })
		watch(&out, "specialization", o.Specialization, n.Specialization, func(v string) string { return "Changed specialization to " + v })
		watch(&out, "organization", o.Organization, n.Organization, func(v string) string { return "Changed organization to " + v })
		watch(&out, "email", o.Email, n.Email, func(string) string { return "Updated email address" })
		watch(&out, "phone", o.Phone, n.Phone, func(string) string { return "Updated phone number" })
		watch(&out, "notes", o.Notes, n.Notes, func(string) string { return "Updated notes" })

	case *audit.LinkChange:
		o, n := orZero(c.Old), orZero(c.New)
		watch(&out, "title", o.Title, n.Title, func(v string) string { return "Changed title to " + v })
		watch(&out, "URL", o.URL, n.URL, func(string) string { return "Updated URL" })
		watch(&out, "category", o.Category, n.Category, func(v string) string { return "Moved to " + v + " category" })
		watch(&out, "description", o.Description, n.Description, func(string) string { return "Updated description" })

	default:
		out = genericDiff(c.Fields())
	}
	return out
}

type clauses []string

func (c *clauses) add(s string) {
	if s != "" {
		*c = append(*c, s)
	}
}

func orZero[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// amountClause compares amounts with a missing or null side read as zero. It
// only speaks when the new payload carries the amount key.
func amountClause(prev, next audit.Opt[audit.Amount]) string {
	if !next.Present {
		return ""
	}
	from, to := prev.Value, next.Value
	if from == to {
		return ""
	}
	if from == 0 {
		return "Set amount to " + to.String()
	}
	return "Changed amount " + from.String() + " → " + to.String()
}

// watch adds a clause when both halves carry the field and the values differ.
func watch[T comparable](out *clauses, field string, prev, next audit.Opt[T], phrase func(T) string) {
	if !prev.Present || !next.Present {
		return
	}
	switch {
	case prev.Null && next.Null:
		return
	case next.Null:
		out.add("Cleared " + field)
	case prev.Null || prev.Value != next.Value:
		out.add(phrase(next.Value))
	}
}

// skippedKeys never take part in generic diffs or timelines.
var skippedKeys = map[string]bool{"id": true, "createdAt": true, "updatedAt": true}

// genericDiff compares every key present on both sides, in key order.
func genericDiff(f audit.Fields) clauses {
	if f.Old == nil || f.New == nil {
		return nil
	}
	keys := make([]string, 0, len(f.New))
	for k := range f.New {
		if _, ok := f.Old[k]; ok && !skippedKeys[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out clauses
	for _, k := range keys {
		oldV, newV := f.Old[k], f.New[k]
		if reflect.DeepEqual(oldV, newV) {
			continue
		}
		label := titleWords(k)
		switch nv := newV.(type) {
		case bool:
			out.add(label + " changed to " + yesNo(nv))
		case nil:
			out.add(label + " cleared")
		default:
			if oldV == nil {
				out.add(label + " set to " + jsonText(newV))
			} else {
				out.add(label + " changed from " + jsonText(oldV) + " to " + jsonText(newV))
			}
		}
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
