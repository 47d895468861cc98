// Package audit records every mutating persistence call as an append-only
// audit entry and correlates the entries of one logical operation.
//
// The write path is Interceptor.Observe (invoked by the auditing gateway
// decorator) followed by Recorder.Record, which stamps the group id taken from
// the operation scope carried in the context. Scopes are opened with Begin and
// BeginManual. The read path lives in the trail subpackage.
package audit

import (
	"encoding/json"
	"strings"
	"time"
)

// EntityType names an audited domain entity. Values are lower case; compare
// user-supplied strings through ParseEntityType.
type EntityType string

// Entity types written by the gateway.
const (
	EntityDonation          EntityType = "donation"
	EntityExpense           EntityType = "expense"
	EntityActivity          EntityType = "activity"
	EntityMember            EntityType = "member"
	EntityMeeting           EntityType = "meeting"
	EntityMeetingAttendee   EntityType = "meeting_attendee"
	EntityMeetingDecision   EntityType = "meeting_decision"
	EntityMeetingAttachment EntityType = "meeting_attachment"
	EntityWorkshop          EntityType = "workshop"
	EntityLink              EntityType = "link"
	EntitySession           EntityType = "session"
	EntityAuditLog          EntityType = "audit_log"
)

// ParseEntityType normalizes s for case-insensitive matching.
func ParseEntityType(s string) EntityType {
	return EntityType(strings.ToLower(strings.TrimSpace(s)))
}

// Excluded reports whether mutations of this entity are never audited.
func (e EntityType) Excluded() bool {
	return e == EntitySession || e == EntityAuditLog
}

// Label returns the entity type as words ("meeting_decision" -> "meeting decision").
func (e EntityType) Label() string {
	return strings.ReplaceAll(string(e), "_", " ")
}

// Action is the persisted kind of change.
type Action string

// Persisted actions.
const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Valid returns true for the three persisted actions.
func (a Action) Valid() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// ParseAction converts s case-insensitively. ok is false for unknown actions.
func ParseAction(s string) (a Action, ok bool) {
	a = Action(strings.ToUpper(strings.TrimSpace(s)))
	return a, a.Valid()
}

// PastTense returns the lower-case verb used in default summaries.
func (a Action) PastTense() string {
	switch a {
	case ActionCreate:
		return "created"
	case ActionUpdate:
		return "updated"
	case ActionDelete:
		return "deleted"
	default:
		return strings.ToLower(string(a))
	}
}

// Op is the kind of gateway call being observed.
type Op string

// Gateway operations. Upserts are recorded as CREATE or UPDATE depending on
// what the database actually did.
const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpUpsert Op = "upsert"
)

// Entry is one audit row as written by the Recorder.
type Entry struct {
	ID         string
	Action     Action
	EntityType EntityType
	EntityID   string
	Changes    json.RawMessage
	Summary    string
	GroupID    *string
	ParentID   *string
	MemberID   string
	CreatedAt  time.Time
}

// Changes is the before/after payload marshaled into Entry.Changes.
type Changes struct {
	Old any `json:"old,omitempty"`
	New any `json:"new,omitempty"`
}
