// Package api provides the HTTP handlers, DTOs and middleware of the trust
// administration console.
package api

import (
	"time"

	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
)

// MemberDTO represents a member in API responses.
// Excludes the password hash.
type MemberDTO struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         *string   `json:"phone,omitempty"`
	Address       *string   `json:"address,omitempty"`
	TrusteeRole   string    `json:"trusteeRole" doc:"Normalized role, empty when the member holds none"`
	AccountStatus string    `json:"accountStatus" enum:"active,inactive,pending"`
	JoinedAt      time.Time `json:"joinedAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MemberDTOFromMember converts a db.Member to a MemberDTO for API responses.
func MemberDTOFromMember(m *db.Member) MemberDTO {
	return MemberDTO{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		Address:       m.Address,
		TrusteeRole:   string(auth.RoleFromPtr(m.TrusteeRole)),
		AccountStatus: m.AccountStatus,
		JoinedAt:      m.JoinedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// SessionDTO describes the caller's session and what the console may show them.
type SessionDTO struct {
	Member      MemberDTO         `json:"member"`
	ExpiresAt   time.Time         `json:"expiresAt"`
	Permissions []auth.Permission `json:"permissions" doc:"Every permission the member's role holds"`
}

// ListMeta echoes the paging applied to a list.
type ListMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// MeetingDetail is a meeting with its children.
type MeetingDetail struct {
	*db.Meeting
	Attendees   []*db.MeetingAttendee   `json:"attendees"`
	Decisions   []*db.MeetingDecision   `json:"decisions"`
	Attachments []*db.MeetingAttachment `json:"attachments"`
}

// emptyIfNil keeps list fields as [] rather than null in responses.
func emptyIfNil[T any](s []*T) []*T {
	if s == nil {
		return []*T{}
	}
	return s
}
