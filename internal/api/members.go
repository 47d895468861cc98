package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
)

// MemberHandler handles member accounts.
type MemberHandler struct {
	gw       db.Gateway
	sessions *auth.Manager
}

// NewMemberHandler creates a new member handler.
func NewMemberHandler(gw db.Gateway, sessions *auth.Manager) *MemberHandler {
	return &MemberHandler{gw: gw, sessions: sessions}
}

// RegisterRoutes registers all member routes.
func (h *MemberHandler) RegisterRoutes(api huma.API) {
	members := resource[MemberDTO]{
		area: auth.AreaMembers, path: "/api/v1/members", tag: "Members", name: "Member",
		list: h.listMembers, get: h.getMember,
	}
	members.registerReads(api)
	create(api, members, h.createMember)
	update(api, members, h.updateMember)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteMember",
		Method:        http.MethodDelete,
		Path:          "/api/v1/members/{id}",
		Summary:       "Delete member",
		Description:   "Deletes a member and ends their sessions. Members cannot delete themselves.",
		Tags:          []string{"Members"},
		DefaultStatus: http.StatusNoContent,
	}, h.handleDeleteMember)
}

func (h *MemberHandler) listMembers(ctx context.Context, arg db.ListParams) ([]*MemberDTO, error) {
	rows, err := h.gw.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	rows = pageOf(rows, arg)
	out := make([]*MemberDTO, len(rows))
	for i, m := range rows {
		dto := MemberDTOFromMember(m)
		out[i] = &dto
	}
	return out, nil
}

func (h *MemberHandler) getMember(ctx context.Context, id string) (*MemberDTO, error) {
	m, err := h.gw.GetMemberByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := MemberDTOFromMember(m)
	return &dto, nil
}

// CreateMemberInput is the request body for creating a member.
type CreateMemberInput struct {
	Body struct {
		Name          string  `json:"name" minLength:"1" maxLength:"255"`
		Email         string  `json:"email" format:"email" maxLength:"255"`
		Password      string  `json:"password" minLength:"8" maxLength:"128"`
		Phone         *string `json:"phone,omitempty" maxLength:"32"`
		Address       *string `json:"address,omitempty"`
		TrusteeRole   *string `json:"trusteeRole,omitempty" doc:"e.g. president, treasurer, volunteer"`
		AccountStatus string  `json:"accountStatus,omitempty" default:"active" enum:"active,inactive,pending"`
	}
}

func (h *MemberHandler) createMember(ctx context.Context, in *CreateMemberInput) (*MemberDTO, error) {
	b := in.Body
	role, err := normalizeRole(b.TrusteeRole)
	if err != nil {
		return nil, err
	}
	if role != nil && *role == "" {
		role = nil
	}
	hash, err := auth.HashPassword(b.Password)
	if err != nil {
		LogDBError(ctx, "HashPassword", err)
		return nil, huma.Error500InternalServerError("Failed to create member")
	}

	m, err := h.gw.CreateMember(ctx, db.CreateMemberParams{
		Name:          strings.TrimSpace(b.Name),
		Email:         strings.ToLower(strings.TrimSpace(b.Email)),
		Phone:         b.Phone,
		Address:       b.Address,
		TrusteeRole:   role,
		AccountStatus: b.AccountStatus,
		PasswordHash:  hash,
	})
	if err != nil {
		return nil, err
	}
	dto := MemberDTOFromMember(m)
	return &dto, nil
}

// UpdateMemberInput is a partial member update.
type UpdateMemberInput struct {
	ID   string `path:"id" minLength:"1" maxLength:"64"`
	Body struct {
		Name          *string `json:"name,omitempty" minLength:"1" maxLength:"255"`
		Email         *string `json:"email,omitempty" format:"email" maxLength:"255"`
		Password      *string `json:"password,omitempty" minLength:"8" maxLength:"128"`
		Phone         *string `json:"phone,omitempty" maxLength:"32" doc:"Empty string clears the phone"`
		Address       *string `json:"address,omitempty" doc:"Empty string clears the address"`
		TrusteeRole   *string `json:"trusteeRole,omitempty" doc:"Empty string removes the role"`
		AccountStatus *string `json:"accountStatus,omitempty" enum:"active,inactive,pending"`
	}
}

func (h *MemberHandler) updateMember(ctx context.Context, in *UpdateMemberInput) (*MemberDTO, error) {
	b := in.Body
	role, err := normalizeRole(b.TrusteeRole)
	if err != nil {
		return nil, err
	}
	arg := db.UpdateMemberParams{
		ID:            in.ID,
		Name:          b.Name,
		Email:         b.Email,
		Phone:         b.Phone,
		Address:       b.Address,
		TrusteeRole:   role,
		AccountStatus: b.AccountStatus,
	}
	if b.Password != nil {
		hash, err := auth.HashPassword(*b.Password)
		if err != nil {
			LogDBError(ctx, "HashPassword", err)
			return nil, huma.Error500InternalServerError("Failed to update member")
		}
		arg.PasswordHash = &hash
	}

	m, err := h.gw.UpdateMember(ctx, arg)
	if err != nil {
		return nil, err
	}

	// A member who can no longer log in, or whose password was reset by
	// someone else, must not keep a live session.
	actor, _ := auth.ActorFrom(ctx)
	reset := b.Password != nil && (actor == nil || actor.MemberID != m.ID)
	if m.AccountStatus != db.AccountStatusActive || reset {
		if _, err := h.sessions.Revoke(ctx, m.ID); err != nil {
			LogDBError(ctx, "sessions.Revoke", err)
		}
	}

	dto := MemberDTOFromMember(m)
	return &dto, nil
}

func (h *MemberHandler) handleDeleteMember(ctx context.Context, in *IDInput) (*struct{}, error) {
	actor, err := require(ctx, auth.Perm(auth.AreaMembers, auth.VerbDelete))
	if err != nil {
		return nil, err
	}
	if actor.MemberID == in.ID {
		return nil, huma.Error422UnprocessableEntity("You cannot delete your own account")
	}

	if _, err := h.gw.DeleteMember(ctx, in.ID); err != nil {
		return nil, dbError(ctx, "DeleteMember", err)
	}
	if _, err := h.sessions.Revoke(ctx, in.ID); err != nil {
		LogDBError(ctx, "sessions.Revoke", err)
	}
	return nil, nil
}

// normalizeRole maps a submitted role to its stored form. A blank role comes
// back as "" so an update can clear it. Unknown roles are rejected rather than
// silently stored without permissions.
func normalizeRole(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	var out string
	if strings.TrimSpace(*s) != "" {
		role := auth.ParseRole(*s)
		if role == auth.RoleNone {
			return nil, huma.Error422UnprocessableEntity("unknown trustee role: " + *s)
		}
		out = string(role)
	}
	return &out, nil
}

// pageOf applies limit and offset to an already loaded list.
func pageOf[T any](rows []*T, arg db.ListParams) []*T {
	start := max(int(arg.Offset), 0)
	if start >= len(rows) {
		return nil
	}
	end := len(rows)
	if arg.Limit > 0 && start+int(arg.Limit) < end {
		end = start + int(arg.Limit)
	}
	return rows[start:end]
}
