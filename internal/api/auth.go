package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/config"
)

// AuthHandler handles login, logout and the current session.
type AuthHandler struct {
	sessions *auth.Manager
	cookies  cookieJar
}

// NewAuthHandler creates a new authentication handler.
func NewAuthHandler(sessions *auth.Manager, cfg config.SessionConfig) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookieJar{cfg: cfg}}
}

// RegisterRoutes registers all authentication routes.
func (h *AuthHandler) RegisterRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "createSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/sessions",
		Summary:     "Log in (create session)",
		Description: "Authenticates a member with email and password. Any previous session of the member ends. Sets the session cookie on success.",
		Tags:        []string{"Authentication"},
	}, h.handleLogin)

	huma.Register(api, huma.Operation{
		OperationID: "destroySession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/sessions",
		Summary:     "Log out (destroy session)",
		Tags:        []string{"Authentication"},
	}, h.handleLogout)

	huma.Register(api, huma.Operation{
		OperationID: "getCurrentSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/sessions/me",
		Summary:     "Get current session",
		Description: "Returns the signed-in member and the permissions of their role.",
		Tags:        []string{"Authentication"},
	}, h.handleGetCurrentSession)
}

// LoginInput is the request body for login.
type LoginInput struct {
	Body struct {
		Email    string `json:"email" required:"true" format:"email" doc:"Member email address (case-insensitive)"`
		Password string `json:"password" required:"true" minLength:"1" doc:"Account password"`
	}
}

// LoginOutput is the response for a successful login.
type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      SessionDTO
}

func (h *AuthHandler) handleLogin(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	session, member, err := h.sessions.Login(ctx, input.Body.Email, input.Body.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		LogAuthFailure(ctx, input.Body.Email, ReasonInvalidCredentials)
		return nil, huma.Error401Unauthorized("Invalid credentials")
	case errors.Is(err, auth.ErrInactive):
		LogAuthFailure(ctx, input.Body.Email, ReasonAccountInactive)
		return nil, huma.Error401Unauthorized("Invalid credentials")
	case err != nil:
		LogDBError(ctx, "sessions.Login", err)
		return nil, huma.Error500InternalServerError("Failed to create session")
	}

	role := auth.RoleFromPtr(member.TrusteeRole)
	output := &LoginOutput{SetCookie: h.cookies.issue(session.Token)}
	output.Body = SessionDTO{
		Member:      MemberDTOFromMember(member),
		ExpiresAt:   session.ExpiresAt,
		Permissions: emptyPerms(auth.Permissions(role)),
	}
	return output, nil
}

// LogoutOutput is the response for logout.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Success bool `json:"success"`
	}
}

func (h *AuthHandler) handleLogout(ctx context.Context, _ *struct{}) (*LogoutOutput, error) {
	token := auth.TokenFrom(ctx)
	if token == "" {
		return nil, huma.Error401Unauthorized("Not authenticated")
	}

	if err := h.sessions.Logout(ctx, token); err != nil {
		LogDBError(ctx, "sessions.Logout", err)
		return nil, huma.Error500InternalServerError("Failed to end session")
	}

	output := &LogoutOutput{SetCookie: h.cookies.clear()}
	output.Body.Success = true
	return output, nil
}

// GetCurrentSessionOutput is the response for the current session.
type GetCurrentSessionOutput struct {
	Body SessionDTO
}

func (h *AuthHandler) handleGetCurrentSession(ctx context.Context, _ *struct{}) (*GetCurrentSessionOutput, error) {
	actor, err := authenticated(ctx)
	if err != nil {
		return nil, err
	}

	member, err := h.sessions.Member(ctx, &auth.Session{MemberID: actor.MemberID})
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) {
			return nil, huma.Error401Unauthorized("Not authenticated")
		}
		LogDBError(ctx, "sessions.Member", err)
		return nil, huma.Error500InternalServerError("Database error")
	}

	output := &GetCurrentSessionOutput{}
	output.Body = SessionDTO{
		Member:      MemberDTOFromMember(member),
		ExpiresAt:   actor.SessionExpiresAt,
		Permissions: emptyPerms(auth.Permissions(actor.Role)),
	}
	return output, nil
}

func emptyPerms(p []auth.Permission) []auth.Permission {
	if p == nil {
		return []auth.Permission{}
	}
	return p
}
