package auth

import (
	"context"
	"time"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
)

type contextKey int

const (
	actorKey contextKey = iota
	tokenKey
)

// Actor is the authenticated member behind a request.
type Actor struct {
	MemberID string
	Name     string
	Email    string
	Role     Role
	// SessionExpiresAt is the expiry after any sliding extension.
	SessionExpiresAt time.Time
}

// Can reports whether the actor holds p.
func (a *Actor) Can(p Permission) bool {
	return a != nil && HasPermission(a.Role, p)
}

// WithActor stores the authenticated member in ctx.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFrom returns the member stored by WithActor.
func ActorFrom(ctx context.Context) (*Actor, bool) {
	a, ok := ctx.Value(actorKey).(*Actor)
	return a, ok && a != nil
}

// WithToken stores the raw session token in ctx so the actor can be resolved
// lazily when no guard ran.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFrom returns the token stored by WithToken.
func TokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// Resolver implements audit.ActorResolver: the actor placed by the guard
// wins, otherwise the request's session token is validated.
type Resolver struct {
	sessions *Manager
}

// NewResolver creates a Resolver. sessions may be nil, in which case only
// context actors are resolved.
func NewResolver(sessions *Manager) *Resolver {
	return &Resolver{sessions: sessions}
}

var _ audit.ActorResolver = (*Resolver)(nil)

// ResolveActor implements audit.ActorResolver.
func (r *Resolver) ResolveActor(ctx context.Context) (string, bool) {
	if a, ok := ActorFrom(ctx); ok {
		return a.MemberID, true
	}
	if r.sessions == nil {
		return "", false
	}
	token := TokenFrom(ctx)
	if token == "" {
		return "", false
	}
	s, err := r.sessions.Validate(ctx, token)
	if err != nil {
		return "", false
	}
	return s.MemberID, true
}
