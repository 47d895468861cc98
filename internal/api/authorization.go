package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
)

// require is the permission gate every operation calls first. It returns the
// actor placed by the session middleware, 401 when there is none, and 403
// when the actor's role does not hold p.
func require(ctx context.Context, p auth.Permission) (*auth.Actor, error) {
	actor, ok := auth.ActorFrom(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Not authenticated")
	}
	if !actor.Can(p) {
		LogAuthFailure(ctx, actor.MemberID, ReasonPermissionDenied)
		return nil, huma.Error403Forbidden("Permission denied")
	}
	return actor, nil
}

// authenticated returns the current actor or 401.
func authenticated(ctx context.Context) (*auth.Actor, error) {
	actor, ok := auth.ActorFrom(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Not authenticated")
	}
	return actor, nil
}
