package api

import (
	"context"
	"log/slog"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Good-for-good/goodforgood-sub000/internal/db"
)

// AuthFailureReason describes why an authentication attempt failed.
type AuthFailureReason string

const (
	ReasonInvalidCredentials AuthFailureReason = "invalid_credentials"
	ReasonAccountInactive    AuthFailureReason = "account_inactive"
	ReasonThrottled          AuthFailureReason = "throttled"
	ReasonPermissionDenied   AuthFailureReason = "permission_denied"
)

// LogAuthFailure logs an authentication or authorization failure for security
// auditing. The response to the client stays generic to prevent enumeration.
func LogAuthFailure(ctx context.Context, subject string, reason AuthFailureReason) {
	slog.WarnContext(ctx, "auth failure", "subject", subject, "reason", string(reason))
}

// LogDBError logs a database error for debugging and alerting.
func LogDBError(ctx context.Context, operation string, err error) {
	slog.ErrorContext(ctx, "database error", "operation", operation, "error", err)
}

// dbError maps a gateway error to the HTTP error returned to the client.
// Unexpected errors are logged; the client sees a generic 500.
func dbError(ctx context.Context, operation string, err error) error {
	switch {
	case db.IsNotFound(err):
		return huma.Error404NotFound("Not found")
	case db.IsUniqueViolation(err):
		return huma.Error409Conflict("A record with the same unique value already exists")
	case db.IsForeignKeyViolation(err):
		return huma.Error422UnprocessableEntity("Referenced record does not exist")
	default:
		LogDBError(ctx, operation, err)
		return huma.Error500InternalServerError("Database error")
	}
}
