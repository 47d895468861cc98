package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Good-for-good/goodforgood-sub000/internal/config"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
	"github.com/Good-for-good/goodforgood-sub000/internal/metrics"
)

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInactive is returned when the password is right but the account is not active.
	ErrInactive = errors.New("account is not active")
)

// MemberLookup is the slice of db.Querier the Manager needs.
type MemberLookup interface {
	GetMemberByEmail(ctx context.Context, email string) (*db.Member, error)
	GetMemberByID(ctx context.Context, id string) (*db.Member, error)
}

// Manager implements login, validation with sliding expiry, logout and
// pruning on top of a Store.
type Manager struct {
	store   Store
	members MemberLookup
	cfg     config.SessionConfig
	now     func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager.
func NewManager(store Store, members MemberLookup, cfg config.SessionConfig, opts ...ManagerOption) *Manager {
	m := &Manager{store: store, members: members, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login checks the credentials and replaces any existing session of the
// member with a fresh one. Sessions older than the prune age are removed
// from the store as a side effect.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, *db.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	member, err := m.members.GetMemberByEmail(ctx, email)
	if err != nil {
		if !db.IsNotFound(err) {
			return nil, nil, fmt.Errorf("lookup member: %w", err)
		}
		burnPasswordCheck(password)
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, nil, ErrInvalidCredentials
	}
	if !VerifyPassword(password, member.PasswordHash) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, nil, ErrInvalidCredentials
	}
	if member.AccountStatus != db.AccountStatusActive {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, nil, ErrInactive
	}

	now := m.now()
	if _, err := m.store.DeleteByMember(ctx, member.ID); err != nil {
		return nil, nil, fmt.Errorf("delete previous sessions: %w", err)
	}
	if n, err := m.store.DeleteCreatedBefore(ctx, now.Add(-m.cfg.PruneAge)); err != nil {
		slog.WarnContext(ctx, "session prune failed", "error", err)
	} else if n > 0 {
		slog.DebugContext(ctx, "pruned stale sessions", "count", n)
	}

	token, err := MakeTokenUnique(func(t string) (bool, error) {
		_, err := m.store.Get(ctx, t)
		switch {
		case errors.Is(err, ErrSessionNotFound):
			return false, nil
		case err != nil:
			return false, err
		default:
			return true, nil
		}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("generate session token: %w", err)
	}

	s := &Session{
		Token:     token,
		MemberID:  member.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.Duration),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	slog.InfoContext(ctx, "member logged in", "member_id", member.ID)
	return s, member, nil
}

// Validate resolves token to its session. An expired session is deleted and
// ErrSessionExpired returned. A session with less than the extension
// threshold remaining has its expiry pushed to now plus the full duration.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		metrics.SessionValidations.WithLabelValues("missing").Inc()
		return nil, ErrSessionNotFound
	}

	s, err := m.store.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		metrics.SessionValidations.WithLabelValues("missing").Inc()
		return nil, ErrSessionNotFound
	}
	if err != nil {
		metrics.SessionValidations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load session: %w", err)
	}

	now := m.now()
	if s.ExpiredAt(now) {
		metrics.SessionValidations.WithLabelValues("expired").Inc()
		if err := m.store.Delete(ctx, token); err != nil {
			slog.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return nil, ErrSessionExpired
	}

	if s.Remaining(now) < m.cfg.ExtendThreshold {
		expiresAt := now.Add(m.cfg.Duration)
		if err := m.store.Extend(ctx, token, expiresAt); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				metrics.SessionValidations.WithLabelValues("missing").Inc()
				return nil, ErrSessionNotFound
			}
			metrics.SessionValidations.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("extend session: %w", err)
		}
		s.ExpiresAt = expiresAt
		metrics.SessionValidations.WithLabelValues("extended").Inc()
		return s, nil
	}

	metrics.SessionValidations.WithLabelValues("valid").Inc()
	return s, nil
}

// Member loads the member that owns a validated session.
func (m *Manager) Member(ctx context.Context, s *Session) (*db.Member, error) {
	member, err := m.members.GetMemberByID(ctx, s.MemberID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session member: %w", err)
	}
	return member, nil
}

// Logout deletes the session for token. Unknown tokens are not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, token)
}

// Revoke ends every session of a member, e.g. after deactivation.
func (m *Manager) Revoke(ctx context.Context, memberID string) (int64, error) {
	return m.store.DeleteByMember(ctx, memberID)
}

// Cleanup removes expired sessions and returns how many were removed.
func (m *Manager) Cleanup(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Cleanup(ctx)
			if err != nil {
				slog.WarnContext(ctx, "session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}
