package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrSessionNotFound is returned when no session exists for a token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned by Validate for a session past its expiry.
	// The session has already been removed; clients should clear their cookie.
	ErrSessionExpired = errors.New("session expired")
)

// Session represents a member's active login state.
type Session struct {
	Token     string    // Primary key (32 bytes, base64url)
	MemberID  string    // Foreign key to members.id
	CreatedAt time.Time // Session creation time
	ExpiresAt time.Time // Pushed forward by sliding extension
}

// ExpiredAt reports whether the session has expired at now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Remaining returns the lifetime left at now.
func (s *Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// Store persists sessions. Get returns ErrSessionNotFound for unknown tokens
// and Extend does the same when the token vanished in between.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Extend(ctx context.Context, token string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
	DeleteByMember(ctx context.Context, memberID string) (int64, error)
	DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// MemoryStore keeps sessions in process memory. It suits tests and
// single-instance deployments; sessions are lost on restart.
type MemoryStore struct {
	sessions sync.Map // map[token]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ Store = (*MemoryStore)(nil)

// Create stores a copy of s.
func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	cp := *s
	m.sessions.Store(s.Token, &cp)
	return nil
}

// Get returns a copy of the stored session.
func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	value, ok := m.sessions.Load(token)
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *value.(*Session)
	return &cp, nil
}

// Extend replaces the expiry of an existing session.
func (m *MemoryStore) Extend(_ context.Context, token string, expiresAt time.Time) error {
	value, ok := m.sessions.Load(token)
	if !ok {
		return ErrSessionNotFound
	}
	cp := *value.(*Session)
	cp.ExpiresAt = expiresAt
	m.sessions.Store(token, &cp)
	return nil
}

// Delete removes a session by token. Unknown tokens are ignored.
func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.sessions.Delete(token)
	return nil
}

// DeleteByMember removes all sessions for a member.
func (m *MemoryStore) DeleteByMember(_ context.Context, memberID string) (int64, error) {
	return m.deleteWhere(func(s *Session) bool { return s.MemberID == memberID }), nil
}

// DeleteCreatedBefore removes sessions created strictly before the cutoff.
func (m *MemoryStore) DeleteCreatedBefore(_ context.Context, before time.Time) (int64, error) {
	return m.deleteWhere(func(s *Session) bool { return s.CreatedAt.Before(before) }), nil
}

// DeleteExpired removes all sessions expired at now.
func (m *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return m.deleteWhere(func(s *Session) bool { return s.ExpiredAt(now) }), nil
}

func (m *MemoryStore) deleteWhere(match func(*Session) bool) int64 {
	var toDelete []string
	m.sessions.Range(func(key, value any) bool {
		if match(value.(*Session)) {
			toDelete = append(toDelete, key.(string))
		}
		return true
	})

	var n int64
	for _, token := range toDelete {
		if _, loaded := m.sessions.LoadAndDelete(token); loaded {
			n++
		}
	}
	return n
}
