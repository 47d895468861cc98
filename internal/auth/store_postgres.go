package auth

import (
	"context"
	"time"

	"github.com/Good-for-good/goodforgood-sub000/internal/db"
)

// SessionQueries is the slice of db.Querier the Postgres store needs.
type SessionQueries interface {
	CreateSession(ctx context.Context, arg db.CreateSessionParams) (*db.Session, error)
	GetSession(ctx context.Context, token string) (*db.Session, error)
	ExtendSession(ctx context.Context, arg db.ExtendSessionParams) (*db.Session, error)
	DeleteSession(ctx context.Context, token string) (*db.Session, error)
	DeleteSessionsByMember(ctx context.Context, memberID string) (int64, error)
	DeleteSessionsCreatedBefore(ctx context.Context, before time.Time) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// PostgresStore keeps sessions in the sessions table.
type PostgresStore struct {
	q SessionQueries
}

// NewPostgresStore creates a store over q.
func NewPostgresStore(q SessionQueries) *PostgresStore {
	return &PostgresStore{q: q}
}

var _ Store = (*PostgresStore)(nil)

func (p *PostgresStore) Create(ctx context.Context, s *Session) error {
	_, err := p.q.CreateSession(ctx, db.CreateSessionParams{
		Token:     s.Token,
		MemberID:  s.MemberID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	})
	return err
}

func (p *PostgresStore) Get(ctx context.Context, token string) (*Session, error) {
	row, err := p.q.GetSession(ctx, token)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &Session{
		Token:     row.Token,
		MemberID:  row.MemberID,
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

func (p *PostgresStore) Extend(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := p.q.ExtendSession(ctx, db.ExtendSessionParams{Token: token, ExpiresAt: expiresAt})
	if db.IsNotFound(err) {
		return ErrSessionNotFound
	}
	return err
}

func (p *PostgresStore) Delete(ctx context.Context, token string) error {
	_, err := p.q.DeleteSession(ctx, token)
	if db.IsNotFound(err) {
		return nil
	}
	return err
}

func (p *PostgresStore) DeleteByMember(ctx context.Context, memberID string) (int64, error) {
	return p.q.DeleteSessionsByMember(ctx, memberID)
}

func (p *PostgresStore) DeleteCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	return p.q.DeleteSessionsCreatedBefore(ctx, before)
}

func (p *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return p.q.DeleteExpiredSessions(ctx, now)
}
