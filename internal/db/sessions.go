package db

import (
	"context"
	"time"
)

const sessionColumns = `token, member_id, created_at, expires_at`

// CreateSessionParams holds the fields for a new session.
type CreateSessionParams struct {
	Token     string
	MemberID  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

const createSession = `
INSERT INTO sessions (token, member_id, created_at, expires_at)
VALUES ($1, $2, $3, $4)
RETURNING ` + sessionColumns

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (*Session, error) {
	rows, err := q.db.Query(ctx, createSession, arg.Token, arg.MemberID, arg.CreatedAt, arg.ExpiresAt)
	return collectOne[Session](rows, err)
}

const getSession = `SELECT ` + sessionColumns + ` FROM sessions WHERE token = $1`

func (q *Queries) GetSession(ctx context.Context, token string) (*Session, error) {
	rows, err := q.db.Query(ctx, getSession, token)
	return collectOne[Session](rows, err)
}

// ExtendSessionParams moves a session's expiry.
type ExtendSessionParams struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

const extendSession = `UPDATE sessions SET expires_at = $2 WHERE token = $1 RETURNING ` + sessionColumns

func (q *Queries) ExtendSession(ctx context.Context, arg ExtendSessionParams) (*Session, error) {
	rows, err := q.db.Query(ctx, extendSession, arg.Token, arg.ExpiresAt)
	return collectOne[Session](rows, err)
}

const deleteSession = `DELETE FROM sessions WHERE token = $1 RETURNING ` + sessionColumns

func (q *Queries) DeleteSession(ctx context.Context, token string) (*Session, error) {
	rows, err := q.db.Query(ctx, deleteSession, token)
	return collectOne[Session](rows, err)
}

const deleteSessionsByMember = `DELETE FROM sessions WHERE member_id = $1`

func (q *Queries) DeleteSessionsByMember(ctx context.Context, memberID string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSessionsByMember, memberID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteSessionsCreatedBefore = `DELETE FROM sessions WHERE created_at < $1`

func (q *Queries) DeleteSessionsCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteSessionsCreatedBefore, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at <= $1`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
