package db

import (
	"context"

	"github.com/google/uuid"
)

const memberColumns = `id, name, email, phone, address, trustee_role, account_status, password_hash, joined_at, created_at, updated_at`

// CreateMemberParams holds the fields for a new member.
type CreateMemberParams struct {
	Name          string
	Email         string
	Phone         *string
	Address       *string
	TrusteeRole   *string
	AccountStatus string
	PasswordHash  string
}

const createMember = `
INSERT INTO members (id, name, email, phone, address, trustee_role, account_status, password_hash)
VALUES ($1, $2, lower($3), $4, $5, $6, COALESCE(NULLIF($7, ''), 'active'), $8)
RETURNING ` + memberColumns

func (q *Queries) CreateMember(ctx context.Context, arg CreateMemberParams) (*Member, error) {
	rows, err := q.db.Query(ctx, createMember,
		uuid.NewString(),
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Address,
		arg.TrusteeRole,
		arg.AccountStatus,
		arg.PasswordHash,
	)
	return collectOne[Member](rows, err)
}

const getMemberByID = `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

func (q *Queries) GetMemberByID(ctx context.Context, id string) (*Member, error) {
	rows, err := q.db.Query(ctx, getMemberByID, id)
	return collectOne[Member](rows, err)
}

const getMemberByEmail = `SELECT ` + memberColumns + ` FROM members WHERE email = lower($1)`

func (q *Queries) GetMemberByEmail(ctx context.Context, email string) (*Member, error) {
	rows, err := q.db.Query(ctx, getMemberByEmail, email)
	return collectOne[Member](rows, err)
}

const listMembers = `SELECT ` + memberColumns + ` FROM members ORDER BY name, id`

func (q *Queries) ListMembers(ctx context.Context) ([]*Member, error) {
	rows, err := q.db.Query(ctx, listMembers)
	return collect[Member](rows, err)
}

// UpdateMemberParams holds a partial member update. Nil fields are left
// unchanged; an empty phone, address or trustee role clears the column. The
// JSON form is what the audit trail records as "new".
type UpdateMemberParams struct {
	ID            string  `json:"-"`
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	TrusteeRole   *string `json:"trusteeRole,omitempty"`
	AccountStatus *string `json:"accountStatus,omitempty"`
	PasswordHash  *string `json:"-"`
}

const updateMember = `
UPDATE members SET
    name = COALESCE($2, name),
    email = COALESCE(lower($3), email),
    phone = CASE WHEN $4::text = '' THEN NULL ELSE COALESCE($4, phone) END,
    address = CASE WHEN $5::text = '' THEN NULL ELSE COALESCE($5, address) END,
    trustee_role = CASE WHEN $6::text = '' THEN NULL ELSE COALESCE($6, trustee_role) END,
    account_status = COALESCE($7, account_status),
    password_hash = COALESCE($8, password_hash),
    updated_at = now()
WHERE id = $1
RETURNING ` + memberColumns

func (q *Queries) UpdateMember(ctx context.Context, arg UpdateMemberParams) (*Member, error) {
	rows, err := q.db.Query(ctx, updateMember,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.Address,
		arg.TrusteeRole,
		arg.AccountStatus,
		arg.PasswordHash,
	)
	return collectOne[Member](rows, err)
}

const deleteMember = `DELETE FROM members WHERE id = $1 RETURNING ` + memberColumns

func (q *Queries) DeleteMember(ctx context.Context, id string) (*Member, error) {
	rows, err := q.db.Query(ctx, deleteMember, id)
	return collectOne[Member](rows, err)
}
