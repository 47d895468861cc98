package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
)

// InsertAuditLogParams holds one audit row.
type InsertAuditLogParams struct {
	ID         string
	Action     string
	EntityType string
	EntityID   string
	Changes    []byte
	Summary    *string
	GroupID    *string
	ParentID   *string
	MemberID   string
	CreatedAt  time.Time
}

const insertAuditLog = `
INSERT INTO audit_logs (id, action, entity_type, entity_id, changes, summary, group_id, parent_id, member_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx, insertAuditLog,
		arg.ID,
		arg.Action,
		arg.EntityType,
		arg.EntityID,
		arg.Changes,
		arg.Summary,
		arg.GroupID,
		arg.ParentID,
		arg.MemberID,
		arg.CreatedAt,
	)
	return err
}

// AppendAuditEntry implements audit.Sink. Inside a transaction the insert runs
// under a savepoint so a failed audit write leaves the business transaction
// usable.
func (q *Queries) AppendAuditEntry(ctx context.Context, e audit.Entry) error {
	arg := InsertAuditLogParams{
		ID:         e.ID,
		Action:     string(e.Action),
		EntityType: string(e.EntityType),
		EntityID:   e.EntityID,
		Changes:    e.Changes,
		GroupID:    e.GroupID,
		ParentID:   e.ParentID,
		MemberID:   e.MemberID,
		CreatedAt:  e.CreatedAt,
	}
	if e.Summary != "" {
		arg.Summary = &e.Summary
	}

	tx, ok := q.db.(pgx.Tx)
	if !ok {
		return q.InsertAuditLog(ctx, arg)
	}
	return pgx.BeginFunc(ctx, tx, func(sp pgx.Tx) error {
		return q.WithTx(sp).InsertAuditLog(ctx, arg)
	})
}

var _ audit.Sink = (*Queries)(nil)

// AuditLogFilter narrows audit log queries. Nil fields match everything.
type AuditLogFilter struct {
	EntityType *string
	EntityID   *string
	Action     *string
	// Search matches actor name, actor email or entity type as a
	// case-insensitive substring.
	Search *string
	From   *time.Time
	To     *time.Time
}

// ListAuditLogsParams pages a filtered audit log query.
type ListAuditLogsParams struct {
	AuditLogFilter
	Limit  int32
	Offset int32
}

const auditLogFilterClause = `
WHERE ($1::text IS NULL OR lower(a.entity_type) = lower($1::text))
  AND ($2::text IS NULL OR a.entity_id = $2::text)
  AND ($3::text IS NULL OR a.action = upper($3::text))
  AND ($4::text IS NULL
       OR m.name ILIKE '%' || $4::text || '%' ESCAPE '\'
       OR m.email ILIKE '%' || $4::text || '%' ESCAPE '\'
       OR a.entity_type ILIKE '%' || $4::text || '%' ESCAPE '\')
  AND ($5::timestamptz IS NULL OR a.created_at >= $5::timestamptz)
  AND ($6::timestamptz IS NULL OR a.created_at < $6::timestamptz)`

const listAuditLogs = `
SELECT a.id, a.action, a.entity_type, a.entity_id, a.changes, a.summary, a.group_id, a.parent_id,
       a.member_id, a.created_at, m.name AS member_name, m.email AS member_email
FROM audit_logs a
LEFT JOIN members m ON m.id = a.member_id` + auditLogFilterClause + `
ORDER BY a.created_at DESC, a.id DESC
LIMIT $7 OFFSET $8`

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]*AuditLogView, error) {
	args := arg.AuditLogFilter.args()
	rows, err := q.db.Query(ctx, listAuditLogs, append(args, arg.Limit, arg.Offset)...)
	return collect[AuditLogView](rows, err)
}

const countAuditLogs = `
SELECT count(*)
FROM audit_logs a
LEFT JOIN members m ON m.id = a.member_id` + auditLogFilterClause

func (q *Queries) CountAuditLogs(ctx context.Context, arg AuditLogFilter) (int64, error) {
	var n int64
	if err := q.db.QueryRow(ctx, countAuditLogs, arg.args()...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit logs: %w", err)
	}
	return n, nil
}

const listAuditEntityTypes = `SELECT DISTINCT lower(entity_type) FROM audit_logs ORDER BY 1`

func (q *Queries) ListAuditEntityTypes(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, listAuditEntityTypes)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

const deleteAuditLogsBefore = `DELETE FROM audit_logs WHERE created_at < $1`

// DeleteAuditLogsBefore is used only by the out-of-band prune command.
func (q *Queries) DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteAuditLogsBefore, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (f AuditLogFilter) args() []any {
	var search *string
	if f.Search != nil {
		if s := strings.TrimSpace(*f.Search); s != "" {
			escaped := escapeLike(s)
			search = &escaped
		}
	}
	return []any{f.EntityType, f.EntityID, f.Action, search, f.From, f.To}
}

// escapeLike escapes LIKE wildcards so search text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
