// Package db provides database access and query helpers.
//
// Queries is the Postgres implementation of Gateway. Audited wraps any
// Gateway so every mutating call is reported to the audit interceptor.
package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// New creates Queries over db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries runs typed statements against a DBTX.
type Queries struct {
	db DBTX
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// InTx implements Gateway.
func (q *Queries) InTx(tx pgx.Tx) Gateway {
	return q.WithTx(tx)
}

// Querier lists every statement the application runs.
type Querier interface {
	// Members
	CreateMember(ctx context.Context, arg CreateMemberParams) (*Member, error)
	GetMemberByID(ctx context.Context, id string) (*Member, error)
	GetMemberByEmail(ctx context.Context, email string) (*Member, error)
	ListMembers(ctx context.Context) ([]*Member, error)
	UpdateMember(ctx context.Context, arg UpdateMemberParams) (*Member, error)
	DeleteMember(ctx context.Context, id string) (*Member, error)

	// Donations
	CreateDonation(ctx context.Context, arg CreateDonationParams) (*Donation, error)
	GetDonationByID(ctx context.Context, id string) (*Donation, error)
	ListDonations(ctx context.Context, arg ListParams) ([]*Donation, error)
	UpdateDonation(ctx context.Context, arg UpdateDonationParams) (*Donation, error)
	DeleteDonation(ctx context.Context, id string) (*Donation, error)

	// Expenses
	CreateExpense(ctx context.Context, arg CreateExpenseParams) (*Expense, error)
	GetExpenseByID(ctx context.Context, id string) (*Expense, error)
	ListExpenses(ctx context.Context, arg ListParams) ([]*Expense, error)
	UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (*Expense, error)
	DeleteExpense(ctx context.Context, id string) (*Expense, error)

	// Activities
	CreateActivity(ctx context.Context, arg CreateActivityParams) (*Activity, error)
	GetActivityByID(ctx context.Context, id string) (*Activity, error)
	ListActivities(ctx context.Context, arg ListParams) ([]*Activity, error)
	UpdateActivity(ctx context.Context, arg UpdateActivityParams) (*Activity, error)
	DeleteActivity(ctx context.Context, id string) (*Activity, error)

	// Meetings
	CreateMeeting(ctx context.Context, arg CreateMeetingParams) (*Meeting, error)
	GetMeetingByID(ctx context.Context, id string) (*Meeting, error)
	ListMeetings(ctx context.Context, arg ListParams) ([]*Meeting, error)
	UpdateMeeting(ctx context.Context, arg UpdateMeetingParams) (*Meeting, error)
	DeleteMeeting(ctx context.Context, id string) (*Meeting, error)
	ListMeetingAttendees(ctx context.Context, meetingID string) ([]*MeetingAttendee, error)
	CreateMeetingAttendee(ctx context.Context, arg CreateMeetingAttendeeParams) (*MeetingAttendee, error)
	DeleteMeetingAttendee(ctx context.Context, id string) (*MeetingAttendee, error)
	ListMeetingDecisions(ctx context.Context, meetingID string) ([]*MeetingDecision, error)
	CreateMeetingDecision(ctx context.Context, arg CreateMeetingDecisionParams) (*MeetingDecision, error)
	DeleteMeetingDecision(ctx context.Context, id string) (*MeetingDecision, error)
	ListMeetingAttachments(ctx context.Context, meetingID string) ([]*MeetingAttachment, error)
	CreateMeetingAttachment(ctx context.Context, arg CreateMeetingAttachmentParams) (*MeetingAttachment, error)
	DeleteMeetingAttachment(ctx context.Context, id string) (*MeetingAttachment, error)

	// Workshop resources
	CreateWorkshop(ctx context.Context, arg CreateWorkshopParams) (*WorkshopResource, error)
	GetWorkshopByID(ctx context.Context, id string) (*WorkshopResource, error)
	ListWorkshops(ctx context.Context, arg ListParams) ([]*WorkshopResource, error)
	UpdateWorkshop(ctx context.Context, arg UpdateWorkshopParams) (*WorkshopResource, error)
	DeleteWorkshop(ctx context.Context, id string) (*WorkshopResource, error)

	// Links
	CreateLink(ctx context.Context, arg CreateLinkParams) (*Link, error)
	GetLinkByID(ctx context.Context, id string) (*Link, error)
	ListLinks(ctx context.Context, arg ListParams) ([]*Link, error)
	UpdateLink(ctx context.Context, arg UpdateLinkParams) (*Link, error)
	UpsertLinkByURL(ctx context.Context, arg CreateLinkParams) (*UpsertedLink, error)
	DeleteLink(ctx context.Context, id string) (*Link, error)

	// Sessions
	CreateSession(ctx context.Context, arg CreateSessionParams) (*Session, error)
	GetSession(ctx context.Context, token string) (*Session, error)
	ExtendSession(ctx context.Context, arg ExtendSessionParams) (*Session, error)
	DeleteSession(ctx context.Context, token string) (*Session, error)
	DeleteSessionsByMember(ctx context.Context, memberID string) (int64, error)
	DeleteSessionsCreatedBefore(ctx context.Context, before time.Time) (int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// Audit logs
	InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error
	ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]*AuditLogView, error)
	CountAuditLogs(ctx context.Context, arg AuditLogFilter) (int64, error)
	ListAuditEntityTypes(ctx context.Context) ([]string, error)
	DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error)
}

// Gateway is a Querier that can rebind itself to a transaction.
type Gateway interface {
	Querier
	InTx(tx pgx.Tx) Gateway
}

var _ Gateway = (*Queries)(nil)

// ListParams pages a list query.
type ListParams struct {
	Limit  int32
	Offset int32
}

// ByID is the selector recorded for updates of a single row.
type ByID struct {
	ID string `json:"id"`
}

// collect scans rows into struct pointers by column name.
func collect[T any](rows pgx.Rows, err error) ([]*T, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
}

// collectOne scans exactly one row. It returns pgx.ErrNoRows when the
// statement matched nothing.
func collectOne[T any](rows pgx.Rows, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
}
