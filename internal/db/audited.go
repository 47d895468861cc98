package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
)

// errNoSink is returned for audit writes when the wrapped gateway cannot
// persist entries. The interceptor logs and drops it.
var errNoSink = errors.New("gateway does not persist audit entries")

// AuditedGateway reports every mutating call of the wrapped Gateway to an
// audit.Interceptor. Reads pass straight through.
type AuditedGateway struct {
	Gateway
	ic   *audit.Interceptor
	sink audit.Sink
}

// Audited wraps gw. Entries are written through gw itself when it implements
// audit.Sink, so they share its connection or transaction.
func Audited(gw Gateway, ic *audit.Interceptor) *AuditedGateway {
	sink, ok := gw.(audit.Sink)
	if !ok {
		sink = audit.SinkFunc(func(context.Context, audit.Entry) error { return errNoSink })
	}
	return &AuditedGateway{Gateway: gw, ic: ic, sink: sink}
}

var _ Gateway = (*AuditedGateway)(nil)

// InTx rebinds the wrapped gateway to tx and keeps auditing it.
func (g *AuditedGateway) InTx(tx pgx.Tx) Gateway {
	return Audited(g.Gateway.InTx(tx), g.ic)
}

// AppendAuditEntry forwards to the sink so an AuditedGateway can itself be
// handed to code that expects one.
func (g *AuditedGateway) AppendAuditEntry(ctx context.Context, e audit.Entry) error {
	return g.sink.AppendAuditEntry(ctx, e)
}

func (g *AuditedGateway) create(entity audit.EntityType) audit.Mutation {
	return audit.Mutation{Entity: entity, Op: audit.OpCreate}
}

func (g *AuditedGateway) update(entity audit.EntityType, id string, data any) audit.Mutation {
	return audit.Mutation{Entity: entity, Op: audit.OpUpdate, EntityID: id, Where: ByID{ID: id}, Data: data}
}

func (g *AuditedGateway) delete(entity audit.EntityType, id string) audit.Mutation {
	return audit.Mutation{Entity: entity, Op: audit.OpDelete, EntityID: id}
}

// Members

func (g *AuditedGateway) CreateMember(ctx context.Context, arg CreateMemberParams) (*Member, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityMember), func(ctx context.Context) (*Member, error) {
		return g.Gateway.CreateMember(ctx, arg)
	})
}

func (g *AuditedGateway) UpdateMember(ctx context.Context, arg UpdateMemberParams) (*Member, error) {
	return audit.Run(ctx, g.ic, g.sink, g.update(audit.EntityMember, arg.ID, arg), func(ctx context.Context) (*Member, error) {
		return g.Gateway.UpdateMember(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteMember(ctx context.Context, id string) (*Member, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityMember, id), func(ctx context.Context) (*Member, error) {
		return g.Gateway.DeleteMember(ctx, id)
	})
}

// Donations

func (g *AuditedGateway) CreateDonation(ctx context.Context, arg CreateDonationParams) (*Donation, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityDonation), func(ctx context.Context) (*Donation, error) {
		return g.Gateway.CreateDonation(ctx, arg)
	})
}

func (g *AuditedGateway) UpdateDonation(ctx context.Context, arg UpdateDonationParams) (*Donation, error) {
	return audit.Run(ctx, g.ic, g.sink, g.update(audit.EntityDonation, arg.ID, arg), func(ctx context.Context) (*Donation, error) {
		return g.Gateway.UpdateDonation(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteDonation(ctx context.Context, id string) (*Donation, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityDonation, id), func(ctx context.Context) (*Donation, error) {
		return g.Gateway.DeleteDonation(ctx, id)
	})
}

// Expenses

func (g *AuditedGateway) CreateExpense(ctx context.Context, arg CreateExpenseParams) (*Expense, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityExpense), func(ctx context.Context) (*Expense, error) {
		return g.Gateway.CreateExpense(ctx, arg)
	})
}

func (g *AuditedGateway) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (*Expense, error) {
	return audit.Run(ctx, g.ic, g.sink, g.update(audit.EntityExpense, arg.ID, arg), func(ctx context.Context) (*Expense, error) {
		return g.Gateway.UpdateExpense(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteExpense(ctx context.Context, id string) (*Expense, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityExpense, id), func(ctx context.Context) (*Expense, error) {
		return g.Gateway.DeleteExpense(ctx, id)
	})
}

// Activities

func (g *AuditedGateway) CreateActivity(ctx context.Context, arg CreateActivityParams) (*Activity, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityActivity), func(ctx context.Context) (*Activity, error) {
		return g.Gateway.CreateActivity(ctx, arg)
	})
}

func (g *AuditedGateway) UpdateActivity(ctx context.Context, arg UpdateActivityParams) (*Activity, error) {
	return audit.Run(ctx, g.ic, g.sink, g.update(audit.EntityActivity, arg.ID, arg), func(ctx context.Context) (*Activity, error) {
		return g.Gateway.UpdateActivity(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteActivity(ctx context.Context, id string) (*Activity, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityActivity, id), func(ctx context.Context) (*Activity, error) {
		return g.Gateway.DeleteActivity(ctx, id)
	})
}

// Meetings

func (g *AuditedGateway) CreateMeeting(ctx context.Context, arg CreateMeetingParams) (*Meeting, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityMeeting), func(ctx context.Context) (*Meeting, error) {
		return g.Gateway.CreateMeeting(ctx, arg)
	})
}

func (g *AuditedGateway) UpdateMeeting(ctx context.Context, arg UpdateMeetingParams) (*Meeting, error) {
	return audit.Run(ctx, g.ic, g.sink, g.update(audit.EntityMeeting, arg.ID, arg), func(ctx context.Context) (*Meeting, error) {
		return g.Gateway.UpdateMeeting(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteMeeting(ctx context.Context, id string) (*Meeting, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityMeeting, id), func(ctx context.Context) (*Meeting, error) {
		return g.Gateway.DeleteMeeting(ctx, id)
	})
}

func (g *AuditedGateway) CreateMeetingAttendee(ctx context.Context, arg CreateMeetingAttendeeParams) (*MeetingAttendee, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityMeetingAttendee), func(ctx context.Context) (*MeetingAttendee, error) {
		return g.Gateway.CreateMeetingAttendee(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteMeetingAttendee(ctx context.Context, id string) (*MeetingAttendee, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityMeetingAttendee, id), func(ctx context.Context) (*MeetingAttendee, error) {
		return g.Gateway.DeleteMeetingAttendee(ctx, id)
	})
}

func (g *AuditedGateway) CreateMeetingDecision(ctx context.Context, arg CreateMeetingDecisionParams) (*MeetingDecision, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityMeetingDecision), func(ctx context.Context) (*MeetingDecision, error) {
		return g.Gateway.CreateMeetingDecision(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteMeetingDecision(ctx context.Context, id string) (*MeetingDecision, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityMeetingDecision, id), func(ctx context.Context) (*MeetingDecision, error) {
		return g.Gateway.DeleteMeetingDecision(ctx, id)
	})
}

func (g *AuditedGateway) CreateMeetingAttachment(ctx context.Context, arg CreateMeetingAttachmentParams) (*MeetingAttachment, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityMeetingAttachment), func(ctx context.Context) (*MeetingAttachment, error) {
		return g.Gateway.CreateMeetingAttachment(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteMeetingAttachment(ctx context.Context, id string) (*MeetingAttachment, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityMeetingAttachment, id), func(ctx context.Context) (*MeetingAttachment, error) {
		return g.Gateway.DeleteMeetingAttachment(ctx, id)
	})
}

// Workshop resources

func (g *AuditedGateway) CreateWorkshop(ctx context.Context, arg CreateWorkshopParams) (*WorkshopResource, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityWorkshop), func(ctx context.Context) (*WorkshopResource, error) {
		return g.Gateway.CreateWorkshop(ctx, arg)
	})
}

func (g *AuditedGateway) UpdateWorkshop(ctx context.Context, arg UpdateWorkshopParams) (*WorkshopResource, error) {
	return audit.Run(ctx, g.ic, g.sink, g.update(audit.EntityWorkshop, arg.ID, arg), func(ctx context.Context) (*WorkshopResource, error) {
		return g.Gateway.UpdateWorkshop(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteWorkshop(ctx context.Context, id string) (*WorkshopResource, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityWorkshop, id), func(ctx context.Context) (*WorkshopResource, error) {
		return g.Gateway.DeleteWorkshop(ctx, id)
	})
}

// Links

func (g *AuditedGateway) CreateLink(ctx context.Context, arg CreateLinkParams) (*Link, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntityLink), func(ctx context.Context) (*Link, error) {
		return g.Gateway.CreateLink(ctx, arg)
	})
}

func (g *AuditedGateway) UpdateLink(ctx context.Context, arg UpdateLinkParams) (*Link, error) {
	return audit.Run(ctx, g.ic, g.sink, g.update(audit.EntityLink, arg.ID, arg), func(ctx context.Context) (*Link, error) {
		return g.Gateway.UpdateLink(ctx, arg)
	})
}

// linkByURL is the selector recorded for link upserts.
type linkByURL struct {
	URL string `json:"url"`
}

func (g *AuditedGateway) UpsertLinkByURL(ctx context.Context, arg CreateLinkParams) (*UpsertedLink, error) {
	m := audit.Mutation{Entity: audit.EntityLink, Op: audit.OpUpsert, Where: linkByURL{URL: arg.URL}, Data: arg}
	return audit.Run(ctx, g.ic, g.sink, m, func(ctx context.Context) (*UpsertedLink, error) {
		return g.Gateway.UpsertLinkByURL(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteLink(ctx context.Context, id string) (*Link, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntityLink, id), func(ctx context.Context) (*Link, error) {
		return g.Gateway.DeleteLink(ctx, id)
	})
}

// Sessions are observed like any other entity and skipped by the interceptor.

func (g *AuditedGateway) CreateSession(ctx context.Context, arg CreateSessionParams) (*Session, error) {
	return audit.Run(ctx, g.ic, g.sink, g.create(audit.EntitySession), func(ctx context.Context) (*Session, error) {
		return g.Gateway.CreateSession(ctx, arg)
	})
}

func (g *AuditedGateway) ExtendSession(ctx context.Context, arg ExtendSessionParams) (*Session, error) {
	return audit.Run(ctx, g.ic, g.sink, g.update(audit.EntitySession, arg.Token, arg), func(ctx context.Context) (*Session, error) {
		return g.Gateway.ExtendSession(ctx, arg)
	})
}

func (g *AuditedGateway) DeleteSession(ctx context.Context, token string) (*Session, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntitySession, token), func(ctx context.Context) (*Session, error) {
		return g.Gateway.DeleteSession(ctx, token)
	})
}

func (g *AuditedGateway) DeleteSessionsByMember(ctx context.Context, memberID string) (int64, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntitySession, memberID), func(ctx context.Context) (int64, error) {
		return g.Gateway.DeleteSessionsByMember(ctx, memberID)
	})
}

func (g *AuditedGateway) DeleteSessionsCreatedBefore(ctx context.Context, before time.Time) (int64, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntitySession, ""), func(ctx context.Context) (int64, error) {
		return g.Gateway.DeleteSessionsCreatedBefore(ctx, before)
	})
}

func (g *AuditedGateway) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return audit.Run(ctx, g.ic, g.sink, g.delete(audit.EntitySession, ""), func(ctx context.Context) (int64, error) {
		return g.Gateway.DeleteExpiredSessions(ctx, now)
	})
}

// Audit log writes are not wrapped: entries about audit entries are never
// recorded.
