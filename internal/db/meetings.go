package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const meetingColumns = `id, title, date, location, agenda, minutes, status, created_at, updated_at`

// CreateMeetingParams holds the fields for a new meeting.
type CreateMeetingParams struct {
	Title    string
	Date     time.Time
	Location *string
	Agenda   *string
	Minutes  *string
	Status   string
}

const createMeeting = `
INSERT INTO meetings (id, title, date, location, agenda, minutes, status)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE(NULLIF($7, ''), 'scheduled'))
RETURNING ` + meetingColumns

func (q *Queries) CreateMeeting(ctx context.Context, arg CreateMeetingParams) (*Meeting, error) {
	rows, err := q.db.Query(ctx, createMeeting,
		uuid.NewString(),
		arg.Title,
		arg.Date,
		arg.Location,
		arg.Agenda,
		arg.Minutes,
		arg.Status,
	)
	return collectOne[Meeting](rows, err)
}

const getMeetingByID = `SELECT ` + meetingColumns + ` FROM meetings WHERE id = $1`

func (q *Queries) GetMeetingByID(ctx context.Context, id string) (*Meeting, error) {
	rows, err := q.db.Query(ctx, getMeetingByID, id)
	return collectOne[Meeting](rows, err)
}

const listMeetings = `SELECT ` + meetingColumns + ` FROM meetings ORDER BY date DESC, created_at DESC LIMIT $1 OFFSET $2`

func (q *Queries) ListMeetings(ctx context.Context, arg ListParams) ([]*Meeting, error) {
	rows, err := q.db.Query(ctx, listMeetings, arg.Limit, arg.Offset)
	return collect[Meeting](rows, err)
}

// UpdateMeetingParams holds a partial meeting update. An empty optional
// field clears it.
type UpdateMeetingParams struct {
	ID       string     `json:"-"`
	Title    *string    `json:"title,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Location *string    `json:"location,omitempty"`
	Agenda   *string    `json:"agenda,omitempty"`
	Minutes  *string    `json:"minutes,omitempty"`
	Status   *string    `json:"status,omitempty"`
}

const updateMeeting = `
UPDATE meetings SET
    title = COALESCE($2, title),
    date = COALESCE($3, date),
    location = CASE WHEN $4::text = '' THEN NULL ELSE COALESCE($4, location) END,
    agenda = CASE WHEN $5::text = '' THEN NULL ELSE COALESCE($5, agenda) END,
    minutes = CASE WHEN $6::text = '' THEN NULL ELSE COALESCE($6, minutes) END,
    status = COALESCE($7, status),
    updated_at = now()
WHERE id = $1
RETURNING ` + meetingColumns

func (q *Queries) UpdateMeeting(ctx context.Context, arg UpdateMeetingParams) (*Meeting, error) {
	rows, err := q.db.Query(ctx, updateMeeting,
		arg.ID,
		arg.Title,
		arg.Date,
		arg.Location,
		arg.Agenda,
		arg.Minutes,
		arg.Status,
	)
	return collectOne[Meeting](rows, err)
}

const deleteMeeting = `DELETE FROM meetings WHERE id = $1 RETURNING ` + meetingColumns

// DeleteMeeting removes the meeting. Child rows go with it (ON DELETE CASCADE)
// and are not audited individually.
func (q *Queries) DeleteMeeting(ctx context.Context, id string) (*Meeting, error) {
	rows, err := q.db.Query(ctx, deleteMeeting, id)
	return collectOne[Meeting](rows, err)
}

const attendeeColumns = `id, meeting_id, member_id, name, present`

const listMeetingAttendees = `SELECT ` + attendeeColumns + ` FROM meeting_attendees WHERE meeting_id = $1 ORDER BY name, id`

func (q *Queries) ListMeetingAttendees(ctx context.Context, meetingID string) ([]*MeetingAttendee, error) {
	rows, err := q.db.Query(ctx, listMeetingAttendees, meetingID)
	return collect[MeetingAttendee](rows, err)
}

// CreateMeetingAttendeeParams holds the fields for a new attendee row.
type CreateMeetingAttendeeParams struct {
	MeetingID string
	MemberID  *string
	Name      string
	Present   bool
}

const createMeetingAttendee = `
INSERT INTO meeting_attendees (id, meeting_id, member_id, name, present)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + attendeeColumns

func (q *Queries) CreateMeetingAttendee(ctx context.Context, arg CreateMeetingAttendeeParams) (*MeetingAttendee, error) {
	rows, err := q.db.Query(ctx, createMeetingAttendee,
		uuid.NewString(),
		arg.MeetingID,
		arg.MemberID,
		arg.Name,
		arg.Present,
	)
	return collectOne[MeetingAttendee](rows, err)
}

const deleteMeetingAttendee = `DELETE FROM meeting_attendees WHERE id = $1 RETURNING ` + attendeeColumns

func (q *Queries) DeleteMeetingAttendee(ctx context.Context, id string) (*MeetingAttendee, error) {
	rows, err := q.db.Query(ctx, deleteMeetingAttendee, id)
	return collectOne[MeetingAttendee](rows, err)
}

const decisionColumns = `id, meeting_id, description, status, assigned_to, due_date`

const listMeetingDecisions = `SELECT ` + decisionColumns + ` FROM meeting_decisions WHERE meeting_id = $1 ORDER BY id`

func (q *Queries) ListMeetingDecisions(ctx context.Context, meetingID string) ([]*MeetingDecision, error) {
	rows, err := q.db.Query(ctx, listMeetingDecisions, meetingID)
	return collect[MeetingDecision](rows, err)
}

// CreateMeetingDecisionParams holds the fields for a new decision row.
type CreateMeetingDecisionParams struct {
	MeetingID   string
	Description string
	Status      string
	AssignedTo  *string
	DueDate     *time.Time
}

const createMeetingDecision = `
INSERT INTO meeting_decisions (id, meeting_id, description, status, assigned_to, due_date)
VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'pending'), $5, $6)
RETURNING ` + decisionColumns

func (q *Queries) CreateMeetingDecision(ctx context.Context, arg CreateMeetingDecisionParams) (*MeetingDecision, error) {
	rows, err := q.db.Query(ctx, createMeetingDecision,
		uuid.NewString(),
		arg.MeetingID,
		arg.Description,
		arg.Status,
		arg.AssignedTo,
		arg.DueDate,
	)
	return collectOne[MeetingDecision](rows, err)
}

const deleteMeetingDecision = `DELETE FROM meeting_decisions WHERE id = $1 RETURNING ` + decisionColumns

func (q *Queries) DeleteMeetingDecision(ctx context.Context, id string) (*MeetingDecision, error) {
	rows, err := q.db.Query(ctx, deleteMeetingDecision, id)
	return collectOne[MeetingDecision](rows, err)
}

const attachmentColumns = `id, meeting_id, name, url`

const listMeetingAttachments = `SELECT ` + attachmentColumns + ` FROM meeting_attachments WHERE meeting_id = $1 ORDER BY name, id`

func (q *Queries) ListMeetingAttachments(ctx context.Context, meetingID string) ([]*MeetingAttachment, error) {
	rows, err := q.db.Query(ctx, listMeetingAttachments, meetingID)
	return collect[MeetingAttachment](rows, err)
}

// CreateMeetingAttachmentParams holds the fields for a new attachment row.
type CreateMeetingAttachmentParams struct {
	MeetingID string
	Name      string
	URL       string
}

const createMeetingAttachment = `
INSERT INTO meeting_attachments (id, meeting_id, name, url)
VALUES ($1, $2, $3, $4)
RETURNING ` + attachmentColumns

func (q *Queries) CreateMeetingAttachment(ctx context.Context, arg CreateMeetingAttachmentParams) (*MeetingAttachment, error) {
	rows, err := q.db.Query(ctx, createMeetingAttachment,
		uuid.NewString(),
		arg.MeetingID,
		arg.Name,
		arg.URL,
	)
	return collectOne[MeetingAttachment](rows, err)
}

const deleteMeetingAttachment = `DELETE FROM meeting_attachments WHERE id = $1 RETURNING ` + attachmentColumns

func (q *Queries) DeleteMeetingAttachment(ctx context.Context, id string) (*MeetingAttachment, error) {
	rows, err := q.db.Query(ctx, deleteMeetingAttachment, id)
	return collectOne[MeetingAttachment](rows, err)
}
