package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
)

// MeetingHandler handles meetings and their attendees, decisions and
// attachments.
type MeetingHandler struct {
	pool db.TxBeginner
	gw   db.Gateway
}

// NewMeetingHandler creates a new meeting handler.
func NewMeetingHandler(pool db.TxBeginner, gw db.Gateway) *MeetingHandler {
	return &MeetingHandler{pool: pool, gw: gw}
}

// RegisterRoutes registers all meeting routes.
func (h *MeetingHandler) RegisterRoutes(api huma.API) {
	meetings := resource[db.Meeting]{
		area: auth.AreaMeetings, path: "/api/v1/meetings", tag: "Meetings", name: "Meeting",
		list: h.gw.ListMeetings, del: h.gw.DeleteMeeting,
	}
	meetings.registerReads(api)
	update(api, meetings, h.updateMeeting)
	meetings.registerDelete(api)

	huma.Register(api, huma.Operation{
		OperationID: "getMeeting",
		Method:      http.MethodGet,
		Path:        "/api/v1/meetings/{id}",
		Summary:     "Get meeting",
		Description: "Returns a meeting with its attendees, decisions and attachments.",
		Tags:        []string{"Meetings"},
	}, h.handleGetMeeting)

	huma.Register(api, huma.Operation{
		OperationID:   "createMeeting",
		Method:        http.MethodPost,
		Path:          "/api/v1/meetings",
		Summary:       "Create meeting",
		Description:   "Creates a meeting together with its attendees, decisions and attachments.",
		Tags:          []string{"Meetings"},
		DefaultStatus: http.StatusCreated,
	}, h.handleCreateMeeting)

	huma.Register(api, huma.Operation{
		OperationID: "saveMeeting",
		Method:      http.MethodPut,
		Path:        "/api/v1/meetings/{id}",
		Summary:     "Save meeting",
		Description: "Replaces a meeting and all of its attendees, decisions and attachments in one transaction. The audit trail records the save as one change.",
		Tags:        []string{"Meetings"},
	}, h.handleSaveMeeting)
}

// MeetingOutput is a meeting with its children.
type MeetingOutput struct {
	Body MeetingDetail
}

func (h *MeetingHandler) handleGetMeeting(ctx context.Context, in *IDInput) (*MeetingOutput, error) {
	if _, err := require(ctx, auth.Perm(auth.AreaMeetings, auth.VerbView)); err != nil {
		return nil, err
	}
	detail, err := loadMeeting(ctx, h.gw, in.ID, 3)
	if err != nil {
		return nil, dbError(ctx, "GetMeeting", err)
	}
	return &MeetingOutput{Body: *detail}, nil
}

// loadMeeting reads a meeting and its children, running up to parallel child
// queries at once. A transaction handle is not safe for concurrent use, so
// callers inside RunInTx pass 1.
func loadMeeting(ctx context.Context, gw db.Querier, id string, parallel int) (*MeetingDetail, error) {
	meeting, err := gw.GetMeetingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &MeetingDetail{Meeting: meeting}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	g.Go(func() (err error) {
		detail.Attendees, err = gw.ListMeetingAttendees(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		detail.Decisions, err = gw.ListMeetingDecisions(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		detail.Attachments, err = gw.ListMeetingAttachments(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	detail.Attendees = emptyIfNil(detail.Attendees)
	detail.Decisions = emptyIfNil(detail.Decisions)
	detail.Attachments = emptyIfNil(detail.Attachments)
	return detail, nil
}

// AttendeeInput is one attendee in a meeting body.
type AttendeeInput struct {
	MemberID *string `json:"memberId,omitempty" doc:"Set when the attendee is a member"`
	Name     string  `json:"name" minLength:"1" maxLength:"255"`
	Present  bool    `json:"present,omitempty"`
}

// DecisionInput is one decision in a meeting body.
type DecisionInput struct {
	Description string     `json:"description" minLength:"1"`
	Status      string     `json:"status,omitempty" default:"pending" enum:"pending,in_progress,completed"`
	AssignedTo  *string    `json:"assignedTo,omitempty" maxLength:"255"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// AttachmentInput is one attachment in a meeting body.
type AttachmentInput struct {
	Name string `json:"name" minLength:"1" maxLength:"255"`
	URL  string `json:"url" format:"uri"`
}

// MeetingBody is the full form of a meeting.
type MeetingBody struct {
	Title       string            `json:"title" minLength:"1" maxLength:"255"`
	Date        time.Time         `json:"date"`
	Location    *string           `json:"location,omitempty" maxLength:"255"`
	Agenda      *string           `json:"agenda,omitempty"`
	Minutes     *string           `json:"minutes,omitempty"`
	Status      string            `json:"status,omitempty" default:"scheduled" enum:"scheduled,completed,cancelled"`
	Attendees   []AttendeeInput   `json:"attendees,omitempty"`
	Decisions   []DecisionInput   `json:"decisions,omitempty"`
	Attachments []AttachmentInput `json:"attachments,omitempty"`
}

// CreateMeetingInput is the request body for creating a meeting.
type CreateMeetingInput struct {
	Body MeetingBody
}

func (h *MeetingHandler) handleCreateMeeting(ctx context.Context, in *CreateMeetingInput) (*MeetingOutput, error) {
	if _, err := require(ctx, auth.Perm(auth.AreaMeetings, auth.VerbCreate)); err != nil {
		return nil, err
	}

	b := in.Body
	var detail *MeetingDetail
	err := db.RunInTx(ctx, h.pool, h.gw, func(ctx context.Context, gw db.Gateway) error {
		meeting, err := gw.CreateMeeting(ctx, db.CreateMeetingParams{
			Title:    b.Title,
			Date:     b.Date,
			Location: b.Location,
			Agenda:   b.Agenda,
			Minutes:  b.Minutes,
			Status:   b.Status,
		})
		if err != nil {
			return err
		}
		if err := createChildren(ctx, gw, meeting.ID, b); err != nil {
			return err
		}
		detail, err = loadMeeting(ctx, gw, meeting.ID, 1)
		return err
	})
	if err != nil {
		return nil, dbError(ctx, "CreateMeeting", err)
	}
	return &MeetingOutput{Body: *detail}, nil
}

// SaveMeetingInput replaces a meeting and its children.
type SaveMeetingInput struct {
	ID   string `path:"id" minLength:"1" maxLength:"64"`
	Body MeetingBody
}

func (h *MeetingHandler) handleSaveMeeting(ctx context.Context, in *SaveMeetingInput) (*MeetingOutput, error) {
	if _, err := require(ctx, auth.Perm(auth.AreaMeetings, auth.VerbEdit)); err != nil {
		return nil, err
	}

	b := in.Body
	var detail *MeetingDetail
	err := db.RunInTx(ctx, h.pool, h.gw, func(ctx context.Context, gw db.Gateway) error {
		if _, err := gw.UpdateMeeting(ctx, db.UpdateMeetingParams{
			ID:       in.ID,
			Title:    &b.Title,
			Date:     &b.Date,
			Location: b.Location,
			Agenda:   b.Agenda,
			Minutes:  b.Minutes,
			Status:   &b.Status,
		}); err != nil {
			return err
		}
		if err := deleteChildren(ctx, gw, in.ID); err != nil {
			return err
		}
		if err := createChildren(ctx, gw, in.ID, b); err != nil {
			return err
		}
		var err error
		detail, err = loadMeeting(ctx, gw, in.ID, 1)
		return err
	})
	if err != nil {
		return nil, dbError(ctx, "SaveMeeting", err)
	}
	return &MeetingOutput{Body: *detail}, nil
}

// UpdateMeetingInput is a partial update of the meeting row only.
type UpdateMeetingInput struct {
	ID   string `path:"id" minLength:"1" maxLength:"64"`
	Body db.UpdateMeetingParams
}

func (h *MeetingHandler) updateMeeting(ctx context.Context, in *UpdateMeetingInput) (*db.Meeting, error) {
	in.Body.ID = in.ID
	return h.gw.UpdateMeeting(ctx, in.Body)
}

func deleteChildren(ctx context.Context, gw db.Gateway, meetingID string) error {
	attendees, err := gw.ListMeetingAttendees(ctx, meetingID)
	if err != nil {
		return err
	}
	for _, a := range attendees {
		if _, err := gw.DeleteMeetingAttendee(ctx, a.ID); err != nil {
			return err
		}
	}

	decisions, err := gw.ListMeetingDecisions(ctx, meetingID)
	if err != nil {
		return err
	}
	for _, d := range decisions {
		if _, err := gw.DeleteMeetingDecision(ctx, d.ID); err != nil {
			return err
		}
	}

	attachments, err := gw.ListMeetingAttachments(ctx, meetingID)
	if err != nil {
		return err
	}
	for _, a := range attachments {
		if _, err := gw.DeleteMeetingAttachment(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

func createChildren(ctx context.Context, gw db.Gateway, meetingID string, b MeetingBody) error {
	for _, a := range b.Attendees {
		if _, err := gw.CreateMeetingAttendee(ctx, db.CreateMeetingAttendeeParams{
			MeetingID: meetingID,
			MemberID:  a.MemberID,
			Name:      a.Name,
			Present:   a.Present,
		}); err != nil {
			return err
		}
	}
	for _, d := range b.Decisions {
		status := d.Status
		if status == "" {
			status = "pending"
		}
		if _, err := gw.CreateMeetingDecision(ctx, db.CreateMeetingDecisionParams{
			MeetingID:   meetingID,
			Description: d.Description,
			Status:      status,
			AssignedTo:  d.AssignedTo,
			DueDate:     d.DueDate,
		}); err != nil {
			return err
		}
	}
	for _, a := range b.Attachments {
		if _, err := gw.CreateMeetingAttachment(ctx, db.CreateMeetingAttachmentParams{
			MeetingID: meetingID,
			Name:      a.Name,
			URL:       a.URL,
		}); err != nil {
			return err
		}
	}
	return nil
}
