package api

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
)

// RecordHandler serves the plain CRUD entities: donations, expenses,
// activities and workshop resources.
type RecordHandler struct {
	gw db.Gateway
}

// NewRecordHandler creates a new record handler. gw should be the audited
// gateway so every write lands in the audit trail.
func NewRecordHandler(gw db.Gateway) *RecordHandler {
	return &RecordHandler{gw: gw}
}

// RegisterRoutes registers the donation, expense, activity and workshop routes.
func (h *RecordHandler) RegisterRoutes(api huma.API) {
	donations := resource[db.Donation]{
		area: auth.AreaDonations, path: "/api/v1/donations", tag: "Donations", name: "Donation",
		list: h.gw.ListDonations, get: h.gw.GetDonationByID, del: h.gw.DeleteDonation,
	}
	donations.registerReads(api)
	create(api, donations, h.createDonation)
	update(api, donations, h.updateDonation)
	donations.registerDelete(api)

	expenses := resource[db.Expense]{
		area: auth.AreaExpenses, path: "/api/v1/expenses", tag: "Expenses", name: "Expense",
		list: h.gw.ListExpenses, get: h.gw.GetExpenseByID, del: h.gw.DeleteExpense,
	}
	expenses.registerReads(api)
	create(api, expenses, h.createExpense)
	update(api, expenses, h.updateExpense)
	expenses.registerDelete(api)

	activities := resource[db.Activity]{
		area: auth.AreaActivities, path: "/api/v1/activities", tag: "Activities", name: "Activity",
		list: h.gw.ListActivities, get: h.gw.GetActivityByID, del: h.gw.DeleteActivity,
	}
	activities.registerReads(api)
	create(api, activities, h.createActivity)
	update(api, activities, h.updateActivity)
	activities.registerDelete(api)

	workshops := resource[db.WorkshopResource]{
		area: auth.AreaWorkshops, path: "/api/v1/workshops", tag: "Workshops", name: "Workshop",
		list: h.gw.ListWorkshops, get: h.gw.GetWorkshopByID, del: h.gw.DeleteWorkshop,
	}
	workshops.registerReads(api)
	create(api, workshops, h.createWorkshop)
	update(api, workshops, h.updateWorkshop)
	workshops.registerDelete(api)
}

// Donations

// CreateDonationInput is the request body for recording a donation.
type CreateDonationInput struct {
	Body struct {
		Amount        float64   `json:"amount" exclusiveMinimum:"0" doc:"Amount in rupees"`
		Purpose       string    `json:"purpose" minLength:"1" maxLength:"255"`
		DonorName     string    `json:"donorName" minLength:"1" maxLength:"255"`
		Type          string    `json:"type" minLength:"1" maxLength:"64" doc:"e.g. cash, cheque, online"`
		Date          time.Time `json:"date"`
		Notes         *string   `json:"notes,omitempty"`
		ReceiptNumber *string   `json:"receiptNumber,omitempty" maxLength:"64"`
	}
}

func (h *RecordHandler) createDonation(ctx context.Context, in *CreateDonationInput) (*db.Donation, error) {
	b := in.Body
	return h.gw.CreateDonation(ctx, db.CreateDonationParams{
		Amount:        b.Amount,
		Purpose:       b.Purpose,
		DonorName:     b.DonorName,
		Type:          b.Type,
		Date:          b.Date,
		Notes:         b.Notes,
		ReceiptNumber: b.ReceiptNumber,
	})
}

// UpdateDonationInput is a partial donation update.
type UpdateDonationInput struct {
	ID   string `path:"id" minLength:"1" maxLength:"64"`
	Body db.UpdateDonationParams
}

func (h *RecordHandler) updateDonation(ctx context.Context, in *UpdateDonationInput) (*db.Donation, error) {
	if in.Body.Amount != nil && *in.Body.Amount <= 0 {
		return nil, huma.Error422UnprocessableEntity("amount must be positive")
	}
	in.Body.ID = in.ID
	return h.gw.UpdateDonation(ctx, in.Body)
}

// Expenses

// CreateExpenseInput is the request body for recording an expense.
type CreateExpenseInput struct {
	Body struct {
		Amount      float64   `json:"amount" exclusiveMinimum:"0" doc:"Amount in rupees"`
		Category    string    `json:"category" minLength:"1" maxLength:"64"`
		Description string    `json:"description" minLength:"1"`
		Date        time.Time `json:"date"`
		PaidTo      *string   `json:"paidTo,omitempty" maxLength:"255"`
		PaymentMode *string   `json:"paymentMode,omitempty" maxLength:"64"`
		Notes       *string   `json:"notes,omitempty"`
	}
}

func (h *RecordHandler) createExpense(ctx context.Context, in *CreateExpenseInput) (*db.Expense, error) {
	b := in.Body
	return h.gw.CreateExpense(ctx, db.CreateExpenseParams{
		Amount:      b.Amount,
		Category:    b.Category,
		Description: b.Description,
		Date:        b.Date,
		PaidTo:      b.PaidTo,
		PaymentMode: b.PaymentMode,
		Notes:       b.Notes,
	})
}

// UpdateExpenseInput is a partial expense update.
type UpdateExpenseInput struct {
	ID   string `path:"id" minLength:"1" maxLength:"64"`
	Body db.UpdateExpenseParams
}

func (h *RecordHandler) updateExpense(ctx context.Context, in *UpdateExpenseInput) (*db.Expense, error) {
	if in.Body.Amount != nil && *in.Body.Amount <= 0 {
		return nil, huma.Error422UnprocessableEntity("amount must be positive")
	}
	in.Body.ID = in.ID
	return h.gw.UpdateExpense(ctx, in.Body)
}

// Activities

// CreateActivityInput is the request body for creating an activity.
type CreateActivityInput struct {
	Body struct {
		Title       string    `json:"title" minLength:"1" maxLength:"255"`
		Description *string   `json:"description,omitempty"`
		Date        time.Time `json:"date"`
		Location    *string   `json:"location,omitempty" maxLength:"255"`
		Status      string    `json:"status,omitempty" default:"planned" enum:"planned,ongoing,completed,cancelled"`
	}
}

func (h *RecordHandler) createActivity(ctx context.Context, in *CreateActivityInput) (*db.Activity, error) {
	b := in.Body
	return h.gw.CreateActivity(ctx, db.CreateActivityParams{
		Title:       b.Title,
		Description: b.Description,
		Date:        b.Date,
		Location:    b.Location,
		Status:      b.Status,
	})
}

// UpdateActivityInput is a partial activity update.
type UpdateActivityInput struct {
	ID   string `path:"id" minLength:"1" maxLength:"64"`
	Body db.UpdateActivityParams
}

func (h *RecordHandler) updateActivity(ctx context.Context, in *UpdateActivityInput) (*db.Activity, error) {
	in.Body.ID = in.ID
	return h.gw.UpdateActivity(ctx, in.Body)
}

// Workshop resources

// CreateWorkshopInput is the request body for adding a resource person.
type CreateWorkshopInput struct {
	Body struct {
		Name           string  `json:"name" minLength:"1" maxLength:"255"`
		Specialization string  `json:"specialization" minLength:"1" maxLength:"255"`
		Organization   *string `json:"organization,omitempty" maxLength:"255"`
		Email          *string `json:"email,omitempty" format:"email"`
		Phone          *string `json:"phone,omitempty" maxLength:"32"`
		Notes          *string `json:"notes,omitempty"`
	}
}

func (h *RecordHandler) createWorkshop(ctx context.Context, in *CreateWorkshopInput) (*db.WorkshopResource, error) {
	b := in.Body
	return h.gw.CreateWorkshop(ctx, db.CreateWorkshopParams{
		Name:           b.Name,
		Specialization: b.Specialization,
		Organization:   b.Organization,
		Email:          b.Email,
		Phone:          b.Phone,
		Notes:          b.Notes,
	})
}

// UpdateWorkshopInput is a partial workshop resource update.
type UpdateWorkshopInput struct {
	ID   string `path:"id" minLength:"1" maxLength:"64"`
	Body db.UpdateWorkshopParams
}

func (h *RecordHandler) updateWorkshop(ctx context.Context, in *UpdateWorkshopInput) (*db.WorkshopResource, error) {
	in.Body.ID = in.ID
	return h.gw.UpdateWorkshop(ctx, in.Body)
}
