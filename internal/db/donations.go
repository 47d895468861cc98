package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const donationColumns = `id, amount, purpose, donor_name, type, date, notes, receipt_number, created_at, updated_at`

// CreateDonationParams holds the fields for a new donation.
type CreateDonationParams struct {
	Amount        float64
	Purpose       string
	DonorName     string
	Type          string
	Date          time.Time
	Notes         *string
	ReceiptNumber *string
}

const createDonation = `
INSERT INTO donations (id, amount, purpose, donor_name, type, date, notes, receipt_number)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + donationColumns

func (q *Queries) CreateDonation(ctx context.Context, arg CreateDonationParams) (*Donation, error) {
	rows, err := q.db.Query(ctx, createDonation,
		uuid.NewString(),
		arg.Amount,
		arg.Purpose,
		arg.DonorName,
		arg.Type,
		arg.Date,
		arg.Notes,
		arg.ReceiptNumber,
	)
	return collectOne[Donation](rows, err)
}

const getDonationByID = `SELECT ` + donationColumns + ` FROM donations WHERE id = $1`

func (q *Queries) GetDonationByID(ctx context.Context, id string) (*Donation, error) {
	rows, err := q.db.Query(ctx, getDonationByID, id)
	return collectOne[Donation](rows, err)
}

const listDonations = `SELECT ` + donationColumns + ` FROM donations ORDER BY date DESC, created_at DESC LIMIT $1 OFFSET $2`

func (q *Queries) ListDonations(ctx context.Context, arg ListParams) ([]*Donation, error) {
	rows, err := q.db.Query(ctx, listDonations, arg.Limit, arg.Offset)
	return collect[Donation](rows, err)
}

// UpdateDonationParams holds a partial donation update. Empty notes or
// receipt number clear the column.
type UpdateDonationParams struct {
	ID            string     `json:"-"`
	Amount        *float64   `json:"amount,omitempty"`
	Purpose       *string    `json:"purpose,omitempty"`
	DonorName     *string    `json:"donorName,omitempty"`
	Type          *string    `json:"type,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	ReceiptNumber *string    `json:"receiptNumber,omitempty"`
}

const updateDonation = `
UPDATE donations SET
    amount = COALESCE($2, amount),
    purpose = COALESCE($3, purpose),
    donor_name = COALESCE($4, donor_name),
    type = COALESCE($5, type),
    date = COALESCE($6, date),
    notes = CASE WHEN $7::text = '' THEN NULL ELSE COALESCE($7, notes) END,
    receipt_number = CASE WHEN $8::text = '' THEN NULL ELSE COALESCE($8, receipt_number) END,
    updated_at = now()
WHERE id = $1
RETURNING ` + donationColumns

func (q *Queries) UpdateDonation(ctx context.Context, arg UpdateDonationParams) (*Donation, error) {
	rows, err := q.db.Query(ctx, updateDonation,
		arg.ID,
		arg.Amount,
		arg.Purpose,
		arg.DonorName,
		arg.Type,
		arg.Date,
		arg.Notes,
		arg.ReceiptNumber,
	)
	return collectOne[Donation](rows, err)
}

const deleteDonation = `DELETE FROM donations WHERE id = $1 RETURNING ` + donationColumns

func (q *Queries) DeleteDonation(ctx context.Context, id string) (*Donation, error) {
	rows, err := q.db.Query(ctx, deleteDonation, id)
	return collectOne[Donation](rows, err)
}
