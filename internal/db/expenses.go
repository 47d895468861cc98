package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const expenseColumns = `id, amount, category, description, date, paid_to, payment_mode, notes, created_at, updated_at`

// CreateExpenseParams holds the fields for a new expense.
type CreateExpenseParams struct {
	Amount      float64
	Category    string
	Description string
	Date        time.Time
	PaidTo      *string
	PaymentMode *string
	Notes       *string
}

const createExpense = `
INSERT INTO expenses (id, amount, category, description, date, paid_to, payment_mode, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + expenseColumns

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (*Expense, error) {
	rows, err := q.db.Query(ctx, createExpense,
		uuid.NewString(),
		arg.Amount,
		arg.Category,
		arg.Description,
		arg.Date,
		arg.PaidTo,
		arg.PaymentMode,
		arg.Notes,
	)
	return collectOne[Expense](rows, err)
}

const getExpenseByID = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

func (q *Queries) GetExpenseByID(ctx context.Context, id string) (*Expense, error) {
	rows, err := q.db.Query(ctx, getExpenseByID, id)
	return collectOne[Expense](rows, err)
}

const listExpenses = `SELECT ` + expenseColumns + ` FROM expenses ORDER BY date DESC, created_at DESC LIMIT $1 OFFSET $2`

func (q *Queries) ListExpenses(ctx context.Context, arg ListParams) ([]*Expense, error) {
	rows, err := q.db.Query(ctx, listExpenses, arg.Limit, arg.Offset)
	return collect[Expense](rows, err)
}

// UpdateExpenseParams holds a partial expense update. An empty optional
// field clears it.
type UpdateExpenseParams struct {
	ID          string     `json:"-"`
	Amount      *float64   `json:"amount,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	PaidTo      *string    `json:"paidTo,omitempty"`
	PaymentMode *string    `json:"paymentMode,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

const updateExpense = `
UPDATE expenses SET
    amount = COALESCE($2, amount),
    category = COALESCE($3, category),
    description = COALESCE($4, description),
    date = COALESCE($5, date),
    paid_to = CASE WHEN $6::text = '' THEN NULL ELSE COALESCE($6, paid_to) END,
    payment_mode = CASE WHEN $7::text = '' THEN NULL ELSE COALESCE($7, payment_mode) END,
    notes = CASE WHEN $8::text = '' THEN NULL ELSE COALESCE($8, notes) END,
    updated_at = now()
WHERE id = $1
RETURNING ` + expenseColumns

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (*Expense, error) {
	rows, err := q.db.Query(ctx, updateExpense,
		arg.ID,
		arg.Amount,
		arg.Category,
		arg.Description,
		arg.Date,
		arg.PaidTo,
		arg.PaymentMode,
		arg.Notes,
	)
	return collectOne[Expense](rows, err)
}

const deleteExpense = `DELETE FROM expenses WHERE id = $1 RETURNING ` + expenseColumns

func (q *Queries) DeleteExpense(ctx context.Context, id string) (*Expense, error) {
	rows, err := q.db.Query(ctx, deleteExpense, id)
	return collectOne[Expense](rows, err)
}
