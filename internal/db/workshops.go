package db

import (
	"context"

	"github.com/google/uuid"
)

const workshopColumns = `id, name, specialization, organization, email, phone, notes, created_at, updated_at`

// CreateWorkshopParams holds the fields for a new workshop resource.
type CreateWorkshopParams struct {
	Name           string
	Specialization string
	Organization   *string
	Email          *string
	Phone          *string
	Notes          *string
}

const createWorkshop = `
INSERT INTO workshop_resources (id, name, specialization, organization, email, phone, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + workshopColumns

func (q *Queries) CreateWorkshop(ctx context.Context, arg CreateWorkshopParams) (*WorkshopResource, error) {
	rows, err := q.db.Query(ctx, createWorkshop,
		uuid.NewString(),
		arg.Name,
		arg.Specialization,
		arg.Organization,
		arg.Email,
		arg.Phone,
		arg.Notes,
	)
	return collectOne[WorkshopResource](rows, err)
}

const getWorkshopByID = `SELECT ` + workshopColumns + ` FROM workshop_resources WHERE id = $1`

func (q *Queries) GetWorkshopByID(ctx context.Context, id string) (*WorkshopResource, error) {
	rows, err := q.db.Query(ctx, getWorkshopByID, id)
	return collectOne[WorkshopResource](rows, err)
}

const listWorkshops = `SELECT ` + workshopColumns + ` FROM workshop_resources ORDER BY name, id LIMIT $1 OFFSET $2`

func (q *Queries) ListWorkshops(ctx context.Context, arg ListParams) ([]*WorkshopResource, error) {
	rows, err := q.db.Query(ctx, listWorkshops, arg.Limit, arg.Offset)
	return collect[WorkshopResource](rows, err)
}

// UpdateWorkshopParams holds a partial workshop resource update. An empty
// optional field clears it.
type UpdateWorkshopParams struct {
	ID             string  `json:"-"`
	Name           *string `json:"name,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
	Organization   *string `json:"organization,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

const updateWorkshop = `
UPDATE workshop_resources SET
    name = COALESCE($2, name),
    specialization = COALESCE($3, specialization),
    organization = CASE WHEN $4::text = '' THEN NULL ELSE COALESCE($4, organization) END,
    email = CASE WHEN $5::text = '' THEN NULL ELSE COALESCE($5, email) END,
    phone = CASE WHEN $6::text = '' THEN NULL ELSE COALESCE($6, phone) END,
    notes = CASE WHEN $7::text = '' THEN NULL ELSE COALESCE($7, notes) END,
    updated_at = now()
WHERE id = $1
RETURNING ` + workshopColumns

func (q *Queries) UpdateWorkshop(ctx context.Context, arg UpdateWorkshopParams) (*WorkshopResource, error) {
	rows, err := q.db.Query(ctx, updateWorkshop,
		arg.ID,
		arg.Name,
		arg.Specialization,
		arg.Organization,
		arg.Email,
		arg.Phone,
		arg.Notes,
	)
	return collectOne[WorkshopResource](rows, err)
}

const deleteWorkshop = `DELETE FROM workshop_resources WHERE id = $1 RETURNING ` + workshopColumns

func (q *Queries) DeleteWorkshop(ctx context.Context, id string) (*WorkshopResource, error) {
	rows, err := q.db.Query(ctx, deleteWorkshop, id)
	return collectOne[WorkshopResource](rows, err)
}
