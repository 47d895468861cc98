package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const activityColumns = `id, title, description, date, location, status, created_at, updated_at`

// CreateActivityParams holds the fields for a new activity.
type CreateActivityParams struct {
	Title       string
	Description *string
	Date        time.Time
	Location    *string
	Status      string
}

const createActivity = `
INSERT INTO activities (id, title, description, date, location, status)
VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, ''), 'planned'))
RETURNING ` + activityColumns

func (q *Queries) CreateActivity(ctx context.Context, arg CreateActivityParams) (*Activity, error) {
	rows, err := q.db.Query(ctx, createActivity,
		uuid.NewString(),
		arg.Title,
		arg.Description,
		arg.Date,
		arg.Location,
		arg.Status,
	)
	return collectOne[Activity](rows, err)
}

const getActivityByID = `SELECT ` + activityColumns + ` FROM activities WHERE id = $1`

func (q *Queries) GetActivityByID(ctx context.Context, id string) (*Activity, error) {
	rows, err := q.db.Query(ctx, getActivityByID, id)
	return collectOne[Activity](rows, err)
}

const listActivities = `SELECT ` + activityColumns + ` FROM activities ORDER BY date DESC, created_at DESC LIMIT $1 OFFSET $2`

func (q *Queries) ListActivities(ctx context.Context, arg ListParams) ([]*Activity, error) {
	rows, err := q.db.Query(ctx, listActivities, arg.Limit, arg.Offset)
	return collect[Activity](rows, err)
}

// UpdateActivityParams holds a partial activity update. An empty
// description or location clears it.
type UpdateActivityParams struct {
	ID          string     `json:"-"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

const updateActivity = `
UPDATE activities SET
    title = COALESCE($2, title),
    description = CASE WHEN $3::text = '' THEN NULL ELSE COALESCE($3, description) END,
    date = COALESCE($4, date),
    location = CASE WHEN $5::text = '' THEN NULL ELSE COALESCE($5, location) END,
    status = COALESCE($6, status),
    updated_at = now()
WHERE id = $1
RETURNING ` + activityColumns

func (q *Queries) UpdateActivity(ctx context.Context, arg UpdateActivityParams) (*Activity, error) {
	rows, err := q.db.Query(ctx, updateActivity,
		arg.ID,
		arg.Title,
		arg.Description,
		arg.Date,
		arg.Location,
		arg.Status,
	)
	return collectOne[Activity](rows, err)
}

const deleteActivity = `DELETE FROM activities WHERE id = $1 RETURNING ` + activityColumns

func (q *Queries) DeleteActivity(ctx context.Context, id string) (*Activity, error) {
	rows, err := q.db.Query(ctx, deleteActivity, id)
	return collectOne[Activity](rows, err)
}
