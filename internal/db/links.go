package db

import (
	"context"

	"github.com/google/uuid"
)

const linkColumns = `id, title, url, category, description, created_at, updated_at`

// CreateLinkParams holds the fields for a new link. UpsertLinkByURL reuses it.
type CreateLinkParams struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

const createLink = `
INSERT INTO links (id, title, url, category, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + linkColumns

func (q *Queries) CreateLink(ctx context.Context, arg CreateLinkParams) (*Link, error) {
	rows, err := q.db.Query(ctx, createLink,
		uuid.NewString(),
		arg.Title,
		arg.URL,
		arg.Category,
		arg.Description,
	)
	return collectOne[Link](rows, err)
}

const getLinkByID = `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

func (q *Queries) GetLinkByID(ctx context.Context, id string) (*Link, error) {
	rows, err := q.db.Query(ctx, getLinkByID, id)
	return collectOne[Link](rows, err)
}

const listLinks = `SELECT ` + linkColumns + ` FROM links ORDER BY category NULLS LAST, title, id LIMIT $1 OFFSET $2`

func (q *Queries) ListLinks(ctx context.Context, arg ListParams) ([]*Link, error) {
	rows, err := q.db.Query(ctx, listLinks, arg.Limit, arg.Offset)
	return collect[Link](rows, err)
}

// UpdateLinkParams holds a partial link update. An empty category or
// description clears it.
type UpdateLinkParams struct {
	ID          string  `json:"-"`
	Title       *string `json:"title,omitempty"`
	URL         *string `json:"url,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

const updateLink = `
UPDATE links SET
    title = COALESCE($2, title),
    url = COALESCE($3, url),
    category = CASE WHEN $4::text = '' THEN NULL ELSE COALESCE($4, category) END,
    description = CASE WHEN $5::text = '' THEN NULL ELSE COALESCE($5, description) END,
    updated_at = now()
WHERE id = $1
RETURNING ` + linkColumns

func (q *Queries) UpdateLink(ctx context.Context, arg UpdateLinkParams) (*Link, error) {
	rows, err := q.db.Query(ctx, updateLink,
		arg.ID,
		arg.Title,
		arg.URL,
		arg.Category,
		arg.Description,
	)
	return collectOne[Link](rows, err)
}

// xmax is zero only for a freshly inserted tuple, which tells the caller
// whether the upsert created or updated the row.
const upsertLinkByURL = `
INSERT INTO links (id, title, url, category, description)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (url) DO UPDATE SET
    title = EXCLUDED.title,
    category = COALESCE(EXCLUDED.category, links.category),
    description = COALESCE(EXCLUDED.description, links.description),
    updated_at = now()
RETURNING ` + linkColumns + `, (xmax = 0) AS inserted`

func (q *Queries) UpsertLinkByURL(ctx context.Context, arg CreateLinkParams) (*UpsertedLink, error) {
	rows, err := q.db.Query(ctx, upsertLinkByURL,
		uuid.NewString(),
		arg.Title,
		arg.URL,
		arg.Category,
		arg.Description,
	)
	return collectOne[UpsertedLink](rows, err)
}

const deleteLink = `DELETE FROM links WHERE id = $1 RETURNING ` + linkColumns

func (q *Queries) DeleteLink(ctx context.Context, id string) (*Link, error) {
	rows, err := q.db.Query(ctx, deleteLink, id)
	return collectOne[Link](rows, err)
}
