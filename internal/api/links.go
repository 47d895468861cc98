package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
)

// maxImportLinks bounds one import request.
const maxImportLinks = 500

// LinkHandler handles dashboard quick links.
type LinkHandler struct {
	gw db.Gateway
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(gw db.Gateway) *LinkHandler {
	return &LinkHandler{gw: gw}
}

// RegisterRoutes registers all link routes.
func (h *LinkHandler) RegisterRoutes(api huma.API) {
	links := resource[db.Link]{
		area: auth.AreaLinks, path: "/api/v1/links", tag: "Links", name: "Link",
		list: h.gw.ListLinks, get: h.gw.GetLinkByID, del: h.gw.DeleteLink,
	}
	links.registerReads(api)
	create(api, links, h.createLink)
	update(api, links, h.updateLink)
	links.registerDelete(api)

	huma.Register(api, huma.Operation{
		OperationID: "importLinks",
		Method:      http.MethodPost,
		Path:        "/api/v1/links/import",
		Summary:     "Import links",
		Description: "Creates or updates links by URL. The whole import is recorded as one manual audit operation.",
		Tags:        []string{"Links"},
	}, h.handleImportLinks)
}

// LinkBody is the full form of a link.
type LinkBody struct {
	Title       string  `json:"title" minLength:"1" maxLength:"255"`
	URL         string  `json:"url" format:"uri" maxLength:"2048"`
	Category    *string `json:"category,omitempty" maxLength:"64"`
	Description *string `json:"description,omitempty"`
}

func (b LinkBody) params() db.CreateLinkParams {
	return db.CreateLinkParams{
		Title:       strings.TrimSpace(b.Title),
		URL:         strings.TrimSpace(b.URL),
		Category:    b.Category,
		Description: b.Description,
	}
}

// CreateLinkInput is the request body for creating a link.
type CreateLinkInput struct {
	Body LinkBody
}

func (h *LinkHandler) createLink(ctx context.Context, in *CreateLinkInput) (*db.Link, error) {
	return h.gw.CreateLink(ctx, in.Body.params())
}

// UpdateLinkInput is a partial link update.
type UpdateLinkInput struct {
	ID   string `path:"id" minLength:"1" maxLength:"64"`
	Body db.UpdateLinkParams
}

func (h *LinkHandler) updateLink(ctx context.Context, in *UpdateLinkInput) (*db.Link, error) {
	in.Body.ID = in.ID
	return h.gw.UpdateLink(ctx, in.Body)
}

// ImportLinksInput is a batch of links keyed by URL.
type ImportLinksInput struct {
	Body struct {
		Links []LinkBody `json:"links" minItems:"1" maxItems:"500"`
	}
}

// ImportLinksOutput reports what the import did.
type ImportLinksOutput struct {
	Body struct {
		Inserted int `json:"inserted"`
		Updated  int `json:"updated"`
	}
}

func (h *LinkHandler) handleImportLinks(ctx context.Context, in *ImportLinksInput) (*ImportLinksOutput, error) {
	if _, err := require(ctx, auth.Perm(auth.AreaLinks, auth.VerbCreate)); err != nil {
		return nil, err
	}
	if len(in.Body.Links) > maxImportLinks {
		return nil, huma.Error422UnprocessableEntity("too many links in one import")
	}

	// The first upsert becomes the parent of the rest.
	ctx, end := audit.BeginManual(ctx)
	defer end()

	out := &ImportLinksOutput{}
	for _, l := range in.Body.Links {
		row, err := h.gw.UpsertLinkByURL(ctx, l.params())
		if err != nil {
			return nil, dbError(ctx, "UpsertLinkByURL", err)
		}
		if row.Inserted() {
			out.Body.Inserted++
		} else {
			out.Body.Updated++
		}
	}
	return out, nil
}
