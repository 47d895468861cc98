package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Good-for-good/goodforgood-sub000/internal/auth"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
)

// ListInput pages a list operation.
type ListInput struct {
	Page     int `query:"page" default:"1" minimum:"1" maximum:"100000" doc:"1-based page number"`
	PageSize int `query:"pageSize" default:"50" minimum:"1" maximum:"200" doc:"Rows per page"`
}

func (in *ListInput) params() db.ListParams {
	return db.ListParams{
		Limit:  int32(in.PageSize),               //nolint:gosec // bounded by maximum
		Offset: int32((in.Page - 1) * in.PageSize), //nolint:gosec // at most 100000*200
	}
}

// ListOutput is one page of rows.
type ListOutput[T any] struct {
	Body struct {
		Items []*T `json:"items"`
		ListMeta
	}
}

// IDInput addresses one row.
type IDInput struct {
	ID string `path:"id" minLength:"1" maxLength:"64"`
}

// ItemOutput is a single row.
type ItemOutput[T any] struct {
	Body *T
}

// resource registers the uniform list, get and delete operations of one
// entity. Create and update bodies differ per entity and are registered by
// the entity's handler through create and update.
type resource[T any] struct {
	area string // permission area
	path string // collection path, e.g. /api/v1/donations
	tag  string
	name string // singular, used in operation ids

	list func(ctx context.Context, arg db.ListParams) ([]*T, error)
	get  func(ctx context.Context, id string) (*T, error)
	del  func(ctx context.Context, id string) (*T, error)
}

func (r resource[T]) registerReads(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list" + r.tag,
		Method:      http.MethodGet,
		Path:        r.path,
		Summary:     "List " + r.tag,
		Tags:        []string{r.tag},
	}, func(ctx context.Context, in *ListInput) (*ListOutput[T], error) {
		if _, err := require(ctx, auth.Perm(r.area, auth.VerbView)); err != nil {
			return nil, err
		}
		rows, err := r.list(ctx, in.params())
		if err != nil {
			return nil, dbError(ctx, "List"+r.tag, err)
		}
		out := &ListOutput[T]{}
		out.Body.Items = emptyIfNil(rows)
		out.Body.ListMeta = ListMeta{Page: in.Page, PageSize: in.PageSize}
		return out, nil
	})

	if r.get != nil {
		huma.Register(api, huma.Operation{
			OperationID: "get" + r.name,
			Method:      http.MethodGet,
			Path:        r.path + "/{id}",
			Summary:     "Get " + r.name,
			Tags:        []string{r.tag},
		}, func(ctx context.Context, in *IDInput) (*ItemOutput[T], error) {
			if _, err := require(ctx, auth.Perm(r.area, auth.VerbView)); err != nil {
				return nil, err
			}
			row, err := r.get(ctx, in.ID)
			if err != nil {
				return nil, dbError(ctx, "Get"+r.name, err)
			}
			return &ItemOutput[T]{Body: row}, nil
		})
	}
}

func (r resource[T]) registerDelete(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "delete" + r.name,
		Method:        http.MethodDelete,
		Path:          r.path + "/{id}",
		Summary:       "Delete " + r.name,
		Tags:          []string{r.tag},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, in *IDInput) (*struct{}, error) {
		if _, err := require(ctx, auth.Perm(r.area, auth.VerbDelete)); err != nil {
			return nil, err
		}
		if _, err := r.del(ctx, in.ID); err != nil {
			return nil, dbError(ctx, "Delete"+r.name, err)
		}
		return nil, nil
	})
}

// create registers POST on the collection path.
func create[I, T any](api huma.API, r resource[T], fn func(ctx context.Context, in *I) (*T, error)) {
	huma.Register(api, huma.Operation{
		OperationID:   "create" + r.name,
		Method:        http.MethodPost,
		Path:          r.path,
		Summary:       "Create " + r.name,
		Tags:          []string{r.tag},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, in *I) (*ItemOutput[T], error) {
		if _, err := require(ctx, auth.Perm(r.area, auth.VerbCreate)); err != nil {
			return nil, err
		}
		row, err := fn(ctx, in)
		if err != nil {
			return nil, asHTTPError(ctx, "Create"+r.name, err)
		}
		return &ItemOutput[T]{Body: row}, nil
	})
}

// update registers PATCH on the item path.
func update[I, T any](api huma.API, r resource[T], fn func(ctx context.Context, in *I) (*T, error)) {
	huma.Register(api, huma.Operation{
		OperationID: "update" + r.name,
		Method:      http.MethodPatch,
		Path:        r.path + "/{id}",
		Summary:     "Update " + r.name,
		Description: "Fields left out of the body are unchanged.",
		Tags:        []string{r.tag},
	}, func(ctx context.Context, in *I) (*ItemOutput[T], error) {
		if _, err := require(ctx, auth.Perm(r.area, auth.VerbEdit)); err != nil {
			return nil, err
		}
		row, err := fn(ctx, in)
		if err != nil {
			return nil, asHTTPError(ctx, "Update"+r.name, err)
		}
		return &ItemOutput[T]{Body: row}, nil
	})
}

// asHTTPError passes huma status errors through and maps the rest as
// database errors.
func asHTTPError(ctx context.Context, operation string, err error) error {
	if se, ok := err.(huma.StatusError); ok {
		return se
	}
	return dbError(ctx, operation, err)
}
