// Package trail is the read side of the audit log: filtered pages, display
// grouping, one-line change summaries and per-group timelines.
package trail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
	"github.com/Good-for-good/goodforgood-sub000/internal/config"
	"github.com/Good-for-good/goodforgood-sub000/internal/db"
	"github.com/Good-for-good/goodforgood-sub000/internal/validation"
)

// ErrInvalidFilter wraps filter validation failures.
var ErrInvalidFilter = errors.New("invalid audit filter")

// Store is the slice of the gateway the audit reader needs.
type Store interface {
	ListAuditLogs(ctx context.Context, arg db.ListAuditLogsParams) ([]*db.AuditLogView, error)
	CountAuditLogs(ctx context.Context, arg db.AuditLogFilter) (int64, error)
	ListAuditEntityTypes(ctx context.Context) ([]string, error)
}

// Log is an audit entry as shown to readers.
type Log struct {
	ID          string          `json:"id"`
	Action      string          `json:"action"`
	EntityType  string          `json:"entityType"`
	EntityID    string          `json:"entityId"`
	Changes     json.RawMessage `json:"changes"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	GroupID     *string         `json:"groupId"`
	ParentID    *string         `json:"parentId"`
	MemberID    string          `json:"memberId"`
	MemberName  *string         `json:"memberName"`
	MemberEmail *string         `json:"memberEmail"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Group is a display cluster: the newest entry plus the entries folded into it.
type Group struct {
	Key      string `json:"key"`
	Main     Log    `json:"main"`
	Related  []Log  `json:"related"`
	Timeline []Step `json:"timeline"`
}

// Filter selects audit entries. Zero values match everything.
type Filter struct {
	EntityType string `validate:"max=64"`
	EntityID   string `validate:"max=128"`
	Action     string `validate:"auditaction"`
	Search     string `validate:"max=200"`
	From       *time.Time
	To         *time.Time
	Page       int `validate:"min=0,max=100000"`
	PageSize   int `validate:"min=0"`
}

// Page is one page of audit entries.
type Page struct {
	Logs        []Log    `json:"logs"`
	Total       int64    `json:"total"`
	EntityTypes []string `json:"entityTypes"`
	Page        int      `json:"page"`
	PageSize    int      `json:"pageSize"`
}

// GroupPage is a page of entries clustered for display.
type GroupPage struct {
	Groups      []Group  `json:"groups"`
	Total       int64    `json:"total"`
	EntityTypes []string `json:"entityTypes"`
	Page        int      `json:"page"`
	PageSize    int      `json:"pageSize"`
}

// Service reads the audit log.
type Service struct {
	store       Store
	window      time.Duration
	defaultSize int
	maxSize     int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for relative timeline times.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service with paging and grouping taken from cfg.
func NewService(store Store, cfg config.AuditConfig, opts ...Option) *Service {
	s := &Service{
		store:       store,
		window:      cfg.RegroupWindow,
		defaultSize: cfg.DefaultPageSize,
		maxSize:     cfg.MaxPageSize,
		now:         time.Now,
	}
	if s.window <= 0 {
		s.window = DefaultWindow
	}
	if s.defaultSize <= 0 {
		s.defaultSize = 20
	}
	if s.maxSize <= 0 {
		s.maxSize = 100
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of entries with the total count and the distinct
// entity types. The three queries run concurrently.
func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	if err := validation.Validate(f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	page, size, offset, err := s.paging(f)
	if err != nil {
		return nil, err
	}
	filter := toDBFilter(f)

	var (
		views []*db.AuditLogView
		total int64
		types []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		views, err = s.store.ListAuditLogs(gctx, db.ListAuditLogsParams{
			AuditLogFilter: filter,
			Limit:          int32(size), //nolint:gosec // capped by maxSize
			Offset:         offset,
		})
		if err != nil {
			return fmt.Errorf("list audit logs: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountAuditLogs(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		types, err = s.store.ListAuditEntityTypes(gctx)
		if err != nil {
			return fmt.Errorf("list audit entity types: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logs := make([]Log, 0, len(views))
	for _, v := range views {
		logs = append(logs, FromView(v))
	}
	if types == nil {
		types = []string{}
	}
	return &Page{Logs: logs, Total: total, EntityTypes: types, Page: page, PageSize: size}, nil
}

// Groups returns one page clustered for display, each group with its
// timeline.
func (s *Service) Groups(ctx context.Context, f Filter) (*GroupPage, error) {
	p, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	now := s.now()
	groups := Cluster(p.Logs, s.window)
	for i := range groups {
		groups[i].Timeline = Timeline(groups[i], now)
	}
	if groups == nil {
		groups = []Group{}
	}
	return &GroupPage{
		Groups:      groups,
		Total:       p.Total,
		EntityTypes: p.EntityTypes,
		Page:        p.Page,
		PageSize:    p.PageSize,
	}, nil
}

// paging resolves the page and size and rejects pages whose row offset does
// not fit the query's int32 offset.
func (s *Service) paging(f Filter) (page, size int, offset int32, err error) {
	page = max(f.Page, 1)
	size = f.PageSize
	if size <= 0 {
		size = s.defaultSize
	}
	size = min(size, s.maxSize)
	off := int64(page-1) * int64(size)
	if off > math.MaxInt32 {
		return 0, 0, 0, fmt.Errorf("%w: page %d is out of range", ErrInvalidFilter, page)
	}
	return page, size, int32(off), nil //nolint:gosec // range checked above
}

// FromView converts a stored row and derives its description. A missing
// stored summary falls back to the default one.
func FromView(v *db.AuditLogView) Log {
	action := audit.Action(strings.ToUpper(v.Action))
	entity := audit.ParseEntityType(v.EntityType)

	l := Log{
		ID:          v.ID,
		Action:      string(action),
		EntityType:  string(entity),
		EntityID:    v.EntityID,
		Changes:     v.Changes,
		GroupID:     v.GroupID,
		ParentID:    v.ParentID,
		MemberID:    v.MemberID,
		MemberName:  v.MemberName,
		MemberEmail: v.MemberEmail,
		CreatedAt:   v.CreatedAt,
		Description: Describe(action, entity, v.Changes),
	}
	if v.Summary != nil && *v.Summary != "" {
		l.Summary = *v.Summary
	} else {
		l.Summary = audit.DefaultSummary(action, entity, v.Changes)
	}
	return l
}

func toDBFilter(f Filter) db.AuditLogFilter {
	var out db.AuditLogFilter
	if s := strings.TrimSpace(f.EntityType); s != "" {
		out.EntityType = &s
	}
	if s := strings.TrimSpace(f.EntityID); s != "" {
		out.EntityID = &s
	}
	if a, ok := audit.ParseAction(f.Action); ok {
		s := string(a)
		out.Action = &s
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		out.Search = &s
	}
	out.From, out.To = f.From, f.To
	return out
}
