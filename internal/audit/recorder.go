package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink persists audit entries. The db gateway implements it so entries are
// written through the same handle (and transaction) as the mutation.
type Sink interface {
	AppendAuditEntry(ctx context.Context, e Entry) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Entry) error

// AppendAuditEntry implements Sink.
func (f SinkFunc) AppendAuditEntry(ctx context.Context, e Entry) error { return f(ctx, e) }

// scope is one logical operation. Nested Begin calls share the outermost
// scope; its group id is drawn on the first recorded entry.
type scope struct {
	mu       sync.Mutex
	depth    int
	closed   bool
	manual   bool
	groupID  string
	parentID string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) *scope {
	s, _ := ctx.Value(scopeKey{}).(*scope)
	return s
}

// Begin opens an operation scope, or joins the one already carried by ctx.
// Every entry recorded under the returned context shares one group id. The
// group closes when the outermost end is called. end is idempotent.
func Begin(ctx context.Context) (context.Context, func()) {
	if s := scopeFrom(ctx); s != nil {
		s.mu.Lock()
		open := !s.closed
		if open {
			s.depth++
		}
		s.mu.Unlock()
		if open {
			return ctx, sync.OnceFunc(s.leave)
		}
	}
	s := &scope{depth: 1}
	return context.WithValue(ctx, scopeKey{}, s), sync.OnceFunc(s.leave)
}

// BeginManual opens a manual operation: the caller drives a multi-step change
// end to end and automatic grouping is suspended. Entries recorded under the
// returned context carry no group id; the first one stored becomes the parent
// of the rest. Any enclosing scope resumes once the caller goes back to its own
// context.
func BeginManual(ctx context.Context) (context.Context, func()) {
	s := &scope{depth: 1, manual: true}
	return context.WithValue(ctx, scopeKey{}, s), sync.OnceFunc(s.leave)
}

// InManual reports whether ctx is inside an open manual operation.
func InManual(ctx context.Context) bool {
	s := scopeFrom(ctx)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manual && !s.closed
}

func (s *scope) leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.depth--
	if s.depth <= 0 {
		s.closed = true
		s.groupID = ""
		s.parentID = ""
	}
}

// stamp returns the group and parent ids for the next entry. newID is called
// at most once per group. In a manual scope with no parent yet, root reports
// that the entry should become the parent once it is stored.
func (s *scope) stamp(newID func() string) (group, parent *string, root bool) {
	if s == nil {
		id := newID()
		return &id, nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		id := newID()
		return &id, nil, false
	case s.manual:
		if s.parentID == "" {
			return nil, nil, true
		}
		p := s.parentID
		return nil, &p, false
	default:
		if s.groupID == "" {
			s.groupID = newID()
		}
		g := s.groupID
		return &g, nil, false
	}
}

// claimParent makes a stored entry the parent of the manual scope's later
// entries, unless another entry got there first.
func (s *scope) claimParent(entryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.parentID == "" {
		s.parentID = entryID
	}
}

// Recorder stamps entries with identity, group linkage and time, then hands
// them to a Sink.
type Recorder struct {
	newID func() string
	now   func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithIDFunc replaces the id generator (uuid v4 by default).
func WithIDFunc(fn func() string) RecorderOption {
	return func(r *Recorder) { r.newID = fn }
}

// WithClock replaces the clock used for CreatedAt.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a Recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Record stamps e from the scope carried by ctx and persists it. A mutation
// observed with no scope is its own operation and gets a fresh group.
func (r *Recorder) Record(ctx context.Context, sink Sink, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = r.newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	sc := scopeFrom(ctx)
	var root bool
	e.GroupID, e.ParentID, root = sc.stamp(r.newID)

	if err := sink.AppendAuditEntry(ctx, e); err != nil {
		return e, fmt.Errorf("append audit entry: %w", err)
	}
	if root {
		sc.claimParent(e.ID)
	}
	return e, nil
}
