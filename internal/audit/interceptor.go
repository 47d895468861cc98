package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Good-for-good/goodforgood-sub000/internal/metrics"
)

// Mutation describes one observed gateway call.
type Mutation struct {
	Entity EntityType
	Op     Op
	// EntityID identifies the row when the caller already knows it (update,
	// delete). Otherwise it is taken from the result.
	EntityID string
	// Where is the selector of an update or upsert.
	Where any
	// Data is the payload of an update or upsert.
	Data any
	// Summary overrides the derived one-line summary.
	Summary string
}

// ActorResolver identifies the member responsible for the current request.
type ActorResolver interface {
	ResolveActor(ctx context.Context) (memberID string, ok bool)
}

// ActorResolverFunc adapts a function to ActorResolver.
type ActorResolverFunc func(ctx context.Context) (string, bool)

// ResolveActor implements ActorResolver.
func (f ActorResolverFunc) ResolveActor(ctx context.Context) (string, bool) { return f(ctx) }

// identified is implemented by gateway rows.
type identified interface {
	GetID() string
}

// inserted is implemented by upsert results that know whether a row was created.
type inserted interface {
	Inserted() bool
}

// Skip reasons reported on the skipped-entries metric.
const (
	skipNoActor  = "no_actor"
	skipExcluded = "excluded"
)

// Interceptor turns completed gateway mutations into audit entries.
type Interceptor struct {
	actors   ActorResolver
	recorder *Recorder
}

// NewInterceptor creates an Interceptor.
func NewInterceptor(actors ActorResolver, recorder *Recorder) *Interceptor {
	if recorder == nil {
		recorder = NewRecorder()
	}
	return &Interceptor{actors: actors, recorder: recorder}
}

// Observe runs the mutation and, if it succeeded, records it through sink.
// The mutation's result and error are returned unchanged: a failure to build
// or persist the entry is logged and dropped.
func (ic *Interceptor) Observe(ctx context.Context, sink Sink, m Mutation, run func(context.Context) (any, error)) (any, error) {
	result, err := run(ctx)
	if err != nil {
		return result, err
	}
	if _, aerr := ic.record(ctx, sink, m, result); aerr != nil {
		metrics.AuditEntriesFailed.WithLabelValues(string(m.Entity)).Inc()
		slog.WarnContext(ctx, "audit entry dropped",
			"entity_type", m.Entity,
			"op", m.Op,
			"entity_id", m.EntityID,
			"error", aerr,
		)
	}
	return result, nil
}

// Run is Observe for typed gateway methods.
func Run[T any](ctx context.Context, ic *Interceptor, sink Sink, m Mutation, run func(context.Context) (T, error)) (T, error) {
	out, err := ic.Observe(ctx, sink, m, func(ctx context.Context) (any, error) {
		return run(ctx)
	})
	v, _ := out.(T)
	return v, err
}

// record builds and persists the entry for a successful mutation. A nil entry
// with a nil error means the mutation was deliberately left unaudited.
func (ic *Interceptor) record(ctx context.Context, sink Sink, m Mutation, result any) (*Entry, error) {
	if m.Entity.Excluded() {
		metrics.AuditEntriesSkipped.WithLabelValues(skipExcluded).Inc()
		return nil, nil
	}
	var memberID string
	if ic.actors != nil {
		id, ok := ic.actors.ResolveActor(ctx)
		if ok {
			memberID = id
		}
	}
	if memberID == "" {
		metrics.AuditEntriesSkipped.WithLabelValues(skipNoActor).Inc()
		slog.DebugContext(ctx, "mutation not audited: no actor",
			"entity_type", m.Entity,
			"op", m.Op,
		)
		return nil, nil
	}

	e, err := BuildEntry(m, result)
	if err != nil {
		return nil, err
	}
	e.MemberID = memberID

	e, err = ic.recorder.Record(ctx, sink, e)
	if err != nil {
		return nil, err
	}
	metrics.AuditEntriesRecorded.WithLabelValues(string(e.EntityType), string(e.Action)).Inc()
	return &e, nil
}

// BuildEntry classifies m and snapshots its payload. It leaves the identity,
// actor, group and timestamp fields to the Recorder.
func BuildEntry(m Mutation, result any) (Entry, error) {
	e := Entry{
		EntityType: m.Entity,
		EntityID:   m.EntityID,
	}
	var changes Changes

	switch m.Op {
	case OpCreate:
		e.Action = ActionCreate
		changes.New = result
	case OpUpdate:
		e.Action = ActionUpdate
		changes.Old, changes.New = m.Where, m.Data
	case OpDelete:
		e.Action = ActionDelete
		changes.Old = result
	case OpUpsert:
		if r, ok := result.(inserted); ok && r.Inserted() {
			e.Action = ActionCreate
			changes.New = result
		} else {
			e.Action = ActionUpdate
			changes.Old, changes.New = m.Where, m.Data
		}
	default:
		return Entry{}, fmt.Errorf("unknown op %q", m.Op)
	}

	if e.EntityID == "" {
		if r, ok := result.(identified); ok {
			e.EntityID = r.GetID()
		}
	}
	if e.EntityID == "" {
		return Entry{}, fmt.Errorf("%s %s: no entity id", m.Op, m.Entity)
	}

	raw, err := json.Marshal(changes)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal changes: %w", err)
	}
	e.Changes = raw

	e.Summary = m.Summary
	if e.Summary == "" {
		e.Summary = DefaultSummary(e.Action, e.EntityType, raw)
	}
	return e, nil
}

// DefaultSummary derives "created donation of ₹500" style one-liners. Only
// donations and expenses are enriched with their amount.
func DefaultSummary(action Action, entity EntityType, changes json.RawMessage) string {
	s := action.PastTense() + " " + entity.Label()
	if entity != EntityDonation && entity != EntityExpense {
		return s
	}
	var amounts struct {
		Old struct {
			Amount *Amount `json:"amount"`
		} `json:"old"`
		New struct {
			Amount *Amount `json:"amount"`
		} `json:"new"`
	}
	if err := json.Unmarshal(changes, &amounts); err != nil {
		return s
	}
	amount := amounts.New.Amount
	if amount == nil {
		amount = amounts.Old.Amount
	}
	if amount == nil {
		return s
	}
	return s + " of " + amount.String()
}
