package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
}

type testRow struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
	Title  string  `json:"title,omitempty"`
}

func (r *testRow) GetID() string { return r.ID }

type testUpsert struct {
	testRow
	created bool
}

func (r *testUpsert) Inserted() bool { return r.created }

func actor(id string) ActorResolver {
	return ActorResolverFunc(func(context.Context) (string, bool) { return id, id != "" })
}

func decodeChanges(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestObserve_AuditFailureDoesNotAffectMutation(t *testing.T) {
	tests := []struct {
		name   string
		sink   Sink
		result any
	}{
		{
			name:   "sink error",
			sink:   SinkFunc(func(context.Context, Entry) error { return errors.New("audit table locked") }),
			result: &testRow{ID: "d-1", Amount: 500},
		},
		{
			name:   "unmarshalable payload",
			sink:   &memorySink{},
			result: map[string]any{"id": "d-2", "bad": make(chan int)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ic := NewInterceptor(actor("m-1"), NewRecorder())
			got, err := ic.Observe(context.Background(), tt.sink, Mutation{
				Entity:   EntityDonation,
				Op:       OpCreate,
				EntityID: "d",
			}, func(context.Context) (any, error) {
				return tt.result, nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.result, got)
		})
	}
}

func TestRun_ReturnsTypedResultWhenSinkFails(t *testing.T) {
	ic := NewInterceptor(actor("m-1"), NewRecorder())
	failing := SinkFunc(func(context.Context, Entry) error { return errors.New("boom") })

	row, err := Run(context.Background(), ic, failing, Mutation{Entity: EntityExpense, Op: OpCreate},
		func(context.Context) (*testRow, error) {
			return &testRow{ID: "e-1", Amount: 200}, nil
		})
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "e-1", row.ID)
}

func TestObserve_MutationErrorIsNotAudited(t *testing.T) {
	sink := &memorySink{}
	ic := NewInterceptor(actor("m-1"), NewRecorder())
	wantErr := errors.New("unique violation")

	_, err := ic.Observe(context.Background(), sink, Mutation{Entity: EntityLink, Op: OpCreate},
		func(context.Context) (any, error) { return nil, wantErr })

	require.ErrorIs(t, err, wantErr)
	assert.Empty(t, sink.all())
}

func TestObserve_SkipsExcludedEntitiesAndMissingActor(t *testing.T) {
	tests := []struct {
		name   string
		actor  string
		entity EntityType
	}{
		{"session", "m-1", EntitySession},
		{"audit log", "m-1", EntityAuditLog},
		{"no actor", "", EntityDonation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memorySink{}
			ic := NewInterceptor(actor(tt.actor), NewRecorder())
			got, err := ic.Observe(context.Background(), sink, Mutation{Entity: tt.entity, Op: OpCreate},
				func(context.Context) (any, error) { return &testRow{ID: "x"}, nil })

			require.NoError(t, err)
			assert.Equal(t, &testRow{ID: "x"}, got)
			assert.Empty(t, sink.all())
		})
	}
}

func TestObserve_NilResolverSkips(t *testing.T) {
	sink := &memorySink{}
	ic := NewInterceptor(nil, nil)
	_, err := ic.Observe(context.Background(), sink, Mutation{Entity: EntityDonation, Op: OpCreate},
		func(context.Context) (any, error) { return &testRow{ID: "x"}, nil })
	require.NoError(t, err)
	assert.Empty(t, sink.all())
}

func TestObserve_RecordsChangesPerOp(t *testing.T) {
	title := "Renamed"
	tests := []struct {
		name       string
		m          Mutation
		result     any
		wantAction Action
		wantID     string
		wantOld    any
		wantNew    any
	}{
		{
			name:       "create snapshots result as new",
			m:          Mutation{Entity: EntityDonation, Op: OpCreate},
			result:     &testRow{ID: "d-1", Amount: 500},
			wantAction: ActionCreate,
			wantID:     "d-1",
			wantNew:    map[string]any{"id": "d-1", "amount": float64(500)},
		},
		{
			name: "update records selector and payload",
			m: Mutation{
				Entity:   EntityActivity,
				Op:       OpUpdate,
				EntityID: "a-1",
				Where:    map[string]any{"id": "a-1"},
				Data:     struct{ Title *string }{Title: &title},
			},
			result:     &testRow{ID: "a-1", Title: title},
			wantAction: ActionUpdate,
			wantID:     "a-1",
			wantOld:    map[string]any{"id": "a-1"},
			wantNew:    map[string]any{"Title": "Renamed"},
		},
		{
			name:       "delete snapshots result as old",
			m:          Mutation{Entity: EntityExpense, Op: OpDelete, EntityID: "e-1"},
			result:     &testRow{ID: "e-1", Amount: 200},
			wantAction: ActionDelete,
			wantID:     "e-1",
			wantOld:    map[string]any{"id": "e-1", "amount": float64(200)},
		},
		{
			name:       "upsert that inserted is a create",
			m:          Mutation{Entity: EntityLink, Op: OpUpsert, Where: map[string]any{"url": "https://a"}, Data: map[string]any{"title": "A"}},
			result:     &testUpsert{testRow: testRow{ID: "l-1", Title: "A"}, created: true},
			wantAction: ActionCreate,
			wantID:     "l-1",
			wantNew:    map[string]any{"id": "l-1", "amount": float64(0), "title": "A"},
		},
		{
			name:       "upsert that updated is an update",
			m:          Mutation{Entity: EntityLink, Op: OpUpsert, Where: map[string]any{"url": "https://a"}, Data: map[string]any{"title": "B"}},
			result:     &testUpsert{testRow: testRow{ID: "l-1", Title: "B"}},
			wantAction: ActionUpdate,
			wantID:     "l-1",
			wantOld:    map[string]any{"url": "https://a"},
			wantNew:    map[string]any{"title": "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memorySink{}
			ic := NewInterceptor(actor("m-7"), NewRecorder(WithClock(fixedClock)))

			_, err := ic.Observe(context.Background(), sink, tt.m, func(context.Context) (any, error) {
				return tt.result, nil
			})
			require.NoError(t, err)

			entries := sink.all()
			require.Len(t, entries, 1)
			e := entries[0]
			assert.Equal(t, tt.wantAction, e.Action)
			assert.Equal(t, tt.wantID, e.EntityID)
			assert.Equal(t, "m-7", e.MemberID)
			assert.Equal(t, fixedClock(), e.CreatedAt)

			changes := decodeChanges(t, e.Changes)
			assert.Equal(t, tt.wantOld, changes["old"])
			assert.Equal(t, tt.wantNew, changes["new"])
		})
	}
}

func TestObserve_CallerSummaryWins(t *testing.T) {
	sink := &memorySink{}
	ic := NewInterceptor(actor("m-1"), NewRecorder())

	_, err := ic.Observe(context.Background(), sink, Mutation{
		Entity:  EntityMeeting,
		Op:      OpCreate,
		Summary: "imported from minutes book",
	}, func(context.Context) (any, error) { return &testRow{ID: "mt-1"}, nil })
	require.NoError(t, err)
	require.Len(t, sink.all(), 1)
	assert.Equal(t, "imported from minutes book", sink.all()[0].Summary)
}

func TestBuildEntry_RequiresEntityID(t *testing.T) {
	_, err := BuildEntry(Mutation{Entity: EntityDonation, Op: OpCreate}, map[string]any{"amount": 5})
	require.Error(t, err)
}

func TestBuildEntry_UnknownOp(t *testing.T) {
	_, err := BuildEntry(Mutation{Entity: EntityDonation, Op: "truncate", EntityID: "d"}, nil)
	require.Error(t, err)
}

func TestDefaultSummary(t *testing.T) {
	tests := []struct {
		name    string
		action  Action
		entity  EntityType
		changes string
		want    string
	}{
		{"donation create with amount", ActionCreate, EntityDonation, `{"new":{"amount":500}}`, "created donation of ₹500"},
		{"expense delete uses old amount", ActionDelete, EntityExpense, `{"old":{"amount":"200"}}`, "deleted expense of ₹200"},
		{"donation update without amount", ActionUpdate, EntityDonation, `{"old":{"id":"d"},"new":{"purpose":"x"}}`, "updated donation"},
		{"member has no enrichment", ActionCreate, EntityMember, `{"new":{"amount":5}}`, "created member"},
		{"label uses words", ActionDelete, EntityMeetingDecision, `{}`, "deleted meeting decision"},
		{"malformed payload", ActionCreate, EntityDonation, `[1,2]`, "created donation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultSummary(tt.action, tt.entity, json.RawMessage(tt.changes)))
		})
	}
}

func TestObserve_GroupsRequestMutations(t *testing.T) {
	sink := &memorySink{}
	ic := NewInterceptor(actor("m-1"), NewRecorder())

	ctx, end := Begin(context.Background())
	for _, id := range []string{"mt-1", "att-1", "dec-1"} {
		_, err := ic.Observe(ctx, sink, Mutation{Entity: EntityMeeting, Op: OpDelete, EntityID: id},
			func(context.Context) (any, error) { return &testRow{ID: id}, nil })
		require.NoError(t, err)
	}
	end()

	entries := sink.all()
	require.Len(t, entries, 3)
	for _, e := range entries {
		require.NotNil(t, e.GroupID)
		assert.Equal(t, *entries[0].GroupID, *e.GroupID)
	}
}
