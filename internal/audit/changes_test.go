package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChange_Variants(t *testing.T) {
	tests := []struct {
		entity EntityType
		want   any
	}{
		{EntityDonation, &DonationChange{}},
		{EntityExpense, &ExpenseChange{}},
		{EntityActivity, &ActivityChange{}},
		{EntityMember, &MemberChange{}},
		{EntityMeeting, &MeetingChange{}},
		{EntityWorkshop, &WorkshopChange{}},
		{EntityLink, &LinkChange{}},
		{EntityMeetingAttendee, &GenericChange{}},
		{"Donation", &DonationChange{}},
		{"grant", &GenericChange{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.entity), func(t *testing.T) {
			c := DecodeChange(tt.entity, json.RawMessage(`{"new":{"id":"x"}}`))
			assert.IsType(t, tt.want, c)
			assert.Equal(t, ParseEntityType(string(tt.entity)), c.Entity())
		})
	}
}

func TestDecodeChange_FieldPresence(t *testing.T) {
	c := DecodeChange(EntityDonation, json.RawMessage(`{"old":{"id":"d-1","notes":null},"new":{"amount":"500.50","purpose":"Food drive"}}`))
	d, ok := c.(*DonationChange)
	require.True(t, ok)

	require.NotNil(t, d.Old)
	assert.False(t, d.Old.Amount.Present)
	assert.True(t, d.Old.Notes.Present)
	assert.True(t, d.Old.Notes.Null)
	assert.False(t, d.Old.Notes.Set())

	require.NotNil(t, d.New)
	assert.True(t, d.New.Amount.Set())
	assert.InDelta(t, 500.5, float64(d.New.Amount.Value), 0.001)
	assert.Equal(t, "Food drive", d.New.Purpose.Value)

	f := c.Fields()
	assert.Equal(t, "d-1", f.Old["id"])
	assert.Equal(t, "Food drive", f.New["purpose"])
	assert.Equal(t, f.New, f.Snapshot())
}

func TestDecodeChange_MalformedDegradesToGeneric(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"type mismatch", `{"new":{"amount":{"value":5}}}`},
		{"string title", `{"new":{"title":42}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := EntityDonation
			if tt.name == "string title" {
				entity = EntityActivity
			}
			c := DecodeChange(entity, json.RawMessage(tt.raw))
			g, ok := c.(*GenericChange)
			require.True(t, ok, "got %T", c)
			assert.Equal(t, entity, g.Entity())
			assert.NotNil(t, g.Fields().New)
		})
	}
}

func TestDecodeChange_NeverPanics(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`, `"text"`, `{"old":[1],"new":"x"}`, `{not json`} {
		t.Run(raw, func(t *testing.T) {
			assert.NotPanics(t, func() {
				c := DecodeChange(EntityMeeting, json.RawMessage(raw))
				assert.Nil(t, c.Fields().Old)
				assert.Nil(t, c.Fields().New)
			})
		})
	}
}

func TestFields_SnapshotFallback(t *testing.T) {
	old := map[string]any{"a": 1}
	all := map[string]any{"x": 2}
	assert.Equal(t, old, Fields{Old: old, All: all}.Snapshot())
	assert.Equal(t, all, Fields{All: all}.Snapshot())
	assert.Nil(t, Fields{}.Snapshot())
}

func TestFormatRupees(t *testing.T) {
	assert.Equal(t, "₹500", FormatRupees(500))
	assert.Equal(t, "₹0", FormatRupees(0))
	assert.Equal(t, "₹99.5", FormatRupees(99.5))
}

func TestParseAction(t *testing.T) {
	a, ok := ParseAction(" update ")
	assert.True(t, ok)
	assert.Equal(t, ActionUpdate, a)

	_, ok = ParseAction("UPSERT")
	assert.False(t, ok)
}
