package trail

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
)

func TestDescribe_Create(t *testing.T) {
	tests := []struct {
		name    string
		entity  audit.EntityType
		changes string
		want    string
	}{
		{
			name:    "expense",
			entity:  audit.EntityExpense,
			changes: `{"new":{"description":"Paper","amount":200,"category":"Office Supplies"}}`,
			want:    "Recorded ₹200 expense in Office Supplies: Paper",
		},
		{
			name:    "donation with every field",
			entity:  audit.EntityDonation,
			changes: `{"new":{"amount":"1500","purpose":"School fees","donorName":"Asha","type":"Online","notes":"Annual"}}`,
			want:    "Received ₹1,500 online donation from Asha for School fees (Annual)",
		},
		{
			name:    "activity with date and place",
			entity:  audit.EntityActivity,
			changes: `{"new":{"title":"Tree planting","date":"2025-01-02T00:00:00Z","location":"Ward 4"}}`,
			want:    `Planned activity "Tree planting" on 2 Jan 2025 at Ward 4`,
		},
		{
			name:    "member with role",
			entity:  audit.EntityMember,
			changes: `{"new":{"name":"Ravi","trusteeRole":"joint_treasurer"}}`,
			want:    "Added member Ravi as Joint Treasurer",
		},
		{
			name:    "member without role",
			entity:  audit.EntityMember,
			changes: `{"new":{"name":"Ravi","trusteeRole":null}}`,
			want:    "Added member Ravi",
		},
		{
			name:    "meeting",
			entity:  audit.EntityMeeting,
			changes: `{"new":{"title":"AGM","date":"2025-03-31"}}`,
			want:    `Scheduled meeting "AGM" on 31 Mar 2025`,
		},
		{
			name:    "workshop",
			entity:  audit.EntityWorkshop,
			changes: `{"new":{"name":"Dr. Rao","specialization":"First aid"}}`,
			want:    "Added workshop resource Dr. Rao (First aid)",
		},
		{
			name:    "link",
			entity:  audit.EntityLink,
			changes: `{"new":{"title":"Bank portal","url":"https://bank.example"}}`,
			want:    `Added link "Bank portal"`,
		},
		{
			name:    "entity without template",
			entity:  audit.EntityMeetingDecision,
			changes: `{"new":{"description":"Buy chairs"}}`,
			want:    "Created meeting decision",
		},
		{
			name:    "template entity missing its key field",
			entity:  audit.EntityLink,
			changes: `{"new":{"url":"https://bank.example"}}`,
			want:    "Created link",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(audit.ActionCreate, tt.entity, json.RawMessage(tt.changes))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribe_UpdateAmountTreatsMissingAsZero(t *testing.T) {
	got := Describe(audit.ActionUpdate, audit.EntityDonation,
		json.RawMessage(`{"old":{"id":"d1"},"new":{"amount":500}}`))
	assert.Equal(t, "Set amount to ₹500", got)
	assert.NotContains(t, got, "₹0")
}

func TestDescribe_UpdateAmount(t *testing.T) {
	tests := []struct {
		name    string
		changes string
		want    string
	}{
		{"null old", `{"old":{"amount":null},"new":{"amount":500}}`, "Set amount to ₹500"},
		{"changed", `{"old":{"amount":200},"new":{"amount":500}}`, "Changed amount ₹200 → ₹500"},
		{"to zero", `{"old":{"amount":200},"new":{"amount":0}}`, "Changed amount ₹200 → ₹0"},
		{"unchanged", `{"old":{"amount":200},"new":{"amount":200}}`, ""},
		{"absent from new", `{"old":{"amount":200},"new":{"category":"Rent"}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(audit.ActionUpdate, audit.EntityExpense, json.RawMessage(tt.changes)))
		})
	}
}

func TestDescribe_UpdateOmitsUnchangedFields(t *testing.T) {
	got := Describe(audit.ActionUpdate, audit.EntityActivity,
		json.RawMessage(`{"old":{"title":"Camp","location":"Hall"},"new":{"title":"Camp","location":"Park"}}`))
	assert.Equal(t, "Moved to Park", got)
	assert.NotContains(t, got, "title")
}

func TestDescribe_UpdateWatchedFields(t *testing.T) {
	tests := []struct {
		name    string
		entity  audit.EntityType
		changes string
		want    string
	}{
		{
			name:    "clauses joined in field order",
			entity:  audit.EntityMeeting,
			changes: `{"old":{"title":"AGM","date":"2025-03-01T10:00:00Z","status":"scheduled"},"new":{"title":"AGM 2025","date":"2025-03-08T10:00:00Z","status":"held"}}`,
			want:    "Changed title to AGM 2025 • Rescheduled to 8 Mar 2025 • Marked as held",
		},
		{
			name:    "pii value is not echoed",
			entity:  audit.EntityMember,
			changes: `{"old":{"phone":"111"},"new":{"phone":"222"}}`,
			want:    "Updated phone number",
		},
		{
			name:    "category phrasing",
			entity:  audit.EntityExpense,
			changes: `{"old":{"category":"Travel"},"new":{"category":"Rent"}}`,
			want:    "Moved to Rent category",
		},
		{
			name:    "field missing from old is not reported",
			entity:  audit.EntityLink,
			changes: `{"old":{"id":"l1"},"new":{"title":"New"}}`,
			want:    "",
		},
		{
			name:    "cleared value",
			entity:  audit.EntityWorkshop,
			changes: `{"old":{"organization":"NGO"},"new":{"organization":null}}`,
			want:    "Cleared organization",
		},
		{
			name:    "renamed",
			entity:  audit.EntityWorkshop,
			changes: `{"old":{"name":"A"},"new":{"name":"B"}}`,
			want:    "Renamed to B",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(audit.ActionUpdate, tt.entity, json.RawMessage(tt.changes)))
		})
	}
}

func TestDescribe_UpdateGenericFallback(t *testing.T) {
	changes := `{"old":{"present":false,"name":"A","memberId":null,"note":"x","id":"1"},` +
		`"new":{"present":true,"name":"B","memberId":"m1","note":null,"id":"2","extra":1}}`
	got := Describe(audit.ActionUpdate, audit.EntityMeetingAttendee, json.RawMessage(changes))
	assert.Equal(t,
		`Member Id set to "m1" • Name changed from "A" to "B" • Note cleared • Present changed to Yes`,
		got)
}

func TestDescribe_Delete(t *testing.T) {
	tests := []struct {
		name    string
		entity  audit.EntityType
		changes string
		want    string
	}{
		{"expense uses description", audit.EntityExpense, `{"old":{"description":"Paper","amount":200}}`, `Deleted expense "Paper"`},
		{"meeting uses title", audit.EntityMeeting, `{"old":{"title":"AGM"}}`, `Deleted meeting "AGM"`},
		{"member uses name", audit.EntityMember, `{"old":{"name":"Ravi"}}`, `Deleted member "Ravi"`},
		{"no identifying field", audit.EntityMeetingAttachment, `{"old":{"url":"x"}}`, "Deleted meeting attachment"},
		{"no old half", audit.EntityLink, `{}`, "Deleted link"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(audit.ActionDelete, tt.entity, json.RawMessage(tt.changes)))
		})
	}
}

func TestDescribe_MalformedPayloads(t *testing.T) {
	inputs := []string{``, `null`, `[]`, `"text"`, `{"new":5}`, `{"old":[1,2],"new":{"amount":"abc"}}`, `{not json`}
	entities := []audit.EntityType{audit.EntityDonation, audit.EntityExpense, audit.EntityMeeting, "Unknown_Thing"}
	actions := []audit.Action{audit.ActionCreate, audit.ActionUpdate, audit.ActionDelete, "ARCHIVE"}

	for _, in := range inputs {
		for _, e := range entities {
			for _, a := range actions {
				assert.NotPanics(t, func() {
					_ = Describe(a, e, json.RawMessage(in))
				}, "action=%s entity=%s input=%q", a, e, in)
			}
		}
	}

	assert.Equal(t, "Created donation", Describe(audit.ActionCreate, audit.EntityDonation, json.RawMessage(`{"new":{"amount":"abc"}}`)))
	assert.Equal(t, "", Describe(audit.ActionUpdate, audit.EntityDonation, json.RawMessage(`null`)))
}

func TestTitleWords(t *testing.T) {
	assert.Equal(t, "General Trustee", titleWords("general_trustee"))
	assert.Equal(t, "Payment Mode", titleWords("paymentMode"))
	assert.Equal(t, "It Team", titleWords("IT team"))
}
