package audit

import (
	"bytes"
	"encoding/json"
)

// Opt is a snapshot field that remembers whether its key was present in the
// payload and whether it was null.
type Opt[T any] struct {
	Value   T
	Present bool
	Null    bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// Set reports whether the key carried a non-null value.
func (o Opt[T]) Set() bool {
	return o.Present && !o.Null
}

// Fields holds the loosely decoded halves of a changes payload. A half is nil
// when it is absent or not a JSON object.
type Fields struct {
	Old map[string]any
	New map[string]any
	All map[string]any
}

// Snapshot returns the half that best describes the entity: new, then old,
// then the whole payload.
func (f Fields) Snapshot() map[string]any {
	switch {
	case f.New != nil:
		return f.New
	case f.Old != nil:
		return f.Old
	default:
		return f.All
	}
}

// Change is a decoded changes payload. The concrete type is one of the
// *Change variants below; GenericChange covers everything else.
type Change interface {
	Entity() EntityType
	Fields() Fields
}

type payload struct {
	fields Fields
}

func (p payload) Fields() Fields { return p.fields }

// DonationSnapshot is the audited shape of a donation.
type DonationSnapshot struct {
	Amount        Opt[Amount] `json:"amount"`
	Purpose       Opt[string] `json:"purpose"`
	DonorName     Opt[string] `json:"donorName"`
	Type          Opt[string] `json:"type"`
	Date          Opt[string] `json:"date"`
	Notes         Opt[string] `json:"notes"`
	ReceiptNumber Opt[string] `json:"receiptNumber"`
}

// DonationChange is a donation payload.
type DonationChange struct {
	payload
	Old, New *DonationSnapshot
}

func (*DonationChange) Entity() EntityType { return EntityDonation }

// ExpenseSnapshot is the audited shape of an expense.
type ExpenseSnapshot struct {
	Amount      Opt[Amount] `json:"amount"`
	Category    Opt[string] `json:"category"`
	Description Opt[string] `json:"description"`
	Date        Opt[string] `json:"date"`
	PaidTo      Opt[string] `json:"paidTo"`
	PaymentMode Opt[string] `json:"paymentMode"`
	Notes       Opt[string] `json:"notes"`
}

// ExpenseChange is an expense payload.
type ExpenseChange struct {
	payload
	Old, New *ExpenseSnapshot
}

func (*ExpenseChange) Entity() EntityType { return EntityExpense }

// ActivitySnapshot is the audited shape of an activity.
type ActivitySnapshot struct {
	Title       Opt[string] `json:"title"`
	Description Opt[string] `json:"description"`
	Date        Opt[string] `json:"date"`
	Location    Opt[string] `json:"location"`
	Status      Opt[string] `json:"status"`
}

// ActivityChange is an activity payload.
type ActivityChange struct {
	payload
	Old, New *ActivitySnapshot
}

func (*ActivityChange) Entity() EntityType { return EntityActivity }

// MemberSnapshot is the audited shape of a member. The password hash is never
// serialized and so never appears here.
type MemberSnapshot struct {
	Name          Opt[string] `json:"name"`
	Email         Opt[string] `json:"email"`
	Phone         Opt[string] `json:"phone"`
	Address       Opt[string] `json:"address"`
	TrusteeRole   Opt[string] `json:"trusteeRole"`
	AccountStatus Opt[string] `json:"accountStatus"`
}

// MemberChange is a member payload.
type MemberChange struct {
	payload
	Old, New *MemberSnapshot
}

func (*MemberChange) Entity() EntityType { return EntityMember }

// MeetingSnapshot is the audited shape of a meeting row. Attendees, decisions
// and attachments are audited as their own entities.
type MeetingSnapshot struct {
	Title    Opt[string] `json:"title"`
	Date     Opt[string] `json:"date"`
	Location Opt[string] `json:"location"`
	Agenda   Opt[string] `json:"agenda"`
	Minutes  Opt[string] `json:"minutes"`
	Status   Opt[string] `json:"status"`
}

// MeetingChange is a meeting payload.
type MeetingChange struct {
	payload
	Old, New *MeetingSnapshot
}

func (*MeetingChange) Entity() EntityType { return EntityMeeting }

// WorkshopSnapshot is the audited shape of a workshop resource.
type WorkshopSnapshot struct {
	Name           Opt[string] `json:"name"`
	Specialization Opt[string] `json:"specialization"`
	Organization   Opt[string] `json:"organization"`
	Email          Opt[string] `json:"email"`
	Phone          Opt[string] `json:"phone"`
	Notes          Opt[string] `json:"notes"`
}

// WorkshopChange is a workshop resource payload.
type WorkshopChange struct {
	payload
	Old, New *WorkshopSnapshot
}

func (*WorkshopChange) Entity() EntityType { return EntityWorkshop }

// LinkSnapshot is the audited shape of a quick link.
type LinkSnapshot struct {
	Title       Opt[string] `json:"title"`
	URL         Opt[string] `json:"url"`
	Category    Opt[string] `json:"category"`
	Description Opt[string] `json:"description"`
}

// LinkChange is a quick link payload.
type LinkChange struct {
	payload
	Old, New *LinkSnapshot
}

func (*LinkChange) Entity() EntityType { return EntityLink }

// GenericChange is any payload without a curated variant, including curated
// entity types whose payload did not match the expected shape.
type GenericChange struct {
	payload
	Type EntityType
}

func (c *GenericChange) Entity() EntityType { return c.Type }

// DecodeChange decodes a stored changes payload into its variant. It never
// fails: malformed input yields a GenericChange with whatever could be read.
func DecodeChange(entity EntityType, raw json.RawMessage) Change {
	entity = ParseEntityType(string(entity))

	var halves struct {
		Old json.RawMessage `json:"old"`
		New json.RawMessage `json:"new"`
	}
	var f Fields
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &f.All)
		if f.All != nil {
			_ = json.Unmarshal(raw, &halves)
		}
	}
	f.Old = objectOf(halves.Old)
	f.New = objectOf(halves.New)
	p := payload{fields: f}

	switch entity {
	case EntityDonation:
		c := &DonationChange{payload: p}
		if decodeHalf(halves.Old, &c.Old) && decodeHalf(halves.New, &c.New) {
			return c
		}
	case EntityExpense:
		c := &ExpenseChange{payload: p}
		if decodeHalf(halves.Old, &c.Old) && decodeHalf(halves.New, &c.New) {
			return c
		}
	case EntityActivity:
		c := &ActivityChange{payload: p}
		if decodeHalf(halves.Old, &c.Old) && decodeHalf(halves.New, &c.New) {
			return c
		}
	case EntityMember:
		c := &MemberChange{payload: p}
		if decodeHalf(halves.Old, &c.Old) && decodeHalf(halves.New, &c.New) {
			return c
		}
	case EntityMeeting:
		c := &MeetingChange{payload: p}
		if decodeHalf(halves.Old, &c.Old) && decodeHalf(halves.New, &c.New) {
			return c
		}
	case EntityWorkshop:
		c := &WorkshopChange{payload: p}
		if decodeHalf(halves.Old, &c.Old) && decodeHalf(halves.New, &c.New) {
			return c
		}
	case EntityLink:
		c := &LinkChange{payload: p}
		if decodeHalf(halves.Old, &c.Old) && decodeHalf(halves.New, &c.New) {
			return c
		}
	}
	return &GenericChange{payload: p, Type: entity}
}

// decodeHalf decodes one half into *dst. An absent or non-object half leaves
// *dst nil and succeeds; a type mismatch inside the object fails.
func decodeHalf[T any](raw json.RawMessage, dst **T) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		*dst = nil
		return true
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return false
	}
	*dst = v
	return true
}

func objectOf(raw json.RawMessage) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
