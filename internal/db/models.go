package db

import (
	"encoding/json"
	"time"
)

// Member is a trustee, volunteer or staff account.
type Member struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	Phone         *string   `db:"phone" json:"phone"`
	Address       *string   `db:"address" json:"address"`
	TrusteeRole   *string   `db:"trustee_role" json:"trusteeRole"`
	AccountStatus string    `db:"account_status" json:"accountStatus"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	JoinedAt      time.Time `db:"joined_at" json:"joinedAt"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// GetID returns the row id.
func (m *Member) GetID() string { return m.ID }

// Account statuses.
const (
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
	AccountStatusPending  = "pending"
)

// Donation is money received by the trust.
type Donation struct {
	ID            string    `db:"id" json:"id"`
	Amount        float64   `db:"amount" json:"amount"`
	Purpose       string    `db:"purpose" json:"purpose"`
	DonorName     string    `db:"donor_name" json:"donorName"`
	Type          string    `db:"type" json:"type"`
	Date          time.Time `db:"date" json:"date"`
	Notes         *string   `db:"notes" json:"notes"`
	ReceiptNumber *string   `db:"receipt_number" json:"receiptNumber"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// GetID returns the row id.
func (d *Donation) GetID() string { return d.ID }

// Expense is money spent by the trust.
type Expense struct {
	ID          string    `db:"id" json:"id"`
	Amount      float64   `db:"amount" json:"amount"`
	Category    string    `db:"category" json:"category"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
	PaidTo      *string   `db:"paid_to" json:"paidTo"`
	PaymentMode *string   `db:"payment_mode" json:"paymentMode"`
	Notes       *string   `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// GetID returns the row id.
func (e *Expense) GetID() string { return e.ID }

// Activity is a program or event run by the trust.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
	Location    *string   `db:"location" json:"location"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// GetID returns the row id.
func (a *Activity) GetID() string { return a.ID }

// Meeting is a trustee meeting.
type Meeting struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Date      time.Time `db:"date" json:"date"`
	Location  *string   `db:"location" json:"location"`
	Agenda    *string   `db:"agenda" json:"agenda"`
	Minutes   *string   `db:"minutes" json:"minutes"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// GetID returns the row id.
func (m *Meeting) GetID() string { return m.ID }

// MeetingAttendee records who was invited to, or present at, a meeting.
type MeetingAttendee struct {
	ID        string  `db:"id" json:"id"`
	MeetingID string  `db:"meeting_id" json:"meetingId"`
	MemberID  *string `db:"member_id" json:"memberId"`
	Name      string  `db:"name" json:"name"`
	Present   bool    `db:"present" json:"present"`
}

// GetID returns the row id.
func (a *MeetingAttendee) GetID() string { return a.ID }

// MeetingDecision is a resolution taken at a meeting.
type MeetingDecision struct {
	ID          string     `db:"id" json:"id"`
	MeetingID   string     `db:"meeting_id" json:"meetingId"`
	Description string     `db:"description" json:"description"`
	Status      string     `db:"status" json:"status"`
	AssignedTo  *string    `db:"assigned_to" json:"assignedTo"`
	DueDate     *time.Time `db:"due_date" json:"dueDate"`
}

// GetID returns the row id.
func (d *MeetingDecision) GetID() string { return d.ID }

// MeetingAttachment is a document linked from a meeting.
type MeetingAttachment struct {
	ID        string `db:"id" json:"id"`
	MeetingID string `db:"meeting_id" json:"meetingId"`
	Name      string `db:"name" json:"name"`
	URL       string `db:"url" json:"url"`
}

// GetID returns the row id.
func (a *MeetingAttachment) GetID() string { return a.ID }

// WorkshopResource is an external trainer or resource person.
type WorkshopResource struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Specialization string    `db:"specialization" json:"specialization"`
	Organization   *string   `db:"organization" json:"organization"`
	Email          *string   `db:"email" json:"email"`
	Phone          *string   `db:"phone" json:"phone"`
	Notes          *string   `db:"notes" json:"notes"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// GetID returns the row id.
func (w *WorkshopResource) GetID() string { return w.ID }

// Link is a quick link shown on the dashboard.
type Link struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	URL         string    `db:"url" json:"url"`
	Category    *string   `db:"category" json:"category"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// GetID returns the row id.
func (l *Link) GetID() string { return l.ID }

// UpsertedLink is a Link plus whether the upsert inserted it.
type UpsertedLink struct {
	Link
	WasInserted bool `db:"inserted" json:"-"`
}

// Inserted reports whether the upsert created the row.
func (l *UpsertedLink) Inserted() bool { return l.WasInserted }

// Session is a login session.
type Session struct {
	Token     string    `db:"token" json:"-"`
	MemberID  string    `db:"member_id" json:"memberId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
}

// GetID returns the session token.
func (s *Session) GetID() string { return s.Token }

// AuditLog is one persisted audit entry.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   string          `db:"entity_id" json:"entityId"`
	Changes    json.RawMessage `db:"changes" json:"changes"`
	Summary    *string         `db:"summary" json:"summary"`
	GroupID    *string         `db:"group_id" json:"groupId"`
	ParentID   *string         `db:"parent_id" json:"parentId"`
	MemberID   string          `db:"member_id" json:"memberId"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// AuditLogView is an AuditLog joined with its actor. Actor fields are nil
// when the member no longer exists.
type AuditLogView struct {
	AuditLog
	MemberName  *string `db:"member_name" json:"memberName"`
	MemberEmail *string `db:"member_email" json:"memberEmail"`
}
