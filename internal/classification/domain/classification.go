package domain

import "time"

// Category is the AI-assigned email category
type Category string

const (
	CategoryWork       Category = "WORK"
	CategoryFinancial  Category = "FINANCIAL"
	CategoryKids       Category = "KIDS"
	CategoryPersonal   Category = "PERSONAL"
	CategoryPromotions Category = "PROMOTIONS"
	CategoryOther      Category = "OTHER"
)

// Urgency is how quickly the email needs attention
type Urgency string

const (
	UrgencyHigh   Urgency = "HIGH"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyLow    Urgency = "LOW"
)

// Action is the suggested next step for the email
type Action string

const (
	ActionReply    Action = "REPLY"
	ActionReview   Action = "REVIEW"
	ActionPay      Action = "PAY"
	ActionSchedule Action = "SCHEDULE"
	ActionArchive  Action = "ARCHIVE"
	ActionNone     Action = "NONE"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryFinancial, CategoryKids, CategoryPersonal, CategoryPromotions, CategoryOther:
		return true
	}
	return false
}

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return true
	}
	return false
}

func (a Action) Valid() bool {
	switch a {
	case ActionReply, ActionReview, ActionPay, ActionSchedule, ActionArchive, ActionNone:
		return true
	}
	return false
}

// Email is the message a classification refers to. Read-only from the
// review core's perspective; rows are created by the ingest webhook.
type Email struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Subject    string    `json:"subject"`
	Sender     string    `json:"sender" gorm:"index"`
	Body       string    `json:"body" gorm:"type:text"`
	ReceivedAt time.Time `json:"received_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Email) TableName() string {
	return "emails"
}

// Classification is one email's AI-assigned and optionally human-corrected
// labels. Version is the optimistic-concurrency token: the store increments
// it on every accepted write, and a stale client-held version means the row
// changed underneath the client.
type Classification struct {
	ID               int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	EmailID          int64      `json:"email_id" gorm:"uniqueIndex;not null"`
	Email            *Email     `json:"email,omitempty" gorm:"foreignKey:EmailID"`
	Category         Category   `json:"category" gorm:"not null"`
	Urgency          Urgency    `json:"urgency" gorm:"not null"`
	Action           Action     `json:"action" gorm:"not null"`
	Confidence       int        `json:"confidence"` // 0..100
	Version          int        `json:"version" gorm:"not null;default:1"`
	ClassifiedAt     time.Time  `json:"classified_at"`
	CorrectedAt      *time.Time `json:"corrected_at,omitempty"`
	CorrectedBy      string     `json:"corrected_by,omitempty"`
	CorrectionReason string     `json:"correction_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Classification) TableName() string {
	return "classifications"
}

// FieldValue returns the current value of an editable label field
func (c *Classification) FieldValue(field string) string {
	switch field {
	case FieldCategory:
		return string(c.Category)
	case FieldUrgency:
		return string(c.Urgency)
	case FieldAction:
		return string(c.Action)
	}
	return ""
}

// Editable label fields
const (
	FieldCategory = "category"
	FieldUrgency  = "urgency"
	FieldAction   = "action"
)

// EditableFields lists the label fields a reviewer may correct
var EditableFields = []string{FieldCategory, FieldUrgency, FieldAction}

// ValidateFieldValue reports whether value is a member of the field's closed
// enumeration
func ValidateFieldValue(field, value string) bool {
	switch field {
	case FieldCategory:
		return Category(value).Valid()
	case FieldUrgency:
		return Urgency(value).Valid()
	case FieldAction:
		return Action(value).Valid()
	}
	return false
}

// FieldUpdates maps editable field names to their new values
type FieldUpdates map[string]string

// Validate checks that every update targets an editable field with a value
// from that field's enumeration
func (f FieldUpdates) Validate() error {
	if len(f) == 0 {
		return ErrNoUpdates
	}
	for field, value := range f {
		if !ValidateFieldValue(field, value) {
			return &ValidationError{Field: field, Value: value}
		}
	}
	return nil
}
