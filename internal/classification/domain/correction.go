package domain

import "time"

// Correction sources
const (
	CorrectionSourceManual = "manual"
	CorrectionSourceUndo   = "undo"
)

// Correction is one audit row per label field changed by an accepted write.
// Rows are append-only; analytics aggregates over them.
type Correction struct {
	ID               int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	ClassificationID int64     `json:"classification_id" gorm:"index;not null"`
	Field            string    `json:"field" gorm:"not null"`
	OldValue         string    `json:"old_value"`
	NewValue         string    `json:"new_value"`
	CorrectedBy      string    `json:"corrected_by"`
	Reason           string    `json:"reason,omitempty"`
	Source           string    `json:"source" gorm:"default:manual"` // manual / undo
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Correction) TableName() string {
	return "corrections"
}

// Stats is the aggregate view for the analytics endpoint
type Stats struct {
	Total             int64            `json:"total"`
	Corrected         int64            `json:"corrected"`
	CorrectionEvents  int64            `json:"correction_events"`
	AvgConfidence     float64          `json:"avg_confidence"`
	ConfidenceBelow50 int64            `json:"confidence_below_50"`
	Confidence50To70  int64            `json:"confidence_50_to_70"`
	Confidence70To90  int64            `json:"confidence_70_to_90"`
	Confidence90Plus  int64            `json:"confidence_90_plus"`
	ByCategory        map[string]int64 `json:"by_category"`
	ByUrgency         map[string]int64 `json:"by_urgency"`
	ByAction          map[string]int64 `json:"by_action"`
}
