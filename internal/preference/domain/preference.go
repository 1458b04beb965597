package domain

import "time"

// Preference is one persisted UI setting for a user. Keys are namespaced
// ("ui.page_size", "ui.theme", ...) and may carry an independent expiration.
type Preference struct {
	ID        string     `json:"id" gorm:"primaryKey"`
	UserID    string     `json:"user_id" gorm:"index:idx_user_key;uniqueIndex:idx_user_key_unique;not null"`
	Key       string     `json:"key" gorm:"index:idx_user_key;uniqueIndex:idx_user_key_unique;not null"`
	Value     string     `json:"value" gorm:"type:text"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Preference) TableName() string {
	return "preferences"
}

// Defaults are the documented fallbacks when a key is absent or expired
var Defaults = map[string]string{
	"ui.page_size":     "25",
	"ui.theme":         "light",
	"ui.column_widths": "{}",
	"ui.sort_column":   "classified_at",
	"ui.sort_dir":      "desc",
}
