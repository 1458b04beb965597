package repository

import (
	"errors"
	"time"

	prefdomain "inboxpilot-backend/internal/preference/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PreferenceRepository defines the interface for persisted UI preferences
type PreferenceRepository interface {
	// Get returns the stored value, or the documented default when the key
	// is absent or expired. The second return reports whether the value
	// came from storage.
	Get(userID, key string) (string, bool, error)
	// GetAll returns the user's stored values merged over the defaults
	GetAll(userID string) (map[string]string, error)
	// Set stores a value; a nil ttl means the key never expires
	Set(userID, key, value string, ttl *time.Duration) error
	// Delete removes a stored value so the default applies again
	Delete(userID, key string) error
	// PurgeExpired removes expired rows; called opportunistically at startup
	PurgeExpired() (int64, error)
}

// preferenceRepository implements PreferenceRepository
type preferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository creates a new instance of preferenceRepository
func NewPreferenceRepository(db *gorm.DB) PreferenceRepository {
	return &preferenceRepository{
		db: db,
	}
}

func (r *preferenceRepository) Get(userID, key string) (string, bool, error) {
	var pref prefdomain.Preference
	err := r.db.Where("user_id = ? AND key = ?", userID, key).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return prefdomain.Defaults[key], false, nil
		}
		return "", false, err
	}

	if pref.ExpiresAt != nil && !time.Now().Before(*pref.ExpiresAt) {
		return prefdomain.Defaults[key], false, nil
	}
	return pref.Value, true, nil
}

func (r *preferenceRepository) GetAll(userID string) (map[string]string, error) {
	var prefs []prefdomain.Preference
	err := r.db.Where("user_id = ?", userID).Find(&prefs).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(prefdomain.Defaults)+len(prefs))
	for key, value := range prefdomain.Defaults {
		result[key] = value
	}
	now := time.Now()
	for _, pref := range prefs {
		if pref.ExpiresAt != nil && !now.Before(*pref.ExpiresAt) {
			continue
		}
		result[pref.Key] = pref.Value
	}
	return result, nil
}

func (r *preferenceRepository) Set(userID, key, value string, ttl *time.Duration) error {
	now := time.Now()
	var expiresAt *time.Time
	if ttl != nil {
		t := now.Add(*ttl)
		expiresAt = &t
	}

	var existing prefdomain.Preference
	err := r.db.Where("user_id = ? AND key = ?", userID, key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		pref := prefdomain.Preference{
			ID:        uuid.New().String(),
			UserID:    userID,
			Key:       key,
			Value:     value,
			ExpiresAt: expiresAt,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return r.db.Create(&pref).Error
	} else if err != nil {
		return err
	}

	existing.Value = value
	existing.ExpiresAt = expiresAt
	existing.UpdatedAt = now
	return r.db.Save(&existing).Error
}

func (r *preferenceRepository) Delete(userID, key string) error {
	return r.db.Where("user_id = ? AND key = ?", userID, key).Delete(&prefdomain.Preference{}).Error
}

func (r *preferenceRepository) PurgeExpired() (int64, error) {
	result := r.db.Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).Delete(&prefdomain.Preference{})
	return result.RowsAffected, result.Error
}
