package delivery

import (
	"net/http"
	"time"

	"inboxpilot-backend/internal/preference/repository"

	"github.com/gin-gonic/gin"
)

// PreferenceHandler handles persisted UI preference requests
type PreferenceHandler struct {
	preferenceRepo repository.PreferenceRepository
}

// NewPreferenceHandler creates a new PreferenceHandler
func NewPreferenceHandler(preferenceRepo repository.PreferenceRepository) *PreferenceHandler {
	return &PreferenceHandler{
		preferenceRepo: preferenceRepo,
	}
}

// GetPreferences returns the user's preferences merged over the defaults
// GET /api/preferences
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	userID := c.GetString("userID")

	preferences, err := h.preferenceRepo.GetAll(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": preferences})
}

// SetPreferenceRequest carries one preference write
type SetPreferenceRequest struct {
	Value      string `json:"value" binding:"required"`
	TTLSeconds *int64 `json:"ttl_seconds"`
}

// SetPreference stores one preference, optionally with an expiration
// PUT /api/preferences/:key
func (h *PreferenceHandler) SetPreference(c *gin.Context) {
	userID := c.GetString("userID")
	key := c.Param("key")

	var req SetPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ttl *time.Duration
	if req.TTLSeconds != nil {
		if *req.TTLSeconds <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ttl_seconds must be positive"})
			return
		}
		d := time.Duration(*req.TTLSeconds) * time.Second
		ttl = &d
	}

	if err := h.preferenceRepo.Set(userID, key, req.Value, ttl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

// DeletePreference removes one preference so the default applies again
// DELETE /api/preferences/:key
func (h *PreferenceHandler) DeletePreference(c *gin.Context) {
	userID := c.GetString("userID")
	key := c.Param("key")

	if err := h.preferenceRepo.Delete(userID, key); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "preference deleted"})
}
