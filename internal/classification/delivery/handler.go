package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"inboxpilot-backend/internal/classification/domain"
	classdto "inboxpilot-backend/internal/classification/dto"
	"inboxpilot-backend/internal/classification/repository"
	"inboxpilot-backend/internal/classification/usecase"

	"github.com/gin-gonic/gin"
)

// ClassificationHandler handles the stateless classification API
type ClassificationHandler struct {
	classificationUsecase usecase.ClassificationUsecase
	defaultPageSize       int
}

// NewClassificationHandler creates a new ClassificationHandler
func NewClassificationHandler(classificationUsecase usecase.ClassificationUsecase, defaultPageSize int) *ClassificationHandler {
	return &ClassificationHandler{
		classificationUsecase: classificationUsecase,
		defaultPageSize:       defaultPageSize,
	}
}

// respondError maps the domain error taxonomy onto HTTP statuses
func respondError(c *gin.Context, err error) {
	var conflict *domain.VersionConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"current": conflict.Current,
		})
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "classification not found"})
		return
	}
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
		return
	}
	var remote *domain.RemoteQueryError
	if errors.As(err, &remote) {
		c.JSON(http.StatusBadGateway, gin.H{"error": remote.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// GetClassifications returns one page of classifications
// GET /api/classifications?page=1&page_size=25&sort_by=classified_at&sort_dir=desc&filter[subject]=invoice
func (h *ClassificationHandler) GetClassifications(c *gin.Context) {
	page := 1
	if parsed, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && parsed > 0 {
		page = parsed
	}
	pageSize := h.defaultPageSize
	if parsed, err := strconv.Atoi(c.DefaultQuery("page_size", "0")); err == nil && parsed > 0 && parsed <= 200 {
		pageSize = parsed
	}

	rows, total, err := h.classificationUsecase.List(repository.ListParams{
		Page:     page,
		PageSize: pageSize,
		Filters:  c.QueryMap("filter"),
		SortBy:   c.Query("sort_by"),
		SortDir:  c.Query("sort_dir"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, classdto.ListResponse{
		Data:       rows,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	})
}

// GetClassificationByID returns a single classification with its email
// GET /api/classifications/:id
func (h *ClassificationHandler) GetClassificationByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid classification id"})
		return
	}

	record, err := h.classificationUsecase.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// CorrectClassification applies a versioned label update
// PATCH /api/classifications/:id
func (h *ClassificationHandler) CorrectClassification(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid classification id"})
		return
	}

	var req classdto.CorrectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.classificationUsecase.Correct(id, req.ExpectedVersion,
		domain.FieldUpdates(req.Updates), c.GetString("userEmail"), req.Reason, domain.CorrectionSourceManual)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GetCorrections returns the audit trail for one classification
// GET /api/classifications/:id/corrections
func (h *ClassificationHandler) GetCorrections(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid classification id"})
		return
	}

	corrections, err := h.classificationUsecase.CorrectionsFor(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"corrections": corrections})
}

// GetStats returns the analytics aggregates
// GET /api/analytics/stats
func (h *ClassificationHandler) GetStats(c *gin.Context) {
	stats, err := h.classificationUsecase.Stats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
