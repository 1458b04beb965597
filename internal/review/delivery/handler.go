package delivery

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"inboxpilot-backend/internal/classification/domain"
	"inboxpilot-backend/internal/classification/repository"
	"inboxpilot-backend/internal/classification/usecase"
	"inboxpilot-backend/internal/review"
	"inboxpilot-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

// usecaseGateway adapts ClassificationUsecase to the review.Gateway surface,
// binding the reviewer's identity for correction attribution
type usecaseGateway struct {
	classificationUsecase usecase.ClassificationUsecase
	userEmail             string
}

func (g *usecaseGateway) ListClassifications(ctx context.Context, query review.ListQuery) ([]*domain.Classification, int64, error) {
	return g.classificationUsecase.List(repository.ListParams{
		Page:     query.Page,
		PageSize: query.PageSize,
		Filters:  query.Filters,
		SortBy:   query.SortBy,
		SortDir:  query.SortDir,
	})
}

func (g *usecaseGateway) GetClassification(ctx context.Context, id int64) (*domain.Classification, error) {
	return g.classificationUsecase.GetByID(id)
}

func (g *usecaseGateway) UpdateClassification(ctx context.Context, id int64, expectedVersion int, updates domain.FieldUpdates, source string) (*domain.Classification, error) {
	return g.classificationUsecase.Correct(id, expectedVersion, updates, g.userEmail, "", source)
}

// reviewSession pairs a reviewer's store with its initial-fill state so
// concurrent first requests wait for the snapshot instead of reading an
// empty store
type reviewSession struct {
	store *review.Store
	mu    sync.Mutex
	ready bool
}

// ReviewHandler keeps one review store per authenticated reviewer and
// exposes the session surface over it
type ReviewHandler struct {
	mu                    sync.Mutex
	sessions              map[string]*reviewSession
	classificationUsecase usecase.ClassificationUsecase
	config                *config.Config
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(classificationUsecase usecase.ClassificationUsecase, cfg *config.Config) *ReviewHandler {
	return &ReviewHandler{
		sessions:              make(map[string]*reviewSession),
		classificationUsecase: classificationUsecase,
		config:                cfg,
	}
}

// storeFor returns the reviewer's store, creating and filling it on first
// use. A failed initial fill is retried by the next request.
func (h *ReviewHandler) storeFor(c *gin.Context) (*review.Store, error) {
	userID := c.GetString("userID")
	userEmail := c.GetString("userEmail")

	h.mu.Lock()
	sess, ok := h.sessions[userID]
	if !ok {
		gateway := &usecaseGateway{classificationUsecase: h.classificationUsecase, userEmail: userEmail}
		sess = &reviewSession{store: review.NewStore(gateway, review.Options{
			UndoWindow:    h.config.UndoWindow,
			DebounceDelay: h.config.FilterDebounce,
			PageSize:      h.config.DefaultPageSize,
			SnapshotLimit: h.config.SnapshotLimit,
		})}
		h.sessions[userID] = sess
	}
	h.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.ready {
		if err := sess.store.Refresh(c.Request.Context()); err != nil {
			return sess.store, err
		}
		sess.ready = true
	}
	return sess.store, nil
}

// CloseFor tears down one reviewer's store (used at logout)
func (h *ReviewHandler) CloseFor(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sess, ok := h.sessions[userID]; ok {
		sess.store.Close()
		delete(h.sessions, userID)
	}
}

// respondReviewError maps review and domain errors onto HTTP statuses
func respondReviewError(c *gin.Context, err error) {
	var undoFailed *review.UndoFailedError
	if errors.As(err, &undoFailed) {
		c.JSON(http.StatusConflict, gin.H{"error": undoFailed.Error(), "undo_failed": true})
		return
	}
	var conflict *domain.VersionConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":       "version conflict",
			"current":     conflict.Current,
			"resolutions": []string{review.ResolveForceOverwrite, review.ResolveAcceptServerVersion},
		})
		return
	}
	switch {
	case errors.Is(err, review.ErrNothingToUndo):
		c.JSON(http.StatusGone, gin.H{"error": "nothing to undo"})
	case errors.Is(err, review.ErrEditPending),
		errors.Is(err, review.ErrConflictPending),
		errors.Is(err, review.ErrSaveInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, review.ErrNoEditSession), errors.Is(err, review.ErrNoConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "classification not found"})
	default:
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
}

// GetPage returns the derived page for the reviewer's current view state
// GET /api/review/page?refresh=true
func (h *ReviewHandler) GetPage(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	if c.Query("refresh") == "true" {
		if err := store.Refresh(c.Request.Context()); err != nil {
			respondReviewError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"page":    store.VisiblePage(),
		"filters": store.Filters(),
		"sort":    store.Sort(),
	})
}

// GetSession returns the active edit session and any pending undo
// GET /api/review/session
func (h *ReviewHandler) GetSession(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":      store.Session(),
		"pending_undo": store.PendingUndo(),
	})
}

// SetFiltersRequest carries a filter/search change
type SetFiltersRequest struct {
	Filters  map[string]string `json:"filters"`
	Search   *string           `json:"search"`
	Debounce bool              `json:"debounce"`
}

// SetFilters replaces the filter state, optionally debounced
// PUT /api/review/filters
func (h *ReviewHandler) SetFilters(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	var req SetFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Filters != nil {
		if req.Debounce {
			for column, value := range req.Filters {
				store.SetFilterDebounced(column, value)
			}
		} else {
			store.SetFilters(req.Filters)
		}
	}
	if req.Search != nil {
		if req.Debounce {
			store.SetSearchDebounced(*req.Search)
		} else {
			store.SetSearch(*req.Search)
		}
	}

	c.JSON(http.StatusOK, gin.H{"filters": store.Filters()})
}

// ToggleSort flips or adopts the sort column
// POST /api/review/sort
func (h *ReviewHandler) ToggleSort(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	var req struct {
		Column string `json:"column" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store.ToggleSort(req.Column)
	c.JSON(http.StatusOK, gin.H{"sort": store.Sort()})
}

// SetPage moves the page window
// PUT /api/review/page
func (h *ReviewHandler) SetPage(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	var req struct {
		Page int `json:"page" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store.SetPage(req.Page)
	c.JSON(http.StatusOK, gin.H{"page": store.VisiblePage()})
}

// SetPageSize changes the window size
// PUT /api/review/page-size
func (h *ReviewHandler) SetPageSize(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	var req struct {
		PageSize int `json:"page_size" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	store.SetPageSize(req.PageSize)
	c.JSON(http.StatusOK, gin.H{"page": store.VisiblePage()})
}

// StartEdit opens an edit session on one row
// POST /api/review/edit
func (h *ReviewHandler) StartEdit(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	var req struct {
		ID int64 `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := store.StartEdit(req.ID)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session})
}

// CancelEdit leaves the edit session without writing
// DELETE /api/review/edit
func (h *ReviewHandler) CancelEdit(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	if err := store.CancelEdit(); err != nil {
		respondReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "edit cancelled"})
}

// ApplyFieldEdit saves a single field change as its own versioned write
// PATCH /api/review/edit/field
func (h *ReviewHandler) ApplyFieldEdit(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := store.ApplyFieldEdit(c.Request.Context(), req.Field, req.Value); err != nil {
		respondReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":      store.Session(),
		"pending_undo": store.PendingUndo(),
	})
}

// ResolveConflict applies the reviewer's explicit conflict choice
// POST /api/review/edit/resolve
func (h *ReviewHandler) ResolveConflict(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	var req struct {
		Resolution string `json:"resolution" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := store.ResolveConflict(c.Request.Context(), req.Resolution); err != nil {
		respondReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": store.Session()})
}

// Undo consumes the live undo entry and reverses its change
// POST /api/review/undo
func (h *ReviewHandler) Undo(c *gin.Context) {
	store, err := h.storeFor(c)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	entry, err := store.Undo(c.Request.Context())
	if err != nil {
		respondReviewError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"undone": entry})
}
