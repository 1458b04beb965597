package delivery

import (
	"errors"
	"net/http"
	"time"

	"inboxpilot-backend/internal/classification/domain"
	"inboxpilot-backend/internal/classification/usecase"
	"inboxpilot-backend/pkg/mailparse"

	"github.com/gin-gonic/gin"
)

// IngestHandler accepts classified emails from the upstream pipeline
type IngestHandler struct {
	classificationUsecase usecase.ClassificationUsecase
	ingestToken           string
}

// NewIngestHandler creates a new IngestHandler
func NewIngestHandler(classificationUsecase usecase.ClassificationUsecase, ingestToken string) *IngestHandler {
	return &IngestHandler{
		classificationUsecase: classificationUsecase,
		ingestToken:           ingestToken,
	}
}

// IngestEmail is the structured form of an ingested message
type IngestEmail struct {
	Subject    string     `json:"subject"`
	Sender     string     `json:"sender"`
	Body       string     `json:"body"`
	ReceivedAt *time.Time `json:"received_at"`
}

// IngestRequest carries one classified email. Either the structured email
// or raw_mime must be present; raw_mime is parsed server side.
type IngestRequest struct {
	Email   *IngestEmail `json:"email"`
	RawMime string       `json:"raw_mime"`

	Category   string `json:"category" binding:"required"`
	Urgency    string `json:"urgency" binding:"required"`
	Action     string `json:"action" binding:"required"`
	Confidence int    `json:"confidence"`
}

// IngestClassification stores a classified email
// POST /api/ingest/classification
func (h *IngestHandler) IngestClassification(c *gin.Context) {
	if c.GetHeader("X-Ingest-Token") != h.ingestToken || h.ingestToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid ingest token"})
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := h.buildEmail(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	classification := &domain.Classification{
		Category:     domain.Category(req.Category),
		Urgency:      domain.Urgency(req.Urgency),
		Action:       domain.Action(req.Action),
		Confidence:   req.Confidence,
		ClassifiedAt: time.Now(),
	}

	created, err := h.classificationUsecase.Ingest(email, classification)
	if err != nil {
		var remote *domain.RemoteQueryError
		if errors.As(err, &remote) {
			c.JSON(http.StatusBadGateway, gin.H{"error": remote.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (h *IngestHandler) buildEmail(req *IngestRequest) (*domain.Email, error) {
	if req.Email != nil {
		receivedAt := time.Now()
		if req.Email.ReceivedAt != nil {
			receivedAt = *req.Email.ReceivedAt
		}
		return &domain.Email{
			Subject:    req.Email.Subject,
			Sender:     req.Email.Sender,
			Body:       req.Email.Body,
			ReceivedAt: receivedAt,
		}, nil
	}

	parsed, err := mailparse.Parse([]byte(req.RawMime))
	if err != nil {
		return nil, err
	}
	return &domain.Email{
		Subject:    parsed.Subject,
		Sender:     parsed.Sender,
		Body:       parsed.Body,
		ReceivedAt: parsed.ReceivedAt,
	}, nil
}
