package api

import (
	authUsecase "inboxpilot-backend/internal/auth/usecase"
	classDelivery "inboxpilot-backend/internal/classification/delivery"
	classUsecasePkg "inboxpilot-backend/internal/classification/usecase"
	ingestDelivery "inboxpilot-backend/internal/ingest/delivery"
	prefDelivery "inboxpilot-backend/internal/preference/delivery"
	prefRepo "inboxpilot-backend/internal/preference/repository"
	reviewDelivery "inboxpilot-backend/internal/review/delivery"
	"inboxpilot-backend/pkg/config"
	"inboxpilot-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase           authUsecase.AuthUsecase
	classificationUsecase classUsecasePkg.ClassificationUsecase
	sseManager            *sse.Manager
	config                *config.Config
	classificationHandler *classDelivery.ClassificationHandler
	reviewHandler         *reviewDelivery.ReviewHandler
	preferenceHandler     *prefDelivery.PreferenceHandler
	ingestHandler         *ingestDelivery.IngestHandler
}

func NewHandler(authUc authUsecase.AuthUsecase, classificationUc classUsecasePkg.ClassificationUsecase, preferenceRepo prefRepo.PreferenceRepository, sseManager *sse.Manager, cfg *config.Config) *Handler {
	return &Handler{
		authUsecase:           authUc,
		classificationUsecase: classificationUc,
		sseManager:            sseManager,
		config:                cfg,
		classificationHandler: classDelivery.NewClassificationHandler(classificationUc, cfg.DefaultPageSize),
		reviewHandler:         reviewDelivery.NewReviewHandler(classificationUc, cfg),
		preferenceHandler:     prefDelivery.NewPreferenceHandler(preferenceRepo),
		ingestHandler:         ingestDelivery.NewIngestHandler(classificationUc, cfg.IngestToken),
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()
	gin.SetMode(gin.ReleaseMode)

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Ingest-Token")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Setup routes
	SetupRoutes(r, h.authUsecase, h.sseManager, h.classificationHandler, h.reviewHandler, h.preferenceHandler, h.ingestHandler)

	return r.Run(addr)
}
