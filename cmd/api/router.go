package api

import (
	"net/http"

	"inboxpilot-backend/internal/auth/delivery"
	authUsecase "inboxpilot-backend/internal/auth/usecase"
	classDelivery "inboxpilot-backend/internal/classification/delivery"
	ingestDelivery "inboxpilot-backend/internal/ingest/delivery"
	prefDelivery "inboxpilot-backend/internal/preference/delivery"
	reviewDelivery "inboxpilot-backend/internal/review/delivery"
	"inboxpilot-backend/pkg/sse"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, sseManager *sse.Manager, classificationHandler *classDelivery.ClassificationHandler, reviewHandler *reviewDelivery.ReviewHandler, preferenceHandler *prefDelivery.PreferenceHandler, ingestHandler *ingestDelivery.IngestHandler) {
	authHandler := delivery.NewAuthHandler(authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// SSE endpoint
		api.GET("/events", delivery.AuthMiddleware(authUsecase), func(c *gin.Context) {
			userID := c.GetString("userID")
			sseManager.ServeHTTP(c, userID)
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", delivery.AuthMiddleware(authUsecase), authHandler.Me)
			auth.POST("/logout", delivery.AuthMiddleware(authUsecase), func(c *gin.Context) {
				// Tear down the reviewer's in-memory view state with the session
				reviewHandler.CloseFor(c.GetString("userID"))
				c.Next()
			}, authHandler.Logout)
		}

		// Classification routes (protected)
		classifications := api.Group("/classifications")
		classifications.Use(delivery.AuthMiddleware(authUsecase))
		{
			classifications.GET("", classificationHandler.GetClassifications)
			classifications.GET("/:id", classificationHandler.GetClassificationByID)
			classifications.PATCH("/:id", classificationHandler.CorrectClassification)
			classifications.GET("/:id/corrections", classificationHandler.GetCorrections)
		}

		// Analytics routes (protected)
		analytics := api.Group("/analytics")
		analytics.Use(delivery.AuthMiddleware(authUsecase))
		{
			analytics.GET("/stats", classificationHandler.GetStats)
		}

		// Review session routes (protected) - stateful per-reviewer view
		review := api.Group("/review")
		review.Use(delivery.AuthMiddleware(authUsecase))
		{
			review.GET("/page", reviewHandler.GetPage)
			review.PUT("/page", reviewHandler.SetPage)
			review.PUT("/page-size", reviewHandler.SetPageSize)
			review.GET("/session", reviewHandler.GetSession)
			review.PUT("/filters", reviewHandler.SetFilters)
			review.POST("/sort", reviewHandler.ToggleSort)
			review.POST("/edit", reviewHandler.StartEdit)
			review.DELETE("/edit", reviewHandler.CancelEdit)
			review.PATCH("/edit/field", reviewHandler.ApplyFieldEdit)
			review.POST("/edit/resolve", reviewHandler.ResolveConflict)
			review.POST("/undo", reviewHandler.Undo)
		}

		// Preference routes (protected)
		preferences := api.Group("/preferences")
		preferences.Use(delivery.AuthMiddleware(authUsecase))
		{
			preferences.GET("", preferenceHandler.GetPreferences)
			preferences.PUT("/:key", preferenceHandler.SetPreference)
			preferences.DELETE("/:key", preferenceHandler.DeletePreference)
		}

		// Ingest route (token-authenticated, used by the classification pipeline)
		api.POST("/ingest/classification", ingestHandler.IngestClassification)
	}
}
