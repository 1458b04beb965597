package main

import (
	"log"

	api "inboxpilot-backend/cmd/api"
	authdomain "inboxpilot-backend/internal/auth/domain"
	authRepo "inboxpilot-backend/internal/auth/repository"
	authUsecase "inboxpilot-backend/internal/auth/usecase"
	classdomain "inboxpilot-backend/internal/classification/domain"
	classRepo "inboxpilot-backend/internal/classification/repository"
	classUsecase "inboxpilot-backend/internal/classification/usecase"
	prefdomain "inboxpilot-backend/internal/preference/domain"
	prefRepo "inboxpilot-backend/internal/preference/repository"
	"inboxpilot-backend/pkg/config"
	"inboxpilot-backend/pkg/database"
	"inboxpilot-backend/pkg/sse"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&classdomain.Email{},
		&classdomain.Classification{},
		&classdomain.Correction{},
		&prefdomain.Preference{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	classificationRepo := classRepo.NewClassificationRepository(db)
	preferenceRepo := prefRepo.NewPreferenceRepository(db)

	// Opportunistic cleanup of expired preference rows
	if purged, err := preferenceRepo.PurgeExpired(); err != nil {
		log.Printf("[WARN] Failed to purge expired preferences: %v", err)
	} else if purged > 0 {
		log.Printf("[DEBUG] Purged %d expired preference rows", purged)
	}

	// Initialize SSE Manager
	sseManager := sse.NewManager()
	go sseManager.Run()

	// Initialize use cases (dependency injection)
	authUsecaseInstance := authUsecase.NewAuthUsecase(userRepo, cfg)
	classificationUsecaseInstance := classUsecase.NewClassificationUsecase(classificationRepo, sseManager)

	// Initialize HTTP handler
	handler := api.NewHandler(authUsecaseInstance, classificationUsecaseInstance, preferenceRepo, sseManager, cfg)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
