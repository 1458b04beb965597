package usecase

import (
	"inboxpilot-backend/internal/classification/domain"
	"inboxpilot-backend/internal/classification/repository"
)

// ClassificationUsecase defines the business operations over stored
// classifications
type ClassificationUsecase interface {
	// List returns one page of classifications joined to their emails
	List(params repository.ListParams) ([]*domain.Classification, int64, error)
	// GetByID returns a single classification
	GetByID(id int64) (*domain.Classification, error)
	// Correct applies a reviewer's versioned label change. Source is
	// "manual" for direct corrections or "undo" for reversals.
	Correct(id int64, expectedVersion int, updates domain.FieldUpdates, correctedBy, reason, source string) (*domain.Classification, error)
	// Ingest persists an email and its workflow-produced classification at
	// version 1
	Ingest(email *domain.Email, classification *domain.Classification) (*domain.Classification, error)
	// CorrectionsFor lists the audit trail for one classification
	CorrectionsFor(id int64) ([]*domain.Correction, error)
	// Stats aggregates the analytics view
	Stats() (*domain.Stats, error)
}
