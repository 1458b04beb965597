package repository

import (
	"inboxpilot-backend/internal/classification/domain"
)

// ListParams describes a paged/filtered/sorted read over the
// classifications relation joined to emails.
type ListParams struct {
	Page     int
	PageSize int
	// Filters maps column key (subject, sender, category, urgency, action)
	// to a case-insensitive substring predicate. Empty values are ignored.
	Filters map[string]string
	SortBy  string // whitelisted column key, defaults to classified_at
	SortDir string // "asc" or "desc", defaults to "desc"
}

// ClassificationRepository is the typed gateway to the classification store.
// Every call is a fresh round trip; there is no client-side caching and no
// internal retry. Staleness is surfaced through the version check instead.
type ClassificationRepository interface {
	// List returns one page of classifications with their emails preloaded,
	// plus the total matching count.
	List(params ListParams) ([]*domain.Classification, int64, error)

	// GetByID returns a single classification with its email preloaded.
	// Returns domain.ErrNotFound when the row does not exist.
	GetByID(id int64) (*domain.Classification, error)

	// UpdateVersioned performs the conditional write: it succeeds only if
	// the stored version equals expectedVersion, atomically incrementing
	// the version. A mismatch yields *domain.VersionConflictError carrying
	// the store's current record; a missing row yields domain.ErrNotFound.
	// One correction audit row is recorded per changed field.
	UpdateVersioned(id int64, expectedVersion int, updates domain.FieldUpdates, correctedBy, reason, source string) (*domain.Classification, error)

	// CreateWithEmail persists a new email and its initial classification
	// at version 1 (the ingest path).
	CreateWithEmail(email *domain.Email, classification *domain.Classification) error

	// CorrectionsFor lists the audit rows for one classification, newest first.
	CorrectionsFor(classificationID int64) ([]*domain.Correction, error)

	// Stats aggregates classification counts, correction counts and
	// confidence buckets for the analytics view.
	Stats() (*domain.Stats, error)
}
