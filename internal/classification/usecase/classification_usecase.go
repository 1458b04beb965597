package usecase

import (
	"errors"
	"fmt"

	"inboxpilot-backend/internal/classification/domain"
	"inboxpilot-backend/internal/classification/repository"
	"inboxpilot-backend/pkg/sse"
)

// classificationUsecase implements ClassificationUsecase
type classificationUsecase struct {
	repo       repository.ClassificationRepository
	sseManager *sse.Manager
}

// NewClassificationUsecase creates a new instance of classificationUsecase
func NewClassificationUsecase(repo repository.ClassificationRepository, sseManager *sse.Manager) ClassificationUsecase {
	return &classificationUsecase{
		repo:       repo,
		sseManager: sseManager,
	}
}

func (u *classificationUsecase) List(params repository.ListParams) ([]*domain.Classification, int64, error) {
	return u.repo.List(params)
}

func (u *classificationUsecase) GetByID(id int64) (*domain.Classification, error) {
	return u.repo.GetByID(id)
}

func (u *classificationUsecase) Correct(id int64, expectedVersion int, updates domain.FieldUpdates, correctedBy, reason, source string) (*domain.Classification, error) {
	if err := updates.Validate(); err != nil {
		return nil, err
	}
	if source != domain.CorrectionSourceManual && source != domain.CorrectionSourceUndo {
		source = domain.CorrectionSourceManual
	}

	updated, err := u.repo.UpdateVersioned(id, expectedVersion, updates, correctedBy, reason, source)
	if err != nil {
		return nil, err
	}

	if u.sseManager != nil {
		eventType := "classification.corrected"
		if source == domain.CorrectionSourceUndo {
			eventType = "classification.undone"
		}
		u.sseManager.Publish("", sse.Event{Type: eventType, Payload: updated})
	}
	return updated, nil
}

func (u *classificationUsecase) Ingest(email *domain.Email, classification *domain.Classification) (*domain.Classification, error) {
	if !classification.Category.Valid() {
		return nil, &domain.ValidationError{Field: domain.FieldCategory, Value: string(classification.Category)}
	}
	if !classification.Urgency.Valid() {
		return nil, &domain.ValidationError{Field: domain.FieldUrgency, Value: string(classification.Urgency)}
	}
	if !classification.Action.Valid() {
		return nil, &domain.ValidationError{Field: domain.FieldAction, Value: string(classification.Action)}
	}
	if classification.Confidence < 0 || classification.Confidence > 100 {
		return nil, fmt.Errorf("confidence %d is outside 0..100", classification.Confidence)
	}
	if email.Subject == "" && email.Sender == "" {
		return nil, errors.New("email has no subject or sender")
	}

	if err := u.repo.CreateWithEmail(email, classification); err != nil {
		return nil, err
	}

	if u.sseManager != nil {
		u.sseManager.Publish("", sse.Event{Type: "classification.created", Payload: classification})
	}
	return classification, nil
}

func (u *classificationUsecase) CorrectionsFor(id int64) ([]*domain.Correction, error) {
	// verify the row exists so a bad id is a 404, not an empty list
	if _, err := u.repo.GetByID(id); err != nil {
		return nil, err
	}
	return u.repo.CorrectionsFor(id)
}

func (u *classificationUsecase) Stats() (*domain.Stats, error) {
	return u.repo.Stats()
}
