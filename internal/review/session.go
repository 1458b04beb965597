package review

import (
	"context"
	"errors"
	"fmt"

	"inboxpilot-backend/internal/classification/domain"
)

// SaveStatus is the edit session's state machine position:
// idle -> editing -> saving -> {saved | conflict | error}
type SaveStatus string

const (
	StatusEditing  SaveStatus = "editing"
	StatusSaving   SaveStatus = "saving"
	StatusSaved    SaveStatus = "saved"
	StatusConflict SaveStatus = "conflict"
	StatusError    SaveStatus = "error"
)

// Conflict resolutions
const (
	ResolveForceOverwrite      = "force_overwrite"
	ResolveAcceptServerVersion = "accept_server"
)

var (
	// ErrNoEditSession means an edit operation was called with no row open
	ErrNoEditSession = errors.New("no edit session is active")
	// ErrEditPending blocks a new edit while another row's edit or save is
	// unresolved (conservative policy: one unresolved session at a time)
	ErrEditPending = errors.New("another edit is still unresolved")
	// ErrSaveInFlight blocks operations while a save is still running
	ErrSaveInFlight = errors.New("a save is still in flight")
	// ErrNoConflict means resolve was called outside the conflict state
	ErrNoConflict = errors.New("no conflict to resolve")
	// ErrConflictPending blocks other operations until the reviewer picks a
	// resolution; conflicts are never resolved silently
	ErrConflictPending = errors.New("resolve the open conflict first")
	// ErrStoreClosed means the store was torn down
	ErrStoreClosed = errors.New("review store is closed")
)

// UndoFailedError distinguishes a failed reversal from an ordinary save
// failure; the reviewer must know the undo did not happen.
type UndoFailedError struct {
	Err error
}

func (e *UndoFailedError) Error() string {
	return fmt.Sprintf("undo failed: %v", e.Err)
}

func (e *UndoFailedError) Unwrap() error {
	return e.Err
}

// ListQuery parameterizes a gateway page read
type ListQuery struct {
	Page     int
	PageSize int
	Filters  map[string]string
	SortBy   string
	SortDir  string
}

// Gateway is the remote store surface the review core depends on. Calls
// are fresh round trips; failures surface as the domain error taxonomy
// (*domain.RemoteQueryError, *domain.VersionConflictError, domain.ErrNotFound).
type Gateway interface {
	ListClassifications(ctx context.Context, query ListQuery) ([]*domain.Classification, int64, error)
	GetClassification(ctx context.Context, id int64) (*domain.Classification, error)
	UpdateClassification(ctx context.Context, id int64, expectedVersion int, updates domain.FieldUpdates, source string) (*domain.Classification, error)
}

// EditSession tracks the single row currently being edited. Original holds
// the label values captured when the edit started; Working tracks values as
// per-field saves succeed. BaseVersion is the expected version for the next
// conditional write.
type EditSession struct {
	RecordID    int64             `json:"record_id"`
	BaseVersion int               `json:"base_version"`
	Original    map[string]string `json:"original"`
	Working     map[string]string `json:"working"`
	Status      SaveStatus        `json:"status"`
	Error       string            `json:"error,omitempty"`
	// Conflict is the server's current record while Status == conflict
	Conflict *domain.Classification `json:"conflict,omitempty"`

	// the field change being saved or awaiting conflict resolution
	pendingField string
	pendingValue string
}

func newEditSession(row *domain.Classification) *EditSession {
	original := make(map[string]string, len(domain.EditableFields))
	working := make(map[string]string, len(domain.EditableFields))
	for _, field := range domain.EditableFields {
		original[field] = row.FieldValue(field)
		working[field] = row.FieldValue(field)
	}
	return &EditSession{
		RecordID:    row.ID,
		BaseVersion: row.Version,
		Original:    original,
		Working:     working,
		Status:      StatusEditing,
	}
}

// unresolved reports whether the session still holds state that must not be
// silently discarded (in-flight save, open conflict, or a failed save the
// reviewer has not acknowledged)
func (s *EditSession) unresolved() bool {
	switch s.Status {
	case StatusSaving, StatusConflict, StatusError:
		return true
	}
	return false
}
