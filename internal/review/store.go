package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"inboxpilot-backend/internal/classification/domain"
)

// Options configures a Store
type Options struct {
	UndoWindow    time.Duration // default 30s
	DebounceDelay time.Duration // default 300ms
	PageSize      int           // default 25
	SnapshotLimit int           // default 500
}

func (o *Options) applyDefaults() {
	if o.UndoWindow <= 0 {
		o.UndoWindow = 30 * time.Second
	}
	if o.DebounceDelay <= 0 {
		o.DebounceDelay = 300 * time.Millisecond
	}
	if o.PageSize <= 0 {
		o.PageSize = 25
	}
	if o.SnapshotLimit <= 0 {
		o.SnapshotLimit = 500
	}
}

// Store aggregates the filter, sort/pagination and inline-edit/undo engines
// into one reviewer's view state. All mutation flows through its methods.
//
// The store holds a snapshot of rows fetched through the gateway; the pure
// engines derive the visible page from it. Edits mutate only the edit
// session's working copy until a save succeeds, at which point the snapshot
// row is patched in place.
type Store struct {
	mu sync.Mutex

	gateway Gateway
	undo    *Undoer
	deb     *debouncer

	rows          []*domain.Classification
	filters       FilterState
	search        string
	sort          SortState
	page          int
	pageSize      int
	snapshotLimit int

	session *EditSession
	closed  bool
}

func NewStore(gateway Gateway, opts Options) *Store {
	opts.applyDefaults()
	return &Store{
		gateway:       gateway,
		undo:          NewUndoer(opts.UndoWindow),
		deb:           &debouncer{delay: opts.DebounceDelay},
		filters:       make(FilterState),
		sort:          SortState{Column: "classified_at", Dir: SortDesc},
		page:          1,
		pageSize:      opts.PageSize,
		snapshotLimit: opts.SnapshotLimit,
	}
}

// Refresh replaces the snapshot with a fresh gateway read. A query failure
// clears the displayed rows; the caller surfaces a retryable error.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	query := ListQuery{
		Page:     1,
		PageSize: s.snapshotLimit,
		SortBy:   s.sort.Column,
		SortDir:  string(s.sort.Dir),
	}
	s.mu.Unlock()

	rows, _, err := s.gateway.ListClassifications(ctx, query)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if err != nil {
		s.rows = nil
		return err
	}
	s.rows = rows
	return nil
}

// VisiblePage derives the current page: filters, then global search, then
// stable sort, then the page window.
func (s *Store) VisiblePage() Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := ApplyFilters(s.rows, s.filters)
	rows = ApplyGlobalSearch(rows, s.search)
	rows = SortRows(rows, s.sort)
	return DerivePage(rows, s.page, s.pageSize)
}

// SetFilter updates one column predicate and resets to page 1: a page index
// is only meaningful relative to the active filter configuration.
func (s *Store) SetFilter(column, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.Set(column, value)
	s.page = 1
}

// SetFilters replaces the whole filter state and resets to page 1
func (s *Store) SetFilters(filters map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = make(FilterState, len(filters))
	for column, value := range filters {
		s.filters.Set(column, value)
	}
	s.page = 1
}

// SetSearch updates the global search query and resets to page 1
func (s *Store) SetSearch(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search = truncateFilter(strings.TrimSpace(query))
	s.page = 1
}

// SetFilterDebounced coalesces rapid filter keystrokes: only the latest
// pending value is applied when the debounce timer fires.
func (s *Store) SetFilterDebounced(column, value string) {
	s.deb.schedule(func() { s.SetFilter(column, value) })
}

// SetSearchDebounced coalesces rapid search keystrokes
func (s *Store) SetSearchDebounced(query string) {
	s.deb.schedule(func() { s.SetSearch(query) })
}

// ToggleSort flips direction on the active column or adopts a new column
// descending, and resets to page 1
func (s *Store) ToggleSort(column string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort.Toggle(column)
	s.page = 1
}

// SetPage moves to the requested page; out-of-range values clamp at
// derivation time
func (s *Store) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	s.page = page
}

// SetPageSize changes the window size and resets to page 1
func (s *Store) SetPageSize(pageSize int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pageSize < 1 {
		return
	}
	s.pageSize = pageSize
	s.page = 1
}

// Filters returns a copy of the active filter state
func (s *Store) Filters() FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// Sort returns the active sort state
func (s *Store) Sort() SortState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

// Session returns a copy of the active edit session, or nil
func (s *Store) Session() *EditSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// PendingUndo returns the live undo entry without consuming it, or nil
func (s *Store) PendingUndo() *UndoEntry {
	return s.undo.Peek()
}

func (s *Store) findRow(id int64) *domain.Classification {
	for _, row := range s.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

// patchRow swaps the snapshot entry for id with the server's copy
func (s *Store) patchRow(updated *domain.Classification) {
	for i, row := range s.rows {
		if row.ID == updated.ID {
			if updated.Email == nil {
				updated.Email = row.Email
			}
			s.rows[i] = updated
			return
		}
	}
}

// StartEdit opens an edit session on a snapshot row, capturing its current
// label values and version as the save baseline. Only one row is editable
// at a time; an unresolved previous session is never discarded silently.
func (s *Store) StartEdit(id int64) (*EditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if s.session != nil && (s.session.unresolved() || s.session.Status == StatusEditing) {
		return nil, ErrEditPending
	}

	row := s.findRow(id)
	if row == nil {
		return nil, domain.ErrNotFound
	}

	// a leftover saved session is implicitly discarded
	s.session = newEditSession(row)
	copied := *s.session
	return &copied, nil
}

// CancelEdit leaves the edit session without a write. Refused while a save
// is in flight or a conflict is open.
func (s *Store) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	switch s.session.Status {
	case StatusSaving:
		return ErrSaveInFlight
	case StatusConflict:
		return ErrConflictPending
	}
	s.session = nil
	return nil
}

// ApplyFieldEdit saves one field change immediately as its own atomic
// versioned write; sibling fields are never batched with it. On success the
// session baseline advances to the server's new version and a single-level
// undo entry supersedes any prior one.
func (s *Store) ApplyFieldEdit(ctx context.Context, field, value string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	session := s.session
	if session == nil {
		s.mu.Unlock()
		return ErrNoEditSession
	}
	switch session.Status {
	case StatusSaving:
		s.mu.Unlock()
		return ErrSaveInFlight
	case StatusConflict:
		s.mu.Unlock()
		return ErrConflictPending
	}
	if !domain.ValidateFieldValue(field, value) {
		s.mu.Unlock()
		return &domain.ValidationError{Field: field, Value: value}
	}

	previous := session.Working[field]
	if previous == value {
		s.mu.Unlock()
		return nil
	}

	session.Status = StatusSaving
	session.pendingField = field
	session.pendingValue = value
	expected := session.BaseVersion
	id := session.RecordID
	s.mu.Unlock()

	updated, err := s.gateway.UpdateClassification(ctx, id, expected, domain.FieldUpdates{field: value}, domain.CorrectionSourceManual)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != session {
		return ErrStoreClosed
	}
	return s.finishSave(session, field, value, previous, updated, err)
}

// finishSave applies a save outcome to the session. Caller holds the lock.
func (s *Store) finishSave(session *EditSession, field, value, previous string, updated *domain.Classification, err error) error {
	if err != nil {
		var conflict *domain.VersionConflictError
		if errors.As(err, &conflict) {
			session.Status = StatusConflict
			session.Conflict = conflict.Current
			return err
		}
		session.Status = StatusError
		session.Error = err.Error()
		return err
	}

	session.Status = StatusSaved
	session.Error = ""
	session.Conflict = nil
	session.BaseVersion = updated.Version
	session.Working[field] = value
	s.patchRow(updated)

	s.undo.Arm(&UndoEntry{
		Kind: UndoKindSingle,
		Changes: []ChangeTuple{{
			RecordID:      session.RecordID,
			Field:         field,
			PreviousValue: previous,
			NewValue:      value,
		}},
		Description: fmt.Sprintf("Changed %s from %s to %s", field, previous, value),
	})
	return nil
}

// ResolveConflict applies the reviewer's explicit choice: force_overwrite
// retries the pending change against the server's latest version,
// accept_server discards the local change and adopts the server's values.
func (s *Store) ResolveConflict(ctx context.Context, resolution string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	session := s.session
	if session == nil || session.Status != StatusConflict {
		s.mu.Unlock()
		return ErrNoConflict
	}

	switch resolution {
	case ResolveAcceptServerVersion:
		s.patchRow(session.Conflict)
		s.session = nil
		s.mu.Unlock()
		return nil

	case ResolveForceOverwrite:
		field := session.pendingField
		value := session.pendingValue
		overwritten := session.Conflict.FieldValue(field)
		expected := session.Conflict.Version
		id := session.RecordID
		session.Status = StatusSaving
		s.mu.Unlock()

		updated, err := s.gateway.UpdateClassification(ctx, id, expected, domain.FieldUpdates{field: value}, domain.CorrectionSourceManual)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.session != session {
			return ErrStoreClosed
		}
		return s.finishSave(session, field, value, overwritten, updated, err)

	default:
		s.mu.Unlock()
		return fmt.Errorf("unknown conflict resolution %q", resolution)
	}
}

// Undo consumes the live undo entry and re-issues a versioned write per
// recorded tuple, restoring each field's previous value using the current
// known version as the expected version. A conflicting reversal fails with
// *UndoFailedError; it is never swallowed. The entry is single-use either way.
func (s *Store) Undo(ctx context.Context) (*UndoEntry, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	if s.session != nil {
		switch s.session.Status {
		case StatusSaving:
			s.mu.Unlock()
			return nil, ErrSaveInFlight
		case StatusConflict:
			s.mu.Unlock()
			return nil, ErrConflictPending
		}
	}

	entry, err := s.undo.Take()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	for i := len(entry.Changes) - 1; i >= 0; i-- {
		change := entry.Changes[i]

		// versions start at 1, so 0 means the row left the snapshot
		s.mu.Lock()
		expected := 0
		if row := s.findRow(change.RecordID); row != nil {
			expected = row.Version
		}
		s.mu.Unlock()

		if expected == 0 {
			current, err := s.gateway.GetClassification(ctx, change.RecordID)
			if err != nil {
				return entry, &UndoFailedError{Err: err}
			}
			expected = current.Version
		}

		updated, err := s.gateway.UpdateClassification(ctx, change.RecordID, expected,
			domain.FieldUpdates{change.Field: change.PreviousValue}, domain.CorrectionSourceUndo)
		if err != nil {
			return entry, &UndoFailedError{Err: err}
		}

		s.mu.Lock()
		if !s.closed {
			s.patchRow(updated)
			if s.session != nil && s.session.RecordID == change.RecordID {
				s.session.Working[change.Field] = change.PreviousValue
				s.session.BaseVersion = updated.Version
			}
		}
		s.mu.Unlock()
	}

	return entry, nil
}

// Close tears the store down, cancelling the debounce timer and any live
// undo expiry so no stray callback mutates disposed state
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.session = nil
	s.deb.cancel()
	s.undo.Clear()
}

// debouncer coalesces rapid calls: a pending-value slot plus one resettable
// timer. When the timer fires the latest pending callback runs.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending func()
	timer   *time.Timer
	stopped bool
}

func (d *debouncer) schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = fn
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
	} else {
		d.timer.Reset(d.delay)
	}
}

func (d *debouncer) fire() {
	d.mu.Lock()
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
