package review

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"inboxpilot-backend/internal/classification/domain"
)

// fakeGateway implements Gateway with in-memory versioned records
type fakeGateway struct {
	mu       sync.Mutex
	records  map[int64]*domain.Classification
	failNext error

	// optional hooks for in-flight write tests
	enterUpdate chan struct{} // receives when an update reaches the gateway
	gateUpdate  chan struct{} // update waits here until closed
}

func newFakeGateway(rows ...*domain.Classification) *fakeGateway {
	g := &fakeGateway{records: make(map[int64]*domain.Classification)}
	for _, r := range rows {
		g.records[r.ID] = r
	}
	return g
}

func copyRec(r *domain.Classification) *domain.Classification {
	copied := *r
	if r.Email != nil {
		email := *r.Email
		copied.Email = &email
	}
	return &copied
}

func (g *fakeGateway) ListClassifications(ctx context.Context, query ListQuery) ([]*domain.Classification, int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext != nil {
		err := g.failNext
		g.failNext = nil
		return nil, 0, err
	}
	out := make([]*domain.Classification, 0, len(g.records))
	for _, r := range g.records {
		out = append(out, copyRec(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (g *fakeGateway) GetClassification(ctx context.Context, id int64) (*domain.Classification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyRec(r), nil
}

func (g *fakeGateway) UpdateClassification(ctx context.Context, id int64, expectedVersion int, updates domain.FieldUpdates, source string) (*domain.Classification, error) {
	if g.enterUpdate != nil {
		g.enterUpdate <- struct{}{}
	}
	if g.gateUpdate != nil {
		<-g.gateUpdate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failNext != nil {
		err := g.failNext
		g.failNext = nil
		return nil, err
	}
	r, ok := g.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if r.Version != expectedVersion {
		return nil, &domain.VersionConflictError{Current: copyRec(r)}
	}
	for field, value := range updates {
		g.setField(r, field, value)
	}
	r.Version++
	return copyRec(r), nil
}

func (g *fakeGateway) setField(r *domain.Classification, field, value string) {
	switch field {
	case domain.FieldCategory:
		r.Category = domain.Category(value)
	case domain.FieldUrgency:
		r.Urgency = domain.Urgency(value)
	case domain.FieldAction:
		r.Action = domain.Action(value)
	}
}

// bump simulates a concurrent write from somewhere else
func (g *fakeGateway) bump(id int64, field, value string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r := g.records[id]
	g.setField(r, field, value)
	r.Version++
}

func newTestStore(t *testing.T, gw *fakeGateway) *Store {
	t.Helper()
	s := NewStore(gw, Options{
		UndoWindow:    time.Minute,
		DebounceDelay: 10 * time.Millisecond,
		PageSize:      2,
	})
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Close)
	return s
}

func testRows() []*domain.Classification {
	return []*domain.Classification{
		row(1, "Invoice due", "billing@acme.com", domain.CategoryFinancial),
		row(2, "Swim schedule", "coach@pool.org", domain.CategoryKids),
		row(3, "Sprint review", "pm@work.com", domain.CategoryWork),
	}
}

func TestStore_EditSaveUndoRoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	if _, err := s.StartEdit(1); err != nil {
		t.Fatal(err)
	}
	if err := s.ApplyFieldEdit(ctx, "category", "WORK"); err != nil {
		t.Fatal(err)
	}

	sess := s.Session()
	if sess.Status != StatusSaved || sess.BaseVersion != 2 {
		t.Fatalf("expected saved session at version 2, got %+v", sess)
	}

	rec, _ := gw.GetClassification(ctx, 1)
	if rec.Category != domain.CategoryWork || rec.Version != 2 {
		t.Fatalf("store write not applied: %+v", rec)
	}

	entry, err := s.Undo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Changes[0].PreviousValue != "FINANCIAL" {
		t.Fatalf("wrong undo tuple: %+v", entry.Changes[0])
	}

	rec, _ = gw.GetClassification(ctx, 1)
	if rec.Category != domain.CategoryFinancial || rec.Version != 3 {
		t.Fatalf("undo did not restore the field: %+v", rec)
	}

	// the entry is single-use
	if _, err := s.Undo(ctx); err != ErrNothingToUndo {
		t.Fatalf("second undo must report nothing to undo, got %v", err)
	}
}

func TestStore_SameValueIsNoWrite(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.StartEdit(1)
	if err := s.ApplyFieldEdit(ctx, "category", "FINANCIAL"); err != nil {
		t.Fatal(err)
	}

	rec, _ := gw.GetClassification(ctx, 1)
	if rec.Version != 1 {
		t.Fatalf("unchanged value must not issue a write, version is %d", rec.Version)
	}
}

func TestStore_ConflictAcceptServer(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.StartEdit(1)
	// concurrent change elsewhere moves the record to version 2
	gw.bump(1, "category", "PERSONAL")

	err := s.ApplyFieldEdit(ctx, "category", "WORK")
	var conflict *domain.VersionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected a version conflict carrying the current record, got %v", err)
	}
	if conflict.Current.Version != 2 || conflict.Current.Category != domain.CategoryPersonal {
		t.Fatalf("conflict must carry the store's current record, got %+v", conflict.Current)
	}
	if s.Session().Status != StatusConflict {
		t.Fatalf("session must be in conflict, got %s", s.Session().Status)
	}

	if err := s.ResolveConflict(ctx, ResolveAcceptServerVersion); err != nil {
		t.Fatal(err)
	}
	if s.Session() != nil {
		t.Fatal("accepting the server version must return to idle")
	}

	// local snapshot adopted the server's values
	page := s.VisiblePage()
	for _, r := range page.Rows {
		if r.ID == 1 && r.Category != domain.CategoryPersonal {
			t.Fatalf("snapshot not patched with server values: %+v", r)
		}
	}

	rec, _ := gw.GetClassification(ctx, 1)
	if rec.Version != 2 {
		t.Fatalf("accept_server must not write, version is %d", rec.Version)
	}
}

func TestStore_ConflictForceOverwrite(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.StartEdit(1)
	gw.bump(1, "category", "PERSONAL")

	if err := s.ApplyFieldEdit(ctx, "category", "WORK"); err == nil {
		t.Fatal("expected a conflict")
	}

	if err := s.ResolveConflict(ctx, ResolveForceOverwrite); err != nil {
		t.Fatal(err)
	}

	sess := s.Session()
	if sess.Status != StatusSaved || sess.BaseVersion != 3 {
		t.Fatalf("expected saved at version 3 after overwrite, got %+v", sess)
	}
	rec, _ := gw.GetClassification(ctx, 1)
	if rec.Category != domain.CategoryWork || rec.Version != 3 {
		t.Fatalf("overwrite not applied: %+v", rec)
	}

	// undoing the overwrite restores the value it overwrote
	entry, err := s.Undo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if entry.Changes[0].PreviousValue != "PERSONAL" {
		t.Fatalf("undo of an overwrite must restore the overwritten server value, got %+v", entry.Changes[0])
	}
}

func TestStore_NoNewEditWhileUnresolved(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.StartEdit(1)
	gw.bump(1, "category", "PERSONAL")
	s.ApplyFieldEdit(ctx, "category", "WORK")

	if _, err := s.StartEdit(2); err != ErrEditPending {
		t.Fatalf("starting an edit with an open conflict must be refused, got %v", err)
	}
	if err := s.ApplyFieldEdit(ctx, "urgency", "HIGH"); err != ErrConflictPending {
		t.Fatalf("field edits must be blocked until the conflict is resolved, got %v", err)
	}
	if err := s.CancelEdit(); err != ErrConflictPending {
		t.Fatalf("a conflict cannot be cancelled away silently, got %v", err)
	}
	if _, err := s.Undo(ctx); err != ErrConflictPending {
		t.Fatalf("undo must be blocked during a conflict, got %v", err)
	}
}

func TestStore_SaveErrorRetry(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.StartEdit(1)
	gw.failNext = &domain.RemoteQueryError{Op: "update classification", Err: errors.New("connection reset")}

	if err := s.ApplyFieldEdit(ctx, "category", "WORK"); err == nil {
		t.Fatal("expected the transport failure to surface")
	}
	if s.Session().Status != StatusError {
		t.Fatalf("expected error status, got %s", s.Session().Status)
	}

	// retrying the same field change re-enters saving with the same version
	if err := s.ApplyFieldEdit(ctx, "category", "WORK"); err != nil {
		t.Fatal(err)
	}
	if s.Session().Status != StatusSaved || s.Session().BaseVersion != 2 {
		t.Fatalf("retry should have succeeded, got %+v", s.Session())
	}
}

func TestStore_UndoConflictReported(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.StartEdit(1)
	s.ApplyFieldEdit(ctx, "category", "WORK")
	s.CancelEdit()

	// someone else moves the record before the undo runs
	gw.bump(1, "urgency", "HIGH")

	_, err := s.Undo(ctx)
	var undoErr *UndoFailedError
	if !errors.As(err, &undoErr) {
		t.Fatalf("a conflicting undo write must be reported as an undo failure, got %v", err)
	}
}

func TestStore_UndoDoesNotBlockReads(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.StartEdit(1)
	s.ApplyFieldEdit(ctx, "category", "WORK")
	s.CancelEdit()

	gw.enterUpdate = make(chan struct{}, 1)
	gw.gateUpdate = make(chan struct{})

	undoDone := make(chan struct{})
	go func() {
		s.Undo(ctx)
		close(undoDone)
	}()
	<-gw.enterUpdate // the undo write is now in flight

	readDone := make(chan struct{})
	go func() {
		s.VisiblePage()
		s.Session()
		s.Filters()
		close(readDone)
	}()

	select {
	case <-readDone:
		close(gw.gateUpdate)
		<-undoDone
	case <-time.After(time.Second):
		close(gw.gateUpdate)
		t.Fatal("store reads blocked behind an in-flight undo write")
	}

	rec, _ := gw.GetClassification(ctx, 1)
	if rec.Category != domain.CategoryFinancial {
		t.Fatalf("undo did not restore the field: %+v", rec)
	}
}

func TestStore_CancelEditWithoutChange(t *testing.T) {
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.StartEdit(1)
	if err := s.CancelEdit(); err != nil {
		t.Fatal(err)
	}
	if s.Session() != nil {
		t.Fatal("cancel must return to idle")
	}

	rec, _ := gw.GetClassification(context.Background(), 1)
	if rec.Version != 1 {
		t.Fatalf("cancel must not write, version is %d", rec.Version)
	}
}

func TestStore_PageResetRules(t *testing.T) {
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.SetPage(2)
	if s.VisiblePage().Page != 2 {
		t.Fatal("page 2 should exist for 3 rows of size 2")
	}

	s.SetFilter("subject", "s")
	if s.VisiblePage().Page != 1 {
		t.Fatal("changing a filter must reset to page 1")
	}

	s.SetPage(2)
	s.ToggleSort("confidence")
	if s.VisiblePage().Page != 1 {
		t.Fatal("changing sort must reset to page 1")
	}

	s.SetPage(2)
	s.SetPageSize(1)
	if s.VisiblePage().Page != 1 {
		t.Fatal("changing page size must reset to page 1")
	}
}

func TestStore_DebounceCoalesces(t *testing.T) {
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	s.SetFilterDebounced("subject", "i")
	s.SetFilterDebounced("subject", "in")
	s.SetFilterDebounced("subject", "inv")

	time.Sleep(50 * time.Millisecond)
	if got := s.Filters()["subject"]; got != "inv" {
		t.Fatalf("only the latest pending value must be applied, got %q", got)
	}
}

func TestStore_CloseCancelsDebounce(t *testing.T) {
	gw := newFakeGateway(testRows()...)
	s := NewStore(gw, Options{DebounceDelay: 10 * time.Millisecond})
	s.Refresh(context.Background())

	s.SetFilterDebounced("subject", "late")
	s.Close()

	time.Sleep(50 * time.Millisecond)
	if len(s.Filters()) != 0 {
		t.Fatal("a cancelled debounce callback must not mutate a closed store")
	}
}

func TestStore_RefreshFailureClearsRows(t *testing.T) {
	gw := newFakeGateway(testRows()...)
	s := newTestStore(t, gw)

	gw.failNext = &domain.RemoteQueryError{Op: "list classifications", Err: errors.New("timeout")}
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected the list failure to surface")
	}
	if got := s.VisiblePage().TotalCount; got != 0 {
		t.Fatalf("a failed refresh must clear displayed rows, got %d", got)
	}
}
