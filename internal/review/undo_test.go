package review

import (
	"testing"
	"time"
)

func entryFor(id int64, field, prev, next string) *UndoEntry {
	return &UndoEntry{
		Kind: UndoKindSingle,
		Changes: []ChangeTuple{
			{RecordID: id, Field: field, PreviousValue: prev, NewValue: next},
		},
		Description: "test change",
	}
}

func TestUndoer_TakeConsumes(t *testing.T) {
	u := NewUndoer(30 * time.Second)
	u.Arm(entryFor(1, "category", "FINANCIAL", "WORK"))

	entry, err := u.Take()
	if err != nil {
		t.Fatal(err)
	}
	if entry.Changes[0].PreviousValue != "FINANCIAL" {
		t.Fatalf("wrong entry taken: %+v", entry)
	}

	if _, err := u.Take(); err != ErrNothingToUndo {
		t.Fatalf("second take must report nothing to undo, got %v", err)
	}
}

func TestUndoer_Expiry(t *testing.T) {
	u := NewUndoer(30 * time.Second)

	base := time.Now()
	u.now = func() time.Time { return base }
	u.Arm(entryFor(1, "category", "FINANCIAL", "WORK"))

	// 31 seconds later the window has elapsed even if the timer callback
	// has not fired yet
	u.now = func() time.Time { return base.Add(31 * time.Second) }
	if _, err := u.Take(); err != ErrNothingToUndo {
		t.Fatalf("expired entry must not be taken, got %v", err)
	}
	if u.Peek() != nil {
		t.Fatal("expired entry must not be visible")
	}
}

func TestUndoer_JustInsideWindow(t *testing.T) {
	u := NewUndoer(30 * time.Second)

	base := time.Now()
	u.now = func() time.Time { return base }
	u.Arm(entryFor(1, "category", "FINANCIAL", "WORK"))

	u.now = func() time.Time { return base.Add(29 * time.Second) }
	if _, err := u.Take(); err != nil {
		t.Fatalf("entry inside the window must be takeable, got %v", err)
	}
}

func TestUndoer_Supersede(t *testing.T) {
	u := NewUndoer(30 * time.Second)
	u.Arm(entryFor(1, "category", "FINANCIAL", "WORK"))
	u.Arm(entryFor(1, "urgency", "LOW", "HIGH"))

	entry, err := u.Take()
	if err != nil {
		t.Fatal(err)
	}
	if entry.Changes[0].Field != "urgency" {
		t.Fatalf("newer entry must supersede the older one, got %+v", entry)
	}

	if _, err := u.Take(); err != ErrNothingToUndo {
		t.Fatal("superseded entry must be gone")
	}
}

func TestUndoer_TimerExpiry(t *testing.T) {
	u := NewUndoer(20 * time.Millisecond)
	u.Arm(entryFor(1, "category", "FINANCIAL", "WORK"))

	time.Sleep(60 * time.Millisecond)
	if _, err := u.Take(); err != ErrNothingToUndo {
		t.Fatalf("timer should have expired the entry, got %v", err)
	}
}
