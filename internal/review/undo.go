package review

import (
	"errors"
	"sync"
	"time"
)

// ErrNothingToUndo means no live undo entry exists (never created, already
// consumed, or expired past its window)
var ErrNothingToUndo = errors.New("nothing to undo")

// Undo entry kinds
const (
	UndoKindSingle = "single"
	UndoKindBatch  = "batch"
)

// ChangeTuple records one reversible field change
type ChangeTuple struct {
	RecordID      int64  `json:"record_id"`
	Field         string `json:"field"`
	PreviousValue string `json:"previous_value"`
	NewValue      string `json:"new_value"`
}

// UndoEntry is one reversible change. At most one live entry exists at a
// time; it is consumed by exactly one undo or expires, whichever comes first.
type UndoEntry struct {
	Kind        string        `json:"kind"`
	Changes     []ChangeTuple `json:"changes"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpiresAt   time.Time     `json:"expires_at"`
}

// Undoer holds the single undo slot: Empty, or Live(entry, timer). Arming
// a new entry supersedes the previous one and cancels its expiry timer.
type Undoer struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	entry  *UndoEntry
	timer  *time.Timer
}

func NewUndoer(window time.Duration) *Undoer {
	return &Undoer{
		window: window,
		now:    time.Now,
	}
}

// Arm installs entry as the live undo entry, superseding any prior one
func (u *Undoer) Arm(entry *UndoEntry) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}

	entry.CreatedAt = u.now()
	entry.ExpiresAt = entry.CreatedAt.Add(u.window)
	u.entry = entry
	u.timer = time.AfterFunc(u.window, func() { u.expire(entry) })
}

// expire clears the slot only if entry is still the live one; a newer entry
// keeps its own timer
func (u *Undoer) expire(entry *UndoEntry) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.entry == entry {
		u.entry = nil
		u.timer = nil
	}
}

// Peek returns the live entry without consuming it, or nil
func (u *Undoer) Peek() *UndoEntry {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.entry == nil || !u.now().Before(u.entry.ExpiresAt) {
		return nil
	}
	return u.entry
}

// Take consumes the live entry. The wall clock is checked as well as the
// timer, so an entry can never be taken after its window even if the timer
// callback has not fired yet.
func (u *Undoer) Take() (*UndoEntry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.entry == nil || !u.now().Before(u.entry.ExpiresAt) {
		return nil, ErrNothingToUndo
	}

	entry := u.entry
	u.entry = nil
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
	return entry, nil
}

// Clear drops any live entry and cancels its timer
func (u *Undoer) Clear() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.entry = nil
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
}
