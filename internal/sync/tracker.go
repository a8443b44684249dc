// Package sync keeps a local view of checklist progress in step with a
// backend. Mutations apply locally first and roll back when the backend
// rejects them.
package sync

import (
	"context"
	"fmt"
	"math"
	gosync "sync"

	"compass/api/internal/catalog"
)

// Backend persists progress. The HTTP client and the local snapshot
// store both implement it.
type Backend interface {
	GetAll(ctx context.Context) (map[string]bool, error)
	Upsert(ctx context.Context, taskID string, completed bool) error
	ResetAll(ctx context.Context) error
}

// Tracker mirrors the backend's progress mapping and applies optimistic
// local updates. All methods are safe for concurrent use.
type Tracker struct {
	mu      gosync.Mutex
	backend Backend
	state   map[string]bool

	// OnComplete fires when a toggle transitions the checklist from
	// incomplete to complete. Loading an already-complete checklist
	// does not fire it.
	OnComplete func()
}

func NewTracker(backend Backend) *Tracker {
	return &Tracker{
		backend: backend,
		state:   make(map[string]bool),
	}
}

// Load replaces local state with the backend's mapping. It never fires
// OnComplete, regardless of how complete the loaded state is.
func (t *Tracker) Load(ctx context.Context) error {
	remote, err := t.backend.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = make(map[string]bool, len(remote))
	for taskID, completed := range remote {
		t.state[taskID] = completed
	}
	return nil
}

// Toggle flips one task optimistically. The local state changes first;
// if the backend write fails the pre-mutation value is restored and the
// error returned.
func (t *Tracker) Toggle(ctx context.Context, taskID string) error {
	t.mu.Lock()
	previous, existed := t.state[taskID]
	next := !previous
	wasComplete := t.completeLocked()
	t.state[taskID] = next
	nowComplete := t.completeLocked()
	t.mu.Unlock()

	if err := t.backend.Upsert(ctx, taskID, next); err != nil {
		t.mu.Lock()
		if existed {
			t.state[taskID] = previous
		} else {
			delete(t.state, taskID)
		}
		t.mu.Unlock()
		return fmt.Errorf("save progress: %w", err)
	}

	if !wasComplete && nowComplete && t.OnComplete != nil {
		t.OnComplete()
	}
	return nil
}

// Reset clears all progress, backend first. Local state survives a
// failed backend reset.
func (t *Tracker) Reset(ctx context.Context) error {
	if err := t.backend.ResetAll(ctx); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}

	t.mu.Lock()
	t.state = make(map[string]bool)
	t.mu.Unlock()
	return nil
}

// IsCompleted reports one task's local state.
func (t *Tracker) IsCompleted(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state[taskID]
}

// Completed counts completed tasks, ignoring identifiers the catalog no
// longer knows.
func (t *Tracker) Completed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completedLocked()
}

// Percentage is the completion rate rounded to whole percent, matching
// what the server reports for the same state.
func (t *Tracker) Percentage() int {
	total := catalog.TotalTasks()
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(t.Completed()) / float64(total)))
}

// Snapshot returns a copy of the local mapping.
func (t *Tracker) Snapshot() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := make(map[string]bool, len(t.state))
	for taskID, completed := range t.state {
		copied[taskID] = completed
	}
	return copied
}

func (t *Tracker) completedLocked() int {
	known := catalog.TaskIDs()
	count := 0
	for taskID, completed := range t.state {
		if !completed {
			continue
		}
		if _, ok := known[taskID]; !ok {
			continue
		}
		count++
	}
	return count
}

func (t *Tracker) completeLocked() bool {
	total := catalog.TotalTasks()
	return total > 0 && t.completedLocked() == total
}
