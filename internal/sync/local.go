package sync

import (
	"context"
	gosync "sync"
)

// LocalBackend keeps progress in a snapshot file on disk. It serves the
// CLI when no server is configured.
type LocalBackend struct {
	mu   gosync.Mutex
	path string
}

func NewLocalBackend(path string) *LocalBackend {
	return &LocalBackend{path: path}
}

func (b *LocalBackend) GetAll(ctx context.Context) (map[string]bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ReadSnapshot(b.path)
}

func (b *LocalBackend) Upsert(ctx context.Context, taskID string, completed bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, err := ReadSnapshot(b.path)
	if err != nil {
		return err
	}
	if completed {
		state[taskID] = true
	} else {
		delete(state, taskID)
	}
	return WriteSnapshot(b.path, state)
}

func (b *LocalBackend) ResetAll(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return WriteSnapshot(b.path, map[string]bool{})
}
