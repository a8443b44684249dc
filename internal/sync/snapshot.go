package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// WriteSnapshot stores the completed task identifiers as a JSON array.
// Only completed tasks are written; absence means not completed.
func WriteSnapshot(path string, state map[string]bool) error {
	completed := make([]string, 0, len(state))
	for taskID, done := range state {
		if done {
			completed = append(completed, taskID)
		}
	}
	sort.Strings(completed)

	data, err := json.MarshalIndent(completed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot file back into a progress mapping. A
// missing file is an empty checklist, not an error.
func ReadSnapshot(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var completed []string
	if err := json.Unmarshal(data, &completed); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	state := make(map[string]bool, len(completed))
	for _, taskID := range completed {
		state[taskID] = true
	}
	return state, nil
}
