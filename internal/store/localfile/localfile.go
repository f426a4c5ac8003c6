// Package localfile persists the budget snapshot as JSON under a
// single named file slot, the disk analogue of browser local storage.
package localfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"foyer/internal/budget"
	"foyer/internal/core"
)

type Store struct {
	path string
}

var _ budget.Persister = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

// Save writes the whole snapshot atomically (temp file plus rename).
func (s *Store) Save(_ context.Context, snap core.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the slot back verbatim. A missing file means no snapshot
// was ever saved.
func (s *Store) Load(_ context.Context) (core.Snapshot, bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}
