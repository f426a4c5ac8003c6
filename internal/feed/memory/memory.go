// Package memory provides an in-process feed used as the default
// backend and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"foyer/internal/core"
)

var header = []string{"Date", "Type", "Partenaire", "Catégorie", "Montant", "Compte", "Commentaire", "Mois"}

type Store struct {
	mu   sync.Mutex
	grid [][]string
}

func New() *Store {
	return &Store{grid: [][]string{append([]string(nil), header...)}}
}

// Seed replaces the data rows below the header. Test helper.
func (s *Store) Seed(rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = s.grid[:1]
	for _, r := range rows {
		s.grid = append(s.grid, append([]string(nil), r...))
	}
}

// Fetch returns a copy of the grid, header row included.
func (s *Store) Fetch(_ context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.grid))
	for i, r := range s.grid {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// Append adds one row below the existing data.
func (s *Store) Append(_ context.Context, cells []string) error {
	if len(cells) != core.FeedRowCells {
		return fmt.Errorf("expected %d cells, got %d", core.FeedRowCells, len(cells))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = append(s.grid, append([]string(nil), cells...))
	return nil
}
