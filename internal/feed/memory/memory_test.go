package memory

import (
	"context"
	"testing"
)

func TestFetchStartsWithHeaderOnly(t *testing.T) {
	grid, err := New().Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(grid) != 1 {
		t.Fatalf("rows: %d", len(grid))
	}
}

func TestAppendThenFetch(t *testing.T) {
	s := New()
	ctx := context.Background()
	row := []string{"2025-01-10", "revenu", "1", "Salaire", "2000", "Compte A", "", "Janvier"}
	if err := s.Append(ctx, row); err != nil {
		t.Fatalf("append: %v", err)
	}

	grid, err := s.Fetch(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(grid) != 2 {
		t.Fatalf("rows: %d", len(grid))
	}
	// Fetch hands out copies, not the backing arrays.
	grid[1][0] = "mutated"
	again, _ := s.Fetch(ctx)
	if again[1][0] != "2025-01-10" {
		t.Fatal("fetch leaked internal state")
	}
}

func TestAppendRejectsWrongArity(t *testing.T) {
	if err := New().Append(context.Background(), []string{"trop", "court"}); err == nil {
		t.Fatal("expected error")
	}
}
