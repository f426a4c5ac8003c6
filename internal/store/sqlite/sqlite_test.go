package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"foyer/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "foyer.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmptyDatabase(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("fresh database reported as populated")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := core.DefaultSnapshot()
	snap.Currency = "$"
	snap.Persons.Person1.Name = "Ada"
	snap.Months[0].Incomes = []core.IncomeEntry{
		{ID: "i1", Source: "Salaire", Amount: decimal.RequireFromString("2000.50"), Owner: core.OwnerPerson1},
	}
	snap.Months[0].Expenses = []core.ExpenseEntry{
		{ID: "e1", Category: "Logement", Amount: decimal.RequireFromString("850"), Description: "Loyer", Owner: core.OwnerShared, Kind: core.KindFixed, RecurrenceID: "r1"},
		{ID: "e2", Category: "Courses", Amount: decimal.RequireFromString("63.20"), Description: "Marché", Owner: core.OwnerPerson2, Kind: core.KindVariable},
	}
	snap.Months[5].Savings = []core.SavingsEntry{
		{ID: "s1", Goal: "Vacances", Amount: decimal.RequireFromString("300"), Owner: core.OwnerShared},
	}
	snap.Months[11].HealthRefunds = []core.HealthEntry{
		{ID: "h1", Description: "Dentiste", Amount: decimal.RequireFromString("45"), Owner: core.OwnerPerson1, Reimbursed: true},
	}

	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}

	wantJSON, _ := json.Marshal(snap)
	gotJSON, _ := json.Marshal(got)
	if string(gotJSON) != string(wantJSON) {
		t.Fatalf("round trip drifted:\n%s\nvs\n%s", gotJSON, wantJSON)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := core.DefaultSnapshot()
	first.Months[2].Expenses = []core.ExpenseEntry{
		{ID: "e1", Category: "Transport", Amount: decimal.RequireFromString("70"), Description: "Essence", Owner: core.OwnerShared, Kind: core.KindVariable},
	}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := core.DefaultSnapshot()
	second.Currency = "CHF"
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Currency != "CHF" {
		t.Fatalf("currency: %q", got.Currency)
	}
	if len(got.Months[2].Expenses) != 0 {
		t.Fatalf("stale entries survived the replace: %d", len(got.Months[2].Expenses))
	}
}

func TestEntryOrderPreserved(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snap := core.DefaultSnapshot()
	for _, src := range []string{"Salaire", "Prime", "Loyer reçu"} {
		snap.Months[3].Incomes = append(snap.Months[3].Incomes, core.IncomeEntry{
			Source: src, Amount: decimal.RequireFromString("10"), Owner: core.OwnerPerson2,
		})
	}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"Salaire", "Prime", "Loyer reçu"}
	for i, inc := range got.Months[3].Incomes {
		if inc.Source != want[i] {
			t.Fatalf("income %d: %q, want %q", i, inc.Source, want[i])
		}
	}
}
