// Package budget owns the in-memory budget snapshot and every
// mutation path over it. A Store is built once at startup and handed
// to consumers by reference; there is no ambient global state.
package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"foyer/internal/core"
)

// Persister is the persistence port behind the store. Adapters exist
// for a local JSON file slot, SQLite and Postgres; the store never
// knows which one it talks to.
type Persister interface {
	// Save writes the whole snapshot.
	Save(ctx context.Context, snap core.Snapshot) error
	// Load reads the snapshot back. ok is false when no snapshot has
	// ever been saved, in which case defaults apply.
	Load(ctx context.Context) (snap core.Snapshot, ok bool, err error)
}

// MonthPatch is a shallow merge over one bucket: only the collections
// that are present replace the existing ones, everything else is left
// untouched. Pointers distinguish "absent" from "empty".
type MonthPatch struct {
	Incomes       *[]core.IncomeEntry  `json:"revenus,omitempty"`
	Expenses      *[]core.ExpenseEntry `json:"depenses,omitempty"`
	Savings       *[]core.SavingsEntry `json:"epargne,omitempty"`
	HealthRefunds *[]core.HealthEntry  `json:"remboursementsSante,omitempty"`
}

// Store holds one snapshot and serializes access to it. Reads return
// clones; writes go through the accessor methods only.
type Store struct {
	mu        sync.RWMutex
	snap      core.Snapshot
	persister Persister
	syncErr   error
}

// New builds a store over the default snapshot.
func New(p Persister) *Store {
	return &Store{snap: core.DefaultSnapshot(), persister: p}
}

// Open builds a store and loads the persisted snapshot if one exists,
// falling back to defaults otherwise.
func Open(ctx context.Context, p Persister) (*Store, error) {
	s := New(p)
	if p == nil {
		return s, nil
	}
	snap, ok, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if ok {
		s.snap = snap
	}
	return s, nil
}

// Snapshot returns a deep copy of the current state. No side effects.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// MonthlyTotals aggregates one bucket. An out-of-range index fails
// closed: it yields all-zero totals instead of an error.
func (s *Store) MonthlyTotals(monthIndex int) core.MonthTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if monthIndex < 0 || monthIndex >= core.MonthsPerYear {
		return core.ComputeMonthTotals(core.MonthBucket{})
	}
	return core.ComputeMonthTotals(s.snap.Months[monthIndex])
}

// SyncErr returns the persistence error of the most recent write, or
// nil when the last write reached the backend. In-memory state is
// always ahead of the backend on failure; writes are optimistic and
// never rolled back.
func (s *Store) SyncErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncErr
}

// UpdatePersons replaces both partner profiles.
func (s *Store) UpdatePersons(ctx context.Context, persons core.Persons) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Persons = persons
	s.persistLocked(ctx)
}

// UpdateCurrency replaces the display currency symbol.
func (s *Store) UpdateCurrency(ctx context.Context, currency string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Currency = currency
	s.persistLocked(ctx)
}

// UpdateBankAccounts replaces the whole account list. The size bound
// lives at the HTTP boundary, not here.
func (s *Store) UpdateBankAccounts(ctx context.Context, accounts []core.BankAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.BankAccounts = append([]core.BankAccount(nil), accounts...)
	s.persistLocked(ctx)
}

// UpdateMonth merges the given collections into bucket monthIndex.
// All other months stay untouched.
func (s *Store) UpdateMonth(ctx context.Context, monthIndex int, patch MonthPatch) error {
	if monthIndex < 0 || monthIndex >= core.MonthsPerYear {
		return core.ErrInvalidMonth
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &s.snap.Months[monthIndex]
	if patch.Incomes != nil {
		b.Incomes = append([]core.IncomeEntry(nil), *patch.Incomes...)
	}
	if patch.Expenses != nil {
		b.Expenses = append([]core.ExpenseEntry(nil), *patch.Expenses...)
	}
	if patch.Savings != nil {
		b.Savings = append([]core.SavingsEntry(nil), *patch.Savings...)
	}
	if patch.HealthRefunds != nil {
		b.HealthRefunds = append([]core.HealthEntry(nil), *patch.HealthRefunds...)
	}
	s.persistLocked(ctx)
	return nil
}

// ReplaceMonths swaps in a freshly reconciled twelve-bucket array.
// Used by the feed reload path; last write wins when reloads overlap.
func (s *Store) ReplaceMonths(ctx context.Context, months [core.MonthsPerYear]core.MonthBucket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range months {
		s.snap.Months[i] = months[i].Clone()
	}
	s.persistLocked(ctx)
}

// AddExpense appends an expense to one bucket, assigning it a stable
// id. Fixed expenses also receive a recurrence id so later propagation
// can find the copies without relying on description matching.
func (s *Store) AddExpense(ctx context.Context, monthIndex int, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if monthIndex < 0 || monthIndex >= core.MonthsPerYear {
		return core.ExpenseEntry{}, core.ErrInvalidMonth
	}
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}
	e.ID = newEntryID()
	if e.Kind == core.KindFixed && e.RecurrenceID == "" {
		e.RecurrenceID = newEntryID()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Months[monthIndex].Expenses = append(s.snap.Months[monthIndex].Expenses, e)
	s.persistLocked(ctx)
	return e, nil
}

// ToggleHealthReimbursed flips the rembourse flag of one health entry,
// addressed by position, and returns the new value. Toggling twice
// restores the original state.
func (s *Store) ToggleHealthReimbursed(ctx context.Context, monthIndex, entryIndex int) (bool, error) {
	if monthIndex < 0 || monthIndex >= core.MonthsPerYear {
		return false, core.ErrInvalidMonth
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	refunds := s.snap.Months[monthIndex].HealthRefunds
	if entryIndex < 0 || entryIndex >= len(refunds) {
		return false, fmt.Errorf("health entry %d out of range", entryIndex)
	}
	refunds[entryIndex].Reimbursed = !refunds[entryIndex].Reimbursed
	s.persistLocked(ctx)
	return refunds[entryIndex].Reimbursed, nil
}

// Export serializes the full snapshot for download.
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.MarshalIndent(s.snap, "", "  ")
}

// Import replaces the snapshot wholesale with an uploaded export and
// persists it. Beyond JSON well-formedness there is no schema
// validation; an exported file always round-trips.
func (s *Store) Import(ctx context.Context, data []byte) error {
	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse import: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.persistLocked(ctx)
	return nil
}

func newEntryID() string {
	return uuid.NewString()
}

// persistLocked writes the current snapshot through the port. The
// in-memory mutation already happened and is never rolled back; a
// failure is recorded as the store's sync error and surfaced to the
// caller via SyncErr.
func (s *Store) persistLocked(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, s.snap); err != nil {
		s.syncErr = err
		slog.ErrorContext(ctx, "snapshot persistence failed, in-memory state is ahead of backend",
			"error", err)
		return
	}
	s.syncErr = nil
}
