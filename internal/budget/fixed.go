package budget

import (
	"context"

	"foyer/internal/core"
)

// Fixed-expense propagation is a two-step API: a Propose call lists
// the months a change would touch, then an Apply call performs it.
// The confirmation decision sits with the caller; nothing here is
// automatic, so a user can always keep a change local to one month.
//
// Apply walks the months one by one with no atomicity. A persistence
// failure partway leaves some months updated and others not; the store
// only records its usual sync error.

// ProposeFixedExpensePropagation returns the months, excluding the
// origin, that do not yet contain an entry of the same fixed series.
// Re-proposing an already propagated expense yields an empty list, so
// applying is idempotent.
func (s *Store) ProposeFixedExpensePropagation(originMonth int, e core.ExpenseEntry) []int {
	if e.Kind != core.KindFixed {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var months []int
	for i := 0; i < core.MonthsPerYear; i++ {
		if i == originMonth {
			continue
		}
		if !s.monthHasSeriesLocked(i, e) {
			months = append(months, i)
		}
	}
	return months
}

// ApplyFixedExpensePropagation appends a copy of the expense to each
// listed month that still lacks one. Copies share the recurrence id
// but get their own entry id.
func (s *Store) ApplyFixedExpensePropagation(ctx context.Context, months []int, e core.ExpenseEntry) error {
	if e.Kind != core.KindFixed {
		return core.ErrInvalidKind
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range months {
		if i < 0 || i >= core.MonthsPerYear {
			return core.ErrInvalidMonth
		}
		if s.monthHasSeriesLocked(i, e) {
			continue
		}
		copyEntry := e
		copyEntry.ID = newEntryID()
		s.snap.Months[i].Expenses = append(s.snap.Months[i].Expenses, copyEntry)
	}
	s.persistLocked(ctx)
	return nil
}

// ProposeFixedExpenseUpdate returns the months, excluding the origin,
// holding a copy of the pre-edit entry's series.
func (s *Store) ProposeFixedExpenseUpdate(originMonth int, before core.ExpenseEntry) []int {
	return s.monthsWithSeries(originMonth, before)
}

// ApplyFixedExpenseUpdate replicates the edited description, amount,
// category and owner onto every matching copy in the listed months.
// Matching uses the pre-edit entry, so a renamed expense still finds
// its copies.
func (s *Store) ApplyFixedExpenseUpdate(ctx context.Context, months []int, before, after core.ExpenseEntry) error {
	if err := after.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range months {
		if i < 0 || i >= core.MonthsPerYear {
			return core.ErrInvalidMonth
		}
		expenses := s.snap.Months[i].Expenses
		for j := range expenses {
			if !core.SameFixedSeries(expenses[j], before) {
				continue
			}
			expenses[j].Description = after.Description
			expenses[j].Amount = after.Amount
			expenses[j].Category = after.Category
			expenses[j].Owner = after.Owner
		}
	}
	s.persistLocked(ctx)
	return nil
}

// ProposeFixedExpenseRemoval returns every month, including the
// origin, holding a copy of the entry's series.
func (s *Store) ProposeFixedExpenseRemoval(e core.ExpenseEntry) []int {
	return s.monthsWithSeries(-1, e)
}

// ApplyFixedExpenseRemoval deletes all copies of the series from the
// listed months.
func (s *Store) ApplyFixedExpenseRemoval(ctx context.Context, months []int, e core.ExpenseEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range months {
		if i < 0 || i >= core.MonthsPerYear {
			return core.ErrInvalidMonth
		}
		expenses := s.snap.Months[i].Expenses
		kept := expenses[:0]
		for _, candidate := range expenses {
			if !core.SameFixedSeries(candidate, e) {
				kept = append(kept, candidate)
			}
		}
		s.snap.Months[i].Expenses = kept
	}
	s.persistLocked(ctx)
	return nil
}

func (s *Store) monthsWithSeries(excludeMonth int, e core.ExpenseEntry) []int {
	if e.Kind != core.KindFixed {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var months []int
	for i := 0; i < core.MonthsPerYear; i++ {
		if i == excludeMonth {
			continue
		}
		if s.monthHasSeriesLocked(i, e) {
			months = append(months, i)
		}
	}
	return months
}

func (s *Store) monthHasSeriesLocked(monthIndex int, e core.ExpenseEntry) bool {
	for _, candidate := range s.snap.Months[monthIndex].Expenses {
		if core.SameFixedSeries(candidate, e) {
			return true
		}
	}
	return false
}
