// Package reconcile converts the flat tabular feed into the nested
// per-month budget model and back. Every function here is pure so the
// translation rules can be tested without any transport.
package reconcile

import (
	"time"

	"github.com/shopspring/decimal"

	"foyer/internal/core"
)

// ParseGrid turns a raw feed grid into typed rows. Row 0 is the header
// and is discarded. Rows with fewer than the 8 expected cells are
// skipped; parsing continues with the next row. Amounts default to
// zero when unparseable.
func ParseGrid(grid [][]string) []core.FeedRow {
	if len(grid) < 2 {
		return nil
	}
	rows := make([]core.FeedRow, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		if len(cells) < core.FeedRowCells {
			continue
		}
		rows = append(rows, core.FeedRow{
			Date:      cells[0],
			Type:      core.FeedType(cells[1]),
			OwnerCode: cells[2],
			Category:  cells[3],
			Amount:    core.ParseFeedAmount(cells[4]),
			Account:   cells[5],
			Comment:   cells[6],
			MonthName: cells[7],
		})
	}
	return rows
}

// BuildMonths redistributes feed rows into a fresh twelve-bucket array.
// This is a full replace, never an incremental merge: calling it twice
// with the same rows yields the same buckets.
//
// Rows whose month name is not one of the twelve localized names are
// dropped silently; so are rows with an unknown type. Both are
// intentional filtering, not errors.
func BuildMonths(rows []core.FeedRow) [core.MonthsPerYear]core.MonthBucket {
	var months [core.MonthsPerYear]core.MonthBucket
	for _, r := range rows {
		idx, ok := core.MonthIndex(r.MonthName)
		if !ok {
			continue
		}
		owner := core.OwnerFromCode(r.OwnerCode)
		switch r.Type {
		case core.FeedTypeIncome:
			months[idx].Incomes = append(months[idx].Incomes, core.IncomeEntry{
				Source: r.Category,
				Amount: r.Amount,
				Owner:  owner,
			})
		case core.FeedTypeExpense:
			description := r.Comment
			if description == "" {
				description = r.Category
			}
			months[idx].Expenses = append(months[idx].Expenses, core.ExpenseEntry{
				Category:    r.Category,
				Amount:      r.Amount,
				Description: description,
				Owner:       owner,
				Kind:        core.KindVariable,
			})
		case core.FeedTypeSavings:
			months[idx].Savings = append(months[idx].Savings, core.SavingsEntry{
				Goal:   r.Category,
				Amount: r.Amount,
				Owner:  owner,
			})
		case core.FeedTypeHealth:
			months[idx].HealthRefunds = append(months[idx].HealthRefunds, core.HealthEntry{
				Description: r.Category,
				Amount:      r.Amount,
				Owner:       owner,
			})
		}
	}
	return months
}

// NewRow builds the feed row for a locally-entered value, stamped with
// the given time (ISO date plus localized month name).
func NewRow(t core.FeedType, owner core.Owner, category string, amount decimal.Decimal, account, comment string, monthIndex int, now time.Time) (core.FeedRow, error) {
	if monthIndex < 0 || monthIndex >= core.MonthsPerYear {
		return core.FeedRow{}, core.ErrInvalidMonth
	}
	return core.FeedRow{
		Date:      now.Format("2006-01-02"),
		Type:      t,
		OwnerCode: core.CodeFromOwner(owner),
		Category:  category,
		Amount:    amount,
		Account:   account,
		Comment:   comment,
		MonthName: core.MonthNames[monthIndex],
	}, nil
}

// Cells serializes a row to the positional shape POSTed to the feed.
func Cells(r core.FeedRow) []string {
	return []string{
		r.Date,
		string(r.Type),
		r.OwnerCode,
		r.Category,
		r.Amount.String(),
		r.Account,
		r.Comment,
		r.MonthName,
	}
}
