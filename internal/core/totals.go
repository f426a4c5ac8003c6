package core

import "github.com/shopspring/decimal"

// MonthTotals is the aggregate view of one bucket. Remaining is always
// income minus expenses minus savings, exactly.
type MonthTotals struct {
	Income    decimal.Decimal `json:"totalRevenus"`
	Expenses  decimal.Decimal `json:"totalDepenses"`
	Savings   decimal.Decimal `json:"totalEpargne"`
	Remaining decimal.Decimal `json:"restant"`
}

// ComputeMonthTotals sums a bucket's collections. Pure function: no
// side effects, same bucket in, same totals out.
func ComputeMonthTotals(b MonthBucket) MonthTotals {
	t := MonthTotals{
		Income:    decimal.Zero,
		Expenses:  decimal.Zero,
		Savings:   decimal.Zero,
		Remaining: decimal.Zero,
	}
	for _, e := range b.Incomes {
		t.Income = t.Income.Add(e.Amount)
	}
	for _, e := range b.Expenses {
		t.Expenses = t.Expenses.Add(e.Amount)
	}
	for _, e := range b.Savings {
		t.Savings = t.Savings.Add(e.Amount)
	}
	t.Remaining = t.Income.Sub(t.Expenses).Sub(t.Savings)
	return t
}
