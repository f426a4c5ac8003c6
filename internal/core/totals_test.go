package core

import "testing"

func TestComputeMonthTotals(t *testing.T) {
	b := MonthBucket{
		Incomes: []IncomeEntry{
			{Source: "Salaire", Amount: amt("2000"), Owner: OwnerPerson1},
			{Source: "Salaire", Amount: amt("1800.50"), Owner: OwnerPerson2},
		},
		Expenses: []ExpenseEntry{
			{Category: "Logement", Description: "Loyer", Amount: amt("950"), Owner: OwnerShared, Kind: KindFixed},
			{Category: "Alimentation", Description: "Courses", Amount: amt("312.45"), Owner: OwnerShared, Kind: KindVariable},
		},
		Savings: []SavingsEntry{
			{Goal: "Vacances", Amount: amt("300"), Owner: OwnerShared},
		},
		HealthRefunds: []HealthEntry{
			{Description: "Dentiste", Amount: amt("80"), Owner: OwnerPerson1},
		},
	}

	got := ComputeMonthTotals(b)
	if !got.Income.Equal(amt("3800.50")) {
		t.Fatalf("income: %s", got.Income)
	}
	if !got.Expenses.Equal(amt("1262.45")) {
		t.Fatalf("expenses: %s", got.Expenses)
	}
	if !got.Savings.Equal(amt("300")) {
		t.Fatalf("savings: %s", got.Savings)
	}
	// Health reimbursements never enter the totals.
	if !got.Remaining.Equal(got.Income.Sub(got.Expenses).Sub(got.Savings)) {
		t.Fatalf("remaining identity broken: %+v", got)
	}
	if !got.Remaining.Equal(amt("2238.05")) {
		t.Fatalf("remaining: %s", got.Remaining)
	}
}

func TestComputeMonthTotalsEmptyBucket(t *testing.T) {
	got := ComputeMonthTotals(MonthBucket{})
	for name, v := range map[string]string{
		"income":    got.Income.String(),
		"expenses":  got.Expenses.String(),
		"savings":   got.Savings.String(),
		"remaining": got.Remaining.String(),
	} {
		if v != "0" {
			t.Fatalf("%s: got %s want 0", name, v)
		}
	}
}

// Summing the variable and fixed subsets separately must equal the
// bucket-level expense total.
func TestExpensePartitionByKind(t *testing.T) {
	b := MonthBucket{
		Expenses: []ExpenseEntry{
			{Category: "a", Description: "a", Amount: amt("10.10"), Owner: OwnerPerson1, Kind: KindVariable},
			{Category: "b", Description: "b", Amount: amt("20.20"), Owner: OwnerPerson2, Kind: KindFixed},
			{Category: "c", Description: "c", Amount: amt("30.30"), Owner: OwnerShared, Kind: KindVariable},
			{Category: "d", Description: "d", Amount: amt("40.40"), Owner: OwnerShared, Kind: KindFixed},
		},
	}

	variable, fixed := amt("0"), amt("0")
	for _, e := range b.Expenses {
		if e.Kind == KindFixed {
			fixed = fixed.Add(e.Amount)
		} else {
			variable = variable.Add(e.Amount)
		}
	}

	total := ComputeMonthTotals(b).Expenses
	if !variable.Add(fixed).Equal(total) {
		t.Fatalf("partition: variable %s + fixed %s != total %s", variable, fixed, total)
	}
}
