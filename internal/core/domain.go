package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	OwnerPerson1 Owner = "personne1"
	OwnerPerson2 Owner = "personne2"
	OwnerShared  Owner = "partage"

	KindVariable ExpenseKind = "variable"
	KindFixed    ExpenseKind = "fixe"

	FeedTypeIncome  FeedType = "revenu"
	FeedTypeExpense FeedType = "dépense"
	FeedTypeSavings FeedType = "épargne"
	FeedTypeHealth  FeedType = "santé"

	// FeedRowCells is the number of positional cells in one feed row.
	FeedRowCells = 8

	// MaxBankAccounts bounds the account list; enforced at the edit
	// boundary, not inside the store.
	MaxBankAccounts = 16

	MonthsPerYear = 12
)

// MonthNames holds the localized month names used by the tabular feed.
// Matching is exact; rows carrying anything else are dropped.
var MonthNames = [MonthsPerYear]string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

type (
	Owner       string
	ExpenseKind string
	FeedType    string

	Person struct {
		Name  string `json:"nom"`
		Color string `json:"couleur"`
		Photo string `json:"photo,omitempty"`
	}

	Persons struct {
		Person1 Person `json:"personne1"`
		Person2 Person `json:"personne2"`
	}

	IncomeEntry struct {
		ID     string          `json:"id,omitempty"`
		Source string          `json:"source"`
		Amount decimal.Decimal `json:"montant"`
		Owner  Owner           `json:"personne"`
	}

	ExpenseEntry struct {
		ID          string          `json:"id,omitempty"`
		Category    string          `json:"categorie"`
		Amount      decimal.Decimal `json:"montant"`
		Description string          `json:"description"`
		Owner       Owner           `json:"personne"`
		Kind        ExpenseKind     `json:"type"`
		// RecurrenceID ties together the twelve copies of a fixed
		// expense; empty for variable and feed-imported entries.
		RecurrenceID string `json:"recurrence_id,omitempty"`
	}

	SavingsEntry struct {
		ID     string          `json:"id,omitempty"`
		Goal   string          `json:"objectif"`
		Amount decimal.Decimal `json:"montant"`
		Owner  Owner           `json:"personne"`
	}

	HealthEntry struct {
		ID          string          `json:"id,omitempty"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"montant"`
		Owner       Owner           `json:"personne"`
		Reimbursed  bool            `json:"rembourse"`
	}

	BankAccount struct {
		ID      string          `json:"id"`
		Name    string          `json:"nom"`
		Balance decimal.Decimal `json:"solde"`
		Color   string          `json:"couleur"`
	}

	// MonthBucket holds the four entry collections of one calendar
	// month. Order within a collection is insertion order.
	MonthBucket struct {
		Incomes       []IncomeEntry  `json:"revenus"`
		Expenses      []ExpenseEntry `json:"depenses"`
		Savings       []SavingsEntry `json:"epargne"`
		HealthRefunds []HealthEntry  `json:"remboursementsSante"`
	}

	// Snapshot is the complete budget state for one year: both
	// partners, currency, twelve buckets and the account list.
	Snapshot struct {
		Persons      Persons                    `json:"personnes"`
		Currency     string                     `json:"devise"`
		Months       [MonthsPerYear]MonthBucket `json:"mois"`
		BankAccounts []BankAccount              `json:"comptesBancaires"`
	}

	// FeedRow is one flat record as exchanged with the external
	// tabular feed. Fields are positional on the wire.
	FeedRow struct {
		Date      string
		Type      FeedType
		OwnerCode string
		Category  string
		Amount    decimal.Decimal
		Account   string
		Comment   string
		MonthName string
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidOwner     = errors.New("invalid owner")
	ErrInvalidKind      = errors.New("invalid expense kind")
	ErrInvalidMonth     = errors.New("invalid month index")
	ErrEmptyLabel       = errors.New("empty label")
	ErrEmptyDescription = errors.New("empty description")
)

// DefaultSnapshot returns the state used before any data exists:
// placeholder partners, euro currency, twelve empty buckets and the
// two starter accounts.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Persons: Persons{
			Person1: Person{Name: "Partenaire 1", Color: "#3B82F6"},
			Person2: Person{Name: "Partenaire 2", Color: "#10B981"},
		},
		Currency: "€",
		BankAccounts: []BankAccount{
			{ID: "1", Name: "Compte Principal", Balance: decimal.Zero, Color: "#3B82F6"},
			{ID: "2", Name: "Compte Épargne", Balance: decimal.Zero, Color: "#10B981"},
		},
	}
}

// MonthIndex resolves a localized month name to its 0-based index.
func MonthIndex(name string) (int, bool) {
	for i, n := range MonthNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// OwnerFromCode maps a feed partner code to an owner tag.
// "1" and "2" map to the two partners, anything else is shared.
func OwnerFromCode(code string) Owner {
	switch strings.TrimSpace(code) {
	case "1":
		return OwnerPerson1
	case "2":
		return OwnerPerson2
	default:
		return OwnerShared
	}
}

// CodeFromOwner is the inverse mapping used when writing feed rows.
func CodeFromOwner(o Owner) string {
	switch o {
	case OwnerPerson1:
		return "1"
	case OwnerPerson2:
		return "2"
	default:
		return "partagé"
	}
}

func (o Owner) Valid() bool {
	switch o {
	case OwnerPerson1, OwnerPerson2, OwnerShared:
		return true
	}
	return false
}

// Personal reports whether the owner is one of the two partners.
func (o Owner) Personal() bool {
	return o == OwnerPerson1 || o == OwnerPerson2
}

func (k ExpenseKind) Valid() bool {
	return k == KindVariable || k == KindFixed
}

func (t FeedType) Valid() bool {
	switch t {
	case FeedTypeIncome, FeedTypeExpense, FeedTypeSavings, FeedTypeHealth:
		return true
	}
	return false
}

func (e IncomeEntry) Validate() error {
	if strings.TrimSpace(e.Source) == "" {
		return ErrEmptyLabel
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !e.Owner.Personal() {
		return ErrInvalidOwner
	}
	return nil
}

func (e ExpenseEntry) Validate() error {
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyLabel
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !e.Owner.Valid() {
		return ErrInvalidOwner
	}
	if !e.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (e SavingsEntry) Validate() error {
	if strings.TrimSpace(e.Goal) == "" {
		return ErrEmptyLabel
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !e.Owner.Valid() {
		return ErrInvalidOwner
	}
	return nil
}

func (e HealthEntry) Validate() error {
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !e.Owner.Personal() {
		return ErrInvalidOwner
	}
	return nil
}

// SameFixedSeries reports whether two expenses belong to the same
// fixed-expense series. Entries carrying a recurrence id are matched
// on it; otherwise matching falls back to the structural key used by
// the tabular feed (description + fixed kind + owner).
func SameFixedSeries(a, b ExpenseEntry) bool {
	if a.Kind != KindFixed || b.Kind != KindFixed {
		return false
	}
	if a.RecurrenceID != "" && b.RecurrenceID != "" {
		return a.RecurrenceID == b.RecurrenceID
	}
	return a.Description == b.Description && a.Owner == b.Owner
}

// Clone returns a deep copy of the bucket.
func (b MonthBucket) Clone() MonthBucket {
	return MonthBucket{
		Incomes:       append([]IncomeEntry(nil), b.Incomes...),
		Expenses:      append([]ExpenseEntry(nil), b.Expenses...),
		Savings:       append([]SavingsEntry(nil), b.Savings...),
		HealthRefunds: append([]HealthEntry(nil), b.HealthRefunds...),
	}
}

// Clone returns a deep copy of the snapshot. Callers receive clones so
// external code can never mutate the store's state in place.
func (s Snapshot) Clone() Snapshot {
	out := s
	for i := range s.Months {
		out.Months[i] = s.Months[i].Clone()
	}
	out.BankAccounts = append([]BankAccount(nil), s.BankAccounts...)
	return out
}
