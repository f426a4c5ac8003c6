package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"foyer/internal/budget"
	"foyer/internal/core"
)

const (
	rowTypeIncome  = "revenu"
	rowTypeExpense = "depense"
	rowTypeSavings = "epargne"
	rowTypeHealth  = "sante"
)

// Store persists one user's snapshot. All queries carry the user id so
// tenants never see each other's rows.
type Store struct {
	db     *pgxpool.Pool
	userID string
}

var _ budget.Persister = (*Store)(nil)

func NewForUser(db *pgxpool.Pool, userID string) *Store {
	return &Store{db: db, userID: userID}
}

// Save replaces the user's stored snapshot in a single transaction.
func (s *Store) Save(ctx context.Context, snap core.Snapshot) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM budget_entries WHERE user_id = $1`, s.userID); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM bank_accounts WHERE user_id = $1`, s.userID); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_settings (user_id, devise, personne1_nom, personne1_couleur, personne1_photo, personne2_nom, personne2_couleur, personne2_photo, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (user_id) DO UPDATE SET
			devise = EXCLUDED.devise,
			personne1_nom = EXCLUDED.personne1_nom,
			personne1_couleur = EXCLUDED.personne1_couleur,
			personne1_photo = EXCLUDED.personne1_photo,
			personne2_nom = EXCLUDED.personne2_nom,
			personne2_couleur = EXCLUDED.personne2_couleur,
			personne2_photo = EXCLUDED.personne2_photo,
			updated_at = now()`,
		s.userID, snap.Currency,
		snap.Persons.Person1.Name, snap.Persons.Person1.Color, snap.Persons.Person1.Photo,
		snap.Persons.Person2.Name, snap.Persons.Person2.Color, snap.Persons.Person2.Photo,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	for pos, acc := range snap.BankAccounts {
		_, err := tx.Exec(ctx, `
			INSERT INTO bank_accounts (user_id, id, nom, solde, couleur, position)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			s.userID, acc.ID, acc.Name, acc.Balance.String(), acc.Color, pos)
		if err != nil {
			return fmt.Errorf("save account %q: %w", acc.Name, err)
		}
	}

	insert := func(month, pos int, rowType, entryID string, owner core.Owner,
		category, amount, description, expenseType, recurrenceID string, reimbursed bool) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO budget_entries (user_id, entry_id, mois, type, personne, categorie, montant, description, expense_type, recurrence_id, rembourse, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			s.userID, entryID, month, rowType, string(owner), category, amount,
			description, expenseType, recurrenceID, reimbursed, pos)
		return err
	}

	for m := range snap.Months {
		bucket := snap.Months[m]
		for i, e := range bucket.Incomes {
			if err := insert(m, i, rowTypeIncome, e.ID, e.Owner, e.Source, e.Amount.String(), "", "", "", false); err != nil {
				return fmt.Errorf("save income: %w", err)
			}
		}
		for i, e := range bucket.Expenses {
			if err := insert(m, i, rowTypeExpense, e.ID, e.Owner, e.Category, e.Amount.String(), e.Description, string(e.Kind), e.RecurrenceID, false); err != nil {
				return fmt.Errorf("save expense: %w", err)
			}
		}
		for i, e := range bucket.Savings {
			if err := insert(m, i, rowTypeSavings, e.ID, e.Owner, e.Goal, e.Amount.String(), "", "", "", false); err != nil {
				return fmt.Errorf("save savings: %w", err)
			}
		}
		for i, e := range bucket.HealthRefunds {
			if err := insert(m, i, rowTypeHealth, e.ID, e.Owner, "", e.Amount.String(), e.Description, "", "", e.Reimbursed); err != nil {
				return fmt.Errorf("save health refund: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load rebuilds the user's snapshot. A user without a settings row has
// never saved anything.
func (s *Store) Load(ctx context.Context) (core.Snapshot, bool, error) {
	var snap core.Snapshot

	err := s.db.QueryRow(ctx, `
		SELECT devise, personne1_nom, personne1_couleur, personne1_photo, personne2_nom, personne2_couleur, personne2_photo
		FROM user_settings WHERE user_id = $1`, s.userID,
	).Scan(&snap.Currency,
		&snap.Persons.Person1.Name, &snap.Persons.Person1.Color, &snap.Persons.Person1.Photo,
		&snap.Persons.Person2.Name, &snap.Persons.Person2.Color, &snap.Persons.Person2.Photo)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("load settings: %w", err)
	}

	accounts, err := s.db.Query(ctx, `
		SELECT id, nom, solde::text, couleur
		FROM bank_accounts WHERE user_id = $1 ORDER BY position`, s.userID)
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("load accounts: %w", err)
	}
	defer accounts.Close()
	for accounts.Next() {
		var acc core.BankAccount
		var balance string
		if err := accounts.Scan(&acc.ID, &acc.Name, &balance, &acc.Color); err != nil {
			return core.Snapshot{}, false, fmt.Errorf("scan account: %w", err)
		}
		acc.Balance, err = decimal.NewFromString(balance)
		if err != nil {
			return core.Snapshot{}, false, fmt.Errorf("account balance %q: %w", balance, err)
		}
		snap.BankAccounts = append(snap.BankAccounts, acc)
	}
	if err := accounts.Err(); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("iterate accounts: %w", err)
	}

	entries, err := s.db.Query(ctx, `
		SELECT entry_id, mois, type, personne, categorie, montant::text, description, expense_type, recurrence_id, rembourse
		FROM budget_entries WHERE user_id = $1 ORDER BY mois, position`, s.userID)
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("load entries: %w", err)
	}
	defer entries.Close()
	for entries.Next() {
		var (
			entryID, rowType, owner, category, amount string
			description, expenseType, recurrenceID    string
			month                                     int
			reimbursed                                bool
		)
		if err := entries.Scan(&entryID, &month, &rowType, &owner, &category, &amount,
			&description, &expenseType, &recurrenceID, &reimbursed); err != nil {
			return core.Snapshot{}, false, fmt.Errorf("scan entry: %w", err)
		}
		if month < 0 || month >= core.MonthsPerYear {
			return core.Snapshot{}, false, fmt.Errorf("entry month out of range: %d", month)
		}
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return core.Snapshot{}, false, fmt.Errorf("entry amount %q: %w", amount, err)
		}

		bucket := &snap.Months[month]
		switch rowType {
		case rowTypeIncome:
			bucket.Incomes = append(bucket.Incomes, core.IncomeEntry{
				ID: entryID, Source: category, Amount: amt, Owner: core.Owner(owner),
			})
		case rowTypeExpense:
			bucket.Expenses = append(bucket.Expenses, core.ExpenseEntry{
				ID: entryID, Category: category, Amount: amt, Description: description,
				Owner: core.Owner(owner), Kind: core.ExpenseKind(expenseType), RecurrenceID: recurrenceID,
			})
		case rowTypeSavings:
			bucket.Savings = append(bucket.Savings, core.SavingsEntry{
				ID: entryID, Goal: category, Amount: amt, Owner: core.Owner(owner),
			})
		case rowTypeHealth:
			bucket.HealthRefunds = append(bucket.HealthRefunds, core.HealthEntry{
				ID: entryID, Description: description, Amount: amt, Owner: core.Owner(owner),
				Reimbursed: reimbursed,
			})
		default:
			return core.Snapshot{}, false, fmt.Errorf("unknown entry type %q", rowType)
		}
	}
	if err := entries.Err(); err != nil {
		return core.Snapshot{}, false, fmt.Errorf("iterate entries: %w", err)
	}

	return snap, true, nil
}
