// Package sqlite persists the budget snapshot in an embedded SQLite
// database, one settings row plus flat bank_accounts and budget_entries
// tables.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"foyer/internal/budget"
	"foyer/internal/core"
)

const (
	rowTypeIncome  = "revenu"
	rowTypeExpense = "depense"
	rowTypeSavings = "epargne"
	rowTypeHealth  = "sante"
)

type Store struct {
	db *sql.DB
}

var _ budget.Persister = (*Store)(nil)

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save replaces the whole stored snapshot in a single transaction.
func (s *Store) Save(ctx context.Context, snap core.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM budget_entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bank_accounts`); err != nil {
		return fmt.Errorf("clear accounts: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_settings (id, devise, personne1_nom, personne1_couleur, personne1_photo, personne2_nom, personne2_couleur, personne2_photo)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			devise = excluded.devise,
			personne1_nom = excluded.personne1_nom,
			personne1_couleur = excluded.personne1_couleur,
			personne1_photo = excluded.personne1_photo,
			personne2_nom = excluded.personne2_nom,
			personne2_couleur = excluded.personne2_couleur,
			personne2_photo = excluded.personne2_photo`,
		snap.Currency,
		snap.Persons.Person1.Name, snap.Persons.Person1.Color, snap.Persons.Person1.Photo,
		snap.Persons.Person2.Name, snap.Persons.Person2.Color, snap.Persons.Person2.Photo,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	for pos, acc := range snap.BankAccounts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bank_accounts (id, nom, solde, couleur, position)
			VALUES (?, ?, ?, ?, ?)`,
			acc.ID, acc.Name, acc.Balance.String(), acc.Color, pos)
		if err != nil {
			return fmt.Errorf("save account %q: %w", acc.Name, err)
		}
	}

	insert := func(month, pos int, rowType, entryID string, owner core.Owner,
		category, amount, description, expenseType, recurrenceID string, reimbursed bool) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO budget_entries (entry_id, mois, type, personne, categorie, montant, description, expense_type, recurrence_id, rembourse, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entryID, month, rowType, string(owner), category, amount,
			description, expenseType, recurrenceID, boolToInt(reimbursed), pos)
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

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load rebuilds the snapshot from the three tables. A database without
// a settings row has never been saved to.
func (s *Store) Load(ctx context.Context) (core.Snapshot, bool, error) {
	var snap core.Snapshot

	row := s.db.QueryRowContext(ctx, `
		SELECT devise, personne1_nom, personne1_couleur, personne1_photo, personne2_nom, personne2_couleur, personne2_photo
		FROM user_settings WHERE id = 1`)
	err := row.Scan(&snap.Currency,
		&snap.Persons.Person1.Name, &snap.Persons.Person1.Color, &snap.Persons.Person1.Photo,
		&snap.Persons.Person2.Name, &snap.Persons.Person2.Color, &snap.Persons.Person2.Photo)
	if err == sql.ErrNoRows {
		return core.Snapshot{}, false, nil
	}
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("load settings: %w", err)
	}

	accounts, err := s.db.QueryContext(ctx, `
		SELECT id, nom, solde, couleur FROM bank_accounts ORDER BY position`)
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

	entries, err := s.db.QueryContext(ctx, `
		SELECT entry_id, mois, type, personne, categorie, montant, description, expense_type, recurrence_id, rembourse
		FROM budget_entries ORDER BY mois, position`)
	if err != nil {
		return core.Snapshot{}, false, fmt.Errorf("load entries: %w", err)
	}
	defer entries.Close()
	for entries.Next() {
		var (
			entryID, rowType, owner, category, amount string
			description, expenseType, recurrenceID    string
			month, reimbursed                         int
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
				Reimbursed: reimbursed != 0,
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
