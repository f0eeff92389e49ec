// Package sqlite provides the durable Store used outside of tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/genfin-dev/genfin/internal/model"
	"github.com/genfin-dev/genfin/internal/money"
	"github.com/genfin-dev/genfin/internal/store"
)

const dateFormat = time.RFC3339

// Store persists ledger state in a single SQLite file. Multi-row writes run
// inside one SQL transaction, which is what makes ApplyPostings and
// CommitReconciliation all-or-nothing.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path, enables WAL and
// foreign keys, and initializes the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// transact runs fn inside a transaction, rolling back on error.
func (s *Store) transact(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) SaveAccount(ctx context.Context, a model.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, type, balance_units, reconciled_units, scale, tax_line, description)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Type), a.Balance.Units(), a.LastReconciledBalance.Units(),
		a.Balance.Scale(), a.TaxLine, a.Description)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: account %d (%q)", store.ErrDuplicate, a.ID, a.Name)
		}
		return fmt.Errorf("saving account %d: %w", a.ID, err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id int) (model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, balance_units, reconciled_units, scale, tax_line, description
		 FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (s *Store) GetAccountByName(ctx context.Context, name string) (model.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, balance_units, reconciled_units, scale, tax_line, description
		 FROM accounts WHERE name = ?`, name)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (model.Account, error) {
	var (
		a                    model.Account
		typ                  string
		balUnits, reconUnits int64
		scale                int32
	)
	err := row.Scan(&a.ID, &a.Name, &typ, &balUnits, &reconUnits, &scale, &a.TaxLine, &a.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, store.ErrNotFound
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("scanning account: %w", err)
	}
	a.Type = model.AccountType(typ)
	a.Balance = money.New(balUnits, scale)
	a.LastReconciledBalance = money.New(reconUnits, scale)
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, balance_units, reconciled_units, scale, tax_line, description
		 FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var (
			a                    model.Account
			typ                  string
			balUnits, reconUnits int64
			scale                int32
		)
		if err := rows.Scan(&a.ID, &a.Name, &typ, &balUnits, &reconUnits, &scale, &a.TaxLine, &a.Description); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.Type = model.AccountType(typ)
		a.Balance = money.New(balUnits, scale)
		a.LastReconciledBalance = money.New(reconUnits, scale)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (model.Transaction, error) {
	txs, err := s.queryTransactions(ctx, `WHERE t.id = ?`, id.String())
	if err != nil {
		return model.Transaction{}, err
	}
	if len(txs) == 0 {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	return txs[0], nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID int) ([]model.Transaction, error) {
	return s.queryTransactions(ctx,
		`WHERE t.id IN (SELECT transaction_id FROM postings WHERE account_id = ?)`, accountID)
}

func (s *Store) ListApplied(ctx context.Context, appliesTo uuid.UUID) ([]model.Transaction, error) {
	return s.queryTransactions(ctx, `WHERE t.applies_to = ?`, appliesTo.String())
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET status = ? WHERE id = ?`, string(status), id.String())
	if err != nil {
		return fmt.Errorf("updating status of transaction %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	return nil
}

func (s *Store) queryTransactions(ctx context.Context, where string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT t.id, t.date, t.memo, t.kind, t.status, t.check_number, t.printed, t.cleared, t.reconciled, t.void_of, t.applies_to
		 FROM transactions t %s ORDER BY t.seq`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			tx                          model.Transaction
			id, date, voidOf, appliesTo string
			kind, status                string
		)
		if err := rows.Scan(&id, &date, &tx.Memo, &kind, &status, &tx.CheckNumber, &tx.Printed, &tx.Cleared, &tx.Reconciled, &voidOf, &appliesTo); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		if tx.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing transaction id %q: %w", id, err)
		}
		if tx.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("parsing transaction date %q: %w", date, err)
		}
		if voidOf != "" {
			if tx.VoidOf, err = uuid.Parse(voidOf); err != nil {
				return nil, fmt.Errorf("parsing void_of %q: %w", voidOf, err)
			}
		}
		if appliesTo != "" {
			if tx.AppliesTo, err = uuid.Parse(appliesTo); err != nil {
				return nil, fmt.Errorf("parsing applies_to %q: %w", appliesTo, err)
			}
		}
		tx.Kind = model.TransactionKind(kind)
		tx.Status = model.DocStatus(status)
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Postings, err = s.loadPostings(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadPostings(ctx context.Context, txID uuid.UUID) ([]model.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account_id, amount_units, scale, side FROM postings
		 WHERE transaction_id = ? ORDER BY idx`, txID.String())
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	var out []model.Posting
	for rows.Next() {
		var (
			p     model.Posting
			units int64
			scale int32
			side  string
		)
		if err := rows.Scan(&p.AccountID, &units, &scale, &side); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		p.Amount = money.New(units, scale)
		p.Side = model.Side(side)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ApplyPostings(ctx context.Context, tx model.Transaction, balances map[int]money.Money, statuses ...store.StatusUpdate) error {
	return s.transact(ctx, func(dbtx *sql.Tx) error {
		voidOf := ""
		if tx.VoidOf != uuid.Nil {
			voidOf = tx.VoidOf.String()
		}
		appliesTo := ""
		if tx.AppliesTo != uuid.Nil {
			appliesTo = tx.AppliesTo.String()
		}
		_, err := dbtx.ExecContext(ctx,
			`INSERT INTO transactions (id, seq, date, memo, kind, status, check_number, printed, cleared, reconciled, void_of, applies_to)
			 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tx.ID.String(), tx.Date.Format(dateFormat), tx.Memo, string(tx.Kind), string(tx.Status),
			tx.CheckNumber, tx.Printed, tx.Cleared, tx.Reconciled, voidOf, appliesTo)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: transaction %s", store.ErrDuplicate, tx.ID)
			}
			return fmt.Errorf("inserting transaction: %w", err)
		}

		for i, p := range tx.Postings {
			if _, err := dbtx.ExecContext(ctx,
				`INSERT INTO postings (transaction_id, idx, account_id, amount_units, scale, side)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				tx.ID.String(), i, p.AccountID, p.Amount.Units(), p.Amount.Scale(), string(p.Side)); err != nil {
				return fmt.Errorf("inserting posting %d: %w", i, err)
			}
		}

		for id, bal := range balances {
			res, err := dbtx.ExecContext(ctx,
				`UPDATE accounts SET balance_units = ? WHERE id = ?`, bal.Units(), id)
			if err != nil {
				return fmt.Errorf("updating balance of account %d: %w", id, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: account %d", store.ErrNotFound, id)
			}
		}

		for _, su := range statuses {
			res, err := dbtx.ExecContext(ctx,
				`UPDATE transactions SET status = ? WHERE id = ?`,
				string(su.Status), su.TransactionID.String())
			if err != nil {
				return fmt.Errorf("updating status of transaction %s: %w", su.TransactionID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: transaction %s", store.ErrNotFound, su.TransactionID)
			}
		}
		return nil
	})
}

func (s *Store) SetPrinted(ctx context.Context, ids []uuid.UUID) error {
	return s.transact(ctx, func(dbtx *sql.Tx) error {
		for _, id := range ids {
			res, err := dbtx.ExecContext(ctx,
				`UPDATE transactions SET printed = 1 WHERE id = ?`, id.String())
			if err != nil {
				return fmt.Errorf("marking transaction %s printed: %w", id, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
			}
		}
		return nil
	})
}

func (s *Store) CommitReconciliation(ctx context.Context, rec model.ReconciliationRecord) error {
	return s.transact(ctx, func(dbtx *sql.Tx) error {
		_, err := dbtx.ExecContext(ctx,
			`INSERT INTO reconciliations (id, account_id, statement_date, ending_units, cleared_net_units,
			 outstanding_checks_units, deposits_in_transit_units, difference_units, scale, succeeded, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID.String(), rec.AccountID, rec.StatementDate.Format(dateFormat),
			rec.StatementEndingBalance.Units(), rec.ClearedNet.Units(),
			rec.OutstandingChecksTotal.Units(), rec.DepositsInTransitTotal.Units(),
			rec.Difference.Units(), rec.StatementEndingBalance.Scale(), rec.Succeeded,
			rec.CreatedAt.Format(dateFormat))
		if err != nil {
			return fmt.Errorf("inserting reconciliation record: %w", err)
		}

		for _, txID := range rec.ClearedTransactionIDs {
			if _, err := dbtx.ExecContext(ctx,
				`INSERT INTO reconciliation_cleared (reconciliation_id, transaction_id) VALUES (?, ?)`,
				rec.ID.String(), txID.String()); err != nil {
				return fmt.Errorf("recording cleared transaction %s: %w", txID, err)
			}
			res, err := dbtx.ExecContext(ctx,
				`UPDATE transactions SET cleared = 1, reconciled = 1 WHERE id = ?`, txID.String())
			if err != nil {
				return fmt.Errorf("marking transaction %s reconciled: %w", txID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("%w: transaction %s", store.ErrNotFound, txID)
			}
		}

		res, err := dbtx.ExecContext(ctx,
			`UPDATE accounts SET reconciled_units = ? WHERE id = ?`,
			rec.StatementEndingBalance.Units(), rec.AccountID)
		if err != nil {
			return fmt.Errorf("updating last reconciled balance: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: account %d", store.ErrNotFound, rec.AccountID)
		}
		return nil
	})
}

func (s *Store) ReconciliationHistory(ctx context.Context, accountID int) ([]model.ReconciliationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, statement_date, ending_units, cleared_net_units, outstanding_checks_units,
		 deposits_in_transit_units, difference_units, scale, succeeded, created_at
		 FROM reconciliations WHERE account_id = ? ORDER BY created_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying reconciliation history: %w", err)
	}
	defer rows.Close()

	var out []model.ReconciliationRecord
	for rows.Next() {
		var (
			rec                                       model.ReconciliationRecord
			id, stmtDate, createdAt                   string
			ending, net, checks, deposits, difference int64
			scale                                     int32
		)
		if err := rows.Scan(&id, &rec.AccountID, &stmtDate, &ending, &net, &checks, &deposits,
			&difference, &scale, &rec.Succeeded, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning reconciliation record: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing reconciliation id %q: %w", id, err)
		}
		if rec.StatementDate, err = time.Parse(dateFormat, stmtDate); err != nil {
			return nil, fmt.Errorf("parsing statement date %q: %w", stmtDate, err)
		}
		if rec.CreatedAt, err = time.Parse(dateFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
		}
		rec.StatementEndingBalance = money.New(ending, scale)
		rec.ClearedNet = money.New(net, scale)
		rec.OutstandingChecksTotal = money.New(checks, scale)
		rec.DepositsInTransitTotal = money.New(deposits, scale)
		rec.Difference = money.New(difference, scale)

		if rec.ClearedTransactionIDs, err = s.loadClearedIDs(ctx, rec.ID); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) loadClearedIDs(ctx context.Context, recID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT transaction_id FROM reconciliation_cleared WHERE reconciliation_id = ?`, recID.String())
	if err != nil {
		return nil, fmt.Errorf("querying cleared transactions: %w", err)
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning cleared transaction id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing cleared transaction id %q: %w", raw, err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ store.Store = (*Store)(nil)
