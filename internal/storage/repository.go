package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"salestree/internal/core"
	"salestree/internal/journal"
)

// SQLiteRepository is the durable journal store. It implements both
// integration styles of the store contract: bulk replace and row-level
// mutation. Row IDs are UUIDs assigned on insert.
type SQLiteRepository struct {
	db *sql.DB
}

var _ journal.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = `id, doc_date, doc_no, doc_type, counterparty, description,
	category, gl_code, amount_net, vat_amount, amount_gross,
	payment_method, bank_account, status, payment_date`

// LoadAll reads the whole journal ordered by document date. Gross amounts
// are repaired on the way out.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY doc_date, id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t.Normalized())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// ReplaceAll overwrites the journal in one database transaction. Rows
// without an ID get one assigned.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, txs []core.Transaction) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace-all: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for _, t := range txs {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if err := insertRow(ctx, dbtx, t); err != nil {
			return err
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit replace-all: %w", err)
	}

	slog.InfoContext(ctx, "Journal replaced", "rows", len(txs))
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, t core.Transaction) (string, error) {
	t.ID = uuid.NewString()
	if err := insertRow(ctx, r.db, t); err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"doc_type", string(t.DocType),
		"counterparty", t.Counterparty,
		"amount_gross", t.AmountGross.String())
	return t.ID, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET
			doc_date = ?, doc_no = ?, doc_type = ?, counterparty = ?,
			description = ?, category = ?, gl_code = ?,
			amount_net = ?, vat_amount = ?, amount_gross = ?,
			payment_method = ?, bank_account = ?, status = ?, payment_date = ?,
			updated_at = ?
		WHERE id = ?`,
		t.DocDate.String(), t.DocNo, string(t.DocType), t.Counterparty,
		t.Description, t.Category, t.GLCode,
		t.AmountNet.String(), t.VATAmount.String(), t.AmountGross.String(),
		string(t.PaymentMethod), t.BankAccount, string(t.Status), t.PaymentDate.String(),
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rows affected: %w", err)
	}
	if affected == 0 {
		return journal.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return journal.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// Get retrieves a single transaction by ID. The sync worker uses this to
// fetch the full row referenced by a queue message.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, journal.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return t.Normalized(), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRow(ctx context.Context, db execer, t core.Transaction) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.DocDate.String(), t.DocNo, string(t.DocType), t.Counterparty,
		t.Description, t.Category, t.GLCode,
		t.AmountNet.String(), t.VATAmount.String(), t.AmountGross.String(),
		string(t.PaymentMethod), t.BankAccount, string(t.Status), t.PaymentDate.String())
	if err != nil {
		return fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                      core.Transaction
		docDate, paymentDate   string
		docType, method, state string
		net, vat, gross        string
	)
	err := row.Scan(&t.ID, &docDate, &t.DocNo, &docType, &t.Counterparty,
		&t.Description, &t.Category, &t.GLCode, &net, &vat, &gross,
		&method, &t.BankAccount, &state, &paymentDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.DocType = core.DocType(docType)
	t.PaymentMethod = core.PaymentMethod(method)
	t.Status = core.Status(state)

	if t.DocDate, err = parseStoredDate(docDate); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: doc_date: %w", t.ID, err)
	}
	if paymentDate != "" {
		if t.PaymentDate, err = parseStoredDate(paymentDate); err != nil {
			return core.Transaction{}, fmt.Errorf("transaction %s: payment_date: %w", t.ID, err)
		}
	}
	if t.AmountNet, err = decimal.NewFromString(net); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: amount_net: %w", t.ID, err)
	}
	if t.VATAmount, err = decimal.NewFromString(vat); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: vat_amount: %w", t.ID, err)
	}
	if t.AmountGross, err = decimal.NewFromString(gross); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: amount_gross: %w", t.ID, err)
	}
	return t, nil
}

func parseStoredDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, err
	}
	return core.Date{Time: t}, nil
}
