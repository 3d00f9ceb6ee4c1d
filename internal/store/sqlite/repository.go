// Package sqlite stores records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tracker/internal/core"
	"tracker/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Repository)(nil)

const (
	listExpenses  = `SELECT id, date, category, amount, comment FROM expenses ORDER BY rowid`
	getExpense    = `SELECT id, date, category, amount, comment FROM expenses WHERE id = ?`
	createExpense = `INSERT INTO expenses (id, date, category, amount, comment) VALUES (?, ?, ?, ?, ?)`
	updateExpense = `UPDATE expenses SET date = ?, category = ?, amount = ?, comment = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	deleteExpense = `DELETE FROM expenses WHERE id = ?`
)

// Repository keeps date and amount as the text they were written with so
// that malformed legacy values survive.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var id, date, category, amount, comment string
	if err := row.Scan(&id, &date, &category, &amount, &comment); err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:       id,
		Date:     core.ParseDate(date),
		Category: category,
		Amount:   core.ParseMoney(amount),
		Comment:  comment,
	}, nil
}

func (r *Repository) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) Get(ctx context.Context, id string) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, getExpense, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, store.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return e, nil
}

func (r *Repository) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = core.NewID()
	_, err := r.db.ExecContext(ctx, createExpense,
		e.ID, e.Date.String(), e.Category, e.Amount.String(), e.Comment)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"category", e.Category,
		"amount", e.Amount.String(),
		"date", e.Date.String())
	return e, nil
}

func (r *Repository) Update(ctx context.Context, id string, p core.Patch) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanExpense(tx.QueryRowContext(ctx, getExpense, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, store.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}

	next := p.Apply(current)
	if _, err := tx.ExecContext(ctx, updateExpense,
		next.Date.String(), next.Category, next.Amount.String(), next.Comment, id); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit update: %w", err)
	}
	return next, nil
}

func (r *Repository) Delete(ctx context.Context, id string) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanExpense(tx.QueryRowContext(ctx, getExpense, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, store.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, deleteExpense, id); err != nil {
		return core.Expense{}, fmt.Errorf("delete expense %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Expense deleted from SQLite", "id", id)
	return current, nil
}
