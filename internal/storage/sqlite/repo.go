// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. Appends run as batched INSERTs inside a transaction; SQLite
// has no dedicated bulk-load API, but transactions keep performance
// acceptable for monthly-file volumes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"flightdb/internal/ddl"
	"flightdb/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a SQLite database. The DSN is passed directly to the
// driver, e.g. "file:flights.db?cache=shared" or a bare path.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// CreateTable issues a plain CREATE TABLE and maps the driver's duplicate
// table error onto storage.ErrTableExists.
func (r *Repository) CreateTable(ctx context.Context, def ddl.TableDef) error {
	stmt, err := ddl.Render(def, dialect())
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("sqlite: create %s: %w", def.Name, storage.ErrTableExists)
		}
		return fmt.Errorf("sqlite: create %s: %w", def.Name, err)
	}
	return nil
}

// AppendRows inserts rows in a single transaction using one prepared
// multi-placeholder INSERT.
func (r *Repository) AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: append %s: columns must not be empty", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	quoted := make([]string, len(columns))
	for i, c := range columns {
		placeholders[i] = "?"
		quoted[i] = quoteIdent(c)
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: append %s: row length %d != columns length %d", table, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("sqlite: insert into %s: %w", table, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// ReplaceTable clears the table and appends the given rows, both inside the
// caller's run. Used for auxiliary lookup tables only.
func (r *Repository) ReplaceTable(ctx context.Context, table string, columns []string, rows [][]any) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
		return fmt.Errorf("sqlite: clear %s: %w", table, err)
	}
	if _, err := r.AppendRows(ctx, table, columns, rows); err != nil {
		return err
	}
	return nil
}

func (r *Repository) Close() error { return r.db.Close() }

// dialect adapts the generic renderer to SQLite. Logical types are already
// valid SQLite affinities, so the mapping is the identity.
func dialect() ddl.Dialect {
	return ddl.Dialect{
		QuoteIdent: quoteIdent,
		MapType:    func(logical string, _ bool) string { return logical },
	}
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
