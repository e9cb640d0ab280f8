// Package mysql implements a MySQL-backed storage.Repository using
// go-sql-driver/mysql over database/sql. Appends run as batched
// parameterized INSERTs inside a transaction.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"flightdb/internal/ddl"
	"flightdb/internal/storage"
)

// MySQL error 1050: "Table '...' already exists".
const tableExistsNumber = 1050

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a MySQL connection for the given DSN
// (user:pass@tcp(host:3306)/dbname form).
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// CreateTable issues a plain CREATE TABLE; error 1050 maps onto
// storage.ErrTableExists.
func (r *Repository) CreateTable(ctx context.Context, def ddl.TableDef) error {
	stmt, err := ddl.Render(def, dialect())
	if err != nil {
		return fmt.Errorf("mysql: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == tableExistsNumber {
			return fmt.Errorf("mysql: create %s: %w", def.Name, storage.ErrTableExists)
		}
		return fmt.Errorf("mysql: create %s: %w", def.Name, err)
	}
	return nil
}

// AppendRows inserts rows transactionally with ? placeholders.
func (r *Repository) AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: append %s: columns must not be empty", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mysql: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mysql: append %s: row length %d != columns length %d", table, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mysql: insert into %s: %w", table, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("mysql: commit: %w", err)
	}
	return inserted, nil
}

// ReplaceTable clears the table and re-inserts. Used for auxiliary lookup
// tables only.
func (r *Repository) ReplaceTable(ctx context.Context, table string, columns []string, rows [][]any) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
		return fmt.Errorf("mysql: clear %s: %w", table, err)
	}
	if _, err := r.AppendRows(ctx, table, columns, rows); err != nil {
		return err
	}
	return nil
}

func (r *Repository) Close() error { return r.db.Close() }

func dialect() ddl.Dialect {
	return ddl.Dialect{
		QuoteIdent: quoteIdent,
		MapType:    mapType,
	}
}

// mapType translates the logical types into MySQL column types. TEXT primary
// keys get a bounded VARCHAR because TEXT columns cannot be primary keys
// without a prefix length.
func mapType(logical string, primaryKey bool) string {
	switch logical {
	case ddl.TypeInteger:
		return "BIGINT"
	case ddl.TypeReal:
		return "DOUBLE"
	default:
		if primaryKey {
			return "VARCHAR(255)"
		}
		return "TEXT"
	}
}

func quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
