// Package mssql implements a SQL Server-backed storage.Repository using
// go-mssqldb over database/sql. Appends run as batched parameterized INSERTs
// inside a transaction.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"flightdb/internal/ddl"
	"flightdb/internal/storage"
)

// SQL Server error 2714: "There is already an object named '...' in the database."
const objectExistsNumber = 2714

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository validates the DSN eagerly and opens a connection.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql: dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// CreateTable issues a plain CREATE TABLE; error 2714 maps onto
// storage.ErrTableExists.
func (r *Repository) CreateTable(ctx context.Context, def ddl.TableDef) error {
	stmt, err := ddl.Render(def, dialect())
	if err != nil {
		return fmt.Errorf("mssql: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		var msErr mssql.Error
		if errors.As(err, &msErr) && msErr.Number == objectExistsNumber {
			return fmt.Errorf("mssql: create %s: %w", def.Name, storage.ErrTableExists)
		}
		return fmt.Errorf("mssql: create %s: %w", def.Name, err)
	}
	return nil
}

// AppendRows inserts rows transactionally with @p placeholders.
func (r *Repository) AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mssql: append %s: columns must not be empty", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mssql: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mssql: append %s: row length %d != columns length %d", table, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("mssql: insert into %s: %w", table, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("mssql: commit: %w", err)
	}
	return inserted, nil
}

// ReplaceTable clears the table and re-inserts. Used for auxiliary lookup
// tables only.
func (r *Repository) ReplaceTable(ctx context.Context, table string, columns []string, rows [][]any) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
		return fmt.Errorf("mssql: clear %s: %w", table, err)
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

// mapType translates the logical types into SQL Server column types. TEXT
// primary keys become a bounded NVARCHAR because NVARCHAR(MAX) cannot be
// indexed.
func mapType(logical string, primaryKey bool) string {
	switch logical {
	case ddl.TypeInteger:
		return "BIGINT"
	case ddl.TypeReal:
		return "FLOAT"
	default:
		if primaryKey {
			return "NVARCHAR(450)"
		}
		return "NVARCHAR(MAX)"
	}
}

func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
