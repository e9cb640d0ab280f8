// Package postgres implements a Postgres-backed storage.Repository using pgx
// v5. Appends go through the COPY protocol, which is by far the fastest path
// for the flights fact table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"flightdb/internal/ddl"
	"flightdb/internal/storage"
)

// SQLSTATE for "duplicate_table".
const duplicateTableCode = "42P07"

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects a pgx pool for the given DSN.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// CreateTable issues a plain CREATE TABLE; SQLSTATE 42P07 maps onto
// storage.ErrTableExists.
func (r *Repository) CreateTable(ctx context.Context, def ddl.TableDef) error {
	stmt, err := ddl.Render(def, dialect())
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if _, err := r.pool.Exec(ctx, stmt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == duplicateTableCode {
			return fmt.Errorf("postgres: create %s: %w", def.Name, storage.ErrTableExists)
		}
		return fmt.Errorf("postgres: create %s: %w", def.Name, err)
	}
	return nil
}

// AppendRows streams rows via COPY.
func (r *Repository) AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: append %s: columns must not be empty", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{table},
		columns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}
	return n, nil
}

// ReplaceTable truncates the table and re-inserts via COPY. Used for
// auxiliary lookup tables only.
func (r *Repository) ReplaceTable(ctx context.Context, table string, columns []string, rows [][]any) error {
	if _, err := r.pool.Exec(ctx, "TRUNCATE TABLE "+quoteIdent(table)); err != nil {
		return fmt.Errorf("postgres: truncate %s: %w", table, err)
	}
	if _, err := r.AppendRows(ctx, table, columns, rows); err != nil {
		return err
	}
	return nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func dialect() ddl.Dialect {
	return ddl.Dialect{
		QuoteIdent: quoteIdent,
		MapType:    mapType,
	}
}

// mapType translates the logical types into Postgres column types. INTEGER
// widens to BIGINT so airport/carrier numeric ids never overflow.
func mapType(logical string, _ bool) string {
	switch logical {
	case ddl.TypeInteger:
		return "BIGINT"
	case ddl.TypeReal:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
