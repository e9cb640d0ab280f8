// Package lookup ingests the auxiliary BTS lookup tables (small Code ->
// Description CSVs) alongside the normalized schema. Unlike the four core
// tables, a lookup table is replaced wholesale on every run.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"

	"flightdb/internal/ddl"
	"flightdb/internal/parser/csv"
	"flightdb/internal/storage"
)

// Ingest parses one lookup CSV and replaces the named table with its
// contents. The table is created on first use; an existing table keeps its
// shape and only its rows are replaced.
func Ingest(ctx context.Context, repo storage.Repository, table string, r io.Reader) error {
	p := csv.NewParser(csv.Options{TrimSpace: true})
	rows, cols, err := p.Parse(r)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", table, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("lookup %s: no rows", table)
	}

	def := ddl.TableDef{Name: table, Columns: ddl.InferColumns(cols, rows, "")}
	if err := repo.CreateTable(ctx, def); err != nil && !errors.Is(err, storage.ErrTableExists) {
		return fmt.Errorf("lookup %s: %w", table, err)
	}
	if err := repo.ReplaceTable(ctx, table, cols, storage.RowsToValues(rows, cols)); err != nil {
		return fmt.Errorf("lookup %s: %w", table, err)
	}
	return nil
}
