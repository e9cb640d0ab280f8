// Package storage contains the storage-agnostic contract consumed by the
// normalization pipeline, plus a registry through which concrete backends
// (sqlite, postgres, mssql, mysql) make themselves available.
//
// Backends register a factory under their kind at init time; callers import
// flightdb/internal/storage/all for side effects and resolve a Repository
// via New. This keeps the pipeline free of driver imports.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"flightdb/internal/ddl"
	"flightdb/pkg/records"
)

// ErrTableExists reports that CreateTable hit an existing table of the same
// name. Table creation is best-effort: callers are expected to log this and
// continue, assuming the existing table's shape is compatible.
var ErrTableExists = errors.New("table already exists")

// Repository is the storage collaborator the pipeline writes through.
//
// AppendRows must insert rows aligned to the given column order; no per-row
// validation is performed beyond length checks. ReplaceTable clears the
// table before inserting and is used only for auxiliary lookup tables.
type Repository interface {
	CreateTable(ctx context.Context, def ddl.TableDef) error
	AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	ReplaceTable(ctx context.Context, table string, columns []string, rows [][]any) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Kind names a registered backend: "sqlite", "postgres", "mssql", "mysql".
	Kind string

	// DSN is passed to the backend driver unchanged.
	DSN string
}

// Factory opens a Repository for a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a backend kind. It is
// called from backend packages' init functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = fn
}

// New resolves cfg.Kind against the registry and opens the backend.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind %q", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// RowsToValues converts records into positional value rows aligned to cols.
func RowsToValues(rows []records.Record, cols []string) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, records.Values(r, cols))
	}
	return out
}
