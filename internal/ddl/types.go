// Package ddl defines a small, backend-agnostic model for table definitions
// and infers column types from a sample batch of records.
//
// Logical types are deliberately narrow (INTEGER, REAL, TEXT) and mirror the
// scalar kinds the CSV parser produces. Backend packages map them into their
// own dialect and render CREATE TABLE statements via Render.
package ddl

import (
	"fmt"
	"strings"
)

// Logical column types. Backends translate these via their MapType.
const (
	TypeInteger = "INTEGER"
	TypeReal    = "REAL"
	TypeText    = "TEXT"
)

// ColumnDef describes one column of a table definition.
type ColumnDef struct {
	Name       string
	Type       string // one of TypeInteger, TypeReal, TypeText
	PrimaryKey bool
}

// TableDef is an ordered table definition. Name is emitted unqualified;
// schema qualification, quoting and type mapping happen at render time.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}

// ColumnNames returns the column names in definition order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Dialect carries the two backend-specific knobs the renderer needs.
type Dialect struct {
	// QuoteIdent quotes a single identifier. When nil, identifiers are
	// emitted as-is.
	QuoteIdent func(string) string

	// MapType maps a logical type (and whether the column is a primary key)
	// into the backend column type. When nil, the logical type is used
	// verbatim.
	MapType func(logical string, primaryKey bool) string
}

// Render builds a CREATE TABLE statement for the given definition.
//
// The statement is a plain CREATE TABLE, without IF NOT EXISTS: table
// creation is best-effort, and backends classify the duplicate-table error
// so the caller can continue (see storage.ErrTableExists).
func Render(t TableDef, d Dialect) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: table %s has no columns", name)
	}

	quote := d.QuoteIdent
	if quote == nil {
		quote = func(s string) string { return s }
	}
	mapType := d.MapType
	if mapType == nil {
		mapType = func(logical string, _ bool) string { return logical }
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("ddl: table %s has a column with an empty name", name)
		}
		cols = append(cols, fmt.Sprintf("%s %s", quote(c.Name), mapType(c.Type, c.PrimaryKey)))
		if c.PrimaryKey {
			pks = append(pks, quote(c.Name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", quote(name), strings.Join(cols, ",\n  ")), nil
}
