// Package csv parses one monthly On-Time Performance export into a batch of
// records. A batch is read whole: the schema partition and type inference
// both need a full sample, and monthly files fit comfortably in memory.
//
// Column typing is decided per column over the entire batch, mirroring how
// the feed's columns behave in practice:
//
//   - every non-empty value parses as an integer -> int64
//   - every non-empty value parses as a number   -> float64
//   - otherwise                                  -> string
//
// Empty cells become nil regardless of the column's kind.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flightdb/pkg/records"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// Options configures the parser. Zero values give sensible defaults.
type Options struct {
	// Comma is the field delimiter; ',' when zero.
	Comma rune

	// TrimSpace trims leading/trailing spaces from every field value.
	TrimSpace bool

	// KeepUnnamed retains columns whose header starts with "Unnamed" or is
	// empty. The BTS exports carry a trailing unnamed column produced by a
	// trailing comma; by default it is dropped.
	KeepUnnamed bool
}

// Parser parses CSV input according to Options. A Parser is reusable across
// inputs but not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the full input and returns the typed rows plus the retained
// column names in header order. An input with no header is an error; an
// input with a header and no data rows yields an empty batch.
func (p *Parser) Parse(r io.Reader) ([]records.Record, []string, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("csv: input has no header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("csv: read header: %w", err)
	}

	cols := make([]string, 0, len(header))
	keep := make([]int, 0, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if !p.opt.KeepUnnamed && (h == "" || strings.HasPrefix(h, "Unnamed")) {
			continue
		}
		cols = append(cols, h)
		keep = append(keep, i)
	}
	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("csv: header has no usable columns")
	}

	// First pass: collect raw cells per retained column.
	var raw [][]string
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("csv: line %d: %w", line, err)
		}
		row := make([]string, len(keep))
		for j, idx := range keep {
			if idx >= len(rec) {
				return nil, nil, fmt.Errorf("csv: line %d: %d fields, header has %d", line, len(rec), len(header))
			}
			v := rec[idx]
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			row[j] = v
		}
		raw = append(raw, row)
	}

	// Second pass: settle one kind per column, then build records.
	kinds := make([]columnKind, len(cols))
	for j := range cols {
		kinds[j] = inferColumnKind(raw, j)
	}
	rows := make([]records.Record, 0, len(raw))
	for _, row := range raw {
		r := make(records.Record, len(cols))
		for j, name := range cols {
			r[name] = coerce(row[j], kinds[j])
		}
		rows = append(rows, r)
	}
	return rows, cols, nil
}

type columnKind int

const (
	kindText columnKind = iota
	kindInt
	kindReal
)

func inferColumnKind(raw [][]string, col int) columnKind {
	kind := kindInt
	sawValue := false
	for _, row := range raw {
		v := row[col]
		if v == "" {
			continue
		}
		sawValue = true
		if kind == kindInt {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			kind = kindReal
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return kindText
		}
	}
	if !sawValue {
		return kindText
	}
	return kind
}

func coerce(v string, kind columnKind) any {
	if v == "" {
		return nil
	}
	switch kind {
	case kindInt:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return v
		}
		return n
	case kindReal:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return v
		}
		return f
	default:
		return v
	}
}
