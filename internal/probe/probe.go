// Package probe samples the head of an On-Time Performance CSV and reports
// how its columns would be typed and partitioned, without touching storage.
// It exists to sanity-check a new monthly file before committing to a full
// ingestion run, since the first batch fixes the schema for good.
package probe

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"flightdb/internal/ddl"
	"flightdb/internal/parser/csv"
	"flightdb/internal/schema"
)

// Options control sampling.
type Options struct {
	// Path is the CSV file to sample.
	Path string

	// MaxBytes bounds how much of the file is read; 1 MiB when zero. The
	// sample is truncated to the last complete line.
	MaxBytes int
}

// Column is one probed column.
type Column struct {
	Name  string // scrubbed header name
	Type  string // inferred logical type
	Group string // "time_period", "airlines", "airports", "flights", or "" for unclaimed
}

// Report is the result of probing one file.
type Report struct {
	Columns    []Column
	SampleRows int

	// PartitionErr is non-nil when the sampled columns cannot form the
	// four-table schema (a claimed column is missing).
	PartitionErr error
}

// Run samples the file and builds a Report.
func Run(opt Options) (*Report, error) {
	if opt.Path == "" {
		return nil, fmt.Errorf("probe: path is required")
	}
	if opt.MaxBytes <= 0 {
		opt.MaxBytes = 1 << 20
	}

	f, err := os.Open(opt.Path)
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	defer f.Close()

	sample, err := io.ReadAll(&io.LimitedReader{R: f, N: int64(opt.MaxBytes)})
	if err != nil {
		return nil, fmt.Errorf("probe: read sample: %w", err)
	}
	// Drop the trailing partial line a byte-bounded read usually ends in.
	if i := bytes.LastIndexByte(sample, '\n'); i > 0 {
		sample = sample[:i+1]
	}

	p := csv.NewParser(csv.Options{TrimSpace: true})
	rows, cols, err := p.Parse(bytes.NewReader(sample))
	if err != nil {
		return nil, fmt.Errorf("probe: %w", err)
	}
	for i, c := range cols {
		cols[i] = scrubHeader(c)
	}

	defs := ddl.InferColumns(cols, rows, "")
	byName := make(map[string]string, len(defs))
	for _, d := range defs {
		byName[d.Name] = d.Type
	}

	rep := &Report{SampleRows: len(rows)}
	groups := map[string]string{}
	s, perr := schema.Derive(cols)
	rep.PartitionErr = perr
	if perr == nil {
		for _, c := range s.TimeColumns {
			groups[c] = schema.TableTimePeriod
		}
		for _, c := range s.AirlineColumns {
			groups[c] = schema.TableAirlines
		}
		for _, ac := range s.AirportColumns {
			groups[ac.Origin] = schema.TableAirports
			groups[ac.Dest] = schema.TableAirports
		}
		// Flight membership wins the display for the shared id columns.
		for _, c := range s.FlightColumns {
			groups[c] = schema.TableFlights
		}
	}
	for _, c := range cols {
		rep.Columns = append(rep.Columns, Column{Name: c, Type: byName[c], Group: groups[c]})
	}
	return rep, nil
}

// Summary renders the report, one column per line, grouped.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sampled %d rows, %d columns\n", r.SampleRows, len(r.Columns))
	if r.PartitionErr != nil {
		fmt.Fprintf(&b, "partition: %v\n", r.PartitionErr)
	}
	cols := append([]Column(nil), r.Columns...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Group < cols[j].Group })
	for _, c := range cols {
		group := c.Group
		if group == "" {
			group = "-"
		}
		fmt.Fprintf(&b, "%-12s %-8s %s\n", group, c.Type, c.Name)
	}
	return b.String()
}

// scrubHeader strips accents and anything that cannot appear in an SQL
// identifier, preserving case so names still match the claim lists.
func scrubHeader(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
		default:
			// drop anything else
		}
	}
	return b.String()
}
