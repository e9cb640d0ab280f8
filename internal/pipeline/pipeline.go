// Package pipeline drives the incremental normalization of On-Time
// Performance batches into the four-table schema.
//
// The first batch fixes the schema: its columns are partitioned, types are
// inferred from its values, and the four tables are created (best-effort;
// an existing table is logged and assumed compatible). Every batch,
// including the first, then flows through ProcessBatch, which appends fact
// rows immediately and folds dimension rows into in-memory buffers. Flush
// de-duplicates and writes the buffers exactly once at the end of the run.
//
// A Pipeline owns its buffers and storage connection for the duration of
// one run; it is strictly sequential and not safe for concurrent use.
// Re-running over the same files duplicates flight rows (the fact table has
// no dedup key); callers that need exactly-once must de-duplicate flights
// externally.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"flightdb/internal/ddl"
	"flightdb/internal/dimension"
	"flightdb/internal/metrics"
	"flightdb/internal/schema"
	"flightdb/internal/storage"
	"flightdb/pkg/records"
)

// Pipeline is the per-run state: derived schema, dimension buffers, and the
// storage connection everything is written through.
type Pipeline struct {
	repo storage.Repository

	schema   *schema.Schema
	airports dimension.Buffer
	airlines dimension.Buffer
	periods  dimension.Buffer

	batches int
	flushed bool
}

// New returns a Pipeline writing through repo. The schema is derived lazily
// from the first batch handed to ProcessBatch.
func New(repo storage.Repository) *Pipeline {
	return &Pipeline{repo: repo}
}

// Schema returns the derived schema, or nil before the first batch.
func (p *Pipeline) Schema() *schema.Schema { return p.schema }

// ProcessBatch ingests one batch. cols must list the batch's columns in
// source order; every row must share that column set.
//
// On the first call the schema is derived from cols and the four tables are
// created with types inferred from rows. Subsequent batches are checked
// against the derived schema and fail hard when a column is missing.
func (p *Pipeline) ProcessBatch(ctx context.Context, rows []records.Record, cols []string) error {
	if p.flushed {
		return fmt.Errorf("pipeline: batch after flush")
	}
	p.batches++
	batch := p.batches

	if p.schema == nil {
		start := time.Now()
		err := p.bootstrap(ctx, rows, cols)
		metrics.RecordStep("create_tables", err, time.Since(start))
		if err != nil {
			return err
		}
	} else if err := p.schema.CheckBatch(cols); err != nil {
		return fmt.Errorf("pipeline: batch %d: %w", batch, err)
	}

	start := time.Now()
	err := p.normalize(ctx, rows, batch)
	metrics.RecordStep("batch", err, time.Since(start))
	if err != nil {
		return err
	}
	metrics.RecordBatch()
	return nil
}

// bootstrap derives the schema from the first batch and creates the tables.
func (p *Pipeline) bootstrap(ctx context.Context, sample []records.Record, cols []string) error {
	s, err := schema.Derive(cols)
	if err != nil {
		return fmt.Errorf("pipeline: first batch: %w", err)
	}
	p.schema = s
	p.airports = dimension.NewEager(schema.AirportKey)
	p.airlines = dimension.NewLazy(schema.AirlineKey)
	p.periods = dimension.NewLazy(schema.TimePeriodKey)

	for _, def := range p.tableDefs(sample) {
		err := p.repo.CreateTable(ctx, def)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrTableExists):
			// Best-effort create: assume the existing table is compatible.
			log.Printf("pipeline: table %s already exists, continuing", def.Name)
		default:
			return fmt.Errorf("pipeline: create table %s: %w", def.Name, err)
		}
	}
	return nil
}

// tableDefs builds the four table definitions from the sample batch. The
// airports table is typed from the destination-variant columns and renamed
// to the canonical airport schema.
func (p *Pipeline) tableDefs(sample []records.Record) []ddl.TableDef {
	s := p.schema

	airportDefs := ddl.InferColumns(s.DestVariantColumns(), sample, "DestAirportID")
	canonical := s.CanonicalAirportColumns()
	for i := range airportDefs {
		airportDefs[i].Name = canonical[i]
	}

	return []ddl.TableDef{
		{Name: schema.TableTimePeriod, Columns: ddl.InferColumns(s.TimeColumns, sample, schema.TimePeriodKey)},
		{Name: schema.TableAirports, Columns: airportDefs},
		{Name: schema.TableAirlines, Columns: ddl.InferColumns(s.AirlineColumns, sample, schema.AirlineKey)},
		{Name: schema.TableFlights, Columns: ddl.InferColumns(s.FlightColumns, sample, "")},
	}
}

// normalize performs the per-batch extraction, dedup, and fact append.
func (p *Pipeline) normalize(ctx context.Context, rows []records.Record, batch int) error {
	s := p.schema

	// Fact rows go straight to storage; they are never buffered or deduped.
	flights := storage.RowsToValues(records.ProjectAll(rows, s.FlightColumns), s.FlightColumns)
	n, err := p.repo.AppendRows(ctx, schema.TableFlights, s.FlightColumns, flights)
	if err != nil {
		return fmt.Errorf("pipeline: batch %d: append %s: %w", batch, schema.TableFlights, err)
	}
	metrics.RecordRows(schema.TableFlights, n)

	// Both airport extractions collapse onto the canonical schema. The
	// destination set merges before the origin set, and the buffer's
	// existing rows beat both: first-wins over processing order.
	destMap, originMap := s.DestMapping(), s.OriginMapping()
	dest := make([]records.Record, 0, len(rows))
	origin := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		dest = append(dest, records.Rename(r, destMap))
		origin = append(origin, records.Rename(r, originMap))
	}
	p.airports.Merge(dest)
	p.airports.Merge(origin)

	p.airlines.Merge(records.ProjectAll(rows, s.AirlineColumns))
	p.periods.Merge(records.ProjectAll(rows, s.TimeColumns))
	return nil
}

// Flush de-duplicates the dimension buffers and appends each to storage
// exactly once. This is the only point at which airline and time-period
// rows reach storage. The pipeline cannot be reused afterwards.
func (p *Pipeline) Flush(ctx context.Context) error {
	if p.schema == nil {
		return fmt.Errorf("pipeline: flush before any batch")
	}
	if p.flushed {
		return fmt.Errorf("pipeline: flush called twice")
	}
	p.flushed = true

	start := time.Now()
	err := p.flushBuffers(ctx)
	metrics.RecordStep("flush", err, time.Since(start))
	return err
}

func (p *Pipeline) flushBuffers(ctx context.Context) error {
	s := p.schema
	targets := []struct {
		table string
		cols  []string
		buf   dimension.Buffer
	}{
		{schema.TableTimePeriod, s.TimeColumns, p.periods},
		{schema.TableAirports, s.CanonicalAirportColumns(), p.airports},
		{schema.TableAirlines, s.AirlineColumns, p.airlines},
	}
	for _, t := range targets {
		rows := storage.RowsToValues(t.buf.Flush(), t.cols)
		n, err := p.repo.AppendRows(ctx, t.table, t.cols, rows)
		if err != nil {
			return fmt.Errorf("pipeline: flush %s: %w", t.table, err)
		}
		metrics.RecordRows(t.table, n)
		log.Printf("pipeline: flushed %d rows into %s", n, t.table)
	}
	return nil
}
