// Command flightdb ingests BTS On-Time Performance files into a normalized
// four-table schema (time_period, airlines, airports, flights).
//
// A run optionally downloads the monthly archives first, then processes
// every CSV under the data directory in lexical order. The first file fixes
// the schema; the dimension buffers are flushed to storage once, after the
// last file. The CLI layer stays thin: it never imports database drivers
// directly, only the storage registry.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"flightdb/internal/datasource/file"
	"flightdb/internal/download"
	"flightdb/internal/lookup"
	"flightdb/internal/metrics"
	"flightdb/internal/metrics/prompush"
	csvparser "flightdb/internal/parser/csv"
	"flightdb/internal/pipeline"
	"flightdb/internal/storage"

	// register all backends with the storage factory.
	_ "flightdb/internal/storage/all"
)

func main() {
	var (
		dataDir        string
		backend        string
		dsn            string
		fetch          bool
		yearsFlag      string
		urlRoot        string
		keepZips       bool
		lookupFlag     string
		metricsBackend string
		pushgatewayURL string
	)

	flag.StringVar(&dataDir, "data", "data", "directory holding (or receiving) the monthly CSV files")
	flag.StringVar(&backend, "backend", "sqlite", "storage backend: sqlite, postgres, mssql, mysql")
	flag.StringVar(&dsn, "dsn", "flights.db", "backend connection string")
	flag.BoolVar(&fetch, "download", false, "download the monthly archives before ingesting")
	flag.StringVar(&yearsFlag, "years", "2019", "comma-separated years to download")
	flag.StringVar(&urlRoot, "url-root", download.DefaultURLRoot, "archive URL root")
	flag.BoolVar(&keepZips, "keep-zips", false, "keep archives after extraction")
	flag.StringVar(&lookupFlag, "lookup", "", "auxiliary lookup tables to ingest, as table=path[,table=path...]")
	flag.StringVar(&metricsBackend, "metrics-backend", "none", "metrics backend: none, pushgateway")
	flag.StringVar(&pushgatewayURL, "pushgateway-url", "http://localhost:9091", "Pushgateway base URL")
	flag.Parse()

	ctx := context.Background()

	if metricsBackend == "pushgateway" {
		b, err := prompush.NewBackend("flightdb", pushgatewayURL)
		if err != nil {
			fatalf("metrics: %v", err)
		}
		metrics.SetBackend(b)
	}

	if fetch {
		years, err := parseYears(yearsFlag)
		if err != nil {
			fatalf("parse -years: %v", err)
		}
		if err := download.Run(ctx, download.Options{
			Dir:      dataDir,
			Years:    years,
			URLRoot:  urlRoot,
			KeepZips: keepZips,
		}); err != nil {
			fatalf("download: %v", err)
		}
	}

	files, err := file.FindCSVs(dataDir)
	if err != nil {
		fatalf("scan %s: %v", dataDir, err)
	}
	if len(files) == 0 {
		fatalf("no CSV files under %s", dataDir)
	}

	repo, err := storage.New(ctx, storage.Config{Kind: backend, DSN: dsn})
	if err != nil {
		fatalf("open storage: %v", err)
	}
	defer repo.Close()

	if err := ingestLookups(ctx, repo, lookupFlag); err != nil {
		fatalf("%v", err)
	}

	p := pipeline.New(repo)
	parser := csvparser.NewParser(csvparser.Options{TrimSpace: true})
	start := time.Now()
	for i, path := range files {
		f, err := os.Open(path)
		if err != nil {
			fatalf("open %s: %v", path, err)
		}
		rows, cols, err := parser.Parse(f)
		f.Close()
		if err != nil {
			fatalf("parse %s: %v", path, err)
		}
		if err := p.ProcessBatch(ctx, rows, cols); err != nil {
			fatalf("ingest %s: %v", path, err)
		}
		log.Printf("main: batch %d/%d done: %s (%d rows)", i+1, len(files), path, len(rows))
	}
	if err := p.Flush(ctx); err != nil {
		fatalf("flush: %v", err)
	}
	log.Printf("main: %d batches ingested in %s", len(files), time.Since(start).Truncate(time.Millisecond))

	if err := metrics.Flush(); err != nil {
		log.Printf("main: metrics flush: %v", err)
	}
}

// ingestLookups parses the -lookup flag and loads each table.
func ingestLookups(ctx context.Context, repo storage.Repository, arg string) error {
	if arg == "" {
		return nil
	}
	for _, pair := range strings.Split(arg, ",") {
		table, path, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("bad -lookup entry %q, want table=path", pair)
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open lookup %s: %w", path, err)
		}
		err = lookup.Ingest(ctx, repo, table, f)
		f.Close()
		if err != nil {
			return err
		}
		log.Printf("main: lookup table %s loaded from %s", table, path)
	}
	return nil
}

func parseYears(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("year %q: %w", part, err)
		}
		out = append(out, y)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no years given")
	}
	return out, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
