// Package download fetches the monthly On-Time Performance archives from the
// BTS reporting site and unpacks the CSV each one contains.
//
// One archive exists per year/month under a fixed naming scheme. Downloads
// already on disk are skipped, so interrupted runs can simply be restarted.
// Archives are deleted after extraction by default; each zip holds exactly
// one CSV plus a readme.
package download

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"flightdb/internal/datasource/httpds"
)

// Defaults matching the published BTS layout.
const (
	DefaultURLRoot   = "https://transtats.bts.gov/PREZIP/"
	DefaultZipPrefix = "On_Time_Reporting_Carrier_On_Time_Performance_1987_present_"
	DefaultCSVPrefix = "On_Time_Reporting_Carrier_On_Time_Performance_(1987_present)_"
)

// Options configures a download run. Dir and Years are required; everything
// else has a default.
type Options struct {
	// Dir is the directory the archives and CSVs land in. Created when
	// missing.
	Dir string

	// Years selects the years to fetch; all twelve months of each.
	Years []int

	// URLRoot, ZipPrefix and CSVPrefix override the BTS naming scheme.
	URLRoot   string
	ZipPrefix string
	CSVPrefix string

	// Concurrency bounds simultaneous downloads; 4 when zero.
	Concurrency int

	// KeepZips retains the archives after extraction.
	KeepZips bool

	// Client is the HTTP client used for fetching. When nil a default one
	// with TLS verification disabled is used; the reporting site's chain is
	// not trusted everywhere.
	Client *httpds.Client
}

func (o *Options) defaults() {
	if o.URLRoot == "" {
		o.URLRoot = DefaultURLRoot
	}
	if o.ZipPrefix == "" {
		o.ZipPrefix = DefaultZipPrefix
	}
	if o.CSVPrefix == "" {
		o.CSVPrefix = DefaultCSVPrefix
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.Client == nil {
		o.Client = httpds.NewClient(httpds.Config{InsecureSkipVerify: true})
	}
}

// ArchiveURL returns the download URL for one year/month archive.
func (o Options) ArchiveURL(year, month int) string {
	return fmt.Sprintf("%s%s%d_%d.zip", o.URLRoot, o.ZipPrefix, year, month)
}

// ZipName and CSVName return the on-disk names for one year/month.
func (o Options) ZipName(year, month int) string {
	return fmt.Sprintf("%s%d_%d.zip", o.ZipPrefix, year, month)
}

func (o Options) CSVName(year, month int) string {
	return fmt.Sprintf("%s%d_%d.csv", o.CSVPrefix, year, month)
}

// Run downloads and extracts every month of every configured year, at most
// Concurrency archives in flight. The first failure cancels the rest.
func Run(ctx context.Context, opts Options) error {
	opts.defaults()
	if opts.Dir == "" {
		return fmt.Errorf("download: target directory is required")
	}
	if len(opts.Years) == 0 {
		return fmt.Errorf("download: at least one year is required")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("download: mkdir %s: %w", opts.Dir, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for _, year := range opts.Years {
		for month := 1; month <= 12; month++ {
			year, month := year, month
			g.Go(func() error {
				return fetchMonth(ctx, opts, year, month)
			})
		}
	}
	return g.Wait()
}

// fetchMonth downloads one archive (unless present) and extracts its CSV
// (unless already extracted).
func fetchMonth(ctx context.Context, opts Options, year, month int) error {
	csvPath := filepath.Join(opts.Dir, opts.CSVName(year, month))
	if _, err := os.Stat(csvPath); err == nil {
		return nil
	}

	zipPath := filepath.Join(opts.Dir, opts.ZipName(year, month))
	if _, err := os.Stat(zipPath); err != nil {
		if err := fetchFile(ctx, opts.Client, opts.ArchiveURL(year, month), zipPath); err != nil {
			return fmt.Errorf("download: %d-%02d: %w", year, month, err)
		}
	}

	if err := extract(zipPath, opts.CSVName(year, month), csvPath); err != nil {
		return fmt.Errorf("download: %d-%02d: %w", year, month, err)
	}
	if !opts.KeepZips {
		_ = os.Remove(zipPath)
	}
	log.Printf("download: %d-%02d ready", year, month)
	return nil
}

// fetchFile streams url into path via a temp file so partial downloads never
// look complete.
func fetchFile(ctx context.Context, client *httpds.Client, url, path string) error {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("fetch %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// extract copies one named member of the archive to dst.
func extract(zipPath, member, dst string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", zipPath, err)
	}
	defer zr.Close()

	f, err := zr.Open(member)
	if err != nil {
		return fmt.Errorf("member %s in %s: %w", member, zipPath, err)
	}
	defer f.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, f); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("extract %s: %w", member, err)
	}
	return out.Close()
}
