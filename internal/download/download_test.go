package download

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"flightdb/internal/datasource/httpds"
)

func TestNaming(t *testing.T) {
	var opts Options
	opts.defaults()

	wantURL := "https://transtats.bts.gov/PREZIP/On_Time_Reporting_Carrier_On_Time_Performance_1987_present_2019_3.zip"
	if got := opts.ArchiveURL(2019, 3); got != wantURL {
		t.Errorf("ArchiveURL = %q, want %q", got, wantURL)
	}
	wantZip := "On_Time_Reporting_Carrier_On_Time_Performance_1987_present_2019_12.zip"
	if got := opts.ZipName(2019, 12); got != wantZip {
		t.Errorf("ZipName = %q, want %q", got, wantZip)
	}
	wantCSV := "On_Time_Reporting_Carrier_On_Time_Performance_(1987_present)_2019_12.csv"
	if got := opts.CSVName(2019, 12); got != wantCSV {
		t.Errorf("CSVName = %q, want %q", got, wantCSV)
	}
}

// makeZip builds an archive with the given members in memory.
func makeZip(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "m.zip")
	data := makeZip(t, map[string]string{
		"readme.html": "<html/>",
		"flights.csv": "FlightDate\n2019-01-01\n",
	})
	if err := os.WriteFile(zipPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "flights.csv")
	if err := extract(zipPath, "flights.csv", dst); err != nil {
		t.Fatalf("extract: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "FlightDate\n2019-01-01\n" {
		t.Fatalf("extracted %q", got)
	}

	if err := extract(zipPath, "absent.csv", filepath.Join(dir, "absent.csv")); err == nil {
		t.Fatal("missing member must fail")
	}
}

func TestRunDownloadsAndExtracts(t *testing.T) {
	var opts Options
	opts.defaults()

	dir := t.TempDir()
	year := 2019

	var (
		mu        sync.Mutex
		requested []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.Path)
		mu.Unlock()
		// Member name inside the archive matches the CSV name on disk.
		month := 0
		for m := 1; m <= 12; m++ {
			if strings.HasSuffix(r.URL.Path, opts.ZipName(year, m)) {
				month = m
				break
			}
		}
		if month == 0 {
			http.NotFound(w, r)
			return
		}
		w.Write(makeZip(t, map[string]string{
			opts.CSVName(year, month): "FlightDate\n",
			"readme.html":             "x",
		}))
	}))
	defer srv.Close()

	err := Run(context.Background(), Options{
		Dir:         dir,
		Years:       []int{year},
		URLRoot:     srv.URL + "/",
		Concurrency: 2,
		Client:      httpds.NewClient(httpds.Config{MaxRetries: 0}),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(requested) != 12 {
		t.Fatalf("server saw %d requests, want 12", len(requested))
	}
	for m := 1; m <= 12; m++ {
		csvPath := filepath.Join(dir, opts.CSVName(year, m))
		if _, err := os.Stat(csvPath); err != nil {
			t.Errorf("month %d: csv missing: %v", m, err)
		}
		zipPath := filepath.Join(dir, opts.ZipName(year, m))
		if _, err := os.Stat(zipPath); err == nil {
			t.Errorf("month %d: zip should be removed after extraction", m)
		}
	}

	// A second run finds everything in place and never touches the server.
	requested = nil
	err = Run(context.Background(), Options{
		Dir:     dir,
		Years:   []int{year},
		URLRoot: srv.URL + "/",
		Client:  httpds.NewClient(httpds.Config{MaxRetries: 0}),
	})
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(requested) != 0 {
		t.Fatalf("second run hit the server %d times", len(requested))
	}
}

func TestRunValidatesOptions(t *testing.T) {
	if err := Run(context.Background(), Options{Years: []int{2019}}); err == nil {
		t.Fatal("missing Dir must fail")
	}
	if err := Run(context.Background(), Options{Dir: t.TempDir()}); err == nil {
		t.Fatal("missing Years must fail")
	}
}
