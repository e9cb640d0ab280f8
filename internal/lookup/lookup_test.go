package lookup

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"flightdb/internal/ddl"
	"flightdb/internal/storage"
)

type fakeRepo struct {
	created  []ddl.TableDef
	replaced map[string][][]any
	existing bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{replaced: map[string][][]any{}}
}

func (f *fakeRepo) CreateTable(_ context.Context, def ddl.TableDef) error {
	if f.existing {
		return storage.ErrTableExists
	}
	f.created = append(f.created, def)
	return nil
}

func (f *fakeRepo) AppendRows(_ context.Context, table string, _ []string, rows [][]any) (int64, error) {
	return int64(len(rows)), nil
}

func (f *fakeRepo) ReplaceTable(_ context.Context, table string, _ []string, rows [][]any) error {
	f.replaced[table] = rows
	return nil
}

func (f *fakeRepo) Close() error { return nil }

const carriersCSV = "Code,Description\n9E,Endeavor Air Inc.\nAA,American Airlines Inc.\n"

func TestIngest(t *testing.T) {
	repo := newFakeRepo()
	err := Ingest(context.Background(), repo, "airline_codes", strings.NewReader(carriersCSV))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if len(repo.created) != 1 || repo.created[0].Name != "airline_codes" {
		t.Fatalf("created = %+v", repo.created)
	}
	wantCols := []ddl.ColumnDef{
		{Name: "Code", Type: ddl.TypeText},
		{Name: "Description", Type: ddl.TypeText},
	}
	if !reflect.DeepEqual(repo.created[0].Columns, wantCols) {
		t.Fatalf("columns = %+v, want %+v", repo.created[0].Columns, wantCols)
	}

	want := [][]any{
		{"9E", "Endeavor Air Inc."},
		{"AA", "American Airlines Inc."},
	}
	if !reflect.DeepEqual(repo.replaced["airline_codes"], want) {
		t.Fatalf("replaced = %v, want %v", repo.replaced["airline_codes"], want)
	}
}

func TestIngestExistingTable(t *testing.T) {
	repo := newFakeRepo()
	repo.existing = true
	err := Ingest(context.Background(), repo, "airline_codes", strings.NewReader(carriersCSV))
	if err != nil {
		t.Fatalf("Ingest over existing table: %v", err)
	}
	if len(repo.replaced["airline_codes"]) != 2 {
		t.Fatalf("rows = %v", repo.replaced["airline_codes"])
	}
}

func TestIngestEmpty(t *testing.T) {
	repo := newFakeRepo()
	if err := Ingest(context.Background(), repo, "t", strings.NewReader("Code,Description\n")); err == nil {
		t.Fatal("header-only lookup must fail")
	}
	if err := Ingest(context.Background(), repo, "t", strings.NewReader("")); err == nil {
		t.Fatal("empty input must fail")
	}
}
