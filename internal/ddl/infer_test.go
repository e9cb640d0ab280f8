package ddl

import (
	"reflect"
	"testing"

	"flightdb/pkg/records"
)

func TestInferColumns(t *testing.T) {
	sample := []records.Record{
		{"Year": int64(2019), "DepDelay": float64(-3), "Origin": "JFK", "CancellationCode": nil, "Mixed": int64(1)},
		{"Year": int64(2019), "DepDelay": nil, "Origin": "LAX", "CancellationCode": nil, "Mixed": "B6"},
	}
	cols := []string{"Year", "DepDelay", "Origin", "CancellationCode", "Mixed"}

	got := InferColumns(cols, sample, "Year")
	want := []ColumnDef{
		{Name: "Year", Type: TypeInteger, PrimaryKey: true},
		{Name: "DepDelay", Type: TypeReal},
		{Name: "Origin", Type: TypeText},
		{Name: "CancellationCode", Type: TypeText}, // all-nil column defaults to TEXT
		{Name: "Mixed", Type: TypeText},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("InferColumns: got %+v want %+v", got, want)
	}
}

func TestInferColumnsIntThenFloat(t *testing.T) {
	sample := []records.Record{
		{"v": int64(1)},
		{"v": float64(2.5)},
	}
	got := InferColumns([]string{"v"}, sample, "")
	if got[0].Type != TypeReal {
		t.Fatalf("mixed int/float column: got %s want %s", got[0].Type, TypeReal)
	}
}

func TestInferColumnsEmptySample(t *testing.T) {
	got := InferColumns([]string{"v"}, nil, "")
	if got[0].Type != TypeText {
		t.Fatalf("empty sample: got %s want %s", got[0].Type, TypeText)
	}
	if got[0].PrimaryKey {
		t.Fatal("no primary key requested but one was flagged")
	}
}

func TestRender(t *testing.T) {
	def := TableDef{
		Name: "airlines",
		Columns: []ColumnDef{
			{Name: "Reporting_Airline", Type: TypeText, PrimaryKey: true},
			{Name: "DOT_ID_Reporting_Airline", Type: TypeInteger},
		},
	}
	got, err := Render(def, Dialect{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "CREATE TABLE airlines (\n" +
		"  Reporting_Airline TEXT,\n" +
		"  DOT_ID_Reporting_Airline INTEGER,\n" +
		"  PRIMARY KEY (Reporting_Airline)\n" +
		")"
	if got != want {
		t.Fatalf("Render:\ngot  %q\nwant %q", got, want)
	}
}

func TestRenderDialect(t *testing.T) {
	def := TableDef{
		Name:    "t",
		Columns: []ColumnDef{{Name: "id", Type: TypeInteger, PrimaryKey: true}},
	}
	d := Dialect{
		QuoteIdent: func(s string) string { return `"` + s + `"` },
		MapType: func(logical string, pk bool) string {
			if pk {
				return "BIGINT"
			}
			return logical
		},
	}
	got, err := Render(def, d)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "CREATE TABLE \"t\" (\n  \"id\" BIGINT,\n  PRIMARY KEY (\"id\")\n)"
	if got != want {
		t.Fatalf("Render:\ngot  %q\nwant %q", got, want)
	}
}

func TestRenderRejectsEmpty(t *testing.T) {
	if _, err := Render(TableDef{}, Dialect{}); err == nil {
		t.Fatal("Render accepted an empty table name")
	}
	if _, err := Render(TableDef{Name: "t"}, Dialect{}); err == nil {
		t.Fatal("Render accepted a table with no columns")
	}
}
