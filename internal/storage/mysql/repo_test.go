package mysql

import (
	"testing"

	"flightdb/internal/ddl"
)

func TestMapType(t *testing.T) {
	cases := []struct {
		logical string
		pk      bool
		want    string
	}{
		{ddl.TypeInteger, false, "BIGINT"},
		{ddl.TypeReal, false, "DOUBLE"},
		{ddl.TypeText, false, "TEXT"},
		{ddl.TypeText, true, "VARCHAR(255)"}, // TEXT cannot be a primary key
	}
	for _, c := range cases {
		if got := mapType(c.logical, c.pk); got != c.want {
			t.Errorf("mapType(%s, pk=%v): got %s want %s", c.logical, c.pk, got, c.want)
		}
	}
}

func TestRenderCreateTable(t *testing.T) {
	def := ddl.TableDef{
		Name: "airports",
		Columns: []ddl.ColumnDef{
			{Name: "AirportID", Type: ddl.TypeInteger, PrimaryKey: true},
			{Name: "Airport", Type: ddl.TypeText},
		},
	}
	got, err := ddl.Render(def, dialect())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "CREATE TABLE `airports` (\n" +
		"  `AirportID` BIGINT,\n" +
		"  `Airport` TEXT,\n" +
		"  PRIMARY KEY (`AirportID`)\n" +
		")"
	if got != want {
		t.Fatalf("render:\ngot  %q\nwant %q", got, want)
	}
}
