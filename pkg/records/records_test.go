package records

import (
	"reflect"
	"testing"
)

func TestProject(t *testing.T) {
	r := Record{"FlightDate": "2019-01-15", "DepDelay": float64(3), "Origin": "JFK"}

	got := Project(r, []string{"FlightDate", "DepDelay", "Tail_Number"})
	want := Record{"FlightDate": "2019-01-15", "DepDelay": float64(3), "Tail_Number": nil}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Project = %v, want %v", got, want)
	}
	if _, ok := got["Origin"]; ok {
		t.Fatal("Project must drop unrequested columns")
	}

	// The source record stays untouched.
	if len(r) != 3 {
		t.Fatalf("source mutated: %v", r)
	}
}

func TestProjectAll(t *testing.T) {
	rows := []Record{
		{"A": int64(1), "B": "x"},
		{"A": int64(2)},
	}
	got := ProjectAll(rows, []string{"A", "B"})
	want := []Record{
		{"A": int64(1), "B": "x"},
		{"A": int64(2), "B": nil},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ProjectAll = %v, want %v", got, want)
	}
}

func TestRename(t *testing.T) {
	r := Record{"DestAirportID": int64(12892), "Dest": "LAX", "DepDelay": float64(-3)}
	mapping := map[string]string{"DestAirportID": "AirportID", "Dest": "Airport", "DestWac": "Wac"}

	got := Rename(r, mapping)
	want := Record{"AirportID": int64(12892), "Airport": "LAX", "Wac": nil}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rename = %v, want %v", got, want)
	}
}

func TestValues(t *testing.T) {
	r := Record{"A": int64(1), "B": nil, "C": "x"}
	got := Values(r, []string{"C", "A", "Missing", "B"})
	want := []any{"x", int64(1), nil, nil}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Values = %v, want %v", got, want)
	}
}

func TestClone(t *testing.T) {
	r := Record{"A": int64(1)}
	c := Clone(r)
	c["A"] = int64(2)
	c["B"] = "new"
	if r["A"] != int64(1) || len(r) != 1 {
		t.Fatalf("clone leaked into source: %v", r)
	}
}
