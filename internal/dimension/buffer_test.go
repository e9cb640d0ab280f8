package dimension

import (
	"reflect"
	"testing"

	"flightdb/pkg/records"
)

func airport(id int64, code string) records.Record {
	return records.Record{"AirportID": id, "Airport": code}
}

func TestEagerFirstWins(t *testing.T) {
	b := NewEager("AirportID")
	b.Merge([]records.Record{airport(1, "JFK"), airport(2, "LAX")})
	b.Merge([]records.Record{airport(1, "STALE"), airport(3, "ORD")})

	got := b.Flush()
	want := []records.Record{airport(1, "JFK"), airport(2, "LAX"), airport(3, "ORD")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("eager buffer: got %v want %v", got, want)
	}
}

func TestEagerDedupsWithinOneMerge(t *testing.T) {
	b := NewEager("AirportID")
	b.Merge([]records.Record{airport(1, "JFK"), airport(1, "DUP")})
	if b.Len() != 1 {
		t.Fatalf("eager buffer kept %d rows, want 1", b.Len())
	}
	if got := b.Flush(); got[0]["Airport"] != "JFK" {
		t.Fatalf("survivor is %v, want the first occurrence", got[0])
	}
}

func TestLazyDuplicatesPersistUntilFlush(t *testing.T) {
	b := NewLazy("Reporting_Airline")
	aa := records.Record{"Reporting_Airline": "AA", "DOT_ID_Reporting_Airline": int64(1)}
	aaLater := records.Record{"Reporting_Airline": "AA", "DOT_ID_Reporting_Airline": int64(99)}
	dl := records.Record{"Reporting_Airline": "DL", "DOT_ID_Reporting_Airline": int64(2)}

	b.Merge([]records.Record{aa, aa, dl}) // intra-batch dedup applies
	if b.Len() != 2 {
		t.Fatalf("after first merge Len=%d, want 2", b.Len())
	}
	b.Merge([]records.Record{aaLater}) // cross-batch duplicate is kept for now
	if b.Len() != 3 {
		t.Fatalf("after second merge Len=%d, want 3", b.Len())
	}

	got := b.Flush()
	want := []records.Record{aa, dl}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lazy flush: got %v want %v", got, want)
	}
}

func TestDedupFirstWins(t *testing.T) {
	in := []records.Record{
		{"FlightDate": "2019-01-01", "Year": int64(2019)},
		{"FlightDate": "2019-01-01", "Year": int64(2020)},
		{"FlightDate": "2019-01-02", "Year": int64(2019)},
	}
	got := Dedup(in, "FlightDate")
	want := []records.Record{in[0], in[2]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Dedup: got %v want %v", got, want)
	}
}

func TestDedupIdempotent(t *testing.T) {
	in := []records.Record{
		{"k": int64(1), "v": "a"},
		{"k": int64(2), "v": "b"},
	}
	once := Dedup(in, "k")
	twice := Dedup(once, "k")
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("Dedup not idempotent: %v vs %v", once, twice)
	}
}

func TestDedupDropsRowsWithoutKey(t *testing.T) {
	in := []records.Record{
		{"k": int64(1)},
		{"other": "x"},
	}
	got := Dedup(in, "k")
	if len(got) != 1 {
		t.Fatalf("rows without the key column must leave the dedup domain, got %v", got)
	}
}

func TestDedupNilKeyIsAKey(t *testing.T) {
	in := []records.Record{
		{"k": nil, "v": "first"},
		{"k": nil, "v": "second"},
	}
	got := Dedup(in, "k")
	if len(got) != 1 || got[0]["v"] != "first" {
		t.Fatalf("nil keys should collapse first-wins, got %v", got)
	}
}

func TestKeyHashDistinguishesKinds(t *testing.T) {
	// "1" as text and 1 as integer stringify identically; they intentionally
	// share a dedup slot, matching string-keyed dedup semantics.
	if keyHash(int64(1)) != keyHash("1") {
		t.Fatal("int and its decimal string form should share a hash")
	}
	if keyHash("JFK") == keyHash("LAX") {
		t.Fatal("distinct keys must not collide in this test fixture")
	}
}
