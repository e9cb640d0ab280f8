// Package schema derives the fixed four-table layout (time_period, airlines,
// airports, flights) from the column set of the first batch of the BTS
// On-Time Performance feed.
//
// The claim lists below are literals: the partition is decided once, against
// a representative first batch, and never re-derived. Columns that show up
// only in later batches are ignored; columns that disappear are a hard error
// (see CheckBatch).
package schema

import (
	"fmt"
	"strings"
)

// Table names as created in storage.
const (
	TableTimePeriod = "time_period"
	TableAirlines   = "airlines"
	TableAirports   = "airports"
	TableFlights    = "flights"
)

// Primary keys per dimension table. The flights fact table has none.
const (
	TimePeriodKey = "FlightDate"
	AirlineKey    = "Reporting_Airline"
	AirportKey    = "AirportID"
)

// Claim lists. Spelling follows the BTS export exactly (note "DayofMonth").
var (
	timeColumns = []string{
		"Year",
		"Quarter",
		"Month",
		"DayofMonth",
		"DayOfWeek",
		"FlightDate",
	}

	airlineColumns = []string{
		"Reporting_Airline",
		"DOT_ID_Reporting_Airline",
		"IATA_CODE_Reporting_Airline",
	}

	destAirportColumns = []string{
		"DestAirportID",
		"DestAirportSeqID",
		"DestCityMarketID",
		"Dest",
		"DestCityName",
		"DestState",
		"DestStateFips",
		"DestStateName",
		"DestWac",
	}

	// idColumns are shared foreign keys: they live in a dimension table and
	// are repeated in the flights fact table.
	idColumns = []string{
		"FlightDate",
		"Reporting_Airline",
		"OriginAirportID",
		"DestAirportID",
	}
)

// AirportColumn ties one canonical airport-dimension column to its two
// per-row variants. The mapping is built once at derivation time so that no
// prefix stripping happens while batches stream through.
type AirportColumn struct {
	Canonical string // e.g. "AirportID", or "Airport" for the bare code
	Origin    string // e.g. "OriginAirportID"
	Dest      string // e.g. "DestAirportID"
}

// Schema is the result of partitioning the first batch's columns. It is
// immutable after Derive returns.
type Schema struct {
	TimeColumns    []string
	AirlineColumns []string
	FlightColumns  []string

	// AirportColumns drives both the airports table layout (Canonical, in
	// order) and the per-batch origin/dest extractions.
	AirportColumns []AirportColumn
}

// Derive partitions the given column set into the four groups. It must be
// called exactly once, with the columns of the first batch, before any table
// is created. The input order is preserved for the flights group so that
// fact rows keep the source column order.
func Derive(columns []string) (*Schema, error) {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	airports := make([]AirportColumn, 0, len(destAirportColumns))
	for _, dest := range destAirportColumns {
		ac := AirportColumn{Dest: dest}
		if dest == "Dest" {
			ac.Canonical = "Airport"
			ac.Origin = "Origin"
		} else {
			ac.Canonical = strings.TrimPrefix(dest, "Dest")
			ac.Origin = "Origin" + ac.Canonical
		}
		airports = append(airports, ac)
	}

	// Every claimed column, and both airport variants, must exist in the
	// first batch; otherwise later extraction would silently produce nils.
	var required []string
	required = append(required, timeColumns...)
	required = append(required, airlineColumns...)
	for _, ac := range airports {
		required = append(required, ac.Origin, ac.Dest)
	}
	for _, c := range required {
		if !present[c] {
			return nil, fmt.Errorf("schema: first batch missing column %q", c)
		}
	}

	claimed := make(map[string]bool, len(required))
	for _, c := range required {
		claimed[c] = true
	}
	isID := make(map[string]bool, len(idColumns))
	for _, c := range idColumns {
		isID[c] = true
	}

	flights := make([]string, 0, len(columns))
	for _, c := range columns {
		if !claimed[c] || isID[c] {
			flights = append(flights, c)
		}
	}

	return &Schema{
		TimeColumns:    append([]string(nil), timeColumns...),
		AirlineColumns: append([]string(nil), airlineColumns...),
		FlightColumns:  flights,
		AirportColumns: airports,
	}, nil
}

// CanonicalAirportColumns returns the airports table columns in order.
func (s *Schema) CanonicalAirportColumns() []string {
	out := make([]string, len(s.AirportColumns))
	for i, ac := range s.AirportColumns {
		out[i] = ac.Canonical
	}
	return out
}

// OriginVariantColumns returns the origin-side source columns in canonical
// order; DestVariantColumns is the destination-side equivalent.
func (s *Schema) OriginVariantColumns() []string {
	out := make([]string, len(s.AirportColumns))
	for i, ac := range s.AirportColumns {
		out[i] = ac.Origin
	}
	return out
}

func (s *Schema) DestVariantColumns() []string {
	out := make([]string, len(s.AirportColumns))
	for i, ac := range s.AirportColumns {
		out[i] = ac.Dest
	}
	return out
}

// OriginMapping and DestMapping return source->canonical rename maps for the
// two airport extractions.
func (s *Schema) OriginMapping() map[string]string {
	out := make(map[string]string, len(s.AirportColumns))
	for _, ac := range s.AirportColumns {
		out[ac.Origin] = ac.Canonical
	}
	return out
}

func (s *Schema) DestMapping() map[string]string {
	out := make(map[string]string, len(s.AirportColumns))
	for _, ac := range s.AirportColumns {
		out[ac.Dest] = ac.Canonical
	}
	return out
}

// CheckBatch verifies that a batch presents every column the derived schema
// needs. Extra columns are ignored; a missing column is a hard error naming
// the column, since downstream lookups would otherwise fabricate nils.
func (s *Schema) CheckBatch(columns []string) error {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	check := func(group string, cols []string) error {
		for _, c := range cols {
			if !present[c] {
				return fmt.Errorf("schema: batch missing %s column %q", group, c)
			}
		}
		return nil
	}
	if err := check("time", s.TimeColumns); err != nil {
		return err
	}
	if err := check("airline", s.AirlineColumns); err != nil {
		return err
	}
	if err := check("flight", s.FlightColumns); err != nil {
		return err
	}
	for _, ac := range s.AirportColumns {
		if !present[ac.Origin] {
			return fmt.Errorf("schema: batch missing airport column %q", ac.Origin)
		}
		if !present[ac.Dest] {
			return fmt.Errorf("schema: batch missing airport column %q", ac.Dest)
		}
	}
	return nil
}
