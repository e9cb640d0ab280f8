// Package records defines the in-flight row representation shared by the
// parser, the normalization pipeline, and the storage backends.
//
// A Record is a flat map from column name to a scalar value. Values are kept
// deliberately narrow: int64, float64, string, or nil. The CSV parser is
// responsible for producing these kinds; everything downstream can rely on
// them without further type switching.
package records

// Record is a single row keyed by column name.
type Record map[string]any

// Project returns a new record containing only the given columns, in the
// sense of a column subset; ordering is imposed later when rows are
// converted to positional values. Columns absent from r are carried as nil
// so that downstream value conversion stays rectangular.
func Project(r Record, cols []string) Record {
	out := make(Record, len(cols))
	for _, c := range cols {
		v, ok := r[c]
		if !ok {
			out[c] = nil
			continue
		}
		out[c] = v
	}
	return out
}

// ProjectAll applies Project to every row.
func ProjectAll(rows []Record, cols []string) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Project(r, cols))
	}
	return out
}

// Rename returns a new record with columns renamed according to mapping
// (source name -> target name). Columns not present in the mapping are
// dropped; the result contains exactly the mapping's targets.
func Rename(r Record, mapping map[string]string) Record {
	out := make(Record, len(mapping))
	for src, dst := range mapping {
		v, ok := r[src]
		if !ok {
			out[dst] = nil
			continue
		}
		out[dst] = v
	}
	return out
}

// Values flattens a record into a positional slice aligned to cols.
// Missing columns yield nil.
func Values(r Record, cols []string) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		out[i] = r[c]
	}
	return out
}

// Clone makes a shallow copy of r. Scalar values are immutable, so a
// shallow copy is a safe snapshot.
func Clone(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
