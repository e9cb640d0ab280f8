package ddl

import "flightdb/pkg/records"

// InferColumns derives a column definition per name from a sample batch.
//
// Typing is decided per column over every sample value:
//
//   - only int64 (ignoring nils)            -> INTEGER
//   - numeric with at least one float64     -> REAL
//   - anything else, including all-nil      -> TEXT
//
// The column whose name equals primaryKey is flagged as the primary key.
// Inference never fails; unrecognized value kinds degrade to TEXT.
func InferColumns(cols []string, sample []records.Record, primaryKey string) []ColumnDef {
	defs := make([]ColumnDef, 0, len(cols))
	for _, name := range cols {
		defs = append(defs, ColumnDef{
			Name:       name,
			Type:       inferType(name, sample),
			PrimaryKey: name == primaryKey && primaryKey != "",
		})
	}
	return defs
}

func inferType(col string, sample []records.Record) string {
	sawInt := false
	sawFloat := false
	for _, r := range sample {
		v, ok := r[col]
		if !ok || v == nil {
			continue
		}
		switch v.(type) {
		case int64:
			sawInt = true
		case float64:
			sawFloat = true
		default:
			return TypeText
		}
	}
	switch {
	case sawFloat:
		return TypeReal
	case sawInt:
		return TypeInteger
	default:
		// Entirely nil (or empty sample): no evidence either way.
		return TypeText
	}
}
