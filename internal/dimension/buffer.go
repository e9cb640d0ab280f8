// Package dimension implements the in-memory accumulation buffers for the
// three dimension tables. Each buffer holds rows across the whole run and is
// flushed to storage exactly once at the end.
//
// Two policies exist behind one interface:
//
//   - EagerBuffer de-duplicates on every Merge. Airport identities collide
//     constantly (origin == destination across rows), so keeping the buffer
//     compact per batch bounds its growth.
//   - LazyBuffer de-duplicates each incoming slice internally but lets
//     cross-batch duplicates accumulate until Flush. Airline and time-period
//     cardinality is small enough that one final pass suffices.
//
// All de-duplication is first-wins by the configured key column: the row
// seen earliest in processing order survives. Rows that do not carry the key
// column at all fall outside the dedup domain and are dropped.
package dimension

import (
	"fmt"

	"github.com/zeebo/xxh3"

	"flightdb/pkg/records"
)

// Buffer is a dimension accumulation buffer. Merge adds rows under the
// buffer's dedup policy; Flush returns the final de-duplicated row set.
// After Flush the buffer must not be reused.
type Buffer interface {
	Merge(rows []records.Record)
	Flush() []records.Record
	Len() int
}

// keyHash reduces a key value to a 64-bit hash so the seen-set retains one
// uint64 per distinct key instead of the key's string form.
func keyHash(v any) uint64 {
	switch t := v.(type) {
	case nil:
		return xxh3.HashString("\x00")
	case string:
		return xxh3.HashString(t)
	default:
		return xxh3.HashString(fmt.Sprint(t))
	}
}

// EagerBuffer keeps itself de-duplicated at all times.
type EagerBuffer struct {
	key  string
	seen map[uint64]struct{}
	rows []records.Record
}

// NewEager returns an empty eager buffer keyed by the given column.
func NewEager(key string) *EagerBuffer {
	return &EagerBuffer{key: key, seen: make(map[uint64]struct{})}
}

// Merge appends only rows whose key has not been seen before. Earlier calls
// win over later ones, and within one call earlier rows win.
func (b *EagerBuffer) Merge(rows []records.Record) {
	for _, r := range rows {
		v, ok := r[b.key]
		if !ok {
			continue
		}
		h := keyHash(v)
		if _, dup := b.seen[h]; dup {
			continue
		}
		b.seen[h] = struct{}{}
		b.rows = append(b.rows, r)
	}
}

// Flush returns the accumulated rows. The buffer is already de-duplicated.
func (b *EagerBuffer) Flush() []records.Record {
	out := b.rows
	b.rows = nil
	b.seen = nil
	return out
}

func (b *EagerBuffer) Len() int { return len(b.rows) }

// LazyBuffer de-duplicates within each Merge call only; duplicates across
// calls persist until Flush.
type LazyBuffer struct {
	key  string
	rows []records.Record
}

// NewLazy returns an empty lazy buffer keyed by the given column.
func NewLazy(key string) *LazyBuffer {
	return &LazyBuffer{key: key}
}

// Merge de-duplicates rows internally (first-wins) and appends the result.
func (b *LazyBuffer) Merge(rows []records.Record) {
	b.rows = append(b.rows, Dedup(rows, b.key)...)
}

// Flush de-duplicates the whole buffer first-wins and returns the result.
func (b *LazyBuffer) Flush() []records.Record {
	out := Dedup(b.rows, b.key)
	b.rows = nil
	return out
}

func (b *LazyBuffer) Len() int { return len(b.rows) }

// Dedup returns the first-wins subset of rows by key column, preserving
// input order. Rows without the key column are dropped. De-duplicating an
// already de-duplicated slice returns an equal slice.
func Dedup(rows []records.Record, key string) []records.Record {
	if len(rows) == 0 {
		return nil
	}
	seen := make(map[uint64]struct{}, len(rows))
	out := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		v, ok := r[key]
		if !ok {
			continue
		}
		h := keyHash(v)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, r)
	}
	return out
}
