package operators

import (
	"context"
	"strings"

	"github.com/zeebo/xxh3"

	"piper/internal/rowstream"
	"piper/internal/value"
)

// rowGroupKey hashes a row's per-schema-column HashKey string down to a
// fixed-size xxh3 digest, so distinct/summarize group maps don't carry the
// full concatenated key string as their map key.
func rowGroupKey(row value.Row, schema value.Schema) uint64 {
	var b strings.Builder
	for _, c := range schema.Columns {
		b.WriteString(value.HashKey(row[c.Name]))
		b.WriteByte(0)
	}
	return xxh3.HashString(b.String())
}

// Distinct materializes in and yields each distinct row (by its full set of
// schema column values) once, in first-seen order.
func Distinct(ctx context.Context, in rowstream.Stream) (rowstream.Stream, error) {
	schema := in.Schema()
	seen := make(map[uint64]bool)
	var out []value.Row
	for {
		row, ok, err := in.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		k := rowGroupKey(row, schema)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, row)
	}
	return rowstream.FromRows(schema, out), nil
}
