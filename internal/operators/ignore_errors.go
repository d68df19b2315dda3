package operators

import (
	"context"

	"piper/internal/rowstream"
	"piper/internal/value"
)

// IgnoreErrors drops any row that carries an Error in at least one of its
// schema columns, the one clause in the language that is explicitly allowed
// to make error rows vanish rather than propagate further downstream.
func IgnoreErrors(in rowstream.Stream) rowstream.Stream {
	schema := in.Schema()
	return rowstream.FromFunc(schema, func(ctx context.Context) (value.Row, bool, error) {
		for {
			row, ok, err := in.Next(ctx)
			if !ok || err != nil {
				return nil, ok, err
			}
			hasError := false
			for _, c := range schema.Columns {
				if row[c.Name].IsError() {
					hasError = true
					break
				}
			}
			if !hasError {
				return row, true, nil
			}
		}
	})
}
