package operators

import (
	"context"
	"fmt"

	"piper/internal/rowstream"
	"piper/internal/value"
)

// Explode fans one row with a List-kind column out into one row per list
// element, substituting the element for the column's value on each emitted
// row. A Null or empty List emits zero rows for that input row; a scalar
// value passes through unchanged as a single row; an Error in the column
// propagates as a single row with that column set to Error.
func Explode(in rowstream.Stream, column string, as value.ColumnType) (rowstream.Stream, error) {
	if !in.Schema().Has(column) {
		return nil, fmt.Errorf("explode: unknown column %q", column)
	}
	schema := in.Schema().Clone()
	if as != "" {
		idx := schema.Index(column)
		schema.Columns[idx].Type = as
	}

	var pending []value.Row
	return rowstream.FromFunc(schema, func(ctx context.Context) (value.Row, bool, error) {
		for len(pending) == 0 {
			row, ok, err := in.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, nil
			}
			v := row[column]
			switch {
			case v.IsError():
				clone := row.Clone()
				clone[column] = v
				pending = []value.Row{clone}
			case v.Kind() == value.KindNull:
				continue // Null: zero rows emitted, keep pulling
			case v.Kind() == value.KindList:
				list := v.AsList()
				if len(list) == 0 {
					continue // empty list: zero rows emitted, keep pulling
				}
				for _, elem := range list {
					clone := row.Clone()
					clone[column] = elem
					pending = append(pending, clone)
				}
			default:
				pending = []value.Row{row.Clone()} // scalar: one row, unchanged
			}
		}
		r := pending[0]
		pending = pending[1:]
		return r, true, nil
	}), nil
}
