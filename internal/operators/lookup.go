package operators

import (
	"context"
	"fmt"

	"piper/internal/dsl"
	"piper/internal/eval"
	"piper/internal/funcs"
	"piper/internal/lookup"
	"piper/internal/rowstream"
	"piper/internal/value"
)

// Lookup enriches every row with the fields found in source, keyed by Key.
// It always emits exactly one output row per input row: a miss (zero rows
// returned) fills every requested field with Null, and only the first
// returned row is used when source returns more than one. A backend
// failure fills every requested field with a LookupError instead.
func Lookup(in rowstream.Stream, fields []string, source lookup.Source, key dsl.Expr, reg *funcs.Registry) rowstream.Stream {
	cols := append(append([]value.Column{}, in.Schema().Columns...), fieldColumns(fields)...)
	schema := value.Schema{Columns: cols}
	return rowstream.FromFunc(schema, func(ctx context.Context) (value.Row, bool, error) {
		row, ok, err := in.Next(ctx)
		if !ok || err != nil {
			return nil, ok, err
		}
		out := row.Clone()
		k := eval.Eval(key, &eval.Env{Row: row, Registry: reg})
		if k.IsError() {
			fillFields(out, fields, k)
			return out, true, nil
		}
		rows, lerr := source.Get(ctx, k)
		if lerr != nil {
			fillFields(out, fields, value.Error(value.ErrLookup, fmt.Sprintf("lookup: %v", lerr)))
			return out, true, nil
		}
		if len(rows) == 0 {
			fillFields(out, fields, value.Null())
			return out, true, nil
		}
		m, _ := rows[0].AsMap()
		for _, f := range fields {
			if v, ok3 := m[f]; ok3 {
				out[f] = v
			} else {
				out[f] = value.Null()
			}
		}
		return out, true, nil
	})
}

func fieldColumns(fields []string) []value.Column {
	cols := make([]value.Column, len(fields))
	for i, f := range fields {
		cols[i] = value.Column{Name: f, Type: value.TypeDynamic}
	}
	return cols
}

func fillFields(row value.Row, fields []string, v value.Value) {
	for _, f := range fields {
		row[f] = v
	}
}
