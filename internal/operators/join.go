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

// Join enriches rows the same way Lookup does, but emits one output row
// per row source returns instead of just the first: for kind "left-inner"
// a miss drops the input row entirely; "left-outer" emits one all-Null
// row on a miss, the same as Lookup would.
func Join(in rowstream.Stream, kind string, fields []string, source lookup.Source, key dsl.Expr, reg *funcs.Registry) rowstream.Stream {
	cols := append(append([]value.Column{}, in.Schema().Columns...), fieldColumns(fields)...)
	schema := value.Schema{Columns: cols}
	inner := kind == "left-inner"

	var pending []value.Row
	return rowstream.FromFunc(schema, func(ctx context.Context) (value.Row, bool, error) {
		for len(pending) == 0 {
			row, ok, err := in.Next(ctx)
			if !ok || err != nil {
				return nil, ok, err
			}
			k := eval.Eval(key, &eval.Env{Row: row, Registry: reg})
			if k.IsError() {
				if inner {
					continue
				}
				pending = []value.Row{withFields(row, fields, k)}
				break
			}
			matched, lerr := source.Get(ctx, k)
			if lerr != nil {
				if inner {
					continue
				}
				pending = []value.Row{withFields(row, fields, value.Error(value.ErrLookup, fmt.Sprintf("join: %v", lerr)))}
				break
			}
			if len(matched) == 0 {
				if inner {
					continue
				}
				pending = []value.Row{withFields(row, fields, value.Null())}
				break
			}
			for _, m := range matched {
				fieldValues, _ := m.AsMap()
				out := row.Clone()
				for _, f := range fields {
					if v, ok3 := fieldValues[f]; ok3 {
						out[f] = v
					} else {
						out[f] = value.Null()
					}
				}
				pending = append(pending, out)
			}
		}
		r := pending[0]
		pending = pending[1:]
		return r, true, nil
	})
}

// withFields clones row and sets every named field to v, used for the
// error/Null/miss cases where every requested field gets the same value.
func withFields(row value.Row, fields []string, v value.Value) value.Row {
	out := row.Clone()
	fillFields(out, fields, v)
	return out
}
