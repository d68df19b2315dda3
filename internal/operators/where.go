// Package operators implements the streaming row-set transformations a
// pipeline's pipe-clauses compile down to: where, take, project and its
// variants, top, summarize, distinct, explode, ignore-errors, lookup and
// join. Every operator accepts and returns a rowstream.Stream, so clauses
// compose by simple function chaining in internal/catalog.
package operators

import (
	"context"

	"piper/internal/dsl"
	"piper/internal/eval"
	"piper/internal/funcs"
	"piper/internal/rowstream"
	"piper/internal/value"
)

// errorRow replaces every column of schema with err, so that a `where`
// condition that evaluates to an Error or a non-bool is never silently
// dropped: it propagates as an all-columns-Error row that the catalog's
// ledger records at drain time.
func errorRow(schema value.Schema, err value.Value) value.Row {
	row := make(value.Row, len(schema.Columns))
	for _, c := range schema.Columns {
		row[c.Name] = err
	}
	return row
}

// Where filters rows whose condition evaluates to a truthy bool. A
// condition that itself evaluates to Error, or to a non-bool value, does
// not drop the row: the row is kept with every column rewritten to that
// Error, so the failure surfaces in the pipeline's error ledger rather than
// vanishing.
func Where(in rowstream.Stream, cond dsl.Expr, reg *funcs.Registry) rowstream.Stream {
	schema := in.Schema()
	return rowstream.FromFunc(schema, func(ctx context.Context) (value.Row, bool, error) {
		for {
			row, ok, err := in.Next(ctx)
			if !ok || err != nil {
				return nil, ok, err
			}
			c := eval.Eval(cond, &eval.Env{Row: row, Registry: reg})
			if c.IsError() {
				return errorRow(schema, c), true, nil
			}
			if c.Kind() != value.KindBool {
				return errorRow(schema, value.Error(value.ErrType, "where condition must evaluate to bool")), true, nil
			}
			if c.AsBool() {
				return row, true, nil
			}
		}
	})
}
