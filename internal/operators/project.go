package operators

import (
	"context"
	"fmt"

	"piper/internal/dsl"
	"piper/internal/eval"
	"piper/internal/funcs"
	"piper/internal/rowstream"
	"piper/internal/value"
)

// Project adds or overwrites the named columns, evaluating each item's
// expression against the input row; errors surface as that single column's
// Error value rather than the whole row's. Columns the clause doesn't
// mention pass through unchanged. Output column order is the input's
// columns in their existing order, followed by any newly-introduced columns
// in declaration order.
func Project(in rowstream.Stream, items []dsl.ProjectItem, reg *funcs.Registry) rowstream.Stream {
	inSchema := in.Schema()
	cols := make([]value.Column, len(inSchema.Columns))
	copy(cols, inSchema.Columns)
	for _, it := range items {
		if idx := (value.Schema{Columns: cols}).Index(it.Name); idx >= 0 {
			cols[idx].Type = value.TypeDynamic
		} else {
			cols = append(cols, value.Column{Name: it.Name, Type: value.TypeDynamic})
		}
	}
	outSchema := value.Schema{Columns: cols}
	return rowstream.FromFunc(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		row, ok, err := in.Next(ctx)
		if !ok || err != nil {
			return nil, ok, err
		}
		out := row.Clone()
		for _, it := range items {
			out[it.Name] = eval.Eval(it.Expr, &eval.Env{Row: row, Registry: reg})
		}
		return out, true, nil
	})
}

// ProjectRemove drops the named columns, leaving the rest (and their
// relative order) untouched.
func ProjectRemove(in rowstream.Stream, names []string) (rowstream.Stream, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if !in.Schema().Has(n) {
			return nil, fmt.Errorf("project-remove: unknown column %q", n)
		}
		drop[n] = true
	}
	var cols []value.Column
	for _, c := range in.Schema().Columns {
		if !drop[c.Name] {
			cols = append(cols, c)
		}
	}
	outSchema := value.Schema{Columns: cols}
	return rowstream.FromFunc(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		row, ok, err := in.Next(ctx)
		if !ok || err != nil {
			return nil, ok, err
		}
		out := make(value.Row, len(cols))
		for _, c := range cols {
			out[c.Name] = row[c.Name]
		}
		return out, true, nil
	}), nil
}

// ProjectKeep keeps only the named columns, in the order they are listed.
func ProjectKeep(in rowstream.Stream, names []string) (rowstream.Stream, error) {
	var cols []value.Column
	for _, n := range names {
		idx := in.Schema().Index(n)
		if idx < 0 {
			return nil, fmt.Errorf("project-keep: unknown column %q", n)
		}
		cols = append(cols, in.Schema().Columns[idx])
	}
	outSchema := value.Schema{Columns: cols}
	return rowstream.FromFunc(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		row, ok, err := in.Next(ctx)
		if !ok || err != nil {
			return nil, ok, err
		}
		out := make(value.Row, len(cols))
		for _, c := range cols {
			out[c.Name] = row[c.Name]
		}
		return out, true, nil
	}), nil
}

// ProjectRename renames columns in place, preserving schema order.
func ProjectRename(in rowstream.Stream, items []dsl.RenameItem) (rowstream.Stream, error) {
	renames := make(map[string]string, len(items)) // old -> new
	for _, it := range items {
		if !in.Schema().Has(it.Old) {
			return nil, fmt.Errorf("project-rename: unknown column %q", it.Old)
		}
		renames[it.Old] = it.New
	}
	cols := make([]value.Column, len(in.Schema().Columns))
	for i, c := range in.Schema().Columns {
		if nn, ok := renames[c.Name]; ok {
			cols[i] = value.Column{Name: nn, Type: c.Type}
		} else {
			cols[i] = c
		}
	}
	outSchema := value.Schema{Columns: cols}
	return rowstream.FromFunc(outSchema, func(ctx context.Context) (value.Row, bool, error) {
		row, ok, err := in.Next(ctx)
		if !ok || err != nil {
			return nil, ok, err
		}
		out := make(value.Row, len(row))
		for k, v := range row {
			if nn, ok := renames[k]; ok {
				out[nn] = v
			} else {
				out[k] = v
			}
		}
		return out, true, nil
	}), nil
}
