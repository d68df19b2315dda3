package operators

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"piper/internal/dsl"
	"piper/internal/eval"
	"piper/internal/funcs"
	"piper/internal/rowstream"
	"piper/internal/value"
)

type summarizeGroup struct {
	byValues []value.Value
	aggs     []funcs.Aggregator
}

// Summarize materializes in, groups rows by the By expressions (first-seen
// group order, which is stable and deterministic given a fixed input
// order), and computes each Aggs column per group. Grouping by zero By
// expressions produces exactly one group over the whole stream.
func Summarize(ctx context.Context, in rowstream.Stream, aggs []dsl.AggItem, by []dsl.Expr, reg *funcs.Registry, aggReg *funcs.AggRegistry) (rowstream.Stream, error) {
	order := []uint64{}
	groups := map[uint64]*summarizeGroup{}

	newGroup := func(byVals []value.Value) (*summarizeGroup, error) {
		g := &summarizeGroup{byValues: byVals, aggs: make([]funcs.Aggregator, len(aggs))}
		for i, a := range aggs {
			af, ok := aggReg.Lookup(a.Expr.Func)
			if !ok {
				return nil, fmt.Errorf("summarize: unknown aggregate function %q", a.Expr.Func)
			}
			g.aggs[i] = af.New()
		}
		return g, nil
	}

	for {
		row, ok, err := in.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		env := &eval.Env{Row: row, Registry: reg}
		byVals := make([]value.Value, len(by))
		var keyB strings.Builder
		for i, e := range by {
			byVals[i] = eval.Eval(e, env)
			keyB.WriteString(value.HashKey(byVals[i]))
			keyB.WriteByte(0)
		}
		key := xxh3.HashString(keyB.String())
		g, ok := groups[key]
		if !ok {
			g, err = newGroup(byVals)
			if err != nil {
				return nil, err
			}
			groups[key] = g
			order = append(order, key)
		}
		for i, a := range aggs {
			args := make([]value.Value, len(a.Expr.Args))
			for j, argExpr := range a.Expr.Args {
				args[j] = eval.Eval(argExpr, env)
			}
			g.aggs[i].Add(args)
		}
	}

	byNames := make([]string, len(by))
	for i, e := range by {
		if col, ok := e.(dsl.ColumnExpr); ok {
			byNames[i] = col.Name
		} else {
			byNames[i] = fmt.Sprintf("by%d", i)
		}
	}
	var cols []value.Column
	for _, n := range byNames {
		cols = append(cols, value.Column{Name: n, Type: value.TypeDynamic})
	}
	for _, a := range aggs {
		cols = append(cols, value.Column{Name: a.Name, Type: value.TypeDynamic})
	}
	schema := value.Schema{Columns: cols}

	var outRows []value.Row
	if len(order) == 0 && len(by) == 0 {
		g, err := newGroup(nil)
		if err != nil {
			return nil, err
		}
		order = append(order, 0)
		groups[0] = g
	}
	for _, key := range order {
		g := groups[key]
		row := make(value.Row, len(cols))
		for i, n := range byNames {
			row[n] = g.byValues[i]
		}
		for i, a := range aggs {
			row[a.Name] = g.aggs[i].Result()
		}
		outRows = append(outRows, row)
	}
	return rowstream.FromRows(schema, outRows), nil
}
