package catalog

import (
	"fmt"

	"piper/internal/dsl"
	"piper/internal/funcs"
	"piper/internal/lookup"
)

// validateClauses rejects a pipeline at load time rather than at first
// request: unknown project-remove/keep/rename columns, duplicate output
// column names a summarize would produce, malformed join kinds, unknown
// functions or wrong arities anywhere an expression appears, and unknown
// lookup/join sources are all caught here rather than surfacing lazily on
// the first request that happens to exercise them.
func validateClauses(pl *dsl.Pipeline, reg *funcs.Registry, aggReg *funcs.AggRegistry, sources *lookup.Registry) error {
	known := make(map[string]bool, len(pl.InputSchema.Columns))
	for _, c := range pl.InputSchema.Columns {
		known[c.Name] = true
	}

	for _, clause := range pl.Clauses {
		switch cl := clause.(type) {
		case dsl.WhereClause:
			if err := walkExpr(cl.Cond, reg); err != nil {
				return fmt.Errorf("where: %w", err)
			}
		case dsl.ProjectRemoveClause:
			if err := requireKnown(known, cl.Names); err != nil {
				return err
			}
			for _, n := range cl.Names {
				delete(known, n)
			}
		case dsl.ProjectKeepClause:
			if err := requireKnown(known, cl.Names); err != nil {
				return err
			}
			kept := make(map[string]bool, len(cl.Names))
			for _, n := range cl.Names {
				kept[n] = true
			}
			known = kept
		case dsl.ProjectRenameClause:
			for _, item := range cl.Items {
				if !known[item.Old] {
					return fmt.Errorf("project-rename: unknown column %q", item.Old)
				}
				delete(known, item.Old)
				known[item.New] = true
			}
		case dsl.ProjectClause:
			for _, item := range cl.Items {
				if err := walkExpr(item.Expr, reg); err != nil {
					return fmt.Errorf("project: %w", err)
				}
				known[item.Name] = true
			}
		case dsl.ExplodeClause:
			if !known[cl.Column] {
				return fmt.Errorf("explode: unknown column %q", cl.Column)
			}
		case dsl.TopClause:
			for _, by := range cl.By {
				if err := walkExpr(by.Expr, reg); err != nil {
					return fmt.Errorf("top: %w", err)
				}
			}
		case dsl.LookupClause:
			if _, ok := sources.Get(cl.Source); !ok {
				return fmt.Errorf("lookup: unknown source %q", cl.Source)
			}
			if err := walkExpr(cl.Key, reg); err != nil {
				return fmt.Errorf("lookup: %w", err)
			}
			for _, f := range cl.Fields {
				known[f] = true
			}
		case dsl.JoinClause:
			if cl.Kind != "left-inner" && cl.Kind != "left-outer" {
				return fmt.Errorf("join: invalid kind %q", cl.Kind)
			}
			if _, ok := sources.Get(cl.Source); !ok {
				return fmt.Errorf("join: unknown source %q", cl.Source)
			}
			if err := walkExpr(cl.Key, reg); err != nil {
				return fmt.Errorf("join: %w", err)
			}
			for _, f := range cl.Fields {
				known[f] = true
			}
		case dsl.SummarizeClause:
			for _, by := range cl.By {
				if err := walkExpr(by, reg); err != nil {
					return fmt.Errorf("summarize: %w", err)
				}
			}
			seen := make(map[string]bool)
			for _, by := range cl.By {
				name := summarizeByName(by, len(seen))
				seen[name] = true
			}
			for _, a := range cl.Aggs {
				if err := validateAggCall(a.Expr, reg, aggReg); err != nil {
					return fmt.Errorf("summarize: %w", err)
				}
				if seen[a.Name] {
					return fmt.Errorf("summarize: duplicate output column %q", a.Name)
				}
				seen[a.Name] = true
			}
			known = seen
		}
	}
	return nil
}

func requireKnown(known map[string]bool, names []string) error {
	for _, n := range names {
		if !known[n] {
			return fmt.Errorf("unknown column %q", n)
		}
	}
	return nil
}

// walkExpr recurses through e, validating every CallExpr's function name and
// arity against reg. It does not need the row's schema: a ColumnExpr
// referencing a column that doesn't exist simply evaluates to Null at
// request time, which is not a load-time error.
func walkExpr(e dsl.Expr, reg *funcs.Registry) error {
	switch x := e.(type) {
	case nil, dsl.LiteralExpr, dsl.ColumnExpr:
		return nil
	case dsl.UnaryExpr:
		return walkExpr(x.X, reg)
	case dsl.BinaryExpr:
		if err := walkExpr(x.L, reg); err != nil {
			return err
		}
		return walkExpr(x.R, reg)
	case dsl.IndexExpr:
		if err := walkExpr(x.X, reg); err != nil {
			return err
		}
		return walkExpr(x.Index, reg)
	case dsl.FieldExpr:
		return walkExpr(x.X, reg)
	case dsl.CaseExpr:
		for _, w := range x.Whens {
			if err := walkExpr(w.Cond, reg); err != nil {
				return err
			}
			if err := walkExpr(w.Then, reg); err != nil {
				return err
			}
		}
		if x.Else != nil {
			return walkExpr(x.Else, reg)
		}
		return nil
	case dsl.CallExpr:
		fn, ok := reg.Lookup(x.Func)
		if !ok {
			return fmt.Errorf("unknown function %q", x.Func)
		}
		if len(x.Args) < fn.MinArity || (fn.MaxArity >= 0 && len(x.Args) > fn.MaxArity) {
			return fmt.Errorf("%s: wrong number of arguments (%d)", x.Func, len(x.Args))
		}
		for _, a := range x.Args {
			if err := walkExpr(a, reg); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unhandled expression node %T", e)
	}
}

// validateAggCall checks a summarize item's aggregate call against aggReg
// and its own argument expressions against reg, the scalar registry: an
// aggregate's arguments (e.g. sum(price * qty)) are ordinary scalar
// expressions evaluated per contributing row.
func validateAggCall(a *dsl.CallExpr, reg *funcs.Registry, aggReg *funcs.AggRegistry) error {
	fn, ok := aggReg.Lookup(a.Func)
	if !ok {
		return fmt.Errorf("unknown aggregate function %q", a.Func)
	}
	if len(a.Args) < fn.MinArity || (fn.MaxArity >= 0 && len(a.Args) > fn.MaxArity) {
		return fmt.Errorf("%s: wrong number of arguments (%d)", a.Func, len(a.Args))
	}
	for _, arg := range a.Args {
		if err := walkExpr(arg, reg); err != nil {
			return err
		}
	}
	return nil
}

// summarizeByName mirrors operators.Summarize's own column-naming rule: a
// bare column reference keeps its name, anything else gets a synthesized
// by<N> name.
func summarizeByName(e dsl.Expr, idx int) string {
	if col, ok := e.(dsl.ColumnExpr); ok {
		return col.Name
	}
	return fmt.Sprintf("by%d", idx)
}
