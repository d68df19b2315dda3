// Package catalog wires together the parsed pipeline AST, the operator
// chain, and the function/lookup registries into a servable pipeline: one
// Execute call ingests a single input row and drains the resulting
// row-stream, the same fan-out-then-drain shape a streaming ETL container
// uses for an entire file, scaled down to one request.
package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"piper/internal/dsl"
	"piper/internal/funcs"
	"piper/internal/lookup"
	"piper/internal/operators"
	"piper/internal/rowstream"
	"piper/internal/value"
)

// LedgerEntry records one error surfaced in a pipeline's output, mirroring
// the shape callers need to report per-cell failures without aborting the
// whole request.
type LedgerEntry struct {
	RowIndex   int    `json:"row_index"`
	ColumnName string `json:"column_name"`
	Message    string `json:"message"`
}

// Result is the outcome of one Execute call.
type Result struct {
	Schema value.Schema
	Rows   []value.Row
	Ledger []LedgerEntry
}

// Pipeline is one registered, parsed pipeline ready to execute.
type Pipeline struct {
	ast *dsl.Pipeline
}

// Stats holds cross-request counters, read via Catalog.Stats.
type Stats struct {
	Requests atomic.Int64
	Errors   atomic.Int64
	Rows     atomic.Int64
}

// Catalog is the registry of loaded pipelines plus the shared function and
// lookup-source registries every pipeline executes against.
type Catalog struct {
	pipelines map[string]*Pipeline
	funcs     *funcs.Registry
	aggFuncs  *funcs.AggRegistry
	sources   *lookup.Registry
	stats     Stats
}

func New(reg *funcs.Registry, aggReg *funcs.AggRegistry, sources *lookup.Registry) *Catalog {
	return &Catalog{
		pipelines: make(map[string]*Pipeline),
		funcs:     reg,
		aggFuncs:  aggReg,
		sources:   sources,
	}
}

// Load parses src (one or more `;`-terminated pipeline declarations) and
// registers each one by name, replacing any existing pipeline of the same
// name.
func (c *Catalog) Load(src string) error {
	pls, err := dsl.Parse(src)
	if err != nil {
		return err
	}
	for _, pl := range pls {
		if err := validateClauses(pl, c.funcs, c.aggFuncs, c.sources); err != nil {
			return fmt.Errorf("pipeline %q: %w", pl.Name, err)
		}
		c.pipelines[pl.Name] = &Pipeline{ast: pl}
	}
	return nil
}

func (c *Catalog) Get(name string) (*Pipeline, bool) {
	p, ok := c.pipelines[name]
	return p, ok
}

func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.pipelines))
	for n := range c.pipelines {
		out = append(out, n)
	}
	return out
}

func (c *Catalog) Stats() *Stats { return &c.stats }

// Execute coerces input against the pipeline's declared input schema, runs
// it through the compiled operator chain, and drains the result.
func (c *Catalog) Execute(ctx context.Context, pipelineName string, input map[string]any) (Result, error) {
	p, ok := c.Get(pipelineName)
	if !ok {
		return Result{}, fmt.Errorf("unknown pipeline %q", pipelineName)
	}
	c.stats.Requests.Add(1)

	row, err := coerceInput(p.ast.InputSchema, input)
	if err != nil {
		c.stats.Errors.Add(1)
		return Result{}, err
	}

	stream := rowstream.FromRow(p.ast.InputSchema, row)
	out, err := c.build(ctx, stream, p.ast.Clauses)
	if err != nil {
		c.stats.Errors.Add(1)
		return Result{}, err
	}

	rows, err := rowstream.Drain(ctx, out)
	if err != nil {
		c.stats.Errors.Add(1)
		return Result{}, err
	}
	c.stats.Rows.Add(int64(len(rows)))

	schema := out.Schema()
	ledger := buildLedger(schema, rows)
	if len(ledger) > 0 {
		c.stats.Errors.Add(1)
	}
	return Result{Schema: schema, Rows: rows, Ledger: ledger}, nil
}

// build chains every clause's operator onto in, in declaration order.
func (c *Catalog) build(ctx context.Context, in rowstream.Stream, clauses []dsl.Clause) (rowstream.Stream, error) {
	stream := in
	for _, clause := range clauses {
		next, err := c.applyClause(ctx, stream, clause)
		if err != nil {
			return nil, err
		}
		stream = next
	}
	return stream, nil
}

func (c *Catalog) applyClause(ctx context.Context, in rowstream.Stream, clause dsl.Clause) (rowstream.Stream, error) {
	switch cl := clause.(type) {
	case dsl.WhereClause:
		return operators.Where(in, cl.Cond, c.funcs), nil
	case dsl.TakeClause:
		return operators.Take(in, cl.N), nil
	case dsl.ProjectClause:
		return operators.Project(in, cl.Items, c.funcs), nil
	case dsl.ProjectRemoveClause:
		return operators.ProjectRemove(in, cl.Names)
	case dsl.ProjectKeepClause:
		return operators.ProjectKeep(in, cl.Names)
	case dsl.ProjectRenameClause:
		return operators.ProjectRename(in, cl.Items)
	case dsl.TopClause:
		return operators.Top(ctx, in, cl.N, cl.By, c.funcs)
	case dsl.SummarizeClause:
		return operators.Summarize(ctx, in, cl.Aggs, cl.By, c.funcs, c.aggFuncs)
	case dsl.DistinctClause:
		return operators.Distinct(ctx, in)
	case dsl.ExplodeClause:
		return operators.Explode(in, cl.Column, cl.As)
	case dsl.IgnoreErrorsClause:
		return operators.IgnoreErrors(in), nil
	case dsl.LookupClause:
		src, ok := c.sources.Get(cl.Source)
		if !ok {
			return nil, fmt.Errorf("lookup: unknown source %q", cl.Source)
		}
		return operators.Lookup(in, cl.Fields, src, cl.Key, c.funcs), nil
	case dsl.JoinClause:
		src, ok := c.sources.Get(cl.Source)
		if !ok {
			return nil, fmt.Errorf("join: unknown source %q", cl.Source)
		}
		return operators.Join(in, cl.Kind, cl.Fields, src, cl.Key, c.funcs), nil
	default:
		return nil, fmt.Errorf("unhandled clause type %T", clause)
	}
}

// coerceInput builds the single input Row from a raw JSON-decoded map,
// coercing each declared column per its ColumnType and leaving extra input
// fields out (the row-set is defined by the schema, not the request body).
func coerceInput(schema value.Schema, input map[string]any) (value.Row, error) {
	row := make(value.Row, len(schema.Columns))
	for _, col := range schema.Columns {
		raw, present := input[col.Name]
		if !present || raw == nil {
			row[col.Name] = value.Null()
			continue
		}
		v, err := coerceJSON(col.Type, raw)
		if err != nil {
			return nil, fmt.Errorf("input column %q: %w", col.Name, err)
		}
		row[col.Name] = v
	}
	return row, nil
}

func coerceJSON(typ value.ColumnType, raw any) (value.Value, error) {
	switch typ {
	case value.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return value.Value{}, fmt.Errorf("expected bool, got %T", raw)
		}
		return value.Bool(b), nil
	case value.TypeInt, value.TypeLong:
		f, ok := raw.(float64)
		if !ok {
			return value.Value{}, fmt.Errorf("expected int, got %T", raw)
		}
		return value.Int(int64(f)), nil
	case value.TypeFloat:
		f, ok := raw.(float64)
		if !ok {
			return value.Value{}, fmt.Errorf("expected float, got %T", raw)
		}
		return value.Float(float32(f)), nil
	case value.TypeDouble:
		f, ok := raw.(float64)
		if !ok {
			return value.Value{}, fmt.Errorf("expected double, got %T", raw)
		}
		return value.Double(f), nil
	case value.TypeString:
		s, ok := raw.(string)
		if !ok {
			return value.Value{}, fmt.Errorf("expected string, got %T", raw)
		}
		return value.String(s), nil
	case value.TypeDateTime:
		s, ok := raw.(string)
		if !ok {
			return value.Value{}, fmt.Errorf("expected datetime string, got %T", raw)
		}
		v := funcs.ParseDatetime(s)
		if v.IsError() {
			return value.Value{}, fmt.Errorf("%s", v.AsErr().Message)
		}
		return v, nil
	case value.TypeArray, value.TypeObject, value.TypeDynamic:
		return jsonToValue(raw), nil
	default:
		return jsonToValue(raw), nil
	}
}

func jsonToValue(raw any) value.Value {
	switch t := raw.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(t)
	case float64:
		return value.Double(t)
	case string:
		return value.String(t)
	case []any:
		items := make([]value.Value, len(t))
		for i, e := range t {
			items[i] = jsonToValue(e)
		}
		return value.List(items)
	case map[string]any:
		m := make(map[string]value.Value, len(t))
		var order []string
		for k, e := range t {
			m[k] = jsonToValue(e)
			order = append(order, k)
		}
		return value.Map(m, order)
	default:
		return value.Null()
	}
}

func buildLedger(schema value.Schema, rows []value.Row) []LedgerEntry {
	var ledger []LedgerEntry
	for i, row := range rows {
		for _, c := range schema.Columns {
			if v := row[c.Name]; v.IsError() {
				ledger = append(ledger, LedgerEntry{RowIndex: i, ColumnName: c.Name, Message: v.AsErr().Message})
			}
		}
	}
	return ledger
}
