package funcs

import (
	"fmt"

	"piper/internal/value"
)

// Aggregator accumulates one summarize column across the rows of a single
// group. A fresh Aggregator is created per group per aggregate column.
type Aggregator interface {
	// Add feeds the evaluated call arguments for one row.
	Add(args []value.Value)
	Result() value.Value
}

// AggFunc describes one registered aggregate function.
type AggFunc struct {
	Name     string
	MinArity int
	MaxArity int
	New      func() Aggregator
}

// AggRegistry is the summarize-clause function table, kept separate from
// Registry because aggregates are stateful across rows rather than pure
// per-row calls.
type AggRegistry struct {
	fns map[string]AggFunc
}

func NewAggRegistry() *AggRegistry {
	r := &AggRegistry{fns: make(map[string]AggFunc)}
	for _, f := range []AggFunc{
		{Name: "count", MinArity: 0, MaxArity: 1, New: func() Aggregator { return &countAgg{} }},
		{Name: "count_distinct", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &countDistinctAgg{seen: map[string]bool{}} }},
		{Name: "sum", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &sumAgg{} }},
		{Name: "avg", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &avgAgg{} }},
		{Name: "min", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &minMaxAgg{isMin: true} }},
		{Name: "max", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &minMaxAgg{isMin: false} }},
		{Name: "any", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &anyAllAgg{isAny: true} }},
		{Name: "all", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &anyAllAgg{isAny: false, result: true} }},
		{Name: "array_agg", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &arrayAgg{} }},
		{Name: "first", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &firstLastAgg{first: true} }},
		{Name: "last", MinArity: 1, MaxArity: 1, New: func() Aggregator { return &firstLastAgg{first: false} }},
	} {
		r.fns[f.Name] = f
	}
	return r
}

func (r *AggRegistry) Lookup(name string) (AggFunc, bool) {
	f, ok := r.fns[lower(name)]
	return f, ok
}

// errState is embedded by every aggregator so that an Error argument seen on
// any row wins the group's result, per the error-propagation law.
type errState struct{ err *value.Value }

func (e *errState) capture(v value.Value) bool {
	if v.IsError() {
		if e.err == nil {
			c := v
			e.err = &c
		}
		return true
	}
	return false
}

type countAgg struct {
	errState
	n int64
}

func (a *countAgg) Add(args []value.Value) {
	if len(args) == 1 && a.capture(args[0]) {
		return
	}
	if len(args) == 1 && args[0].IsNull() {
		return
	}
	a.n++
}
func (a *countAgg) Result() value.Value {
	if a.err != nil {
		return *a.err
	}
	return value.Int(a.n)
}

type countDistinctAgg struct {
	errState
	seen map[string]bool
}

func (a *countDistinctAgg) Add(args []value.Value) {
	if a.capture(args[0]) || args[0].IsNull() {
		return
	}
	a.seen[value.HashKey(args[0])] = true
}
func (a *countDistinctAgg) Result() value.Value {
	if a.err != nil {
		return *a.err
	}
	return value.Int(int64(len(a.seen)))
}

type sumAgg struct {
	errState
	isFloat bool
	i       int64
	f       float64
	any     bool
}

func (a *sumAgg) Add(args []value.Value) {
	v := args[0]
	if a.capture(v) || v.IsNull() {
		return
	}
	if !v.IsNumeric() {
		a.capture(value.Error(value.ErrType, fmt.Sprintf("sum requires numeric values, got %s", v.Kind())))
		return
	}
	a.any = true
	if v.Kind() == value.KindInt && !a.isFloat {
		a.i += v.AsInt()
		return
	}
	if !a.isFloat {
		a.f = float64(a.i)
		a.isFloat = true
	}
	a.f += v.AsNumber()
}
func (a *sumAgg) Result() value.Value {
	if a.err != nil {
		return *a.err
	}
	if a.isFloat {
		return value.Double(a.f)
	}
	return value.Int(a.i)
}

type avgAgg struct {
	errState
	sum   float64
	count int64
}

func (a *avgAgg) Add(args []value.Value) {
	v := args[0]
	if a.capture(v) || v.IsNull() {
		return
	}
	if !v.IsNumeric() {
		a.capture(value.Error(value.ErrType, fmt.Sprintf("avg requires numeric values, got %s", v.Kind())))
		return
	}
	a.sum += v.AsNumber()
	a.count++
}
func (a *avgAgg) Result() value.Value {
	if a.err != nil {
		return *a.err
	}
	if a.count == 0 {
		return value.Null()
	}
	return value.Double(a.sum / float64(a.count))
}

type minMaxAgg struct {
	errState
	isMin bool
	cur   value.Value
	any   bool
}

func (a *minMaxAgg) Add(args []value.Value) {
	v := args[0]
	if a.capture(v) || v.IsNull() {
		return
	}
	if !a.any {
		a.cur = v
		a.any = true
		return
	}
	lt, ok := less(v, a.cur)
	if !ok {
		a.capture(value.Error(value.ErrType, fmt.Sprintf("min/max not comparable for %s and %s", v.Kind(), a.cur.Kind())))
		return
	}
	if (a.isMin && lt) || (!a.isMin && !lt && !value.Equal(v, a.cur)) {
		a.cur = v
	}
}
func (a *minMaxAgg) Result() value.Value {
	if a.err != nil {
		return *a.err
	}
	if !a.any {
		return value.Null()
	}
	return a.cur
}

// less reports whether a < b for orderable kinds, mirroring the comparison
// coercions used by the `<` operator.
func less(a, b value.Value) (bool, bool) {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return a.AsNumber() < b.AsNumber(), true
	case a.Kind() == value.KindString && b.Kind() == value.KindString:
		return a.AsString() < b.AsString(), true
	case a.Kind() == value.KindDateTime && b.Kind() == value.KindDateTime:
		return a.AsTime().Before(b.AsTime()), true
	default:
		return false, false
	}
}

type anyAllAgg struct {
	errState
	isAny  bool
	result bool
}

func (a *anyAllAgg) Add(args []value.Value) {
	v := args[0]
	if a.capture(v) || v.IsNull() {
		return
	}
	if v.Kind() != value.KindBool {
		a.capture(value.Error(value.ErrType, fmt.Sprintf("any/all requires bool values, got %s", v.Kind())))
		return
	}
	if a.isAny && v.AsBool() {
		a.result = true
	}
	if !a.isAny && !v.AsBool() {
		a.result = false
	}
}
func (a *anyAllAgg) Result() value.Value {
	if a.err != nil {
		return *a.err
	}
	return value.Bool(a.result)
}

type arrayAgg struct {
	errState
	items []value.Value
}

func (a *arrayAgg) Add(args []value.Value) {
	if a.capture(args[0]) {
		return
	}
	a.items = append(a.items, args[0])
}
func (a *arrayAgg) Result() value.Value {
	if a.err != nil {
		return *a.err
	}
	return value.List(a.items)
}

type firstLastAgg struct {
	errState
	first bool
	v     value.Value
	any   bool
}

func (a *firstLastAgg) Add(args []value.Value) {
	if a.capture(args[0]) {
		return
	}
	if a.first && a.any {
		return
	}
	a.v = args[0]
	a.any = true
}
func (a *firstLastAgg) Result() value.Value {
	if a.err != nil {
		return *a.err
	}
	if !a.any {
		return value.Null()
	}
	return a.v
}
