// Package value implements the tagged-union value lattice shared by the
// parser, evaluator, operators, and lookup sources: every cell in a row is
// one Value, and Error is a first-class member of the union rather than a
// side channel, so it can flow through arithmetic, comparisons, and function
// calls the same way any other value does.
package value

import (
	"fmt"
	"sort"
	"time"
)

// Kind identifies which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDouble
	KindString
	KindDateTime
	KindList
	KindMap
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	case KindList:
		return "array"
	case KindMap:
		return "object"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorCode enumerates the error kinds a cell-level error can carry.
// SyntaxError and TimeoutError are request-level failures that never reach
// a Value and are returned directly by the catalog/parser instead.
// SemanticError is also raised at request level, but evaluation can put it
// in a cell too (an out-of-range index, an unknown function or wrong arity,
// an invalid regex, bad substring bounds).
type ErrorCode string

const (
	ErrSyntax    ErrorCode = "SyntaxError"
	ErrSemantic  ErrorCode = "SemanticError"
	ErrType      ErrorCode = "TypeError"
	ErrArith     ErrorCode = "ArithmeticError"
	ErrLookup    ErrorCode = "LookupError"
	ErrTimeout   ErrorCode = "TimeoutError"
	ErrInternal  ErrorCode = "InternalError"
)

// Err is the payload of a KindError Value.
type Err struct {
	Code    ErrorCode
	Message string
}

func (e Err) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Value is an immutable tagged union. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f32  float32
	f64  float64
	s    string
	t    time.Time
	list []Value
	m    map[string]Value
	mKeys []string // insertion order, for deterministic iteration in tests
	err  Err
}

func Null() Value                  { return Value{kind: KindNull} }
func Bool(b bool) Value            { return Value{kind: KindBool, b: b} }
func Int(i int64) Value            { return Value{kind: KindInt, i: i} }
func Float(f float32) Value        { return Value{kind: KindFloat, f32: f} }
func Double(f float64) Value       { return Value{kind: KindDouble, f64: f} }
func String(s string) Value        { return Value{kind: KindString, s: s} }
func DateTime(t time.Time) Value   { return Value{kind: KindDateTime, t: t} }
func List(vs []Value) Value        { return Value{kind: KindList, list: vs} }

func Map(m map[string]Value, keyOrder []string) Value {
	if keyOrder == nil {
		keyOrder = make([]string, 0, len(m))
		for k := range m {
			keyOrder = append(keyOrder, k)
		}
	}
	return Value{kind: KindMap, m: m, mKeys: keyOrder}
}

func Error(code ErrorCode, message string) Value {
	return Value{kind: KindError, err: Err{Code: code, Message: message}}
}

func ErrorFrom(err error) Value {
	if ve, ok := err.(Err); ok {
		return Error(ve.Code, ve.Message)
	}
	return Error(ErrInternal, err.Error())
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsError() bool     { return v.kind == KindError }
func (v Value) AsBool() bool      { return v.b }
func (v Value) AsInt() int64      { return v.i }
func (v Value) AsFloat() float32  { return v.f32 }
func (v Value) AsDouble() float64 { return v.f64 }
func (v Value) AsString() string  { return v.s }
func (v Value) AsTime() time.Time { return v.t }
func (v Value) AsList() []Value   { return v.list }
func (v Value) AsErr() Err        { return v.err }

// AsMap returns the underlying map and its insertion-order key list. Callers
// must not mutate either; Value is treated as immutable throughout the
// engine.
func (v Value) AsMap() (map[string]Value, []string) { return v.m, v.mKeys }

// IsNumeric reports whether v is one of the numeric kinds (Int/Float/Double).
func (v Value) IsNumeric() bool {
	switch v.kind {
	case KindInt, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// AsNumber widens any numeric kind to float64, for use in comparisons and
// promotions where the caller has already checked IsNumeric.
func (v Value) AsNumber() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return float64(v.f32)
	case KindDouble:
		return v.f64
	default:
		return 0
	}
}

// FirstError returns the first KindError value among vs, scanning left to
// right: an expression with several failing operands deterministically
// surfaces the one closest to the start rather than an arbitrary one.
func FirstError(vs ...Value) (Value, bool) {
	for _, v := range vs {
		if v.kind == KindError {
			return v, true
		}
	}
	return Value{}, false
}

// Equal implements value-lattice equality: Null equals only Null, numbers
// compare across numeric variants, Bool compares only with Bool, and so on.
// Error values are never equal to anything, including another Error — the
// lattice has no notion of error identity.
func Equal(a, b Value) bool {
	if a.kind == KindError || b.kind == KindError {
		return false
	}
	if a.kind == KindNull || b.kind == KindNull {
		return a.kind == KindNull && b.kind == KindNull
	}
	if a.IsNumeric() && b.IsNumeric() {
		return a.AsNumber() == b.AsNumber()
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindDateTime:
		return a.t.Equal(b.t)
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.m) != len(b.m) {
			return false
		}
		for k, av := range a.m {
			bv, ok := b.m[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// HashKey returns a string that is equal for, and only for, values that
// Equal reports as equal — used by distinct/summarize for grouping. It is
// not part of the user-visible value lattice.
func HashKey(v Value) string {
	switch v.kind {
	case KindNull:
		return "\x00N"
	case KindBool:
		if v.b {
			return "\x00B1"
		}
		return "\x00B0"
	case KindInt, KindFloat, KindDouble:
		return fmt.Sprintf("\x00#%v", v.AsNumber())
	case KindString:
		return "\x00S" + v.s
	case KindDateTime:
		return "\x00T" + v.t.UTC().Format(time.RFC3339Nano)
	case KindList:
		out := "\x00L["
		for _, e := range v.list {
			out += HashKey(e) + ","
		}
		return out + "]"
	case KindMap:
		out := "\x00M{"
		keys := append([]string(nil), v.mKeys...)
		sort.Strings(keys)
		for _, k := range keys {
			out += k + "=" + HashKey(v.m[k]) + ","
		}
		return out + "}"
	default:
		return fmt.Sprintf("\x00?%p", &v)
	}
}
