// Package eval implements the pure, synchronous expression evaluator: given
// a dsl.Expr and a row of values, it produces a single value.Value. Errors
// are never returned as Go errors — they are carried as value.Value (kind
// Error) per the error-propagation law, so a failing subexpression never
// aborts evaluation of its siblings.
package eval

import (
	"fmt"
	"strings"

	"piper/internal/dsl"
	"piper/internal/funcs"
	"piper/internal/value"
)

// Env is the evaluation context for a single row.
type Env struct {
	Row      value.Row
	Registry *funcs.Registry
}

// Eval evaluates e against env, returning a Value that is never a Go error —
// failures are represented as value.Error.
func Eval(e dsl.Expr, env *Env) value.Value {
	switch x := e.(type) {
	case dsl.LiteralExpr:
		return x.Value
	case dsl.ColumnExpr:
		if v, ok := env.Row[x.Name]; ok {
			return v
		}
		return value.Null()
	case dsl.UnaryExpr:
		return evalUnary(x, env)
	case dsl.BinaryExpr:
		return evalBinary(x, env)
	case dsl.IndexExpr:
		return evalIndex(x, env)
	case dsl.FieldExpr:
		return evalField(x, env)
	case dsl.CallExpr:
		return evalCall(x, env)
	case dsl.CaseExpr:
		return evalCase(x, env)
	default:
		return value.Error(value.ErrInternal, fmt.Sprintf("unhandled expression node %T", e))
	}
}

func evalUnary(x dsl.UnaryExpr, env *Env) value.Value {
	v := Eval(x.X, env)
	if v.IsError() {
		return v
	}
	switch x.Op {
	case "-":
		if !v.IsNumeric() {
			return value.Error(value.ErrType, fmt.Sprintf("unary - requires a numeric operand, got %s", v.Kind()))
		}
		switch v.Kind() {
		case value.KindInt:
			return value.Int(-v.AsInt())
		case value.KindFloat:
			return value.Float(-float32(v.AsFloat()))
		default:
			return value.Double(-v.AsNumber())
		}
	case "not":
		if v.Kind() != value.KindBool {
			return value.Error(value.ErrType, fmt.Sprintf("not requires a bool operand, got %s", v.Kind()))
		}
		return value.Bool(!v.AsBool())
	default:
		return value.Error(value.ErrInternal, fmt.Sprintf("unknown unary operator %q", x.Op))
	}
}

func evalBinary(x dsl.BinaryExpr, env *Env) value.Value {
	// and/or short-circuit: the error-propagation law still applies to the
	// side that IS evaluated, but a short-circuited side is never touched.
	switch x.Op {
	case "and":
		l := Eval(x.L, env)
		if l.IsError() {
			return l
		}
		if l.Kind() != value.KindBool {
			return value.Error(value.ErrType, fmt.Sprintf("and requires bool operands, got %s", l.Kind()))
		}
		if !l.AsBool() {
			return value.Bool(false)
		}
		r := Eval(x.R, env)
		if r.IsError() {
			return r
		}
		if r.Kind() != value.KindBool {
			return value.Error(value.ErrType, fmt.Sprintf("and requires bool operands, got %s", r.Kind()))
		}
		return value.Bool(r.AsBool())
	case "or":
		l := Eval(x.L, env)
		if l.IsError() {
			return l
		}
		if l.Kind() != value.KindBool {
			return value.Error(value.ErrType, fmt.Sprintf("or requires bool operands, got %s", l.Kind()))
		}
		if l.AsBool() {
			return value.Bool(true)
		}
		r := Eval(x.R, env)
		if r.IsError() {
			return r
		}
		if r.Kind() != value.KindBool {
			return value.Error(value.ErrType, fmt.Sprintf("or requires bool operands, got %s", r.Kind()))
		}
		return value.Bool(r.AsBool())
	}

	l := Eval(x.L, env)
	r := Eval(x.R, env)
	if fe, ok := value.FirstError(l, r); ok {
		return fe
	}

	switch x.Op {
	case "+":
		if l.Kind() == value.KindString || r.Kind() == value.KindString {
			return value.String(toDisplayString(l) + toDisplayString(r))
		}
		return arith(l, r, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
	case "-":
		return arith(l, r, func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
	case "*":
		return arith(l, r, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
	case "/":
		if !l.IsNumeric() || !r.IsNumeric() {
			return value.Error(value.ErrType, fmt.Sprintf("/ requires numeric operands, got %s and %s", l.Kind(), r.Kind()))
		}
		if isIntKind(l) && isIntKind(r) {
			if r.AsInt() == 0 {
				return value.Error(value.ErrArith, "division by zero")
			}
			return value.Int(l.AsInt() / r.AsInt())
		}
		if r.AsNumber() == 0 {
			return value.Error(value.ErrArith, "division by zero")
		}
		return value.Double(l.AsNumber() / r.AsNumber())
	case "%":
		if !isIntKind(l) || !isIntKind(r) {
			return value.Error(value.ErrType, fmt.Sprintf("%% requires integer operands, got %s and %s", l.Kind(), r.Kind()))
		}
		if r.AsInt() == 0 {
			return value.Error(value.ErrArith, "modulo by zero")
		}
		return value.Int(l.AsInt() % r.AsInt())
	case "==":
		return value.Bool(value.Equal(l, r))
	case "!=":
		return value.Bool(!value.Equal(l, r))
	case "<", "<=", ">", ">=":
		return compare(x.Op, l, r)
	default:
		return value.Error(value.ErrInternal, fmt.Sprintf("unknown binary operator %q", x.Op))
	}
}

func isIntKind(v value.Value) bool { return v.Kind() == value.KindInt }

// arith promotes to Double whenever either side is Float/Double, otherwise
// stays in Int.
func arith(l, r value.Value, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) value.Value {
	if !l.IsNumeric() || !r.IsNumeric() {
		return value.Error(value.ErrType, fmt.Sprintf("arithmetic requires numeric operands, got %s and %s", l.Kind(), r.Kind()))
	}
	if isIntKind(l) && isIntKind(r) {
		return value.Int(intOp(l.AsInt(), r.AsInt()))
	}
	return value.Double(floatOp(l.AsNumber(), r.AsNumber()))
}

func compare(op string, l, r value.Value) value.Value {
	var lt, eq bool
	switch {
	case l.IsNumeric() && r.IsNumeric():
		lt = l.AsNumber() < r.AsNumber()
		eq = l.AsNumber() == r.AsNumber()
	case l.Kind() == value.KindString && r.Kind() == value.KindString:
		lt = l.AsString() < r.AsString()
		eq = l.AsString() == r.AsString()
	case l.Kind() == value.KindDateTime && r.Kind() == value.KindDateTime:
		lt = l.AsTime().Before(r.AsTime())
		eq = l.AsTime().Equal(r.AsTime())
	default:
		return value.Error(value.ErrType, fmt.Sprintf("%s is not defined for %s and %s", op, l.Kind(), r.Kind()))
	}
	switch op {
	case "<":
		return value.Bool(lt)
	case "<=":
		return value.Bool(lt || eq)
	case ">":
		return value.Bool(!lt && !eq)
	case ">=":
		return value.Bool(!lt)
	}
	return value.Error(value.ErrInternal, "unreachable comparison operator")
}

func toDisplayString(v value.Value) string {
	if v.Kind() == value.KindString {
		return v.AsString()
	}
	return funcs.Stringify(v)
}

func evalIndex(x dsl.IndexExpr, env *Env) value.Value {
	v := Eval(x.X, env)
	idx := Eval(x.Index, env)
	if fe, ok := value.FirstError(v, idx); ok {
		return fe
	}
	switch v.Kind() {
	case value.KindList:
		if !isIntKind(idx) {
			return value.Error(value.ErrType, "list index must be an int")
		}
		list := v.AsList()
		i := int(idx.AsInt())
		if i < 0 || i >= len(list) {
			return value.Error(value.ErrSemantic, fmt.Sprintf("list index %d out of range [0,%d)", i, len(list)))
		}
		return list[i]
	case value.KindMap:
		if idx.Kind() != value.KindString {
			return value.Error(value.ErrType, "map index must be a string")
		}
		m, _ := v.AsMap()
		if got, ok := m[idx.AsString()]; ok {
			return got
		}
		return value.Null()
	case value.KindNull:
		return value.Null()
	default:
		return value.Error(value.ErrType, fmt.Sprintf("cannot index into %s", v.Kind()))
	}
}

func evalField(x dsl.FieldExpr, env *Env) value.Value {
	v := Eval(x.X, env)
	if v.IsError() {
		return v
	}
	switch v.Kind() {
	case value.KindMap:
		m, _ := v.AsMap()
		if got, ok := m[x.Name]; ok {
			return got
		}
		return value.Null()
	case value.KindNull:
		return value.Null()
	default:
		return value.Error(value.ErrType, fmt.Sprintf("cannot access field %q on %s", x.Name, v.Kind()))
	}
}

func evalCall(x dsl.CallExpr, env *Env) value.Value {
	fn, ok := env.Registry.Lookup(x.Func)
	if !ok {
		return value.Error(value.ErrSemantic, fmt.Sprintf("unknown function %q", strings.ToLower(x.Func)))
	}
	args := make([]value.Value, len(x.Args))
	for i, a := range x.Args {
		args[i] = Eval(a, env)
	}
	if fe, ok := value.FirstError(args...); ok && !fn.AllowsErrorArgs {
		return fe
	}
	if len(args) < fn.MinArity || (fn.MaxArity >= 0 && len(args) > fn.MaxArity) {
		return value.Error(value.ErrSemantic, fmt.Sprintf("%s: wrong number of arguments (%d)", x.Func, len(args)))
	}
	return fn.Call(args)
}

func evalCase(x dsl.CaseExpr, env *Env) value.Value {
	for _, w := range x.Whens {
		c := Eval(w.Cond, env)
		if c.IsError() {
			return c
		}
		if c.Kind() != value.KindBool {
			return value.Error(value.ErrType, fmt.Sprintf("case when condition must be bool, got %s", c.Kind()))
		}
		if c.AsBool() {
			return Eval(w.Then, env)
		}
	}
	if x.Else != nil {
		return Eval(x.Else, env)
	}
	return value.Null()
}
