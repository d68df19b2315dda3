package funcs

import (
	"fmt"
	"math"

	"piper/internal/value"
)

func arithFuncs() []Func {
	return []Func{
		unaryNumeric("abs", func(f float64) float64 { return math.Abs(f) }),
		unaryNumeric("ceil", math.Ceil),
		unaryNumeric("floor", math.Floor),
		unaryNumeric("round", math.Round),
		unaryNumeric("exp", math.Exp),
		unaryNumeric("sqrt", math.Sqrt),
		{
			Name: "log", MinArity: 1, MaxArity: 2,
			Call: func(args []value.Value) value.Value {
				if !args[0].IsNumeric() {
					return value.Error(value.ErrType, "log requires a numeric argument")
				}
				x := args[0].AsNumber()
				if len(args) == 1 {
					if x <= 0 {
						return value.Error(value.ErrArith, "log of non-positive number")
					}
					return value.Double(math.Log(x))
				}
				if !args[1].IsNumeric() {
					return value.Error(value.ErrType, "log base must be numeric")
				}
				base := args[1].AsNumber()
				if x <= 0 || base <= 0 || base == 1 {
					return value.Error(value.ErrArith, "log undefined for given arguments")
				}
				return value.Double(math.Log(x) / math.Log(base))
			},
		},
		{
			Name: "pow", MinArity: 2, MaxArity: 2,
			Call: func(args []value.Value) value.Value {
				if !args[0].IsNumeric() || !args[1].IsNumeric() {
					return value.Error(value.ErrType, "pow requires numeric arguments")
				}
				return value.Double(math.Pow(args[0].AsNumber(), args[1].AsNumber()))
			},
		},
	}
}

func unaryNumeric(name string, f func(float64) float64) Func {
	return Func{
		Name: name, MinArity: 1, MaxArity: 1,
		Call: func(args []value.Value) value.Value {
			v := args[0]
			if !v.IsNumeric() {
				return value.Error(value.ErrType, fmt.Sprintf("%s requires a numeric argument, got %s", name, v.Kind()))
			}
			if v.Kind() == value.KindInt && (name == "abs" || name == "ceil" || name == "floor" || name == "round") {
				i := v.AsInt()
				if name == "abs" && i < 0 {
					return value.Int(-i)
				}
				return value.Int(i)
			}
			return value.Double(f(v.AsNumber()))
		},
	}
}
