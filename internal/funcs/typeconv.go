package funcs

import (
	"fmt"
	"strconv"

	"piper/internal/value"
)

func typeConvFuncs() []Func {
	return []Func{
		{Name: "type_of", MinArity: 1, MaxArity: 1, AllowsErrorArgs: true, Call: func(a []value.Value) value.Value {
			return value.String(a[0].Kind().String())
		}},
		{Name: "to_int", MinArity: 1, MaxArity: 1, Call: toIntLike},
		{Name: "to_long", MinArity: 1, MaxArity: 1, Call: toIntLike},
		{Name: "to_double", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			v := a[0]
			switch v.Kind() {
			case value.KindInt, value.KindFloat, value.KindDouble:
				return value.Double(v.AsNumber())
			case value.KindString:
				f, err := strconv.ParseFloat(v.AsString(), 64)
				if err != nil {
					return value.Error(value.ErrType, fmt.Sprintf("cannot convert %q to double", v.AsString()))
				}
				return value.Double(f)
			case value.KindBool:
				if v.AsBool() {
					return value.Double(1)
				}
				return value.Double(0)
			default:
				return value.Error(value.ErrType, fmt.Sprintf("cannot convert %s to double", v.Kind()))
			}
		}},
		{Name: "to_string", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			return value.String(Stringify(a[0]))
		}},
		{Name: "to_bool", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			v := a[0]
			switch v.Kind() {
			case value.KindBool:
				return v
			case value.KindString:
				b, err := strconv.ParseBool(v.AsString())
				if err != nil {
					return value.Error(value.ErrType, fmt.Sprintf("cannot convert %q to bool", v.AsString()))
				}
				return value.Bool(b)
			case value.KindInt:
				return value.Bool(v.AsInt() != 0)
			default:
				return value.Error(value.ErrType, fmt.Sprintf("cannot convert %s to bool", v.Kind()))
			}
		}},
		{Name: "to_datetime", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			v := a[0]
			if v.Kind() == value.KindDateTime {
				return v
			}
			if v.Kind() != value.KindString {
				return value.Error(value.ErrType, fmt.Sprintf("cannot convert %s to datetime", v.Kind()))
			}
			return parseDatetimeString(v.AsString())
		}},
	}
}

func toIntLike(a []value.Value) value.Value {
	v := a[0]
	switch v.Kind() {
	case value.KindInt:
		return v
	case value.KindFloat, value.KindDouble:
		return value.Int(int64(v.AsNumber()))
	case value.KindString:
		i, err := strconv.ParseInt(v.AsString(), 10, 64)
		if err != nil {
			return value.Error(value.ErrType, fmt.Sprintf("cannot convert %q to int", v.AsString()))
		}
		return value.Int(i)
	case value.KindBool:
		if v.AsBool() {
			return value.Int(1)
		}
		return value.Int(0)
	default:
		return value.Error(value.ErrType, fmt.Sprintf("cannot convert %s to int", v.Kind()))
	}
}
