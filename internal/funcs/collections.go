package funcs

import (
	"fmt"

	"piper/internal/value"
)

func collectionFuncs() []Func {
	return []Func{
		{Name: "size", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			switch a[0].Kind() {
			case value.KindList:
				return value.Int(int64(len(a[0].AsList())))
			case value.KindMap:
				m, _ := a[0].AsMap()
				return value.Int(int64(len(m)))
			default:
				return value.Error(value.ErrType, fmt.Sprintf("size not defined for %s", a[0].Kind()))
			}
		}},
		{Name: "get", MinArity: 2, MaxArity: 2, Call: func(a []value.Value) value.Value {
			switch a[0].Kind() {
			case value.KindList:
				if !isInt(a[1]) {
					return value.Error(value.ErrType, "get index must be an int for a list")
				}
				list := a[0].AsList()
				i := int(a[1].AsInt())
				if i < 0 || i >= len(list) {
					return value.Null()
				}
				return list[i]
			case value.KindMap:
				if a[1].Kind() != value.KindString {
					return value.Error(value.ErrType, "get key must be a string for a map")
				}
				m, _ := a[0].AsMap()
				if v, ok := m[a[1].AsString()]; ok {
					return v
				}
				return value.Null()
			default:
				return value.Error(value.ErrType, fmt.Sprintf("get not defined for %s", a[0].Kind()))
			}
		}},
		{Name: "keys", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindMap {
				return value.Error(value.ErrType, "keys requires an object argument")
			}
			_, keys := a[0].AsMap()
			out := make([]value.Value, len(keys))
			for i, k := range keys {
				out[i] = value.String(k)
			}
			return value.List(out)
		}},
		{Name: "values", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindMap {
				return value.Error(value.ErrType, "values requires an object argument")
			}
			m, keys := a[0].AsMap()
			out := make([]value.Value, len(keys))
			for i, k := range keys {
				out[i] = m[k]
			}
			return value.List(out)
		}},
		{Name: "array_contains", MinArity: 2, MaxArity: 2, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindList {
				return value.Error(value.ErrType, "array_contains requires a list argument")
			}
			for _, e := range a[0].AsList() {
				if value.Equal(e, a[1]) {
					return value.Bool(true)
				}
			}
			return value.Bool(false)
		}},
	}
}
