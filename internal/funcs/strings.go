package funcs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"piper/internal/value"
)

func stringFuncs() []Func {
	return []Func{
		{Name: "length", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			switch a[0].Kind() {
			case value.KindString:
				return value.Int(int64(len([]rune(a[0].AsString()))))
			case value.KindList:
				return value.Int(int64(len(a[0].AsList())))
			default:
				return value.Error(value.ErrType, fmt.Sprintf("length not defined for %s", a[0].Kind()))
			}
		}},
		{Name: "lower", MinArity: 1, MaxArity: 1, Call: str1(strings.ToLower)},
		{Name: "upper", MinArity: 1, MaxArity: 1, Call: str1(strings.ToUpper)},
		{Name: "trim", MinArity: 1, MaxArity: 1, Call: str1(strings.TrimSpace)},
		{Name: "concat", MinArity: 0, MaxArity: -1, Call: func(a []value.Value) value.Value {
			var b strings.Builder
			for _, v := range a {
				if v.Kind() != value.KindString {
					return value.Error(value.ErrType, "concat requires string arguments")
				}
				b.WriteString(v.AsString())
			}
			return value.String(b.String())
		}},
		{Name: "split", MinArity: 2, MaxArity: 2, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindString || a[1].Kind() != value.KindString {
				return value.Error(value.ErrType, "split requires string arguments")
			}
			parts := strings.Split(a[0].AsString(), a[1].AsString())
			out := make([]value.Value, len(parts))
			for i, p := range parts {
				out[i] = value.String(p)
			}
			return value.List(out)
		}},
		{Name: "substring", MinArity: 2, MaxArity: 3, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindString {
				return value.Error(value.ErrType, "substring requires a string argument")
			}
			if !isInt(a[1]) {
				return value.Error(value.ErrType, "substring start must be an int")
			}
			runes := []rune(a[0].AsString())
			start := int(a[1].AsInt())
			if start < 0 || start > len(runes) {
				return value.Error(value.ErrSemantic, fmt.Sprintf("substring start %d out of range", start))
			}
			end := len(runes)
			if len(a) == 3 {
				if !isInt(a[2]) {
					return value.Error(value.ErrType, "substring length must be an int")
				}
				end = start + int(a[2].AsInt())
				if end > len(runes) {
					return value.Error(value.ErrSemantic, fmt.Sprintf("substring length overruns string of length %d", len(runes)))
				}
			}
			if end < start {
				return value.Error(value.ErrSemantic, "substring end before start")
			}
			return value.String(string(runes[start:end]))
		}},
		{Name: "replace", MinArity: 3, MaxArity: 3, Call: func(a []value.Value) value.Value {
			for _, v := range a {
				if v.Kind() != value.KindString {
					return value.Error(value.ErrType, "replace requires string arguments")
				}
			}
			return value.String(strings.ReplaceAll(a[0].AsString(), a[1].AsString(), a[2].AsString()))
		}},
		{Name: "contains", MinArity: 2, MaxArity: 2, Call: strBoolOp(strings.Contains)},
		{Name: "starts_with", MinArity: 2, MaxArity: 2, Call: strBoolOp(strings.HasPrefix)},
		{Name: "ends_with", MinArity: 2, MaxArity: 2, Call: strBoolOp(strings.HasSuffix)},
		{Name: "regex_match", MinArity: 2, MaxArity: 2, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindString || a[1].Kind() != value.KindString {
				return value.Error(value.ErrType, "regex_match requires string arguments")
			}
			re, err := regexp.Compile(a[1].AsString())
			if err != nil {
				return value.Error(value.ErrSemantic, fmt.Sprintf("invalid regex: %v", err))
			}
			return value.Bool(re.MatchString(a[0].AsString()))
		}},
		{Name: "regex_extract", MinArity: 2, MaxArity: 3, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindString || a[1].Kind() != value.KindString {
				return value.Error(value.ErrType, "regex_extract requires string arguments")
			}
			group := 0
			if len(a) == 3 {
				if !isInt(a[2]) {
					return value.Error(value.ErrType, "regex_extract group must be an int")
				}
				group = int(a[2].AsInt())
			}
			re, err := regexp.Compile(a[1].AsString())
			if err != nil {
				return value.Error(value.ErrSemantic, fmt.Sprintf("invalid regex: %v", err))
			}
			m := re.FindStringSubmatch(a[0].AsString())
			if m == nil || group >= len(m) {
				return value.Null()
			}
			return value.String(m[group])
		}},
	}
}

func isInt(v value.Value) bool { return v.Kind() == value.KindInt }

func str1(f func(string) string) func([]value.Value) value.Value {
	return func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindString {
			return value.Error(value.ErrType, "expected a string argument")
		}
		return value.String(f(a[0].AsString()))
	}
}

func strBoolOp(f func(s, sub string) bool) func([]value.Value) value.Value {
	return func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindString || a[1].Kind() != value.KindString {
			return value.Error(value.ErrType, "expected string arguments")
		}
		return value.Bool(f(a[0].AsString(), a[1].AsString()))
	}
}

// Stringify renders v for implicit string-concatenation, mirroring the
// coercions spec'd for `+` when one side is already a string.
func Stringify(v value.Value) string {
	switch v.Kind() {
	case value.KindNull:
		return "null"
	case value.KindBool:
		return strconv.FormatBool(v.AsBool())
	case value.KindInt:
		return strconv.FormatInt(v.AsInt(), 10)
	case value.KindFloat:
		return strconv.FormatFloat(float64(v.AsFloat()), 'g', -1, 32)
	case value.KindDouble:
		return strconv.FormatFloat(v.AsDouble(), 'g', -1, 64)
	case value.KindString:
		return v.AsString()
	case value.KindDateTime:
		return v.AsTime().UTC().Format("2006-01-02T15:04:05.000Z")
	case value.KindList:
		parts := make([]string, len(v.AsList()))
		for i, e := range v.AsList() {
			parts[i] = Stringify(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case value.KindMap:
		m, keys := v.AsMap()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + Stringify(m[k])
		}
		return "{" + strings.Join(parts, ",") + "}"
	case value.KindError:
		return "<error>"
	default:
		return ""
	}
}
