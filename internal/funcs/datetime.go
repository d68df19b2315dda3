package funcs

import (
	"fmt"
	"strings"
	"time"

	"piper/internal/value"
)

// acceptedLayouts mirrors the date-layout fallback chain a Coerce transform
// uses for its single configured layout, widened here to try RFC3339 first
// since that's what upstream lookup sources typically return.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDatetime tries the same layout fallback chain parse_datetime() uses,
// exported so callers outside this package (input coercion) can reuse it.
func ParseDatetime(s string) value.Value { return parseDatetimeString(s) }

func parseDatetimeString(s string) value.Value {
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return value.DateTime(t)
		}
	}
	return value.Error(value.ErrType, fmt.Sprintf("cannot parse %q as a datetime", s))
}

func datetimeFuncs() []Func {
	return []Func{
		{Name: "from_unix_ms", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			if !isInt(a[0]) {
				return value.Error(value.ErrType, "from_unix_ms requires an int argument")
			}
			ms := a[0].AsInt()
			return value.DateTime(time.UnixMilli(ms).UTC())
		}},
		{Name: "to_unix_ms", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindDateTime {
				return value.Error(value.ErrType, "to_unix_ms requires a datetime argument")
			}
			return value.Int(a[0].AsTime().UnixMilli())
		}},
		{Name: "format_datetime", MinArity: 2, MaxArity: 2, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindDateTime {
				return value.Error(value.ErrType, "format_datetime requires a datetime argument")
			}
			if a[1].Kind() != value.KindString {
				return value.Error(value.ErrType, "format_datetime layout must be a string")
			}
			return value.String(a[0].AsTime().Format(goLayout(a[1].AsString())))
		}},
		{Name: "parse_datetime", MinArity: 1, MaxArity: 2, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindString {
				return value.Error(value.ErrType, "parse_datetime requires a string argument")
			}
			v := parseDatetimeString(a[0].AsString())
			if v.IsError() || len(a) == 1 {
				return v
			}
			if a[1].Kind() != value.KindString {
				return value.Error(value.ErrType, "parse_datetime timezone must be a string")
			}
			loc, err := time.LoadLocation(a[1].AsString())
			if err != nil {
				return value.Error(value.ErrType, fmt.Sprintf("unknown timezone %q", a[1].AsString()))
			}
			return value.DateTime(v.AsTime().In(loc))
		}},
		{Name: "now", MinArity: 0, MaxArity: 0, Call: func(a []value.Value) value.Value {
			return value.DateTime(time.Now().UTC())
		}},
	}
}

// goLayout translates a handful of strftime-style tokens to Go's reference
// layout, so pipeline authors do not need to memorize 2006-01-02.
func goLayout(layout string) string {
	r := strings.NewReplacer(
		"yyyy", "2006", "MM", "01", "dd", "02",
		"HH", "15", "mm", "04", "ss", "05",
	)
	return r.Replace(layout)
}
