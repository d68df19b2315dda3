package funcs

import (
	"github.com/google/uuid"

	"piper/internal/value"
)

func miscFuncs() []Func {
	return []Func{
		{Name: "coalesce", MinArity: 1, MaxArity: -1, AllowsErrorArgs: true, Call: func(a []value.Value) value.Value {
			for _, v := range a {
				if !v.IsNull() && !v.IsError() {
					return v
				}
			}
			if len(a) > 0 {
				return a[len(a)-1]
			}
			return value.Null()
		}},
		{Name: "if_null", MinArity: 2, MaxArity: 2, AllowsErrorArgs: true, Call: func(a []value.Value) value.Value {
			if a[0].IsError() {
				return a[0]
			}
			if a[0].IsNull() {
				return a[1]
			}
			return a[0]
		}},
		{Name: "uuid", MinArity: 0, MaxArity: 0, Call: func(a []value.Value) value.Value {
			return value.String(uuid.New().String())
		}},
		{Name: "levenshtein", MinArity: 2, MaxArity: 2, Call: func(a []value.Value) value.Value {
			if a[0].Kind() != value.KindString || a[1].Kind() != value.KindString {
				return value.Error(value.ErrType, "levenshtein requires string arguments")
			}
			return value.Int(int64(levenshtein(a[0].AsString(), a[1].AsString())))
		}},
	}
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
