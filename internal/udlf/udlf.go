// Package udlf adapts a user-defined async lookup function — an external
// callable not shaped like one of the six built-in lookup-source variants —
// into the lookup.Source capability, the same way a storage adapter wraps a
// concrete backend to satisfy a common interface.
package udlf

import (
	"context"
	"fmt"

	"piper/internal/value"
)

// Func is the signature a user-defined lookup function must implement. It
// receives the lookup key and the ordered field list the adapter was
// constructed with, and returns zero or more result rows: each inner slice
// is a positional tuple of values aligned with fields, not a map. A
// zero-length result means the key has no match.
type Func func(ctx context.Context, key value.Value, fields []string) (rows [][]value.Value, err error)

// Adapter wraps a Func to satisfy lookup.Source. Each returned tuple is
// reshaped against the declared field list: a shorter tuple is padded with
// Null, a longer one is truncated and reported through Warnf.
type Adapter struct {
	name   string
	fields []string
	fn     Func

	// Warnf, when set, is called once per row whose tuple is longer than
	// fields, so a caller can log the truncation without the adapter
	// itself needing an opinion on log formatting or destination.
	Warnf func(source, field string, got, want int)
}

func New(name string, fields []string, fn Func) *Adapter {
	return &Adapter{name: name, fields: fields, fn: fn}
}

func (a *Adapter) Name() string { return a.name }

// Get invokes the wrapped function, converting a panic into a lookup error
// (the "exception" case) rather than letting it escape and crash the
// pipeline that called it.
func (a *Adapter) Get(ctx context.Context, key value.Value) (rows []value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("udlf %q panicked: %v", a.name, r)
		}
	}()

	tuples, callErr := a.fn(ctx, key, a.fields)
	if callErr != nil {
		return nil, fmt.Errorf("udlf %q: %w", a.name, callErr)
	}
	out := make([]value.Value, 0, len(tuples))
	for _, tuple := range tuples {
		out = append(out, a.reshape(tuple))
	}
	return out, nil
}

// reshape converts one positional tuple into a value.Map keyed by a.fields,
// in declared order. A short tuple is padded with Null; a long one is
// truncated, with the excess reported via Warnf against the first declared
// field.
func (a *Adapter) reshape(tuple []value.Value) value.Value {
	out := make(map[string]value.Value, len(a.fields))
	for i, f := range a.fields {
		if i < len(tuple) {
			out[f] = tuple[i]
		} else {
			out[f] = value.Null()
		}
	}
	if len(tuple) > len(a.fields) && a.Warnf != nil {
		field := ""
		if len(a.fields) > 0 {
			field = a.fields[0]
		}
		a.Warnf(a.name, field, len(tuple), len(a.fields))
	}
	return value.Map(out, a.fields)
}
