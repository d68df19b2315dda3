// Package rowstream defines the pull-based row-set abstraction every
// operator in internal/operators consumes and produces. A Stream is a lazy,
// single-pass sequence of rows sharing one Schema; it is pulled one row at a
// time via Next rather than materialized up front, so a `take 1` clause can
// short-circuit an expensive upstream lookup.
package rowstream

import (
	"context"

	"piper/internal/value"
)

// Stream is a single-pass, pull-based sequence of rows.
type Stream interface {
	// Schema describes the columns every row yielded by Next carries.
	Schema() value.Schema
	// Next returns the next row. ok is false once the stream is exhausted;
	// err is non-nil only for a stream-ending failure unrelated to a single
	// row's content (row-level failures are value.Error columns, not err).
	Next(ctx context.Context) (row value.Row, ok bool, err error)
}

// sliceStream is a Stream backed by an already-materialized slice, the
// starting point of every pipeline (a single input row) and the output of
// the buffering operators (distinct, summarize, top).
type sliceStream struct {
	schema value.Schema
	rows   []value.Row
	pos    int
}

func FromRows(schema value.Schema, rows []value.Row) Stream {
	return &sliceStream{schema: schema, rows: rows}
}

func FromRow(schema value.Schema, row value.Row) Stream {
	return &sliceStream{schema: schema, rows: []value.Row{row}}
}

func (s *sliceStream) Schema() value.Schema { return s.schema }

func (s *sliceStream) Next(ctx context.Context) (value.Row, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}
	if s.pos >= len(s.rows) {
		return nil, false, nil
	}
	r := s.rows[s.pos]
	s.pos++
	return r, true, nil
}

// Drain pulls every remaining row out of s, in order. Used by the catalog
// executor once the full operator chain has been assembled.
func Drain(ctx context.Context, s Stream) ([]value.Row, error) {
	var out []value.Row
	for {
		row, ok, err := s.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, row)
	}
}

// funcStream adapts a pull closure into a Stream; operators use this to
// avoid materializing their output eagerly.
type funcStream struct {
	schema value.Schema
	next   func(ctx context.Context) (value.Row, bool, error)
}

func FromFunc(schema value.Schema, next func(ctx context.Context) (value.Row, bool, error)) Stream {
	return &funcStream{schema: schema, next: next}
}

func (s *funcStream) Schema() value.Schema { return s.schema }
func (s *funcStream) Next(ctx context.Context) (value.Row, bool, error) {
	return s.next(ctx)
}
