package operators

import (
	"context"

	"piper/internal/rowstream"
	"piper/internal/value"
)

// Take yields at most n rows, then stops pulling from in — the point of a
// pull-based stream: an upstream lookup or join is never invoked for rows
// beyond the n-th.
func Take(in rowstream.Stream, n int) rowstream.Stream {
	count := 0
	return rowstream.FromFunc(in.Schema(), func(ctx context.Context) (value.Row, bool, error) {
		if count >= n {
			return nil, false, nil
		}
		row, ok, err := in.Next(ctx)
		if !ok || err != nil {
			return nil, ok, err
		}
		count++
		return row, true, nil
	})
}
