package operators

import (
	"container/heap"
	"context"

	"piper/internal/dsl"
	"piper/internal/eval"
	"piper/internal/funcs"
	"piper/internal/rowstream"
	"piper/internal/value"
)

type topItem struct {
	row  value.Row
	keys []value.Value
}

// topHeap is a min-heap over the *desired* top ordering: its root is always
// the current worst-ranked kept row, so Top can evict it in O(log n) when a
// better row arrives, without ever sorting the full input.
type topHeap struct {
	items []topItem
	by    []dsl.SortKey
}

func (h *topHeap) Len() int      { return len(h.items) }
func (h *topHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *topHeap) Less(i, j int) bool {
	// root = worst of the desired order, so invert rankLess.
	return !rankLess(h.items[i].keys, h.items[j].keys, h.by)
}
func (h *topHeap) Push(x any) { h.items = append(h.items, x.(topItem)) }
func (h *topHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// rankLess reports whether keys a ranks before keys b in the top ordering
// described by by (ascending fields sort low-to-high, descending high-to-low;
// ties fall through to the next key). An Error-valued key always ranks worst
// at that position, regardless of asc/desc, since there is no meaningful
// ordering to invert it against.
func rankLess(a, b []value.Value, by []dsl.SortKey) bool {
	for i, k := range by {
		ae, be := a[i].IsError(), b[i].IsError()
		if ae || be {
			if ae == be {
				continue // both Error at this key: tie, fall through
			}
			return be // exactly one Error: it ranks worst no matter k.Desc
		}
		if value.Equal(a[i], b[i]) {
			continue
		}
		lt, ok := lessOrdered(a[i], b[i])
		if !ok {
			// Neither orderable nor equal (e.g. two different Lists or
			// Maps): fall back to a hash-key comparison so this key
			// still yields a consistent total order. Treating it as a
			// tie here would let rankLess(a,b) and rankLess(b,a) both
			// come back false, breaking container/heap's strict-weak-
			// ordering contract.
			ha, hb := value.HashKey(a[i]), value.HashKey(b[i])
			if ha == hb {
				continue
			}
			lt, ok = ha < hb, true
		}
		if k.Desc {
			return !lt
		}
		return lt
	}
	return false
}

func lessOrdered(a, b value.Value) (bool, bool) {
	switch {
	case a.IsNumeric() && b.IsNumeric():
		return a.AsNumber() < b.AsNumber(), true
	case a.Kind() == value.KindString && b.Kind() == value.KindString:
		return a.AsString() < b.AsString(), true
	case a.Kind() == value.KindDateTime && b.Kind() == value.KindDateTime:
		return a.AsTime().Before(b.AsTime()), true
	case a.Kind() == value.KindBool && b.Kind() == value.KindBool:
		return !a.AsBool() && b.AsBool(), true
	default:
		return false, false
	}
}

// Top materializes in, keeping only the n best rows by the By sort keys, via
// a bounded min-heap rather than a full sort. An Error sort key value for a
// given row makes that row rank last, never aborting the clause; values that
// are neither equal nor mutually orderable are ranked by their HashKey.
func Top(ctx context.Context, in rowstream.Stream, n int, by []dsl.SortKey, reg *funcs.Registry) (rowstream.Stream, error) {
	schema := in.Schema()
	h := &topHeap{by: by}
	heap.Init(h)

	for {
		row, ok, err := in.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		keys := make([]value.Value, len(by))
		for i, k := range by {
			keys[i] = eval.Eval(k.Expr, &eval.Env{Row: row, Registry: reg})
		}
		item := topItem{row: row, keys: keys}
		if n <= 0 {
			continue
		}
		if h.Len() < n {
			heap.Push(h, item)
			continue
		}
		if rankLess(keys, h.items[0].keys, by) {
			heap.Pop(h)
			heap.Push(h, item)
		}
	}

	// Extract in best-to-worst order: repeatedly pop the worst remaining,
	// then reverse.
	out := make([]value.Row, h.Len())
	for i := h.Len() - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(topItem).row
	}
	return rowstream.FromRows(schema, out), nil
}
