package operators

import (
	"context"
	"testing"

	"piper/internal/rowstream"
	"piper/internal/value"
)

func TestIgnoreErrors_DropsRowsWithAnyErrorColumn(t *testing.T) {
	schema := schemaOf("a", "b")
	rows := []value.Row{
		{"a": value.Int(1), "b": value.Int(2)},
		{"a": value.Error(value.ErrType, "boom"), "b": value.Int(2)},
		{"a": value.Int(3), "b": value.Int(4)},
	}
	in := rowstream.FromRows(schema, rows)
	out := IgnoreErrors(in)
	got, err := rowstream.Drain(context.Background(), out)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(got) != 2 || got[0]["a"].AsInt() != 1 || got[1]["a"].AsInt() != 3 {
		t.Errorf("got = %+v, want the error row dropped", got)
	}
}

// TestIgnoreErrors_Idempotent is Testable Property #7's ignore-errors half.
func TestIgnoreErrors_Idempotent(t *testing.T) {
	schema := schemaOf("a")
	rows := []value.Row{{"a": value.Int(1)}, {"a": value.Error(value.ErrType, "x")}}
	once := IgnoreErrors(rowstream.FromRows(schema, rows))
	onceRows, err := rowstream.Drain(context.Background(), once)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	twice := IgnoreErrors(IgnoreErrors(rowstream.FromRows(schema, rows)))
	twiceRows, err := rowstream.Drain(context.Background(), twice)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(onceRows) != len(twiceRows) || len(onceRows) != 1 {
		t.Errorf("ignore-errors|ignore-errors = %d rows, ignore-errors alone = %d rows", len(twiceRows), len(onceRows))
	}
}
