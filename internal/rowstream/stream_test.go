package rowstream

import (
	"context"
	"errors"
	"testing"

	"piper/internal/value"
)

var testSchema = value.Schema{Columns: []value.Column{{Name: "a", Type: value.TypeInt}}}

func TestFromRows_DrainReturnsInOrder(t *testing.T) {
	rows := []value.Row{{"a": value.Int(1)}, {"a": value.Int(2)}, {"a": value.Int(3)}}
	s := FromRows(testSchema, rows)
	got, err := Drain(context.Background(), s)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(got) != 3 || got[0]["a"].AsInt() != 1 || got[2]["a"].AsInt() != 3 {
		t.Errorf("Drain() = %v", got)
	}
}

func TestFromRow_YieldsExactlyOneRow(t *testing.T) {
	s := FromRow(testSchema, value.Row{"a": value.Int(9)})
	got, err := Drain(context.Background(), s)
	if err != nil || len(got) != 1 || got[0]["a"].AsInt() != 9 {
		t.Errorf("Drain() = %v, err=%v", got, err)
	}
}

func TestDrain_StopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := FromRows(testSchema, []value.Row{{"a": value.Int(1)}})
	_, err := Drain(ctx, s)
	if err == nil {
		t.Fatal("expected an error draining a cancelled context")
	}
}

func TestFromFunc_PropagatesStreamLevelError(t *testing.T) {
	boom := errors.New("boom")
	s := FromFunc(testSchema, func(ctx context.Context) (value.Row, bool, error) {
		return nil, false, boom
	})
	_, err := Drain(context.Background(), s)
	if !errors.Is(err, boom) {
		t.Errorf("expected the stream's own error to propagate, got %v", err)
	}
}

func TestFromFunc_SchemaMatchesConstruction(t *testing.T) {
	s := FromFunc(testSchema, func(ctx context.Context) (value.Row, bool, error) {
		return nil, false, nil
	})
	if !s.Schema().Has("a") {
		t.Errorf("Schema() = %v, want to contain column a", s.Schema())
	}
}
