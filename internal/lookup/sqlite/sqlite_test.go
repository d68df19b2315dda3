package sqlite

import (
	"testing"
	"time"

	"piper/internal/value"
)

func TestToSQLParam_ConvertsByKind(t *testing.T) {
	cases := []struct {
		in   value.Value
		want any
	}{
		{value.Int(7), int64(7)},
		{value.Double(1.5), float64(1.5)},
		{value.Bool(true), true},
		{value.String("k"), "k"},
	}
	for _, c := range cases {
		got := toSQLParam(c.in)
		if got != c.want {
			t.Errorf("toSQLParam(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFromSQLValue_ConvertsDriverTypes(t *testing.T) {
	if !fromSQLValue(nil).IsNull() {
		t.Error("nil should map to Null")
	}
	if fromSQLValue(int64(5)).AsInt() != 5 {
		t.Error("int64 should round-trip")
	}
	if fromSQLValue([]byte("y")).AsString() != "y" {
		t.Error("[]byte should decode as string")
	}
	now := time.Now()
	if !fromSQLValue(now).AsTime().Equal(now) {
		t.Error("time.Time should round-trip")
	}
}

func TestNew_BuildsLimitOneStatement(t *testing.T) {
	src, err := New(Config{Path: ":memory:", Table: "customers", KeyColumn: "id", Fields: []string{"name", "age"}}, "s")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer src.Close()
	if src.Name() != "s" {
		t.Errorf("Name() = %q, want s", src.Name())
	}
	want := "SELECT name, age FROM customers WHERE id = ? LIMIT 1"
	if src.stmt != want {
		t.Errorf("stmt = %q, want %q", src.stmt, want)
	}
}
