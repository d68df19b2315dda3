package funcs

import (
	"testing"

	"piper/internal/value"
)

func TestMisc_CoalesceSkipsNullAndError(t *testing.T) {
	r := NewRegistry()
	got := call(t, r, "coalesce", value.Null(), value.Error(value.ErrType, "x"), value.Int(3))
	if got.AsInt() != 3 {
		t.Errorf("coalesce = %+v, want 3", got)
	}
}

func TestMisc_CoalesceAllNullReturnsLast(t *testing.T) {
	got := call(t, NewRegistry(), "coalesce", value.Null(), value.Null())
	if got.Kind() != value.KindNull {
		t.Errorf("coalesce(null, null) = %+v, want Null", got)
	}
}

func TestMisc_IfNullPropagatesErrorFirstArg(t *testing.T) {
	errVal := value.Error(value.ErrType, "boom")
	got := call(t, NewRegistry(), "if_null", errVal, value.Int(1))
	if !got.IsError() {
		t.Errorf("if_null(Error, x) = %+v, want the Error", got)
	}
}

func TestMisc_IfNullSubstitutesOnNull(t *testing.T) {
	got := call(t, NewRegistry(), "if_null", value.Null(), value.Int(5))
	if got.AsInt() != 5 {
		t.Errorf("if_null(null, 5) = %+v, want 5", got)
	}
}

func TestMisc_Uuid_ProducesDistinctValues(t *testing.T) {
	r := NewRegistry()
	a := call(t, r, "uuid")
	b := call(t, r, "uuid")
	if a.AsString() == b.AsString() {
		t.Error("two uuid() calls should not collide")
	}
}

func TestMisc_Levenshtein(t *testing.T) {
	got := call(t, NewRegistry(), "levenshtein", value.String("kitten"), value.String("sitting"))
	if got.AsInt() != 3 {
		t.Errorf("levenshtein(kitten, sitting) = %v, want 3", got)
	}
}
