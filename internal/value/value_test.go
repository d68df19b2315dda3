package value

import (
	"testing"
	"time"
)

func TestEqual_NumericCrossKind(t *testing.T) {
	if !Equal(Int(3), Double(3.0)) {
		t.Error("Int(3) should equal Double(3.0)")
	}
	if Equal(Int(3), Int(4)) {
		t.Error("Int(3) should not equal Int(4)")
	}
}

func TestEqual_NullOnlyEqualsNull(t *testing.T) {
	if !Equal(Null(), Null()) {
		t.Error("Null should equal Null")
	}
	if Equal(Null(), Int(0)) {
		t.Error("Null should not equal Int(0)")
	}
}

func TestEqual_ErrorNeverEqual(t *testing.T) {
	e := Error(ErrType, "boom")
	if Equal(e, e) {
		t.Error("an Error value must never equal anything, including itself")
	}
}

func TestEqual_ListAndMap(t *testing.T) {
	a := List([]Value{Int(1), Int(2)})
	b := List([]Value{Int(1), Int(2)})
	if !Equal(a, b) {
		t.Error("equal-content lists should be Equal")
	}
	c := List([]Value{Int(1), Int(3)})
	if Equal(a, c) {
		t.Error("different-content lists should not be Equal")
	}

	m1 := Map(map[string]Value{"a": Int(1)}, []string{"a"})
	m2 := Map(map[string]Value{"a": Int(1)}, []string{"a"})
	if !Equal(m1, m2) {
		t.Error("equal-content maps should be Equal")
	}
}

func TestFirstError_ScansLeftToRight(t *testing.T) {
	e1 := Error(ErrType, "first")
	e2 := Error(ErrArith, "second")
	got, ok := FirstError(Int(1), e1, e2)
	if !ok || got.AsErr().Message != "first" {
		t.Errorf("expected the first error left to right, got %+v ok=%v", got, ok)
	}
	if _, ok := FirstError(Int(1), Bool(true)); ok {
		t.Error("expected no error among non-error values")
	}
}

func TestHashKey_EqualValuesShareAKey(t *testing.T) {
	if HashKey(Int(5)) != HashKey(Double(5.0)) {
		t.Error("HashKey must agree with Equal for numeric cross-kind equality")
	}
	if HashKey(String("a")) == HashKey(String("b")) {
		t.Error("distinct strings must not collide")
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if HashKey(DateTime(now)) != HashKey(DateTime(now)) {
		t.Error("HashKey must be stable for equal datetimes")
	}
}

func TestIsNumericAndAsNumber(t *testing.T) {
	for _, v := range []Value{Int(1), Float(1), Double(1)} {
		if !v.IsNumeric() {
			t.Errorf("%v should be numeric", v.Kind())
		}
		if v.AsNumber() != 1 {
			t.Errorf("AsNumber() = %v, want 1", v.AsNumber())
		}
	}
	if String("x").IsNumeric() {
		t.Error("string should not be numeric")
	}
}

func TestErrorFrom_WrapsPlainError(t *testing.T) {
	v := ErrorFrom(Err{Code: ErrLookup, Message: "down"})
	if v.AsErr().Code != ErrLookup || v.AsErr().Message != "down" {
		t.Errorf("ErrorFrom should preserve an Err's code/message, got %+v", v.AsErr())
	}
}
