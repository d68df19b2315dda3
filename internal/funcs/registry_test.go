package funcs

import (
	"testing"

	"piper/internal/value"
)

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Lookup("ABS"); !ok {
		t.Error("Lookup should be case-insensitive")
	}
	if _, ok := r.Lookup("nope_at_all"); ok {
		t.Error("Lookup should fail for an unregistered name")
	}
}

func TestRegistry_RegisterUDFShadowsBuiltin(t *testing.T) {
	r := NewRegistry()
	r.RegisterUDF(Func{Name: "abs", MinArity: 1, MaxArity: 1, Call: func(a []value.Value) value.Value {
		return value.String("shadowed")
	}})
	fn, ok := r.Lookup("abs")
	if !ok {
		t.Fatal("abs should still resolve after shadowing")
	}
	if got := fn.Call([]value.Value{value.Int(-1)}); got.AsString() != "shadowed" {
		t.Errorf("expected the UDF to shadow the built-in, got %+v", got)
	}
}
