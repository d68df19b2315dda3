package funcs

import (
	"testing"

	"piper/internal/value"
)

func TestCollections_SizeListAndMap(t *testing.T) {
	r := NewRegistry()
	if got := call(t, r, "size", value.List([]value.Value{value.Int(1), value.Int(2)})); got.AsInt() != 2 {
		t.Errorf("size(list) = %v, want 2", got)
	}
	m := value.Map(map[string]value.Value{"a": value.Int(1)}, []string{"a"})
	if got := call(t, r, "size", m); got.AsInt() != 1 {
		t.Errorf("size(map) = %v, want 1", got)
	}
}

func TestCollections_GetListOutOfRangeIsNull(t *testing.T) {
	got := call(t, NewRegistry(), "get", value.List([]value.Value{value.Int(1)}), value.Int(9))
	if got.Kind() != value.KindNull {
		t.Errorf("get out of range = %+v, want Null", got)
	}
}

func TestCollections_GetMapMissingKeyIsNull(t *testing.T) {
	m := value.Map(map[string]value.Value{"a": value.Int(1)}, []string{"a"})
	got := call(t, NewRegistry(), "get", m, value.String("missing"))
	if got.Kind() != value.KindNull {
		t.Errorf("get(map, missing) = %+v, want Null", got)
	}
}

func TestCollections_KeysValuesPreserveOrder(t *testing.T) {
	m := value.Map(map[string]value.Value{"b": value.Int(2), "a": value.Int(1)}, []string{"a", "b"})
	r := NewRegistry()
	keys := call(t, r, "keys", m).AsList()
	if len(keys) != 2 || keys[0].AsString() != "a" || keys[1].AsString() != "b" {
		t.Errorf("keys() = %v", keys)
	}
	vals := call(t, r, "values", m).AsList()
	if len(vals) != 2 || vals[0].AsInt() != 1 || vals[1].AsInt() != 2 {
		t.Errorf("values() = %v", vals)
	}
}

func TestCollections_ArrayContains(t *testing.T) {
	list := value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	if !call(t, NewRegistry(), "array_contains", list, value.Int(2)).AsBool() {
		t.Error("array_contains should find 2")
	}
	if call(t, NewRegistry(), "array_contains", list, value.Int(9)).AsBool() {
		t.Error("array_contains should not find 9")
	}
}
