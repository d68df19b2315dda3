package funcs

import (
	"testing"

	"piper/internal/value"
)

func TestStrings_LowerUpperTrim(t *testing.T) {
	r := NewRegistry()
	if got := call(t, r, "lower", value.String("ABC")); got.AsString() != "abc" {
		t.Errorf("lower(ABC) = %v", got)
	}
	if got := call(t, r, "upper", value.String("abc")); got.AsString() != "ABC" {
		t.Errorf("upper(abc) = %v", got)
	}
	if got := call(t, r, "trim", value.String("  x  ")); got.AsString() != "x" {
		t.Errorf("trim = %q", got.AsString())
	}
}

func TestStrings_Concat(t *testing.T) {
	got := call(t, NewRegistry(), "concat", value.String("a"), value.String("b"), value.String("c"))
	if got.AsString() != "abc" {
		t.Errorf("concat = %q, want abc", got.AsString())
	}
}

func TestStrings_Split(t *testing.T) {
	got := call(t, NewRegistry(), "split", value.String("a,b,c"), value.String(","))
	list := got.AsList()
	if len(list) != 3 || list[1].AsString() != "b" {
		t.Errorf("split = %v", list)
	}
}

func TestStrings_SubstringOutOfRangeIsSemanticError(t *testing.T) {
	got := call(t, NewRegistry(), "substring", value.String("hi"), value.Int(5))
	if !got.IsError() || got.AsErr().Code != value.ErrSemantic {
		t.Errorf("substring out of range = %+v, want a SemanticError", got)
	}
}

func TestStrings_ContainsStartsEndsWith(t *testing.T) {
	r := NewRegistry()
	if !call(t, r, "contains", value.String("hello"), value.String("ell")).AsBool() {
		t.Error("contains should be true")
	}
	if !call(t, r, "starts_with", value.String("hello"), value.String("he")).AsBool() {
		t.Error("starts_with should be true")
	}
	if !call(t, r, "ends_with", value.String("hello"), value.String("lo")).AsBool() {
		t.Error("ends_with should be true")
	}
}

func TestStrings_RegexMatchAndExtract(t *testing.T) {
	r := NewRegistry()
	if !call(t, r, "regex_match", value.String("abc123"), value.String(`\d+`)).AsBool() {
		t.Error("regex_match should find digits")
	}
	got := call(t, r, "regex_extract", value.String("abc123"), value.String(`(\d+)`), value.Int(1))
	if got.AsString() != "123" {
		t.Errorf("regex_extract group 1 = %q, want 123", got.AsString())
	}
}

func TestStringify_RendersEachKind(t *testing.T) {
	if Stringify(value.Null()) != "null" {
		t.Error("Stringify(Null) should be \"null\"")
	}
	if Stringify(value.Int(5)) != "5" {
		t.Error("Stringify(Int(5)) should be \"5\"")
	}
	if Stringify(value.List([]value.Value{value.Int(1), value.Int(2)})) != "[1,2]" {
		t.Errorf("Stringify(list) = %q", Stringify(value.List([]value.Value{value.Int(1), value.Int(2)})))
	}
}
