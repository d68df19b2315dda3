package operators

import (
	"context"
	"errors"
	"testing"

	"piper/internal/dsl"
	"piper/internal/funcs"
	"piper/internal/rowstream"
	"piper/internal/value"
)

// fakeSource is a lookup.Source stub whose Get result is scripted per key.
type fakeSource struct {
	name string
	get  func(ctx context.Context, key value.Value) ([]value.Value, error)
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) Get(ctx context.Context, key value.Value) ([]value.Value, error) {
	return f.get(ctx, key)
}

func rec(fields map[string]value.Value) value.Value {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return value.Map(fields, keys)
}

// TestLookup_MissFillsFieldsWithNull is spec scenario S5.
func TestLookup_MissFillsFieldsWithNull(t *testing.T) {
	schema := schemaOf("key")
	in := rowstream.FromRow(schema, value.Row{"key": value.String("k")})
	src := &fakeSource{name: "s", get: func(ctx context.Context, key value.Value) ([]value.Value, error) {
		return nil, nil
	}}
	out := Lookup(in, []string{"name", "age"}, src, dsl.ColumnExpr{Name: "key"}, funcs.NewRegistry())
	row := drain1(t, out)
	if !row["name"].IsNull() || !row["age"].IsNull() {
		t.Errorf("row = %+v, want name and age both Null on a miss", row)
	}
}

func TestLookup_HitFillsRequestedFields(t *testing.T) {
	schema := schemaOf("key")
	in := rowstream.FromRow(schema, value.Row{"key": value.String("k")})
	src := &fakeSource{name: "s", get: func(ctx context.Context, key value.Value) ([]value.Value, error) {
		return []value.Value{rec(map[string]value.Value{"name": value.String("ann"), "age": value.Int(30)})}, nil
	}}
	out := Lookup(in, []string{"name", "age"}, src, dsl.ColumnExpr{Name: "key"}, funcs.NewRegistry())
	row := drain1(t, out)
	if row["name"].AsString() != "ann" || row["age"].AsInt() != 30 {
		t.Errorf("row = %+v, want name=ann age=30", row)
	}
}

func TestLookup_UsesOnlyFirstRowOnMultiRowResult(t *testing.T) {
	schema := schemaOf("key")
	in := rowstream.FromRow(schema, value.Row{"key": value.String("k")})
	src := &fakeSource{name: "s", get: func(ctx context.Context, key value.Value) ([]value.Value, error) {
		return []value.Value{
			rec(map[string]value.Value{"name": value.String("first")}),
			rec(map[string]value.Value{"name": value.String("second")}),
		}, nil
	}}
	out := Lookup(in, []string{"name"}, src, dsl.ColumnExpr{Name: "key"}, funcs.NewRegistry())
	row := drain1(t, out)
	if row["name"].AsString() != "first" {
		t.Errorf("name = %v, want the first returned row only", row["name"])
	}
}

func TestLookup_BackendFailureFillsFieldsWithLookupError(t *testing.T) {
	schema := schemaOf("key")
	in := rowstream.FromRow(schema, value.Row{"key": value.String("k")})
	src := &fakeSource{name: "s", get: func(ctx context.Context, key value.Value) ([]value.Value, error) {
		return nil, errors.New("backend down")
	}}
	out := Lookup(in, []string{"name"}, src, dsl.ColumnExpr{Name: "key"}, funcs.NewRegistry())
	row := drain1(t, out)
	if !row["name"].IsError() {
		t.Errorf("name = %+v, want a LookupError", row["name"])
	}
}
