// Package funcs implements the built-in scalar, aggregate and UDF function
// library. Every function obeys the error-propagation law: unless a
// function explicitly opts in via AllowsErrorArgs, the dispatcher in
// internal/eval never calls it with an Error-kind argument.
package funcs

import "piper/internal/value"

// Func is one registered callable.
type Func struct {
	Name            string
	MinArity        int
	MaxArity        int // -1 means unbounded
	AllowsErrorArgs bool
	Call            func(args []value.Value) value.Value
}

// Registry is a lookup table of scalar functions, keyed case-insensitively
// by lower-cased name. UDFs registered at runtime share the same table as
// the built-ins and can shadow a built-in of the same name.
type Registry struct {
	fns map[string]Func
}

// NewRegistry returns a Registry pre-populated with every built-in scalar
// function.
func NewRegistry() *Registry {
	r := &Registry{fns: make(map[string]Func)}
	register(r, arithFuncs())
	register(r, stringFuncs())
	register(r, collectionFuncs())
	register(r, typeConvFuncs())
	register(r, datetimeFuncs())
	register(r, miscFuncs())
	return r
}

func register(r *Registry, fns []Func) {
	for _, f := range fns {
		r.fns[lower(f.Name)] = f
	}
}

// RegisterUDF adds or replaces a user-defined function.
func (r *Registry) RegisterUDF(f Func) { r.fns[lower(f.Name)] = f }

func (r *Registry) Lookup(name string) (Func, bool) {
	f, ok := r.fns[lower(name)]
	return f, ok
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
