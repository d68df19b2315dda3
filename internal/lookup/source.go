// Package lookup implements the lookup-source capability: a uniform
// key-to-fields accessor backing the `lookup` and `join` DSL clauses, with a
// shared single-flight-coalesced, bounded-LRU caching layer in front of six
// concrete backend variants (subpackages kv, httpsrc, mssql, sqlite,
// docstore, columnar).
package lookup

import (
	"context"

	"piper/internal/value"
)

// Source is the capability every lookup backend and the UDLF adapter
// implement. Get returns zero or more rows (each a value.Map of the
// source's fields) for key; a miss is a zero-length, nil-error result, not
// an error. err is reserved for backend failures (timeouts, connection
// errors, malformed responses), which callers turn into a value.Error of
// kind ErrLookup. Most concrete backends (kv, http, mssql,
// sqlite, docstore, columnar) only ever return zero or one row; the UDLF
// adapter is the one variant whose caller-provided callable may genuinely
// return more than one, which is what gives `join` a real fan-out case
// distinct from `lookup`.
type Source interface {
	Name() string
	Get(ctx context.Context, key value.Value) (rows []value.Value, err error)
}

// Registry maps a pipeline's `from <name>` clause to a concrete Source.
type Registry struct {
	sources map[string]Source
}

func NewRegistry() *Registry { return &Registry{sources: make(map[string]Source)} }

func (r *Registry) Register(s Source) { r.sources[s.Name()] = s }

func (r *Registry) Get(name string) (Source, bool) {
	s, ok := r.sources[name]
	return s, ok
}
