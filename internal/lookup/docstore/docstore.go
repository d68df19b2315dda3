// Package docstore implements the cloud document-store lookup variant: a
// Postgres table holding one JSONB document per key, queried via pgx v5's
// connection pool.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"piper/internal/value"
)

// Config configures a Source.
type Config struct {
	DSN       string
	Table     string
	KeyColumn string
	DocColumn string // JSONB column holding the document
}

type Source struct {
	name string
	pool *pgxpool.Pool
	cfg  Config
	stmt string
}

func New(ctx context.Context, name string, cfg Config) (*Source, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("docstore: pgxpool: %w", err)
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 LIMIT 1", cfg.DocColumn, cfg.Table, cfg.KeyColumn)
	return &Source{name: name, pool: pool, cfg: cfg, stmt: stmt}, nil
}

func (s *Source) Name() string { return s.name }

// Get returns at most one row: the lookup key column is expected to hold
// one JSONB document per key, and the query carries a LIMIT 1 accordingly.
func (s *Source) Get(ctx context.Context, key value.Value) ([]value.Value, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, s.stmt, keyParam(key)).Scan(&doc)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("docstore: query: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(doc, &raw); err != nil {
		return nil, fmt.Errorf("docstore: decode document: %w", err)
	}
	return []value.Value{jsonToValue(raw)}, nil
}

func (s *Source) Close() { s.pool.Close() }

func keyParam(v value.Value) any {
	switch v.Kind() {
	case value.KindInt:
		return v.AsInt()
	case value.KindDouble, value.KindFloat:
		return v.AsNumber()
	case value.KindBool:
		return v.AsBool()
	default:
		return v.AsString()
	}
}

func jsonToValue(v any) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(t)
	case float64:
		return value.Double(t)
	case string:
		return value.String(t)
	case []any:
		items := make([]value.Value, len(t))
		for i, e := range t {
			items[i] = jsonToValue(e)
		}
		return value.List(items)
	case map[string]any:
		m := make(map[string]value.Value, len(t))
		var order []string
		for k, e := range t {
			m[k] = jsonToValue(e)
			order = append(order, k)
		}
		return value.Map(m, order)
	default:
		return value.Null()
	}
}
