// Package mssql implements the SQL (TDS dialect) lookup variant against
// Microsoft SQL Server via database/sql and the go-mssqldb driver.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"piper/internal/value"
)

// Config configures a Source.
type Config struct {
	DSN       string
	Table     string
	KeyColumn string
	Fields    []string // select list, in output column order
}

type Source struct {
	name string
	db   *sql.DB
	cfg  Config
	stmt string
}

func New(ctx context.Context, name string, cfg Config) (*Source, error) {
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql lookup dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mssql lookup: sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql lookup: ping: %w", err)
	}
	stmt := fmt.Sprintf("SELECT TOP 1 %s FROM %s WHERE %s = @p1",
		strings.Join(cfg.Fields, ", "), cfg.Table, cfg.KeyColumn)
	return &Source{name: name, db: db, cfg: cfg, stmt: stmt}, nil
}

func (s *Source) Name() string { return s.name }

// Get returns at most one row: the lookup key column is expected to be
// unique, and the query is a SELECT TOP 1 accordingly.
func (s *Source) Get(ctx context.Context, key value.Value) ([]value.Value, error) {
	row := s.db.QueryRowContext(ctx, s.stmt, toSQLParam(key))
	dest := make([]any, len(s.cfg.Fields))
	ptrs := make([]any, len(dest))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("mssql lookup: scan: %w", err)
	}
	m := make(map[string]value.Value, len(s.cfg.Fields))
	for i, f := range s.cfg.Fields {
		m[f] = fromSQLValue(dest[i])
	}
	return []value.Value{value.Map(m, s.cfg.Fields)}, nil
}

func (s *Source) Close() error { return s.db.Close() }

func toSQLParam(v value.Value) any {
	switch v.Kind() {
	case value.KindInt:
		return v.AsInt()
	case value.KindDouble, value.KindFloat:
		return v.AsNumber()
	case value.KindBool:
		return v.AsBool()
	case value.KindDateTime:
		return v.AsTime()
	default:
		return v.AsString()
	}
}

func fromSQLValue(v any) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null()
	case int64:
		return value.Int(t)
	case float64:
		return value.Double(t)
	case bool:
		return value.Bool(t)
	case string:
		return value.String(t)
	case []byte:
		return value.String(string(t))
	case time.Time:
		return value.DateTime(t)
	default:
		return value.String(fmt.Sprint(t))
	}
}
