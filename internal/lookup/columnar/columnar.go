// Package columnar implements the local columnar file lookup variant: an
// entire CSV file is loaded once into an in-memory index keyed by one of its
// columns, then served from memory for every lookup.
package columnar

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"piper/internal/datasource/file"
	"piper/internal/funcs"
	"piper/internal/value"
)

// Config configures a Source.
type Config struct {
	Path      string
	KeyColumn string
	// Fields restricts the returned columns; nil returns every column but
	// the key.
	Fields []string
}

type Source struct {
	name  string
	index map[string]value.Value
}

// Load opens cfg.Path, parses it as a headered CSV file, and builds the
// in-memory key index. The whole file is read once at construction time;
// Get never touches disk.
func Load(ctx context.Context, name string, cfg Config) (*Source, error) {
	rc, err := file.NewLocal(cfg.Path).Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("columnar: open: %w", err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("columnar: read header: %w", err)
	}
	keyIdx := -1
	for i, h := range header {
		if strings.TrimSpace(h) == cfg.KeyColumn {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return nil, fmt.Errorf("columnar: key column %q not found in header", cfg.KeyColumn)
	}
	fields := cfg.Fields
	if fields == nil {
		for _, h := range header {
			if h != cfg.KeyColumn {
				fields = append(fields, h)
			}
		}
	}

	index := make(map[string]value.Value)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("columnar: parse row: %w", err)
		}
		if keyIdx >= len(rec) {
			continue
		}
		m := make(map[string]value.Value, len(fields))
		for _, f := range fields {
			for i, h := range header {
				if h == f && i < len(rec) {
					m[f] = value.String(strings.TrimSpace(rec[i]))
				}
			}
		}
		index[strings.TrimSpace(rec[keyIdx])] = value.Map(m, fields)
	}
	return &Source{name: name, index: index}, nil
}

func (s *Source) Name() string { return s.name }

// Get returns at most one row: the in-memory index is keyed by the CSV's
// key column, and a duplicate key overwrites its earlier row at load time.
func (s *Source) Get(_ context.Context, key value.Value) ([]value.Value, error) {
	k := funcs.Stringify(key)
	v, ok := s.index[k]
	if !ok {
		return nil, nil
	}
	return []value.Value{v}, nil
}
