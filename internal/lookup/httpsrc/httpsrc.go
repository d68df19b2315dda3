// Package httpsrc implements the HTTP JSON API lookup variant: a GET request
// templated with the lookup key, parsed with gjson according to a
// configured field-path map.
package httpsrc

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"piper/internal/datasource/httpds"
	"piper/internal/funcs"
	"piper/internal/value"

	"context"
)

// Config configures a Source.
type Config struct {
	// URLTemplate contains the literal substring "{key}", replaced with the
	// URL-escaped lookup key, e.g. "https://api.example.com/v1/customers/{key}".
	URLTemplate string
	Headers     http.Header
	// Fields maps an output field name to a gjson path evaluated against the
	// response body, e.g. {"plan": "subscription.plan.name"}.
	Fields map[string]string
	// FieldOrder fixes the output column order; derived from Fields if nil.
	FieldOrder []string
	Timeout    time.Duration
}

type Source struct {
	name    string
	client  *httpds.Client
	cfg     Config
	order   []string
}

func New(name string, cfg Config) *Source {
	client := httpds.NewClient(httpds.Config{Timeout: cfg.Timeout, BaseHeaders: cfg.Headers})
	order := cfg.FieldOrder
	if order == nil {
		for f := range cfg.Fields {
			order = append(order, f)
		}
	}
	return &Source{name: name, client: client, cfg: cfg, order: order}
}

func (s *Source) Name() string { return s.name }

func (s *Source) Get(ctx context.Context, key value.Value) ([]value.Value, error) {
	url := strings.ReplaceAll(s.cfg.URLTemplate, "{key}", funcs.Stringify(key))
	resp, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpsrc: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("httpsrc: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpsrc: read body: %w", err)
	}
	m := make(map[string]value.Value, len(s.order))
	for _, field := range s.order {
		path := s.cfg.Fields[field]
		res := gjson.GetBytes(body, path)
		m[field] = gjsonToValue(res)
	}
	return []value.Value{value.Map(m, s.order)}, nil
}

func gjsonToValue(r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Null()
	case gjson.False:
		return value.Bool(false)
	case gjson.True:
		return value.Bool(true)
	case gjson.Number:
		return value.Double(r.Float())
	case gjson.String:
		return value.String(r.String())
	case gjson.JSON:
		if r.IsArray() {
			var items []value.Value
			r.ForEach(func(_, v gjson.Result) bool {
				items = append(items, gjsonToValue(v))
				return true
			})
			return value.List(items)
		}
		m := map[string]value.Value{}
		var order []string
		r.ForEach(func(k, v gjson.Result) bool {
			m[k.String()] = gjsonToValue(v)
			order = append(order, k.String())
			return true
		})
		return value.Map(m, order)
	default:
		return value.Null()
	}
}
