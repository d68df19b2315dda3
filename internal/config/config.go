// Package config defines the JSON-serializable configuration model for the
// piper server: the HTTP listen address, the lookup-source catalog, and the
// path to the pipeline script. It stays intentionally small and
// dependency-free, decoding with the standard library and a light Options
// helper for typed access to each source kind's free-form fields, the same
// "Options free-form map" shape a config package built for an ETL pipeline
// would use for its parser/transform-specific settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// Config is the top-level object decoded from the server's config file.
type Config struct {
	// Server controls the HTTP listen address.
	Server ServerConfig `json:"server"`

	// PipelineScript is the path to the `.piper` pipeline-declaration file
	// loaded into the catalog at startup.
	PipelineScript string `json:"pipeline_script"`

	// Sources lists every named lookup source the pipeline script's
	// `lookup`/`join` clauses may reference.
	Sources []SourceConfig `json:"sources"`

	// Metrics selects and configures the metrics backend. The zero value
	// selects the built-in pull-based Prometheus backend.
	Metrics MetricsConfig `json:"metrics"`
}

// MetricsConfig selects which metrics.Backend the server installs.
type MetricsConfig struct {
	// Backend is "prometheus" (default, scraped via GET /metrics) or
	// "datadog" (pushed to a DogStatsD agent; GET /metrics then reports
	// that no scrapeable backend is configured).
	Backend string `json:"backend"`

	// Datadog carries the DogStatsD connection details, used only when
	// Backend == "datadog".
	Datadog DatadogConfig `json:"datadog"`
}

// DatadogConfig configures internal/metrics/datadog.Backend.
type DatadogConfig struct {
	Addr       string   `json:"addr"`
	Namespace  string   `json:"namespace"`
	GlobalTags []string `json:"global_tags"`
}

// ServerConfig controls where the HTTP API listens.
type ServerConfig struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// SourceConfig describes one named lookup source. Kind selects which
// internal/lookup variant constructs it; Options carries the kind-specific
// fields (DSN, URL template, key column, ...).
type SourceConfig struct {
	Name    string  `json:"name"`
	Kind    string  `json:"kind"` // kv | http | mssql | sqlite | docstore | columnar | udlf
	Options Options `json:"options"`

	// Cache controls the optional single-flight+LRU wrapper applied to
	// this source. Zero value disables caching: the wrapper is applied only
	// when Size > 0. TTL <= 0 means cached entries never expire.
	Cache CacheConfig `json:"cache"`
}

// CacheConfig configures internal/lookup.CachedSource for one source.
type CacheConfig struct {
	Size int           `json:"size"`
	TTL  time.Duration `json:"ttl"`
}

// UnmarshalJSON lets CacheConfig.TTL be written as a duration string
// ("30s") in the config file rather than a raw nanosecond count.
func (c *CacheConfig) UnmarshalJSON(b []byte) error {
	var raw struct {
		Size int    `json:"size"`
		TTL  string `json:"ttl"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.Size = raw.Size
	if raw.TTL == "" {
		return nil
	}
	d, err := time.ParseDuration(raw.TTL)
	if err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	c.TTL = d
	return nil
}

// Options is a small helper to fetch typed values from arbitrary JSON maps
// without introducing a third-party configuration library. It performs only
// minimal type coercion and returns the supplied default when a key is
// absent or of an unexpected type.
type Options map[string]any

func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON implements json.Unmarshaler so a null "options" object
// decodes to a non-nil, empty Options map. encoding/json does not call it
// when the "options" key is absent, so a missing key leaves the field nil;
// the getters above still return their defaults on a nil Options.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

var envToken = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces every ${VAR} token in s with the value of the
// environment variable VAR, leaving the token untouched if VAR is unset so
// a missing credential fails loudly downstream (a DSN/URL with a literal
// "${...}" in it) rather than silently becoming an empty string.
func expandEnv(s string) string {
	return envToken.ReplaceAllStringFunc(s, func(tok string) string {
		name := tok[2 : len(tok)-1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return tok
	})
}

// ExpandEnv exports expandEnv for callers that assemble a Config from
// sources other than Load, such as a CLI that reads a pipeline script and a
// lookup file separately rather than one combined config file.
func ExpandEnv(s string) string { return expandEnv(s) }

// ExpandOptions exports expandOptions for the same reason as ExpandEnv.
func ExpandOptions(o Options) Options { return expandOptions(o) }

func expandOptions(o Options) Options {
	out := make(Options, len(o))
	for k, v := range o {
		if s, ok := v.(string); ok {
			out[k] = expandEnv(s)
		} else {
			out[k] = v
		}
	}
	return out
}

// Load decodes a Config from path, applying ${ENV} expansion to every
// string-valued source option (DSNs, URLs, tokens) and to the pipeline
// script path itself.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := json.Unmarshal(b, &c); err != nil {
		return Config{}, err
	}
	c.PipelineScript = expandEnv(c.PipelineScript)
	for i := range c.Sources {
		c.Sources[i].Options = expandOptions(c.Sources[i].Options)
	}
	return c, nil
}

// Listen returns the listen address in host:port form, defaulting to
// "0.0.0.0:8080" when unset.
func (c ServerConfig) Listen() string {
	addr := strings.TrimSpace(c.Address)
	if addr == "" {
		addr = "0.0.0.0"
	}
	port := c.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", addr, port)
}
