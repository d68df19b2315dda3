package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Config decoding tests
// -----------------------------------------------------------------------------
//
// These tests validate that the top-level Config JSON structure decodes into
// the intended Go struct graph, so the JSON schema used for server config
// files maps cleanly onto the Go types.

func TestConfig_DecodeRoundTrip(t *testing.T) {
	t.Parallel()

	const js = `{
	  "server": { "address": "0.0.0.0", "port": 9090 },
	  "pipeline_script": "pipelines/scored.piper",
	  "sources": [
	    {
	      "name": "users",
	      "kind": "kv",
	      "options": { "addr": "localhost:6379", "key_prefix": "user:" },
	      "cache": { "size": 512, "ttl": "30s" }
	    },
	    {
	      "name": "geo",
	      "kind": "http",
	      "options": {
	        "url_template": "https://geo.example.com/lookup/{key}",
	        "fields": { "country": "data.country", "city": "data.city" }
	      }
	    }
	  ]
	}`

	var c Config
	if err := json.Unmarshal([]byte(js), &c); err != nil {
		t.Fatalf("json.Unmarshal(Config): %v", err)
	}

	if c.Server.Address != "0.0.0.0" || c.Server.Port != 9090 {
		t.Fatalf("server decoded = %#v, want address=0.0.0.0 port=9090", c.Server)
	}
	if c.PipelineScript != "pipelines/scored.piper" {
		t.Fatalf("pipeline_script = %q", c.PipelineScript)
	}
	if len(c.Sources) != 2 {
		t.Fatalf("sources decoded = %#v, want 2 entries", c.Sources)
	}

	kv := c.Sources[0]
	if kv.Name != "users" || kv.Kind != "kv" {
		t.Fatalf("sources[0] = %#v", kv)
	}
	if got := kv.Options.String("addr", ""); got != "localhost:6379" {
		t.Fatalf("sources[0].options.addr = %q, want localhost:6379", got)
	}
	if kv.Cache.Size != 512 || kv.Cache.TTL != 30*time.Second {
		t.Fatalf("sources[0].cache = %#v, want size=512 ttl=30s", kv.Cache)
	}

	geo := c.Sources[1]
	fields := geo.Options.StringMap("fields")
	if !reflect.DeepEqual(fields, map[string]string{"country": "data.country", "city": "data.city"}) {
		t.Fatalf("sources[1].options.fields = %#v", fields)
	}
}

func TestServerConfig_Listen_Defaults(t *testing.T) {
	t.Parallel()

	var s ServerConfig
	if got, want := s.Listen(), "0.0.0.0:8080"; got != want {
		t.Fatalf("Listen() = %q, want %q", got, want)
	}
	s = ServerConfig{Address: "127.0.0.1", Port: 9999}
	if got, want := s.Listen(), "127.0.0.1:9999"; got != want {
		t.Fatalf("Listen() = %q, want %q", got, want)
	}
}

// -----------------------------------------------------------------------------
// ${ENV} expansion tests
// -----------------------------------------------------------------------------

func TestLoad_ExpandsEnvTokensInOptionsAndScriptPath(t *testing.T) {
	os.Setenv("PIPER_TEST_DSN", "postgres://u:p@host/db")
	os.Setenv("PIPER_TEST_SCRIPT_DIR", "pipelines")
	defer os.Unsetenv("PIPER_TEST_DSN")
	defer os.Unsetenv("PIPER_TEST_SCRIPT_DIR")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	const js = `{
	  "pipeline_script": "${PIPER_TEST_SCRIPT_DIR}/scored.piper",
	  "sources": [ { "name": "docs", "kind": "docstore", "options": { "dsn": "${PIPER_TEST_DSN}" } } ]
	}`
	if err := os.WriteFile(path, []byte(js), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.PipelineScript != "pipelines/scored.piper" {
		t.Fatalf("PipelineScript = %q, want expanded", c.PipelineScript)
	}
	if got := c.Sources[0].Options.String("dsn", ""); got != "postgres://u:p@host/db" {
		t.Fatalf("dsn = %q, want expanded", got)
	}
}

func TestExpandEnv_LeavesUnsetTokenUntouched(t *testing.T) {
	os.Unsetenv("PIPER_TEST_NOT_SET")
	if got, want := expandEnv("value=${PIPER_TEST_NOT_SET}"), "value=${PIPER_TEST_NOT_SET}"; got != want {
		t.Fatalf("expandEnv = %q, want %q (unset token left as-is)", got, want)
	}
}

// -----------------------------------------------------------------------------
// Options helper tests (hermetic).
// -----------------------------------------------------------------------------

func TestOptions_String_Bool_Int_DefaultsAndCoercion(t *testing.T) {
	t.Parallel()

	o := Options{
		"s": "hello",
		"b": true,
		"i": float64(42), // encoding/json decodes numbers as float64
	}

	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q, want hello", got)
	}
	if got := o.String("missing", "def"); got != "def" {
		t.Fatalf("String(missing) = %q, want def", got)
	}
	if got := o.Bool("b", false); got != true {
		t.Fatalf("Bool(b) = %v, want true", got)
	}
	if got := o.Bool("missing", true); got != true {
		t.Fatalf("Bool(missing) = %v, want true", got)
	}
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d, want 42", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Fatalf("Int(missing) = %d, want 7", got)
	}
}

func TestOptions_StringMap_StringSlice(t *testing.T) {
	t.Parallel()

	o := Options{
		"m":  map[string]any{"A": "a", "B": "b", "X": 1}, // non-string value "X" must be ignored
		"s1": []any{"alpha", "beta", 3},                  // ints ignored
		"s2": []string{"gamma", "delta"},
	}

	sm := o.StringMap("m")
	if !reflect.DeepEqual(sm, map[string]string{"A": "a", "B": "b"}) {
		t.Fatalf("StringMap(m) = %#v, want {A:a B:b}", sm)
	}
	sm2 := o.StringMap("missing")
	if sm2 == nil || len(sm2) != 0 {
		t.Fatalf("StringMap(missing) = %#v, want empty map", sm2)
	}

	ss1 := o.StringSlice("s1")
	if !reflect.DeepEqual(ss1, []string{"alpha", "beta"}) {
		t.Fatalf("StringSlice(s1) = %#v, want [alpha beta]", ss1)
	}
	ss2 := o.StringSlice("s2")
	if !reflect.DeepEqual(ss2, []string{"gamma", "delta"}) {
		t.Fatalf("StringSlice(s2) = %#v, want [gamma delta]", ss2)
	}
	if got := o.StringSlice("missing"); got != nil {
		t.Fatalf("StringSlice(missing) = %#v, want nil", got)
	}
}

// -----------------------------------------------------------------------------
// Options.UnmarshalJSON behavior tests
// -----------------------------------------------------------------------------

func TestOptions_UnmarshalJSON_NullYieldsEmptyMapMissingStaysNil(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"options": null}`), &w); err != nil {
		t.Fatalf("unmarshal(null): %v", err)
	}
	if w.Opts == nil || len(w.Opts) != 0 {
		t.Fatalf("Opts after unmarshal(null) = %#v, want non-nil empty map", w.Opts)
	}

	// encoding/json never calls UnmarshalJSON for an absent key, so the
	// field keeps its zero value; the getters still fall back to defaults.
	var m wrapper
	if err := json.Unmarshal([]byte(`{}`), &m); err != nil {
		t.Fatalf("unmarshal({}): %v", err)
	}
	if m.Opts != nil {
		t.Fatalf("Opts after unmarshal({}) = %#v, want nil", m.Opts)
	}
	if got := m.Opts.String("addr", "def"); got != "def" {
		t.Fatalf("nil Opts.String(addr) = %q, want default def", got)
	}
}

func TestOptions_UnmarshalJSON_ObjectDecodesAsMap(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	const jsObj = `{"options": {"a":"x","b":true,"n": 3}}`
	var w wrapper
	if err := json.Unmarshal([]byte(jsObj), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts.String("a", "") != "x" {
		t.Fatalf("Opts.String(a) = %q, want x", w.Opts.String("a", ""))
	}
	if w.Opts.Bool("b", false) != true {
		t.Fatalf("Opts.Bool(b) = %v, want true", w.Opts.Bool("b", false))
	}
	if w.Opts.Int("n", 0) != 3 {
		t.Fatalf("Opts.Int(n) = %d, want 3", w.Opts.Int("n", 0))
	}
}
