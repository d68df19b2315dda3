// Command piper serves an online feature-transformation pipeline over HTTP:
// it loads a pipeline script and a lookup-source definition file, builds the
// lookup sources and function/aggregate registries, and serves POST
// /process, GET /metrics, and GET /healthz until interrupted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"piper/internal/catalog"
	"piper/internal/config"
	"piper/internal/funcs"
	"piper/internal/httpapi"
	"piper/internal/lookup"
	"piper/internal/metrics"
	"piper/internal/metrics/datadog"
	"piper/internal/metrics/promweb"

	"piper/internal/lookup/columnar"
	"piper/internal/lookup/docstore"
	"piper/internal/lookup/httpsrc"
	"piper/internal/lookup/kv"
	"piper/internal/lookup/mssql"
	"piper/internal/lookup/sqlite"
)

// lookupFile is the decoded shape of the -l lookup definition file: a bare
// "sources" array, each entry carrying "class" (the lookup variant), "name",
// and class-specific options, per the documented configuration contract.
type lookupFile struct {
	Sources []lookupFileSource `json:"sources"`
}

type lookupFileSource struct {
	Class   string             `json:"class"`
	Name    string             `json:"name"`
	Options config.Options     `json:"options"`
	Cache   config.CacheConfig `json:"cache"`
}

func main() {
	var (
		pipelinePath   string
		lookupPath     string
		address        string
		port           int
		jsonLogs       bool
		metricsBackend string
		datadogAddr    string
		datadogNS      string
	)
	flag.StringVar(&pipelinePath, "p", "", "pipeline script path")
	flag.StringVar(&lookupPath, "l", "", "lookup source definition file (JSON)")
	flag.StringVar(&address, "address", "0.0.0.0", "listen address")
	flag.IntVar(&port, "port", 8080, "listen port")
	flag.BoolVar(&jsonLogs, "j", false, "emit structured JSON logs instead of plain text")
	flag.StringVar(&metricsBackend, "metrics-backend", "prometheus", "metrics backend: prometheus or datadog")
	flag.StringVar(&datadogAddr, "datadog-addr", "", "DogStatsD address, required when -metrics-backend=datadog")
	flag.StringVar(&datadogNS, "datadog-namespace", "", "optional Datadog metric namespace prefix")
	flag.Parse()

	logf := newLogger(jsonLogs)

	if pipelinePath == "" {
		fatalf(jsonLogs, "-p <pipeline_file> is required")
	}

	scriptBytes, err := os.ReadFile(pipelinePath)
	if err != nil {
		fatalf(jsonLogs, "read pipeline script: %v", err)
	}

	var lf lookupFile
	if lookupPath != "" {
		raw, err := os.ReadFile(lookupPath)
		if err != nil {
			fatalf(jsonLogs, "read lookup file: %v", err)
		}
		if err := json.Unmarshal(raw, &lf); err != nil {
			fatalf(jsonLogs, "decode lookup file: %v", err)
		}
	}

	cfg := config.Config{
		Server:         config.ServerConfig{Address: address, Port: port},
		PipelineScript: pipelinePath,
		Metrics: config.MetricsConfig{
			Backend: metricsBackend,
			Datadog: config.DatadogConfig{Addr: datadogAddr, Namespace: datadogNS},
		},
	}
	for _, s := range lf.Sources {
		cfg.Sources = append(cfg.Sources, config.SourceConfig{
			Name: s.Name, Kind: s.Class, Options: config.ExpandOptions(s.Options), Cache: s.Cache,
		})
	}

	hasError := false
	for _, iss := range config.Validate(cfg) {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf(jsonLogs, "configuration is invalid")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sources := lookup.NewRegistry()
	for _, sc := range cfg.Sources {
		src, err := buildSource(ctx, sc)
		if err != nil {
			fatalf(jsonLogs, "build source %q: %v", sc.Name, err)
		}
		if src == nil {
			continue // e.g. a udlf source, registered programmatically instead
		}
		if sc.Cache.Size > 0 {
			src = lookup.NewCachedSource(src, sc.Cache.Size, sc.Cache.TTL)
		}
		sources.Register(src)
	}

	cat := catalog.New(funcs.NewRegistry(), funcs.NewAggRegistry(), sources)
	if err := cat.Load(string(scriptBytes)); err != nil {
		fatalf(jsonLogs, "load pipeline script: %v", err)
	}

	metricsHandler := setupMetricsBackend(cfg.Metrics, logf)

	srv := httpapi.New(cat, metricsHandler)

	listen := cfg.Server.Listen()
	logf("serving %d pipeline(s) on %s", len(cat.Names()), listen)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(listen) }()

	select {
	case <-ctx.Done():
		logf("shutting down: %v", ctx.Err())
	case err := <-errCh:
		if err != nil {
			fatalf(jsonLogs, "server: %v", err)
		}
	}
}

// setupMetricsBackend installs the configured metrics.Backend and returns
// the httpapi.MetricsHandler GET /metrics should delegate to, or nil when
// the chosen backend has nothing to scrape (datadog pushes to a DogStatsD
// agent instead) or failed to initialize.
func setupMetricsBackend(mc config.MetricsConfig, logf func(format string, a ...any)) httpapi.MetricsHandler {
	switch mc.Backend {
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       mc.Datadog.Addr,
			Namespace:  mc.Datadog.Namespace,
			GlobalTags: mc.Datadog.GlobalTags,
		})
		if err != nil {
			logf("metrics: failed to init datadog backend: %v; using nop", err)
			return nil
		}
		metrics.SetBackend(b)
		return nil
	default:
		b, err := promweb.NewBackend()
		if err != nil {
			logf("metrics: failed to init prometheus backend: %v; using nop", err)
			return nil
		}
		metrics.SetBackend(b)
		return b
	}
}

// buildSource constructs the lookup.Source variant named by sc.Kind. It
// returns a nil Source (and nil error) for kinds that cannot be constructed
// from JSON config alone, such as udlf, which requires a Go callable
// registered by the embedding program.
func buildSource(ctx context.Context, sc config.SourceConfig) (lookup.Source, error) {
	switch sc.Kind {
	case "kv":
		return kv.New(sc.Name, kv.Config{
			Addr:      sc.Options.String("addr", ""),
			Password:  sc.Options.String("password", ""),
			DB:        sc.Options.Int("db", 0),
			KeyPrefix: sc.Options.String("key_prefix", ""),
		}), nil
	case "http":
		return httpsrc.New(sc.Name, httpsrc.Config{
			URLTemplate: sc.Options.String("url_template", ""),
			Fields:      sc.Options.StringMap("fields"),
			Timeout:     durationOr(sc.Options, "timeout_ms", 5*time.Second),
		}), nil
	case "mssql":
		return mssql.New(ctx, sc.Name, mssql.Config{
			DSN:       sc.Options.String("dsn", ""),
			Table:     sc.Options.String("table", ""),
			KeyColumn: sc.Options.String("key_column", ""),
			Fields:    sc.Options.StringSlice("fields"),
		})
	case "sqlite":
		return sqlite.New(sqlite.Config{
			Path:      sc.Options.String("path", ""),
			Table:     sc.Options.String("table", ""),
			KeyColumn: sc.Options.String("key_column", ""),
			Fields:    sc.Options.StringSlice("fields"),
		}, sc.Name)
	case "docstore":
		return docstore.New(ctx, sc.Name, docstore.Config{
			DSN:       sc.Options.String("dsn", ""),
			Table:     sc.Options.String("table", ""),
			KeyColumn: sc.Options.String("key_column", ""),
			DocColumn: sc.Options.String("doc_column", "doc"),
		})
	case "columnar":
		return columnar.Load(ctx, sc.Name, columnar.Config{
			Path:      sc.Options.String("path", ""),
			KeyColumn: sc.Options.String("key_column", ""),
			Fields:    sc.Options.StringSlice("fields"),
		})
	case "udlf":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", sc.Kind)
	}
}

func durationOr(o config.Options, key string, def time.Duration) time.Duration {
	ms := o.Int(key, -1)
	if ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func newLogger(jsonLogs bool) func(format string, a ...any) {
	if !jsonLogs {
		return func(format string, a ...any) { log.Printf(format, a...) }
	}
	return func(format string, a ...any) {
		msg := fmt.Sprintf(format, a...)
		b, _ := json.Marshal(map[string]any{"ts": time.Now().UTC().Format(time.RFC3339Nano), "msg": msg})
		fmt.Fprintln(os.Stdout, string(b))
	}
}

func fatalf(jsonLogs bool, format string, a ...any) {
	newLogger(jsonLogs)(format, a...)
	os.Exit(1)
}
