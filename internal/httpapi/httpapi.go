// Package httpapi exposes the catalog over HTTP: a POST /process endpoint
// that runs a batch of per-pipeline requests and returns their row-sets and
// error ledgers, plus GET /metrics and GET /healthz for operational use.
//
// It follows the same thin-handler shape SharedCode-sop's rest_api package
// uses gin for: a router built once at startup, one handler per route, and
// no business logic beyond decoding the request, calling into the domain
// layer, and encoding the response.
package httpapi

import (
	"net/http"
	"time"

	"piper/internal/catalog"
	"piper/internal/metrics"
	"piper/internal/value"

	"github.com/gin-gonic/gin"
)

// ProcessRequest is one entry in a /process request's "requests" array.
type ProcessRequest struct {
	Pipeline string         `json:"pipeline"`
	Data     map[string]any `json:"data"`
}

// ProcessBody is the full /process request body.
type ProcessBody struct {
	Requests []ProcessRequest `json:"requests"`
}

// LedgerError is one entry in a result's "errors" array.
type LedgerError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
}

// ProcessResult is one entry in a /process response's "results" array.
//
// Count and Data are only populated on OK status; they are marked omitempty
// so an ERROR result serializes without them, per the documented contract.
type ProcessResult struct {
	Status   string           `json:"status"`
	Count    int              `json:"count,omitempty"`
	Data     []map[string]any `json:"data,omitempty"`
	Pipeline string           `json:"pipeline"`
	Errors   []LedgerError    `json:"errors"`
	TimeMS   float64          `json:"time"`
}

// ProcessResponse is the full /process response body.
type ProcessResponse struct {
	Results []ProcessResult `json:"results"`
}

// MetricsHandler serves GET /metrics. The Prometheus backend
// (internal/metrics/promweb) implements it and is wired in at startup;
// httpapi has no opinion on the metrics format itself.
type MetricsHandler interface {
	ServeMetrics(c *gin.Context)
}

// Server bundles the catalog and an optional metrics handler into a gin
// router.
type Server struct {
	cat     *catalog.Catalog
	metrics MetricsHandler
	router  *gin.Engine
}

// New builds a Server with routes registered but not yet listening.
// mh may be nil, in which case GET /metrics reports that no backend is
// configured.
func New(cat *catalog.Catalog, mh MetricsHandler) *Server {
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{cat: cat, metrics: mh, router: router}
	router.POST("/process", s.handleProcess)
	router.GET("/metrics", s.handleMetrics)
	router.GET("/healthz", s.handleHealthz)
	return s
}

// Router exposes the underlying gin.Engine, mainly so callers can attach it
// to an http.Server for graceful shutdown.
func (s *Server) Router() http.Handler { return s.router }

// Run starts listening on addr; it blocks until the server stops or errors.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleMetrics(c *gin.Context) {
	if s.metrics == nil {
		c.String(http.StatusOK, "# no metrics backend configured\n")
		return
	}
	s.metrics.ServeMetrics(c)
}

func (s *Server) handleProcess(c *gin.Context) {
	var body ProcessBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]ProcessResult, len(body.Requests))
	for i, req := range body.Requests {
		results[i] = s.processOne(c, req)
	}
	c.JSON(http.StatusOK, ProcessResponse{Results: results})
}

func (s *Server) processOne(c *gin.Context, req ProcessRequest) ProcessResult {
	start := time.Now()
	res, err := s.cat.Execute(c.Request.Context(), req.Pipeline, req.Data)
	elapsed := time.Since(start)
	metrics.RecordRequest(req.Pipeline, err, elapsed)

	if err != nil {
		return ProcessResult{
			Status:   "ERROR",
			Pipeline: req.Pipeline,
			Errors:   []LedgerError{{Row: -1, Column: "", Message: err.Error()}},
			TimeMS:   float64(elapsed) / float64(time.Millisecond),
		}
	}

	metrics.RecordRows(req.Pipeline, int64(len(res.Rows)))
	metrics.RecordLedgerErrors(req.Pipeline, int64(len(res.Ledger)))

	return ProcessResult{
		Status:   "OK",
		Count:    len(res.Rows),
		Data:     rowsToJSON(res.Schema, res.Rows),
		Pipeline: req.Pipeline,
		Errors:   ledgerToJSON(res.Ledger),
		TimeMS:   float64(elapsed) / float64(time.Millisecond),
	}
}

func ledgerToJSON(ledger []catalog.LedgerEntry) []LedgerError {
	out := make([]LedgerError, len(ledger))
	for i, e := range ledger {
		out[i] = LedgerError{Row: e.RowIndex, Column: e.ColumnName, Message: e.Message}
	}
	return out
}

func rowsToJSON(schema value.Schema, rows []value.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		obj := make(map[string]any, len(schema.Columns))
		for _, col := range schema.Columns {
			obj[col.Name] = valueToJSON(row[col.Name])
		}
		out[i] = obj
	}
	return out
}

// valueToJSON implements the JSON value mapping: Bool->bool, Int/Long->
// integer, Float/Double->number, String->string, DateTime->ISO-8601 with
// offset, List->array, Map->object, Null and Error->null (an Error also
// produces a ledger entry, added separately by the caller).
func valueToJSON(v value.Value) any {
	switch v.Kind() {
	case value.KindNull, value.KindError:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindInt:
		return v.AsInt()
	case value.KindFloat:
		return float64(v.AsFloat())
	case value.KindDouble:
		return v.AsDouble()
	case value.KindString:
		return v.AsString()
	case value.KindDateTime:
		return v.AsTime().Format(time.RFC3339Nano)
	case value.KindList:
		items := v.AsList()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = valueToJSON(item)
		}
		return out
	case value.KindMap:
		m, order := v.AsMap()
		obj := make(map[string]any, len(m))
		for _, k := range order {
			obj[k] = valueToJSON(m[k])
		}
		return obj
	default:
		return nil
	}
}
