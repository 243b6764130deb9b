// Package server exposes the editor over HTTP.
//
// Endpoints:
//
//	GET  /health                   health check
//	GET  /api                      API description
//	POST /api/ai/test-key          check an API key
//	POST /api/ai/analyze           structured image analysis
//	POST /api/ai/command           parse an instruction and apply it
//	POST /api/ai/suggest           edit suggestions
//	POST /api/ai/chat              conversation about an image
//	POST /api/ai/parse-command     parse an instruction without applying it
//	POST /api/ai/edit              parse and apply, returning the edited image
//	POST /api/ai/apply             apply a structured command
//	POST /api/images/upload        multipart upload, resized to fit 1920x1080
//	POST /api/images/apply-effect  manual slider effect
//	POST /api/images/info          image dimensions, format and EXIF
//	GET  /metrics                  Prometheus metrics
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/fpang/brushline/internal/command"
	"github.com/fpang/brushline/internal/dispatch"
	"github.com/fpang/brushline/internal/logging"
	"github.com/fpang/brushline/internal/vision"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Editor is the service the handlers call.
type Editor interface {
	ParseCommand(ctx context.Context, text, imageData, apiKey string) *command.Command
	PerformImageEdit(ctx context.Context, request, imageData, apiKey string) dispatch.Result
	ApplyCommand(ctx context.Context, cmd *command.Command, imageData string) (dispatch.Result, error)
	AnalyzeImage(ctx context.Context, imageData, apiKey string) vision.Analysis
	GenerateSuggestions(ctx context.Context, imageData, apiKey string) []string
	Chat(ctx context.Context, message, imageData string, history []vision.Turn, apiKey string) string
	TestAPIKey(ctx context.Context, apiKey string) error
}

// DefaultBodyLimit caps request bodies at 50MB.
const DefaultBodyLimit = 50 << 20

// Options configures the HTTP surface.
type Options struct {
	// FrontendURL is the only origin allowed by CORS.
	FrontendURL string
	// BodyLimit caps request bodies in bytes. Zero means DefaultBodyLimit.
	BodyLimit int64
	// Version is reported by GET /api.
	Version string
	// Environment is reported by GET /health.
	Environment string
}

// Server routes HTTP requests to an Editor.
type Server struct {
	editor Editor
	opts   Options
	mux    *http.ServeMux
	// routes lists every registered path. Anything else is reported to
	// metrics as "other".
	routes map[string]bool
}

// New returns a Server for ed.
func New(ed Editor, opts Options) *Server {
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = DefaultBodyLimit
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.Environment == "" {
		opts.Environment = logging.EnvOrDefault("BRUSHLINE_ENV", "development")
	}
	s := &Server{editor: ed, opts: opts, routes: make(map[string]bool)}
	s.mux = s.register()
	return s
}

func (s *Server) handle(mux *http.ServeMux, method, path string, h http.HandlerFunc) {
	s.routes[path] = true
	mux.HandleFunc(method+" "+path, h)
}

// register builds the route table. It runs once, from New; routes is
// read-only afterwards.
func (s *Server) register() *http.ServeMux {
	mux := http.NewServeMux()

	s.handle(mux, http.MethodGet, "/health", s.handleHealth)
	s.handle(mux, http.MethodGet, "/api", s.handleAPIInfo)

	s.handle(mux, http.MethodPost, "/api/ai/test-key", s.handleTestKey)
	s.handle(mux, http.MethodPost, "/api/ai/analyze", s.handleAnalyze)
	s.handle(mux, http.MethodPost, "/api/ai/command", s.handleCommand)
	s.handle(mux, http.MethodPost, "/api/ai/suggest", s.handleSuggest)
	s.handle(mux, http.MethodPost, "/api/ai/chat", s.handleChat)
	s.handle(mux, http.MethodPost, "/api/ai/parse-command", s.handleParseCommand)
	s.handle(mux, http.MethodPost, "/api/ai/edit", s.handleEdit)
	s.handle(mux, http.MethodPost, "/api/ai/apply", s.handleApply)

	s.handle(mux, http.MethodPost, "/api/images/upload", s.handleUpload)
	s.handle(mux, http.MethodPost, "/api/images/apply-effect", s.handleApplyEffect)
	s.handle(mux, http.MethodPost, "/api/images/info", s.handleInfo)

	s.routes["/metrics"] = true
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusNotFound, "Not Found - "+r.URL.Path, "")
	})
	return mux
}

// Handler returns the full middleware-wrapped handler. It may be called any
// number of times; every handler shares the route table built by New.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = withBodyLimit(s.opts.BodyLimit, h)
	h = gzhttp.GzipHandler(h)
	h = withCORS(s.opts.FrontendURL, h)
	h = withMetrics(s.route, h)
	h = withLogging(h)
	h = withRequestID(h)
	return h
}

// HTTPServer returns an *http.Server for addr with timeouts sized for image
// bodies and slow oracle calls.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) route(path string) string {
	if s.routes[path] {
		return path
	}
	return "other"
}
