// Package httpserver exposes the action operations as a JSON REST API.
package httpserver

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/eco-actions/internal/service"
)

// DefaultMaxBodyBytes caps request bodies at 10MB.
const DefaultMaxBodyBytes int64 = 10 << 20

// AvailableEndpoints is listed in 404 responses.
var AvailableEndpoints = []string{
	"GET /",
	"GET /api/actions",
	"POST /api/actions",
	"PUT /api/actions/:id",
	"PATCH /api/actions/:id",
	"DELETE /api/actions/:id",
}

// Options configure the HTTP surface.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	Version        string
}

// Server wires the action service into HTTP handlers.
type Server struct {
	actions service.ActionService
	log     *zap.Logger
	opts    Options
	now     func() time.Time
}

// New constructs a server with injected service and logger.
func New(actions service.ActionService, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{actions: actions, log: log, opts: opts, now: time.Now}
}

// Handler returns the routed handler wrapped in the middleware chain:
// request logging, panic recovery, CORS, body limit.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/actions", s.handleList)
	mux.HandleFunc("GET /api/actions/{$}", s.handleList)
	mux.HandleFunc("POST /api/actions", s.handleCreate)
	mux.HandleFunc("POST /api/actions/{$}", s.handleCreate)
	mux.HandleFunc("PUT /api/actions/{id}", s.handleReplace)
	mux.HandleFunc("PATCH /api/actions/{id}", s.handlePatch)
	mux.HandleFunc("DELETE /api/actions/{id}", s.handleDelete)
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = BodyLimit(s.opts.MaxBodyBytes)(h)
	h = CORS(s.opts.AllowedOrigins)(h)
	h = Recover(s.log, s.now)(h)
	h = Logging(s.log)(h)
	return h
}

// NewHTTPServer builds an *http.Server for addr with conservative timeouts.
func (s *Server) NewHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(isoMillis)
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"
