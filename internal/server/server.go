package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version string
	Commit  string
}

type Config struct {
	Addr    string // e.g. "127.0.0.1:5000"
	Build   BuildInfo
	Catalog *Catalog

	// RateLimit is the number of requests per RateWindow allowed for one
	// client IP. Zero disables rate limiting.
	RateLimit  int
	RateWindow time.Duration

	EnableMetrics bool
}

type Server struct {
	httpServer *http.Server
	catalog    *Catalog
	metrics    *Metrics
	limiter    *rateLimiter
	build      BuildInfo
}

// route binds a method and path pattern to a handler.
type route struct {
	method  string
	pattern string
	handler http.Handler
}

func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	if cfg.RateLimit < 0 {
		return nil, errors.New("server: rate limit must not be negative")
	}

	s := &Server{
		catalog: cfg.Catalog,
		metrics: NewMetrics(cfg.Build),
		build:   cfg.Build,
	}

	mux := http.NewServeMux()
	for _, rt := range s.routes(cfg) {
		mux.Handle(rt.method+" "+rt.pattern, rt.handler)
	}

	// Wrap middleware: requestID -> logging -> security headers -> rate limit -> mux
	var handler http.Handler = mux
	if cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		s.limiter = newRateLimiter(cfg.RateLimit, window)
		handler = s.limiter.middleware(handler, s.metrics.RecordRateLimited)
	}
	handler = securityHeadersMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s, nil
}

func (s *Server) routes(cfg Config) []route {
	rts := []route{
		{http.MethodGet, "/csv/{filename}", s.csvHandler()},
		{http.MethodGet, "/health", http.HandlerFunc(s.HandleHealth)},
		{http.MethodGet, "/ready", http.HandlerFunc(s.HandleReady)},
		{http.MethodGet, "/live", http.HandlerFunc(s.HandleLive)},
	}
	if cfg.EnableMetrics {
		rts = append(rts, route{http.MethodGet, "/metrics", s.metrics.Handler()})
	}
	return rts
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	Info("server_listening", map[string]any{
		"addr":    ln.Addr().String(),
		"files":   s.catalog.Keys(),
		"version": s.build.Version,
	})
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.close()
	}
	return s.httpServer.Shutdown(ctx)
}
