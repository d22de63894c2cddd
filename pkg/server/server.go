// Package server serves live reveal previews over HTTP.
//
// One server holds one project. Clients open editing sessions on it, move
// the counter or the active day, and fetch composed frames and masks as
// PNG. Each session owns a compositor, so scrubbing a session's counter
// only touches the pixels between the old and the new reveal count.
//
// # Routes
//
//	GET    /healthz
//	POST   /sessions                     open a session
//	GET    /sessions/{id}                session state
//	DELETE /sessions/{id}                close a session
//	GET    /sessions/{id}/stats          reveal statistics
//	GET    /sessions/{id}/frame.png      composed frame
//	GET    /sessions/{id}/mask.png       reveal mask
//	GET    /sessions/{id}/export.{fmt}   animation (apng or gif)
//	PUT    /sessions/{id}/counter        set the counter of the active day
//	POST   /sessions/{id}/day            switch the active day
//	POST   /sessions/{id}/commit         record the active day
//
// Errors are JSON objects with "code" and "error" fields. The HTTP status
// follows the error code: INVALID_* is 400, *NOT_FOUND is 404,
// SESSION_EXPIRED is 410 and UNINITIALIZED_ENGINE is 409.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/llumina/pkg/observability"
	"github.com/matzehuels/llumina/pkg/pipeline"
	"github.com/matzehuels/llumina/pkg/project"
	"github.com/matzehuels/llumina/pkg/session"
)

// Defaults.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultRequestTimeout  = 2 * time.Minute
	DefaultCleanupInterval = time.Minute
	shutdownTimeout        = 10 * time.Second
)

// SaveFunc persists a project after a day was committed.
type SaveFunc func(p *project.Project) error

// Server is the preview HTTP server.
type Server struct {
	runner  *pipeline.Runner
	store   session.Store
	logger  *log.Logger
	ttl     time.Duration
	save    SaveFunc
	timeout time.Duration

	mu    sync.Mutex // guards scene
	scene *pipeline.Scene

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithStore replaces the in-memory session store.
func WithStore(st session.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithSessionTTL sets how long idle sessions live.
func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

// WithSave persists the project whenever a session commits a day.
func WithSave(fn SaveFunc) Option {
	return func(s *Server) { s.save = fn }
}

// WithRequestTimeout bounds the time spent on one request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

// New creates a server for scene.
func New(runner *pipeline.Runner, scene *pipeline.Scene, opts ...Option) *Server {
	s := &Server{
		runner:  runner,
		scene:   scene,
		ttl:     session.DefaultTTL,
		timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = runner.Logger
	}
	if s.store == nil {
		s.store = session.NewMemoryStore()
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Expired sessions are swept every DefaultCleanupInterval.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweep(ctx, DefaultCleanupInterval)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("preview server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.logger.Info("preview server stopped")
	return err
}

func (s *Server) sweep(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.store.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/stats", s.handleStats)
			r.Get("/frame.png", s.handleFrame)
			r.Get("/mask.png", s.handleMask)
			r.Get("/export.{format}", s.handleExport)
			r.Put("/counter", s.handleSetCounter)
			r.Post("/day", s.handleSwitchDay)
			r.Post("/commit", s.handleCommit)
		})
	})
	return r
}

// observe logs every request and reports it to the server hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.Server().OnRequest(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// baseScene returns the scene new sessions start from.
func (s *Server) baseScene() *pipeline.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene
}

// committed merges rec into the base project, so sessions opened later see
// it, and persists the result. Concurrent commits to different days from
// different sessions are all kept.
func (s *Server) committed(rec project.DayRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.scene.Clone()
	next.Project.PutDay(rec)
	s.scene = next

	if s.save == nil {
		return nil
	}
	return s.save(next.Project.Clone())
}
