// Package visualization serves the interactive snowball-sampling page and
// the HTTP API behind its controls.
package visualization

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nvandessel/snowball/internal/logging"
	"github.com/nvandessel/snowball/internal/session"
)

// DefaultAddr lets the OS pick a free localhost port.
const DefaultAddr = "localhost:0"

// Options configures a Server.
type Options struct {
	// Addr is the listen address. Empty means DefaultAddr.
	Addr string

	// AllowedOrigins enables CORS for pages embedding the demo.
	AllowedOrigins []string

	Logger *slog.Logger
}

// Server serves the demo page and handles control API requests for one
// session.
type Server struct {
	session    *session.Controller
	opts       Options
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a new visualization server for ctl.
func NewServer(ctl *session.Controller, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	return &Server{
		session: ctl,
		opts:    opts,
		logger:  logging.OrDiscard(opts.Logger),
	}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the page URL, or "" before the server is listening.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == "" {
		return ""
	}
	return "http://" + addr + "/"
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.logRequests)

	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		}))
	}

	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)

		r.Post("/seeds", s.handleAddSeed)
		r.Delete("/seeds/{keyword}", s.handleRemoveSeed)

		r.Post("/start", s.handleStart)
		r.Post("/round", s.handleRound)
		r.Post("/reset", s.handleReset)

		r.Post("/autoplay", s.handleToggleAutoplay)
		r.Put("/autoplay/speed", s.handleAutoplaySpeed)

		r.Get("/export.json", s.handleExportJSON)
		r.Get("/export.csv", s.handleExportCSV)

		r.Get("/graph.svg", s.handleGraphSVG)
		r.Get("/graph.dot", s.handleGraphDOT)
		r.Get("/graph.json", s.handleGraphJSON)

		r.Get("/progress/total.svg", s.handleTotalChart)
		r.Get("/progress/new.svg", s.handleNewChart)

		r.Get("/keywords/{keyword}", s.handleDetail)
		r.Delete("/detail", s.handleCloseDetail)
	})

	return r
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	s.logger.Info("visualization server listening", "addr", s.Addr())

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}
