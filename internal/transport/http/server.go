package http

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"mafia/internal/app"
	"mafia/internal/config"
	"mafia/internal/domain"
	"mafia/internal/metrics"
)

// HistoryReader lists archived games of a room
type HistoryReader interface {
	RecentGames(ctx context.Context, room string, limit int) ([]domain.GameRecord, error)
}

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	registry *app.Registry
	history  HistoryReader
	metrics  *metrics.Metrics
	config   *config.Config
	logger   *slog.Logger
}

// NewServer creates a new HTTP server. history may be nil when archiving is disabled.
func NewServer(cfg *config.Config, registry *app.Registry, wsHandler http.Handler, history HistoryReader, m *metrics.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		registry: registry,
		history:  history,
		metrics:  m,
		config:   cfg,
		logger:   logger,
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)

	s.server = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      cors(s.Routes(wsHandler)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Routes builds the router
func (s *Server) Routes(wsHandler http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(s.middleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room}", s.handleGetRoom).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{room}/history", s.handleRoomHistory).Methods(http.MethodGet)

	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	r.Handle("/ws", wsHandler).Methods(http.MethodGet)

	return r
}

// middleware logs each request and records it under its route template
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		duration := time.Since(start)
		s.metrics.ObserveRequest(path, r.Method, wrapped.statusCode, duration)

		if s.config.IsDevelopment() || path != "/metrics" {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", duration,
			)
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
