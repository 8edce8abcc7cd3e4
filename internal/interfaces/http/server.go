// Package http serves the read-only pricing API: demand predictions, price
// sweeps, the latest validation verdict and Prometheus metrics.
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/Samer-Is/RPI/internal/competitor"
	"github.com/Samer-Is/RPI/internal/config"
	"github.com/Samer-Is/RPI/internal/domain"
	"github.com/Samer-Is/RPI/internal/pricing"
)

// Server is the read-only HTTP front end. Model artifacts are loaded once
// and shared across requests; a retrain produces new artifacts picked up on
// restart, never mutated in place.
type Server struct {
	router  *mux.Router
	server  *http.Server
	engine  *pricing.Engine
	store   *competitor.Store
	report  *domain.ValidationReport
	metrics *MetricsRegistry
	cfg     config.ServerConfig
}

// NewServer wires the engine and collaborators into a configured server.
// The competitor store and validation report are optional.
func NewServer(cfg config.ServerConfig, engine *pricing.Engine, store *competitor.Store, report *domain.ValidationReport) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("http: pricing engine is required")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("port %d is busy or unavailable: %w", cfg.Port, err)
	}
	listener.Close()

	s := &Server{
		router:  mux.NewRouter(),
		engine:  engine,
		store:   store,
		report:  report,
		metrics: NewMetricsRegistry(),
		cfg:     cfg,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/v1/predict", s.handlePredict).Methods("POST")
	api.HandleFunc("/v1/optimize", s.handleOptimize).Methods("POST")
	api.HandleFunc("/v1/validation", s.handleValidation).Methods("GET")

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Router exposes the handler tree for httptest servers.
func (s *Server) Router() http.Handler { return s.router }

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("pricing API listening")
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("pricing API shutting down")
	return s.server.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// responseWrapper captures the status code for request logging.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
