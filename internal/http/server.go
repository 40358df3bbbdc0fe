// Package http exposes the engine as a JSON API: transaction CRUD,
// series-wide operations, and projection/analysis computation.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/maicon-romano/previzi/internal/middleware/ratelimit"
	"github.com/maicon-romano/previzi/internal/middleware/trace"
	"github.com/maicon-romano/previzi/internal/services"
	"github.com/maicon-romano/previzi/internal/storage"
)

type Server struct {
	http.Server
	store     storage.TransactionStore
	series    *services.Materializer
	projector *services.Projector

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, store storage.TransactionStore, series *services.Materializer, projector *services.Projector) *Server {
	mux := http.NewServeMux()

	s := &Server{
		store:     store,
		series:    series,
		projector: projector,
		limiter:   ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/transactions", s.withCommon(s.handleTransactions))
	mux.HandleFunc("/api/transactions/", s.withCommon(s.handleTransactionByID))
	mux.HandleFunc("/api/series/", s.withCommon(s.handleSeries))
	mux.HandleFunc("/api/projection", s.withCommon(s.handleProjection))
	mux.HandleFunc("/api/projection/export", s.withCommon(s.handleProjectionExport))

	tracer := trace.NewMiddleware(clientIP)
	s.Server = http.Server{
		Addr:    addr,
		Handler: tracer.Middleware(mux),
	}
	return s
}

// withCommon applies rate limiting to mutating requests and sets the
// standard response headers.
func (s *Server) withCommon(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && !s.limiter.Allow(clientIP(r)) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				"client_ip", clientIP(r), "method", r.Method, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		next(w, r)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListUsers(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and its helper goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
