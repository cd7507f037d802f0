// Package server provides the HTTP surface of the bot: liveness probes,
// Prometheus metrics and a small JWT-protected admin API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/referat-bot/internal/db"
	"github.com/jonathan/referat-bot/internal/observability"
	"github.com/jonathan/referat-bot/internal/ratelimit"
	"github.com/jonathan/referat-bot/internal/server/middleware"
)

// Reporter is the read side of the store the admin API needs
type Reporter interface {
	Stats(ctx context.Context) (*db.Stats, error)
	UsageHistory(ctx context.Context) ([]db.UsageRow, error)
	FinancialReport(ctx context.Context) (*db.FinancialReport, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// Config holds server configuration
type Config struct {
	Port int
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       Reporter
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// New creates a new server. A nil jwtService disables the admin API.
func New(cfg Config, store Reporter, jwtService *JWTService, limiter *ratelimit.Limiter) *Server {
	s := &Server{
		store:       store,
		rateLimiter: limiter,
		jwtService:  jwtService,
	}

	mux := http.NewServeMux()
	// GET patterns also answer HEAD
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	if jwtService != nil && store != nil {
		auth := middleware.AuthMiddleware(jwtService.AsTokenValidator(), store.IsAdmin)
		mux.Handle("GET /admin/stats", auth(http.HandlerFunc(s.handleStats)))
		mux.Handle("GET /admin/usage", auth(http.HandlerFunc(s.handleUsage)))
		mux.Handle("GET /admin/finance", auth(http.HandlerFunc(s.handleFinance)))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[SERVER] listening on %s", ln.Addr())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("[SERVER] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("[SERVER] stopped")
	return nil
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging logs each request and counts it by route pattern
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, observability.StatusCode(rec.status)).Inc()
		if r.URL.Path != "/metrics" {
			log.Printf("[SERVER] %s %s %d in %v", r.Method, r.URL.Path, rec.status, time.Since(start))
		}
	})
}

// withRateLimit rejects clients over their request budget
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}
	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// extractClientID uses the IP from RemoteAddr
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// handleHealth answers liveness probes
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "Alive"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		log.Printf("[SERVER] stats failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := s.store.UsageHistory(r.Context())
	if err != nil {
		log.Printf("[SERVER] usage failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load usage history")
		return
	}
	if usage == nil {
		usage = []db.UsageRow{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"usage": usage})
}

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.FinancialReport(r.Context())
	if err != nil {
		log.Printf("[SERVER] finance failed: %v", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load financial report")
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[SERVER] error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}
