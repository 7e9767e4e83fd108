// Package http serves the JSON API over the expense and report services.
package http

import (
	"context"
	"net/http"
	"time"

	"kharcha/internal/backend"
	"kharcha/internal/log"
	"kharcha/internal/metrics"
	"kharcha/internal/services"
)

// Options carries the optional collaborators of a Server.
type Options struct {
	Logger  *log.Logger
	Metrics *metrics.Metrics
	// Storage is pinged by /readyz; nil skips the check.
	Storage backend.Pinger
	// WriteLimit is the number of POST requests allowed per client per
	// minute. Zero means 60.
	WriteLimit int
}

type Server struct {
	http.Server
	mux      *http.ServeMux
	expenses *services.ExpenseService
	reports  *services.ReportService
	storage  backend.Pinger
	metrics  *metrics.Metrics
	limiter  *rateLimiter
}

// NewServer wires the routes and middleware, returning a ready-to-run server.
func NewServer(addr string, expenses *services.ExpenseService, reports *services.ReportService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	limit := opts.WriteLimit
	if limit <= 0 {
		limit = 60
	}

	s := &Server{
		mux:      http.NewServeMux(),
		expenses: expenses,
		reports:  reports,
		storage:  opts.Storage,
		metrics:  opts.Metrics,
		limiter:  newRateLimiter(limit, time.Minute),
	}

	s.handle("GET /healthz", s.handleHealth)
	s.handle("GET /readyz", s.handleReady)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handle("GET /api/expenses", s.handleListExpenses)
	s.handle("POST /api/expenses", s.handleCreateExpense)
	s.handle("GET /api/settings", s.handleSettings)
	s.handle("POST /api/settings/categories", s.handleAddCategory)
	s.handle("POST /api/settings/users", s.handleAddUser)

	s.handle("GET /api/reports/monthly", s.handleMonthly)
	s.handle("GET /api/reports/weekly", s.handleWeekly)
	s.handle("GET /api/reports/category-month-person", s.handleCategoryMonthPerson)
	s.handle("GET /api/reports/persons", s.handlePersons)
	s.handle("GET /api/reports/categories", s.handleCategories)
	s.handle("GET /api/reports/range", s.handleRange)

	var h http.Handler = s.withSecurityHeaders(s.mux)
	h = log.AccessLog(clientIP)(h)
	h = log.Middleware(logger, func(r *http.Request) string { return r.Header.Get(headerRequestID) })(h)
	h = withRequestID(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

// Shutdown stops the rate limiter janitor and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.stop()
	return s.Server.Shutdown(ctx)
}

// handle registers h under pattern and records its latency and status
// labelled by the pattern.
func (s *Server) handle(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveHTTP(r.Method, pattern, rec.status, time.Since(start))
	}))
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withRequestID pins the request ID on both the request and the response so
// later middleware and clients see the same value.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := requestID(r)
		r.Header.Set(headerRequestID, id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once the first snapshot has been received and
// the storage backend answers. A failing feed keeps the server ready, since
// reports are still served from the last snapshot, but is reported as
// degraded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	version := s.reports.Version()
	setSnapshotVersion(w, version)
	if !s.reports.Ready() {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "waiting for snapshot"})
		return
	}
	if s.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.storage.Ping(ctx); err != nil {
			loggerFor(r).WarnContext(r.Context(), "Readiness storage ping failed", log.FieldError, err)
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "storage unavailable"})
			return
		}
	}
	body := map[string]any{"status": "ready", "snapshotVersion": version}
	if err := s.reports.FeedErr(); err != nil {
		body["status"] = "degraded"
		body["feedError"] = err.Error()
	}
	writeJSON(w, r, http.StatusOK, body)
}
