package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startTime).String(),
	}).Write(w)
}

// handleReady checks that the store answers within a deadline
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.service.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	uptime := time.Since(s.startTime)

	w.WriteHeader(http.StatusOK)

	// Write metrics in Prometheus-like format
	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP http_response_time_avg_microseconds Mean response time\n")
	fmt.Fprintf(w, "# TYPE http_response_time_avg_microseconds gauge\n")
	fmt.Fprintf(w, "http_response_time_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n\n", uptime.Seconds())
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := ParseTransactionInput(w, r)
	if err != nil {
		s.writeError(ctx, w, log.OpCreate, "", err)
		return
	}

	t, err := s.service.CreateTransaction(ctx, in)
	if err != nil {
		s.writeError(ctx, w, log.OpCreate, "", err)
		return
	}

	s.logMutation(ctx, log.OpCreate, t)
	NewJSONResponse().Status(http.StatusCreated).Body(toTransactionJSON(t)).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := s.service.ListTransactions(ctx)
	if err != nil {
		s.writeError(ctx, w, log.OpList, "", err)
		return
	}

	NewJSONResponse().Body(toTransactionList(items)).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	// A body that does not decode is reported by the service once the id is
	// known to exist.
	in, err := ParseTransactionInput(w, r)
	if err != nil {
		in = services.TransactionInput{DecodeErr: err}
	}

	t, err := s.service.UpdateTransaction(ctx, id, in)
	if err != nil {
		s.writeError(ctx, w, log.OpUpdate, id, err)
		return
	}

	s.logMutation(ctx, log.OpUpdate, t)
	NewJSONResponse().Body(toTransactionJSON(t)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if err := s.service.DeleteTransaction(ctx, id); err != nil {
		s.writeError(ctx, w, log.OpDelete, id, err)
		return
	}

	log.NewStructuredLogger(log.FromContext(ctx)).LogTransactionMutation(ctx, log.OpDelete, id, "", "")
	NewJSONResponse().Body(map[string]string{"message": "Transaction deleted"}).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	d, err := s.service.Dashboard(ctx)
	if err != nil {
		s.writeError(ctx, w, log.OpDashboard, "", err)
		return
	}

	NewJSONResponse().Body(toDashboardJSON(d)).Write(w)
}

// writeError logs err with its kind and writes the mapped response. Store
// detail stays in the log; callers get the generic body.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, op, id string, err error) {
	kind := errorType(err)
	fields := log.NewFields().
		WithOperation(op).
		WithErrorType(kind)
	if id != "" {
		fields[log.FieldTransactionID] = id
	}

	logger := log.FromContext(ctx)
	if kind == log.ErrorTypeInternal {
		log.NewStructuredLogger(logger).LogError(ctx, "Request failed", err, op, fields)
	} else {
		logger.InfoContext(ctx, "Request rejected", append(fields.ToSlice(), log.FieldError, err.Error())...)
	}

	FromError(err).Write(w)
}

func (s *Server) logMutation(ctx context.Context, op string, t core.Transaction) {
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogTransactionMutation(ctx, op, t.ID, t.Amount.String(), core.FormatDate(t.Date))
}
