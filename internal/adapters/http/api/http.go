// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/pacer/internal/adapters/augment"
	"github.com/okian/pacer/internal/domain/leads"
	"github.com/okian/pacer/internal/domain/model"
)

// DefaultMaxPartBytes caps each uploaded part.
const DefaultMaxPartBytes = 50 * 1024 * 1024

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Analyze runs the full pipeline and returns one complete response.
	Analyze(ctx context.Context, sub model.Submission) (model.AnalysisResponse, error)

	// Probe calls the augmentation service directly.
	Probe(ctx context.Context, r augment.Request) (string, error)

	// Leads lists the lead table.
	Leads() []leads.Record
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	analyzeHandler *AnalyzeHandler
	leadsHandler   *LeadsHandler
}

// ServerOption configures a Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	maxPartBytes int64
}

// WithMaxPartBytes sets the per-part upload cap.
func WithMaxPartBytes(n int64) ServerOption {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxPartBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	o := serverOptions{maxPartBytes: DefaultMaxPartBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		analyzeHandler: NewAnalyzeHandler(deps, o.maxPartBytes),
		leadsHandler:   NewLeadsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.Handle("/healthz", instrument(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/stats", instrument(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/api/leads", instrument(s.leadsHandler.HandleListLeads, "leads"))
	mux.Handle("/api/analyze", instrument(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.Handle("/api/analyze/augment", instrument(s.analyzeHandler.HandleProbe, "analyze_augment"))
}

// instrument applies the middleware chain shared by every route.
func instrument(h http.HandlerFunc, endpoint string) http.Handler {
	return RequestIDMiddleware(MetricsMiddleware(RecoverMiddleware(h).ServeHTTP, endpoint))
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type feedbackResponse struct {
	Feedback string `json:"feedback"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func methodNotAllowed(w http.ResponseWriter, op string, allow ...string) {
	for _, m := range allow {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrMethodNotAllowed))
}
