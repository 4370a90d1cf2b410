package api

import (
	"errors"
	"net/http"

	"github.com/okian/pacer/internal/adapters/augment"
	"github.com/okian/pacer/pkg/logger"
	"github.com/okian/pacer/pkg/metrics"
)

// AnalyzeHandler serves the analysis pipeline and the augmentation probe.
type AnalyzeHandler struct {
	deps         Dependencies
	maxPartBytes int64
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Dependencies, maxPartBytes int64) *AnalyzeHandler {
	if maxPartBytes <= 0 {
		maxPartBytes = DefaultMaxPartBytes
	}
	return &AnalyzeHandler{deps: deps, maxPartBytes: maxPartBytes}
}

// HandleAnalyze handles POST /api/analyze requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}

	sub, err := parseSubmission(w, r, h.maxPartBytes)
	if err != nil {
		h.rejectUpload(w, r, err)
		return
	}

	resp, err := h.deps.Analyze(r.Context(), sub)
	if err != nil {
		logger.Get().Error(r.Context(), "analysis failed", logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleProbe handles POST /api/analyze/augment: a direct call to the
// remote service that reports misconfiguration and failures as statuses.
func (h *AnalyzeHandler) HandleProbe(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze_augment"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, op, http.MethodPost)
		return
	}

	sub, err := parseSubmission(w, r, h.maxPartBytes)
	if err != nil {
		h.rejectUpload(w, r, err)
		return
	}

	text, err := h.deps.Probe(r.Context(), augment.Request{
		Sport:    sub.Sport,
		Metric:   sub.ReportedMetric,
		Duration: sub.DurationSeconds,
		Frame:    sub.Frame,
	})
	switch {
	case errors.Is(err, augment.ErrNotConfigured):
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: augment.ErrNotConfigured.Error(), Code: "not_configured"})
	case err != nil:
		logger.Get().Warn(r.Context(), "augmentation probe failed", logger.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: "augmentation_failed"})
	default:
		writeJSON(w, http.StatusOK, feedbackResponse{Feedback: text})
	}
}

func (h *AnalyzeHandler) rejectUpload(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrPartTooLarge) {
		metrics.RecordRejectedRequest("too_large")
		logger.Get().Warn(r.Context(), "upload rejected", logger.Error(err))
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", err)
		return
	}
	metrics.RecordRejectedRequest("malformed")
	logger.Get().Warn(r.Context(), "malformed upload", logger.Error(err))
	writeError(w, http.StatusBadRequest, "bad_request", err)
}
