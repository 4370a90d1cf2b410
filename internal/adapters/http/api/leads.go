package api

import (
	"net/http"

	"github.com/okian/pacer/internal/domain/leads"
)

// LeadsProvider lists lead records.
type LeadsProvider interface {
	Leads() []leads.Record
}

// LeadsHandler handles GET /api/leads.
type LeadsHandler struct {
	provider LeadsProvider
}

// NewLeadsHandler creates a new leads handler.
func NewLeadsHandler(provider LeadsProvider) *LeadsHandler {
	return &LeadsHandler{provider: provider}
}

type leadsResponse struct {
	Leads []leads.Record `json:"leads"`
}

// HandleListLeads returns every lead record in table order.
func (h *LeadsHandler) HandleListLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "api.list_leads", http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, leadsResponse{Leads: h.provider.Leads()})
}
