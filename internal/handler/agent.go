package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eluia/eluia-api/internal/middleware"
	"github.com/eluia/eluia-api/internal/model"
	"github.com/eluia/eluia-api/internal/service"
	"github.com/eluia/eluia-api/pkg/logger"
)

// AgentHandler handles persona configuration for the candidate dashboard.
type AgentHandler struct {
	tenants *service.TenantService
	logger  *logger.Logger
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(tenants *service.TenantService, log *logger.Logger) *AgentHandler {
	return &AgentHandler{tenants: tenants, logger: log}
}

// Get handles GET /api/agent/config
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenants.Get(r.Context(), middleware.GetTenantID(r.Context()))
	if err != nil {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, tenant.Persona)
}

// Update handles PUT /api/agent/config
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AgentName != nil {
		if err := middleware.ValidateName(*req.AgentName); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Tone != nil {
		switch *req.Tone {
		case model.ToneFormal, model.ToneAccessible:
		default:
			writeError(w, http.StatusBadRequest, "invalid tone")
			return
		}
	}
	if req.ResponseLength != nil {
		switch *req.ResponseLength {
		case model.LengthConcise, model.LengthDetailed:
		default:
			writeError(w, http.StatusBadRequest, "invalid response length")
			return
		}
	}

	tenant, err := h.tenants.UpdatePersona(r.Context(), middleware.GetTenantID(r.Context()), &req)
	if err != nil {
		writeError(w, http.StatusNotFound, "tenant not found")
		return
	}

	writeJSON(w, http.StatusOK, tenant.Persona)
}
