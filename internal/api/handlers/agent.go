package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethoslabs/ethos/internal/api/middleware"
	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/service"
	"github.com/ethoslabs/ethos/internal/store"
	"github.com/go-chi/chi/v5"
)

type AgentHandler struct {
	agentStore   domain.AgentStore
	reflection   *service.ReflectionService
	patterns     *service.PatternService
	authenticity *service.AuthenticityService
}

func NewAgentHandler(
	agentStore domain.AgentStore,
	reflection *service.ReflectionService,
	patterns *service.PatternService,
	authenticity *service.AuthenticityService,
) *AgentHandler {
	return &AgentHandler{
		agentStore:   agentStore,
		reflection:   reflection,
		patterns:     patterns,
		authenticity: authenticity,
	}
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	agentID := chi.URLParam(r, "agentID")
	agent, err := h.agentStore.GetByExternalID(r.Context(), agentID, tenant.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "agent not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get agent")
		return
	}

	writeJSON(w, http.StatusOK, agent)
}

func (h *AgentHandler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	agentID := chi.URLParam(r, "agentID")
	agg, err := h.agentStore.GetAggregate(r.Context(), agentID, tenant.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no aggregate for agent")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get aggregate")
		return
	}

	writeJSON(w, http.StatusOK, agg)
}

// Reflect optionally scores one more message first, then reports the agent's
// accumulated dimensional standing and trend. Without a text parameter the
// evaluate step is skipped.
func (h *AgentHandler) Reflect(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	agentID := chi.URLParam(r, "agentID")

	var evalReq *service.EvaluateRequest
	q := r.URL.Query()
	if text := q.Get("text"); text != "" {
		direction := q.Get("direction")
		if direction != "" && !domain.ValidDirection(direction) {
			writeError(w, http.StatusBadRequest, "invalid direction")
			return
		}
		evalReq = &service.EvaluateRequest{
			AgentID:     agentID,
			Message:     text,
			Direction:   domain.Direction(direction),
			MessageHash: q.Get("message_hash"),
		}
	}

	result, err := h.reflection.Reflect(r.Context(), tenant.ID, agentID, evalReq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reflection failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AgentHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	agentID := chi.URLParam(r, "agentID")

	result, err := h.patterns.Detect(r.Context(), tenant.ID, agentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "pattern detection failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type authenticityRequest struct {
	Timestamps []string                `json:"timestamps"`
	Profile    *domain.IdentityProfile `json:"profile"`
}

func (h *AgentHandler) Authenticity(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	agentID := chi.URLParam(r, "agentID")

	var req authenticityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.authenticity.Classify(r.Context(), tenant.ID, agentID, req.Timestamps, req.Profile)
	writeJSON(w, http.StatusOK, result)
}
