package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethoslabs/ethos/internal/api/middleware"
	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type EvaluationHandler struct {
	svc       *service.EvaluationService
	evalStore domain.EvaluationStore
	embedder  domain.EmbeddingClient
}

func NewEvaluationHandler(svc *service.EvaluationService, evalStore domain.EvaluationStore, embedder domain.EmbeddingClient) *EvaluationHandler {
	return &EvaluationHandler{svc: svc, evalStore: evalStore, embedder: embedder}
}

type evaluateRequest struct {
	AgentID     string `json:"agent_id"`
	Message     string `json:"message"`
	Direction   string `json:"direction"`
	MessageHash string `json:"message_hash"`
	Tier        string `json:"tier"`
}

func (r evaluateRequest) toService() service.EvaluateRequest {
	return service.EvaluateRequest{
		AgentID:      r.AgentID,
		Message:      r.Message,
		Direction:    domain.Direction(r.Direction),
		MessageHash:  r.MessageHash,
		TierOverride: domain.RoutingTier(r.Tier),
	}
}

func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Direction != "" && !domain.ValidDirection(req.Direction) {
		writeError(w, http.StatusBadRequest, "invalid direction")
		return
	}

	result, err := h.svc.Evaluate(r.Context(), tenant.ID, req.toService())
	if err != nil {
		writeEvaluateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type batchEvaluateRequest struct {
	Messages []evaluateRequest `json:"messages"`
}

type batchEvaluateResponse struct {
	Results []service.BatchItem `json:"results"`
	Count   int                 `json:"count"`
}

func (h *EvaluationHandler) EvaluateBatch(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req batchEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reqs := make([]service.EvaluateRequest, len(req.Messages))
	for i, m := range req.Messages {
		if m.Direction != "" && !domain.ValidDirection(m.Direction) {
			writeError(w, http.StatusBadRequest, "invalid direction at index "+strconv.Itoa(i))
			return
		}
		reqs[i] = m.toService()
	}

	items, err := h.svc.EvaluateBatch(r.Context(), tenant.ID, reqs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, batchEvaluateResponse{Results: items, Count: len(items)})
}

func (h *EvaluationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid evaluation id")
		return
	}

	result, err := h.evalStore.GetByID(r.Context(), id, tenant.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "evaluation not found")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type searchResponse struct {
	Evaluations []domain.EvaluationResult `json:"evaluations"`
	Count       int                       `json:"count"`
}

func (h *EvaluationHandler) Search(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	opts := domain.SearchOpts{AgentID: q.Get("agent_id")}

	if s := q.Get("alignment_status"); s != "" {
		if !domain.ValidAlignmentStatus(s) {
			writeError(w, http.StatusBadRequest, "invalid alignment_status")
			return
		}
		opts.AlignmentStatus = domain.AlignmentStatus(s)
	}
	if d := q.Get("direction"); d != "" {
		if !domain.ValidDirection(d) {
			writeError(w, http.StatusBadRequest, "invalid direction")
			return
		}
		opts.Direction = domain.Direction(d)
	}
	if s := q.Get("since"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		opts.Since = t
	}
	if s := q.Get("until"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid until timestamp")
			return
		}
		opts.Until = t
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = n
	}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		opts.Offset = n
	}

	results, err := h.evalStore.Search(r.Context(), tenant.ID, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{Evaluations: results, Count: len(results)})
}

type similarRequest struct {
	Message string `json:"message"`
	Limit   int    `json:"limit"`
}

type similarResponse struct {
	Evaluations []domain.EvaluationWithScore `json:"evaluations"`
	Count       int                          `json:"count"`
}

func (h *EvaluationHandler) FindSimilar(w http.ResponseWriter, r *http.Request) {
	tenant := middleware.TenantFromContext(r.Context())
	if tenant == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.embedder == nil {
		writeError(w, http.StatusNotImplemented, "similarity search requires an embedding provider")
		return
	}

	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	embedding, err := h.embedder.Embed(r.Context(), req.Message)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to embed query")
		return
	}

	results, err := h.evalStore.FindSimilar(r.Context(), tenant.ID, embedding, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "similarity search failed")
		return
	}

	writeJSON(w, http.StatusOK, similarResponse{Evaluations: results, Count: len(results)})
}

func writeEvaluateError(w http.ResponseWriter, err error) {
	var evalErr *domain.EvaluationError
	switch {
	case errors.Is(err, service.ErrMessageEmpty), errors.Is(err, service.ErrAgentIDMissing):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateMessage):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &evalErr):
		writeError(w, http.StatusBadGateway, domain.Redact(err.Error()))
	default:
		writeError(w, http.StatusInternalServerError, "evaluation failed")
	}
}
