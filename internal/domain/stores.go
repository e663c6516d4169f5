package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*Tenant, error)
}

type AgentStore interface {
	// Upsert creates the agent row on first sight and bumps last_evaluated_at
	// on subsequent calls.
	Upsert(ctx context.Context, a *Agent) error
	GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*Agent, error)
	UpsertAggregate(ctx context.Context, tenantID uuid.UUID, agg *AgentAggregate) error
	GetAggregate(ctx context.Context, agentID string, tenantID uuid.UUID) (*AgentAggregate, error)
}

// SearchOpts filters stored evaluations. Zero values mean "no filter".
type SearchOpts struct {
	AgentID         string
	AlignmentStatus AlignmentStatus
	Direction       Direction
	Since           time.Time
	Until           time.Time
	Limit           int
	Offset          int
}

// EvaluationWithScore pairs an evaluation with its embedding similarity.
type EvaluationWithScore struct {
	EvaluationResult
	Score float32 `json:"score"`
}

type EvaluationStore interface {
	// Create persists one immutable evaluation record. The embedding is
	// optional; without it the record is excluded from similarity search.
	Create(ctx context.Context, tenantID uuid.UUID, e *EvaluationResult, embedding []float32) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*EvaluationResult, error)
	// ExistsByMessageHash reports whether the agent already has a stored
	// evaluation with this message hash.
	ExistsByMessageHash(ctx context.Context, agentID, hash string, tenantID uuid.UUID) (bool, error)
	// ListByAgent returns slim history rows ordered newest first.
	ListByAgent(ctx context.Context, agentID string, tenantID uuid.UUID, limit int) ([]EvaluationHistoryItem, error)
	CountByAgent(ctx context.Context, agentID string, tenantID uuid.UUID) (int, error)
	// AverageTraits returns per-trait means across the agent's stored
	// evaluations, plus the evaluation count.
	AverageTraits(ctx context.Context, agentID string, tenantID uuid.UUID) (map[Trait]float64, int, error)
	Search(ctx context.Context, tenantID uuid.UUID, opts SearchOpts) ([]EvaluationResult, error)
	FindSimilar(ctx context.Context, tenantID uuid.UUID, embedding []float32, limit int) ([]EvaluationWithScore, error)
	// IndicatorStats rolls up per-indicator occurrence counts and first/last
	// seen timestamps across the agent's stored evaluations.
	IndicatorStats(ctx context.Context, agentID string, tenantID uuid.UUID) (map[string]IndicatorStats, error)
}

type PatternStore interface {
	// RecordMatch appends an audit row for a detected pattern. Matches are
	// recomputed from indicator history; the audit trail is write-only.
	RecordMatch(ctx context.Context, tenantID uuid.UUID, agentID string, p *DetectedPattern) error
}

type AuthenticityStore interface {
	// RecordResult appends an audit row for one authenticity check.
	RecordResult(ctx context.Context, tenantID uuid.UUID, r *AuthenticityResult) error
}

// ToolSpec describes one structured-output capability offered to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is one tool_use block from an assistant turn.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult is the caller's acknowledgement of a tool call, echoed back to
// the model on the next turn.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
}

// ChatMessage is one entry in the deliberation transcript. Exactly one of
// Text, ToolCalls, or ToolResults carries the payload for a given role.
type ChatMessage struct {
	Role        string       `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// TurnRequest is one round of the deliberation loop.
type TurnRequest struct {
	Model      string
	System     string
	Messages   []ChatMessage
	Tools      []ToolSpec
	ToolChoice string
	MaxTokens  int
}

// TurnResult is the model's reply to one TurnRequest.
type TurnResult struct {
	Text       string
	ToolCalls  []ToolCall
	StopReason string
	Model      string
}

// LLMClient runs one model turn. Implementations resolve the effective API
// credential from ctx when a caller-supplied key is present.
type LLMClient interface {
	RunTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
