package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethoslabs/ethos/internal/domain"
)

// MockClient is a configurable client for testing. Queue turn results to
// script a multi-turn deliberation; every request is recorded for
// assertions.
type MockClient struct {
	// Turns are returned in order; when exhausted the last one repeats.
	Turns []*domain.TurnResult
	Err   error

	// Call tracking for assertions
	Calls []domain.TurnRequest
}

// NewMockClient returns a mock scripted with a single well-formed turn that
// calls all three deliberation tools with benign values.
func NewMockClient() *MockClient {
	return &MockClient{
		Turns: []*domain.TurnResult{DefaultDeliberationTurn()},
	}
}

// DefaultDeliberationTurn builds one assistant turn carrying all three tool
// calls with neutral, schema-valid inputs.
func DefaultDeliberationTurn() *domain.TurnResult {
	intent, _ := json.Marshal(map[string]any{
		"rhetorical_mode":    "informing",
		"primary_intent":     "share a status update",
		"action_requested":   "none",
		"cost_to_reader":     "attention",
		"stakes_reality":     "matched",
		"proportionality":    "proportional",
		"persona_type":       "peer",
		"relational_quality": "respectful",
		"claims":             []any{},
	})
	indicators, _ := json.Marshal(map[string]any{
		"indicators": []any{},
	})
	scores := map[string]any{
		"overall_trust": "trustworthy",
		"confidence":    0.9,
		"reasoning":     "Mock reasoning",
	}
	for _, t := range domain.AllTraits {
		if t.Polarity() == domain.PolarityPositive {
			scores[string(t)] = 0.8
		} else {
			scores[string(t)] = 0.1
		}
	}
	scoreInput, _ := json.Marshal(scores)

	return &domain.TurnResult{
		StopReason: "tool_use",
		Model:      "mock-model",
		ToolCalls: []domain.ToolCall{
			{ID: "tc-intent", Name: ToolIdentifyIntent, Input: intent},
			{ID: "tc-indicators", Name: ToolDetectIndicators, Input: indicators},
			{ID: "tc-scores", Name: ToolScoreTraits, Input: scoreInput},
		},
	}
}

func (c *MockClient) RunTurn(ctx context.Context, req domain.TurnRequest) (*domain.TurnResult, error) {
	c.Calls = append(c.Calls, req)
	if c.Err != nil {
		return nil, c.Err
	}
	if len(c.Turns) == 0 {
		return nil, fmt.Errorf("mock client has no scripted turns")
	}
	idx := len(c.Calls) - 1
	if idx >= len(c.Turns) {
		idx = len(c.Turns) - 1
	}
	return c.Turns[idx], nil
}

// Reset clears recorded calls and restores the default scripted turn.
func (c *MockClient) Reset() {
	c.Turns = []*domain.TurnResult{DefaultDeliberationTurn()}
	c.Err = nil
	c.Calls = nil
}
