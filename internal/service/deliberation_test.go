package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/llm"
	"go.uber.org/zap"
)

func testEngine(mock *llm.MockClient) *DeliberationEngine {
	return NewDeliberationEngine(mock, DeliberationConfig{
		StandardModel: "model-standard",
		DeepModel:     "model-deep",
	}, zap.NewNop())
}

func singleToolTurn(name, id string, input any) *domain.TurnResult {
	raw, _ := json.Marshal(input)
	return &domain.TurnResult{
		StopReason: "tool_use",
		ToolCalls:  []domain.ToolCall{{ID: id, Name: name, Input: raw}},
	}
}

func TestRunCollectsAllToolsInOneTurn(t *testing.T) {
	mock := llm.NewMockClient()
	engine := testEngine(mock)

	out, err := engine.Run(context.Background(), domain.TierStandard, llm.PromptInput{Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("complete first turn should end the loop, got %d calls", len(mock.Calls))
	}
	if out.Intent == nil {
		t.Error("intent missing")
	}
	if out.TraitScores == nil || len(out.TraitScores) != len(domain.AllTraits) {
		t.Fatalf("expected full trait vector, got %v", out.TraitScores)
	}
	if out.OverallTrust != domain.TrustTrustworthy {
		t.Errorf("expected trustworthy, got %s", out.OverallTrust)
	}
}

func TestRunMultiTurnCollection(t *testing.T) {
	def := llm.DefaultDeliberationTurn()
	mock := &llm.MockClient{Turns: []*domain.TurnResult{
		singleToolTurn(llm.ToolIdentifyIntent, "t1", map[string]any{"primary_intent": "x", "claims": []any{}}),
		singleToolTurn(llm.ToolDetectIndicators, "t2", map[string]any{"indicators": []any{}}),
		{StopReason: "tool_use", ToolCalls: def.ToolCalls[2:3]},
	}}
	engine := testEngine(mock)

	out, err := engine.Run(context.Background(), domain.TierStandard, llm.PromptInput{Message: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.Calls) != 3 {
		t.Errorf("expected 3 turns, got %d", len(mock.Calls))
	}
	if out.Intent == nil || out.TraitScores == nil {
		t.Error("all three tools should be collected across turns")
	}

	// Each later turn must carry the acknowledgement of the prior tool call.
	last := mock.Calls[2].Messages
	found := false
	for _, m := range last {
		for _, tr := range m.ToolResults {
			if tr.Content == toolAckMessage {
				found = true
			}
		}
	}
	if !found {
		t.Error("tool acknowledgements missing from transcript")
	}
}

func TestRunStopsOnEmptyTurn(t *testing.T) {
	mock := &llm.MockClient{Turns: []*domain.TurnResult{
		{StopReason: "end_turn", Text: "I refuse to use tools."},
	}}
	engine := testEngine(mock)

	out, err := engine.Run(context.Background(), domain.TierStandard, llm.PromptInput{Message: "hello"})
	if err != nil {
		t.Fatalf("empty turn is a degraded result, not an error: %v", err)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("loop must stop on a turn with no tool calls, got %d calls", len(mock.Calls))
	}
	if out.TraitScores != nil {
		t.Error("no scores should be present after an empty turn")
	}
}

func TestRunAPIErrorNoRetry(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("upstream 529")}
	engine := testEngine(mock)

	_, err := engine.Run(context.Background(), domain.TierDeep, llm.PromptInput{Message: "hello"})
	if err == nil {
		t.Fatal("expected error")
	}
	var evalErr *domain.EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if len(mock.Calls) != 1 {
		t.Errorf("API errors must not retry, got %d calls", len(mock.Calls))
	}
}

func TestRunNilClientReturnsError(t *testing.T) {
	engine := NewDeliberationEngine(nil, DeliberationConfig{
		StandardModel: "model-standard",
		DeepModel:     "model-deep",
	}, zap.NewNop())

	_, err := engine.Run(context.Background(), domain.TierStandard, llm.PromptInput{Message: "hello"})
	if err == nil {
		t.Fatal("a missing client must fail the run, not panic")
	}
	var evalErr *domain.EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if !errors.Is(err, domain.ErrLLMUnavailable) {
		t.Errorf("expected ErrLLMUnavailable, got %v", err)
	}
}

func TestRunTierSelectsModelAndBudget(t *testing.T) {
	mock := llm.NewMockClient()
	engine := testEngine(mock)

	if _, err := engine.Run(context.Background(), domain.TierFocused, llm.PromptInput{Message: "m"}); err != nil {
		t.Fatal(err)
	}
	if mock.Calls[0].Model != "model-standard" || mock.Calls[0].MaxTokens != DefaultStandardMaxTokens {
		t.Errorf("focused tier should use the standard model and budget, got %s/%d",
			mock.Calls[0].Model, mock.Calls[0].MaxTokens)
	}

	mock.Reset()
	if _, err := engine.Run(context.Background(), domain.TierDeepWithContext, llm.PromptInput{Message: "m"}); err != nil {
		t.Fatal(err)
	}
	if mock.Calls[0].Model != "model-deep" || mock.Calls[0].MaxTokens != DefaultDeepMaxTokens {
		t.Errorf("deep tier should use the deep model and budget, got %s/%d",
			mock.Calls[0].Model, mock.Calls[0].MaxTokens)
	}
	if mock.Calls[0].ToolChoice != "any" {
		t.Errorf("tool choice must be any, got %s", mock.Calls[0].ToolChoice)
	}
}

func TestRunFirstToolResultWins(t *testing.T) {
	first := singleToolTurn(llm.ToolIdentifyIntent, "t1", map[string]any{"primary_intent": "first", "claims": []any{}})
	second := singleToolTurn(llm.ToolIdentifyIntent, "t2", map[string]any{"primary_intent": "second", "claims": []any{}})
	second.StopReason = "end_turn"
	mock := &llm.MockClient{Turns: []*domain.TurnResult{first, second}}
	engine := testEngine(mock)

	out, err := engine.Run(context.Background(), domain.TierStandard, llm.PromptInput{Message: "m"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Intent == nil || out.Intent.PrimaryIntent != "first" {
		t.Errorf("duplicate tool results must not overwrite the first, got %+v", out.Intent)
	}
}

func TestRunDropsUnknownIndicators(t *testing.T) {
	turn := singleToolTurn(llm.ToolDetectIndicators, "t1", map[string]any{
		"indicators": []any{
			map[string]any{"id": "MAN-URGENCY", "trait": "manipulation", "confidence": 1.7, "evidence": "act now"},
			map[string]any{"id": "XXX-NOPE", "trait": "manipulation", "confidence": 0.9, "evidence": "?"},
		},
	})
	turn.StopReason = "end_turn"
	mock := &llm.MockClient{Turns: []*domain.TurnResult{turn}}
	engine := testEngine(mock)

	out, err := engine.Run(context.Background(), domain.TierStandard, llm.PromptInput{Message: "m"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Indicators) != 1 {
		t.Fatalf("unknown indicator ids must be dropped, got %v", out.Indicators)
	}
	ind := out.Indicators[0]
	if ind.ID != "MAN-URGENCY" || ind.Confidence != 1.0 {
		t.Errorf("confidence must clamp to [0,1], got %+v", ind)
	}
	if ind.Name == "" || ind.Trait != domain.TraitManipulation {
		t.Errorf("catalog name and trait should be filled in, got %+v", ind)
	}
}
