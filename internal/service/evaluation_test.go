package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/instinct"
	"github.com/ethoslabs/ethos/internal/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestEvaluationService(mock *llm.MockClient, evalStore *mockEvaluationStore, agentStore *mockAgentStore) *EvaluationService {
	engine := NewDeliberationEngine(mock, DeliberationConfig{
		StandardModel: "model-standard",
		DeepModel:     "model-deep",
	}, zap.NewNop())
	return NewEvaluationService(
		engine,
		instinct.NewScanner(instinct.DefaultThresholds),
		evalStore,
		agentStore,
		&mockEmbeddingClient{Embedding: []float32{0.1, 0.2}},
		0,
		zap.NewNop(),
	)
}

func TestEvaluateHappyPath(t *testing.T) {
	evalStore := &mockEvaluationStore{
		Averages:      map[domain.Trait]float64{domain.TraitVirtue: 0.8},
		AveragesCount: 1,
	}
	agentStore := &mockAgentStore{}
	svc := newTestEvaluationService(llm.NewMockClient(), evalStore, agentStore)

	result, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{
		AgentID: "agent-1",
		Message: "The deployment completed. Two tests remain flaky; details attached.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mock scores: positives 0.8, negatives 0.1 -> each dimension 0.85.
	if result.Ethos != 0.85 || result.Logos != 0.85 || result.Pathos != 0.85 {
		t.Errorf("unexpected dimensions: %f/%f/%f", result.Ethos, result.Logos, result.Pathos)
	}
	if result.AlignmentStatus != domain.AlignmentAligned {
		t.Errorf("expected aligned, got %s", result.AlignmentStatus)
	}
	if result.Phronesis != domain.PhronesisEstablished {
		t.Errorf("expected established, got %s", result.Phronesis)
	}
	if result.RoutingTier != domain.TierStandard {
		t.Errorf("clean text should route standard, got %s", result.RoutingTier)
	}
	if len(result.Traits) != len(domain.AllTraits) {
		t.Errorf("expected full trait map, got %d entries", len(result.Traits))
	}
	if result.ID == uuid.Nil || result.CreatedAt.IsZero() {
		t.Error("result must carry id and timestamp")
	}

	if len(evalStore.Created) != 1 {
		t.Fatalf("expected one stored evaluation, got %d", len(evalStore.Created))
	}
	if len(evalStore.Embeddings) != 1 || evalStore.Embeddings[0] == nil {
		t.Error("embedding should be stored alongside the evaluation")
	}
	if len(agentStore.Upserted) != 1 || agentStore.Upserted[0].ExternalID != "agent-1" {
		t.Error("agent row should be upserted")
	}
	if len(agentStore.UpsertedAggs) != 1 {
		t.Error("aggregate should be refreshed after storing")
	}
}

func TestEvaluateValidation(t *testing.T) {
	svc := newTestEvaluationService(llm.NewMockClient(), &mockEvaluationStore{}, &mockAgentStore{})

	if _, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{AgentID: "a"}); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("expected ErrMessageEmpty, got %v", err)
	}
	if _, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{Message: "m"}); !errors.Is(err, ErrAgentIDMissing) {
		t.Errorf("expected ErrAgentIDMissing, got %v", err)
	}
	if _, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{
		AgentID: "a", Message: "m", Direction: "sideways",
	}); err == nil {
		t.Error("invalid direction must be rejected")
	}
}

func TestEvaluateDuplicateSuppression(t *testing.T) {
	mock := llm.NewMockClient()
	evalStore := &mockEvaluationStore{ExistsResult: true}
	svc := newTestEvaluationService(mock, evalStore, &mockAgentStore{})

	_, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{
		AgentID: "a", Message: "m", MessageHash: "abc123",
	})
	if !errors.Is(err, domain.ErrDuplicateMessage) {
		t.Fatalf("expected ErrDuplicateMessage, got %v", err)
	}
	if len(mock.Calls) != 0 {
		t.Error("duplicate must be rejected before any model call")
	}
}

func TestEvaluateDuplicateCheckFailureProceeds(t *testing.T) {
	mock := llm.NewMockClient()
	evalStore := &mockEvaluationStore{ExistsErr: errors.New("db down")}
	svc := newTestEvaluationService(mock, evalStore, &mockAgentStore{})

	result, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{
		AgentID: "a", Message: "m", MessageHash: "abc123",
	})
	if err != nil || result == nil {
		t.Fatalf("a broken duplicate check must not block scoring: %v", err)
	}
	if evalStore.ExistsCalls != 1 {
		t.Error("duplicate check should still have been attempted")
	}
}

func TestEvaluateEmptyHashSkipsCheck(t *testing.T) {
	evalStore := &mockEvaluationStore{ExistsResult: true}
	svc := newTestEvaluationService(llm.NewMockClient(), evalStore, &mockAgentStore{})

	if _, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{
		AgentID: "a", Message: "m",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evalStore.ExistsCalls != 0 {
		t.Error("empty hash must skip the duplicate check")
	}
}

func TestEvaluateStoreFailureStillReturnsResult(t *testing.T) {
	evalStore := &mockEvaluationStore{CreateErr: errors.New("insert failed")}
	agentStore := &mockAgentStore{}
	svc := newTestEvaluationService(llm.NewMockClient(), evalStore, agentStore)

	result, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{
		AgentID: "a", Message: "m",
	})
	if err != nil || result == nil {
		t.Fatalf("storage failure must not fail scoring: %v", err)
	}
	if len(agentStore.UpsertedAggs) != 0 {
		t.Error("aggregate refresh should be skipped when the record was not stored")
	}
}

func TestEvaluateIncompleteDeliberation(t *testing.T) {
	mock := &llm.MockClient{Turns: []*domain.TurnResult{
		{StopReason: "end_turn", Text: "no tools"},
	}}
	svc := newTestEvaluationService(mock, &mockEvaluationStore{}, &mockAgentStore{})

	result, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{
		AgentID: "a", Message: "m",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confidence != incompleteConfidence {
		t.Errorf("expected floor confidence, got %f", result.Confidence)
	}
	if result.OverallTrust != domain.TrustMixed {
		t.Errorf("expected mixed trust on neutral substitution, got %s", result.OverallTrust)
	}
	for _, ts := range result.Traits {
		if ts.Score != neutralScore {
			t.Fatalf("expected neutral scores, got %f for %s", ts.Score, ts.Name)
		}
	}
	found := false
	for _, f := range result.Flags {
		if f == flagIncompleteDeliberation {
			found = true
		}
	}
	if !found {
		t.Errorf("expected %s flag, got %v", flagIncompleteDeliberation, result.Flags)
	}
}

func TestEvaluateLLMErrorSurfaces(t *testing.T) {
	mock := &llm.MockClient{Err: errors.New("upstream down")}
	evalStore := &mockEvaluationStore{}
	svc := newTestEvaluationService(mock, evalStore, &mockAgentStore{})

	_, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{AgentID: "a", Message: "m"})
	var evalErr *domain.EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if len(evalStore.Created) != 0 {
		t.Error("nothing should be stored on deliberation failure")
	}
}

func TestEvaluateTierOverride(t *testing.T) {
	mock := llm.NewMockClient()
	svc := newTestEvaluationService(mock, &mockEvaluationStore{}, &mockAgentStore{})

	result, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{
		AgentID: "a", Message: "clean text", TierOverride: domain.TierDeep,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.RoutingTier != domain.TierDeep {
		t.Errorf("override should win, got %s", result.RoutingTier)
	}
	if mock.Calls[0].Model != "model-deep" {
		t.Errorf("deep override must use the deep model, got %s", mock.Calls[0].Model)
	}
}

func TestEvaluateDeepWithContextPullsAggregate(t *testing.T) {
	mock := llm.NewMockClient()
	agentStore := &mockAgentStore{Aggregate: &domain.AgentAggregate{
		AgentID:         "a",
		EvaluationCount: 12,
		DimensionAverages: map[string]float64{
			"ethos": 0.8, "logos": 0.7, "pathos": 0.6,
		},
		PhronesisScore: 0.7,
		BalanceScore:   0.9,
	}}
	svc := newTestEvaluationService(mock, &mockEvaluationStore{}, agentStore)

	if _, err := svc.Evaluate(context.Background(), uuid.New(), EvaluateRequest{
		AgentID: "a", Message: "m", TierOverride: domain.TierDeepWithContext,
	}); err != nil {
		t.Fatal(err)
	}
	userTurn := mock.Calls[0].Messages[0].Text
	if !strings.Contains(userTurn, "12 prior evaluations") {
		t.Error("aggregate context missing from deep_with_context prompt")
	}
}

func TestEvaluateBatch(t *testing.T) {
	svc := newTestEvaluationService(llm.NewMockClient(), &mockEvaluationStore{}, &mockAgentStore{})

	items, err := svc.EvaluateBatch(context.Background(), uuid.New(), []EvaluateRequest{
		{AgentID: "a", Message: "first"},
		{AgentID: "a"}, // missing message
		{AgentID: "b", Message: "third"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Result == nil || items[0].Err != "" {
		t.Errorf("item 0 should succeed: %+v", items[0])
	}
	if items[1].Result != nil || items[1].Err == "" {
		t.Errorf("item 1 should fail validation: %+v", items[1])
	}
	if items[2].Result == nil {
		t.Errorf("item 2 should succeed: %+v", items[2])
	}

	if _, err := svc.EvaluateBatch(context.Background(), uuid.New(), nil); err == nil {
		t.Error("empty batch must be rejected")
	}
	big := make([]EvaluateRequest, MaxBatchSize+1)
	for i := range big {
		big[i] = EvaluateRequest{AgentID: "a", Message: "m"}
	}
	if _, err := svc.EvaluateBatch(context.Background(), uuid.New(), big); err == nil {
		t.Error("oversized batch must be rejected")
	}
}
