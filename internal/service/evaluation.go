package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/instinct"
	"github.com/ethoslabs/ethos/internal/llm"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var (
	ErrMessageEmpty   = errors.New("message is required")
	ErrAgentIDMissing = errors.New("agent_id is required")
)

const (
	// DefaultBatchConcurrency bounds in-flight deliberations per batch.
	DefaultBatchConcurrency = 5
	// MaxBatchSize caps one batch request.
	MaxBatchSize = 50

	// incompleteConfidence is reported when the model never returned trait
	// scores and the neutral vector was substituted.
	incompleteConfidence = 0.1
	neutralScore         = 0.5

	flagIncompleteDeliberation = "incomplete_deliberation"
)

// EvaluateRequest is one message to score.
type EvaluateRequest struct {
	AgentID      string
	Message      string
	Direction    domain.Direction
	MessageHash  string
	TierOverride domain.RoutingTier
}

// BatchItem pairs one batch entry with its outcome. Err is a message, not
// an error value, because batch responses serialize to JSON.
type BatchItem struct {
	Result *domain.EvaluationResult `json:"result,omitempty"`
	Err    string                   `json:"error,omitempty"`
}

// EvaluationService is the scoring pipeline: instinct scan, tiered
// deliberation, aggregation, then best-effort persistence. Storage failures
// degrade to an unpersisted result; only deliberation failures surface.
type EvaluationService struct {
	engine           *DeliberationEngine
	scanner          *instinct.Scanner
	evalStore        domain.EvaluationStore
	agentStore       domain.AgentStore
	embeddingClient  domain.EmbeddingClient
	batchConcurrency int64
	logger           *zap.Logger
}

func NewEvaluationService(
	engine *DeliberationEngine,
	scanner *instinct.Scanner,
	evalStore domain.EvaluationStore,
	agentStore domain.AgentStore,
	embeddingClient domain.EmbeddingClient,
	batchConcurrency int,
	logger *zap.Logger,
) *EvaluationService {
	if batchConcurrency <= 0 {
		batchConcurrency = DefaultBatchConcurrency
	}
	return &EvaluationService{
		engine:           engine,
		scanner:          scanner,
		evalStore:        evalStore,
		agentStore:       agentStore,
		embeddingClient:  embeddingClient,
		batchConcurrency: int64(batchConcurrency),
		logger:           logger,
	}
}

// Evaluate scores one message end to end.
func (s *EvaluationService) Evaluate(ctx context.Context, tenantID uuid.UUID, req EvaluateRequest) (*domain.EvaluationResult, error) {
	if req.Message == "" {
		return nil, ErrMessageEmpty
	}
	if req.AgentID == "" {
		return nil, ErrAgentIDMissing
	}
	if req.Direction != "" && !domain.ValidDirection(string(req.Direction)) {
		return nil, fmt.Errorf("invalid direction %q", req.Direction)
	}

	if req.MessageHash != "" {
		exists, err := s.evalStore.ExistsByMessageHash(ctx, req.AgentID, req.MessageHash, tenantID)
		if err != nil {
			// A broken duplicate check must not block scoring.
			s.logger.Warn("duplicate check failed, proceeding",
				zap.String("agent_id", req.AgentID), zap.Error(err))
		} else if exists {
			return nil, domain.ErrDuplicateMessage
		}
	}

	ins := s.scanner.Scan(req.Message)
	tier := ins.RoutingTier
	if req.TierOverride != "" && domain.ValidRoutingTier(string(req.TierOverride)) {
		tier = req.TierOverride
	}

	agentContext := ""
	if tier == domain.TierDeepWithContext {
		agentContext = s.agentContext(ctx, tenantID, req.AgentID)
	}

	outcome, err := s.engine.Run(ctx, tier, llm.PromptInput{
		Message:      req.Message,
		Direction:    req.Direction,
		Instinct:     &ins,
		AgentContext: agentContext,
	})
	if err != nil {
		return nil, err
	}

	result := s.assemble(req, tier, ins, outcome)
	s.persist(ctx, tenantID, req, result)
	return result, nil
}

// assemble turns a deliberation outcome into a full evaluation record. A
// run that never produced trait scores gets the neutral vector and a flag
// instead of failing: a degraded score beats no record of the attempt.
func (s *EvaluationService) assemble(req EvaluateRequest, tier domain.RoutingTier, ins domain.InstinctResult, outcome *DeliberationOutcome) *domain.EvaluationResult {
	scores := outcome.TraitScores
	trust := outcome.OverallTrust
	confidence := outcome.Confidence
	flags := append([]string{}, outcome.Flags...)

	if scores == nil {
		s.logger.Warn("deliberation incomplete, substituting neutral scores",
			zap.String("agent_id", req.AgentID))
		scores = make(map[domain.Trait]float64, len(domain.AllTraits))
		for _, t := range domain.AllTraits {
			scores[t] = neutralScore
		}
		trust = domain.TrustMixed
		confidence = incompleteConfidence
		flags = append(flags, flagIncompleteDeliberation)
	}

	summary := ComputeScores(scores)

	traits := make(map[domain.Trait]domain.TraitScore, len(scores))
	for t, v := range scores {
		traits[t] = domain.TraitScore{
			Name:      t,
			Dimension: t.Dimension(),
			Polarity:  t.Polarity(),
			Score:     round4(v),
		}
	}

	return &domain.EvaluationResult{
		ID:              uuid.New(),
		AgentID:         req.AgentID,
		Ethos:           summary.Ethos,
		Logos:           summary.Logos,
		Pathos:          summary.Pathos,
		AlignmentStatus: summary.Alignment,
		Phronesis:       summary.Phronesis,
		PhronesisScore:  summary.PhronesisScore,
		OverallTrust:    trust,
		Confidence:      round4(confidence),
		RoutingTier:     tier,
		KeywordDensity:  ins.Density,
		Direction:       req.Direction,
		Traits:          traits,
		Indicators:      outcome.Indicators,
		Intent:          outcome.Intent,
		Reasoning:       outcome.Reasoning,
		Flags:           flags,
		ModelUsed:       outcome.ModelUsed,
		MessageHash:     req.MessageHash,
		CreatedAt:       time.Now().UTC(),
	}
}

// persist writes the record and refreshes the agent aggregate. Every step
// is best effort: a storage outage costs history, not the caller's score.
func (s *EvaluationService) persist(ctx context.Context, tenantID uuid.UUID, req EvaluateRequest, result *domain.EvaluationResult) {
	var embedding []float32
	if s.embeddingClient != nil {
		var err error
		embedding, err = s.embeddingClient.Embed(ctx, req.Message)
		if err != nil {
			s.logger.Warn("embedding failed, storing without similarity vector", zap.Error(err))
			embedding = nil
		}
	}

	if err := s.evalStore.Create(ctx, tenantID, result, embedding); err != nil {
		s.logger.Error("failed to store evaluation",
			zap.String("agent_id", result.AgentID), zap.Error(err))
		return
	}

	now := time.Now().UTC()
	if err := s.agentStore.Upsert(ctx, &domain.Agent{
		TenantID:        tenantID,
		ExternalID:      result.AgentID,
		LastEvaluatedAt: &now,
	}); err != nil {
		s.logger.Warn("failed to upsert agent", zap.String("agent_id", result.AgentID), zap.Error(err))
	}

	s.refreshAggregate(ctx, tenantID, result.AgentID)
}

// refreshAggregate recomputes the rollup from full stored history.
func (s *EvaluationService) refreshAggregate(ctx context.Context, tenantID uuid.UUID, agentID string) {
	averages, count, err := s.evalStore.AverageTraits(ctx, agentID, tenantID)
	if err != nil {
		s.logger.Warn("failed to load trait averages", zap.String("agent_id", agentID), zap.Error(err))
		return
	}
	if count == 0 {
		return
	}

	summary := ComputeScores(averages)
	agg := &domain.AgentAggregate{
		AgentID:         agentID,
		EvaluationCount: count,
		DimensionAverages: map[string]float64{
			string(domain.DimensionEthos):  summary.Ethos,
			string(domain.DimensionLogos):  summary.Logos,
			string(domain.DimensionPathos): summary.Pathos,
		},
		TraitAverages:  averages,
		PhronesisScore: summary.PhronesisScore,
		BalanceScore:   summary.BalanceScore,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := s.agentStore.UpsertAggregate(ctx, tenantID, agg); err != nil {
		s.logger.Warn("failed to upsert aggregate", zap.String("agent_id", agentID), zap.Error(err))
	}
}

// agentContext summarizes the agent's aggregate for the deep_with_context
// prompt. An unreachable store yields no context, not a failure.
func (s *EvaluationService) agentContext(ctx context.Context, tenantID uuid.UUID, agentID string) string {
	agg, err := s.agentStore.GetAggregate(ctx, agentID, tenantID)
	if err != nil {
		s.logger.Debug("no aggregate available for context", zap.String("agent_id", agentID), zap.Error(err))
		return ""
	}
	return fmt.Sprintf(
		"Across %d prior evaluations this agent averages ethos %.2f, logos %.2f, pathos %.2f (phronesis %.2f, balance %.2f).",
		agg.EvaluationCount,
		agg.DimensionAverages[string(domain.DimensionEthos)],
		agg.DimensionAverages[string(domain.DimensionLogos)],
		agg.DimensionAverages[string(domain.DimensionPathos)],
		agg.PhronesisScore,
		agg.BalanceScore,
	)
}

// EvaluateBatch scores up to MaxBatchSize messages with bounded
// concurrency. Item order is preserved; one failure never aborts the rest.
func (s *EvaluationService) EvaluateBatch(ctx context.Context, tenantID uuid.UUID, reqs []EvaluateRequest) ([]BatchItem, error) {
	if len(reqs) == 0 {
		return nil, errors.New("batch is empty")
	}
	if len(reqs) > MaxBatchSize {
		return nil, fmt.Errorf("batch exceeds %d items", MaxBatchSize)
	}

	sem := semaphore.NewWeighted(s.batchConcurrency)
	items := make([]BatchItem, len(reqs))
	var wg sync.WaitGroup

	for i, req := range reqs {
		if err := sem.Acquire(ctx, 1); err != nil {
			items[i] = BatchItem{Err: err.Error()}
			continue
		}
		wg.Add(1)
		go func(i int, req EvaluateRequest) {
			defer wg.Done()
			defer sem.Release(1)
			result, err := s.Evaluate(ctx, tenantID, req)
			if err != nil {
				items[i] = BatchItem{Err: err.Error()}
				return
			}
			items[i] = BatchItem{Result: result}
		}(i, req)
	}

	wg.Wait()
	return items, nil
}
