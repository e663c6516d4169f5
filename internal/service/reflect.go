package service

import (
	"context"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MinEvaluationsForTrend is the history floor for trend analysis: two
	// full windows.
	MinEvaluationsForTrend = 2 * trendWindow
	trendWindow            = 5
	// trendDelta is the phronesis movement below which the trend reads
	// stable.
	trendDelta = 0.1
)

// ReflectionService produces the per-agent historical profile: dimension
// and trait averages plus the phronesis trend over recent windows.
type ReflectionService struct {
	evalStore domain.EvaluationStore
	evaluator *EvaluationService
	logger    *zap.Logger
}

func NewReflectionService(evalStore domain.EvaluationStore, evaluator *EvaluationService, logger *zap.Logger) *ReflectionService {
	return &ReflectionService{evalStore: evalStore, evaluator: evaluator, logger: logger}
}

// Reflect summarizes the agent's stored history. When evalReq is non-nil
// the message is scored first so the reflection includes it; a failed
// evaluation is logged and the reflection proceeds on existing history.
// An unreachable store degrades to insufficient_data, never an error.
func (s *ReflectionService) Reflect(ctx context.Context, tenantID uuid.UUID, agentID string, evalReq *EvaluateRequest) (*domain.ReflectionResult, error) {
	if evalReq != nil {
		if _, err := s.evaluator.Evaluate(ctx, tenantID, *evalReq); err != nil {
			s.logger.Warn("evaluate-first failed, reflecting on existing history",
				zap.String("agent_id", agentID), zap.Error(err))
		}
	}

	result := &domain.ReflectionResult{
		AgentID: agentID,
		Trend:   domain.TrendInsufficientData,
	}

	averages, count, err := s.evalStore.AverageTraits(ctx, agentID, tenantID)
	if err != nil {
		s.logger.Warn("reflection degraded, store unreachable",
			zap.String("agent_id", agentID), zap.Error(err))
		return result, nil
	}
	result.EvaluationCount = count
	if count == 0 {
		return result, nil
	}

	summary := ComputeScores(averages)
	result.Ethos = summary.Ethos
	result.Logos = summary.Logos
	result.Pathos = summary.Pathos
	result.TraitAverages = averages

	history, err := s.evalStore.ListByAgent(ctx, agentID, tenantID, MinEvaluationsForTrend)
	if err != nil {
		s.logger.Warn("trend unavailable, store unreachable",
			zap.String("agent_id", agentID), zap.Error(err))
		return result, nil
	}
	result.Trend = computeTrend(history)
	return result, nil
}

// computeTrend compares mean phronesis of the newest window against the
// window before it. History arrives newest first.
func computeTrend(history []domain.EvaluationHistoryItem) domain.TrendDirection {
	if len(history) < MinEvaluationsForTrend {
		return domain.TrendInsufficientData
	}

	recent, prior := 0.0, 0.0
	for i := 0; i < trendWindow; i++ {
		recent += history[i].PhronesisScore
		prior += history[trendWindow+i].PhronesisScore
	}
	diff := (recent - prior) / trendWindow

	switch {
	case diff > trendDelta:
		return domain.TrendImproving
	case diff < -trendDelta:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}
