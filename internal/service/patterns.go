package service

import (
	"context"
	"time"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MinEvaluationsForPatterns is the history floor below which pattern
// matching stays silent. Too little history makes every match noise.
const MinEvaluationsForPatterns = 5

// PatternService matches an agent's accumulated indicator history against
// the pattern catalog. Matches are recomputed on every call; the store only
// keeps an audit trail.
type PatternService struct {
	evalStore    domain.EvaluationStore
	patternStore domain.PatternStore
	logger       *zap.Logger
}

func NewPatternService(evalStore domain.EvaluationStore, patternStore domain.PatternStore, logger *zap.Logger) *PatternService {
	return &PatternService{evalStore: evalStore, patternStore: patternStore, logger: logger}
}

// Detect returns every catalog pattern with at least one matched indicator.
// Store failures yield an empty result, never an error: pattern detection
// is advisory and must not take the read path down with it.
func (s *PatternService) Detect(ctx context.Context, tenantID uuid.UUID, agentID string) (*domain.PatternResult, error) {
	result := &domain.PatternResult{
		AgentID:   agentID,
		Patterns:  []domain.DetectedPattern{},
		CheckedAt: time.Now().UTC(),
	}

	count, err := s.evalStore.CountByAgent(ctx, agentID, tenantID)
	if err != nil {
		s.logger.Warn("pattern check degraded, store unreachable",
			zap.String("agent_id", agentID), zap.Error(err))
		return result, nil
	}
	if count < MinEvaluationsForPatterns {
		return result, nil
	}

	stats, err := s.evalStore.IndicatorStats(ctx, agentID, tenantID)
	if err != nil {
		s.logger.Warn("indicator stats unavailable",
			zap.String("agent_id", agentID), zap.Error(err))
		return result, nil
	}

	for _, p := range domain.PatternCatalog {
		if match, ok := matchPattern(p, stats); ok {
			result.Patterns = append(result.Patterns, match)
			s.recordMatch(tenantID, agentID, match)
		}
	}
	return result, nil
}

// matchPattern computes one pattern's match against indicator stats.
// Confidence is the matched fraction of required indicators; zero-match
// patterns are not reported.
func matchPattern(p domain.Pattern, stats map[string]domain.IndicatorStats) (domain.DetectedPattern, bool) {
	var (
		matched    []string
		occurrence int
		first      time.Time
		last       time.Time
	)
	for _, id := range p.IndicatorIDs {
		st, ok := stats[id]
		if !ok || st.OccurrenceCount == 0 {
			continue
		}
		matched = append(matched, id)
		occurrence += st.OccurrenceCount
		if first.IsZero() || st.FirstSeen.Before(first) {
			first = st.FirstSeen
		}
		if st.LastSeen.After(last) {
			last = st.LastSeen
		}
	}
	if len(matched) == 0 {
		return domain.DetectedPattern{}, false
	}
	return domain.DetectedPattern{
		PatternID:         p.ID,
		Name:              p.Name,
		Description:       p.Description,
		MatchedIndicators: matched,
		Confidence:        round4(float64(len(matched)) / float64(len(p.IndicatorIDs))),
		CurrentStage:      len(matched),
		OccurrenceCount:   occurrence,
		FirstSeen:         first,
		LastSeen:          last,
	}, true
}

// recordMatch appends the audit row without blocking the response.
func (s *PatternService) recordMatch(tenantID uuid.UUID, agentID string, match domain.DetectedPattern) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.patternStore.RecordMatch(ctx, tenantID, agentID, &match); err != nil {
			s.logger.Warn("failed to record pattern match",
				zap.String("agent_id", agentID),
				zap.String("pattern_id", match.PatternID),
				zap.Error(err))
		}
	}()
}
