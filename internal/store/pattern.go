package store

import (
	"context"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PatternStore is the append-only audit trail for detected sabotage
// patterns. Reads go through recomputation, never through this table.
type PatternStore struct {
	db *pgxpool.Pool
}

func NewPatternStore(db *pgxpool.Pool) *PatternStore {
	return &PatternStore{db: db}
}

func (s *PatternStore) RecordMatch(ctx context.Context, tenantID uuid.UUID, agentID string, p *domain.DetectedPattern) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO pattern_matches
		 (tenant_id, agent_id, pattern_id, matched_indicators, confidence, current_stage, occurrence_count, first_seen, last_seen)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tenantID, agentID, p.PatternID, p.MatchedIndicators, p.Confidence,
		p.CurrentStage, p.OccurrenceCount, p.FirstSeen, p.LastSeen,
	)
	return err
}
