package store

import (
	"context"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthenticityStore is the append-only audit trail for authenticity checks.
type AuthenticityStore struct {
	db *pgxpool.Pool
}

func NewAuthenticityStore(db *pgxpool.Pool) *AuthenticityStore {
	return &AuthenticityStore{db: db}
}

func (s *AuthenticityStore) RecordResult(ctx context.Context, tenantID uuid.UUID, r *domain.AuthenticityResult) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO authenticity_results
		 (tenant_id, agent_id, temporal, burst, activity, identity, score, classification, confidence, sample_size)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tenantID, r.AgentID, r.Temporal, r.Burst, r.Activity, r.Identity,
		r.Score, r.Classification, r.Confidence, r.SampleSize,
	)
	return err
}
