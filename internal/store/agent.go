package store

import (
	"context"
	"errors"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AgentStore struct {
	db *pgxpool.Pool
}

func NewAgentStore(db *pgxpool.Pool) *AgentStore {
	return &AgentStore{db: db}
}

// Upsert creates the agent row on first evaluation and refreshes
// last_evaluated_at on every subsequent one.
func (s *AgentStore) Upsert(ctx context.Context, a *domain.Agent) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO agents (tenant_id, external_id, name, metadata, last_evaluated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (tenant_id, external_id) DO UPDATE
		 SET last_evaluated_at = EXCLUDED.last_evaluated_at,
		     updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		a.TenantID, a.ExternalID, a.Name, a.Metadata, a.LastEvaluatedAt,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (s *AgentStore) GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*domain.Agent, error) {
	a := &domain.Agent{}
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, external_id, name, metadata, last_evaluated_at, created_at, updated_at
		 FROM agents WHERE external_id = $1 AND tenant_id = $2`,
		externalID, tenantID,
	).Scan(&a.ID, &a.TenantID, &a.ExternalID, &a.Name, &a.Metadata, &a.LastEvaluatedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *AgentStore) UpsertAggregate(ctx context.Context, tenantID uuid.UUID, agg *domain.AgentAggregate) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO agent_aggregates
		 (tenant_id, agent_id, evaluation_count, dimension_averages, trait_averages, phronesis_score, balance_score, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (tenant_id, agent_id) DO UPDATE
		 SET evaluation_count = EXCLUDED.evaluation_count,
		     dimension_averages = EXCLUDED.dimension_averages,
		     trait_averages = EXCLUDED.trait_averages,
		     phronesis_score = EXCLUDED.phronesis_score,
		     balance_score = EXCLUDED.balance_score,
		     updated_at = EXCLUDED.updated_at`,
		tenantID, agg.AgentID, agg.EvaluationCount, agg.DimensionAverages,
		agg.TraitAverages, agg.PhronesisScore, agg.BalanceScore, agg.UpdatedAt,
	)
	return err
}

func (s *AgentStore) GetAggregate(ctx context.Context, agentID string, tenantID uuid.UUID) (*domain.AgentAggregate, error) {
	agg := &domain.AgentAggregate{}
	err := s.db.QueryRow(ctx,
		`SELECT agent_id, evaluation_count, dimension_averages, trait_averages, phronesis_score, balance_score, updated_at
		 FROM agent_aggregates WHERE agent_id = $1 AND tenant_id = $2`,
		agentID, tenantID,
	).Scan(&agg.AgentID, &agg.EvaluationCount, &agg.DimensionAverages,
		&agg.TraitAverages, &agg.PhronesisScore, &agg.BalanceScore, &agg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return agg, nil
}
