package service

import (
	"context"
	"sync"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
)

type mockEvaluationStore struct {
	CreateErr     error
	Created       []*domain.EvaluationResult
	Embeddings    [][]float32
	ExistsResult  bool
	ExistsErr     error
	ExistsCalls   int
	Averages      map[domain.Trait]float64
	AveragesCount int
	AveragesErr   error
	History       []domain.EvaluationHistoryItem
	HistoryErr    error
	Count         int
	CountErr      error
	Stats         map[string]domain.IndicatorStats
	StatsErr      error
	SearchResult  []domain.EvaluationResult
	SimilarResult []domain.EvaluationWithScore
	GetResult     *domain.EvaluationResult
	GetErr        error
}

func (m *mockEvaluationStore) Create(ctx context.Context, tenantID uuid.UUID, e *domain.EvaluationResult, embedding []float32) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = append(m.Created, e)
	m.Embeddings = append(m.Embeddings, embedding)
	return nil
}

func (m *mockEvaluationStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.EvaluationResult, error) {
	return m.GetResult, m.GetErr
}

func (m *mockEvaluationStore) ExistsByMessageHash(ctx context.Context, agentID, hash string, tenantID uuid.UUID) (bool, error) {
	m.ExistsCalls++
	return m.ExistsResult, m.ExistsErr
}

func (m *mockEvaluationStore) ListByAgent(ctx context.Context, agentID string, tenantID uuid.UUID, limit int) ([]domain.EvaluationHistoryItem, error) {
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	if limit > 0 && limit < len(m.History) {
		return m.History[:limit], nil
	}
	return m.History, nil
}

func (m *mockEvaluationStore) CountByAgent(ctx context.Context, agentID string, tenantID uuid.UUID) (int, error) {
	return m.Count, m.CountErr
}

func (m *mockEvaluationStore) AverageTraits(ctx context.Context, agentID string, tenantID uuid.UUID) (map[domain.Trait]float64, int, error) {
	return m.Averages, m.AveragesCount, m.AveragesErr
}

func (m *mockEvaluationStore) Search(ctx context.Context, tenantID uuid.UUID, opts domain.SearchOpts) ([]domain.EvaluationResult, error) {
	return m.SearchResult, nil
}

func (m *mockEvaluationStore) FindSimilar(ctx context.Context, tenantID uuid.UUID, embedding []float32, limit int) ([]domain.EvaluationWithScore, error) {
	return m.SimilarResult, nil
}

func (m *mockEvaluationStore) IndicatorStats(ctx context.Context, agentID string, tenantID uuid.UUID) (map[string]domain.IndicatorStats, error) {
	if m.StatsErr != nil {
		return nil, m.StatsErr
	}
	return m.Stats, nil
}

type mockAgentStore struct {
	UpsertErr        error
	Upserted         []*domain.Agent
	Aggregate        *domain.AgentAggregate
	AggregateErr     error
	UpsertedAggs     []*domain.AgentAggregate
	UpsertAggErr     error
	GetByExternalRes *domain.Agent
	GetByExternalErr error
}

func (m *mockAgentStore) Upsert(ctx context.Context, a *domain.Agent) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Upserted = append(m.Upserted, a)
	return nil
}

func (m *mockAgentStore) GetByExternalID(ctx context.Context, externalID string, tenantID uuid.UUID) (*domain.Agent, error) {
	return m.GetByExternalRes, m.GetByExternalErr
}

func (m *mockAgentStore) UpsertAggregate(ctx context.Context, tenantID uuid.UUID, agg *domain.AgentAggregate) error {
	if m.UpsertAggErr != nil {
		return m.UpsertAggErr
	}
	m.UpsertedAggs = append(m.UpsertedAggs, agg)
	return nil
}

func (m *mockAgentStore) GetAggregate(ctx context.Context, agentID string, tenantID uuid.UUID) (*domain.AgentAggregate, error) {
	if m.AggregateErr != nil {
		return nil, m.AggregateErr
	}
	if m.Aggregate == nil {
		return nil, domain.ErrStoreUnavailable
	}
	return m.Aggregate, nil
}

type mockEmbeddingClient struct {
	Embedding []float32
	Err       error
	Calls     []string
}

func (m *mockEmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls = append(m.Calls, text)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Embedding, nil
}

type mockPatternStore struct {
	mu        sync.Mutex
	RecordErr error
	recorded  []*domain.DetectedPattern
}

func (m *mockPatternStore) RecordMatch(ctx context.Context, tenantID uuid.UUID, agentID string, p *domain.DetectedPattern) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, p)
	return nil
}

func (m *mockPatternStore) RecordedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recorded)
}

type mockAuthenticityStore struct {
	RecordErr error
	Recorded  []*domain.AuthenticityResult
}

func (m *mockAuthenticityStore) RecordResult(ctx context.Context, tenantID uuid.UUID, r *domain.AuthenticityResult) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Recorded = append(m.Recorded, r)
	return nil
}

var _ domain.EvaluationStore = (*mockEvaluationStore)(nil)
var _ domain.AgentStore = (*mockAgentStore)(nil)
var _ domain.EmbeddingClient = (*mockEmbeddingClient)(nil)
var _ domain.PatternStore = (*mockPatternStore)(nil)
var _ domain.AuthenticityStore = (*mockAuthenticityStore)(nil)
