package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// EvaluationStore persists immutable scoring records. Traits, indicators,
// and intent live as jsonb; the message embedding as a pgvector column for
// similarity search.
type EvaluationStore struct {
	db *pgxpool.Pool
}

func NewEvaluationStore(db *pgxpool.Pool) *EvaluationStore {
	return &EvaluationStore{db: db}
}

const evaluationColumns = `id, agent_id, ethos, logos, pathos, alignment_status, phronesis, phronesis_score,
	 overall_trust, confidence, routing_tier, keyword_density, direction, traits, indicators, intent,
	 reasoning, flags, model_used, message_hash, created_at`

func (s *EvaluationStore) Create(ctx context.Context, tenantID uuid.UUID, e *domain.EvaluationResult, embedding []float32) error {
	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	var direction *string
	if e.Direction != "" {
		d := string(e.Direction)
		direction = &d
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO evaluations
		 (id, tenant_id, agent_id, ethos, logos, pathos, alignment_status, phronesis, phronesis_score,
		  overall_trust, confidence, routing_tier, keyword_density, direction, traits, indicators, intent,
		  reasoning, flags, model_used, message_hash, embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		e.ID, tenantID, e.AgentID, e.Ethos, e.Logos, e.Pathos, e.AlignmentStatus, e.Phronesis, e.PhronesisScore,
		e.OverallTrust, e.Confidence, e.RoutingTier, e.KeywordDensity, direction, e.Traits, e.Indicators, e.Intent,
		e.Reasoning, e.Flags, e.ModelUsed, nullableString(e.MessageHash), vec, e.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

func (s *EvaluationStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.EvaluationResult, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+evaluationColumns+`
		 FROM evaluations WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	e, err := scanEvaluation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EvaluationStore) ExistsByMessageHash(ctx context.Context, agentID, hash string, tenantID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM evaluations
		   WHERE agent_id = $1 AND message_hash = $2 AND tenant_id = $3
		 )`,
		agentID, hash, tenantID,
	).Scan(&exists)
	return exists, err
}

func (s *EvaluationStore) ListByAgent(ctx context.Context, agentID string, tenantID uuid.UUID, limit int) ([]domain.EvaluationHistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, ethos, logos, pathos, alignment_status, phronesis, phronesis_score, flags, created_at
		 FROM evaluations
		 WHERE agent_id = $1 AND tenant_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		agentID, tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	var items []domain.EvaluationHistoryItem
	for rows.Next() {
		var it domain.EvaluationHistoryItem
		if err := rows.Scan(&it.ID, &it.Ethos, &it.Logos, &it.Pathos,
			&it.AlignmentStatus, &it.Phronesis, &it.PhronesisScore, &it.Flags, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *EvaluationStore) CountByAgent(ctx context.Context, agentID string, tenantID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM evaluations WHERE agent_id = $1 AND tenant_id = $2`,
		agentID, tenantID,
	).Scan(&count)
	return count, err
}

// AverageTraits unpacks the traits jsonb and averages each trait's score
// across the agent's history.
func (s *EvaluationStore) AverageTraits(ctx context.Context, agentID string, tenantID uuid.UUID) (map[domain.Trait]float64, int, error) {
	count, err := s.CountByAgent(ctx, agentID, tenantID)
	if err != nil {
		return nil, 0, err
	}
	if count == 0 {
		return map[domain.Trait]float64{}, 0, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT t.key, AVG((t.value->>'score')::float8)
		 FROM evaluations e, jsonb_each(e.traits) AS t
		 WHERE e.agent_id = $1 AND e.tenant_id = $2
		 GROUP BY t.key`,
		agentID, tenantID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("average traits: %w", err)
	}
	defer rows.Close()

	averages := make(map[domain.Trait]float64)
	for rows.Next() {
		var name string
		var avg float64
		if err := rows.Scan(&name, &avg); err != nil {
			return nil, 0, fmt.Errorf("scan trait average: %w", err)
		}
		if domain.ValidTrait(name) {
			averages[domain.Trait(name)] = avg
		}
	}
	return averages, count, rows.Err()
}

func (s *EvaluationStore) Search(ctx context.Context, tenantID uuid.UUID, opts domain.SearchOpts) ([]domain.EvaluationResult, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{tenantID}

	if opts.AgentID != "" {
		conditions = append(conditions, fmt.Sprintf("agent_id = $%d", len(args)+1))
		args = append(args, opts.AgentID)
	}
	if opts.AlignmentStatus != "" {
		conditions = append(conditions, fmt.Sprintf("alignment_status = $%d", len(args)+1))
		args = append(args, string(opts.AlignmentStatus))
	}
	if opts.Direction != "" {
		conditions = append(conditions, fmt.Sprintf("direction = $%d", len(args)+1))
		args = append(args, string(opts.Direction))
	}
	if !opts.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)+1))
		args = append(args, opts.Since)
	}
	if !opts.Until.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)+1))
		args = append(args, opts.Until)
	}

	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	limitParam := len(args) + 1
	args = append(args, limit)
	offsetParam := len(args) + 1
	args = append(args, opts.Offset)

	query := fmt.Sprintf(
		`SELECT `+evaluationColumns+`
		 FROM evaluations
		 WHERE %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), limitParam, offsetParam,
	)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search evaluations: %w", err)
	}
	defer rows.Close()

	var results []domain.EvaluationResult
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation row: %w", err)
		}
		results = append(results, *e)
	}
	return results, rows.Err()
}

func (s *EvaluationStore) FindSimilar(ctx context.Context, tenantID uuid.UUID, embedding []float32, limit int) ([]domain.EvaluationWithScore, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT `+evaluationColumns+`,
		        1 - (embedding <=> $1) AS score
		 FROM evaluations
		 WHERE tenant_id = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $3`,
		vec, tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("similar evaluations: %w", err)
	}
	defer rows.Close()

	var results []domain.EvaluationWithScore
	for rows.Next() {
		var ws domain.EvaluationWithScore
		var direction *string
		var hash *string
		if err := rows.Scan(
			&ws.ID, &ws.AgentID, &ws.Ethos, &ws.Logos, &ws.Pathos, &ws.AlignmentStatus, &ws.Phronesis, &ws.PhronesisScore,
			&ws.OverallTrust, &ws.Confidence, &ws.RoutingTier, &ws.KeywordDensity, &direction, &ws.Traits, &ws.Indicators, &ws.Intent,
			&ws.Reasoning, &ws.Flags, &ws.ModelUsed, &hash, &ws.CreatedAt,
			&ws.Score,
		); err != nil {
			return nil, fmt.Errorf("scan similar row: %w", err)
		}
		if direction != nil {
			ws.Direction = domain.Direction(*direction)
		}
		if hash != nil {
			ws.MessageHash = *hash
		}
		results = append(results, ws)
	}
	return results, rows.Err()
}

// IndicatorStats unnests the stored indicator arrays and rolls up per-id
// occurrence counts with first and last sighting.
func (s *EvaluationStore) IndicatorStats(ctx context.Context, agentID string, tenantID uuid.UUID) (map[string]domain.IndicatorStats, error) {
	rows, err := s.db.Query(ctx,
		`SELECT ind->>'id', COUNT(*), MIN(e.created_at), MAX(e.created_at)
		 FROM evaluations e, jsonb_array_elements(e.indicators) AS ind
		 WHERE e.agent_id = $1 AND e.tenant_id = $2
		 GROUP BY ind->>'id'`,
		agentID, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("indicator stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]domain.IndicatorStats)
	for rows.Next() {
		var id string
		var st domain.IndicatorStats
		var first, last time.Time
		if err := rows.Scan(&id, &st.OccurrenceCount, &first, &last); err != nil {
			return nil, fmt.Errorf("scan indicator stats: %w", err)
		}
		st.FirstSeen = first
		st.LastSeen = last
		stats[id] = st
	}
	return stats, rows.Err()
}

func scanEvaluation(row pgx.Row) (*domain.EvaluationResult, error) {
	e := &domain.EvaluationResult{}
	var direction *string
	var hash *string
	if err := row.Scan(
		&e.ID, &e.AgentID, &e.Ethos, &e.Logos, &e.Pathos, &e.AlignmentStatus, &e.Phronesis, &e.PhronesisScore,
		&e.OverallTrust, &e.Confidence, &e.RoutingTier, &e.KeywordDensity, &direction, &e.Traits, &e.Indicators, &e.Intent,
		&e.Reasoning, &e.Flags, &e.ModelUsed, &hash, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	if direction != nil {
		e.Direction = domain.Direction(*direction)
	}
	if hash != nil {
		e.MessageHash = *hash
	}
	return e, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
