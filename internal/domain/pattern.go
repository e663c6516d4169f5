package domain

import "time"

// IndicatorStats is one agent's historical occurrence record for a single
// catalog indicator, rolled up across all stored evaluations.
type IndicatorStats struct {
	OccurrenceCount int       `json:"occurrence_count"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
}

// DetectedPattern is one pattern-catalog match against an agent's indicator
// history. Recomputed on demand; the persisted record is audit only.
type DetectedPattern struct {
	PatternID         string    `json:"pattern_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	MatchedIndicators []string  `json:"matched_indicators"`
	Confidence        float64   `json:"confidence"`
	CurrentStage      int       `json:"current_stage"`
	OccurrenceCount   int       `json:"occurrence_count"`
	FirstSeen         time.Time `json:"first_seen"`
	LastSeen          time.Time `json:"last_seen"`
}

// PatternResult is the full pattern-matching answer for one agent.
type PatternResult struct {
	AgentID   string            `json:"agent_id"`
	Patterns  []DetectedPattern `json:"patterns"`
	CheckedAt time.Time         `json:"checked_at"`
}

// TrendDirection classifies an agent's maturity trajectory over recent
// evaluation windows.
type TrendDirection string

const (
	TrendImproving        TrendDirection = "improving"
	TrendDeclining        TrendDirection = "declining"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// ReflectionResult is the per-agent historical profile plus trend.
type ReflectionResult struct {
	AgentID         string            `json:"agent_id"`
	Ethos           float64           `json:"ethos"`
	Logos           float64           `json:"logos"`
	Pathos          float64           `json:"pathos"`
	TraitAverages   map[Trait]float64 `json:"trait_averages"`
	EvaluationCount int               `json:"evaluation_count"`
	Trend           TrendDirection    `json:"trend"`
}
