package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoutingTier selects how much LLM effort an evaluation receives. It is the
// only wire-format enum the core defines: the pre-filter produces it, the
// deliberation engine consumes it for model and token selection.
type RoutingTier string

const (
	TierStandard        RoutingTier = "standard"
	TierFocused         RoutingTier = "focused"
	TierDeep            RoutingTier = "deep"
	TierDeepWithContext RoutingTier = "deep_with_context"
)

func ValidRoutingTier(t string) bool {
	switch RoutingTier(t) {
	case TierStandard, TierFocused, TierDeep, TierDeepWithContext:
		return true
	}
	return false
}

// Deep returns true for the tiers that get the stronger model and the
// doubled token budget.
func (t RoutingTier) Deep() bool {
	return t == TierDeep || t == TierDeepWithContext
}

type AlignmentStatus string

const (
	AlignmentAligned    AlignmentStatus = "aligned"
	AlignmentDrifting   AlignmentStatus = "drifting"
	AlignmentMisaligned AlignmentStatus = "misaligned"
)

func ValidAlignmentStatus(s string) bool {
	switch AlignmentStatus(s) {
	case AlignmentAligned, AlignmentDrifting, AlignmentMisaligned:
		return true
	}
	return false
}

type Phronesis string

const (
	PhronesisEstablished  Phronesis = "established"
	PhronesisDeveloping   Phronesis = "developing"
	PhronesisUndetermined Phronesis = "undetermined"
)

type TrustLevel string

const (
	TrustTrustworthy   TrustLevel = "trustworthy"
	TrustMixed         TrustLevel = "mixed"
	TrustUntrustworthy TrustLevel = "untrustworthy"
)

func ValidTrustLevel(t string) bool {
	switch TrustLevel(t) {
	case TrustTrustworthy, TrustMixed, TrustUntrustworthy:
		return true
	}
	return false
}

// Direction tags the review context of the evaluated message.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionThread   Direction = "a2a_conversation"
)

func ValidDirection(d string) bool {
	switch Direction(d) {
	case DirectionInbound, DirectionOutbound, DirectionThread:
		return true
	}
	return false
}

// TraitScore is one trait's score within a single evaluation. Created once
// by the score aggregator and immutable thereafter.
type TraitScore struct {
	Name      Trait     `json:"name"`
	Dimension Dimension `json:"dimension"`
	Polarity  Polarity  `json:"polarity"`
	Score     float64   `json:"score"`
}

// DetectedIndicator is one evidence-backed behavioral marker found by the
// detect_indicators capability.
type DetectedIndicator struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	Trait      Trait   `json:"trait"`
	Confidence float64 `json:"confidence"`
	Severity   float64 `json:"severity,omitempty"`
	Evidence   string  `json:"evidence"`
}

// Claim is one (claim, type) pair from the intent classification.
type Claim struct {
	Claim string `json:"claim"`
	Type  string `json:"type"`
}

// IntentClassification is the identify_intent capability's output. Used by
// the aggregator only as contextual evidence; it never overrides scores.
type IntentClassification struct {
	RhetoricalMode    string  `json:"rhetorical_mode"`
	PrimaryIntent     string  `json:"primary_intent"`
	ActionRequested   string  `json:"action_requested"`
	CostToReader      string  `json:"cost_to_reader"`
	StakesReality     string  `json:"stakes_reality"`
	Proportionality   string  `json:"proportionality"`
	PersonaType       string  `json:"persona_type"`
	RelationalQuality string  `json:"relational_quality"`
	Claims            []Claim `json:"claims"`
}

// InstinctResult is the lexical pre-filter's output: a heuristic signal,
// never authoritative.
type InstinctResult struct {
	TotalFlags    int           `json:"total_flags"`
	FlaggedTraits map[Trait]int `json:"flagged_traits"`
	Density       float64       `json:"density"`
	RoutingTier   RoutingTier   `json:"routing_tier"`
}

// EvaluationResult is one message's complete scoring record. Dimension
// scores are always derived from the trait vector by the aggregator, never
// set independently. Immutable once persisted; re-scoring writes a new
// record.
type EvaluationResult struct {
	ID              uuid.UUID             `json:"evaluation_id"`
	AgentID         string                `json:"agent_id"`
	Ethos           float64               `json:"ethos"`
	Logos           float64               `json:"logos"`
	Pathos          float64               `json:"pathos"`
	AlignmentStatus AlignmentStatus       `json:"alignment_status"`
	Phronesis       Phronesis             `json:"phronesis"`
	PhronesisScore  float64               `json:"phronesis_score"`
	OverallTrust    TrustLevel            `json:"overall_trust"`
	Confidence      float64               `json:"confidence"`
	RoutingTier     RoutingTier           `json:"routing_tier"`
	KeywordDensity  float64               `json:"keyword_density"`
	Direction       Direction             `json:"direction,omitempty"`
	Traits          map[Trait]TraitScore  `json:"traits"`
	Indicators      []DetectedIndicator   `json:"detected_indicators"`
	Intent          *IntentClassification `json:"intent_classification,omitempty"`
	Reasoning       string                `json:"reasoning"`
	Flags           []string              `json:"flags"`
	ModelUsed       string                `json:"model_used,omitempty"`
	MessageHash     string                `json:"message_hash,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// TraitScoreValue returns the named trait's score, or 0 when the trait was
// not scored. Callers that must distinguish "absent" from "scored zero"
// should check Traits directly.
func (e *EvaluationResult) TraitScoreValue(t Trait) float64 {
	if ts, ok := e.Traits[t]; ok {
		return ts.Score
	}
	return 0
}

// AgentAggregate is the per-agent rollup, recomputed from full history on
// every store. A derived view, never independently authored.
type AgentAggregate struct {
	AgentID           string            `json:"agent_id"`
	EvaluationCount   int               `json:"evaluation_count"`
	DimensionAverages map[string]float64 `json:"dimension_averages"`
	TraitAverages     map[Trait]float64 `json:"trait_averages"`
	PhronesisScore    float64           `json:"phronesis_score"`
	BalanceScore      float64           `json:"balance_score"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// EvaluationHistoryItem is the slim per-evaluation row used by trend and
// pattern analysis over accumulated records.
type EvaluationHistoryItem struct {
	ID              uuid.UUID       `json:"evaluation_id"`
	Ethos           float64         `json:"ethos"`
	Logos           float64         `json:"logos"`
	Pathos          float64         `json:"pathos"`
	AlignmentStatus AlignmentStatus `json:"alignment_status"`
	Phronesis       Phronesis       `json:"phronesis"`
	PhronesisScore  float64         `json:"phronesis_score"`
	Flags           []string        `json:"flags"`
	CreatedAt       time.Time       `json:"created_at"`
}
