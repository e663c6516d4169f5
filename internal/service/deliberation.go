package service

import (
	"context"
	"encoding/json"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/ethoslabs/ethos/internal/llm"
	"go.uber.org/zap"
)

const (
	// DefaultMaxTurns caps the deliberation loop. Three turns is enough for
	// one tool per turn; a cooperative model finishes in one.
	DefaultMaxTurns = 3
	// DefaultStandardMaxTokens is the completion budget for standard and
	// focused tiers.
	DefaultStandardMaxTokens = 2048
	// DefaultDeepMaxTokens is the completion budget for deep tiers.
	DefaultDeepMaxTokens = 4096

	toolAckMessage = "Recorded. Continue with remaining tools."
)

// DeliberationConfig selects models and budgets per routing tier.
type DeliberationConfig struct {
	StandardModel     string
	DeepModel         string
	StandardMaxTokens int
	DeepMaxTokens     int
	MaxTurns          int
}

func (c *DeliberationConfig) applyDefaults() {
	if c.StandardMaxTokens == 0 {
		c.StandardMaxTokens = DefaultStandardMaxTokens
	}
	if c.DeepMaxTokens == 0 {
		c.DeepMaxTokens = DefaultDeepMaxTokens
	}
	if c.MaxTurns == 0 {
		c.MaxTurns = DefaultMaxTurns
	}
}

// DeliberationOutcome is the parsed yield of one deliberation run. Fields
// for tools the model never called stay zero; MissingTools names them.
type DeliberationOutcome struct {
	Intent       *domain.IntentClassification
	Indicators   []domain.DetectedIndicator
	TraitScores  map[domain.Trait]float64
	OverallTrust domain.TrustLevel
	Confidence   float64
	Reasoning    string
	ModelUsed    string
	Flags        []string
}

// DeliberationEngine drives the multi-turn tool conversation that produces
// raw trait scores. It owns no persistence; the evaluation service layers
// storage and aggregation on top.
type DeliberationEngine struct {
	llmClient domain.LLMClient
	cfg       DeliberationConfig
	logger    *zap.Logger
}

func NewDeliberationEngine(llmClient domain.LLMClient, cfg DeliberationConfig, logger *zap.Logger) *DeliberationEngine {
	cfg.applyDefaults()
	return &DeliberationEngine{llmClient: llmClient, cfg: cfg, logger: logger}
}

// Run executes up to MaxTurns model turns, collecting one result per tool.
// The first result for each tool wins; later duplicates are acknowledged
// but ignored. An API error aborts the run with no retry: the caller
// surfaces it rather than billing a second attempt.
func (e *DeliberationEngine) Run(ctx context.Context, tier domain.RoutingTier, in llm.PromptInput) (*DeliberationOutcome, error) {
	if e.llmClient == nil {
		return nil, &domain.EvaluationError{Stage: "deliberation", Err: domain.ErrLLMUnavailable}
	}

	userPrompt, flags := llm.BuildUserPrompt(in)

	model := e.cfg.StandardModel
	maxTokens := e.cfg.StandardMaxTokens
	if tier.Deep() {
		model = e.cfg.DeepModel
		maxTokens = e.cfg.DeepMaxTokens
	}

	messages := []domain.ChatMessage{{Role: "user", Text: userPrompt}}
	collected := make(map[string]json.RawMessage, 3)
	modelUsed := model

	for turn := 0; turn < e.cfg.MaxTurns; turn++ {
		res, err := e.llmClient.RunTurn(ctx, domain.TurnRequest{
			Model:      model,
			System:     llm.BuildSystemPrompt(tier),
			Messages:   messages,
			Tools:      llm.DeliberationTools(),
			ToolChoice: "any",
			MaxTokens:  maxTokens,
		})
		if err != nil {
			return nil, &domain.EvaluationError{Stage: "deliberation", Err: err}
		}
		if res.Model != "" {
			modelUsed = res.Model
		}

		if len(res.ToolCalls) == 0 {
			e.logger.Warn("deliberation turn produced no tool calls",
				zap.Int("turn", turn),
				zap.String("stop_reason", res.StopReason))
			break
		}

		messages = append(messages, domain.ChatMessage{
			Role:      "assistant",
			Text:      res.Text,
			ToolCalls: res.ToolCalls,
		})
		results := make([]domain.ToolResult, 0, len(res.ToolCalls))
		for _, tc := range res.ToolCalls {
			if _, dup := collected[tc.Name]; !dup {
				collected[tc.Name] = tc.Input
			}
			results = append(results, domain.ToolResult{ToolCallID: tc.ID, Content: toolAckMessage})
		}
		messages = append(messages, domain.ChatMessage{Role: "user", ToolResults: results})

		if len(collected) >= 3 || res.StopReason == "end_turn" {
			break
		}
	}

	outcome := &DeliberationOutcome{ModelUsed: modelUsed, Flags: flags}
	e.parseCollected(collected, outcome)

	for _, tool := range []string{llm.ToolIdentifyIntent, llm.ToolDetectIndicators, llm.ToolScoreTraits} {
		if _, ok := collected[tool]; !ok {
			e.logger.Warn("deliberation finished without tool result", zap.String("tool", tool))
		}
	}
	return outcome, nil
}

func (e *DeliberationEngine) parseCollected(collected map[string]json.RawMessage, out *DeliberationOutcome) {
	if raw, ok := collected[llm.ToolIdentifyIntent]; ok {
		var intent domain.IntentClassification
		if err := json.Unmarshal(raw, &intent); err != nil {
			e.logger.Warn("malformed intent payload", zap.Error(err))
		} else {
			out.Intent = &intent
		}
	}

	if raw, ok := collected[llm.ToolDetectIndicators]; ok {
		var payload struct {
			Indicators []domain.DetectedIndicator `json:"indicators"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			e.logger.Warn("malformed indicators payload", zap.Error(err))
		} else {
			out.Indicators = e.validateIndicators(payload.Indicators)
		}
	}

	if raw, ok := collected[llm.ToolScoreTraits]; ok {
		scores, trust, confidence, reasoning, err := parseScorePayload(raw)
		if err != nil {
			e.logger.Warn("malformed score payload", zap.Error(err))
		} else {
			out.TraitScores = scores
			out.OverallTrust = trust
			out.Confidence = confidence
			out.Reasoning = reasoning
		}
	}
}

// validateIndicators drops entries with ids or traits outside the catalogs
// and clamps confidence into [0,1]. The schema constrains the model, but
// tool inputs are still untrusted.
func (e *DeliberationEngine) validateIndicators(in []domain.DetectedIndicator) []domain.DetectedIndicator {
	known := make(map[string]domain.Indicator, len(domain.IndicatorCatalog))
	for _, ind := range domain.IndicatorCatalog {
		known[ind.ID] = ind
	}
	out := make([]domain.DetectedIndicator, 0, len(in))
	for _, det := range in {
		cat, ok := known[det.ID]
		if !ok {
			e.logger.Warn("dropping unknown indicator id", zap.String("id", det.ID))
			continue
		}
		det.Name = cat.Name
		det.Trait = cat.Trait
		det.Confidence = clamp01(det.Confidence)
		out = append(out, det)
	}
	return out
}

func parseScorePayload(raw json.RawMessage) (map[domain.Trait]float64, domain.TrustLevel, float64, string, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, "", 0, "", &domain.ParseError{Tool: llm.ToolScoreTraits, Msg: err.Error()}
	}

	scores := make(map[domain.Trait]float64, len(domain.AllTraits))
	for _, t := range domain.AllTraits {
		v, ok := payload[string(t)].(float64)
		if !ok {
			return nil, "", 0, "", &domain.ParseError{Tool: llm.ToolScoreTraits, Msg: "missing trait " + string(t)}
		}
		scores[t] = clamp01(v)
	}

	trustStr, _ := payload["overall_trust"].(string)
	if !domain.ValidTrustLevel(trustStr) {
		return nil, "", 0, "", &domain.ParseError{Tool: llm.ToolScoreTraits, Msg: "invalid overall_trust " + trustStr}
	}
	confidence, _ := payload["confidence"].(float64)
	reasoning, _ := payload["reasoning"].(string)
	return scores, domain.TrustLevel(trustStr), clamp01(confidence), reasoning, nil
}
