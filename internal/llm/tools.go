package llm

import "github.com/ethoslabs/ethos/internal/domain"

// Tool names of the three deliberation capabilities. The deliberation loop
// keys collected results off these.
const (
	ToolIdentifyIntent   = "identify_intent"
	ToolDetectIndicators = "detect_indicators"
	ToolScoreTraits      = "score_traits"
)

// DeliberationTools builds the tool specs offered on every deliberation
// turn. Schemas are constructed from the live catalogs so the model can
// only emit known traits and indicator ids.
func DeliberationTools() []domain.ToolSpec {
	return []domain.ToolSpec{
		identifyIntentTool(),
		detectIndicatorsTool(),
		scoreTraitsTool(),
	}
}

func identifyIntentTool() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        ToolIdentifyIntent,
		Description: "Classify what the message is trying to accomplish before judging how it does it.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"rhetorical_mode": enumProp("The dominant rhetorical mode of the message",
					"narrative", "persuasive", "informational", "technical", "conversational",
					"satirical", "instructional", "emotional_appeal", "exploratory", "creative"),
				"primary_intent": enumProp("The single most plausible goal of the author",
					"reflect", "explore", "create", "educate", "persuade", "recruit", "sell",
					"entertain", "warn", "request", "inform", "validate", "manipulate", "deceive"),
				"action_requested": strProp("What the reader is being asked to do, or 'none'"),
				"cost_to_reader": enumProp("What complying would cost the reader",
					"none", "financial", "time", "trust", "autonomy", "privacy", "multiple"),
				"stakes_reality": enumProp("Whether the claimed stakes are real",
					"real", "metaphorical", "exaggerated", "fictional", "fabricated", "mixed"),
				"proportionality": enumProp("Whether the emotional register fits the actual stakes",
					"proportional", "disproportionate", "understated"),
				"persona_type": enumProp("The identity the author presents as",
					"real_identity", "fictional_character", "brand_mascot", "anonymous"),
				"relational_quality": enumProp("How the message treats the reader",
					"present", "transactional", "extractive", "hostile"),
				"claims": map[string]any{
					"type":        "array",
					"description": "Checkable claims made in the message",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"claim": strProp("The claim as stated"),
							"type": enumProp("Claim kind",
								"factual", "experiential", "opinion", "metaphorical", "fictional"),
						},
						"required": []string{"claim", "type"},
					},
				},
			},
			"required": []string{
				"rhetorical_mode", "primary_intent", "action_requested",
				"cost_to_reader", "stakes_reality", "proportionality",
				"persona_type", "relational_quality", "claims",
			},
		},
	}
}

func detectIndicatorsTool() domain.ToolSpec {
	ids := make([]string, 0, len(domain.IndicatorCatalog))
	for _, ind := range domain.IndicatorCatalog {
		ids = append(ids, ind.ID)
	}
	traits := make([]string, 0, len(domain.AllTraits))
	for _, t := range domain.AllTraits {
		traits = append(traits, string(t))
	}
	return domain.ToolSpec{
		Name:        ToolDetectIndicators,
		Description: "Report every catalogued behavioral indicator present in the message, with verbatim evidence.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"indicators": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id": map[string]any{
								"type":        "string",
								"enum":        ids,
								"description": "Catalog indicator id",
							},
							"trait": map[string]any{
								"type":        "string",
								"enum":        traits,
								"description": "The trait this indicator belongs to",
							},
							"confidence": map[string]any{
								"type":        "number",
								"minimum":     0,
								"maximum":     1,
								"description": "How confident the evidence supports this indicator",
							},
							"evidence": strProp("Verbatim excerpt supporting the indicator"),
						},
						"required": []string{"id", "trait", "confidence", "evidence"},
					},
				},
			},
			"required": []string{"indicators"},
		},
	}
}

func scoreTraitsTool() domain.ToolSpec {
	props := map[string]any{}
	for _, t := range domain.AllTraits {
		props[string(t)] = map[string]any{
			"type":        "number",
			"minimum":     0,
			"maximum":     1,
			"description": "Score for " + string(t),
		}
	}
	props["overall_trust"] = map[string]any{
		"type":        "string",
		"enum":        []string{"trustworthy", "mixed", "untrustworthy"},
		"description": "Holistic trust judgement",
	}
	props["confidence"] = map[string]any{
		"type":        "number",
		"minimum":     0,
		"maximum":     1,
		"description": "Confidence in the scores as a whole",
	}
	props["reasoning"] = strProp("Brief justification tying scores to evidence")

	required := make([]string, 0, len(domain.AllTraits)+3)
	for _, t := range domain.AllTraits {
		required = append(required, string(t))
	}
	required = append(required, "overall_trust", "confidence", "reasoning")

	return domain.ToolSpec{
		Name:        ToolScoreTraits,
		Description: "Score all twelve behavioral traits from 0.0 to 1.0. Every trait is required, none may be omitted.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		},
	}
}

func strProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func enumProp(desc string, values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values, "description": desc}
}
