// Package instinct is the lexical pre-filter that runs before any model
// call. It counts suspicious phrases per negative trait and routes the
// message to a deliberation tier. The signal is heuristic only; it never
// moves a score.
package instinct

import (
	"math"
	"strings"

	"github.com/ethoslabs/ethos/internal/domain"
)

// Thresholds are the density cut points between routing tiers. Messages
// with zero flags always route standard regardless of thresholds.
type Thresholds struct {
	Focused float64
	Deep    float64
}

var DefaultThresholds = Thresholds{Focused: 0.05, Deep: 0.10}

// lexicon maps each negative trait to the phrases that flag it. Matching is
// case-insensitive substring, so multiword entries work on raw text.
var lexicon = map[domain.Trait][]string{
	domain.TraitManipulation: {
		"act now", "last chance", "limited time", "don't miss out",
		"before it's too late", "only i can", "you need me",
		"trust me on this", "everyone else will", "you'll regret",
		"without my help", "urgent action required",
	},
	domain.TraitDeception: {
		"don't tell", "between us", "no one needs to know",
		"as a human", "i am a real person", "definitely not a bot",
		"disable the logging", "bypass the review", "hide this from",
		"off the record",
	},
	domain.TraitFabrication: {
		"studies show", "experts agree", "it is proven",
		"scientists say", "research confirms", "statistics prove",
		"everyone knows that", "sources confirm",
	},
	domain.TraitBrokenLogic: {
		"therefore it must", "which proves", "obviously this means",
		"the only explanation", "it follows that everyone",
		"because it's popular", "millions can't be wrong",
	},
	domain.TraitDismissal: {
		"you're overreacting", "not a big deal", "calm down",
		"that's irrelevant", "doesn't matter anyway", "moving on",
		"stop worrying about",
	},
	domain.TraitExploitation: {
		"since you're desperate", "you have no choice",
		"given your situation", "you owe me", "after all i've done",
		"nobody else would help",
	},
}

type Scanner struct {
	thresholds Thresholds
}

func NewScanner(t Thresholds) *Scanner {
	if t.Focused <= 0 {
		t.Focused = DefaultThresholds.Focused
	}
	if t.Deep <= t.Focused {
		t.Deep = t.Focused * 2
	}
	return &Scanner{thresholds: t}
}

// Scan counts lexicon hits in text and assigns a routing tier. Density is
// total flags over word count, so longer messages need more hits to
// escalate. Adding text never lowers the tier.
func (s *Scanner) Scan(text string) domain.InstinctResult {
	res := domain.InstinctResult{
		FlaggedTraits: make(map[domain.Trait]int),
		RoutingTier:   domain.TierStandard,
	}
	words := len(strings.Fields(text))
	if words == 0 {
		return res
	}

	lower := strings.ToLower(text)
	for trait, phrases := range lexicon {
		hits := 0
		for _, p := range phrases {
			hits += strings.Count(lower, p)
		}
		if hits > 0 {
			res.FlaggedTraits[trait] = hits
			res.TotalFlags += hits
		}
	}
	if res.TotalFlags == 0 {
		return res
	}

	res.Density = round4(float64(res.TotalFlags) / float64(words))
	switch {
	case res.Density < s.thresholds.Focused:
		res.RoutingTier = domain.TierFocused
	case res.Density < s.thresholds.Deep:
		res.RoutingTier = domain.TierDeep
	default:
		res.RoutingTier = domain.TierDeepWithContext
	}
	return res
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
