package instinct

import (
	"strings"
	"testing"

	"github.com/ethoslabs/ethos/internal/domain"
)

func TestScanEmptyText(t *testing.T) {
	s := NewScanner(DefaultThresholds)
	res := s.Scan("")
	if res.RoutingTier != domain.TierStandard {
		t.Errorf("expected standard tier for empty text, got %s", res.RoutingTier)
	}
	if res.TotalFlags != 0 || res.Density != 0 {
		t.Errorf("expected zero flags and density, got %d / %f", res.TotalFlags, res.Density)
	}
}

func TestScanCleanText(t *testing.T) {
	s := NewScanner(DefaultThresholds)
	res := s.Scan("The deployment finished and all checks passed on the staging cluster.")
	if res.TotalFlags != 0 {
		t.Errorf("expected no flags, got %d: %v", res.TotalFlags, res.FlaggedTraits)
	}
	if res.RoutingTier != domain.TierStandard {
		t.Errorf("expected standard tier, got %s", res.RoutingTier)
	}
}

func TestScanFlagsTraits(t *testing.T) {
	s := NewScanner(DefaultThresholds)
	res := s.Scan("Act now, this is your last chance. Studies show you'll regret waiting.")
	if res.FlaggedTraits[domain.TraitManipulation] < 2 {
		t.Errorf("expected at least 2 manipulation flags, got %d", res.FlaggedTraits[domain.TraitManipulation])
	}
	if res.FlaggedTraits[domain.TraitFabrication] != 1 {
		t.Errorf("expected 1 fabrication flag, got %d", res.FlaggedTraits[domain.TraitFabrication])
	}
	if res.RoutingTier == domain.TierStandard {
		t.Error("flagged text must not route standard")
	}
}

func TestScanTierEscalation(t *testing.T) {
	s := NewScanner(DefaultThresholds)

	// One hit in a long message: density below the focused cut.
	padding := strings.Repeat("word ", 100)
	low := s.Scan(padding + "act now")
	if low.RoutingTier != domain.TierFocused {
		t.Errorf("low density: expected focused, got %s (density %f)", low.RoutingTier, low.Density)
	}

	// Dense hits in a short message escalate past deep.
	high := s.Scan("act now last chance limited time you owe me don't tell")
	if high.RoutingTier != domain.TierDeepWithContext {
		t.Errorf("high density: expected deep_with_context, got %s (density %f)", high.RoutingTier, high.Density)
	}
	if !high.RoutingTier.Deep() {
		t.Error("deep_with_context must report Deep()")
	}
}

func TestScanMonotonic(t *testing.T) {
	s := NewScanner(DefaultThresholds)
	base := "act now and don't tell anyone"
	a := s.Scan(base)
	b := s.Scan(base + " because this is your last chance, you owe me")
	if b.TotalFlags < a.TotalFlags {
		t.Errorf("adding flagged text lowered flags: %d -> %d", a.TotalFlags, b.TotalFlags)
	}
	rank := map[domain.RoutingTier]int{
		domain.TierStandard:        0,
		domain.TierFocused:         1,
		domain.TierDeep:            2,
		domain.TierDeepWithContext: 3,
	}
	if rank[b.RoutingTier] < rank[a.RoutingTier] {
		t.Errorf("adding flagged text lowered tier: %s -> %s", a.RoutingTier, b.RoutingTier)
	}
}

func TestNewScannerDefaults(t *testing.T) {
	s := NewScanner(Thresholds{})
	if s.thresholds.Focused != DefaultThresholds.Focused || s.thresholds.Deep != DefaultThresholds.Deep {
		t.Errorf("zero thresholds should fall back to defaults, got %+v", s.thresholds)
	}
	inverted := NewScanner(Thresholds{Focused: 0.2, Deep: 0.1})
	if inverted.thresholds.Deep <= inverted.thresholds.Focused {
		t.Errorf("deep threshold must exceed focused, got %+v", inverted.thresholds)
	}
}
