package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/ethoslabs/ethos/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MinTimestampsForAuthenticity is the floor below which only an
	// indeterminate composite is produced.
	MinTimestampsForAuthenticity = 5
	// MinTimestampsForBurst is the floor for burst analysis alone.
	MinTimestampsForBurst = 3

	// burstWindowSeconds is the gap at or under which two posts count as a
	// burst pair.
	burstWindowSeconds = 10.0
	// sleepGapHours is the minimum run of silent hours that reads as a
	// human sleep schedule.
	sleepGapHours = 6

	cvAutonomousMax      = 0.3
	cvHumanInfluencedMin = 1.0

	burstBotMin  = 0.5
	automatedMin = 0.2

	weightTemporal = 0.35
	weightBurst    = 0.25
	weightActivity = 0.25
	weightIdentity = 0.15
)

// AuthenticityService classifies whether an account's posting behavior
// looks autonomous, human-driven, or botlike. The math is pure computation
// over caller-supplied timestamps; Classify additionally appends an audit
// row when a store is wired.
type AuthenticityService struct {
	store  domain.AuthenticityStore
	logger *zap.Logger
}

func NewAuthenticityService(store domain.AuthenticityStore, logger *zap.Logger) *AuthenticityService {
	return &AuthenticityService{store: store, logger: logger}
}

// Classify runs Analyze and records the outcome. A failed write is logged,
// never surfaced: the classification itself does not depend on the store.
func (s *AuthenticityService) Classify(ctx context.Context, tenantID uuid.UUID, agentID string, timestamps []string, profile *domain.IdentityProfile) *domain.AuthenticityResult {
	result := s.Analyze(agentID, timestamps, profile)
	if s.store != nil {
		if err := s.store.RecordResult(ctx, tenantID, result); err != nil {
			s.logger.Warn("failed to record authenticity result",
				zap.String("agent_id", agentID), zap.Error(err))
		}
	}
	return result
}

// Analyze fuses four independent signals into a composite score.
// Unparseable timestamps are skipped, not fatal: the sample size reflects
// only what parsed.
func (s *AuthenticityService) Analyze(agentID string, timestamps []string, profile *domain.IdentityProfile) *domain.AuthenticityResult {
	times := s.parseTimestamps(timestamps)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	result := &domain.AuthenticityResult{
		AgentID:    agentID,
		SampleSize: len(times),
		Temporal:   analyzeTemporal(times),
		Burst:      analyzeBursts(times),
		Activity:   analyzeActivity(times),
		Identity:   identitySignals(profile),
		Confidence: sampleConfidence(len(times)),
	}

	if len(times) < MinTimestampsForAuthenticity {
		result.Score = 0.5
		result.Classification = domain.AuthIndeterminate
		return result
	}

	result.Score = round4(
		weightTemporal*temporalAnchor(result.Temporal.Classification) +
			weightBurst*burstAnchor(result.Burst.Classification) +
			weightActivity*activityAnchor(result.Activity.Classification) +
			weightIdentity*identityAnchor(result.Identity))

	switch {
	case result.Burst.Classification == domain.BurstBot:
		result.Classification = domain.AuthBotFarm
	case result.Score > 0.7:
		result.Classification = domain.AuthLikelyAutonomous
	case result.Score < 0.3:
		result.Classification = domain.AuthLikelyHuman
	default:
		result.Classification = domain.AuthIndeterminate
	}
	return result
}

func (s *AuthenticityService) parseTimestamps(raw []string) []time.Time {
	out := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		t, err := time.Parse(time.RFC3339, r)
		if err != nil {
			s.logger.Debug("skipping unparseable timestamp", zap.String("value", r))
			continue
		}
		out = append(out, t.UTC())
	}
	return out
}

// analyzeTemporal classifies regularity via the coefficient of variation
// of inter-post intervals. Clockwork intervals (low CV) read as machine
// scheduling; high dispersion reads as a human behind the keyboard.
func analyzeTemporal(times []time.Time) domain.TemporalSignature {
	sig := domain.TemporalSignature{Classification: domain.TemporalIndeterminate}
	if len(times) < MinTimestampsForAuthenticity {
		return sig
	}

	intervals := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		intervals = append(intervals, times[i].Sub(times[i-1]).Seconds())
	}
	m := mean(intervals...)
	sig.MeanIntervalSeconds = round4(m)
	if m == 0 {
		// All posts in the same instant: perfectly regular.
		sig.RegularityScore = 1.0
		sig.Classification = domain.TemporalAutonomous
		return sig
	}

	cv := math.Sqrt(sampleVarianceRaw(intervals)) / m
	sig.RegularityScore = round4(clamp01(1 - cv/2))
	switch {
	case cv < cvAutonomousMax:
		sig.Classification = domain.TemporalAutonomous
	case cv > cvHumanInfluencedMin:
		sig.Classification = domain.TemporalHumanInfluenced
	default:
		sig.Classification = domain.TemporalIndeterminate
	}
	return sig
}

// analyzeBursts measures the fraction of consecutive gaps inside the burst
// window. Reply-chain bots post in tight clusters no human sustains.
func analyzeBursts(times []time.Time) domain.BurstAnalysis {
	ba := domain.BurstAnalysis{Classification: domain.BurstOrganic}
	if len(times) < MinTimestampsForBurst {
		return ba
	}

	bursts := 0
	for i := 1; i < len(times); i++ {
		if times[i].Sub(times[i-1]).Seconds() <= burstWindowSeconds {
			bursts++
		}
	}
	ba.BurstRate = round4(float64(bursts) / float64(len(times)-1))
	switch {
	case ba.BurstRate > burstBotMin:
		ba.Classification = domain.BurstBot
	case ba.BurstRate > automatedMin:
		ba.Classification = domain.BurstAutomated
	}
	return ba
}

// analyzeActivity bins posts into 24 UTC hours and looks for a circular
// sleep gap. Humans go dark for six-plus consecutive hours; always-on
// accounts never do.
func analyzeActivity(times []time.Time) domain.ActivityPattern {
	var bins [24]int
	for _, t := range times {
		bins[t.Hour()]++
	}

	active := 0
	for _, n := range bins {
		if n > 0 {
			active++
		}
	}

	// Longest run of silent hours, wrapping around midnight.
	longest, run := 0, 0
	for i := 0; i < 48; i++ {
		if bins[i%24] == 0 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	if longest > 24 {
		longest = 24
	}

	ap := domain.ActivityPattern{
		ActiveHours: active,
		HasSleepGap: longest >= sleepGapHours,
	}
	switch {
	case ap.HasSleepGap:
		ap.Classification = domain.ActivityHumanSchedule
	case active == 24:
		ap.Classification = domain.ActivityAlwaysOn
	default:
		ap.Classification = domain.ActivityMixed
	}
	return ap
}

func identitySignals(profile *domain.IdentityProfile) domain.IdentitySignals {
	if profile == nil {
		return domain.IdentitySignals{}
	}
	sig := domain.IdentitySignals{
		IsClaimed:     profile.IsClaimed,
		OwnerVerified: profile.OwnerVerified,
	}
	if total := profile.PostCount + profile.CommentCount; total > 0 {
		sig.KarmaPostRatio = round4(float64(profile.Karma) / float64(total))
	}
	return sig
}

// Anchor values translate each categorical sub-signal onto the autonomy
// axis: 1.0 reads fully autonomous, 0.0 fully human, 0.5 unknown.
func temporalAnchor(c domain.TemporalClass) float64 {
	switch c {
	case domain.TemporalAutonomous:
		return 1.0
	case domain.TemporalHumanInfluenced:
		return 0.0
	default:
		return 0.5
	}
}

func burstAnchor(c domain.BurstClass) float64 {
	switch c {
	case domain.BurstOrganic:
		return 1.0
	default:
		return 0.5
	}
}

func activityAnchor(c domain.ActivityClass) float64 {
	switch c {
	case domain.ActivityAlwaysOn:
		return 1.0
	case domain.ActivityHumanSchedule:
		return 0.0
	default:
		return 0.5
	}
}

// identityAnchor scores claim status: an unclaimed account is most likely
// a free-running agent, a verified claim puts a human on record.
func identityAnchor(sig domain.IdentitySignals) float64 {
	switch {
	case sig.IsClaimed && sig.OwnerVerified:
		return 0.0
	case sig.IsClaimed:
		return 0.25
	default:
		return 1.0
	}
}

func sampleConfidence(n int) float64 {
	switch {
	case n >= 50:
		return 0.9
	case n >= 20:
		return 0.7
	case n >= MinTimestampsForAuthenticity:
		return 0.5
	default:
		return 0.1
	}
}
