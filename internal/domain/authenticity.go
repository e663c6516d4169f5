package domain

// Authenticity sub-signal and composite classifications. Each sub-signal is
// computed independently from posting-time statistics; the composite fuses
// them with fixed weights.

type TemporalClass string

const (
	TemporalAutonomous      TemporalClass = "autonomous"
	TemporalHumanInfluenced TemporalClass = "human_influenced"
	TemporalIndeterminate   TemporalClass = "indeterminate"
)

type BurstClass string

const (
	BurstOrganic   BurstClass = "organic"
	BurstAutomated BurstClass = "automated"
	BurstBot       BurstClass = "burst_bot"
)

type ActivityClass string

const (
	ActivityHumanSchedule ActivityClass = "human_schedule"
	ActivityAlwaysOn      ActivityClass = "always_on"
	ActivityMixed         ActivityClass = "mixed"
)

type AuthenticityClass string

const (
	AuthLikelyAutonomous AuthenticityClass = "likely_autonomous"
	AuthLikelyHuman      AuthenticityClass = "likely_human"
	AuthBotFarm          AuthenticityClass = "bot_farm"
	AuthIndeterminate    AuthenticityClass = "indeterminate"
)

// TemporalSignature is the coefficient-of-variation analysis of inter-post
// intervals. RegularityScore maps CV to [0,1]: clockwork posting scores 1.
type TemporalSignature struct {
	RegularityScore     float64       `json:"regularity_score"`
	MeanIntervalSeconds float64       `json:"mean_interval_seconds"`
	Classification      TemporalClass `json:"classification"`
}

// BurstAnalysis measures the fraction of consecutive posts within a
// 10-second window.
type BurstAnalysis struct {
	BurstRate      float64    `json:"burst_rate"`
	Classification BurstClass `json:"classification"`
}

// ActivityPattern bins posts into 24 hourly buckets and looks for a
// circular sleep gap of six or more silent hours.
type ActivityPattern struct {
	Classification ActivityClass `json:"classification"`
	ActiveHours    int           `json:"active_hours"`
	HasSleepGap    bool          `json:"has_sleep_gap"`
}

// IdentityProfile is the optional platform profile supplied alongside
// timestamps.
type IdentityProfile struct {
	IsClaimed     bool `json:"is_claimed"`
	OwnerVerified bool `json:"owner_verified"`
	Karma         int  `json:"karma"`
	PostCount     int  `json:"post_count"`
	CommentCount  int  `json:"comment_count"`
}

// IdentitySignals is the identity sub-signal derived from the profile.
type IdentitySignals struct {
	IsClaimed      bool    `json:"is_claimed"`
	OwnerVerified  bool    `json:"owner_verified"`
	KarmaPostRatio float64 `json:"karma_post_ratio"`
}

// AuthenticityResult bundles the four sub-signals, the weighted composite
// score, and a sample-size confidence.
type AuthenticityResult struct {
	AgentID        string            `json:"agent_id"`
	Temporal       TemporalSignature `json:"temporal"`
	Burst          BurstAnalysis     `json:"burst"`
	Activity       ActivityPattern   `json:"activity"`
	Identity       IdentitySignals   `json:"identity"`
	Score          float64           `json:"authenticity_score"`
	Classification AuthenticityClass `json:"classification"`
	Confidence     float64           `json:"confidence"`
	SampleSize     int               `json:"sample_size"`
}
