// Package simparams defines the tunable parameters shared across the
// config loader, Agent, Publisher, and the Simulation orchestrator. It is
// intentionally dependency-free so every other package can import it
// without risking an import cycle.
package simparams

// Motive is an Agent's (or pre-seeded Publisher's) driving objective,
// consulted when computing a learning reward.
type Motive int

const (
	MotiveProfit Motive = iota
	MotiveCivic
	MotiveInfluence
)

// PublisherParams is the nested PUBLISHER.* config section.
type PublisherParams struct {
	RevenuePerSubscriber float64
	BaseBudget           float64
}

// AgentParams is the nested AGENT.* config section.
type AgentParams struct {
	AttentionBudget float64
}

// PublisherSeed pre-seeds one Publisher from the PUBLISHERS[] config
// array. Motive is accepted for parity with the config schema but is not
// presently consulted by Publisher.Learn (see spec §4.8 — publisher
// reward is unconditionally profit).
type PublisherSeed struct {
	BaseBudget float64
	Motive     Motive
}

// Params is the full set of tunables a run is configured with, plus the
// two policy-scoped fields (AdvertisingTax, Subsidy) that Policies mutate
// mid-run.
type Params struct {
	Population  int
	NPublishers int
	NPlatforms  int
	GridSize    int

	ContactRate        float64
	GravityStretch     float64
	MaxInfluence       float64
	DataPerConsume     float64
	BaseSignupRate     float64
	RevenuePerAd       float64
	DefaultTrust       float64
	UnfollowTrust      float64
	FollowTrust        float64
	UnsubscribeTrust   float64
	SubscribeTrust     float64
	BaseConversionRate float64
	MaxConversionRate  float64
	CostPerQuality     float64
	Economy            float64

	ContentSampleSize int
	MaxPlatforms      int
	UnsubscribeLag    int
	MaxSharedContent  int

	Publisher PublisherParams
	Agent     AgentParams

	Publishers []PublisherSeed

	// Policy-scoped, mutated by Policy application between run segments.
	AdvertisingTax float64
	Subsidy        float64

	// ParallelConsume switches Simulation.consumePhase to the
	// errgroup-partitioned implementation (one worker per CPU, each
	// owning a disjoint slice of agent indices) instead of the serial
	// index-order loop. Off by default: the serial path is simpler to
	// reason about and fast enough for the population sizes this run
	// normally targets.
	ParallelConsume bool
}

// Default returns a Params populated with reasonable defaults for every
// field the config file may omit aside from the required ones
// (Population, NPublishers, GridSize) that internal/config refuses to
// default.
func Default() Params {
	return Params{
		NPlatforms:         0,
		ContactRate:        0.1,
		GravityStretch:     10,
		MaxInfluence:       0.1,
		DataPerConsume:     0.01,
		BaseSignupRate:     0.01,
		RevenuePerAd:       1.0,
		DefaultTrust:       0.5,
		UnfollowTrust:      0.1,
		FollowTrust:        0.8,
		UnsubscribeTrust:   0.1,
		SubscribeTrust:     0.8,
		BaseConversionRate: 0.1,
		MaxConversionRate:  0.3,
		CostPerQuality:     1.0,
		Economy:            1.0,
		ContentSampleSize:  20,
		MaxPlatforms:       3,
		UnsubscribeLag:     5,
		MaxSharedContent:   20,
		Publisher: PublisherParams{
			RevenuePerSubscriber: 0.01,
			BaseBudget:           100,
		},
		Agent: AgentParams{
			AttentionBudget: 10,
		},
	}
}
