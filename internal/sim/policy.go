package sim

import (
	"github.com/niceyeti/mediaworld/internal/agent"
	"github.com/niceyeti/mediaworld/internal/content"
	"github.com/niceyeti/mediaworld/internal/numeric"
	"github.com/niceyeti/mediaworld/internal/platform"
	"github.com/niceyeti/mediaworld/internal/simparams"
	"github.com/niceyeti/mediaworld/internal/spatial"
)

// recessionStep is the per-n fractional contraction ApplyRecession applies
// to the economy multiplier, agent resources, and publisher budgets.
const recessionStep = 0.05

// ApplyRecession shrinks the economy multiplier and every agent's and
// publisher's standing funds by recessionStep*n, floored so neither side
// of the economy goes negative.
func (s *Simulation) ApplyRecession(n int) {
	shrink := 1 - recessionStep*float64(n)
	if shrink < 0 {
		shrink = 0
	}
	s.Params.Economy = numeric.Clamp(s.Params.Economy*shrink, 0.05, 1)
	for _, a := range s.Agents {
		a.Resources *= shrink
	}
	for _, pub := range s.Publishers {
		pub.Budget *= shrink
	}
}

// RaiseMediaLiteracy raises every agent's media literacy by delta,
// clamped to [0,1].
func (s *Simulation) RaiseMediaLiteracy(delta float64) {
	for _, a := range s.Agents {
		a.MediaLiteracy = numeric.Clamp(a.MediaLiteracy+delta, 0, 1)
	}
}

// FoundPlatforms appends k new, empty Platforms with ids continuing the
// existing sequence.
func (s *Simulation) FoundPlatforms(k int) {
	for i := 0; i < k; i++ {
		id := content.PlatformID(len(s.Platforms))
		s.Platforms = append(s.Platforms, platform.New(id, len(s.Agents), s.Params.MaxConversionRate))
	}
}

// SetAdvertisingTax sets the fraction of ad revenue taxed away before
// crediting an owner's budget or resources.
func (s *Simulation) SetAdvertisingTax(t float64) {
	s.Params.AdvertisingTax = t
}

// SetSubsidy sets the flat per-tick production subsidy every publisher's
// budget receives alongside its regular subscriber revenue.
func (s *Simulation) SetSubsidy(subsidy float64) {
	s.Params.Subsidy = subsidy
}

// AddPopulation places n new agents on the grid by the same
// density-weighted sampling New uses, grows the network to fit them,
// wires each into the social graph, and fills in their publisher
// relevancies from the already-precomputed distance table.
func (s *Simulation) AddPopulation(n int) {
	if n <= 0 {
		return
	}

	start := len(s.Agents)
	density := s.cellDensity()
	allCells := allCoords(s.Grid)

	for i := 0; i < n; i++ {
		cell := weightedCellSample(s.RNG, allCells, func(c spatial.Coord) float64 {
			return float64(density[c] + 1)
		})
		density[cell]++

		id := content.AgentID(start + i)
		interests := numeric.Vec2{X: s.RNG.Float64(), Y: s.RNG.Float64()}
		motive := simparams.Motive(s.RNG.Intn(3))
		a := agent.New(id, interests, motive, cell, s.Params.Agent.AttentionBudget, s.RNG.Float64())
		a.Values = numeric.Vec2{X: s.RNG.Float64()*2 - 1, Y: s.RNG.Float64()*2 - 1}
		a.Resources = s.Params.Publisher.BaseBudget / 10

		for _, pub := range s.Publishers {
			dist := s.distances[cell][pub.ID]
			a.Relevancies[pub.ID] = 1 - numeric.Sigmoid(2*float64(dist)-4)
		}

		s.Agents = append(s.Agents, a)
		s.cellOf = append(s.cellOf, cell)
	}

	s.Network.Grow(n)
	for _, p := range s.Platforms {
		p.Grow(n)
	}

	loc := locator{sim: s}
	eTotal := 0
	for i := start; i < len(s.Agents); i++ {
		s.Network.BuildPreferentialAttachment(s.RNG, i, len(s.Agents), maxFriends, loc, &eTotal)
	}
}
