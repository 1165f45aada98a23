// Package sim implements the Simulation orchestrator: construction of the
// whole population/publisher/platform/network state, and the one-tick
// produce -> ad-market -> distribute -> consume -> post-update protocol.
package sim

import (
	"math/rand"

	"github.com/niceyeti/mediaworld/internal/agent"
	"github.com/niceyeti/mediaworld/internal/content"
	"github.com/niceyeti/mediaworld/internal/numeric"
	"github.com/niceyeti/mediaworld/internal/platform"
	"github.com/niceyeti/mediaworld/internal/publisher"
	"github.com/niceyeti/mediaworld/internal/simparams"
	"github.com/niceyeti/mediaworld/internal/socialnet"
	"github.com/niceyeti/mediaworld/internal/spatial"
)

const maxFriends = 120

// Simulation owns every entity in a run and drives it tick by tick. All
// ownership lives on the goroutine that calls Tick; there is no
// suspension point within a tick's observable contract (see §5 in
// SPEC_FULL.md for the optional partitioned-consume exception).
type Simulation struct {
	Params simparams.Params
	RNG    *rand.Rand
	Step   int

	// seed is retained (beyond seeding RNG above) so the optional
	// parallel-consume path can derive each agent's own RNG substream
	// as seed XOR agent id, independent of draw order.
	seed int64

	Agents     []*agent.Agent
	Publishers []*publisher.Publisher
	Platforms  []*platform.Platform
	Network    *socialnet.Network
	Grid       *spatial.HexGrid

	distances map[spatial.Coord]map[content.PublisherID]int
	cellOf    []spatial.Coord // cellOf[agentID] = the agent's hex cell

	shareQueues    map[content.AgentID][]content.SharedContent
	outboxes       map[content.PublisherID][]content.SharedContent
	agentPlatforms map[content.AgentID]map[content.PlatformID]bool

	// allContent retains every Content ever created, for the recorder's
	// "top 10 by live share count" snapshot field.
	allContent []*content.Content

	// Stats is overwritten every Tick with the last produce phase's
	// counts, for internal/recorder's p_produced/p_pitched/p_published
	// fields.
	Stats TickStats
}

// TickStats are the per-tick production counters rec.rs's n_produced
// parameter generalizes into: how many agents produced content at all,
// how many of those pitched to at least one publisher, and how many
// pitches were accepted.
type TickStats struct {
	Produced  int
	Pitched   int
	Published int
}

// AllContent returns every Content ever created over the run's
// lifetime, for the recorder's top-content-by-shares snapshot field.
// The returned slice is owned by the Simulation; callers must not
// mutate it.
func (s *Simulation) AllContent() []*content.Content {
	return s.allContent
}

// ToShareCount returns how many share-queue entries are live right now
// (the current tick's to_share count, until the next Tick clears them).
func (s *Simulation) ToShareCount() int {
	n := 0
	for _, q := range s.shareQueues {
		n += len(q)
	}
	return n
}

// locator adapts a Simulation to socialnet.Locator for network
// construction: similarity of interests, and same-cell location.
type locator struct {
	sim *Simulation
}

func (l locator) Similarity(a, b int) float64 {
	return numeric.Similarity(l.sim.Agents[a].Interests, l.sim.Agents[b].Interests)
}

func (l locator) SameLocation(a, b int) bool {
	return l.sim.cellOf[a] == l.sim.cellOf[b]
}

// New constructs a Simulation: places agents and publishers on the hex
// grid by density-weighted sampling, precomputes publisher distances and
// per-agent relevancies, and forms the social network by preferential
// attachment with locality.
func New(params simparams.Params, seed int64) *Simulation {
	s := &Simulation{
		Params:         params,
		RNG:            rand.New(rand.NewSource(seed)),
		seed:           seed,
		Grid:           spatial.New(params.GridSize, params.GridSize),
		distances:      make(map[spatial.Coord]map[content.PublisherID]int),
		shareQueues:    make(map[content.AgentID][]content.SharedContent),
		outboxes:       make(map[content.PublisherID][]content.SharedContent),
		agentPlatforms: make(map[content.AgentID]map[content.PlatformID]bool),
	}

	s.placeAgents(params.Population)
	s.createPublishers(params)
	s.precomputeRelevancies()
	s.formNetwork()
	s.createPlatforms(params.NPlatforms)

	return s
}

// placeAgents creates n agents and places them on the grid via
// density-weighted sampling: each new agent's cell is chosen with weight
// |cell|+1, so already-populated cells are more likely to attract more
// agents.
func (s *Simulation) placeAgents(n int) {
	density := make(map[spatial.Coord]int)
	allCells := allCoords(s.Grid)

	for i := 0; i < n; i++ {
		cell := weightedCellSample(s.RNG, allCells, func(c spatial.Coord) float64 {
			return float64(density[c] + 1)
		})
		density[cell]++

		id := content.AgentID(i)
		interests := numeric.Vec2{X: s.RNG.Float64(), Y: s.RNG.Float64()}
		motive := simparams.Motive(s.RNG.Intn(3))
		a := agent.New(id, interests, motive, cell, s.Params.Agent.AttentionBudget, s.RNG.Float64())
		a.Values = numeric.Vec2{X: s.RNG.Float64()*2 - 1, Y: s.RNG.Float64()*2 - 1}
		a.Resources = s.Params.Publisher.BaseBudget / 10

		s.Agents = append(s.Agents, a)
		s.cellOf = append(s.cellOf, cell)
	}

	s.Network = socialnet.New(n)
}

// createPublishers builds NPublishers publishers: the configured
// PUBLISHERS[] seeds first, then filler publishers using the default
// base budget. Each is placed on a cell chosen by weight |cell|^2,
// excluding already-used cells until the cell pool is exhausted, and
// given a radius biased toward larger values in denser cells.
func (s *Simulation) createPublishers(params simparams.Params) {
	density := s.cellDensity()
	allCells := allCoords(s.Grid)
	used := make(map[spatial.Coord]bool)

	pick := func() spatial.Coord {
		candidates := allCells
		if len(used) < len(allCells) {
			candidates = make([]spatial.Coord, 0, len(allCells))
			for _, c := range allCells {
				if !used[c] {
					candidates = append(candidates, c)
				}
			}
		}
		cell := weightedCellSample(s.RNG, candidates, func(c spatial.Coord) float64 {
			d := float64(density[c])
			return d * d
		})
		used[cell] = true
		return cell
	}

	seeds := params.Publishers
	for i := 0; i < params.NPublishers; i++ {
		cell := pick()
		radius := s.sampleRadius(density[cell])

		baseBudget := params.Publisher.BaseBudget
		if i < len(seeds) {
			baseBudget = seeds[i].BaseBudget
		}

		id := content.PublisherID(i)
		pub := publisher.New(id, cell, radius, baseBudget, params.Publisher.RevenuePerSubscriber)
		s.Publishers = append(s.Publishers, pub)
	}

	s.precomputeDistances()
}

// sampleRadius draws a publisher's coverage radius from {1,2,3}, weighted
// toward larger radii the denser the publisher's own cell is.
func (s *Simulation) sampleRadius(cellDensity int) int {
	weights := []float64{1, float64(1 + cellDensity), float64(1 + 2*cellDensity)}
	total := weights[0] + weights[1] + weights[2]
	r := s.RNG.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return i + 1
		}
	}
	return 3
}

// precomputeDistances fills distances[pos][pub_id] = the minimum
// hex-distance from pos to any cell within that publisher's
// radius-neighborhood.
func (s *Simulation) precomputeDistances() {
	for _, cell := range allCoords(s.Grid) {
		s.distances[cell] = make(map[content.PublisherID]int)
	}
	for _, pub := range s.Publishers {
		neighborhood := s.Grid.Radius(pub.Location, pub.Radius)
		for _, cell := range allCoords(s.Grid) {
			min := -1
			for _, n := range neighborhood {
				d := spatial.Distance(cell, n)
				if min == -1 || d < min {
					min = d
				}
			}
			s.distances[cell][pub.ID] = min
		}
	}
}

// precomputeRelevancies sets each Agent's Relevancies map from the
// precomputed distance table.
func (s *Simulation) precomputeRelevancies() {
	for i, a := range s.Agents {
		cell := s.cellOf[i]
		for _, pub := range s.Publishers {
			dist := s.distances[cell][pub.ID]
			a.Relevancies[pub.ID] = 1 - numeric.Sigmoid(2*float64(dist)-4)
		}
	}
}

// formNetwork wires every agent into the social network via
// preferential attachment with locality.
func (s *Simulation) formNetwork() {
	eTotal := 0
	loc := locator{sim: s}
	for i := range s.Agents {
		s.Network.BuildPreferentialAttachment(s.RNG, i, len(s.Agents), maxFriends, loc, &eTotal)
	}
}

// createPlatforms builds n empty Platforms.
func (s *Simulation) createPlatforms(n int) {
	for i := 0; i < n; i++ {
		id := content.PlatformID(i)
		s.Platforms = append(s.Platforms, platform.New(id, len(s.Agents), s.Params.MaxConversionRate))
	}
}

func (s *Simulation) cellDensity() map[spatial.Coord]int {
	density := make(map[spatial.Coord]int)
	for _, c := range s.cellOf {
		density[c]++
	}
	return density
}

func allCoords(g *spatial.HexGrid) []spatial.Coord {
	out := make([]spatial.Coord, 0, g.Rows*g.Cols)
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			out = append(out, spatial.Coord{Row: r, Col: c})
		}
	}
	return out
}

// weightedCellSample samples one cell from cells with weight w(cell).
func weightedCellSample(rng *rand.Rand, cells []spatial.Coord, w func(spatial.Coord) float64) spatial.Coord {
	total := 0.0
	for _, c := range cells {
		total += w(c)
	}
	if total <= 0 {
		return cells[rng.Intn(len(cells))]
	}
	r := rng.Float64() * total
	for _, c := range cells {
		r -= w(c)
		if r <= 0 {
			return c
		}
	}
	return cells[len(cells)-1]
}
