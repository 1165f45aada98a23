// Package agent implements Agent: opinion/interest state, resources,
// attention, trust maps, subscriptions, and the per-tick
// produce/try-produce/consume/learn logic.
package agent

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/niceyeti/mediaworld/internal/container"
	"github.com/niceyeti/mediaworld/internal/content"
	"github.com/niceyeti/mediaworld/internal/learner"
	"github.com/niceyeti/mediaworld/internal/numeric"
	"github.com/niceyeti/mediaworld/internal/simparams"
	"github.com/niceyeti/mediaworld/internal/spatial"
)

const (
	recentContentCapacity = 10
	seenContentCapacity   = 100
	learnerArms            = 8

	// costSigma is the spread of the cost-of-production draw; the spec
	// gives the shape (normal_p scaled by max_attention) but not this
	// constant, so it is fixed here as a single tunable.
	costSigma = 1.0
)

// PublisherMemory is what an Agent remembers about one Publisher it has
// seen content from: accumulated trust and how long it has been since
// that publisher last appeared in the Agent's feed.
type PublisherMemory struct {
	Trust          float64
	StepsSinceSeen int
}

// Agent is one member of the population.
type Agent struct {
	ID       content.AgentID
	Interests numeric.Vec2 // fixed at creation
	Values    numeric.Vec2 // mutable via influence

	Motive   simparams.Motive
	Location spatial.Coord

	AttentionBudget float64
	MediaLiteracy   float64
	Resources       float64
	Expenses        float64

	Reach float64

	Subscriptions map[content.PublisherID]bool
	Publishers    map[content.PublisherID]*PublisherMemory
	Trust         map[content.AgentID]float64

	Publishability   float64
	Publishabilities map[content.PublisherID]float64
	Relevancies      map[content.PublisherID]float64

	Content     *container.LimitedQueue[*content.Content]
	SeenContent *container.LimitedSet[uuid.UUID]

	Learner *learner.Agent
}

// New constructs an Agent with fixed interests/location and the given
// starting motive and attention budget. Mutable maps start empty; a
// Simulation populates Relevancies at construction time.
func New(id content.AgentID, interests numeric.Vec2, motive simparams.Motive, loc spatial.Coord, attentionBudget, mediaLiteracy float64) *Agent {
	return &Agent{
		ID:               id,
		Interests:        interests,
		Values:           numeric.Vec2{},
		Motive:           motive,
		Location:         loc,
		AttentionBudget:  attentionBudget,
		MediaLiteracy:    mediaLiteracy,
		Subscriptions:    make(map[content.PublisherID]bool),
		Publishers:       make(map[content.PublisherID]*PublisherMemory),
		Trust:            make(map[content.AgentID]float64),
		Publishabilities: make(map[content.PublisherID]float64),
		Relevancies:      make(map[content.PublisherID]float64),
		Content:          container.NewLimitedQueue[*content.Content](recentContentCapacity),
		SeenContent:      container.NewLimitedSet[uuid.UUID](seenContentCapacity),
		Learner:          learner.NewAgent(learnerArms),
	}
}

// Produce is a pure function of state+RNG: it samples a ContentBody
// tightly clustered around the Agent's own values and interests, at a
// cost proportional to maxAttention.
func (a *Agent) Produce(rng *rand.Rand, maxAttention float64) content.ContentBody {
	depth := a.Learner.Depth.Value()
	return content.ContentBody{
		Cost:      numeric.NormalP(rng, costSigma) * maxAttention,
		Depth:     depth,
		Spectacle: a.Learner.Spectacle.Value(),
		Quality:   depth,
		Topics:    numeric.TightAroundTopic(rng, a.Interests),
		Values:    numeric.TightAroundValue(rng, a.Values),
	}
}

// TryProduce gates Produce behind an affordability check and a
// reach-dependent production probability. On success it deducts the
// quality cost into Expenses and returns the produced body.
func (a *Agent) TryProduce(rng *rand.Rand, population int, costPerQuality float64) (content.ContentBody, bool) {
	depth := a.Learner.Depth.Value()
	spectacle := a.Learner.Spectacle.Value()
	required := (depth + spectacle) * costPerQuality
	if a.Resources < required {
		return content.ContentBody{}, false
	}
	pProduce := numeric.Sigmoid(18 * (a.Reach/float64(population) - 0.2))
	if rng.Float64() >= pProduce {
		return content.ContentBody{}, false
	}
	a.Resources -= required
	a.Expenses += required
	return a.Produce(rng, a.AttentionBudget), true
}

// UpdateReach folds the mean live share count of this agent's own recent
// content into its EWMA reach estimate, the same update Publisher runs
// over its own queue.
func (a *Agent) UpdateReach() {
	items := a.Content.Items()
	if len(items) == 0 {
		a.Reach = numeric.Ewma(0, a.Reach)
		return
	}
	sum := int64(0)
	for _, c := range items {
		sum += c.Shares()
	}
	a.Reach = numeric.Ewma(float64(sum)/float64(len(items)), a.Reach)
}

// FeedItem is one entry in the read-list consume() walks: the
// SharedContent itself, tagged with the Platform it arrived via, if any.
type FeedItem struct {
	Platform *content.PlatformID
	Shared   content.SharedContent
}

// ConsumeResult aggregates everything a consume pass decided, for the
// Simulation to fold into its tick-global accumulators.
type ConsumeResult struct {
	ToShare      []content.SharedContent
	NewSubs      []content.PublisherID
	Unsubs       []content.PublisherID
	Follows      []content.AgentID
	Unfollows    []content.AgentID
	PlatformData map[content.PlatformID]float64
	AdRevenue    map[content.Sharer]float64

	// AttentionRemaining is what was left of the Agent's AttentionBudget
	// when the feed walk stopped, for callers (and tests) to verify the
	// attention-budget invariant without reaching into Consume's local
	// state: it is never negative, since an item is only charged against
	// attentionRemaining after a check that it's affordable.
	AttentionRemaining float64
}

// ConsumeParams is the subset of simulation-wide tunables Consume needs.
type ConsumeParams struct {
	GravityStretch   float64
	MaxInfluence     float64
	RevenuePerAd     float64
	DefaultTrust     float64
	FollowTrust      float64
	UnfollowTrust    float64
	SubscribeTrust   float64
	UnsubscribeTrust float64
	UnsubscribeLag   int
	DataPerConsume   float64
}

// Consume is the hardest function in the model: it walks the feed in
// order, updating trust, values, follow/subscribe intent, platform data
// and ad revenue as it goes, stopping once attention is exhausted.
func (a *Agent) Consume(rng *rand.Rand, feed []FeedItem, p ConsumeParams) ConsumeResult {
	result := ConsumeResult{
		PlatformData: make(map[content.PlatformID]float64),
		AdRevenue:    make(map[content.Sharer]float64),
	}
	seenPublisherThisTick := make(map[content.PublisherID]bool)
	attentionRemaining := a.AttentionBudget

	for _, item := range feed {
		c := item.Shared.Content
		body := c.Body

		if c.Author == a.ID {
			continue
		}
		// Deliberate earliest-exhaustion semantics: the first item this
		// tick's attention can't afford ends the walk outright, rather
		// than being skipped over in favor of cheaper items later in
		// the feed.
		if attentionRemaining < body.Cost {
			break
		}
		if a.SeenContent.Contains(c.ID) {
			continue
		}
		a.SeenContent.Add(c.ID)

		affinity := numeric.Similarity(a.Interests, body.Topics)
		align := numeric.Alignment(a.Values, body.Values)
		appeal := a.MediaLiteracy*body.Depth + (1-a.MediaLiteracy)*body.Spectacle
		react := affinity * absf(align) * minf(appeal, 1)

		var effectiveTrust float64
		if c.Publisher != nil {
			pubID := *c.Publisher
			seenPublisherThisTick[pubID] = true
			relevancy := a.Relevancies[pubID]
			mem := a.publisherMemory(pubID, p.DefaultTrust)
			mem.Trust = maxf(0, numeric.Ewma(((affinity+relevancy)/2)*align/(c.Ads/10+1), mem.Trust))
			if c.Ads > 0 {
				result.AdRevenue[content.Sharer{Kind: content.SharerPublisher, ID: int(pubID)}] += c.Ads * p.RevenuePerAd
			}
			react *= relevancy
			effectiveTrust = mem.Trust
		} else {
			if c.Ads > 0 {
				result.AdRevenue[content.Sharer{Kind: content.SharerAgent, ID: int(c.Author)}] += c.Ads * p.RevenuePerAd
			}
		}

		if rng.Float64() < react {
			result.ToShare = append(result.ToShare, content.SharedContent{
				Content: c,
				Sharer:  content.Sharer{Kind: content.SharerAgent, ID: int(a.ID)},
			})
		}

		sharer := item.Shared.Sharer
		sharerTrust := p.DefaultTrust
		if sharer.Kind == content.SharerAgent {
			sharerTrust = a.trustOf(content.AgentID(sharer.ID), p.DefaultTrust)
			a.Trust[content.AgentID(sharer.ID)] = maxf(0, numeric.Ewma(affinity*align, sharerTrust))
		}

		if c.Publisher == nil {
			authorTrust := a.trustOf(c.Author, p.DefaultTrust)
			newAuthorTrust := maxf(0, numeric.Ewma(affinity*align, authorTrust))
			a.Trust[c.Author] = newAuthorTrust
			effectiveTrust = (sharerTrust + newAuthorTrust) / 2
			if newAuthorTrust < p.UnfollowTrust {
				result.Unfollows = append(result.Unfollows, c.Author)
			} else if newAuthorTrust > p.FollowTrust {
				result.Follows = append(result.Follows, c.Author)
			}
		}

		a.Values = influence(a.Values, body.Values, p.GravityStretch, p.MaxInfluence, effectiveTrust, affinity)

		if item.Platform != nil {
			result.PlatformData[*item.Platform] += p.DataPerConsume
		}

		attentionRemaining -= body.Cost
		if attentionRemaining <= 0 {
			break
		}
	}

	for pubID := range a.Subscriptions {
		mem := a.publisherMemory(pubID, p.DefaultTrust)
		if seenPublisherThisTick[pubID] {
			mem.StepsSinceSeen = 0
		} else {
			mem.StepsSinceSeen++
		}
	}
	for pubID, mem := range a.Publishers {
		if mem.StepsSinceSeen >= p.UnsubscribeLag || mem.Trust < p.UnsubscribeTrust {
			result.Unsubs = append(result.Unsubs, pubID)
		} else if mem.Trust > p.SubscribeTrust {
			result.NewSubs = append(result.NewSubs, pubID)
		}
	}

	result.AttentionRemaining = attentionRemaining
	return result
}

// influence pulls v's components toward target, scaled by trust and
// affinity, then clamps to the legal value range.
func influence(v, target numeric.Vec2, stretch, max, trust, affinity float64) numeric.Vec2 {
	scale := trust * affinity
	return numeric.ClampValue(numeric.Vec2{
		X: v.X + numeric.Gravity(v.X, target.X, stretch, max)*scale,
		Y: v.Y + numeric.Gravity(v.Y, target.Y, stretch, max)*scale,
	})
}

func (a *Agent) publisherMemory(id content.PublisherID, defaultTrust float64) *PublisherMemory {
	mem, ok := a.Publishers[id]
	if !ok {
		mem = &PublisherMemory{Trust: defaultTrust}
		a.Publishers[id] = mem
	}
	return mem
}

func (a *Agent) trustOf(id content.AgentID, defaultTrust float64) float64 {
	if t, ok := a.Trust[id]; ok {
		return t
	}
	return defaultTrust
}

// Learn computes a motive-specific reward from this tick's revenue and
// feeds the compound learner, resampling its knobs when shouldUpdate.
func (a *Agent) Learn(rng *rand.Rand, revenue float64, shouldUpdate bool) {
	profit := revenue - a.Expenses
	var reward float64
	switch a.Motive {
	case simparams.MotiveCivic:
		reward = a.Reach*a.Learner.Depth.Value() + minf(0, profit)
	case simparams.MotiveInfluence:
		reward = a.Reach + minf(0, profit)
	default:
		reward = profit
	}
	a.Learner.Learn(reward)
	if shouldUpdate {
		a.Learner.Decide(rng)
	}
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
