// Package publisher implements Publisher: budget, audience-belief
// priors, pitch acceptance, audience survey, reach update, and learner.
package publisher

import (
	"math/rand"
	"sort"

	"github.com/niceyeti/mediaworld/internal/container"
	"github.com/niceyeti/mediaworld/internal/content"
	"github.com/niceyeti/mediaworld/internal/learner"
	"github.com/niceyeti/mediaworld/internal/numeric"
	"github.com/niceyeti/mediaworld/internal/spatial"
)

const (
	recentContentCapacity = 50
	learnerArms            = 6
)

// Prior2D is a pair of independent Bayesian normal priors, one per
// dimension of a 2-vector (values or interests).
type Prior2D struct {
	X, Y numeric.BayesianPrior
}

// update folds a sample of xs/ys into the prior, dimension-wise.
func (p Prior2D) update(xs, ys []float64) Prior2D {
	mx, vx := numeric.SampleMeanVar(xs)
	my, vy := numeric.SampleMeanVar(ys)
	return Prior2D{
		X: numeric.UpdateBayesian(p.X, mx, vx),
		Y: numeric.UpdateBayesian(p.Y, my, vy),
	}
}

// Mean returns the prior's current mean as a Vec2.
func (p Prior2D) Mean() numeric.Vec2 {
	return numeric.Vec2{X: p.X.Mean, Y: p.Y.Mean}
}

// Audience is a Publisher's belief about its readership, as independent
// priors over their values and interests.
type Audience struct {
	Values    Prior2D
	Interests Prior2D
}

// Publisher is one content intermediary: it accepts or rejects pitches,
// amplifies accepted content with its own quality/ads knobs, and refines
// its audience beliefs from what gets shared.
type Publisher struct {
	ID       content.PublisherID
	Location spatial.Coord
	Radius   int

	Budget               float64
	Expenses             float64
	RevenuePerSubscriber float64

	Reach          float64
	Subscribers    int
	NAdsSold       int
	NLastPublished int

	Content  *container.LimitedQueue[*content.Content]
	Audience Audience

	Learner *learner.Publisher
}

// New constructs a Publisher with the given starting budget, located at
// loc with the given spatial relevance radius.
func New(id content.PublisherID, loc spatial.Coord, radius int, baseBudget, revenuePerSubscriber float64) *Publisher {
	return &Publisher{
		ID:                   id,
		Location:             loc,
		Radius:               radius,
		Budget:               baseBudget,
		RevenuePerSubscriber: revenuePerSubscriber,
		Content:              container.NewLimitedQueue[*content.Content](recentContentCapacity),
		Learner:              learner.NewPublisher(learnerArms),
	}
}

// Quality returns the publisher's current learned quality knob.
func (p *Publisher) Quality() float64 { return p.Learner.Quality.Value() }

// Ads returns the publisher's current learned ad-slot knob.
func (p *Publisher) Ads() float64 { return p.Learner.Ads.Value() }

// PitchRejectReason enumerates why a pitch was turned down, for callers
// that want to distinguish "could not afford" (an EWMA(0, ...) signal for
// the author's publishability estimate) from a plain Bernoulli rejection.
type PitchRejectReason string

const (
	RejectCouldNotAfford PitchRejectReason = "could_not_afford"
	RejectNotAccepted    PitchRejectReason = "not_accepted"
)

// Pitch evaluates an author's ContentBody for publication. On acceptance
// it pays the author out of its own budget and returns a new Content
// whose quality/ads are boosted by the publisher's own learned knobs.
func (p *Publisher) Pitch(rng *rand.Rand, body content.ContentBody, author content.AgentID, payAuthor func(float64), costPerQuality float64) (*content.Content, PitchRejectReason) {
	required := (p.Quality() + body.Quality) * costPerQuality
	if p.Budget < required {
		return nil, RejectCouldNotAfford
	}

	readerSim := (numeric.Similarity(body.Topics, p.Audience.Interests.Mean()) +
		(numeric.Alignment(body.Values, p.Audience.Values.Mean())/2 + 0.5)) / 2
	pAccept := numeric.Sigmoid(8 * (readerSim - 0.5))
	if rng.Float64() >= pAccept {
		return nil, RejectNotAccepted
	}

	pay := body.Quality * costPerQuality
	p.Budget -= pay
	p.Expenses += pay
	payAuthor(pay)

	id := p.ID
	return content.New(author, &id, p.Ads(), body.Quality+p.Quality(), body), ""
}

// contentEntry pairs a queued Content with the share count to sort on,
// captured at survey time rather than re-read mid-sort for stability.
type contentEntry struct {
	c      *content.Content
	shares int64
}

// AudienceSurvey samples up to k of the most-shared recently queued
// Content and updates the audience priors against the sample.
func (p *Publisher) AudienceSurvey(k int) {
	items := p.Content.Items()
	entries := make([]contentEntry, len(items))
	for i, c := range items {
		entries[i] = contentEntry{c: c, shares: c.Shares()}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].shares > entries[j].shares })
	if len(entries) > k {
		entries = entries[:k]
	}

	valuesX := make([]float64, len(entries))
	valuesY := make([]float64, len(entries))
	topicsX := make([]float64, len(entries))
	topicsY := make([]float64, len(entries))
	for i, e := range entries {
		valuesX[i] = e.c.Body.Values.X
		valuesY[i] = e.c.Body.Values.Y
		topicsX[i] = e.c.Body.Topics.X
		topicsY[i] = e.c.Body.Topics.Y
	}
	p.Audience.Values = p.Audience.Values.update(valuesX, valuesY)
	p.Audience.Interests = p.Audience.Interests.update(topicsX, topicsY)
}

// UpdateReach folds the mean share count of the retained content queue
// into the EWMA reach estimate; an empty queue pulls reach toward 0.
func (p *Publisher) UpdateReach() {
	items := p.Content.Items()
	if len(items) == 0 {
		p.Reach = numeric.Ewma(0, p.Reach)
		return
	}
	sum := int64(0)
	for _, c := range items {
		sum += c.Shares()
	}
	mean := float64(sum) / float64(len(items))
	p.Reach = numeric.Ewma(mean, p.Reach)
}

// Learn computes profit = revenue - expenses and feeds the 2-knob
// compound learner, resampling it when shouldUpdate.
func (p *Publisher) Learn(rng *rand.Rand, revenue float64, shouldUpdate bool) {
	reward := revenue - p.Expenses
	p.Learner.Learn(reward)
	if shouldUpdate {
		p.Learner.Decide(rng)
	}
}
