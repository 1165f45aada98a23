// Package learner implements the k-arm bandit with EWMA value estimates
// that every Agent and Publisher uses to pick its own behavioral knobs
// (how deep, how spectacular, how much to advertise, how much attention to
// spend; how much quality, how much to advertise).
package learner

import (
	"math/rand"

	"github.com/niceyeti/mediaworld/internal/numeric"
)

// Arm is one discrete setting of a learned knob, with an EWMA estimate of
// the reward it has produced.
type Arm struct {
	Value float64
	Est   float64
}

// Knob is a single k-arm bandit over [min,max], discretized into arms+1
// evenly spaced arms.
type Knob struct {
	arms    []Arm
	current int
}

// NewKnob builds a Knob spanning [min,max] with arms+1 discrete settings,
// starting at the midpoint arm.
func NewKnob(min, max float64, arms int) *Knob {
	k := &Knob{arms: make([]Arm, arms+1)}
	step := (max - min) / float64(arms)
	for i := range k.arms {
		k.arms[i] = Arm{Value: min + step*float64(i)}
	}
	k.current = len(k.arms) / 2
	return k
}

// Value returns the knob's current setting.
func (k *Knob) Value() float64 {
	return k.arms[k.current].Value
}

// Learn folds reward into the currently selected arm's EWMA estimate.
func (k *Knob) Learn(reward float64) {
	a := &k.arms[k.current]
	a.Est = numeric.Ewma(reward, a.Est)
}

// Decide resamples the active arm, weighted by max(0, est+1)^2 so arms with
// a track record of success are favored; an arm whose estimate is at or
// below -1 gets weight 0 and is not picked (unless every weight is 0, in
// which case the arm is drawn uniformly).
func (k *Knob) Decide(rng *rand.Rand) {
	weights := make([]float64, len(k.arms))
	total := 0.0
	for i, a := range k.arms {
		w := a.Est + 1
		if w < 0 {
			w = 0
		}
		w *= w
		weights[i] = w
		total += w
	}
	if total <= 0 {
		k.current = rng.Intn(len(k.arms))
		return
	}
	r := rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			k.current = i
			return
		}
	}
	k.current = len(k.arms) - 1
}

// Agent is the 4-knob compound learner an Agent uses: depth, spectacle,
// ads, attention.
type Agent struct {
	Depth     *Knob
	Spectacle *Knob
	Ads       *Knob
	Attention *Knob
}

// NewAgent builds the agent-side compound learner. arms is the per-knob arm
// count (spec's S); each knob spans the range appropriate to its knob.
func NewAgent(arms int) *Agent {
	return &Agent{
		Depth:     NewKnob(0, 1, arms),
		Spectacle: NewKnob(0, 1, arms),
		Ads:       NewKnob(0, 1, arms),
		Attention: NewKnob(0, 1, arms),
	}
}

// Learn feeds reward to every knob currently selected.
func (a *Agent) Learn(reward float64) {
	a.Depth.Learn(reward)
	a.Spectacle.Learn(reward)
	a.Ads.Learn(reward)
	a.Attention.Learn(reward)
}

// Decide resamples every knob.
func (a *Agent) Decide(rng *rand.Rand) {
	a.Depth.Decide(rng)
	a.Spectacle.Decide(rng)
	a.Ads.Decide(rng)
	a.Attention.Decide(rng)
}

// Publisher is the 2-knob compound learner a Publisher uses: quality, ads.
type Publisher struct {
	Quality *Knob
	Ads     *Knob
}

// NewPublisher builds the publisher-side compound learner.
func NewPublisher(arms int) *Publisher {
	return &Publisher{
		Quality: NewKnob(0, 1, arms),
		Ads:     NewKnob(0, 1, arms),
	}
}

// Learn feeds reward to both knobs.
func (p *Publisher) Learn(reward float64) {
	p.Quality.Learn(reward)
	p.Ads.Learn(reward)
}

// Decide resamples both knobs.
func (p *Publisher) Decide(rng *rand.Rand) {
	p.Quality.Decide(rng)
	p.Ads.Decide(rng)
}
