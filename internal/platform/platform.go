// Package platform implements Platform: a signup-gated directed follow
// graph over Agents, plus the accumulated behavioral "data" that feeds its
// advertising conversion rate.
package platform

import (
	"github.com/niceyeti/mediaworld/internal/content"
	"github.com/niceyeti/mediaworld/internal/numeric"
	"github.com/niceyeti/mediaworld/internal/socialnet"
)

// Platform wraps a private social network keyed by Agent id. Signup is a
// precondition for every other operation: an Agent must sign up before it
// can appear in the follow graph or contribute data.
type Platform struct {
	ID                content.PlatformID
	MaxConversionRate float64

	signedUp map[content.AgentID]bool
	net      *socialnet.Network
	idByNode map[content.AgentID]int
	agentIDs []content.AgentID

	data float64
}

// New returns an empty Platform with capacity for up to n agents to sign
// up (the network backing store is sized for the whole population since
// any agent may join at any time).
func New(id content.PlatformID, n int, maxConversionRate float64) *Platform {
	return &Platform{
		ID:                id,
		MaxConversionRate: maxConversionRate,
		signedUp:          make(map[content.AgentID]bool),
		net:               socialnet.New(n),
		idByNode:          make(map[content.AgentID]int),
	}
}

// Grow extends the platform's backing network by extra nodes, for when
// AddPopulation admits new agents into a run with platforms already
// founded.
func (p *Platform) Grow(extra int) {
	p.net.Grow(extra)
}

func (p *Platform) nodeOf(a content.AgentID) int {
	if id, ok := p.idByNode[a]; ok {
		return id
	}
	id := len(p.agentIDs)
	p.idByNode[a] = id
	p.agentIDs = append(p.agentIDs, a)
	return id
}

// Signup registers a as a member. Re-signup is a no-op.
func (p *Platform) Signup(a content.AgentID) {
	if p.signedUp[a] {
		return
	}
	p.signedUp[a] = true
	p.nodeOf(a)
}

// IsSignedUp reports whether a has signed up.
func (p *Platform) IsSignedUp(a content.AgentID) bool {
	return p.signedUp[a]
}

// Follow creates a follow edge a->b. Both must already be signed up;
// otherwise this is a no-op.
func (p *Platform) Follow(a, b content.AgentID) {
	if !p.signedUp[a] || !p.signedUp[b] {
		return
	}
	p.net.Follow(p.nodeOf(a), p.nodeOf(b))
}

// Unfollow removes the follow edge a->b, if present.
func (p *Platform) Unfollow(a, b content.AgentID) {
	if !p.signedUp[a] || !p.signedUp[b] {
		return
	}
	p.net.Unfollow(p.nodeOf(a), p.nodeOf(b))
}

// FollowingIDs returns the agent ids a currently follows on this platform.
func (p *Platform) FollowingIDs(a content.AgentID) []content.AgentID {
	if !p.signedUp[a] {
		return nil
	}
	nodes := p.net.Following(p.nodeOf(a))
	out := make([]content.AgentID, len(nodes))
	for i, nd := range nodes {
		out[i] = p.agentIDs[nd]
	}
	return out
}

// NUsers returns the number of signed-up agents.
func (p *Platform) NUsers() int {
	return len(p.signedUp)
}

// NFollowers returns how many signed-up agents follow b on this platform.
func (p *Platform) NFollowers(b content.AgentID) int {
	if !p.signedUp[b] {
		return 0
	}
	return p.net.FollowerCount(p.nodeOf(b))
}

// AddData folds in a non-negative increment of behavioral data. Data is
// monotonically non-decreasing within a run; a negative or zero delta is
// ignored rather than silently violating that invariant.
func (p *Platform) AddData(delta float64) {
	if delta <= 0 {
		return
	}
	p.data += delta
}

// Data returns the accumulated behavioral data.
func (p *Platform) Data() float64 {
	return p.data
}

// ConversionRate derives the platform's current ad conversion rate from
// its accumulated data.
func (p *Platform) ConversionRate() float64 {
	return numeric.Sigmoid(p.data-0.5) * p.MaxConversionRate
}
