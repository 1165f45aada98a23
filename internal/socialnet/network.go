// Package socialnet implements the directed follow graph agents are wired
// into at startup and mutate over the course of a run (follow/unfollow
// decisions made during consumption).
package socialnet

import "math/rand"

// Network is a directed graph over dense integer node ids. It tracks both
// out-edges (who a node follows) and in-degree (how many follow it), since
// both are queried every tick: out-edges to build a feed, in-degree as a
// preferential-attachment weight and a popularity signal.
type Network struct {
	following [][]int        // following[a] = sorted-by-insertion list of who a follows
	index     []map[int]bool // index[a][b] = a follows b, for O(1) existence check
	indeg     []int
}

// New returns an empty Network sized for n nodes (ids 0..n-1).
func New(n int) *Network {
	net := &Network{
		following: make([][]int, n),
		index:     make([]map[int]bool, n),
		indeg:     make([]int, n),
	}
	for i := range net.index {
		net.index[i] = make(map[int]bool)
	}
	return net
}

// Grow extends the network by extra nodes, appended after the current
// highest id, for policies that add population mid-run.
func (n *Network) Grow(extra int) {
	for i := 0; i < extra; i++ {
		n.following = append(n.following, nil)
		n.index = append(n.index, make(map[int]bool))
		n.indeg = append(n.indeg, 0)
	}
}

// Follows reports whether a follows b.
func (n *Network) Follows(a, b int) bool {
	return n.index[a][b]
}

// Follow adds the edge a->b. A no-op if it already exists or a==b.
func (n *Network) Follow(a, b int) {
	if a == b || n.index[a][b] {
		return
	}
	n.index[a][b] = true
	n.following[a] = append(n.following[a], b)
	n.indeg[b]++
}

// Unfollow removes the edge a->b. A no-op if it does not exist.
func (n *Network) Unfollow(a, b int) {
	if !n.index[a][b] {
		return
	}
	delete(n.index[a], b)
	n.indeg[b]--
	for i, v := range n.following[a] {
		if v == b {
			n.following[a] = append(n.following[a][:i], n.following[a][i+1:]...)
			break
		}
	}
}

// UnfollowAll removes every edge a->*.
func (n *Network) UnfollowAll(a int) {
	for _, b := range n.following[a] {
		n.indeg[b]--
	}
	n.following[a] = nil
	n.index[a] = make(map[int]bool)
}

// Following returns the ids a currently follows. The returned slice is
// owned by the caller.
func (n *Network) Following(a int) []int {
	out := make([]int, len(n.following[a]))
	copy(out, n.following[a])
	return out
}

// FollowerCount returns how many nodes follow b.
func (n *Network) FollowerCount(b int) int {
	return n.indeg[b]
}

// Locator answers the two inputs preferential-attachment-with-locality
// needs beyond the graph itself: an interest-similarity score and a
// same-location predicate between two nodes.
type Locator interface {
	Similarity(a, b int) float64
	SameLocation(a, b int) bool
}

// BuildPreferentialAttachment wires a into the network using "preferential
// attachment with locality": for up to maxFriends candidates sampled
// uniformly from [0,n), create edge a->b with probability
// (sim(a,b) + indeg(b)/eTotal + same_location)/3, skipping candidates
// already followed. eTotal is the running total edge count across the
// whole construction process; this function increments it after every
// edge it creates (order-independence is not required; ties are broken by
// sampler order, matching the spec).
func (n *Network) BuildPreferentialAttachment(
	rng *rand.Rand,
	a int,
	numNodes int,
	maxFriends int,
	loc Locator,
	eTotal *int,
) {
	for i := 0; i < maxFriends; i++ {
		b := rng.Intn(numNodes)
		if b == a || n.Follows(a, b) {
			continue
		}
		indegTerm := 0.0
		if *eTotal > 0 {
			indegTerm = float64(n.FollowerCount(b)) / float64(*eTotal)
		}
		sameLoc := 0.0
		if loc.SameLocation(a, b) {
			sameLoc = 1.0
		}
		p := (loc.Similarity(a, b) + indegTerm + sameLoc) / 3.0
		if rng.Float64() < p {
			n.Follow(a, b)
			*eTotal++
		}
	}
}
