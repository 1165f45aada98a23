package sim

import (
	"math/rand"
	"sort"

	"github.com/niceyeti/mediaworld/internal/agent"
	"github.com/niceyeti/mediaworld/internal/content"
	"github.com/niceyeti/mediaworld/internal/numeric"
	"github.com/niceyeti/mediaworld/internal/simparams"
)

// newContentEntry pairs a freshly created Content with its owning kind
// for ad-market pricing and distribution.
type newContentEntry struct {
	c      *content.Content
	ads    float64 // owner's current ads knob, used to size ad_slots
	authorIdx int
	pubIdx    int // -1 if self-published
}

// Tick advances the simulation by exactly one step: produce, ad-market,
// distribute, consume, follow-edit application, publisher post-step,
// revenue distribution, platform data, signups.
func (s *Simulation) Tick() {
	s.clearTickScopedQueues()

	newContent := s.producePhase()
	s.adMarketPhase(newContent)
	s.distributePhase(newContent)

	var subDeltas, followDeltas map[content.AgentID]agent.ConsumeResult
	var platformData map[content.PlatformID]float64
	var revenue map[content.Sharer]float64
	if s.Params.ParallelConsume {
		subDeltas, followDeltas, platformData, revenue = s.consumePhaseParallel()
	} else {
		subDeltas, followDeltas, platformData, revenue = s.consumePhase()
	}

	s.applyFollowEdits(followDeltas)
	s.publishersPostStep(subDeltas)
	s.revenueDistributionPhase(revenue)
	s.platformDataPhase(platformData)
	s.signupsPhase()

	s.Step++
}

// clearTickScopedQueues drops last tick's share queues and outboxes,
// decrementing each Content's live share count for every reference
// removed.
func (s *Simulation) clearTickScopedQueues() {
	for id, queue := range s.shareQueues {
		for _, sc := range queue {
			sc.Content.RemoveShare()
		}
		delete(s.shareQueues, id)
	}
	for id, outbox := range s.outboxes {
		for _, sc := range outbox {
			sc.Content.RemoveShare()
		}
		delete(s.outboxes, id)
	}
}

// producePhase walks agents in index order: try_produce, then pitch to
// publishers ranked by expected value, falling back to self-publish.
func (s *Simulation) producePhase() []newContentEntry {
	var fresh []newContentEntry
	stats := TickStats{}

	type candidate struct {
		idx int
		ev  float64
	}

	for i, a := range s.Agents {
		body, ok := a.TryProduce(s.RNG, len(s.Agents), s.Params.CostPerQuality)
		if !ok {
			continue
		}
		stats.Produced++

		published := false
		if a.Publishability > 0.2 {
			var candidates []candidate
			for pi, pub := range s.Publishers {
				est := a.Publishabilities[pub.ID]
				if est >= 0.1 {
					candidates = append(candidates, candidate{idx: pi, ev: est * pub.Reach})
				}
			}
			sort.Slice(candidates, func(x, y int) bool { return candidates[x].ev > candidates[y].ev })

			if len(candidates) > 0 {
				stats.Pitched++
			}
			for _, cand := range candidates {
				pub := s.Publishers[cand.idx]
				pubID := pub.ID
				c, reason := pub.Pitch(s.RNG, body, a.ID, func(pay float64) { a.Resources += pay }, s.Params.CostPerQuality)
				if reason == "" {
					a.Publishabilities[pubID] = numeric.Ewma(1, a.Publishabilities[pubID])
					a.Publishability = numeric.Ewma(1, a.Publishability)
					fresh = append(fresh, newContentEntry{c: c, ads: pub.Ads(), authorIdx: i, pubIdx: cand.idx})
					published = true
					stats.Published++
					break
				}
				if reason != "could_not_afford" {
					a.Publishabilities[pubID] = numeric.Ewma(0, a.Publishabilities[pubID])
				}
			}
		}

		if !published {
			c := content.New(a.ID, nil, a.Learner.Ads.Value(), body.Quality, body)
			fresh = append(fresh, newContentEntry{c: c, ads: a.Learner.Ads.Value(), authorIdx: i, pubIdx: -1})
		}

		a.UpdateReach()
	}

	s.Stats = stats
	return fresh
}

// platformConversionSum returns the sum of every platform's current
// conversion rate, the denominator term in the ad-market formula.
func (s *Simulation) platformConversionSum() float64 {
	sum := 0.0
	for _, p := range s.Platforms {
		sum += p.ConversionRate()
	}
	return sum
}

// adMarketPhase prices each new Content's ad slots via a Beta draw whose
// shape parameters are set by the owner's acceptance probability and its
// own ad_slots knob.
func (s *Simulation) adMarketPhase(entries []newContentEntry) {
	platformSum := s.platformConversionSum()
	for _, entry := range entries {
		p := s.Params.BaseConversionRate / (s.Params.BaseConversionRate + platformSum)
		p = numeric.Clamp(p, 0.05, 0.95) * minf(s.Params.Economy, 1)

		adSlots := entry.ads
		if adSlots <= 0 {
			continue
		}
		alpha := p * adSlots
		beta := (1 - p) * adSlots
		entry.c.Ads = numeric.Beta(s.RNG, alpha, beta)
	}
}

// distributePhase pushes each new Content onto its author's recent-content
// queue and share queue, and, if publisher-owned, onto the publisher's
// recent queue and outbox too.
func (s *Simulation) distributePhase(entries []newContentEntry) {
	for _, entry := range entries {
		c := entry.c
		author := s.Agents[entry.authorIdx]

		author.Content.Push(c)
		authorShared := content.SharedContent{Content: c, Sharer: content.Sharer{Kind: content.SharerAgent, ID: int(author.ID)}}
		s.pushShare(author.ID, authorShared)

		if entry.pubIdx >= 0 {
			pub := s.Publishers[entry.pubIdx]
			pub.Content.Push(c)
			pub.NLastPublished++
			pubShared := content.SharedContent{Content: c, Sharer: content.Sharer{Kind: content.SharerPublisher, ID: int(pub.ID)}}
			s.outboxes[pub.ID] = append(s.outboxes[pub.ID], pubShared)
			pubShared.Content.AddShare()
		}

		s.allContent = append(s.allContent, c)
	}
}

func (s *Simulation) pushShare(owner content.AgentID, sc content.SharedContent) {
	s.shareQueues[owner] = append(s.shareQueues[owner], sc)
	sc.Content.AddShare()
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// consumePhase builds each agent's feed and runs Consume serially
// (index order), aggregating the tick-global accumulators every agent's
// result contributes to. See SPEC_FULL.md §5 for the optional
// errgroup-partitioned variant of this same phase.
func (s *Simulation) consumePhase() (
	subDeltas map[content.AgentID]agent.ConsumeResult,
	followDeltas map[content.AgentID]agent.ConsumeResult,
	platformData map[content.PlatformID]float64,
	revenue map[content.Sharer]float64,
) {
	subDeltas = make(map[content.AgentID]agent.ConsumeResult)
	followDeltas = make(map[content.AgentID]agent.ConsumeResult)
	platformData = make(map[content.PlatformID]float64)
	revenue = make(map[content.Sharer]float64)

	params := consumeParams(s.Params)

	for i, a := range s.Agents {
		feed := s.buildFeed(i)
		result := a.Consume(s.RNG, feed, params)

		subDeltas[a.ID] = result
		followDeltas[a.ID] = result
		for pid, d := range result.PlatformData {
			platformData[pid] += d
		}
		for owner, r := range result.AdRevenue {
			revenue[owner] += r
		}
		for _, sc := range result.ToShare {
			s.pushShare(a.ID, sc)
		}
	}

	return
}

// buildFeed assembles agent i's read-list: sampled shares from offline
// friends, every item in subscribed publishers' outboxes, and sampled
// shares from platform followees (tagged with the platform id). Any
// signup intent the "most friends" heuristic produces is applied
// immediately, since the serial consume loop owns agentPlatforms
// outright.
func (s *Simulation) buildFeed(i int) []agent.FeedItem {
	if pid, ok := s.signupIntent(i, s.RNG); ok {
		s.enqueueSignupIntent(s.Agents[i].ID, pid)
	}
	return s.assembleFeed(i, s.RNG)
}

// buildFeedWith is buildFeed's errgroup-safe counterpart: it draws from
// rng instead of s.RNG and returns any signup intent instead of writing
// it to the shared agentPlatforms map, leaving the caller to apply it
// after every worker has finished.
func (s *Simulation) buildFeedWith(i int, rng *rand.Rand) ([]agent.FeedItem, []pendingSignup) {
	var signups []pendingSignup
	if pid, ok := s.signupIntent(i, rng); ok {
		signups = append(signups, pendingSignup{id: s.Agents[i].ID, pid: pid})
	}
	return s.assembleFeed(i, rng), signups
}

func (s *Simulation) assembleFeed(i int, rng *rand.Rand) []agent.FeedItem {
	a := s.Agents[i]
	var feed []agent.FeedItem

	for _, friendIdx := range s.Network.Following(i) {
		friendID := s.Agents[friendIdx].ID
		queue := s.shareQueues[friendID]
		n := numeric.Binomial(rng, len(queue), s.Params.ContactRate)
		for _, sc := range sampleN(rng, queue, n) {
			feed = append(feed, agent.FeedItem{Shared: sc})
		}
	}

	for pubID := range a.Subscriptions {
		for _, sc := range s.outboxes[pubID] {
			feed = append(feed, agent.FeedItem{Shared: sc})
		}
	}

	for idx, plat := range s.Platforms {
		if !plat.IsSignedUp(a.ID) {
			continue
		}
		platformID := content.PlatformID(idx)
		for _, followeeID := range plat.FollowingIDs(a.ID) {
			trust := a.Trust[followeeID]
			queue := s.shareQueues[followeeID]
			n := numeric.Binomial(rng, len(queue), s.Params.ContactRate+trust)
			pid := platformID
			for _, sc := range sampleN(rng, queue, n) {
				feed = append(feed, agent.FeedItem{Platform: &pid, Shared: sc})
			}
		}
	}

	rng.Shuffle(len(feed), func(x, y int) { feed[x], feed[y] = feed[y], feed[x] })
	if len(feed) > s.Params.MaxSharedContent {
		feed = feed[:s.Params.MaxSharedContent]
	}
	return feed
}

// signupIntent implements the "platform with most friends" heuristic:
// an agent not yet at its platform cap joins whichever not-yet-joined
// platform the most of its friends are already on, or, absent any such
// friend, any platform at all with base probability. It is read-only;
// callers decide how to apply the result.
func (s *Simulation) signupIntent(i int, rng *rand.Rand) (pid content.PlatformID, ok bool) {
	a := s.Agents[i]
	if len(s.Platforms) == 0 {
		return 0, false
	}

	signedUpCount := 0
	var candidates []int
	for idx, plat := range s.Platforms {
		if plat.IsSignedUp(a.ID) {
			signedUpCount++
		} else {
			candidates = append(candidates, idx)
		}
	}
	if len(candidates) == 0 || signedUpCount >= s.Params.MaxPlatforms {
		return 0, false
	}

	bestIdx, bestFriends := -1, 0
	for _, idx := range candidates {
		friends := 0
		for _, friendIdx := range s.Network.Following(i) {
			if s.Platforms[idx].IsSignedUp(s.Agents[friendIdx].ID) {
				friends++
			}
		}
		if friends > bestFriends {
			bestFriends = friends
			bestIdx = idx
		}
	}

	switch {
	case bestIdx >= 0:
		return content.PlatformID(bestIdx), true
	case rng.Float64() < s.Params.BaseSignupRate:
		idx := candidates[rng.Intn(len(candidates))]
		return content.PlatformID(idx), true
	default:
		return 0, false
	}
}

func (s *Simulation) enqueueSignupIntent(id content.AgentID, pid content.PlatformID) {
	if s.agentPlatforms[id] == nil {
		s.agentPlatforms[id] = make(map[content.PlatformID]bool)
	}
	s.agentPlatforms[id][pid] = true
}

// consumeParams adapts simparams.Params into the subset agent.Consume
// needs, shared by both the serial and errgroup-partitioned consume
// phases.
func consumeParams(p simparams.Params) agent.ConsumeParams {
	return agent.ConsumeParams{
		GravityStretch:   p.GravityStretch,
		MaxInfluence:     p.MaxInfluence,
		RevenuePerAd:     p.RevenuePerAd,
		DefaultTrust:     p.DefaultTrust,
		FollowTrust:      p.FollowTrust,
		UnfollowTrust:    p.UnfollowTrust,
		SubscribeTrust:   p.SubscribeTrust,
		UnsubscribeTrust: p.UnsubscribeTrust,
		UnsubscribeLag:   p.UnsubscribeLag,
		DataPerConsume:   p.DataPerConsume,
	}
}

// sampleN draws n items from items without replacement, taking the first
// n indices of a random permutation of items.
func sampleN(rng *rand.Rand, items []content.SharedContent, n int) []content.SharedContent {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if n > len(items) {
		n = len(items)
	}
	idx := rng.Perm(len(items))[:n]
	out := make([]content.SharedContent, n)
	for i, id := range idx {
		out[i] = items[id]
	}
	return out
}

// applyFollowEdits applies every agent's follow/unfollow decisions on
// whichever platforms it is signed up to, guarded by is_signed_up.
func (s *Simulation) applyFollowEdits(deltas map[content.AgentID]agent.ConsumeResult) {
	for agentID, result := range deltas {
		for _, target := range result.Follows {
			for _, p := range s.Platforms {
				if p.IsSignedUp(agentID) && p.IsSignedUp(target) {
					p.Follow(agentID, target)
				}
			}
		}
		for _, target := range result.Unfollows {
			for _, p := range s.Platforms {
				if p.IsSignedUp(agentID) {
					p.Unfollow(agentID, target)
				}
			}
		}
	}
}

// publishersPostStep runs each publisher's audience survey and reach
// update, applies every agent's subscription deltas, and adds regular
// revenue plus any active subsidy to budget. Outboxes are not touched
// here; clearTickScopedQueues empties them at the start of the next Tick.
func (s *Simulation) publishersPostStep(deltas map[content.AgentID]agent.ConsumeResult) {
	for agentID, result := range deltas {
		a := s.Agents[int(agentID)]
		for _, pid := range result.NewSubs {
			a.Subscriptions[pid] = true
		}
		for _, pid := range result.Unsubs {
			delete(a.Subscriptions, pid)
		}
	}

	for _, pub := range s.Publishers {
		pub.Subscribers = s.subscriberCount(pub.ID)
		pub.AudienceSurvey(s.Params.ContentSampleSize)
		pub.UpdateReach()
		regularRevenue := float64(pub.Subscribers) * pub.RevenuePerSubscriber
		pub.Budget += regularRevenue + s.Params.Subsidy
	}
}

func (s *Simulation) subscriberCount(pubID content.PublisherID) int {
	count := 0
	for _, a := range s.Agents {
		if a.Subscriptions[pubID] {
			count++
		}
	}
	return count
}

// revenueDistributionPhase applies the advertising tax, credits publisher
// budgets or agent resources, feeds learners, and resets expenses. With
// probability 0.1 per owner, the learner resamples its arms this tick.
func (s *Simulation) revenueDistributionPhase(revenue map[content.Sharer]float64) {
	for owner, r := range revenue {
		net := r * (1 - s.Params.AdvertisingTax)
		shouldUpdate := s.RNG.Float64() < 0.1

		switch owner.Kind {
		case content.SharerPublisher:
			pub := s.Publishers[owner.ID]
			pub.Budget += net
			pub.Learn(s.RNG, net, shouldUpdate)
			pub.Expenses = 0
		case content.SharerAgent:
			a := s.Agents[owner.ID]
			a.Resources += net
			a.Learn(s.RNG, net, shouldUpdate)
			a.Expenses = 0
		}
	}
}

// platformDataPhase folds each platform's accumulated per-tick data into
// its running total.
func (s *Simulation) platformDataPhase(platformData map[content.PlatformID]float64) {
	for pid, d := range platformData {
		if int(pid) < len(s.Platforms) {
			s.Platforms[pid].AddData(d)
		}
	}
}

// signupsPhase processes any pending signup intents queued during
// consume: the agent signs up, follows every already-signed-up friend
// (who follow back), and its membership is recorded.
func (s *Simulation) signupsPhase() {
	for i, a := range s.Agents {
		intents := s.agentPlatforms[a.ID]
		for pid := range intents {
			plat := s.Platforms[pid]
			if !plat.IsSignedUp(a.ID) {
				plat.Signup(a.ID)
				for _, friendIdx := range s.Network.Following(i) {
					friendID := s.Agents[friendIdx].ID
					if plat.IsSignedUp(friendID) {
						plat.Follow(a.ID, friendID)
						plat.Follow(friendID, a.ID)
					}
				}
			}
			delete(intents, pid)
		}
		if len(intents) == 0 {
			delete(s.agentPlatforms, a.ID)
		}
	}
}
