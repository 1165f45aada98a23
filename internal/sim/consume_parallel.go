package sim

import (
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/niceyeti/mediaworld/internal/agent"
	"github.com/niceyeti/mediaworld/internal/atomicx"
	"github.com/niceyeti/mediaworld/internal/content"
)

// pendingShare and pendingSignup buffer a worker's writes to the
// otherwise shared shareQueues/agentPlatforms maps, applied serially
// once every worker has returned so those maps see no concurrent
// writer during the parallel region.
type pendingShare struct {
	owner content.AgentID
	sc    content.SharedContent
}

type pendingSignup struct {
	id  content.AgentID
	pid content.PlatformID
}

// shareAccumulator is a concurrency-safe map[K]float64: a mutex guards
// only the rare first-insert of a key, so the actual per-tick
// accumulation goes through atomicx.Float64's lock-free CAS loop.
type shareAccumulator[K comparable] struct {
	mu sync.Mutex
	m  map[K]*atomicx.Float64
}

func newShareAccumulator[K comparable]() *shareAccumulator[K] {
	return &shareAccumulator[K]{m: make(map[K]*atomicx.Float64)}
}

func (a *shareAccumulator[K]) add(key K, delta float64) {
	a.mu.Lock()
	v, ok := a.m[key]
	if !ok {
		v = atomicx.NewFloat64(0)
		a.m[key] = v
	}
	a.mu.Unlock()
	v.Add(delta)
}

func (a *shareAccumulator[K]) snapshot() map[K]float64 {
	out := make(map[K]float64, len(a.m))
	for k, v := range a.m {
		out[k] = v.Load()
	}
	return out
}

// workerResult is one partitioned worker's contribution to a tick's
// consume phase, merged back into the tick-global maps after
// errgroup.Wait() returns.
type workerResult struct {
	subDeltas    map[content.AgentID]agent.ConsumeResult
	followDeltas map[content.AgentID]agent.ConsumeResult
	shares       []pendingShare
	signups      []pendingSignup
}

// consumePhaseParallel is consumePhase's errgroup-partitioned
// counterpart, selected when Params.ParallelConsume is set: agent
// indices are split into one contiguous slice per CPU, each worker
// carries its own RNG substream (seed XOR agent id) so draws are
// independent of goroutine scheduling order, and platform-data/ad-
// revenue totals commute through shareAccumulator's atomicx.Float64
// entries. Follow-edits and newly shared content are buffered per
// worker and only applied to the Simulation's own maps after every
// worker has returned, so buildFeedWith's reads of those maps never
// race a concurrent writer. See SPEC_FULL.md §5.
func (s *Simulation) consumePhaseParallel() (
	subDeltas map[content.AgentID]agent.ConsumeResult,
	followDeltas map[content.AgentID]agent.ConsumeResult,
	platformData map[content.PlatformID]float64,
	revenue map[content.Sharer]float64,
) {
	params := consumeParams(s.Params)

	workers := runtime.NumCPU()
	if workers > len(s.Agents) {
		workers = len(s.Agents)
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (len(s.Agents) + workers - 1) / workers

	platformAcc := newShareAccumulator[content.PlatformID]()
	revenueAcc := newShareAccumulator[content.Sharer]()
	results := make([]workerResult, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(s.Agents) {
			hi = len(s.Agents)
		}
		if lo >= hi {
			continue
		}

		w, lo, hi := w, lo, hi
		g.Go(func() error {
			local := workerResult{
				subDeltas:    make(map[content.AgentID]agent.ConsumeResult, hi-lo),
				followDeltas: make(map[content.AgentID]agent.ConsumeResult, hi-lo),
			}
			for i := lo; i < hi; i++ {
				a := s.Agents[i]
				rng := rand.New(rand.NewSource(s.seed ^ int64(a.ID)))

				feed, signups := s.buildFeedWith(i, rng)
				local.signups = append(local.signups, signups...)

				result := a.Consume(rng, feed, params)
				local.subDeltas[a.ID] = result
				local.followDeltas[a.ID] = result
				for pid, d := range result.PlatformData {
					platformAcc.add(pid, d)
				}
				for owner, r := range result.AdRevenue {
					revenueAcc.add(owner, r)
				}
				for _, sc := range result.ToShare {
					local.shares = append(local.shares, pendingShare{owner: a.ID, sc: sc})
				}
			}
			results[w] = local
			return nil
		})
	}
	_ = g.Wait()

	subDeltas = make(map[content.AgentID]agent.ConsumeResult, len(s.Agents))
	followDeltas = make(map[content.AgentID]agent.ConsumeResult, len(s.Agents))
	for _, r := range results {
		for id, v := range r.subDeltas {
			subDeltas[id] = v
		}
		for id, v := range r.followDeltas {
			followDeltas[id] = v
		}
		for _, p := range r.signups {
			s.enqueueSignupIntent(p.id, p.pid)
		}
		for _, sh := range r.shares {
			s.pushShare(sh.owner, sh.sc)
		}
	}

	platformData = platformAcc.snapshot()
	revenue = revenueAcc.snapshot()
	return
}
