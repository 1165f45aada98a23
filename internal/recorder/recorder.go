// Package recorder mirrors rec.rs's Recorder: a fixed random sample of
// agents drawn once at construction, one JSON snapshot appended per
// tick, and a runs/<timestamp>/ directory written at the end of a run.
package recorder

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/niceyeti/mediaworld/internal/content"
	"github.com/niceyeti/mediaworld/internal/numeric"
	"github.com/niceyeti/mediaworld/internal/sim"
	"github.com/niceyeti/mediaworld/internal/simerr"
)

// sampleFraction is the fixed fraction of the population rec.rs samples
// once at construction (its `sample_size = 0.2 * population`).
const sampleFraction = 0.2

// topContentSize is how many items the top_content field carries, by
// live share count, highest first.
const topContentSize = 10

// Stat is a min/max/mean triple over a per-tick integer distribution.
type Stat struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
}

// FloatStat is a min/max/mean triple over a per-tick float distribution.
type FloatStat struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// AgentSample is one sampled agent's state, recorded every tick.
type AgentSample struct {
	ID             int         `json:"id"`
	Values         numeric.Vec2 `json:"values"`
	Interests      numeric.Vec2 `json:"interests"`
	Publishability float64     `json:"publishability"`
	Resources      float64     `json:"resources"`
	Reach          float64     `json:"reach"`
}

// PublisherStat is one publisher's per-tick standing.
type PublisherStat struct {
	ID          int     `json:"id"`
	Budget      float64 `json:"budget"`
	Quality     float64 `json:"quality"`
	Ads         float64 `json:"ads"`
	Subscribers int     `json:"subscribers"`
	Published   int     `json:"published"`
	Reach       float64 `json:"reach"`
}

// PlatformStat is one platform's per-tick standing.
type PlatformStat struct {
	ID             int     `json:"id"`
	NUsers         int     `json:"n_users"`
	Data           float64 `json:"data"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ContentStat is one content item's live share count, for the
// top_content ranking.
type ContentStat struct {
	ID     string `json:"id"`
	Author int    `json:"author"`
	Shares int64  `json:"shares"`
}

// Snapshot is one tick's recorded state, the JSON object rec.rs's
// `record` builds and appends to history.
type Snapshot struct {
	Step           int             `json:"step"`
	Shares         Stat            `json:"shares"`
	ShareDist      map[int]int     `json:"share_dist"`
	Followers      Stat            `json:"followers"`
	FollowerDist   map[int]int     `json:"follower_dist"`
	ValueShifts    FloatStat       `json:"value_shifts"`
	Publishability FloatStat       `json:"publishability"`
	Resources      FloatStat       `json:"resources"`
	Reach          FloatStat       `json:"reach"`
	Sample         []AgentSample   `json:"sample"`
	Publishers     []PublisherStat `json:"publishers"`
	Platforms      []PlatformStat  `json:"platforms"`
	PProduced      float64         `json:"p_produced"`
	PPitched       float64         `json:"p_pitched"`
	PPublished     float64         `json:"p_published"`
	ToShare        int             `json:"to_share"`
	TopContent     []ContentStat   `json:"top_content"`
}

// runMeta is the small envelope written alongside history in output.json.
type runMeta struct {
	Seed       int64 `json:"seed"`
	Steps      int   `json:"steps"`
	Population int   `json:"population"`
}

// Recorder accumulates one Snapshot per tick over a fixed sample of
// agents chosen once at construction.
type Recorder struct {
	sample     []content.AgentID
	history    []Snapshot
	seed       int64
	steps      int
	population int

	// prevValues holds each agent's Values vector as of the previous
	// Record call, keyed by AgentID, so value-shifts can be computed as
	// a delta rather than a raw per-tick reading. Empty on the first
	// tick, so that tick's shift is reported as 0 for every agent.
	prevValues map[content.AgentID]numeric.Vec2
}

// New draws sampleFraction of sim's population once, without
// replacement, as the agents every Record call reports on.
func New(s *sim.Simulation, rng *rand.Rand, seed int64, steps int) *Recorder {
	n := int(sampleFraction * float64(len(s.Agents)))
	idx := rng.Perm(len(s.Agents))[:n]
	sample := make([]content.AgentID, n)
	for i, id := range idx {
		sample[i] = s.Agents[id].ID
	}
	return &Recorder{sample: sample, seed: seed, steps: steps, population: len(s.Agents)}
}

// Record builds one Snapshot from sim's current state and appends it to
// history. Call once per tick, immediately after Simulation.Tick.
func (r *Recorder) Record(s *sim.Simulation) {
	shares := make([]int, len(s.Agents))
	for i, a := range s.Agents {
		sum := int64(0)
		for _, c := range a.Content.Items() {
			sum += c.Shares()
		}
		shares[i] = int(sum)
	}

	followers := make([]int, len(s.Agents))
	for i := range s.Agents {
		followers[i] = s.Network.FollowerCount(i)
	}

	shifts := make([]float64, len(s.Agents))
	publishability := make([]float64, len(s.Agents))
	resources := make([]float64, len(s.Agents))
	reach := make([]float64, len(s.Agents))
	nextValues := make(map[content.AgentID]numeric.Vec2, len(s.Agents))
	for i, a := range s.Agents {
		if prev, ok := r.prevValues[a.ID]; ok {
			shifts[i] = a.Values.Dist(prev)
		}
		nextValues[a.ID] = a.Values
		publishability[i] = a.Publishability
		resources[i] = a.Resources
		reach[i] = a.Reach
	}
	r.prevValues = nextValues

	sample := make([]AgentSample, 0, len(r.sample))
	byID := make(map[content.AgentID]int, len(s.Agents))
	for i, a := range s.Agents {
		byID[a.ID] = i
	}
	for _, id := range r.sample {
		i, ok := byID[id]
		if !ok {
			continue
		}
		a := s.Agents[i]
		sample = append(sample, AgentSample{
			ID:             int(a.ID),
			Values:         a.Values,
			Interests:      a.Interests,
			Publishability: a.Publishability,
			Resources:      a.Resources,
			Reach:          a.Reach,
		})
	}

	publishers := make([]PublisherStat, len(s.Publishers))
	for i, pub := range s.Publishers {
		publishers[i] = PublisherStat{
			ID:          int(pub.ID),
			Budget:      pub.Budget,
			Quality:     pub.Quality(),
			Ads:         pub.Ads(),
			Subscribers: pub.Subscribers,
			Published:   pub.NLastPublished,
			Reach:       pub.Reach,
		}
	}

	platforms := make([]PlatformStat, len(s.Platforms))
	for i, plat := range s.Platforms {
		platforms[i] = PlatformStat{
			ID:             i,
			NUsers:         plat.NUsers(),
			Data:           plat.Data(),
			ConversionRate: plat.ConversionRate(),
		}
	}

	all := s.AllContent()
	top := make([]ContentStat, len(all))
	for i, c := range all {
		top[i] = ContentStat{ID: c.ID.String(), Author: int(c.Author), Shares: c.Shares()}
	}
	sortContentByShares(top)
	if len(top) > topContentSize {
		top = top[:topContentSize]
	}

	population := len(s.Agents)
	snap := Snapshot{
		Step:           s.Step,
		Shares:         stat(shares),
		ShareDist:      dist(shares),
		Followers:      stat(followers),
		FollowerDist:   dist(followers),
		ValueShifts:    floatStat(shifts),
		Publishability: floatStat(publishability),
		Resources:      floatStat(resources),
		Reach:          floatStat(reach),
		Sample:         sample,
		Publishers:     publishers,
		Platforms:      platforms,
		PProduced:      float64(s.Stats.Produced) / float64(population),
		PPitched:       float64(s.Stats.Pitched) / float64(population),
		PPublished:     float64(s.Stats.Published) / float64(population),
		ToShare:        s.ToShareCount(),
		TopContent:     top,
	}
	r.history = append(r.history, snap)
}

// Snapshot returns the most recently recorded tick's Snapshot, or false
// if Record has not been called yet.
func (r *Recorder) Snapshot() (Snapshot, bool) {
	if len(r.history) == 0 {
		return Snapshot{}, false
	}
	return r.history[len(r.history)-1], true
}

// Save writes runs/<UTC timestamp>/output.json, copies configPath
// beside it as config.yaml, and refreshes the runs/latest symlink, the
// same layout rec.rs::save produces.
func (r *Recorder) Save(runsDir, configPath string) error {
	now := time.Now().UTC().Format("2006.01.02.15.04.05")
	dir := filepath.Join(runsDir, now)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &simerr.IOError{Op: "mkdir " + dir, Err: err}
	}

	payload := struct {
		History []Snapshot `json:"history"`
		Meta    runMeta    `json:"meta"`
	}{
		History: r.history,
		Meta:    runMeta{Seed: r.seed, Steps: r.steps, Population: r.population},
	}

	body, err := gojson.Marshal(payload)
	if err != nil {
		return &simerr.IOError{Op: "marshal snapshot history", Err: err}
	}
	outPath := filepath.Join(dir, "output.json")
	if err := os.WriteFile(outPath, body, 0o644); err != nil {
		return &simerr.IOError{Op: "write " + outPath, Err: err}
	}

	if err := copyFile(configPath, filepath.Join(dir, "config.yaml")); err != nil {
		return &simerr.IOError{Op: "copy config", Err: err}
	}

	latest := filepath.Join(runsDir, "latest")
	_ = os.Remove(latest)
	if err := os.Symlink(now, latest); err != nil {
		return &simerr.IOError{Op: "symlink runs/latest", Err: err}
	}

	fmt.Printf("wrote output to %s\n", dir)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func stat(xs []int) Stat {
	if len(xs) == 0 {
		return Stat{}
	}
	min, max, sum := xs[0], xs[0], 0
	for _, x := range xs {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
		sum += x
	}
	return Stat{Min: min, Max: max, Mean: float64(sum) / float64(len(xs))}
}

func floatStat(xs []float64) FloatStat {
	if len(xs) == 0 {
		return FloatStat{}
	}
	min, max, sum := xs[0], xs[0], 0.0
	for _, x := range xs {
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
		sum += x
	}
	return FloatStat{Min: min, Max: max, Mean: sum / float64(len(xs))}
}

func dist(xs []int) map[int]int {
	d := make(map[int]int)
	for _, x := range xs {
		d[x]++
	}
	return d
}

func sortContentByShares(items []ContentStat) {
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && items[j].Shares > items[j-1].Shares; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}
