// Package content defines the value objects a piece of content is built
// from: an immutable ContentBody, the published Content wrapping it, and
// SharedContent, the ephemeral per-tick record of one particular share.
package content

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/niceyeti/mediaworld/internal/numeric"
)

// AgentID, PublisherID and PlatformID are dense integers assigned at
// creation; Content gets a uuid instead (see ID) since Policy-driven
// entity creation mid-run (new publishers, population growth) can't
// promise a dense counter stays collision-free against content created
// before and after the policy fires.
type (
	AgentID     int
	PublisherID int
	PlatformID  int
)

// ContentBody is the immutable substance of a piece of content: what an
// Agent actually produced, before any publisher has touched it.
type ContentBody struct {
	Cost      float64
	Depth     float64
	Spectacle float64
	// Quality is the agent's own production quality, consulted by a
	// Publisher's pitch acceptance and cost-to-publish calculation; it
	// tracks Depth, the knob the model treats as the quality proxy.
	Quality float64
	Topics  numeric.Vec2
	Values  numeric.Vec2
}

// Content is a published, shared piece of content. Ads is set once by the
// ad-market step of the tick that created it; after that, its only
// mutable field is the live share count, tracked as an atomic reference
// count rather than a field requiring external synchronization: Content
// is handed out by pointer and referenced concurrently from many agents'
// share queues and publisher outboxes within a tick.
type Content struct {
	ID        uuid.UUID
	Publisher *PublisherID // nil if self-published by the author
	Author    AgentID
	Ads       float64
	Quality   float64
	Body      ContentBody

	shares atomic.Int64
}

// New constructs a Content with a fresh id and zero share count.
func New(author AgentID, publisher *PublisherID, ads, quality float64, body ContentBody) *Content {
	return &Content{
		ID:        uuid.New(),
		Publisher: publisher,
		Author:    author,
		Ads:       ads,
		Quality:   quality,
		Body:      body,
	}
}

// Shares returns the current live share count.
func (c *Content) Shares() int64 {
	return c.shares.Load()
}

// AddShare increments the live share count, called whenever this Content
// is inserted into a share queue or publisher outbox.
func (c *Content) AddShare() {
	c.shares.Add(1)
}

// RemoveShare decrements the live share count, called when an entry
// referencing this Content is evicted from a bounded queue.
func (c *Content) RemoveShare() {
	c.shares.Add(-1)
}

// SharerKind distinguishes the two kinds of entity that can originate a
// share.
type SharerKind int

const (
	SharerAgent SharerKind = iota
	SharerPublisher
)

// Sharer identifies who shared a piece of content this tick.
type Sharer struct {
	Kind SharerKind
	ID   int
}

// SharedContent is the ephemeral, per-tick record of one share: a
// reference to the underlying Content plus who shared it. It is never
// retained past the tick it was produced in.
type SharedContent struct {
	Content *Content
	Sharer  Sharer
}
