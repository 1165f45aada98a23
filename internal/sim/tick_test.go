package sim

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTick(t *testing.T) {
	Convey("Given a freshly constructed Simulation", t, func() {
		s := New(testParams(), 42)

		Convey("Tick advances Step by exactly one", func() {
			s.Tick()
			So(s.Step, ShouldEqual, 1)
		})

		Convey("Running several ticks never panics and keeps Step monotonic", func() {
			for i := 0; i < 5; i++ {
				s.Tick()
			}
			So(s.Step, ShouldEqual, 5)
		})

		Convey("clearTickScopedQueues leaves every live Content's share count consistent", func() {
			s.Tick()
			s.Tick()
			total := int64(0)
			for _, c := range s.allContent {
				total += c.Shares()
			}
			// Every live share-queue and outbox entry holds exactly one share.
			expected := int64(s.ToShareCount())
			for _, outbox := range s.outboxes {
				expected += int64(len(outbox))
			}
			So(total, ShouldEqual, expected)
		})
	})
}

func TestSubscriberCount(t *testing.T) {
	Convey("Given a Simulation with one agent subscribed to one publisher", t, func() {
		s := New(testParams(), 7)
		pubID := s.Publishers[0].ID
		s.Agents[0].Subscriptions[pubID] = true

		Convey("subscriberCount reflects exactly that one subscription", func() {
			So(s.subscriberCount(pubID), ShouldEqual, 1)
		})
	})
}

func TestSignupIntentRespectsMaxPlatforms(t *testing.T) {
	Convey("Given an agent already at its platform cap", t, func() {
		s := New(testParams(), 3)
		a := s.Agents[0]
		s.Params.MaxPlatforms = 1
		s.Platforms[0].Signup(a.ID)

		Convey("signupIntent reports no join for an agent already at cap", func() {
			_, ok := s.signupIntent(0, s.RNG)
			So(ok, ShouldBeFalse)
		})

		Convey("buildFeed does not enqueue a second platform", func() {
			s.buildFeed(0)
			intents := s.agentPlatforms[a.ID]
			So(len(intents), ShouldEqual, 0)
		})
	})
}
