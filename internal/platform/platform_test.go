package platform

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/niceyeti/mediaworld/internal/content"
)

func TestSignup(t *testing.T) {
	Convey("Given a fresh Platform", t, func() {
		p := New(content.PlatformID(1), 10, 0.2)

		Convey("An agent is not signed up until Signup is called", func() {
			So(p.IsSignedUp(content.AgentID(1)), ShouldBeFalse)
			p.Signup(content.AgentID(1))
			So(p.IsSignedUp(content.AgentID(1)), ShouldBeTrue)
			So(p.NUsers(), ShouldEqual, 1)
		})

		Convey("Re-signup is a no-op", func() {
			p.Signup(content.AgentID(1))
			p.Signup(content.AgentID(1))
			So(p.NUsers(), ShouldEqual, 1)
		})
	})
}

func TestFollowGate(t *testing.T) {
	Convey("Given two agents, only one signed up", t, func() {
		p := New(content.PlatformID(1), 10, 0.2)
		p.Signup(content.AgentID(1))

		Convey("Follow is a no-op unless both are signed up", func() {
			p.Follow(content.AgentID(1), content.AgentID(2))
			So(p.FollowingIDs(content.AgentID(1)), ShouldBeEmpty)
		})

		Convey("Follow succeeds once both are signed up", func() {
			p.Signup(content.AgentID(2))
			p.Follow(content.AgentID(1), content.AgentID(2))
			So(p.FollowingIDs(content.AgentID(1)), ShouldResemble, []content.AgentID{content.AgentID(2)})
			So(p.NFollowers(content.AgentID(2)), ShouldEqual, 1)
		})
	})
}

func TestGrow(t *testing.T) {
	Convey("Given a platform sized for 2 agents", t, func() {
		p := New(content.PlatformID(1), 2, 0.2)
		p.Signup(content.AgentID(0))
		p.Signup(content.AgentID(1))

		Convey("Grow admits agents beyond the original capacity", func() {
			p.Grow(1)
			p.Signup(content.AgentID(2))
			p.Follow(content.AgentID(2), content.AgentID(0))
			So(p.FollowingIDs(content.AgentID(2)), ShouldResemble, []content.AgentID{content.AgentID(0)})
		})
	})
}

func TestConversionRate(t *testing.T) {
	Convey("Given a platform with zero data", t, func() {
		p := New(content.PlatformID(1), 10, 0.5)

		Convey("Conversion rate is below the max at data=0", func() {
			So(p.ConversionRate(), ShouldBeLessThan, 0.5)
		})

		Convey("Data only ever increases", func() {
			p.AddData(1.0)
			first := p.Data()
			p.AddData(-5.0)
			So(p.Data(), ShouldEqual, first)
		})

		Convey("Conversion rate never exceeds max_conversion_rate", func() {
			p.AddData(1000)
			So(p.ConversionRate(), ShouldBeLessThanOrEqualTo, 0.5)
		})
	})
}
