package publisher

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/niceyeti/mediaworld/internal/content"
	"github.com/niceyeti/mediaworld/internal/numeric"
	"github.com/niceyeti/mediaworld/internal/spatial"
)

func newTestPublisher() *Publisher {
	return New(content.PublisherID(1), spatial.Coord{}, 2, 100, 0.01)
}

func TestPitch(t *testing.T) {
	Convey("Given a publisher with no budget", t, func() {
		p := newTestPublisher()
		p.Budget = 0
		rng := rand.New(rand.NewSource(1))

		Convey("Pitch rejects for affordability before sampling acceptance", func() {
			paid := 0.0
			_, reason := p.Pitch(rng, content.ContentBody{Quality: 0.5}, content.AgentID(1), func(v float64) { paid = v }, 1.0)
			So(reason, ShouldEqual, RejectCouldNotAfford)
			So(paid, ShouldEqual, 0)
		})
	})

	Convey("Given a well-funded publisher and an aligned audience", t, func() {
		p := newTestPublisher()
		p.Budget = 1000
		rng := rand.New(rand.NewSource(2))

		body := content.ContentBody{
			Quality: 0.3,
			Topics:  numeric.Vec2{X: 0.5, Y: 0.5},
			Values:  numeric.Vec2{X: 0, Y: 0},
		}

		Convey("Acceptance pays the author and returns boosted Content", func() {
			var paid float64
			c, reason := p.Pitch(rng, body, content.AgentID(1), func(v float64) { paid = v }, 1.0)
			if reason == "" {
				So(c, ShouldNotBeNil)
				So(paid, ShouldBeGreaterThan, 0)
				So(c.Quality, ShouldBeGreaterThanOrEqualTo, body.Quality)
			}
		})
	})
}

func TestUpdateReach(t *testing.T) {
	Convey("Given a publisher with an empty content queue", t, func() {
		p := newTestPublisher()

		Convey("UpdateReach pulls reach toward zero", func() {
			p.Reach = 10
			p.UpdateReach()
			So(p.Reach, ShouldBeLessThan, 10)
		})
	})
}

func TestLearn(t *testing.T) {
	Convey("Given a publisher with expenses exceeding revenue", t, func() {
		p := newTestPublisher()
		p.Expenses = 10
		rng := rand.New(rand.NewSource(3))

		Convey("Learn does not panic on a negative reward", func() {
			p.Learn(rng, 2, true)
			So(p.Quality(), ShouldBeBetweenOrEqual, 0, 1)
		})
	})
}
