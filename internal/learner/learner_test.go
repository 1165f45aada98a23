package learner

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestKnob(t *testing.T) {
	Convey("Given a knob over [0,1] with 4 arms", t, func() {
		k := NewKnob(0, 1, 4)

		Convey("It starts at the midpoint arm", func() {
			So(k.Value(), ShouldEqual, 0.5)
		})

		Convey("Learn updates only the active arm's estimate", func() {
			before := k.arms[k.current].Est
			k.Learn(1.0)
			So(k.arms[k.current].Est, ShouldBeGreaterThan, before)
		})

		Convey("Decide always lands on a valid arm index", func() {
			rng := rand.New(rand.NewSource(42))
			for i := 0; i < 100; i++ {
				k.Decide(rng)
				So(k.current, ShouldBeBetweenOrEqual, 0, len(k.arms)-1)
			}
		})

		Convey("A strongly rewarded arm is favored once other arms are worse", func() {
			rng := rand.New(rand.NewSource(7))
			k.current = 0
			for i := 0; i < 50; i++ {
				k.Learn(10.0)
			}
			hits := 0
			for i := 0; i < 200; i++ {
				k.Decide(rng)
				if k.current == 0 {
					hits++
				}
			}
			So(hits, ShouldBeGreaterThan, 100)
		})
	})
}

func TestAgentLearner(t *testing.T) {
	Convey("Given an agent compound learner", t, func() {
		a := NewAgent(4)
		rng := rand.New(rand.NewSource(1))

		Convey("Learn and Decide touch all four knobs without panicking", func() {
			a.Learn(0.3)
			a.Decide(rng)
			So(a.Depth.Value(), ShouldBeBetweenOrEqual, 0, 1)
			So(a.Spectacle.Value(), ShouldBeBetweenOrEqual, 0, 1)
			So(a.Ads.Value(), ShouldBeBetweenOrEqual, 0, 1)
			So(a.Attention.Value(), ShouldBeBetweenOrEqual, 0, 1)
		})
	})
}

func TestPublisherLearner(t *testing.T) {
	Convey("Given a publisher compound learner", t, func() {
		p := NewPublisher(2)
		rng := rand.New(rand.NewSource(2))

		Convey("Learn and Decide touch both knobs without panicking", func() {
			p.Learn(-0.1)
			p.Decide(rng)
			So(p.Quality.Value(), ShouldBeBetweenOrEqual, 0, 1)
			So(p.Ads.Value(), ShouldBeBetweenOrEqual, 0, 1)
		})
	})
}
