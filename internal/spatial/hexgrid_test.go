package spatial

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAdjacent(t *testing.T) {
	Convey("Given a 10x10 grid", t, func() {
		g := New(10, 10)

		Convey("An interior cell has 6 neighbors", func() {
			n := g.Adjacent(Coord{Row: 5, Col: 5})
			So(len(n), ShouldEqual, 6)
		})

		Convey("A corner cell has fewer neighbors, all in bounds", func() {
			n := g.Adjacent(Coord{Row: 0, Col: 0})
			So(len(n), ShouldBeLessThan, 6)
			for _, c := range n {
				So(g.InBounds(c), ShouldBeTrue)
			}
		})
	})
}

func TestRadius(t *testing.T) {
	Convey("Given a 20x20 grid", t, func() {
		g := New(20, 20)
		p := Coord{Row: 10, Col: 10}

		Convey("Radius 0 is just the point itself", func() {
			So(g.Radius(p, 0), ShouldResemble, []Coord{p})
		})

		Convey("Radius grows monotonically", func() {
			r1 := g.Radius(p, 1)
			r2 := g.Radius(p, 2)
			So(len(r2), ShouldBeGreaterThan, len(r1))
		})
	})
}

func TestDistance(t *testing.T) {
	Convey("Distance from a point to itself is 0", t, func() {
		p := Coord{Row: 3, Col: 4}
		So(Distance(p, p), ShouldEqual, 0)
	})

	Convey("Distance to an immediate neighbor is 1", t, func() {
		g := New(10, 10)
		p := Coord{Row: 4, Col: 4}
		for _, n := range g.Adjacent(p) {
			So(Distance(p, n), ShouldEqual, 1)
		}
	})

	Convey("Distance is symmetric", t, func() {
		a := Coord{Row: 1, Col: 1}
		b := Coord{Row: 6, Col: 2}
		So(Distance(a, b), ShouldEqual, Distance(b, a))
	})
}
