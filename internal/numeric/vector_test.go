package numeric

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVec2(t *testing.T) {
	Convey("Given two vectors", t, func() {
		a := Vec2{X: 0, Y: 0}
		b := Vec2{X: 1, Y: 1}

		Convey("Sub and Add are inverses", func() {
			So(a.Add(b).Sub(b), ShouldResemble, a)
		})

		Convey("Dist matches the Euclidean norm", func() {
			So(a.Dist(b), ShouldAlmostEqual, 1.4142135623730951, 1e-9)
		})
	})

	Convey("Given clamp ranges", t, func() {
		Convey("ClampTopic bounds to [0,1]^2", func() {
			v := ClampTopic(Vec2{X: -1, Y: 2})
			So(v.X, ShouldEqual, 0)
			So(v.Y, ShouldEqual, 1)
		})

		Convey("ClampValue bounds to [-1,1]^2", func() {
			v := ClampValue(Vec2{X: -5, Y: 5})
			So(v.X, ShouldEqual, -1)
			So(v.Y, ShouldEqual, 1)
		})
	})
}

func TestSigmoid(t *testing.T) {
	Convey("Sigmoid is centered at 0.5 when x=0", t, func() {
		So(Sigmoid(0), ShouldEqual, 0.5)
	})
	Convey("Sigmoid saturates toward 0 and 1", t, func() {
		So(Sigmoid(-50), ShouldBeLessThan, 0.001)
		So(Sigmoid(50), ShouldBeGreaterThan, 0.999)
	})
}

func TestEwma(t *testing.T) {
	Convey("Ewma weights the new value by EwmaAlpha", t, func() {
		got := Ewma(1.0, 0.0)
		So(got, ShouldEqual, EwmaAlpha)
	})
}

func TestGravity(t *testing.T) {
	Convey("Gravity never overshoots the target", t, func() {
		g := Gravity(0, 1, 2, 0.5)
		So(g, ShouldBeLessThanOrEqualTo, 1)
		So(g, ShouldBeGreaterThan, 0)
	})

	Convey("Gravity preserves the sign of the pull", t, func() {
		g := Gravity(0, -1, 2, 0.5)
		So(g, ShouldBeLessThan, 0)
	})

	Convey("Gravity is zero when a equals b", t, func() {
		So(Gravity(1, 1, 2, 0.5), ShouldEqual, 0)
	})
}

func TestSimilarityAlignment(t *testing.T) {
	Convey("Similarity is 1 for identical interest vectors", t, func() {
		v := Vec2{X: 0.3, Y: 0.7}
		So(Similarity(v, v), ShouldEqual, 1)
	})

	Convey("Alignment is 1 for identical value vectors", t, func() {
		v := Vec2{X: 0.2, Y: -0.4}
		So(Alignment(v, v), ShouldEqual, 1)
	})

	Convey("Alignment is -1 for diametrically opposed values", t, func() {
		So(Alignment(Vec2{X: -1, Y: -1}, Vec2{X: 1, Y: 1}), ShouldAlmostEqual, -1, 1e-9)
	})
}
