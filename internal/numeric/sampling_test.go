package numeric

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalRange(t *testing.T) {
	Convey("Given a seeded RNG", t, func() {
		rng := rand.New(rand.NewSource(1))

		Convey("NormalRange always respects its bounds", func() {
			for i := 0; i < 1000; i++ {
				v := NormalRange(rng, 0.5, 1.0, 0, 1)
				So(v, ShouldBeGreaterThanOrEqualTo, 0)
				So(v, ShouldBeLessThanOrEqualTo, 1)
			}
		})
	})
}

func TestNormalP(t *testing.T) {
	Convey("NormalP is never negative", t, func() {
		rng := rand.New(rand.NewSource(2))
		for i := 0; i < 1000; i++ {
			So(NormalP(rng, 1.0), ShouldBeGreaterThanOrEqualTo, 0)
		}
	})
}

func TestTightAround(t *testing.T) {
	Convey("TightAroundTopic stays within the legal topic range", t, func() {
		rng := rand.New(rand.NewSource(3))
		mu := Vec2{X: 0.1, Y: 0.9}
		for i := 0; i < 200; i++ {
			v := TightAroundTopic(rng, mu)
			So(v.X, ShouldBeBetweenOrEqual, 0, 1)
			So(v.Y, ShouldBeBetweenOrEqual, 0, 1)
		}
	})

	Convey("TightAroundValue stays within the legal value range", t, func() {
		rng := rand.New(rand.NewSource(4))
		mu := Vec2{X: -0.9, Y: 0.9}
		for i := 0; i < 200; i++ {
			v := TightAroundValue(rng, mu)
			So(v.X, ShouldBeBetweenOrEqual, -1, 1)
			So(v.Y, ShouldBeBetweenOrEqual, -1, 1)
		}
	})
}

func TestUpdateBayesian(t *testing.T) {
	Convey("A confident prior dominates a noisy sample", t, func() {
		prior := BayesianPrior{Mean: 0.5, Var: 0.001}
		post := UpdateBayesian(prior, 0.9, 1.0)
		So(post.Mean, ShouldBeLessThan, 0.6)
	})

	Convey("Posterior variance never exceeds either input variance", t, func() {
		prior := BayesianPrior{Mean: 0, Var: 0.2}
		post := UpdateBayesian(prior, 1, 0.2)
		So(post.Var, ShouldBeLessThanOrEqualTo, prior.Var)
	})
}

func TestSampleMeanVar(t *testing.T) {
	Convey("Empty input yields (0,0)", t, func() {
		mean, v := SampleMeanVar(nil)
		So(mean, ShouldEqual, 0)
		So(v, ShouldEqual, 0)
	})

	Convey("Uniform input has zero variance", t, func() {
		mean, v := SampleMeanVar([]float64{2, 2, 2})
		So(mean, ShouldEqual, 2)
		So(v, ShouldEqual, 0)
	})
}

func TestBeta(t *testing.T) {
	Convey("Beta samples land in [0,1]", t, func() {
		rng := rand.New(rand.NewSource(5))
		for i := 0; i < 500; i++ {
			v := Beta(rng, 2, 5)
			So(v, ShouldBeGreaterThanOrEqualTo, 0)
			So(v, ShouldBeLessThanOrEqualTo, 1)
		}
	})

	Convey("Degenerate parameters return 0", t, func() {
		rng := rand.New(rand.NewSource(6))
		So(Beta(rng, 0, 5), ShouldEqual, 0)
	})
}

func TestBinomial(t *testing.T) {
	Convey("Binomial never exceeds n", t, func() {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 200; i++ {
			v := Binomial(rng, 10, 0.5)
			So(v, ShouldBeGreaterThanOrEqualTo, 0)
			So(v, ShouldBeLessThanOrEqualTo, 10)
		}
	})

	Convey("p=0 always returns 0", t, func() {
		rng := rand.New(rand.NewSource(8))
		So(Binomial(rng, 10, 0), ShouldEqual, 0)
	})

	Convey("p>=1 always returns n", t, func() {
		rng := rand.New(rand.NewSource(9))
		So(Binomial(rng, 10, 1), ShouldEqual, 10)
	})
}
