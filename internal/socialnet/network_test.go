package socialnet

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFollowUnfollow(t *testing.T) {
	Convey("Given an empty network of 5 nodes", t, func() {
		n := New(5)

		Convey("Follow creates a directed edge and updates in-degree", func() {
			n.Follow(0, 1)
			So(n.Follows(0, 1), ShouldBeTrue)
			So(n.Follows(1, 0), ShouldBeFalse)
			So(n.FollowerCount(1), ShouldEqual, 1)
		})

		Convey("Following a node twice is a no-op", func() {
			n.Follow(0, 1)
			n.Follow(0, 1)
			So(n.Following(0), ShouldResemble, []int{1})
			So(n.FollowerCount(1), ShouldEqual, 1)
		})

		Convey("A node cannot follow itself", func() {
			n.Follow(0, 0)
			So(n.Follows(0, 0), ShouldBeFalse)
		})

		Convey("Unfollow removes the edge and in-degree", func() {
			n.Follow(0, 1)
			n.Unfollow(0, 1)
			So(n.Follows(0, 1), ShouldBeFalse)
			So(n.FollowerCount(1), ShouldEqual, 0)
		})

		Convey("UnfollowAll clears every out-edge of a node", func() {
			n.Follow(0, 1)
			n.Follow(0, 2)
			n.UnfollowAll(0)
			So(n.Following(0), ShouldBeEmpty)
			So(n.FollowerCount(1), ShouldEqual, 0)
			So(n.FollowerCount(2), ShouldEqual, 0)
		})

		Convey("Grow appends usable nodes at the end of the id space", func() {
			n.Follow(0, 1)
			n.Grow(2)
			n.Follow(5, 0)
			So(n.Follows(5, 0), ShouldBeTrue)
			So(n.FollowerCount(0), ShouldEqual, 1)
			So(n.Following(5), ShouldResemble, []int{0})
		})
	})
}

type uniformLocator struct{}

func (uniformLocator) Similarity(a, b int) float64  { return 0.5 }
func (uniformLocator) SameLocation(a, b int) bool { return a%2 == b%2 }

func TestBuildPreferentialAttachment(t *testing.T) {
	Convey("Given a 50-node network", t, func() {
		n := New(50)
		rng := rand.New(rand.NewSource(1))
		eTotal := 0

		Convey("It creates at most maxFriends edges and never self-loops", func() {
			n.BuildPreferentialAttachment(rng, 0, 50, 120, uniformLocator{}, &eTotal)
			for _, b := range n.Following(0) {
				So(b, ShouldNotEqual, 0)
			}
			So(len(n.Following(0)), ShouldBeLessThanOrEqualTo, 120)
		})
	})
}
