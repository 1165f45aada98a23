package container

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLimitedQueue(t *testing.T) {
	Convey("Given a queue of capacity 3", t, func() {
		q := NewLimitedQueue[int](3)

		Convey("Push keeps items newest-first", func() {
			q.Push(1)
			q.Push(2)
			q.Push(3)
			So(q.Items(), ShouldResemble, []int{3, 2, 1})
		})

		Convey("Pushing past capacity truncates the oldest", func() {
			q.Push(1)
			q.Push(2)
			q.Push(3)
			q.Push(4)
			So(q.Items(), ShouldResemble, []int{4, 3, 2})
			So(q.Len(), ShouldEqual, 3)
		})

		Convey("Extend preserves the ordering of its argument", func() {
			q.Extend([]int{1, 2, 3})
			So(q.Items(), ShouldResemble, []int{1, 2, 3})
		})
	})
}

func TestLimitedSet(t *testing.T) {
	Convey("Given a set of capacity 2", t, func() {
		s := NewLimitedSet[string](2)

		Convey("Add and Contains agree", func() {
			s.Add("a")
			So(s.Contains("a"), ShouldBeTrue)
			So(s.Contains("b"), ShouldBeFalse)
		})

		Convey("Adding past capacity evicts FIFO", func() {
			s.Add("a")
			s.Add("b")
			s.Add("c")
			So(s.Contains("a"), ShouldBeFalse)
			So(s.Contains("b"), ShouldBeTrue)
			So(s.Contains("c"), ShouldBeTrue)
			So(s.Len(), ShouldEqual, 2)
		})

		Convey("Re-adding an existing member does not evict", func() {
			s.Add("a")
			s.Add("b")
			s.Add("a")
			So(s.Contains("a"), ShouldBeTrue)
			So(s.Contains("b"), ShouldBeTrue)
			So(s.Len(), ShouldEqual, 2)
		})
	})
}
