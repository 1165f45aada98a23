package content

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestContentShareCount(t *testing.T) {
	Convey("Given a freshly published Content", t, func() {
		c := New(AgentID(1), nil, 0, 0.5, ContentBody{})

		Convey("It starts with zero shares", func() {
			So(c.Shares(), ShouldEqual, 0)
		})

		Convey("AddShare and RemoveShare track live references", func() {
			c.AddShare()
			c.AddShare()
			So(c.Shares(), ShouldEqual, 2)
			c.RemoveShare()
			So(c.Shares(), ShouldEqual, 1)
		})

		Convey("Concurrent share adds are all counted", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					c.AddShare()
				}()
			}
			wg.Wait()
			So(c.Shares(), ShouldEqual, 50)
		})
	})

	Convey("Two Content instances never collide on id", t, func() {
		a := New(AgentID(1), nil, 0, 0, ContentBody{})
		b := New(AgentID(1), nil, 0, 0, ContentBody{})
		So(a.ID, ShouldNotEqual, b.ID)
	})
}
