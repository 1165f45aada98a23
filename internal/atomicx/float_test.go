package atomicx

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFloat64(t *testing.T) {
	Convey("Given a Float64 initialized to 1.5", t, func() {
		f := NewFloat64(1.5)

		Convey("Load returns the initial value", func() {
			So(f.Load(), ShouldEqual, 1.5)
		})

		Convey("Store overwrites it", func() {
			f.Store(2.0)
			So(f.Load(), ShouldEqual, 2.0)
		})

		Convey("Add accumulates", func() {
			f.Add(0.5)
			So(f.Load(), ShouldEqual, 2.0)
		})

		Convey("Concurrent Add calls all land", func() {
			var wg sync.WaitGroup
			for i := 0; i < 100; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					f.Add(1.0)
				}()
			}
			wg.Wait()
			So(f.Load(), ShouldEqual, 101.5)
		})
	})
}
