package dedupe

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given an in-memory deduper", t, func() {
		d := NewInMemoryDeduper()
		ctx := context.Background()

		Convey("When recording a new id", func() {
			seen := d.SeenAndRecord(ctx, "evt-1")

			Convey("Then it reports not seen and the size grows", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When recording the same id twice", func() {
			first := d.SeenAndRecord(ctx, "evt-1")
			second := d.SeenAndRecord(ctx, "evt-1")

			Convey("Then only the second call reports seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When recording distinct ids", func() {
			for i := 0; i < 10; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("evt-%d", i)), ShouldBeFalse)
			}

			Convey("Then all are retained", func() {
				So(d.Size(), ShouldEqual, 10)
			})
		})
	})
}

func TestUnrecord(t *testing.T) {
	Convey("Given a deduper with a recorded id", t, func() {
		d := NewInMemoryDeduper()
		ctx := context.Background()
		d.SeenAndRecord(ctx, "evt-1")

		Convey("When the id is unrecorded", func() {
			d.Unrecord(ctx, "evt-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "evt-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			d.Unrecord(ctx, "evt-missing")

			Convey("Then the size is unchanged", func() {
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a deduper bounded to 3 entries", t, func() {
		d := NewInMemoryDeduper(WithMaxSize(3))
		ctx := context.Background()

		Convey("When a fourth id is recorded", func() {
			for _, id := range []string{"a", "b", "c", "d"} {
				d.SeenAndRecord(ctx, id)
			}

			Convey("Then the oldest id is evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
			})

			Convey("Then the newer ids survive", func() {
				So(d.SeenAndRecord(ctx, "c"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
			})
		})

		Convey("When an unrecorded id left a dead slot", func() {
			d.SeenAndRecord(ctx, "a")
			d.SeenAndRecord(ctx, "b")
			d.Unrecord(ctx, "a")
			d.SeenAndRecord(ctx, "c")
			d.SeenAndRecord(ctx, "d")
			d.SeenAndRecord(ctx, "e")

			Convey("Then eviction skips the dead slot and drops the oldest live id", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "b"), ShouldBeFalse)
			})
		})
	})
}

func TestUnrecordChurn(t *testing.T) {
	Convey("Given a bounded deduper under record/unrecord churn", t, func() {
		d := NewInMemoryDeduper(WithMaxSize(64)).(*inMemoryDeduper)
		ctx := context.Background()

		for i := 0; i < 4; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("keep-%d", i))
		}

		Convey("When transient ids churn below capacity", func() {
			for i := 0; i < 1000; i++ {
				id := fmt.Sprintf("churn-%d", i)
				d.SeenAndRecord(ctx, id)
				d.Unrecord(ctx, id)
			}

			Convey("Then dead slots are compacted away", func() {
				So(len(d.order), ShouldBeLessThan, 64)
			})

			Convey("Then the persistent ids are still recorded", func() {
				So(d.Size(), ShouldEqual, 4)
				for i := 0; i < 4; i++ {
					So(d.SeenAndRecord(ctx, fmt.Sprintf("keep-%d", i)), ShouldBeTrue)
				}
			})
		})
	})
}

func TestConcurrentAccess(t *testing.T) {
	Convey("Given concurrent writers racing on the same ids", t, func() {
		d := NewInMemoryDeduper()
		ctx := context.Background()

		const workers = 8
		const ids = 100

		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < ids; i++ {
					if !d.SeenAndRecord(ctx, fmt.Sprintf("evt-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is recorded exactly once", func() {
			So(fresh, ShouldEqual, ids)
			So(d.Size(), ShouldEqual, ids)
		})
	})
}
