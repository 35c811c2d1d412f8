package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/techmatch/internal/domain/dedupe"
	"github.com/okian/techmatch/internal/domain/model"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When a key is recorded twice", func() {
			d := dedupe.NewInMemoryDeduper()
			first := d.SeenAndRecord(ctx, "p1|f1|16")
			second := d.SeenAndRecord(ctx, "p1|f1|16")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a key is forgotten", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(ctx, "k")
			d.Forget(ctx, "k")
			d.Forget(ctx, "never-recorded")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "k"), ShouldBeFalse)
			})
		})

		Convey("When the size cap is reached", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for _, k := range []string{"a", "b", "c", "d"} {
				So(d.SeenAndRecord(ctx, k), ShouldBeFalse)
			}

			Convey("Then the oldest key is evicted and the rest are kept", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "d"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})

		Convey("When eviction is disabled", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("k-%d", i))
			}

			Convey("Then every key is kept", func() {
				So(d.Size(), ShouldEqual, 1000)
				So(d.SeenAndRecord(ctx, "k-0"), ShouldBeTrue)
			})
		})

		Convey("When a window is configured", func() {
			now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
			d := dedupe.NewInMemoryDeduper(
				dedupe.WithWindow(time.Minute),
				dedupe.WithClock(func() time.Time { return now }),
			)
			d.SeenAndRecord(ctx, "k")

			Convey("Then a repeat inside the window is suppressed", func() {
				now = now.Add(30 * time.Second)
				So(d.SeenAndRecord(ctx, "k"), ShouldBeTrue)
			})

			Convey("Then a repeat after the window goes through", func() {
				now = now.Add(2 * time.Minute)
				So(d.SeenAndRecord(ctx, "k"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper shared by many goroutines", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const workers = 10
		const perWorker = 100

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < perWorker; j++ {
					// Every worker races on the same keys.
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("k-%d", j)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is recorded exactly once", func() {
			So(fresh, ShouldEqual, perWorker)
			So(d.Size(), ShouldEqual, perWorker)
		})
	})
}

func TestEventKey(t *testing.T) {
	Convey("Given match events between the same parties", t, func() {
		base := model.MatchEvent{SubjectID: "p1", CounterpartID: "f1", Score: 0.8}

		Convey("Then nearby scores share a key", func() {
			near := base
			near.Score = 0.81
			So(dedupe.EventKey(near, 0.05), ShouldEqual, dedupe.EventKey(base, 0.05))
		})

		Convey("Then a material score change yields a new key", func() {
			moved := base
			moved.Score = 1.0
			So(dedupe.EventKey(moved, 0.05), ShouldNotEqual, dedupe.EventKey(base, 0.05))
		})

		Convey("Then swapping parties yields a new key", func() {
			swapped := base
			swapped.SubjectID, swapped.CounterpartID = "f1", "p1"
			So(dedupe.EventKey(swapped, 0.05), ShouldNotEqual, dedupe.EventKey(base, 0.05))
		})

		Convey("Then a non-positive width falls back to the default", func() {
			So(dedupe.EventKey(base, 0), ShouldEqual, dedupe.EventKey(base, dedupe.DefaultBucketWidth))
		})
	})
}
