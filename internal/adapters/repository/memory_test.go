package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creatorscore/engine/internal/adapters/repository"
	"github.com/creatorscore/engine/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryDecisionStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty decision store", t, func() {
		store := repository.NewMemoryStore()

		Convey("When no decision has been recorded", func() {
			_, err := store.Get(ctx, "anyone")

			Convey("Then lookups return ErrNotFound", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a creator opts in", func() {
			err := store.Record(ctx, model.Decision{
				TalentUUID: "alice",
				Status:     model.DecisionOptedIn,
			})
			So(err, ShouldBeNil)

			Convey("Then the decision is readable with a timestamp", func() {
				d, err := store.Get(ctx, "alice")
				So(err, ShouldBeNil)
				So(d.Status, ShouldEqual, model.DecisionOptedIn)
				So(d.DecidedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When a creator opts out", func() {
			So(store.Record(ctx, model.Decision{
				TalentUUID: "bob",
				Status:     model.DecisionOptedOut,
			}), ShouldBeNil)

			Convey("Then opting back in is rejected as final", func() {
				err := store.Record(ctx, model.Decision{
					TalentUUID: "bob",
					Status:     model.DecisionOptedIn,
				})
				So(errors.Is(err, repository.ErrDecisionFinal), ShouldBeTrue)
			})

			Convey("And re-recording the same opt-out is idempotent", func() {
				So(store.Record(ctx, model.Decision{
					TalentUUID: "bob",
					Status:     model.DecisionOptedOut,
				}), ShouldBeNil)
			})
		})

		Convey("When recording garbage", func() {
			Convey("Then an empty talent uuid is rejected", func() {
				err := store.Record(ctx, model.Decision{Status: model.DecisionOptedIn})
				So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
			})

			Convey("And an unknown status is rejected", func() {
				err := store.Record(ctx, model.Decision{TalentUUID: "x", Status: "maybe"})
				So(errors.Is(err, repository.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When several decisions exist", func() {
			So(store.Record(ctx, model.Decision{TalentUUID: "a", Status: model.DecisionOptedIn}), ShouldBeNil)
			So(store.Record(ctx, model.Decision{TalentUUID: "b", Status: model.DecisionOptedOut}), ShouldBeNil)

			Convey("Then All returns them keyed by talent uuid", func() {
				all, err := store.All(ctx)
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 2)
				So(all["b"].Status, ShouldEqual, model.DecisionOptedOut)
			})
		})
	})
}

func TestMemorySnapshotStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty snapshot store", t, func() {
		store := repository.NewMemoryStore()

		Convey("Then Latest reports ErrNotFound", func() {
			_, err := store.Latest(ctx)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When two snapshots are saved", func() {
			older := repository.Snapshot{
				CreatedAt: time.Now().Add(-time.Hour),
				Entries:   []model.RankedEntry{{ScoredEntry: model.ScoredEntry{ID: "old"}}},
			}
			newer := repository.Snapshot{
				CreatedAt: time.Now(),
				Entries:   []model.RankedEntry{{ScoredEntry: model.ScoredEntry{ID: "new"}, Rank: 1}},
			}
			So(store.Save(ctx, older), ShouldBeNil)
			So(store.Save(ctx, newer), ShouldBeNil)

			Convey("Then Latest returns the newer one with an assigned ID", func() {
				got, err := store.Latest(ctx)
				So(err, ShouldBeNil)
				So(got.Entries[0].ID, ShouldEqual, "new")
				So(got.ID.String(), ShouldNotEqual, "00000000-0000-0000-0000-000000000000")
			})
		})
	})
}
