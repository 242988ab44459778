package reward_test

import (
	"testing"
	"time"

	"github.com/creatorscore/engine/internal/domain/model"
	"github.com/creatorscore/engine/internal/domain/ranking"
	"github.com/creatorscore/engine/internal/domain/reward"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-9

func rank(t *testing.T, entries []model.ScoredEntry) []model.RankedEntry {
	t.Helper()
	ranked, err := ranking.AssignRanks(entries)
	if err != nil {
		t.Fatalf("assign ranks: %v", err)
	}
	return ranked
}

func optOut(id string) map[string]model.Decision {
	return map[string]model.Decision{
		id: {TalentUUID: id, Status: model.DecisionOptedOut, DecidedAt: time.Now()},
	}
}

func TestAllocate(t *testing.T) {
	pool := model.Pool{TotalAmount: 800, BoostMultiplier: 0.10}

	Convey("Given three creators scored [300, 100, 100] and an 800 pool", t, func() {
		ranked := rank(t, []model.ScoredEntry{
			{ID: "a", Score: 300},
			{ID: "b", Score: 100},
			{ID: "c", Score: 100},
		})

		Convey("When rewards are allocated with no boosts or opt-outs", func() {
			out := reward.Allocate(ranked, pool, nil, nil)

			Convey("Then ranks are [1, 2, 2]", func() {
				So(out[0].Rank, ShouldEqual, 1)
				So(out[1].Rank, ShouldEqual, 2)
				So(out[2].Rank, ShouldEqual, 2)
			})

			Convey("And rewards are [480, 160, 160]", func() {
				So(out[0].BaseReward, ShouldAlmostEqual, 480, epsilon)
				So(out[1].BaseReward, ShouldAlmostEqual, 160, epsilon)
				So(out[2].BaseReward, ShouldAlmostEqual, 160, epsilon)
			})

			Convey("And the full pool is conserved", func() {
				var sum float64
				for _, e := range out {
					sum += e.BaseReward
				}
				So(sum, ShouldAlmostEqual, pool.TotalAmount, epsilon)
			})

			Convey("And every entry is undecided and unboosted by default", func() {
				for _, e := range out {
					So(e.IsUndecided, ShouldBeTrue)
					So(e.IsBoosted, ShouldBeFalse)
					So(e.FinalReward, ShouldAlmostEqual, e.BaseReward, epsilon)
				}
			})
		})

		Convey("When one creator is boosted", func() {
			out := reward.Allocate(ranked, pool, map[string]struct{}{"a": {}}, nil)

			Convey("Then its final reward is base times (1 + multiplier)", func() {
				So(out[0].IsBoosted, ShouldBeTrue)
				So(out[0].FinalReward, ShouldAlmostEqual, out[0].BaseReward*1.10, epsilon)
			})

			Convey("And unboosted entries are unchanged", func() {
				So(out[1].FinalReward, ShouldAlmostEqual, out[1].BaseReward, epsilon)
			})
		})

		Convey("When the top creator has opted out", func() {
			out := reward.Allocate(ranked, pool, nil, optOut("a"))

			Convey("Then its display amount is still computed", func() {
				So(out[0].IsOptedOut, ShouldBeTrue)
				So(out[0].BaseReward, ShouldAlmostEqual, 480, epsilon)
			})

			Convey("But its payable amount is zero", func() {
				So(out[0].PayableReward, ShouldEqual, 0)
			})

			Convey("And the denominator still includes its score", func() {
				So(out[1].BaseReward, ShouldAlmostEqual, 160, epsilon)
			})
		})

		Convey("When allocation runs twice on identical inputs", func() {
			first := reward.Allocate(ranked, pool, nil, nil)
			second := reward.Allocate(ranked, pool, nil, nil)

			Convey("Then output is bit-for-bit identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})

	Convey("Given entries ranked beyond the reward window", t, func() {
		small := model.Pool{TotalAmount: 1000, WindowSize: 2}
		ranked := rank(t, []model.ScoredEntry{
			{ID: "a", Score: 40},
			{ID: "b", Score: 30},
			{ID: "c", Score: 20},
			{ID: "d", Score: 10},
		})
		out := reward.Allocate(ranked, small, nil, nil)

		Convey("Then entries beyond the window get zero everything", func() {
			So(out[2].BaseReward, ShouldEqual, 0)
			So(out[2].FinalReward, ShouldEqual, 0)
			So(out[3].PayableReward, ShouldEqual, 0)
		})

		Convey("And the window splits the whole pool", func() {
			So(out[0].BaseReward, ShouldAlmostEqual, 1000*40.0/70.0, epsilon)
			So(out[1].BaseReward, ShouldAlmostEqual, 1000*30.0/70.0, epsilon)
		})
	})

	Convey("Given every eligible score is zero", t, func() {
		ranked := rank(t, []model.ScoredEntry{
			{ID: "a", Score: 0},
			{ID: "b", Score: 0},
		})

		Convey("Then all rewards are zero and nothing panics", func() {
			out := reward.Allocate(ranked, model.Pool{TotalAmount: 500}, nil, nil)
			for _, e := range out {
				So(e.BaseReward, ShouldEqual, 0)
				So(e.FinalReward, ShouldEqual, 0)
			}
		})
	})

	Convey("Given no entries at all", t, func() {
		out := reward.Allocate(nil, model.Pool{TotalAmount: 500}, nil, nil)

		Convey("Then the result is empty", func() {
			So(out, ShouldBeEmpty)
		})
	})
}

func TestRedistribute(t *testing.T) {
	pool := model.Pool{TotalAmount: 800, BoostMultiplier: 0.10}

	Convey("Given [300, 100, 100] allocated against an 800 pool", t, func() {
		ranked := rank(t, []model.ScoredEntry{
			{ID: "a", Score: 300},
			{ID: "b", Score: 100},
			{ID: "c", Score: 100},
		})

		Convey("When the rank-1 creator opts out and rewards redistribute", func() {
			allocated := reward.Allocate(ranked, pool, nil, optOut("a"))
			out := reward.Redistribute(allocated, pool)

			Convey("Then remaining creators each get 400", func() {
				So(out[1].PayableReward, ShouldAlmostEqual, 400, epsilon)
				So(out[2].PayableReward, ShouldAlmostEqual, 400, epsilon)
			})

			Convey("And the opted-out creator keeps 480 for display only", func() {
				So(out[0].BaseReward, ShouldAlmostEqual, 480, epsilon)
				So(out[0].PayableReward, ShouldEqual, 0)
			})

			Convey("And the full pool is conserved across remaining entries", func() {
				var sum float64
				for _, e := range out {
					sum += e.PayableReward
				}
				So(sum, ShouldAlmostEqual, pool.TotalAmount, epsilon)
			})

			Convey("And the donated amount matches the struck-through figure", func() {
				So(reward.DonatedAmount(out, pool), ShouldAlmostEqual, 480, epsilon)
			})

			Convey("And redistributing again changes nothing", func() {
				again := reward.Redistribute(out, pool)
				So(again, ShouldResemble, out)
			})
		})

		Convey("When nobody opts out", func() {
			allocated := reward.Allocate(ranked, pool, nil, nil)
			out := reward.Redistribute(allocated, pool)

			Convey("Then redistribution equals the basic allocation", func() {
				So(out, ShouldResemble, allocated)
			})
		})

		Convey("When a remaining creator is boosted after redistribution", func() {
			allocated := reward.Allocate(ranked, pool, map[string]struct{}{"b": {}}, optOut("a"))
			out := reward.Redistribute(allocated, pool)

			Convey("Then boost applies on top of the redistributed base", func() {
				So(out[1].BaseReward, ShouldAlmostEqual, 400, epsilon)
				So(out[1].FinalReward, ShouldAlmostEqual, 440, epsilon)
				So(out[1].PayableReward, ShouldAlmostEqual, 440, epsilon)
			})
		})
	})

	Convey("Given every window entry has opted out", t, func() {
		ranked := rank(t, []model.ScoredEntry{
			{ID: "a", Score: 10},
			{ID: "b", Score: 5},
		})
		decisions := map[string]model.Decision{
			"a": {TalentUUID: "a", Status: model.DecisionOptedOut},
			"b": {TalentUUID: "b", Status: model.DecisionOptedOut},
		}
		allocated := reward.Allocate(ranked, pool, nil, decisions)
		out := reward.Redistribute(allocated, pool)

		Convey("Then nothing is payable and nothing panics", func() {
			for _, e := range out {
				So(e.PayableReward, ShouldEqual, 0)
			}
		})
	})
}

func TestFormatAmount(t *testing.T) {
	Convey("Given the two-tier display precision policy", t, func() {
		Convey("Amounts at or above one dollar round to whole dollars", func() {
			So(reward.FormatAmount(480), ShouldEqual, "480")
			So(reward.FormatAmount(160.4), ShouldEqual, "160")
			So(reward.FormatAmount(1.5), ShouldEqual, "2")
			So(reward.FormatAmount(1), ShouldEqual, "1")
		})

		Convey("Amounts below one dollar keep cent precision", func() {
			So(reward.FormatAmount(0.5), ShouldEqual, "0.50")
			So(reward.FormatAmount(0.126), ShouldEqual, "0.13")
			So(reward.FormatAmount(0), ShouldEqual, "0.00")
		})
	})
}
