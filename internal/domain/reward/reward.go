// Package reward turns a ranked creator list and a sponsor pool into
// per-creator reward amounts.
//
// Two formulas exist on purpose. Allocate spreads the pool over every
// entry inside the reward window, opted-out creators included; those are
// the display figures shown before redistribution (an opted-out creator's
// amount renders struck through as "paid forward"). Redistribute is the
// authoritative payout rule: it recomputes the proportional formula over
// the non-opted-out subset only, so the full pool always lands on the
// creators that actually get paid.
package reward

import (
	"github.com/creatorscore/engine/internal/domain/model"
)

// Allocate computes score-proportional base and boosted rewards for every
// entry inside the pool window. Entries ranked beyond the window pass
// through with zero rewards. Missing boost or decision lookups are the
// default state (unboosted, undecided), never an error. The input slice is
// not modified; output order matches input order.
func Allocate(ranked []model.RankedEntry, pool model.Pool, boostedIDs map[string]struct{}, decisions map[string]model.Decision) []model.RankedEntry {
	window := pool.Window()

	var sumEligible int64
	for _, e := range ranked {
		if e.Eligible(window) {
			sumEligible += e.Score
		}
	}

	out := make([]model.RankedEntry, len(ranked))
	for i, e := range ranked {
		_, e.IsBoosted = boostedIDs[e.ID]
		e.IsOptedIn, e.IsOptedOut, e.IsUndecided = false, false, false
		switch d, ok := decisions[e.ID]; {
		case ok && d.Status == model.DecisionOptedOut:
			e.IsOptedOut = true
		case ok && d.Status == model.DecisionOptedIn:
			e.IsOptedIn = true
		default:
			e.IsUndecided = true
		}

		e.BaseReward, e.FinalReward, e.PayableReward = 0, 0, 0
		if e.Eligible(window) && sumEligible > 0 {
			e.BaseReward = pool.TotalAmount * float64(e.Score) / float64(sumEligible)
			e.FinalReward = boosted(e.BaseReward, e.IsBoosted, pool)
			if !e.IsOptedOut {
				e.PayableReward = e.FinalReward
			}
		}
		out[i] = e
	}
	return out
}

// Redistribute reallocates the pool after opt-outs: opted-out entries keep
// their originally computed BaseReward/FinalReward for display but draw
// nothing, and the remaining window entries are recomputed over the
// shrunken score sum so the whole pool flows to them. Pure recomputation
// from scores and flags, so running it twice is a no-op.
func Redistribute(ranked []model.RankedEntry, pool model.Pool) []model.RankedEntry {
	window := pool.Window()

	var sumRemaining int64
	for _, e := range ranked {
		if e.Eligible(window) && !e.IsOptedOut {
			sumRemaining += e.Score
		}
	}

	out := make([]model.RankedEntry, len(ranked))
	for i, e := range ranked {
		switch {
		case !e.Eligible(window):
			e.BaseReward, e.FinalReward, e.PayableReward = 0, 0, 0
		case e.IsOptedOut:
			// Display amounts stay; the pool owes them nothing.
			e.PayableReward = 0
		case sumRemaining == 0:
			e.BaseReward, e.FinalReward, e.PayableReward = 0, 0, 0
		default:
			e.BaseReward = pool.TotalAmount * float64(e.Score) / float64(sumRemaining)
			e.FinalReward = boosted(e.BaseReward, e.IsBoosted, pool)
			e.PayableReward = e.FinalReward
		}
		out[i] = e
	}
	return out
}

// DonatedAmount sums the display rewards of opted-out entries inside the
// window, i.e. the total shown as "paid forward".
func DonatedAmount(ranked []model.RankedEntry, pool model.Pool) float64 {
	window := pool.Window()
	var donated float64
	for _, e := range ranked {
		if e.Eligible(window) && e.IsOptedOut {
			donated += e.BaseReward
		}
	}
	return donated
}

func boosted(base float64, isBoosted bool, pool model.Pool) float64 {
	if isBoosted {
		return base * (1 + pool.BoostMultiplier)
	}
	return base
}
