// Package badge computes milestone badges from a creator's current rank
// and payable reward.
package badge

import "github.com/creatorscore/engine/internal/domain/model"

// Badge is one milestone with the creator's progress toward it.
type Badge struct {
	Slug     string  `json:"slug"`
	Title    string  `json:"title"`
	Earned   bool    `json:"earned"`
	Progress float64 `json:"progress"` // 0..1, 1 when earned
}

// Rank milestones, most exclusive last.
var rankMilestones = []struct {
	slug  string
	title string
	rank  int
}{
	{"top-200", "Top 200 Creator", 200},
	{"top-100", "Top 100 Creator", 100},
	{"top-10", "Top 10 Creator", 10},
	{"number-one", "#1 Creator", 1},
}

// Reward milestones in USDC.
var rewardMilestones = []struct {
	slug   string
	title  string
	amount float64
}{
	{"first-dollar", "First Dollar Earned", 1},
	{"hundred-club", "$100 Earned", 100},
}

// Progress evaluates every milestone against a ranked entry. An unranked
// entry (rank 0) has zero progress on rank badges.
func Progress(e model.RankedEntry) []Badge {
	out := make([]Badge, 0, len(rankMilestones)+len(rewardMilestones))

	for _, m := range rankMilestones {
		b := Badge{Slug: m.slug, Title: m.title}
		if e.Rank >= 1 {
			if e.Rank <= m.rank {
				b.Earned = true
				b.Progress = 1
			} else {
				b.Progress = float64(m.rank) / float64(e.Rank)
			}
		}
		out = append(out, b)
	}

	for _, m := range rewardMilestones {
		b := Badge{Slug: m.slug, Title: m.title}
		if e.PayableReward >= m.amount {
			b.Earned = true
			b.Progress = 1
		} else if m.amount > 0 {
			b.Progress = e.PayableReward / m.amount
		}
		out = append(out, b)
	}

	return out
}
