// Package ranking assigns dense competition ranks to scored entries.
//
// Ordering: score DESC, then ID ASC (deterministic across runs). Ties share
// a rank and the next distinct score resumes at its 1-based position, so
// scores [100, 100, 90, 80] rank as [1, 1, 3, 4].
package ranking

import (
	"fmt"
	"sort"

	"github.com/creatorscore/engine/internal/domain/model"
)

// AssignRanks sorts entries by score descending and annotates each with its
// dense competition rank. The input slice is not modified. A negative score
// is a caller contract violation and fails the whole pass: a bad score in
// the denominator would silently corrupt reward math for every other entry.
func AssignRanks(entries []model.ScoredEntry) ([]model.RankedEntry, error) {
	for i, e := range entries {
		if e.Score < 0 {
			return nil, fmt.Errorf("%w: entry %q at index %d has score %d", ErrNegativeScore, e.ID, i, e.Score)
		}
	}

	ranked := make([]model.RankedEntry, len(entries))
	for i, e := range entries {
		ranked[i] = model.RankedEntry{ScoredEntry: e}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	for i := range ranked {
		if i > 0 && ranked[i].Score == ranked[i-1].Score {
			ranked[i].Rank = ranked[i-1].Rank
			continue
		}
		ranked[i].Rank = i + 1
	}

	return ranked, nil
}
