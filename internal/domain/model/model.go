// Package model contains domain models passed between layers.
package model

import "time"

// ScoredEntry is one creator's ranking input. The score is computed
// externally by the Talent Protocol API and treated as immutable here.
type ScoredEntry struct {
	ID          string // talent UUID, unique within a ranking pass
	DisplayName string
	AvatarURL   string
	Score       int64 // aggregate creator score, always >= 0
}

// DecisionStatus is the recorded opt-in/opt-out state for a creator.
type DecisionStatus string

// Decision states. OptedOut is terminal; the decision store refuses to
// overwrite it.
const (
	DecisionOptedIn  DecisionStatus = "opted_in"
	DecisionOptedOut DecisionStatus = "opted_out"
)

// Valid reports whether s is a recordable decision.
func (s DecisionStatus) Valid() bool {
	return s == DecisionOptedIn || s == DecisionOptedOut
}

// Decision is a creator's recorded reward decision ("pay it forward").
type Decision struct {
	TalentUUID string
	Status     DecisionStatus
	DecidedAt  time.Time
}

// Pool is the sponsor reward pool configuration for a ranking pass.
type Pool struct {
	// TotalAmount is the sum of all sponsor contributions in USDC.
	TotalAmount float64

	// BoostMultiplier is the fractional bonus for token holders, e.g. 0.10.
	BoostMultiplier float64

	// TokenHolderThreshold is the minimum qualifying token balance.
	TokenHolderThreshold float64

	// WindowSize caps reward eligibility to the top-N ranks. Zero means
	// DefaultWindowSize.
	WindowSize int
}

// DefaultWindowSize is the reward-eligible window when Pool.WindowSize is
// left unset.
const DefaultWindowSize = 200

// Window returns the effective reward-eligible window size.
func (p Pool) Window() int {
	if p.WindowSize > 0 {
		return p.WindowSize
	}
	return DefaultWindowSize
}

// RankedEntry is a ScoredEntry annotated by a ranking pass. BaseReward and
// FinalReward are the include-everyone display figures; PayableReward is the
// post-redistribution amount actually drawn from the pool, zero for
// opted-out entries and for ranks beyond the window.
type RankedEntry struct {
	ScoredEntry

	Rank int

	IsBoosted   bool
	IsOptedIn   bool
	IsOptedOut  bool
	IsUndecided bool

	BaseReward    float64
	FinalReward   float64
	PayableReward float64
}

// Eligible reports whether the entry sits inside the reward window.
func (e RankedEntry) Eligible(window int) bool {
	return e.Rank >= 1 && e.Rank <= window
}
