// Package types contains API-facing shapes shared across the application.
package types

// Entry is a leaderboard row as served to clients.
type Entry struct {
	Rank          int     `json:"rank"`
	TalentUUID    string  `json:"talent_uuid"`
	DisplayName   string  `json:"display_name"`
	AvatarURL     string  `json:"avatar_url,omitempty"`
	Score         int64   `json:"score"`
	IsBoosted     bool    `json:"is_boosted"`
	IsOptedOut    bool    `json:"is_opted_out"`
	BaseReward    float64 `json:"base_reward"`
	FinalReward   float64 `json:"final_reward"`
	PayableReward float64 `json:"payable_reward"`
	DisplayReward string  `json:"display_reward"`
}

// RewardSummary is the per-creator "my rewards" view. DisplayReward is the
// struck-through figure when the creator has opted out.
type RewardSummary struct {
	TalentUUID    string  `json:"talent_uuid"`
	Rank          int     `json:"rank"`
	Score         int64   `json:"score"`
	Decision      string  `json:"decision"` // opted_in, opted_out or undecided
	IsBoosted     bool    `json:"is_boosted"`
	BaseReward    float64 `json:"base_reward"`
	FinalReward   float64 `json:"final_reward"`
	PayableReward float64 `json:"payable_reward"`
	DisplayReward string  `json:"display_reward"`
	TotalPool     float64 `json:"total_pool"`
	DonatedPool   float64 `json:"donated_pool"`
}
