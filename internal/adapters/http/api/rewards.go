// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
)

// RewardsDependencies defines the interface for reward summary operations.
type RewardsDependencies interface {
	RewardSummary(ctx context.Context, talentUUID string) (RewardSummary, error)
}

// RewardsHandler handles per-creator reward requests.
type RewardsHandler struct {
	deps RewardsDependencies
}

// NewRewardsHandler creates a new rewards handler.
func NewRewardsHandler(deps RewardsDependencies) *RewardsHandler {
	return &RewardsHandler{deps: deps}
}

// HandleGetRewards handles GET /rewards/{talent_uuid} requests.
func (h *RewardsHandler) HandleGetRewards(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rewards"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathParam(r, "/rewards/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	summary, err := h.deps.RewardSummary(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
