// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/creatorscore/engine/internal/domain/badge"
)

// BadgesDependencies defines the interface for badge progress operations.
type BadgesDependencies interface {
	BadgeProgress(ctx context.Context, talentUUID string) ([]badge.Badge, error)
}

// BadgesHandler handles badge progress requests.
type BadgesHandler struct {
	deps BadgesDependencies
}

// NewBadgesHandler creates a new badges handler.
func NewBadgesHandler(deps BadgesDependencies) *BadgesHandler {
	return &BadgesHandler{deps: deps}
}

// HandleGetBadges handles GET /badges/{talent_uuid} requests.
func (h *BadgesHandler) HandleGetBadges(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_badges"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, err := pathParam(r, "/badges/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	badges, err := h.deps.BadgeProgress(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, badges)
}
