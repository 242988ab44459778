// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/creatorscore/engine/internal/adapters/repository"
	"github.com/creatorscore/engine/internal/domain/model"
)

// OptOutDependencies defines the interface for decision writes.
type OptOutDependencies interface {
	RecordOptOut(ctx context.Context, talentUUID string, status model.DecisionStatus) error
}

// OptOutHandler handles reward decision requests.
type OptOutHandler struct {
	deps OptOutDependencies
}

// NewOptOutHandler creates a new opt-out handler.
func NewOptOutHandler(deps OptOutDependencies) *OptOutHandler {
	return &OptOutHandler{deps: deps}
}

// optOutRequest mirrors the request schema for POST /optout.
type optOutRequest struct {
	TalentUUID string `json:"talent_uuid"`
	Decision   string `json:"decision"`
}

func (o optOutRequest) validate() error {
	switch {
	case strings.TrimSpace(o.TalentUUID) == "":
		return errors.New("missing talent_uuid")
	case !model.DecisionStatus(o.Decision).Valid():
		return errors.New("decision must be opted_in or opted_out")
	}
	return nil
}

type decisionResponse struct {
	TalentUUID string `json:"talent_uuid"`
	Decision   string `json:"decision"`
	Status     string `json:"status"`
}

// HandlePostOptOut handles POST /optout requests. An opted_out decision is
// permanent; attempts to reverse it return 409.
func (h *OptOutHandler) HandlePostOptOut(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_optout"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req optOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	err := h.deps.RecordOptOut(r.Context(), req.TalentUUID, model.DecisionStatus(req.Decision))
	if err != nil {
		if errors.Is(err, repository.ErrDecisionFinal) {
			writeError(w, http.StatusConflict, "decision_final", NewKind(op, ErrConflict))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, decisionResponse{
		TalentUUID: req.TalentUUID,
		Decision:   req.Decision,
		Status:     "recorded",
	})
}
