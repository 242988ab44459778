// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/creatorscore/engine/internal/domain/badge"
	"github.com/creatorscore/engine/internal/domain/model"
	"github.com/creatorscore/engine/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Read operations expose leaderboard data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Entry(ctx context.Context, talentUUID string) (Entry, error)
	RewardSummary(ctx context.Context, talentUUID string) (RewardSummary, error)
	BadgeProgress(ctx context.Context, talentUUID string) ([]badge.Badge, error)

	// RecordOptOut records a creator's reward decision.
	RecordOptOut(ctx context.Context, talentUUID string, status model.DecisionStatus) error
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// RewardSummary mirrors the per-creator rewards view.
type RewardSummary = types.RewardSummary

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	rewardsHandler     *RewardsHandler
	optOutHandler      *OptOutHandler
	badgesHandler      *BadgesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		rewardsHandler:     NewRewardsHandler(deps),
		optOutHandler:      NewOptOutHandler(deps),
		badgesHandler:      NewBadgesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	mux.HandleFunc("/rewards/", MetricsMiddleware(s.rewardsHandler.HandleGetRewards, "rewards"))
	mux.HandleFunc("/optout", MetricsMiddleware(s.optOutHandler.HandlePostOptOut, "optout"))
	mux.HandleFunc("/badges/", MetricsMiddleware(s.badgesHandler.HandleGetBadges, "badges"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
// This stays generic to avoid tight coupling with specific packages.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// pathParam extracts the single path segment after prefix, or an error
// when it is empty or nested.
func pathParam(r *http.Request, prefix string) (string, error) {
	p := strings.TrimPrefix(r.URL.Path, prefix)
	if p == "" || strings.Contains(p, "/") {
		return "", errors.New("missing or malformed path parameter")
	}
	return p, nil
}
