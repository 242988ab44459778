// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/creatorscore/engine/internal/adapters/repository"
	"github.com/creatorscore/engine/internal/adapters/talent"
	"github.com/creatorscore/engine/internal/domain/badge"
	"github.com/creatorscore/engine/internal/domain/model"
	"github.com/creatorscore/engine/internal/domain/ranking"
	"github.com/creatorscore/engine/internal/domain/reward"
	"github.com/creatorscore/engine/internal/domain/types"
	"github.com/creatorscore/engine/pkg/logger"
	"github.com/creatorscore/engine/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultRefreshInterval = 10 * time.Minute
	defaultFetchExcess     = 20
)

// ScoreSource supplies the scored creator snapshot for a ranking pass.
type ScoreSource interface {
	TopCreators(ctx context.Context, count int) (talent.Result, error)
}

// BoostSource supplies the current boosted-creator set.
type BoostSource interface {
	BoostedIDs(ctx context.Context) (map[string]struct{}, error)
}

// Service computes and serves the ranked, reward-annotated leaderboard.
type Service struct {
	mu sync.RWMutex

	// Configuration
	pool            model.Pool
	refreshInterval time.Duration
	fetchExcess     int

	// Collaborators
	scores    ScoreSource
	boosts    BoostSource
	decisions repository.DecisionStore
	snapshots repository.SnapshotStore

	// Current snapshot, swapped atomically under mu on each pass
	entries    []model.RankedEntry
	byID       map[string]model.RankedEntry
	snapshotAt time.Time
	shortCount bool

	// Inputs of the last pass, kept so a decision write can recompute
	// rewards without refetching scores
	lastScores  []model.ScoredEntry
	lastBoosted map[string]struct{}

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPool sets the reward pool configuration.
func WithPool(pool model.Pool) Option {
	return func(s *Service) {
		s.pool = pool
	}
}

// WithRefreshInterval sets the cadence of background ranking passes.
func WithRefreshInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.refreshInterval = interval
		}
	}
}

// WithFetchExcess sets how many profiles beyond the window are requested,
// so post-filtering still yields a full window.
func WithFetchExcess(excess int) Option {
	return func(s *Service) {
		if excess >= 0 {
			s.fetchExcess = excess
		}
	}
}

// WithScoreSource sets the score source.
func WithScoreSource(src ScoreSource) Option {
	return func(s *Service) {
		if src != nil {
			s.scores = src
		}
	}
}

// WithBoostSource sets the boost source.
func WithBoostSource(src BoostSource) Option {
	return func(s *Service) {
		if src != nil {
			s.boosts = src
		}
	}
}

// WithDecisionStore sets the decision store.
func WithDecisionStore(store repository.DecisionStore) Option {
	return func(s *Service) {
		if store != nil {
			s.decisions = store
		}
	}
}

// WithSnapshotStore sets the snapshot store used for warm starts and audit.
func WithSnapshotStore(store repository.SnapshotStore) Option {
	return func(s *Service) {
		if store != nil {
			s.snapshots = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		pool: model.Pool{
			WindowSize: model.DefaultWindowSize,
		},
		refreshInterval: defaultRefreshInterval,
		fetchExcess:     defaultFetchExcess,
		byID:            make(map[string]model.RankedEntry),
		stopCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.decisions == nil {
		s.decisions = repository.NewMemoryStore()
	}

	return s
}

// Start warms the snapshot, runs an initial ranking pass and launches the
// periodic refresh loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if s.scores == nil {
		s.mu.Unlock()
		return ErrNoScoreSource
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting creator score service",
		logger.Float64("poolTotal", s.pool.TotalAmount),
		logger.Int("window", s.pool.Window()),
		logger.Duration("refreshInterval", s.refreshInterval),
	)
	metrics.UpdateRewardPoolTotal(s.pool.TotalAmount)

	s.warmStart(ctx)

	if err := s.Refresh(ctx); err != nil {
		if len(s.snapshot()) == 0 {
			return fmt.Errorf("initial ranking pass: %w", err)
		}
		// A warm snapshot is serving; keep going and retry on the ticker.
		s.logger.Warn(ctx, "initial ranking pass failed, serving warm snapshot", logger.Error(err))
	}

	go s.refreshLoop(ctx)
	return nil
}

// Stop halts the refresh loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.started = false
	s.logger.Info(context.Background(), "creator score service stopped")
}

// warmStart loads the latest persisted snapshot so queries can be served
// before the first live pass completes.
func (s *Service) warmStart(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	snap, err := s.snapshots.Latest(ctx)
	if err != nil {
		s.logger.Debug(ctx, "no persisted snapshot for warm start", logger.Error(err))
		return
	}
	s.mu.Lock()
	s.entries = snap.Entries
	s.byID = indexByID(snap.Entries)
	s.snapshotAt = snap.CreatedAt
	s.shortCount = snap.ShortCount
	s.mu.Unlock()
	s.logger.Info(ctx, "warm start from persisted snapshot",
		logger.Int("entries", len(snap.Entries)),
		logger.String("snapshotID", snap.ID.String()),
	)
}

func (s *Service) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				// Last-known-good snapshot keeps serving.
				s.logger.Error(ctx, "ranking pass failed", logger.Error(err))
			}
		}
	}
}

// Refresh runs one full ranking pass: fetch a consistent snapshot of
// scores, decisions and boosts, rank, allocate, redistribute, publish.
func (s *Service) Refresh(ctx context.Context) error {
	start := time.Now()

	var (
		res       talent.Result
		decisions map[string]model.Decision
		boosted   map[string]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.scores.TopCreators(gctx, s.pool.Window()+s.fetchExcess)
		if err != nil {
			return fmt.Errorf("fetch scores: %w", err)
		}
		res = r
		return nil
	})
	g.Go(func() error {
		d, err := s.decisions.All(gctx)
		if err != nil {
			return fmt.Errorf("load decisions: %w", err)
		}
		decisions = d
		return nil
	})
	g.Go(func() error {
		if s.boosts == nil {
			return nil
		}
		b, err := s.boosts.BoostedIDs(gctx)
		if err != nil {
			// Boost data degrades to none rather than failing the pass.
			s.logger.Warn(gctx, "boost set unavailable for this pass", logger.Error(err))
			return nil
		}
		boosted = b
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordRankingPassError()
		return err
	}

	final, err := s.compute(res.Entries, boosted, decisions)
	if err != nil {
		metrics.RecordRankingPassError()
		return err
	}

	s.publish(ctx, final, res.Entries, boosted, res.ShortCount)

	metrics.RecordRankingPass(float64(time.Since(start).Milliseconds()))
	if res.ShortCount {
		metrics.RecordSnapshotShortCount()
		s.logger.Warn(ctx, "ranking pass ran on a short profile snapshot",
			logger.Int("requested", res.Requested),
			logger.Int("received", len(res.Entries)),
		)
	}
	return nil
}

// compute turns raw scores plus boost/decision state into the final
// reward-annotated leaderboard.
func (s *Service) compute(scores []model.ScoredEntry, boosted map[string]struct{}, decisions map[string]model.Decision) ([]model.RankedEntry, error) {
	ranked, err := ranking.AssignRanks(scores)
	if err != nil {
		return nil, fmt.Errorf("assign ranks: %w", err)
	}
	allocated := reward.Allocate(ranked, s.pool, boosted, decisions)
	return reward.Redistribute(allocated, s.pool), nil
}

// publish swaps in the new snapshot, persists it and updates gauges.
func (s *Service) publish(ctx context.Context, final []model.RankedEntry, scores []model.ScoredEntry, boosted map[string]struct{}, shortCount bool) {
	now := time.Now().UTC()

	s.mu.Lock()
	s.entries = final
	s.byID = indexByID(final)
	s.snapshotAt = now
	s.shortCount = shortCount
	s.lastScores = scores
	s.lastBoosted = boosted
	s.mu.Unlock()

	if s.snapshots != nil {
		snap := repository.Snapshot{CreatedAt: now, ShortCount: shortCount, Entries: final}
		if err := s.snapshots.Save(ctx, snap); err != nil {
			s.logger.Warn(ctx, "failed to persist snapshot", logger.Error(err))
		}
	}

	window := s.pool.Window()
	var optedOut, boostedCount int
	var payableTotal float64
	for _, e := range final {
		if !e.Eligible(window) {
			continue
		}
		if e.IsOptedOut {
			optedOut++
		}
		if e.IsBoosted {
			boostedCount++
		}
		payableTotal += e.PayableReward
	}
	metrics.UpdateSnapshotEntries(len(final))
	metrics.UpdateSnapshotUnix(now.Unix())
	metrics.UpdateOptedOutCount(optedOut)
	metrics.UpdateBoostedCount(boostedCount)
	metrics.UpdateRewardPayableTotal(payableTotal)
}

// recompute re-runs allocation over the last fetched scores, picking up
// decision changes without touching the score source.
func (s *Service) recompute(ctx context.Context) error {
	s.mu.RLock()
	scores := s.lastScores
	boosted := s.lastBoosted
	shortCount := s.shortCount
	s.mu.RUnlock()

	if scores == nil {
		// Nothing computed yet; the next ranking pass will pick it up.
		return nil
	}

	decisions, err := s.decisions.All(ctx)
	if err != nil {
		return fmt.Errorf("load decisions: %w", err)
	}
	final, err := s.compute(scores, boosted, decisions)
	if err != nil {
		return err
	}
	s.publish(ctx, final, scores, boosted, shortCount)
	return nil
}

// RecordOptOut records a creator's reward decision and immediately
// recomputes rewards over the current snapshot.
func (s *Service) RecordOptOut(ctx context.Context, talentUUID string, status model.DecisionStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: decision %q", ErrBadDecision, status)
	}
	d := model.Decision{
		TalentUUID: talentUUID,
		Status:     status,
		DecidedAt:  time.Now().UTC(),
	}
	if err := s.decisions.Record(ctx, d); err != nil {
		return err
	}
	s.logger.Info(ctx, "decision recorded",
		logger.String("talentUUID", talentUUID),
		logger.String("decision", string(status)),
	)
	return s.recompute(ctx)
}

// TopN returns the top N leaderboard entries from the current snapshot.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: limit %d", ErrBadLimit, n)
	}
	entries := s.snapshot()
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]types.Entry, n)
	for i := 0; i < n; i++ {
		out[i] = s.toEntry(entries[i])
	}
	return out, nil
}

// Entry returns the ranked entry for one creator.
func (s *Service) Entry(ctx context.Context, talentUUID string) (types.Entry, error) {
	s.mu.RLock()
	e, ok := s.byID[talentUUID]
	s.mu.RUnlock()
	if !ok {
		return types.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, talentUUID)
	}
	return s.toEntry(e), nil
}

// RewardSummary returns the per-creator rewards view.
func (s *Service) RewardSummary(ctx context.Context, talentUUID string) (types.RewardSummary, error) {
	s.mu.RLock()
	e, ok := s.byID[talentUUID]
	entries := s.entries
	s.mu.RUnlock()
	if !ok {
		return types.RewardSummary{}, fmt.Errorf("%w: %s", ErrNotFound, talentUUID)
	}

	return types.RewardSummary{
		TalentUUID:    e.ID,
		Rank:          e.Rank,
		Score:         e.Score,
		Decision:      decisionLabel(e),
		IsBoosted:     e.IsBoosted,
		BaseReward:    e.BaseReward,
		FinalReward:   e.FinalReward,
		PayableReward: e.PayableReward,
		DisplayReward: reward.FormatAmount(displayAmount(e)),
		TotalPool:     s.pool.TotalAmount,
		DonatedPool:   reward.DonatedAmount(entries, s.pool),
	}, nil
}

// BadgeProgress returns badge milestones for one creator.
func (s *Service) BadgeProgress(ctx context.Context, talentUUID string) ([]badge.Badge, error) {
	s.mu.RLock()
	e, ok := s.byID[talentUUID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, talentUUID)
	}
	return badge.Progress(e), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"poolTotal":       s.pool.TotalAmount,
		"boostMultiplier": s.pool.BoostMultiplier,
		"window":          s.pool.Window(),
		"refreshInterval": s.refreshInterval.String(),
		"entries":         len(s.entries),
		"shortCount":      s.shortCount,
	}
	if !s.snapshotAt.IsZero() {
		stats["snapshotAt"] = s.snapshotAt.Format(time.RFC3339)
	}
	return stats
}

func (s *Service) snapshot() []model.RankedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries
}

func (s *Service) toEntry(e model.RankedEntry) types.Entry {
	return types.Entry{
		Rank:          e.Rank,
		TalentUUID:    e.ID,
		DisplayName:   e.DisplayName,
		AvatarURL:     e.AvatarURL,
		Score:         e.Score,
		IsBoosted:     e.IsBoosted,
		IsOptedOut:    e.IsOptedOut,
		BaseReward:    e.BaseReward,
		FinalReward:   e.FinalReward,
		PayableReward: e.PayableReward,
		DisplayReward: reward.FormatAmount(displayAmount(e)),
	}
}

// displayAmount is what the UI shows: the struck-through donated figure
// for opted-out creators, the payable amount for everyone else.
func displayAmount(e model.RankedEntry) float64 {
	if e.IsOptedOut {
		return e.FinalReward
	}
	return e.PayableReward
}

func decisionLabel(e model.RankedEntry) string {
	switch {
	case e.IsOptedOut:
		return string(model.DecisionOptedOut)
	case e.IsOptedIn:
		return string(model.DecisionOptedIn)
	default:
		return "undecided"
	}
}

func indexByID(entries []model.RankedEntry) map[string]model.RankedEntry {
	idx := make(map[string]model.RankedEntry, len(entries))
	for _, e := range entries {
		idx[e.ID] = e
	}
	return idx
}
