package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/creatorscore/engine/internal/domain/model"
	"github.com/creatorscore/engine/pkg/metrics"
)

// MemoryStore implements DecisionStore and SnapshotStore in memory. Used in
// tests and when no Postgres DSN is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	decisions map[string]model.Decision
	snapshots []Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		decisions: make(map[string]model.Decision),
	}
}

// Record upserts a decision, enforcing opted_out permanence.
func (s *MemoryStore) Record(ctx context.Context, d model.Decision) error {
	if err := validateDecision(d); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.decisions[d.TalentUUID]; ok &&
		cur.Status == model.DecisionOptedOut && d.Status != model.DecisionOptedOut {
		metrics.RecordDecisionConflict()
		return fmt.Errorf("%w: %s already opted out", ErrDecisionFinal, d.TalentUUID)
	}
	if d.DecidedAt.IsZero() {
		d.DecidedAt = time.Now().UTC()
	}
	s.decisions[d.TalentUUID] = d
	metrics.RecordDecisionWrite()
	return nil
}

// Get returns the decision for a talent UUID.
func (s *MemoryStore) Get(ctx context.Context, talentUUID string) (model.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.decisions[talentUUID]
	if !ok {
		return model.Decision{}, fmt.Errorf("%w: decision for %s", ErrNotFound, talentUUID)
	}
	return d, nil
}

// All returns a copy of every recorded decision.
func (s *MemoryStore) All(ctx context.Context) (map[string]model.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.Decision, len(s.decisions))
	for k, v := range s.decisions {
		out[k] = v
	}
	return out, nil
}

// Save appends a snapshot.
func (s *MemoryStore) Save(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	s.snapshots = append(s.snapshots, snap)
	return nil
}

// Latest returns the most recently saved snapshot.
func (s *MemoryStore) Latest(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no snapshot", ErrNotFound)
	}
	latest := s.snapshots[0]
	for _, snap := range s.snapshots[1:] {
		if snap.CreatedAt.After(latest.CreatedAt) {
			latest = snap
		}
	}
	return latest, nil
}
