// Package repository defines persistence contracts for opt-out decisions
// and ranking-pass snapshots, with Postgres and in-memory implementations.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/creatorscore/engine/internal/domain/model"
)

// Snapshot is one frozen ranking pass. Snapshots cache computed results for
// fast reads and audit; they are never the source of truth for scores.
type Snapshot struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	ShortCount bool
	Entries    []model.RankedEntry
}

// DecisionStore persists per-creator reward decisions. Writes are
// single-row atomic upserts; an opted_out row is final and any write that
// would change it fails with ErrDecisionFinal.
type DecisionStore interface {
	// Record upserts a decision. Re-recording an identical decision is a
	// no-op, not a conflict.
	Record(ctx context.Context, d model.Decision) error

	// Get returns the decision for a talent UUID, or ErrNotFound.
	Get(ctx context.Context, talentUUID string) (model.Decision, error)

	// All returns every recorded decision keyed by talent UUID.
	All(ctx context.Context) (map[string]model.Decision, error)
}

// SnapshotStore persists ranking passes.
type SnapshotStore interface {
	// Save stores a snapshot.
	Save(ctx context.Context, s Snapshot) error

	// Latest returns the most recent snapshot, or ErrNotFound when none
	// has been saved yet.
	Latest(ctx context.Context) (Snapshot, error)
}
