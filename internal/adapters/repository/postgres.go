package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorscore/engine/internal/domain/model"
	"github.com/creatorscore/engine/pkg/metrics"
)

// PostgresStore implements DecisionStore and SnapshotStore on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS optout_decisions (
	talent_uuid TEXT PRIMARY KEY,
	decision    TEXT NOT NULL,
	decided_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
	id          UUID PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	short_count BOOLEAN NOT NULL DEFAULT FALSE,
	entries     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS leaderboard_snapshots_created_at_idx
	ON leaderboard_snapshots (created_at DESC);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Record upserts a decision. The conditional update makes opted_out rows
// immutable at the database level; a blocked write surfaces as
// ErrDecisionFinal.
func (s *PostgresStore) Record(ctx context.Context, d model.Decision) error {
	if err := validateDecision(d); err != nil {
		return err
	}
	const q = `
INSERT INTO optout_decisions (talent_uuid, decision, decided_at)
VALUES ($1, $2, $3)
ON CONFLICT (talent_uuid) DO UPDATE
	SET decision = EXCLUDED.decision, decided_at = EXCLUDED.decided_at
	WHERE optout_decisions.decision <> 'opted_out'
		OR EXCLUDED.decision = 'opted_out'
`
	tag, err := s.pool.Exec(ctx, q, d.TalentUUID, string(d.Status), d.DecidedAt)
	if err != nil {
		return fmt.Errorf("record decision for %s: %w", d.TalentUUID, err)
	}
	if tag.RowsAffected() == 0 {
		metrics.RecordDecisionConflict()
		return fmt.Errorf("%w: %s already opted out", ErrDecisionFinal, d.TalentUUID)
	}
	metrics.RecordDecisionWrite()
	return nil
}

// Get returns the decision for a talent UUID.
func (s *PostgresStore) Get(ctx context.Context, talentUUID string) (model.Decision, error) {
	const q = `SELECT talent_uuid, decision, decided_at FROM optout_decisions WHERE talent_uuid = $1`
	var d model.Decision
	var status string
	err := s.pool.QueryRow(ctx, q, talentUUID).Scan(&d.TalentUUID, &status, &d.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Decision{}, fmt.Errorf("%w: decision for %s", ErrNotFound, talentUUID)
	}
	if err != nil {
		return model.Decision{}, fmt.Errorf("get decision for %s: %w", talentUUID, err)
	}
	d.Status = model.DecisionStatus(status)
	return d, nil
}

// All returns every recorded decision keyed by talent UUID.
func (s *PostgresStore) All(ctx context.Context) (map[string]model.Decision, error) {
	const q = `SELECT talent_uuid, decision, decided_at FROM optout_decisions`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.Decision)
	for rows.Next() {
		var d model.Decision
		var status string
		if err := rows.Scan(&d.TalentUUID, &status, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Status = model.DecisionStatus(status)
		out[d.TalentUUID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return out, nil
}

// Save stores a ranking-pass snapshot with its entries as JSONB.
func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.ID == uuid.Nil {
		snap.ID = uuid.New()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(snap.Entries)
	if err != nil {
		return fmt.Errorf("encode snapshot entries: %w", err)
	}
	const q = `
INSERT INTO leaderboard_snapshots (id, created_at, short_count, entries)
VALUES ($1, $2, $3, $4)
`
	if _, err := s.pool.Exec(ctx, q, snap.ID, snap.CreatedAt, snap.ShortCount, payload); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}
	return nil
}

// Latest returns the most recently saved snapshot.
func (s *PostgresStore) Latest(ctx context.Context) (Snapshot, error) {
	const q = `
SELECT id, created_at, short_count, entries
FROM leaderboard_snapshots
ORDER BY created_at DESC
LIMIT 1
`
	var snap Snapshot
	var payload []byte
	err := s.pool.QueryRow(ctx, q).Scan(&snap.ID, &snap.CreatedAt, &snap.ShortCount, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: no snapshot", ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load latest snapshot: %w", err)
	}
	if err := json.Unmarshal(payload, &snap.Entries); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot entries: %w", err)
	}
	return snap, nil
}

func validateDecision(d model.Decision) error {
	if d.TalentUUID == "" {
		return fmt.Errorf("%w: empty talent uuid", ErrInvalidInput)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: decision %q", ErrInvalidInput, d.Status)
	}
	return nil
}
