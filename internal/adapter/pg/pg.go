// Package pg is a Postgres-backed port.SnapshotStore/port.EventStore,
// adapted from the teacher's PgRepo (internal/adapter/pg/pg.go): a thin
// wrapper over pgxpool.Pool storing the snapshot as a JSONB blob and the
// event log as one row per event, the way the teacher stores its own
// orderbook snapshots (SaveSnapshot/LoadSnapshot) and orders/trades.
package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vkarasev/matchcore/internal/domain"
	"github.com/vkarasev/matchcore/internal/port"
)

var _ port.SnapshotStore = (*Store)(nil)
var _ port.EventStore = (*Store)(nil)

// Store implements port.SnapshotStore and port.EventStore against
// Postgres. key identifies a session/run; the teacher's PgRepo uses the
// same pattern of a caller-supplied id rather than deriving one.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store over an existing pool. Call Close when
// finished, matching the teacher's PgRepo.Close convention.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveSnapshot persists snap as a JSONB blob under key, upserting on
// conflict like the teacher's SaveSnapshot.
func (s *Store) SaveSnapshot(ctx context.Context, key string, snap domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("pg: save snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO engine_snapshots(key, snapshot_json, created_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET snapshot_json = EXCLUDED.snapshot_json, created_at = NOW()
`, key, string(data))
	if err != nil {
		return fmt.Errorf("pg: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot loads and validates the snapshot stored under key.
func (s *Store) LoadSnapshot(ctx context.Context, key string) (domain.Snapshot, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `SELECT snapshot_json FROM engine_snapshots WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("pg: load snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("pg: load snapshot: %w", err)
	}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("pg: load snapshot: %w", err)
	}
	return snap, nil
}

// SaveEvents replaces the stored event log for key with events, one row
// per event (seq preserves log order on read-back).
func (s *Store) SaveEvents(ctx context.Context, key string, events []domain.OrderEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: save events: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM engine_events WHERE session_key = $1`, key); err != nil {
		return fmt.Errorf("pg: save events: %w", err)
	}
	for i, e := range events {
		if _, err := tx.Exec(ctx, `
INSERT INTO engine_events(session_key, seq, line) VALUES ($1, $2, $3)
`, key, i, e.ToCSV()); err != nil {
			return fmt.Errorf("pg: save events: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: save events: %w", err)
	}
	return nil
}

// LoadEvents returns the event log for key, ordered by seq.
func (s *Store) LoadEvents(ctx context.Context, key string) ([]domain.OrderEvent, error) {
	rows, err := s.pool.Query(ctx, `
SELECT line FROM engine_events WHERE session_key = $1 ORDER BY seq ASC
`, key)
	if err != nil {
		return nil, fmt.Errorf("pg: load events: %w", err)
	}
	defer rows.Close()

	var events []domain.OrderEvent
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("pg: load events: %w", err)
		}
		e, err := domain.EventFromCSV(line)
		if err != nil {
			return nil, fmt.Errorf("pg: load events: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: load events: %w", err)
	}
	return events, nil
}
