// Package port declares the collaborator interfaces the engine's
// persistence and publication concerns are adapted against, in the
// teacher's style of a narrow Repository/Cache boundary between the
// matching core and the outside world (port/repository.go, port/cache.go).
package port

import (
	"context"

	"github.com/vkarasev/matchcore/internal/domain"
)

// SnapshotStore persists and retrieves full engine snapshots, keyed by an
// implementation-defined id (a filesystem path for the file adapter, a
// primary key for the Postgres adapter), per §4.8's save_snapshot/
// load_snapshot primitives.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, key string, snap domain.Snapshot) error
	LoadSnapshot(ctx context.Context, key string) (domain.Snapshot, error)
}

// EventStore persists and retrieves the append-only event log, per §4.8's
// save_events/load_events.
type EventStore interface {
	SaveEvents(ctx context.Context, key string, events []domain.OrderEvent) error
	LoadEvents(ctx context.Context, key string) ([]domain.OrderEvent, error)
}

// FillPublisher fans EnhancedFills out to subscribers beyond the engine's
// own in-process callback list, per §4.7 step 5's "publishes fills to
// subscribers" -- a durable or networked complement to
// engine.FillRouter.RegisterFillCallback for out-of-process consumers.
type FillPublisher interface {
	PublishFill(ctx context.Context, symbol string, fill domain.EnhancedFill) error
}
