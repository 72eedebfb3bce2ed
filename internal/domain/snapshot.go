package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotVersion is the schema version written into every Snapshot. Loaders
// reject any snapshot whose Version does not match exactly -- spec §4.8
// requires failing loudly on mismatch rather than attempting a migration.
const SnapshotVersion = "1"

// LatencySample is one measured submit-to-finalize duration, kept for the
// statistics section of a snapshot (original_source/include/snapshot.hpp's
// `latencies`).
type LatencySample = time.Duration

// Snapshot is the full-state capture described in §3's Snapshot entity and
// §4.8: every order in the registry (active and pending-stop), the complete
// fills list, last_trade_price, a processed-orders counter, and latency
// samples, plus version metadata that load_snapshot must validate.
type Snapshot struct {
	SnapshotTime time.Time
	SnapshotID   string
	Version      string

	ActiveOrders []Order
	PendingStops []Order
	Fills        []EnhancedFill

	HasLastTradePrice bool
	LastTradePrice    decimal.Decimal

	TotalOrdersProcessed int64
	Latencies            []LatencySample
}

// Validate checks the invariants load_snapshot must enforce before
// restoration begins: a recognized schema version and internally consistent
// order records. It does not check the snapshot against an event log;
// RecoverFromCheckpoint only skips FILL events and events older than the
// snapshot time when replaying one on top.
func (s *Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return &SnapshotVersionError{Got: s.Version, Want: SnapshotVersion}
	}
	for i := range s.ActiveOrders {
		if s.ActiveOrders[i].ID == 0 {
			return &SnapshotInvariantError{Reason: "active order with zero id"}
		}
	}
	for i := range s.PendingStops {
		o := &s.PendingStops[i]
		if o.Stop == nil || o.Stop.Triggered {
			return &SnapshotInvariantError{Reason: "pending stop missing live Stop descriptor"}
		}
	}
	return nil
}

// SnapshotVersionError means a snapshot file was produced by an incompatible
// schema version.
type SnapshotVersionError struct {
	Got, Want string
}

func (e *SnapshotVersionError) Error() string {
	return "domain: snapshot version mismatch: got " + e.Got + ", want " + e.Want
}

// SnapshotInvariantError means a snapshot's contents violate a structural
// invariant load_snapshot must check before restoration proceeds.
type SnapshotInvariantError struct {
	Reason string
}

func (e *SnapshotInvariantError) Error() string {
	return "domain: invalid snapshot: " + e.Reason
}
