package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/vkarasev/matchcore/internal/book"
	"github.com/vkarasev/matchcore/internal/domain"
)

// buildSnapshot captures the full engine state, per §3.1's Snapshot entity
// and §4.8. snapshot_id is a uuid, matching the teacher's use of
// github.com/google/uuid for its own snapshot/correlation ids
// (core/engine.go's SnapshotOrderbook).
func (e *Engine) buildSnapshot() domain.Snapshot {
	active := e.registry.ActiveOrders()
	activeOrders := make([]domain.Order, len(active))
	for i, o := range active {
		activeOrders[i] = *o
	}

	pending := e.stops.All()
	pendingStops := make([]domain.Order, len(pending))
	for i, o := range pending {
		pendingStops[i] = *o
	}

	snap := domain.Snapshot{
		SnapshotTime:         e.now(),
		SnapshotID:           uuid.NewString(),
		Version:              domain.SnapshotVersion,
		ActiveOrders:         activeOrders,
		PendingStops:         pendingStops,
		Fills:                e.router.AllFills(),
		HasLastTradePrice:    e.haveLastTrade,
		LastTradePrice:       e.lastTradePrice,
		TotalOrdersProcessed: e.totalOrdersProcessed,
		Latencies:            append([]domain.LatencySample(nil), e.latencies...),
	}
	return snap
}

// Snapshot returns the engine's full state, for callers that persist it
// through a port.SnapshotStore (e.g. Postgres) rather than a file path.
func (e *Engine) Snapshot() domain.Snapshot { return e.buildSnapshot() }

// Restore wipes current engine state and rebuilds it from a snapshot
// obtained through a port.SnapshotStore, mirroring LoadSnapshot's
// file-based restore.
func (e *Engine) Restore(snap domain.Snapshot) { e.restore(snap) }

// ApplyEvent replays a single non-FILL incremental event on top of
// already-restored state, for callers recovering through a
// port.EventStore rather than the file-based event log consumed by
// RecoverFromCheckpoint.
func (e *Engine) ApplyEvent(ev domain.OrderEvent) { e.applyIncrementalEvent(ev) }

// SaveSnapshot writes the engine's full state to path as JSON, per §6.1's
// save_snapshot(path). JSON is the teacher's own serialization choice for
// orderbook snapshots (core/engine.go's SnapshotOrderbook stores JSON
// through the cache/repo ports); this repo uses it for the on-disk form
// too rather than inventing a bespoke textual grammar.
func (e *Engine) SaveSnapshot(path string) error {
	snap := e.buildSnapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("engine: save snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("engine: save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads and validates a snapshot file, then wipes current
// engine state and rebuilds it, per §4.8: "load_snapshot MUST validate the
// record (version, invariants) and fail loudly on mismatch" and
// "Restoration wipes current state and rebuilds". If validation fails, the
// engine's existing state is left untouched -- the wipe only happens once
// the loaded snapshot is known-good, giving the "either full restore or a
// clear engine-unusable marker" guarantee of §6.3 by construction (restore
// never starts halfway).
func (e *Engine) LoadSnapshot(path string) error {
	snap, err := readSnapshotFile(path)
	if err != nil {
		return fmt.Errorf("engine: load snapshot: %w", err)
	}
	e.restore(snap)
	return nil
}

func readSnapshotFile(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, err
	}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

// restore wipes current registry/book/stop/fills state and rebuilds it from
// a validated snapshot: orders are reinserted into the registry and, for
// non-stop active orders, pushed into the appropriate priority book;
// pending stops are reinserted into the stop book; the fills list and the
// router's secondary indices are rebuilt from snap.Fills, per §4.8's
// round-trip property. The event log is cleared rather than replayed --
// RecoverFromCheckpoint is the path that reloads and replays events on top
// of a restored snapshot. e.seq is seeded to the highest restored
// ArrivalSeq so that orders submitted after restore never collide with (or
// sort ahead of) a restored order at the same price.
func (e *Engine) restore(snap domain.Snapshot) {
	e.registry.Reset()
	e.bids = book.NewSide(true)
	e.asks = book.NewSide(false)
	e.stops.Reset()
	e.events.Clear()

	e.fills = make([]domain.Fill, len(snap.Fills))
	for i, f := range snap.Fills {
		e.fills[i] = domain.Fill{
			BuyOrderID:  f.BuyOrderID,
			SellOrderID: f.SellOrderID,
			Price:       f.Price,
			Quantity:    f.Quantity,
			Timestamp:   f.Timestamp,
		}
	}
	e.router.RestoreFills(snap.Fills)

	var maxSeq int64
	for i := range snap.ActiveOrders {
		o := &snap.ActiveOrders[i]
		e.registry.Upsert(o)
		if o.ArrivalSeq > maxSeq {
			maxSeq = o.ArrivalSeq
		}
		if o.IsTerminal() || o.IsStop() {
			continue
		}
		if o.Side == domain.Buy {
			e.bids.Push(o)
		} else {
			e.asks.Push(o)
		}
	}
	for i := range snap.PendingStops {
		o := &snap.PendingStops[i]
		o.State = domain.Pending
		e.registry.Upsert(o)
		e.stops.Add(o)
		if o.ArrivalSeq > maxSeq {
			maxSeq = o.ArrivalSeq
		}
	}
	e.seq = maxSeq

	e.haveLastTrade = snap.HasLastTradePrice
	e.lastTradePrice = snap.LastTradePrice
	e.totalOrdersProcessed = snap.TotalOrdersProcessed
	e.latencies = append([]domain.LatencySample(nil), snap.Latencies...)
}

// SaveCheckpoint writes both a snapshot and the current event log, per
// §4.8's "checkpoint = snapshot + events".
func (e *Engine) SaveCheckpoint(snapshotPath, eventsPath string) error {
	if err := e.SaveSnapshot(snapshotPath); err != nil {
		return fmt.Errorf("engine: save checkpoint: %w", err)
	}
	if err := e.SaveEvents(eventsPath); err != nil {
		return fmt.Errorf("engine: save checkpoint: %w", err)
	}
	return nil
}

// RecoverFromCheckpoint loads the snapshot at snapshotPath, then replays
// the incremental event file at eventsPath on top of it, excluding FILL
// events (recomputed by the engine) and skipping any event that precedes
// the snapshot's own timestamp, per §4.8.
func (e *Engine) RecoverFromCheckpoint(snapshotPath, eventsPath string) error {
	snap, err := readSnapshotFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("engine: recover from checkpoint: %w", err)
	}
	e.restore(snap)

	events, err := LoadEvents(eventsPath)
	if err != nil {
		return fmt.Errorf("engine: recover from checkpoint: %w", err)
	}

	for _, ev := range events {
		if ev.Type == domain.EventFill {
			continue
		}
		if ev.Timestamp.Before(snap.SnapshotTime) {
			continue
		}
		e.applyIncrementalEvent(ev)
	}
	return nil
}

// applyIncrementalEvent replays a single non-FILL event from an event log
// on top of restored snapshot state, for checkpoint recovery.
func (e *Engine) applyIncrementalEvent(ev domain.OrderEvent) {
	switch ev.Type {
	case domain.EventNew:
		o := &domain.Order{
			ID:        ev.OrderID,
			AccountID: ev.AccountID,
			Side:      ev.Side,
			Type:      ev.OrderTyp,
			TIF:       ev.TIF,
			Price:     ev.Price,
			Original:  ev.Quantity,
			Remaining: ev.Quantity,
			Display:   ev.Quantity,
			PeakSize:  ev.PeakSize,
		}
		if o.PeakSize > 0 {
			o.Display = o.PeakSize
			if o.Display > o.Original {
				o.Display = o.Original
			}
			o.Hidden = o.Original - o.Display
		}
		if ev.IsStopOrder {
			o.Stop = &domain.Stop{Price: ev.StopPrice, Becomes: ev.StopBecomes, Triggered: false}
		}
		e.submit(o)
	case domain.EventCancel:
		e.Cancel(ev.OrderID)
	case domain.EventAmend:
		// Amend itself logs AMEND, then -- via cancel-and-resubmit -- a CANCEL
		// and a NEW for the same id, all three landing in the log. The CANCEL
		// and NEW cases above/below already reproduce the amend in full
		// (cancel the old order, insert and match the new one); replaying
		// AMEND itself on top of that would apply it a second time and, for
		// an order that crosses on resubmission, double the fill. AMEND is a
		// no-op here.
	}
}
