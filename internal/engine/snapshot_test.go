package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/domain"
)

func TestSnapshotRoundTripRestoresFills(t *testing.T) {
	e := New(WithSymbol("XYZ"))
	e.Submit(mustLimit(t, 1, 1, domain.Sell, decimal.NewFromInt(100), 50, domain.GTC))
	e.Submit(mustLimit(t, 2, 2, domain.Buy, decimal.NewFromInt(100), 50, domain.GTC))

	if len(e.Fills()) != 1 {
		t.Fatalf("len(Fills()) = %d, want 1", len(e.Fills()))
	}
	originalEnhanced := e.Router().AllFills()
	if len(originalEnhanced) != 1 {
		t.Fatalf("len(Router().AllFills()) = %d, want 1", len(originalEnhanced))
	}

	snap := e.Snapshot()

	target := New(WithSymbol("XYZ"))
	target.Restore(snap)

	if len(target.Fills()) != 1 {
		t.Fatalf("restored Fills() len = %d, want 1", len(target.Fills()))
	}
	if target.Fills()[0].BuyOrderID != e.Fills()[0].BuyOrderID || target.Fills()[0].Quantity != e.Fills()[0].Quantity {
		t.Fatalf("restored raw fill = %+v, want %+v", target.Fills()[0], e.Fills()[0])
	}

	restoredEnhanced := target.Router().AllFills()
	if len(restoredEnhanced) != 1 {
		t.Fatalf("restored Router().AllFills() len = %d, want 1", len(restoredEnhanced))
	}
	if restoredEnhanced[0].FillID != originalEnhanced[0].FillID {
		t.Fatalf("restored fill_id = %d, want %d", restoredEnhanced[0].FillID, originalEnhanced[0].FillID)
	}
	if f, ok := target.Router().FillByID(originalEnhanced[0].FillID); !ok || f.FillID != originalEnhanced[0].FillID {
		t.Fatalf("FillByID(%d) after restore = %+v, ok=%v", originalEnhanced[0].FillID, f, ok)
	}
	if fills := target.Router().FillsForAccount(restoredEnhanced[0].BuyAccountID); len(fills) != 1 {
		t.Fatalf("FillsForAccount after restore = %d fills, want 1", len(fills))
	}

	// A fresh fill routed after restore must not collide with the restored
	// fill_id, since the router's fill_id counter must resume past it.
	target.Submit(mustLimit(t, 3, 1, domain.Sell, decimal.NewFromInt(100), 10, domain.GTC))
	target.Submit(mustLimit(t, 4, 2, domain.Buy, decimal.NewFromInt(100), 10, domain.GTC))

	all := target.Router().AllFills()
	if len(all) != 2 {
		t.Fatalf("len(AllFills()) after post-restore trade = %d, want 2", len(all))
	}
	if all[1].FillID == all[0].FillID {
		t.Fatalf("post-restore fill_id %d collided with restored fill_id %d", all[1].FillID, all[0].FillID)
	}
}

func TestRestorePreservesTimePriorityAgainstFreshArrivals(t *testing.T) {
	e := New(WithSymbol("XYZ"))
	resting := mustLimit(t, 1, 1, domain.Sell, decimal.NewFromInt(100), 10, domain.GTC)
	e.Submit(resting)
	restingSeq := resting.ArrivalSeq

	snap := e.Snapshot()

	target := New(WithSymbol("XYZ"))
	target.Restore(snap)

	restored, ok := target.Lookup(1)
	if !ok {
		t.Fatalf("Lookup(1) after restore = not found, want the restored resting order")
	}
	if restored.ArrivalSeq != restingSeq {
		t.Fatalf("restored.ArrivalSeq = %d, want %d (preserved verbatim)", restored.ArrivalSeq, restingSeq)
	}

	fresh := mustLimit(t, 2, 2, domain.Sell, decimal.NewFromInt(100), 10, domain.GTC)
	target.Submit(fresh)

	// e.seq must be seeded from the restored order's ArrivalSeq, or a
	// post-restore arrival can collide with (or sort ahead of) it at the
	// same price level.
	if fresh.ArrivalSeq <= restingSeq {
		t.Fatalf("fresh.ArrivalSeq = %d, want > restored resting order's %d", fresh.ArrivalSeq, restingSeq)
	}
	if top := target.BestAsk(); top == nil || top.ID != resting.ID {
		t.Fatalf("BestAsk().ID = %v, want %d (restored order keeps priority at the tied price)", top, resting.ID)
	}
}
