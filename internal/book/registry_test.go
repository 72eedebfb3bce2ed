package book

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/domain"
)

func TestRegistryUpsertOverwritesDuplicateID(t *testing.T) {
	r := NewRegistry()
	first, _ := domain.NewLimitOrder(1, 1, domain.Buy, decimal.NewFromInt(100), 5, domain.GTC)
	second, _ := domain.NewLimitOrder(1, 2, domain.Sell, decimal.NewFromInt(200), 3, domain.GTC)

	r.Upsert(first)
	r.Upsert(second)

	got, ok := r.Lookup(1)
	if !ok || got.AccountID != 2 {
		t.Fatalf("Lookup(1) = %+v, ok=%v, want second order", got, ok)
	}
}

func TestRegistryCancelThenLookupStillFindsIt(t *testing.T) {
	r := NewRegistry()
	o, _ := domain.NewLimitOrder(1, 1, domain.Buy, decimal.NewFromInt(100), 5, domain.GTC)
	o.State = domain.Active
	r.Upsert(o)

	if !r.Cancel(1) {
		t.Fatalf("Cancel(1) = false, want true")
	}
	if r.Cancel(1) {
		t.Fatalf("second Cancel(1) = true, want false (idempotence)")
	}

	got, ok := r.Lookup(1)
	if !ok || got.State != domain.Cancelled {
		t.Fatalf("Lookup(1) after cancel = %+v, ok=%v", got, ok)
	}
}

func TestRegistryCancelUnknownReturnsFalse(t *testing.T) {
	r := NewRegistry()
	if r.Cancel(999) {
		t.Fatalf("Cancel(999) = true, want false for unknown id")
	}
}

func TestRegistryReconcileDiscardsStaleTerminal(t *testing.T) {
	r := NewRegistry()
	o, _ := domain.NewLimitOrder(1, 1, domain.Buy, decimal.NewFromInt(100), 5, domain.GTC)
	o.State = domain.Active
	r.Upsert(o)
	r.Cancel(1)

	candidate, _ := domain.NewLimitOrder(1, 1, domain.Buy, decimal.NewFromInt(100), 5, domain.GTC)
	_, live := r.Reconcile(candidate)
	if live {
		t.Fatalf("Reconcile returned live=true for a cancelled order")
	}
}

func TestRegistryReconcileDiscardsStaleDisplayExhausted(t *testing.T) {
	r := NewRegistry()
	o, _ := domain.NewIcebergOrder(1, 1, domain.Buy, decimal.NewFromInt(100), 10, 3, domain.GTC)
	o.State = domain.Active
	o.Display = 0
	o.Remaining = 7
	o.Hidden = 7
	r.Upsert(o)

	_, live := r.Reconcile(o)
	if live {
		t.Fatalf("Reconcile returned live=true for a display-exhausted pre-refresh copy")
	}
}
