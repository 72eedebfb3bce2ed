package book

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/domain"
)

func mustStop(t *testing.T, id int64, side domain.Side, stopPrice string) *domain.Order {
	t.Helper()
	o, err := domain.NewStopOrder(id, 1, side, decimal.RequireFromString(stopPrice), domain.BecomesMarket, decimal.Zero, 10, domain.GTC)
	if err != nil {
		t.Fatalf("NewStopOrder: %v", err)
	}
	return o
}

func TestStopBookTriggeredByTradeBuySide(t *testing.T) {
	sb := NewStopBook()
	sb.Add(mustStop(t, 1, domain.Buy, "102"))
	sb.Add(mustStop(t, 2, domain.Buy, "105"))

	triggered := sb.TriggeredByTrade(decimal.NewFromInt(103))
	if len(triggered) != 1 || triggered[0].ID != 1 {
		t.Fatalf("triggered = %+v, want only order 1", triggered)
	}
	if sb.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (remaining stop still pending)", sb.Len())
	}
}

func TestStopBookTriggeredByTradeSellSide(t *testing.T) {
	sb := NewStopBook()
	sb.Add(mustStop(t, 1, domain.Sell, "98"))
	sb.Add(mustStop(t, 2, domain.Sell, "95"))

	triggered := sb.TriggeredByTrade(decimal.NewFromInt(97))
	if len(triggered) != 1 || triggered[0].ID != 1 {
		t.Fatalf("triggered = %+v, want only order 1", triggered)
	}
}

func TestTriggersOnReferenceBuyStopNotYetTriggered(t *testing.T) {
	triggered := TriggersOnReference(domain.Buy, decimal.NewFromInt(102), decimal.NewFromInt(101))
	if triggered {
		t.Fatalf("buy-stop at 102 must not trigger when reference=101")
	}
}

func TestTriggersOnReferenceBuyStopTriggersImmediately(t *testing.T) {
	triggered := TriggersOnReference(domain.Buy, decimal.NewFromInt(102), decimal.NewFromInt(103))
	if !triggered {
		t.Fatalf("buy-stop at 102 must trigger when reference=103")
	}
}

func TestReferencePriceEmptyBookNotOK(t *testing.T) {
	bids, asks := NewSide(true), NewSide(false)
	_, ok := ReferencePrice(true, bids, asks)
	if ok {
		t.Fatalf("ReferencePrice on empty book: ok = true, want false")
	}
}

func TestReferencePriceBuyStopUsesMax(t *testing.T) {
	bids, asks := NewSide(true), NewSide(false)
	bids.Push(mustLimit(t, 1, domain.Buy, "100", 5, 0))
	asks.Push(mustLimit(t, 2, domain.Sell, "103", 5, 0))

	price, ok := ReferencePrice(true, bids, asks)
	if !ok || !price.Equal(decimal.NewFromInt(103)) {
		t.Fatalf("ReferencePrice(buy) = %v, ok=%v, want 103", price, ok)
	}
}

func TestReferencePriceSellStopUsesMin(t *testing.T) {
	bids, asks := NewSide(true), NewSide(false)
	bids.Push(mustLimit(t, 1, domain.Buy, "100", 5, 0))
	asks.Push(mustLimit(t, 2, domain.Sell, "103", 5, 0))

	price, ok := ReferencePrice(false, bids, asks)
	if !ok || !price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("ReferencePrice(sell) = %v, ok=%v, want 100", price, ok)
	}
}

func TestReferencePriceIgnoresCancelledTopOfBook(t *testing.T) {
	bids, asks := NewSide(true), NewSide(false)
	staleBid := mustLimit(t, 1, domain.Buy, "105", 5, 0)
	bids.Push(staleBid)
	bids.Push(mustLimit(t, 2, domain.Buy, "100", 5, 1))
	asks.Push(mustLimit(t, 3, domain.Sell, "103", 5, 0))

	// Lazy deletion leaves a cancelled order sitting at the top of the
	// heap; ReferencePrice must look past it rather than reporting 105.
	staleBid.State = domain.Cancelled

	price, ok := ReferencePrice(true, bids, asks)
	if !ok || !price.Equal(decimal.NewFromInt(103)) {
		t.Fatalf("ReferencePrice(buy) = %v, ok=%v, want 103 (max of the live bid 100 and ask 103)", price, ok)
	}
}
