package book

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/domain"
)

func mustLimit(t *testing.T, id int64, side domain.Side, price string, qty int64, seq int64) *domain.Order {
	t.Helper()
	o, err := domain.NewLimitOrder(id, 1, side, decimal.RequireFromString(price), qty, domain.GTC)
	if err != nil {
		t.Fatalf("NewLimitOrder: %v", err)
	}
	o.ArrivalSeq = seq
	return o
}

func TestSideBidsPopHighestPriceFirst(t *testing.T) {
	bids := NewSide(true)
	bids.Push(mustLimit(t, 1, domain.Buy, "100", 1, 0))
	bids.Push(mustLimit(t, 2, domain.Buy, "102", 1, 1))
	bids.Push(mustLimit(t, 3, domain.Buy, "101", 1, 2))

	var order []int64
	for bids.Len() > 0 {
		order = append(order, bids.Pop().ID)
	}
	want := []int64{2, 3, 1}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("pop order = %v, want %v", order, want)
		}
	}
}

func TestSideAsksPopLowestPriceFirst(t *testing.T) {
	asks := NewSide(false)
	asks.Push(mustLimit(t, 1, domain.Sell, "100", 1, 0))
	asks.Push(mustLimit(t, 2, domain.Sell, "98", 1, 1))
	asks.Push(mustLimit(t, 3, domain.Sell, "99", 1, 2))

	var order []int64
	for asks.Len() > 0 {
		order = append(order, asks.Pop().ID)
	}
	want := []int64{2, 3, 1}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("pop order = %v, want %v", order, want)
		}
	}
}

func TestSideTiesBrokenByArrivalSeq(t *testing.T) {
	bids := NewSide(true)
	bids.Push(mustLimit(t, 1, domain.Buy, "100", 1, 5))
	bids.Push(mustLimit(t, 2, domain.Buy, "100", 1, 2))
	bids.Push(mustLimit(t, 3, domain.Buy, "100", 1, 9))

	first := bids.Pop()
	if first.ID != 2 {
		t.Fatalf("first pop = %d, want 2 (earliest arrival)", first.ID)
	}
}

func TestSideCloneIsIndependent(t *testing.T) {
	bids := NewSide(true)
	bids.Push(mustLimit(t, 1, domain.Buy, "100", 5, 0))

	clone := bids.Clone()
	clone.Pop()

	if clone.Len() != 0 {
		t.Fatalf("clone.Len() = %d, want 0", clone.Len())
	}
	if bids.Len() != 1 {
		t.Fatalf("original bids.Len() = %d, want 1 (clone must not mutate original)", bids.Len())
	}
}

func TestSidePeekLiveSkipsCancelledTopOfBook(t *testing.T) {
	bids := NewSide(true)
	best := mustLimit(t, 1, domain.Buy, "102", 1, 0)
	bids.Push(best)
	bids.Push(mustLimit(t, 2, domain.Buy, "101", 1, 1))

	if top := bids.Peek(); top.ID != 1 {
		t.Fatalf("Peek().ID = %d, want 1 (still the heap top, stale or not)", top.ID)
	}

	// Lazy deletion leaves the cancelled order sitting at the top of the
	// heap until something pops it for matching.
	best.State = domain.Cancelled

	live := bids.PeekLive()
	if live == nil || live.ID != 2 {
		t.Fatalf("PeekLive() = %+v, want order 2 (the next live entry)", live)
	}
	if bids.Len() != 2 {
		t.Fatalf("PeekLive must not mutate the live queue, Len() = %d, want 2", bids.Len())
	}
}

func TestSidePeekLiveAllStaleReturnsNil(t *testing.T) {
	bids := NewSide(true)
	o := mustLimit(t, 1, domain.Buy, "100", 1, 0)
	o.State = domain.Cancelled
	bids.Push(o)

	if live := bids.PeekLive(); live != nil {
		t.Fatalf("PeekLive() = %+v, want nil (every entry is stale)", live)
	}
}

func TestSideLevelsAggregatesByPrice(t *testing.T) {
	bids := NewSide(true)
	bids.Push(mustLimit(t, 1, domain.Buy, "100", 5, 0))
	bids.Push(mustLimit(t, 2, domain.Buy, "100", 3, 1))
	bids.Push(mustLimit(t, 3, domain.Buy, "99", 10, 2))

	levels := bids.Levels(0)
	if len(levels) != 2 {
		t.Fatalf("len(levels) = %d, want 2", len(levels))
	}
	if levels[0].Quantity != 8 {
		t.Fatalf("top level quantity = %d, want 8", levels[0].Quantity)
	}
	if bids.Len() != 3 {
		t.Fatalf("Levels must not mutate the original queue, Len() = %d, want 3", bids.Len())
	}
}
