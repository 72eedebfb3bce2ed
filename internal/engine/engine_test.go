package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/domain"
)

func mustLimit(t *testing.T, id, accountID int64, side domain.Side, price decimal.Decimal, qty int64, tif domain.TimeInForce) *domain.Order {
	t.Helper()
	o, err := domain.NewLimitOrder(id, accountID, side, price, qty, tif)
	if err != nil {
		t.Fatalf("NewLimitOrder: %v", err)
	}
	return o
}

func TestSimpleCross(t *testing.T) {
	e := New(WithSymbol("XYZ"))
	buy := mustLimit(t, 1, 1, domain.Buy, decimal.NewFromInt(100), 100, domain.GTC)
	sell := mustLimit(t, 2, 2, domain.Sell, decimal.NewFromInt(100), 100, domain.GTC)

	e.Submit(buy)
	e.Submit(sell)

	if len(e.Fills()) != 1 {
		t.Fatalf("len(Fills()) = %d, want 1", len(e.Fills()))
	}
	f := e.Fills()[0]
	if !f.Price.Equal(decimal.NewFromInt(100)) || f.Quantity != 100 {
		t.Fatalf("fill = %+v, want price 100 qty 100", f)
	}
	if buy.State != domain.Filled || sell.State != domain.Filled {
		t.Fatalf("buy.State=%v sell.State=%v, want both FILLED", buy.State, sell.State)
	}
	if e.BestBid() != nil || e.BestAsk() != nil {
		t.Fatalf("book not empty after full cross")
	}
}

func TestPriceImprovementForAggressor(t *testing.T) {
	e := New(WithSymbol("XYZ"))
	sell := mustLimit(t, 1, 1, domain.Sell, decimal.NewFromInt(100), 100, domain.GTC)
	buy := mustLimit(t, 2, 2, domain.Buy, decimal.NewFromInt(101), 100, domain.GTC)

	e.Submit(sell)
	e.Submit(buy)

	if len(e.Fills()) != 1 {
		t.Fatalf("len(Fills()) = %d, want 1", len(e.Fills()))
	}
	if !e.Fills()[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("fill price = %s, want 100.00 (passive price)", e.Fills()[0].Price)
	}
}

func TestIcebergExhaustionAndRefreshLosesPriority(t *testing.T) {
	e := New(WithSymbol("XYZ"))
	iceberg, err := domain.NewIcebergOrder(1, 1, domain.Sell, decimal.NewFromInt(100), 500, 100, domain.GTC)
	if err != nil {
		t.Fatalf("NewIcebergOrder: %v", err)
	}
	e.Submit(iceberg)

	// Competitor rests behind the iceberg's original arrival at the same
	// price -- it has no effect yet, since the iceberg's displayed peak
	// still has strictly better time priority.
	competitor := mustLimit(t, 2, 2, domain.Sell, decimal.NewFromInt(100), 50, domain.GTC)
	e.Submit(competitor)

	buy1 := mustLimit(t, 3, 3, domain.Buy, decimal.NewFromInt(100), 100, domain.GTC)
	e.Submit(buy1)

	if len(e.Fills()) != 1 {
		t.Fatalf("len(Fills()) = %d, want 1 (buy1 exhausts the iceberg's first peak)", len(e.Fills()))
	}
	if iceberg.Display != 100 || iceberg.Hidden != 300 {
		t.Fatalf("after first trade: display=%d hidden=%d, want display=100 hidden=300", iceberg.Display, iceberg.Hidden)
	}

	// The refresh reassigned the iceberg a fresh ArrivalSeq, so the
	// competitor -- resting since before the refresh -- now has strictly
	// better time priority at the same price level.
	buy2 := mustLimit(t, 4, 4, domain.Buy, decimal.NewFromInt(100), 50, domain.GTC)
	e.Submit(buy2)

	fills := e.Fills()
	if len(fills) != 2 {
		t.Fatalf("len(Fills()) = %d, want 2", len(fills))
	}
	if fills[1].SellOrderID != competitor.ID {
		t.Fatalf("second fill sell_order_id = %d, want competitor's id %d (refreshed iceberg lost priority)", fills[1].SellOrderID, competitor.ID)
	}
	if competitor.State != domain.Filled {
		t.Fatalf("competitor.State = %v, want FILLED", competitor.State)
	}
	if iceberg.Display != 100 || iceberg.Remaining != 400 {
		t.Fatalf("iceberg untouched by second trade: display=%d remaining=%d, want display=100 remaining=400", iceberg.Display, iceberg.Remaining)
	}
}

func TestFOKRejectionOnInsufficientLiquidity(t *testing.T) {
	e := New(WithSymbol("XYZ"))
	ask := mustLimit(t, 1, 1, domain.Sell, decimal.NewFromInt(100), 50, domain.GTC)
	e.Submit(ask)

	buy := mustLimit(t, 2, 2, domain.Buy, decimal.NewFromInt(100), 100, domain.FOK)
	e.Submit(buy)

	if len(e.Fills()) != 0 {
		t.Fatalf("len(Fills()) = %d, want 0", len(e.Fills()))
	}
	if buy.State != domain.Cancelled {
		t.Fatalf("buy.State = %v, want CANCELLED", buy.State)
	}
	if ask.Remaining != 50 {
		t.Fatalf("ask.Remaining = %d, want untouched 50", ask.Remaining)
	}
}

func TestStopCascade(t *testing.T) {
	e := New(WithSymbol("XYZ"))

	stop1, _ := domain.NewStopOrder(1, 1, domain.Sell, decimal.NewFromFloat(96.50), domain.BecomesMarket, decimal.Zero, 100, domain.GTC)
	stop2, _ := domain.NewStopOrder(2, 2, domain.Sell, decimal.NewFromFloat(96.00), domain.BecomesMarket, decimal.Zero, 100, domain.GTC)
	stop3, _ := domain.NewStopOrder(3, 3, domain.Sell, decimal.NewFromFloat(95.50), domain.BecomesMarket, decimal.Zero, 100, domain.GTC)
	e.Submit(stop1)
	e.Submit(stop2)
	e.Submit(stop3)

	if e.PendingStopCount() != 3 {
		t.Fatalf("PendingStopCount() = %d, want 3 before any trade (no reference price yet)", e.PendingStopCount())
	}

	e.Submit(mustLimit(t, 10, 10, domain.Buy, decimal.NewFromFloat(96.40), 100, domain.GTC))
	e.Submit(mustLimit(t, 11, 11, domain.Buy, decimal.NewFromFloat(96.00), 100, domain.GTC))
	e.Submit(mustLimit(t, 12, 12, domain.Buy, decimal.NewFromFloat(95.50), 100, domain.GTC))

	if e.PendingStopCount() != 3 {
		t.Fatalf("PendingStopCount() = %d after resting bids, want still 3 (no trade printed yet)", e.PendingStopCount())
	}

	// A single aggressive sell sweeps the 96.40 bid, printing a trade at
	// 96.40 that triggers stop1; stop1's own market-sell fill against the
	// 96.00 bid prints a trade at 96.00 that triggers stop2; stop2's fill
	// against the 95.50 bid prints a trade at 95.50 that triggers stop3,
	// which finds no remaining bids and is cancelled unfilled.
	e.Submit(mustLimit(t, 20, 20, domain.Sell, decimal.NewFromFloat(95.00), 300, domain.GTC))

	if e.PendingStopCount() != 0 {
		t.Fatalf("PendingStopCount() = %d after cascading prints, want 0 (all stops triggered)", e.PendingStopCount())
	}
	if stop1.State != domain.Filled {
		t.Fatalf("stop1.State = %v, want FILLED", stop1.State)
	}
	if stop2.State != domain.Filled {
		t.Fatalf("stop2.State = %v, want FILLED", stop2.State)
	}
	if stop3.State != domain.Cancelled {
		t.Fatalf("stop3.State = %v, want CANCELLED (market order, no liquidity left to match)", stop3.State)
	}
	if len(e.Fills()) != 3 {
		t.Fatalf("len(Fills()) = %d, want 3 (original sweep + two cascaded stop fills)", len(e.Fills()))
	}
	if e.BestBid() != nil {
		t.Fatalf("BestBid() = %v, want nil (all three bid levels consumed)", e.BestBid())
	}
}

func TestSelfTradeVeto(t *testing.T) {
	e := New(WithSymbol("XYZ"), WithSelfTradePrevention(true))

	sawSelfTrade := 0
	e.Router().RegisterSelfTradeCallback(func(accountID int64, aggressive, passive *domain.Order) {
		sawSelfTrade++
	})

	sell := mustLimit(t, 1, 1, domain.Sell, decimal.NewFromFloat(101.25), 50, domain.GTC)
	buy := mustLimit(t, 2, 1, domain.Buy, decimal.NewFromFloat(101.25), 50, domain.GTC)
	e.Submit(sell)
	e.Submit(buy)

	if e.Router().TotalFills() != 0 {
		t.Fatalf("TotalFills() = %d, want 0", e.Router().TotalFills())
	}
	if e.Router().SelfTradesPrevented() != 1 {
		t.Fatalf("SelfTradesPrevented() = %d, want 1", e.Router().SelfTradesPrevented())
	}
	if sawSelfTrade != 1 {
		t.Fatalf("self-trade callback invoked %d times, want 1", sawSelfTrade)
	}
	if buy.State != domain.Filled || sell.State != domain.Filled {
		t.Fatalf("buy/sell states = %v/%v, want both FILLED (trade still transacts despite veto)", buy.State, sell.State)
	}
}

func TestCancelIdempotence(t *testing.T) {
	e := New(WithSymbol("XYZ"))
	o := mustLimit(t, 1, 1, domain.Buy, decimal.NewFromInt(100), 10, domain.GTC)
	e.Submit(o)

	if !e.Cancel(1) {
		t.Fatalf("first Cancel(1) = false, want true")
	}
	if e.Cancel(1) {
		t.Fatalf("second Cancel(1) = true, want false")
	}
}

func TestIOCPartialFillCancelsRemainder(t *testing.T) {
	e := New(WithSymbol("XYZ"))
	e.Submit(mustLimit(t, 1, 1, domain.Sell, decimal.NewFromInt(100), 30, domain.GTC))

	buy := mustLimit(t, 2, 2, domain.Buy, decimal.NewFromInt(100), 100, domain.IOC)
	e.Submit(buy)

	if buy.Remaining != 70 {
		t.Fatalf("buy.Remaining = %d, want 70", buy.Remaining)
	}
	if buy.State != domain.Cancelled {
		t.Fatalf("buy.State = %v, want CANCELLED", buy.State)
	}
	if e.BestBid() != nil {
		t.Fatalf("IOC remainder rested in book, want discarded")
	}
}

func TestFOKLivenessCheckIgnoresCancelledRestingOrder(t *testing.T) {
	e := New(WithSymbol("XYZ"))

	stale := mustLimit(t, 1, 1, domain.Sell, decimal.NewFromInt(100), 50, domain.GTC)
	e.Submit(stale)
	if !e.Cancel(1) {
		t.Fatalf("Cancel(1) = false, want true")
	}
	// stale is now cancelled but, under lazy deletion, still sitting at the
	// top of the ask heap -- nothing has popped it yet.

	live := mustLimit(t, 2, 2, domain.Sell, decimal.NewFromInt(100), 30, domain.GTC)
	e.Submit(live)

	buy := mustLimit(t, 3, 3, domain.Buy, decimal.NewFromInt(100), 50, domain.FOK)
	e.Submit(buy)

	// Only 30 shares of live liquidity exist at an acceptable price; the
	// cancelled order's frozen Remaining=50 must not count toward the
	// all-or-nothing check.
	if len(e.Fills()) != 0 {
		t.Fatalf("len(Fills()) = %d, want 0 (FOK must reject rather than partial-fill)", len(e.Fills()))
	}
	if buy.State != domain.Cancelled {
		t.Fatalf("buy.State = %v, want CANCELLED", buy.State)
	}
	if live.Remaining != 30 {
		t.Fatalf("live.Remaining = %d, want untouched 30", live.Remaining)
	}
}

func TestStopTriggersOnLastTradePriceWhenBookEmpty(t *testing.T) {
	e := New(WithSymbol("XYZ"))
	e.Submit(mustLimit(t, 1, 1, domain.Sell, decimal.NewFromInt(98), 50, domain.GTC))
	e.Submit(mustLimit(t, 2, 2, domain.Buy, decimal.NewFromInt(98), 50, domain.GTC))

	if e.BestBid() != nil || e.BestAsk() != nil {
		t.Fatalf("book not empty after full cross")
	}
	if price, ok := e.LastTradePrice(); !ok || !price.Equal(decimal.NewFromInt(98)) {
		t.Fatalf("LastTradePrice() = %v, ok=%v, want 98", price, ok)
	}

	// The book is empty, so book.ReferencePrice alone would report ok=false;
	// the stop must still trigger off last_trade_price (98 >= 97).
	stop, err := domain.NewStopOrder(3, 3, domain.Buy, decimal.NewFromInt(97), domain.BecomesMarket, decimal.Zero, 10, domain.GTC)
	if err != nil {
		t.Fatalf("NewStopOrder: %v", err)
	}
	e.Submit(stop)

	if e.PendingStopCount() != 0 {
		t.Fatalf("PendingStopCount() = %d, want 0 (last trade price triggers the stop immediately)", e.PendingStopCount())
	}
	if stop.State != domain.Cancelled {
		t.Fatalf("stop.State = %v, want CANCELLED (triggered market buy found no resting liquidity)", stop.State)
	}
}
