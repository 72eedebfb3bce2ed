// Package engine implements the single-symbol matching engine: the
// registry-backed priority books (via internal/book), the matching
// algorithm, the fill router, the event log, and snapshot/replay recovery.
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/book"
	"github.com/vkarasev/matchcore/internal/domain"
)

// Engine is the single-symbol matching engine (C1-C10). It is
// single-threaded and synchronous by design (§5): every method runs on the
// calling goroutine's stack, and the engine performs no internal
// concurrency of its own. Callers that need concurrent access must wrap an
// Engine in their own mutual-exclusion layer.
type Engine struct {
	cfg Config

	registry *book.Registry
	bids     *book.Side
	asks     *book.Side
	stops    *book.StopBook

	events *EventLog
	router *FillRouter

	fills []domain.Fill

	haveLastTrade  bool
	lastTradePrice decimal.Decimal

	seq                  int64
	totalOrdersProcessed int64
	latencies            []time.Duration
}

// New constructs an Engine ready to accept submissions.
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		cfg:      cfg,
		registry: book.NewRegistry(),
		bids:     book.NewSide(true),
		asks:     book.NewSide(false),
		stops:    book.NewStopBook(),
		events:   NewEventLog(),
		router:   NewFillRouter(cfg.SelfTradePrevention, cfg.FillIDBase, cfg.Logger),
	}
	e.router.SetFeeSchedule(cfg.MakerRate, cfg.TakerRate)
	return e
}

func (e *Engine) now() time.Time { return e.cfg.Clock() }

func (e *Engine) nextArrivalSeq() int64 {
	e.seq++
	return e.seq
}

// Symbol returns the single symbol this engine instance matches.
func (e *Engine) Symbol() string { return e.cfg.Symbol }

// BestBid returns the top-of-book bid, or nil if the bid side is empty.
// Lazily-stale entries are not consulted against the registry here --
// callers that need an authoritative top-of-book should treat this as a
// hint, matching §6.1's `best_bid() -> Order?`.
func (e *Engine) BestBid() *domain.Order { return e.bids.Peek() }

// BestAsk returns the top-of-book ask, or nil if the ask side is empty.
func (e *Engine) BestAsk() *domain.Order { return e.asks.Peek() }

// Spread returns ask - bid, or false if either side is empty.
func (e *Engine) Spread() (decimal.Decimal, bool) {
	bid, ask := e.BestBid(), e.BestAsk()
	if bid == nil || ask == nil {
		return decimal.Zero, false
	}
	return ask.Price.Sub(bid.Price), true
}

// MarketDepth returns up to levels aggregated price levels per side
// (0 = unlimited), per §6.1's `market_depth(levels) -> PriceLevel[]`.
func (e *Engine) MarketDepth(levels int) (bids, asks []book.PriceLevel) {
	return e.bids.Levels(levels), e.asks.Levels(levels)
}

// Lookup returns the current registry record for id, active or cancelled,
// per §6.1's `lookup(id) -> Order?`.
func (e *Engine) Lookup(id int64) (*domain.Order, bool) {
	return e.registry.Lookup(id)
}

// Fills returns the raw (un-enriched) fills list, per §6.1's `fills()`.
func (e *Engine) Fills() []domain.Fill { return e.fills }

// LastTradePrice returns the most recent trade price, if any.
func (e *Engine) LastTradePrice() (decimal.Decimal, bool) {
	return e.lastTradePrice, e.haveLastTrade
}

// PendingStopCount reports how many stop orders are still dormant.
func (e *Engine) PendingStopCount() int { return e.stops.Len() }

// TotalOrdersProcessed reports the lifetime submission counter, for
// snapshot statistics.
func (e *Engine) TotalOrdersProcessed() int64 { return e.totalOrdersProcessed }

// Router exposes the fill router for configuration and queries (§6.1's
// router.all_fills(), set_fee_schedule, register_fill_callback, etc.).
func (e *Engine) Router() *FillRouter { return e.router }

// EnableLogging turns event logging on.
func (e *Engine) EnableLogging() { e.events.Enable() }

// DisableLogging turns event logging off.
func (e *Engine) DisableLogging() { e.events.Disable() }

// SaveEvents writes the event log to path, per §6.1's save_events(path).
func (e *Engine) SaveEvents(path string) error { return e.events.Save(path) }

// ClearEvents truncates the in-memory event log.
func (e *Engine) ClearEvents() { e.events.Clear() }

// Events returns every recorded event, oldest first.
func (e *Engine) Events() []domain.OrderEvent { return e.events.Events() }

// Cancel looks up id and, if it is active, cancels it, per §4.6. The CANCEL
// event is written before the validity check per §4.9, so a cancel of an
// unknown or already-terminal id still leaves a CANCEL event in the log.
func (e *Engine) Cancel(id int64) bool {
	e.events.Append(domain.CancelOrderEvent(e.now(), id))

	if e.stops.Remove(id) {
		e.registry.Cancel(id)
		return true
	}
	return e.registry.Cancel(id)
}

// Amend replaces order id with a fresh order carrying the supplied new
// price/quantity (unspecified fields reuse current values), implemented as
// cancel-and-resubmit per §4.6. Returns false without side effects (beyond
// the AMEND event) if id is unknown or terminal. This logs AMEND, then
// CANCEL, then NEW for the same id; applyIncrementalEvent treats the logged
// AMEND itself as a no-op on replay, since the CANCEL and NEW that follow
// it already reproduce the amend in full.
func (e *Engine) Amend(id int64, newPrice *decimal.Decimal, newQty *int64) bool {
	e.events.Append(domain.AmendOrderEvent(e.now(), id, newPrice, newQty))

	existing, ok := e.registry.Lookup(id)
	if !ok || existing.IsTerminal() {
		return false
	}

	price := existing.Price
	if newPrice != nil {
		price = *newPrice
	}
	qty := existing.Remaining
	if newQty != nil {
		qty = *newQty
	}

	if !e.Cancel(id) {
		return false
	}

	var fresh *domain.Order
	var err error
	switch {
	case existing.IsIceberg():
		fresh, err = domain.NewIcebergOrder(id, existing.AccountID, existing.Side, price, qty, existing.PeakSize, existing.TIF)
	case existing.IsMarket():
		fresh, err = domain.NewMarketOrder(id, existing.AccountID, existing.Side, qty, existing.TIF)
	default:
		fresh, err = domain.NewLimitOrder(id, existing.AccountID, existing.Side, price, qty, existing.TIF)
	}
	if err != nil {
		return false
	}
	e.submit(fresh)
	return true
}

// Submit accepts a fully-formed order and runs it through the full
// submission contract: registry insertion, NEW event, matching dispatch
// (or stop-book enqueue), and finalization, per §4.5/§6.1.
func (e *Engine) Submit(o *domain.Order) {
	e.submit(o)
}
