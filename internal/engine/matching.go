package engine

import (
	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/book"
	"github.com/vkarasev/matchcore/internal/domain"
)

// submit runs the full submission contract for a freshly constructed order:
// assign an arrival sequence, route dormant stops into the stop book (or
// trigger them immediately if the submission-time reference price already
// satisfies them, per §4.4.1), and otherwise dispatch active orders to the
// side-specific matcher and finalizer.
func (e *Engine) submit(o *domain.Order) {
	o.ArrivalSeq = e.nextArrivalSeq()
	e.totalOrdersProcessed++

	if o.IsStop() {
		ref, ok := e.lastTradePrice, e.haveLastTrade
		if !ok {
			ref, ok = book.ReferencePrice(o.Side == domain.Buy, e.bids, e.asks)
		}
		if ok && book.TriggersOnReference(o.Side, o.Stop.Price, ref) {
			o.Stop.Triggered = true
			e.routeActive(o)
			return
		}
		o.State = domain.Pending
		e.registry.Upsert(o)
		e.events.Append(domain.NewOrderEvent(e.now(), o))
		e.stops.Add(o)
		return
	}

	e.routeActive(o)
}

// routeActive runs the matching path for a non-dormant order: registry
// insertion, NEW event, side-specific matching, and finalization.
func (e *Engine) routeActive(o *domain.Order) {
	o.State = domain.Active
	e.registry.Upsert(o)
	e.events.Append(domain.NewOrderEvent(e.now(), o))

	if o.Side == domain.Buy {
		e.matchBuy(o)
	} else {
		e.matchSell(o)
	}
	e.finalize(o)
}

// canMatch reports whether aggressive may trade against passive at
// passive's price: a market aggressor always matches; a limit aggressor
// must not cross its own price, per §4.5's tie-break rule (>=/<=, not
// strict).
func (e *Engine) canMatch(aggressive, passive *domain.Order) bool {
	if aggressive.IsMarket() {
		return true
	}
	if aggressive.Side == domain.Buy {
		return aggressive.Price.GreaterThanOrEqual(passive.Price)
	}
	return aggressive.Price.LessThanOrEqual(passive.Price)
}

// canFill is the FOK liveness check (§4.9's supplemented can_fill_order
// behavior): it walks a clone of the opposite side, summing full remaining
// quantity (not just display -- the original sums remaining_qty even for
// icebergs, and this repo preserves that rather than inventing a stricter
// FOK-vs-iceberg interaction the spec never describes) at price-acceptable
// levels, without touching the live book. Lazy deletion means a clone entry
// may be a cancelled order the registry has already retired, or a pointer
// an amend has since superseded -- either is skipped rather than counted,
// so a passed check can't be invalidated by liquidity that was never real.
func (e *Engine) canFill(o *domain.Order) bool {
	var side *book.Side
	if o.Side == domain.Buy {
		side = e.asks
	} else {
		side = e.bids
	}
	clone := side.Clone()

	var available int64
	for clone.Len() > 0 && available < o.Original {
		candidate := clone.Pop()
		if !e.canMatch(o, candidate) {
			break
		}
		authoritative, ok := e.registry.Lookup(candidate.ID)
		if !ok || authoritative != candidate || authoritative.IsTerminal() {
			continue
		}
		available += candidate.Remaining
	}
	return available >= o.Original
}

// matchBuy runs the BUY-side matching loop of §4.5 against the ask side.
func (e *Engine) matchBuy(aggressor *domain.Order) {
	if aggressor.TIF == domain.FOK && !e.canFill(aggressor) {
		aggressor.State = domain.Cancelled
		return
	}

	for aggressor.Remaining > 0 && e.asks.Len() > 0 {
		candidate := e.asks.Pop()
		passive, live := e.registry.Reconcile(candidate)
		if !live {
			continue
		}
		if !e.canMatch(aggressor, passive) {
			e.asks.Push(passive)
			break
		}

		e.executeTrade(aggressor, passive)

		if passive.NeedsRefresh() {
			passive.RefreshDisplay()
			passive.ArrivalSeq = e.nextArrivalSeq()
			e.asks.Push(passive)
		} else if passive.Remaining > 0 && passive.Display > 0 {
			e.asks.Push(passive)
		}
	}

	e.handleUnfilled(aggressor, domain.Buy)
}

// matchSell runs the SELL-side matching loop of §4.5 against the bid side.
func (e *Engine) matchSell(aggressor *domain.Order) {
	if aggressor.TIF == domain.FOK && !e.canFill(aggressor) {
		aggressor.State = domain.Cancelled
		return
	}

	for aggressor.Remaining > 0 && e.bids.Len() > 0 {
		candidate := e.bids.Pop()
		passive, live := e.registry.Reconcile(candidate)
		if !live {
			continue
		}
		if !e.canMatch(aggressor, passive) {
			e.bids.Push(passive)
			break
		}

		e.executeTrade(aggressor, passive)

		if passive.NeedsRefresh() {
			passive.RefreshDisplay()
			passive.ArrivalSeq = e.nextArrivalSeq()
			e.bids.Push(passive)
		} else if passive.Remaining > 0 && passive.Display > 0 {
			e.bids.Push(passive)
		}
	}

	e.handleUnfilled(aggressor, domain.Sell)
}

// executeTrade performs one trade print: compute quantity/price, decrement
// both sides, route through the fill router, update last_trade_price, and
// sweep the stop book. Per the self-trade-routing-ordering decision
// recorded in SPEC_FULL.md §1-9, the raw fill and FILL event are only
// recorded if the router accepts -- a vetoed self-trade still transacts
// (quantities move, the price prints, stops still see it) but produces no
// externally-visible record.
func (e *Engine) executeTrade(aggressive, passive *domain.Order) {
	available := passive.DisplayOrRemaining()
	tradeQty := aggressive.Remaining
	if available < tradeQty {
		tradeQty = available
	}
	tradePrice := passive.Price

	buyID, sellID := passive.ID, aggressive.ID
	buyAccount := passive.AccountID
	if aggressive.Side == domain.Buy {
		buyID, sellID = aggressive.ID, passive.ID
		buyAccount = aggressive.AccountID
	}

	now := e.now()
	fill := domain.Fill{BuyOrderID: buyID, SellOrderID: sellID, Price: tradePrice, Quantity: tradeQty, Timestamp: now}

	aggressive.Remaining -= tradeQty
	passive.Remaining -= tradeQty
	if passive.IsIceberg() {
		passive.Display -= tradeQty
	} else {
		passive.Display = passive.Remaining
	}
	if !aggressive.IsIceberg() {
		aggressive.Display = aggressive.Remaining
	}
	e.applyFinalizedQuantity(aggressive)
	e.applyFinalizedQuantity(passive)

	accepted := e.router.RouteFill(fill, aggressive, passive, e.cfg.Symbol)
	if accepted {
		e.fills = append(e.fills, fill)
		e.events.Append(domain.FillOrderEvent(now, buyID, sellID, tradePrice, tradeQty, &buyAccount))
	}

	e.lastTradePrice = tradePrice
	e.haveLastTrade = true
	e.sweepStops(tradePrice)
}

// applyFinalizedQuantity mirrors update_order_state's bookkeeping: once an
// order's remaining quantity reaches zero mid-match it is FILLED; otherwise
// if it has traded at all it is PARTIALLY_FILLED. The terminal-state
// finalizer (§4.6) re-derives the same classification after the matching
// loop returns, so this only matters for orders that stop being touched
// again within the same sweep (e.g. a passive order resting afterward).
func (e *Engine) applyFinalizedQuantity(o *domain.Order) {
	if o.IsTerminal() {
		return
	}
	if o.Remaining == 0 {
		o.State = domain.Filled
	} else if o.Remaining < o.Original {
		o.State = domain.PartiallyFilled
	}
}

// handleUnfilled implements §4.5 step 3: a LIMIT GTC/DAY remainder rests in
// the book; everything else (IOC, FOK, MARKET) is cancelled with its
// remainder frozen.
func (e *Engine) handleUnfilled(o *domain.Order, side domain.Side) {
	if o.Remaining == 0 {
		return
	}
	if o.CanRestInBook() {
		if side == domain.Buy {
			e.bids.Push(o)
		} else {
			e.asks.Push(o)
		}
		return
	}
	if !o.IsTerminal() {
		o.State = domain.Cancelled
	}
}

// finalize is the terminal-state finalizer of §4.6, run after the
// side-specific matcher returns.
func (e *Engine) finalize(o *domain.Order) {
	if o.IsTerminal() {
		return
	}
	if o.TIF == domain.IOC {
		if o.Remaining > 0 {
			o.State = domain.Cancelled
		} else {
			o.State = domain.Filled
		}
		return
	}
	if o.Remaining == 0 {
		o.State = domain.Filled
	} else if o.Remaining < o.Original {
		o.State = domain.PartiallyFilled
	}
}

// sweepStops triggers every pending stop whose condition tradePrice
// satisfies, in buy-stops-then-sell-stops order, and routes each through
// the normal submission path -- its own fills may cascade-trigger further
// stops, per §4.5's cascading-stop-trigger rule.
func (e *Engine) sweepStops(tradePrice decimal.Decimal) {
	triggered := e.stops.TriggeredByTrade(tradePrice)
	for _, o := range triggered {
		o.Stop.Triggered = true
		e.routeActive(o)
	}
}
