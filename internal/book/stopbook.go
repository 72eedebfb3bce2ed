package book

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/domain"
)

// StopBook holds pending stop / stop-limit orders, split by side and sorted
// by stop price ascending, per §3.1/§4.4 ("Buy-stops ordered ascending;
// sell-stops ordered ascending... insertion order among ties is
// preserved"). It is a plain slice rather than a heap: trigger checks sweep
// a price range on every trade print, which is naturally expressed as a
// linear scan with in-place removal, and the C10 surface never needs a
// single best-stop peek the way the priority books do.
type StopBook struct {
	buyStops  []*domain.Order
	sellStops []*domain.Order
}

// NewStopBook constructs an empty stop book.
func NewStopBook() *StopBook {
	return &StopBook{}
}

// Add enqueues a dormant stop order, keeping its side's slice sorted by
// stop price with ties broken by insertion order (a stable sort on every
// insert is cheap at the scale this engine targets and keeps the trigger
// sweep simple).
func (b *StopBook) Add(o *domain.Order) {
	if o.Side == domain.Buy {
		b.buyStops = append(b.buyStops, o)
		sort.SliceStable(b.buyStops, func(i, j int) bool {
			return b.buyStops[i].Stop.Price.LessThan(b.buyStops[j].Stop.Price)
		})
		return
	}
	b.sellStops = append(b.sellStops, o)
	sort.SliceStable(b.sellStops, func(i, j int) bool {
		return b.sellStops[i].Stop.Price.LessThan(b.sellStops[j].Stop.Price)
	})
}

// Remove drops a stop order by id from whichever side's slice holds it.
// Used by cancel(id) when the target order is still dormant.
func (b *StopBook) Remove(id int64) bool {
	if removeByID(&b.buyStops, id) {
		return true
	}
	return removeByID(&b.sellStops, id)
}

func removeByID(stops *[]*domain.Order, id int64) bool {
	for i, o := range *stops {
		if o.ID == id {
			*stops = append((*stops)[:i], (*stops)[i+1:]...)
			return true
		}
	}
	return false
}

// TriggeredByTrade collects and removes every pending stop whose trigger
// condition is satisfied by tradePrice, per §4.4: buy-stop triggers iff
// tradePrice >= stop_price; sell-stop triggers iff tradePrice <= stop_price.
// The natural sweep order is buy-stops then sell-stops, matching §4.5's
// "cascading stop triggers are processed in the natural order of the sweep
// (buy-stops then sell-stops)".
func (b *StopBook) TriggeredByTrade(tradePrice decimal.Decimal) []*domain.Order {
	var triggered []*domain.Order

	var keepBuy []*domain.Order
	for _, o := range b.buyStops {
		if tradePrice.GreaterThanOrEqual(o.Stop.Price) {
			triggered = append(triggered, o)
		} else {
			keepBuy = append(keepBuy, o)
		}
	}
	b.buyStops = keepBuy

	var keepSell []*domain.Order
	for _, o := range b.sellStops {
		if tradePrice.LessThanOrEqual(o.Stop.Price) {
			triggered = append(triggered, o)
		} else {
			keepSell = append(keepSell, o)
		}
	}
	b.sellStops = keepSell

	return triggered
}

// TriggersOnReference reports whether a stop with the given side and stop
// price would fire immediately under reference, the submission-time
// reference price derived in §4.4.1.
func TriggersOnReference(side domain.Side, stopPrice, reference decimal.Decimal) bool {
	if side == domain.Buy {
		return reference.GreaterThanOrEqual(stopPrice)
	}
	return reference.LessThanOrEqual(stopPrice)
}

// Len reports the total number of dormant stops across both sides, for
// pending_stop_count queries and snapshot statistics.
func (b *StopBook) Len() int {
	return len(b.buyStops) + len(b.sellStops)
}

// All returns every dormant stop order across both sides, for snapshot
// construction (§4.8's pending_stops[]).
func (b *StopBook) All() []*domain.Order {
	out := make([]*domain.Order, 0, b.Len())
	out = append(out, b.buyStops...)
	out = append(out, b.sellStops...)
	return out
}

// Reset wipes all pending stops, used by load_snapshot before rebuilding.
func (b *StopBook) Reset() {
	b.buyStops = nil
	b.sellStops = nil
}
