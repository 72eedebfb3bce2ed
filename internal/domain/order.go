package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Side identifies the side of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// OrderType identifies the pricing behavior of an order.
type OrderType string

const (
	Limit  OrderType = "LIMIT"
	Market OrderType = "MARKET"
)

// TimeInForce controls how long an order may rest and how it is finalized.
type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	DAY TimeInForce = "DAY"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

// State is the lifecycle state of an order.
type State string

const (
	Pending         State = "PENDING"
	Active          State = "ACTIVE"
	PartiallyFilled State = "PARTIALLY_FILLED"
	Filled          State = "FILLED"
	Cancelled       State = "CANCELLED"
	Rejected        State = "REJECTED"
)

// StopBecomes is the order type a stop converts into once triggered.
type StopBecomes string

const (
	BecomesMarket StopBecomes = "MARKET"
	BecomesLimit  StopBecomes = "LIMIT"
)

// Stop carries the trigger descriptor for a stop / stop-limit order.
// A non-nil Stop with Triggered == false means the order is dormant and
// lives in the stop book rather than in a priority book or registry as an
// active order.
type Stop struct {
	Price     decimal.Decimal
	Becomes   StopBecomes
	Triggered bool
}

// Order is the tagged record for every order variant the engine accepts.
// LIMIT, MARKET, iceberg and stop orders are all represented by this single
// struct with optional fields, per the spec's variant-order-record note in
// §9 -- the corpus teacher does the same (a single struct with a handful of
// optional/zero-value fields standing in for variants) and this repo follows
// that shape rather than introducing a sum type, to keep the registry and
// priority-queue code monomorphic.
type Order struct {
	ID        int64
	AccountID int64
	Side      Side
	Type      OrderType
	TIF       TimeInForce

	// Price is meaningless for MARKET orders (conceptually +Inf for a market
	// buy, 0 for a market sell -- this engine just ignores it for MARKET).
	Price decimal.Decimal

	Original  int64
	Remaining int64

	// Hidden is non-zero only for icebergs (PeakSize > 0); for every other
	// order Display equals Remaining.
	Display  int64
	Hidden   int64
	PeakSize int64

	// ArrivalSeq is the tie-break key within a price level. It is reassigned
	// on every iceberg refresh and on every amend (cancel-and-resubmit),
	// which is how both deliberately lose time priority.
	ArrivalSeq int64

	State State
	Stop  *Stop
}

// IsIceberg reports whether the order discloses only a peak at a time.
func (o *Order) IsIceberg() bool {
	return o.PeakSize > 0 && o.Hidden > 0
}

// IsStop reports whether the order is still dormant, awaiting a trigger.
func (o *Order) IsStop() bool {
	return o.Stop != nil && !o.Stop.Triggered
}

// IsMarket reports whether the order is a market order.
func (o *Order) IsMarket() bool {
	return o.Type == Market
}

// IsTerminal reports whether the order's state never changes again.
func (o *Order) IsTerminal() bool {
	return o.State == Cancelled || o.State == Filled
}

// CanRestInBook reports whether an unfilled remainder of this order is
// eligible to sit in a priority book (as opposed to being IOC/FOK-cancelled
// or cascading from a just-triggered MARKET stop).
func (o *Order) CanRestInBook() bool {
	if o.Type != Limit {
		return false
	}
	return o.TIF == GTC || o.TIF == DAY
}

// NeedsRefresh reports whether an iceberg's visible peak has been exhausted
// while hidden quantity remains, per §4.3.
func (o *Order) NeedsRefresh() bool {
	return o.PeakSize > 0 && o.Display == 0 && o.Hidden > 0
}

// RefreshDisplay reveals the next peak slice of an iceberg. Callers must
// assign a fresh ArrivalSeq afterward -- refresh is defined in §4.3 as
// losing time priority, and ArrivalSeq is owned by whoever re-pushes the
// order into a priority book, not by the order itself.
func (o *Order) RefreshDisplay() {
	if o.Hidden <= 0 {
		return
	}
	reveal := o.PeakSize
	if reveal > o.Hidden {
		reveal = o.Hidden
	}
	o.Display = reveal
	o.Hidden -= reveal
}

// DisplayOrRemaining is the quantity visible to an aggressor: Display for
// icebergs, Remaining for every other order.
func (o *Order) DisplayOrRemaining() int64 {
	if o.IsIceberg() {
		return o.Display
	}
	return o.Remaining
}

// NewLimitOrder constructs a resting-capable LIMIT order.
func NewLimitOrder(id, accountID int64, side Side, price decimal.Decimal, qty int64, tif TimeInForce) (*Order, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("domain: limit order %d: quantity must be positive", id)
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("domain: limit order %d: price must be positive", id)
	}
	return &Order{
		ID:        id,
		AccountID: accountID,
		Side:      side,
		Type:      Limit,
		TIF:       normalizeTIF(Limit, tif),
		Price:     price,
		Original:  qty,
		Remaining: qty,
		Display:   qty,
		State:     Pending,
	}, nil
}

// NewMarketOrder constructs a MARKET order. Any TIF other than IOC/FOK is
// normalized to IOC per §4.9/§7 ("MARKET with TIF=GTC is silently rewritten
// to IOC").
func NewMarketOrder(id, accountID int64, side Side, qty int64, tif TimeInForce) (*Order, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("domain: market order %d: quantity must be positive", id)
	}
	return &Order{
		ID:        id,
		AccountID: accountID,
		Side:      side,
		Type:      Market,
		TIF:       normalizeTIF(Market, tif),
		Original:  qty,
		Remaining: qty,
		Display:   qty,
		State:     Pending,
	}, nil
}

// NewIcebergOrder constructs a LIMIT order that discloses only peakSize at a
// time. peakSize must be positive; a peakSize at or above the total quantity
// is accepted, with the display clamped to the total and nothing hidden.
func NewIcebergOrder(id, accountID int64, side Side, price decimal.Decimal, totalQty, peakSize int64, tif TimeInForce) (*Order, error) {
	if peakSize <= 0 {
		return nil, fmt.Errorf("domain: iceberg order %d: peak size must be positive", id)
	}
	if totalQty <= 0 {
		return nil, fmt.Errorf("domain: iceberg order %d: quantity must be positive", id)
	}
	if price.Sign() <= 0 {
		return nil, fmt.Errorf("domain: iceberg order %d: price must be positive", id)
	}
	display := peakSize
	if display > totalQty {
		display = totalQty
	}
	return &Order{
		ID:        id,
		AccountID: accountID,
		Side:      side,
		Type:      Limit,
		TIF:       normalizeTIF(Limit, tif),
		Price:     price,
		Original:  totalQty,
		Remaining: totalQty,
		Display:   display,
		Hidden:    totalQty - display,
		PeakSize:  peakSize,
		State:     Pending,
	}, nil
}

// NewStopOrder constructs a dormant stop / stop-limit order. becomes selects
// whether the triggered order is a MARKET or LIMIT order; limitPrice is only
// meaningful (and required) when becomes == BecomesLimit.
func NewStopOrder(id, accountID int64, side Side, stopPrice decimal.Decimal, becomes StopBecomes, limitPrice decimal.Decimal, qty int64, tif TimeInForce) (*Order, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("domain: stop order %d: quantity must be positive", id)
	}
	if stopPrice.Sign() <= 0 {
		return nil, fmt.Errorf("domain: stop order %d: stop price must be positive", id)
	}
	ot := Market
	price := decimal.Zero
	if becomes == BecomesLimit {
		if limitPrice.Sign() <= 0 {
			return nil, fmt.Errorf("domain: stop-limit order %d: limit price must be positive", id)
		}
		ot = Limit
		price = limitPrice
	}
	return &Order{
		ID:        id,
		AccountID: accountID,
		Side:      side,
		Type:      ot,
		TIF:       normalizeTIF(ot, tif),
		Price:     price,
		Original:  qty,
		Remaining: qty,
		Display:   qty,
		State:     Pending,
		Stop: &Stop{
			Price:   stopPrice,
			Becomes: becomes,
		},
	}, nil
}

// normalizeTIF rewrites MARKET+GTC/DAY (or MARKET with no TIF) to
// MARKET+IOC, per §4.9/§7; any other order with no TIF defaults to GTC.
func normalizeTIF(ot OrderType, tif TimeInForce) TimeInForce {
	if ot == Market && (tif == "" || tif == GTC || tif == DAY) {
		return IOC
	}
	if tif == "" {
		return GTC
	}
	return tif
}
