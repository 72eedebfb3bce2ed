package engine

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vkarasev/matchcore/internal/domain"
)

// FillCallback is invoked once per routed EnhancedFill, in registration
// order, per §4.7 step 5.
type FillCallback func(domain.EnhancedFill)

// SelfTradeCallback is invoked once per vetoed self-trade, with the shared
// account id and the two orders involved, per §4.7 step 1.
type SelfTradeCallback func(accountID int64, aggressive, passive *domain.Order)

// FillRouter turns raw Fills produced by the matching core into enriched
// EnhancedFills: self-trade prevention, maker/taker classification, fee
// computation, fill_id assignment, secondary indexing, and callback
// dispatch, per §4.7. Grounded on original_source/tests/test_fill_router.cpp
// and include/fill_router.hpp's FillRouter(self_trade_prevention) shape.
type FillRouter struct {
	selfTradePrevention bool
	makerRate, takerRate decimal.Decimal

	nextFillID int64

	allFills      []domain.EnhancedFill
	byID          map[int64]*domain.EnhancedFill
	byAccount     map[int64][]*domain.EnhancedFill
	bySymbol      map[string][]*domain.EnhancedFill
	selfTradesPrevented int64

	fillCallbacks      []FillCallback
	selfTradeCallbacks []SelfTradeCallback

	logger zerolog.Logger
}

// NewFillRouter constructs a router with the given self-trade-prevention
// policy and the monotonic fill_id counter seeded from fillIDBase, matching
// the original's FillRouter(bool) constructor generalized with §4.7's
// "implementation-defined base" for fill_id assignment.
func NewFillRouter(selfTradePrevention bool, fillIDBase int64, logger zerolog.Logger) *FillRouter {
	return &FillRouter{
		selfTradePrevention: selfTradePrevention,
		makerRate:           decimal.Zero,
		takerRate:           decimal.Zero,
		nextFillID:          fillIDBase,
		byID:                make(map[int64]*domain.EnhancedFill),
		byAccount:           make(map[int64][]*domain.EnhancedFill),
		bySymbol:            make(map[string][]*domain.EnhancedFill),
		logger:              logger.With().Str("component", "fill_router").Logger(),
	}
}

// SetFeeSchedule installs the maker/taker fee rates, per §6.1's
// set_fee_schedule(maker_rate, taker_rate). Each rate is a plain fraction
// multiplied into notional (0.0002 is 2 basis points).
func (r *FillRouter) SetFeeSchedule(makerRate, takerRate decimal.Decimal) {
	r.makerRate = makerRate
	r.takerRate = takerRate
}

// SetSelfTradePrevention toggles the veto policy, per §6.1.
func (r *FillRouter) SetSelfTradePrevention(enabled bool) {
	r.selfTradePrevention = enabled
}

// RegisterFillCallback adds a subscriber invoked on every accepted fill.
func (r *FillRouter) RegisterFillCallback(cb FillCallback) {
	r.fillCallbacks = append(r.fillCallbacks, cb)
}

// RegisterSelfTradeCallback adds a subscriber invoked on every vetoed
// self-trade.
func (r *FillRouter) RegisterSelfTradeCallback(cb SelfTradeCallback) {
	r.selfTradeCallbacks = append(r.selfTradeCallbacks, cb)
}

// RouteFill is the single entry point the matching core calls for every raw
// Fill it produces. aggressive and passive are the two order copies
// involved (already updated with post-trade remaining/display quantities).
// It returns false if the fill was vetoed as a self-trade -- the caller
// must treat this as "no EnhancedFill produced", per §4.7 step 1's
// contract that the router is consulted before external publication.
func (r *FillRouter) RouteFill(fill domain.Fill, aggressive, passive *domain.Order, symbol string) bool {
	if r.selfTradePrevention && aggressive.AccountID == passive.AccountID {
		r.selfTradesPrevented++
		for _, cb := range r.selfTradeCallbacks {
			r.safeInvokeSelfTrade(cb, aggressive.AccountID, aggressive, passive)
		}
		return false
	}

	buyAccount, sellAccount := passive.AccountID, aggressive.AccountID
	if aggressive.Side == domain.Buy {
		buyAccount, sellAccount = aggressive.AccountID, passive.AccountID
	}

	notional := fill.Price.Mul(decimal.NewFromInt(fill.Quantity))
	buyerFee := notional.Mul(r.takerRate)
	sellerFee := notional.Mul(r.makerRate)
	if aggressive.Side == domain.Sell {
		buyerFee, sellerFee = notional.Mul(r.makerRate), notional.Mul(r.takerRate)
	}

	enhanced := domain.EnhancedFill{
		FillID:        r.nextFillID,
		Symbol:        symbol,
		BuyOrderID:    fill.BuyOrderID,
		SellOrderID:   fill.SellOrderID,
		BuyAccountID:  buyAccount,
		SellAccountID: sellAccount,
		Price:         fill.Price,
		Quantity:      fill.Quantity,
		Timestamp:     fill.Timestamp,
		AggressorSide: aggressive.Side,
		LiquidityFlag: domain.Maker,
		BuyerFee:      buyerFee,
		SellerFee:     sellerFee,
	}
	r.nextFillID++

	r.allFills = append(r.allFills, enhanced)
	stored := &r.allFills[len(r.allFills)-1]
	r.byID[stored.FillID] = stored
	r.byAccount[buyAccount] = append(r.byAccount[buyAccount], stored)
	if sellAccount != buyAccount {
		r.byAccount[sellAccount] = append(r.byAccount[sellAccount], stored)
	}
	r.bySymbol[symbol] = append(r.bySymbol[symbol], stored)

	for _, cb := range r.fillCallbacks {
		r.safeInvokeFill(cb, *stored)
	}

	return true
}

// safeInvokeFill and safeInvokeSelfTrade isolate a panicking callback so it
// cannot corrupt or abort the matching core, per §4.9/§7's "callback errors
// are isolated".
func (r *FillRouter) safeInvokeFill(cb FillCallback, f domain.EnhancedFill) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Int64("fill_id", f.FillID).Msg("fill callback panicked")
		}
	}()
	cb(f)
}

func (r *FillRouter) safeInvokeSelfTrade(cb SelfTradeCallback, accountID int64, aggressive, passive *domain.Order) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Int64("account_id", accountID).Msg("self-trade callback panicked")
		}
	}()
	cb(accountID, aggressive, passive)
}

// RestoreFills wipes and rebuilds the router's fill indices from a
// previously recorded fills list, for snapshot restoration (§4.8's
// round-trip property). The monotonic fill_id counter is advanced past the
// highest restored id so newly routed fills can never collide with one
// carried over from the snapshot.
func (r *FillRouter) RestoreFills(fills []domain.EnhancedFill) {
	r.allFills = append([]domain.EnhancedFill(nil), fills...)
	r.byID = make(map[int64]*domain.EnhancedFill)
	r.byAccount = make(map[int64][]*domain.EnhancedFill)
	r.bySymbol = make(map[string][]*domain.EnhancedFill)

	for i := range r.allFills {
		f := &r.allFills[i]
		r.byID[f.FillID] = f
		r.byAccount[f.BuyAccountID] = append(r.byAccount[f.BuyAccountID], f)
		if f.SellAccountID != f.BuyAccountID {
			r.byAccount[f.SellAccountID] = append(r.byAccount[f.SellAccountID], f)
		}
		r.bySymbol[f.Symbol] = append(r.bySymbol[f.Symbol], f)
		if f.FillID >= r.nextFillID {
			r.nextFillID = f.FillID + 1
		}
	}
}

// TotalFills reports how many EnhancedFills have been accepted.
func (r *FillRouter) TotalFills() int64 { return int64(len(r.allFills)) }

// SelfTradesPrevented reports the veto counter.
func (r *FillRouter) SelfTradesPrevented() int64 { return r.selfTradesPrevented }

// AllFills returns every accepted EnhancedFill, oldest first.
func (r *FillRouter) AllFills() []domain.EnhancedFill { return r.allFills }

// FillsForAccount returns every accepted EnhancedFill touching accountID,
// on either side.
func (r *FillRouter) FillsForAccount(accountID int64) []*domain.EnhancedFill {
	return r.byAccount[accountID]
}

// FillsForSymbol returns every accepted EnhancedFill for symbol.
func (r *FillRouter) FillsForSymbol(symbol string) []*domain.EnhancedFill {
	return r.bySymbol[symbol]
}

// FillByID looks up a single EnhancedFill by its fill_id.
func (r *FillRouter) FillByID(fillID int64) (*domain.EnhancedFill, bool) {
	f, ok := r.byID[fillID]
	return f, ok
}
