package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fill is the raw output of the matching core: a single trade between two
// orders, before participant identity, fee, or liquidity classification is
// attached. A Fill carries no accounts, fees, or liquidity flag, and the
// matching core invokes no callbacks -- attaching those and dispatching
// callbacks is the fill router's job (§4.7).
type Fill struct {
	BuyOrderID  int64
	SellOrderID int64
	Price       decimal.Decimal
	Quantity    int64
	Timestamp   time.Time
}

// LiquidityFlag records which side(s) of a fill were resting liquidity.
type LiquidityFlag string

const (
	Maker      LiquidityFlag = "MAKER"
	Taker      LiquidityFlag = "TAKER"
	MakerMaker LiquidityFlag = "MAKER_MAKER"
)

// EnhancedFill is a raw Fill enriched by the fill router with participant
// identity, liquidity classification, and fees, per §3.1.
type EnhancedFill struct {
	FillID        int64
	Symbol        string
	BuyOrderID    int64
	SellOrderID   int64
	BuyAccountID  int64
	SellAccountID int64
	Price         decimal.Decimal
	Quantity      int64
	Timestamp     time.Time

	// AggressorSide is the side of the incoming order that crossed the book.
	AggressorSide Side
	LiquidityFlag LiquidityFlag

	BuyerFee  decimal.Decimal
	SellerFee decimal.Decimal
}
