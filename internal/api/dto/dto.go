// Package dto holds the wire-level request/response shapes for the HTTP
// demo server, mirroring the teacher's internal/api/dto package: a flat
// JSON-tagged struct per endpoint, independent of the domain package's own
// types so the engine's internals can change without breaking callers.
package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubmitOrderRequest is the body of POST /orders. IsStop, Type and
// PeakSize > 0 select which of Price/PeakSize/Stop*/LimitPrice are
// meaningful (a stop uses StopPrice/Becomes/LimitPrice, a LIMIT uses Price,
// and PeakSize > 0 makes a LIMIT an iceberg), matching the engine's own
// single-struct-with-optional-fields order representation.
type SubmitOrderRequest struct {
	OrderID   int64           `json:"order_id"`
	AccountID int64           `json:"account_id"`
	Side      string          `json:"side" binding:"required"`
	Type      string          `json:"type" binding:"required"`
	TIF       string          `json:"tif,omitempty"`
	Price     decimal.Decimal `json:"price,omitempty"`
	Quantity  int64           `json:"quantity" binding:"required"`
	PeakSize  int64           `json:"peak_size,omitempty"`

	IsStop     bool            `json:"is_stop,omitempty"`
	StopPrice  decimal.Decimal `json:"stop_price,omitempty"`
	Becomes    string          `json:"becomes,omitempty"`
	LimitPrice decimal.Decimal `json:"limit_price,omitempty"`
}

// SubmitOrderResponse reports the immediate outcome of a submission.
type SubmitOrderResponse struct {
	OrderID   int64  `json:"order_id"`
	State     string `json:"state"`
	Remaining int64  `json:"remaining"`
}

// ModifyOrderRequest is the body of POST /orders/modify.
type ModifyOrderRequest struct {
	OrderID     int64            `json:"order_id" binding:"required"`
	NewPrice    *decimal.Decimal `json:"new_price,omitempty"`
	NewQuantity *int64           `json:"new_quantity,omitempty"`
}

// ModifyOrderResponse reports whether the amendment applied.
type ModifyOrderResponse struct {
	OrderID  int64 `json:"order_id"`
	Modified bool  `json:"modified"`
}

// CancelOrderRequest is the body of POST /orders/cancel.
type CancelOrderRequest struct {
	OrderID int64 `json:"order_id" binding:"required"`
}

// CancelOrderResponse reports whether the cancel applied.
type CancelOrderResponse struct {
	OrderID   int64 `json:"order_id"`
	Cancelled bool  `json:"cancelled"`
}

// Order is the read-facing representation of an engine order.
type Order struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	Side      string          `json:"side"`
	Type      string          `json:"type"`
	TIF       string          `json:"tif"`
	Price     decimal.Decimal `json:"price"`
	Original  int64           `json:"original"`
	Remaining int64           `json:"remaining"`
	Display   int64           `json:"display"`
	PeakSize  int64           `json:"peak_size"`
	State     string          `json:"state"`
	IsPending bool            `json:"is_pending_stop"`
}

// GetOrderResponse is the body of GET /orders/:id.
type GetOrderResponse struct {
	Order Order `json:"order"`
}

// PriceLevel mirrors book.PriceLevel at the wire boundary.
type PriceLevel struct {
	Price    decimal.Decimal `json:"price"`
	Quantity int64           `json:"quantity"`
}

// MarketDepthResponse is the body of GET /orderbook.
type MarketDepthResponse struct {
	Symbol string       `json:"symbol"`
	Bids   []PriceLevel `json:"bids"`
	Asks   []PriceLevel `json:"asks"`
}

// Fill is the read-facing representation of an engine EnhancedFill.
type Fill struct {
	FillID        int64           `json:"fill_id"`
	Symbol        string          `json:"symbol"`
	BuyOrderID    int64           `json:"buy_order_id"`
	SellOrderID   int64           `json:"sell_order_id"`
	BuyAccountID  int64           `json:"buy_account_id"`
	SellAccountID int64           `json:"sell_account_id"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int64           `json:"quantity"`
	Timestamp     time.Time       `json:"timestamp"`
	AggressorSide string          `json:"aggressor_side"`
	LiquidityFlag string          `json:"liquidity_flag"`
	BuyerFee      decimal.Decimal `json:"buyer_fee"`
	SellerFee     decimal.Decimal `json:"seller_fee"`
}

// SnapshotRequest is the body of POST /snapshot/save and POST /snapshot/load.
type SnapshotRequest struct {
	Path string `json:"path" binding:"required"`
}

// SnapshotResponse reports the outcome of a snapshot/checkpoint operation.
type SnapshotResponse struct {
	Path string `json:"path"`
	Ok   bool   `json:"ok"`
}
