package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventType tags the variant an OrderEvent carries.
type EventType string

const (
	EventNew    EventType = "NEW"
	EventCancel EventType = "CANCEL"
	EventAmend  EventType = "AMEND"
	EventFill   EventType = "FILL"
)

// OrderEvent is the tagged union persisted to the event log (C6). Every
// event carries a monotonic timestamp; which other fields are meaningful
// depends on Type, mirroring the original C++ OrderEvent's single struct
// with per-variant constructors (event.hpp).
type OrderEvent struct {
	Timestamp time.Time
	Type      EventType

	// NEW
	OrderID     int64
	AccountID   int64
	Side        Side
	OrderTyp    OrderType
	TIF         TimeInForce
	Price       decimal.Decimal
	Quantity    int64
	PeakSize    int64
	IsStopOrder bool
	StopPrice   decimal.Decimal
	StopBecomes StopBecomes

	// AMEND
	HasNewPrice    bool
	HasNewQuantity bool
	NewPrice       decimal.Decimal
	NewQuantity    int64

	// FILL
	BuyOrderID  int64
	SellOrderID int64
	FillQty     int64
	BuyAccount  int64
	HasAccount  bool
}

// NewOrderEvent builds a NEW event snapshotting an order at submission time.
func NewOrderEvent(ts time.Time, o *Order) OrderEvent {
	e := OrderEvent{
		Timestamp: ts,
		Type:      EventNew,
		OrderID:   o.ID,
		AccountID: o.AccountID,
		Side:      o.Side,
		OrderTyp:  o.Type,
		TIF:       o.TIF,
		Price:     o.Price,
		Quantity:  o.Original,
		PeakSize:  o.PeakSize,
	}
	if o.Stop != nil {
		e.IsStopOrder = !o.Stop.Triggered
		e.StopPrice = o.Stop.Price
		e.StopBecomes = o.Stop.Becomes
	}
	return e
}

// CancelOrderEvent builds a CANCEL event.
func CancelOrderEvent(ts time.Time, orderID int64) OrderEvent {
	return OrderEvent{Timestamp: ts, Type: EventCancel, OrderID: orderID}
}

// AmendOrderEvent builds an AMEND event. newPrice/newQty are nil when that
// field was not supplied to amend.
func AmendOrderEvent(ts time.Time, orderID int64, newPrice *decimal.Decimal, newQty *int64) OrderEvent {
	e := OrderEvent{Timestamp: ts, Type: EventAmend, OrderID: orderID}
	if newPrice != nil {
		e.HasNewPrice = true
		e.NewPrice = *newPrice
	}
	if newQty != nil {
		e.HasNewQuantity = true
		e.NewQuantity = *newQty
	}
	return e
}

// FillOrderEvent builds a FILL event. buyAccount is optional (§3.1: "FILL(...,
// [buy_account?])").
func FillOrderEvent(ts time.Time, buyID, sellID int64, price decimal.Decimal, qty int64, buyAccount *int64) OrderEvent {
	e := OrderEvent{
		Timestamp:   ts,
		Type:        EventFill,
		OrderID:     buyID,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Price:       price,
		FillQty:     qty,
		Quantity:    qty,
	}
	if buyAccount != nil {
		e.HasAccount = true
		e.BuyAccount = *buyAccount
	}
	return e
}

// CSVHeader is the fixed header line of a saved event file (§6.3).
const CSVHeader = "timestamp,type,order_id,side,order_type,tif,price,quantity,peak_size,has_new_price,new_price,has_new_quantity,new_quantity,buy_order_id,sell_order_id,fill_qty,has_account,buy_account,account_id,is_stop_order,stop_price,stop_becomes"

// ToCSV renders the event as one CSV-like line. String fields are never
// free-form here (enums only), so no quoting/escaping is required -- the
// format is still "CSV-like" per §6.3 to keep every field on one comma
// delimited line with a fixed column count.
func (e OrderEvent) ToCSV() string {
	fields := []string{
		strconv.FormatInt(e.Timestamp.UnixNano(), 10),
		string(e.Type),
		strconv.FormatInt(e.OrderID, 10),
		string(e.Side),
		string(e.OrderTyp),
		string(e.TIF),
		e.Price.String(),
		strconv.FormatInt(e.Quantity, 10),
		strconv.FormatInt(e.PeakSize, 10),
		strconv.FormatBool(e.HasNewPrice),
		e.NewPrice.String(),
		strconv.FormatBool(e.HasNewQuantity),
		strconv.FormatInt(e.NewQuantity, 10),
		strconv.FormatInt(e.BuyOrderID, 10),
		strconv.FormatInt(e.SellOrderID, 10),
		strconv.FormatInt(e.FillQty, 10),
		strconv.FormatBool(e.HasAccount),
		strconv.FormatInt(e.BuyAccount, 10),
		strconv.FormatInt(e.AccountID, 10),
		strconv.FormatBool(e.IsStopOrder),
		e.StopPrice.String(),
		string(e.StopBecomes),
	}
	return strings.Join(fields, ",")
}

// EventFromCSV parses one line produced by ToCSV. It round-trips every
// event variant losslessly, including MARKET orders (logged price 0) and
// iceberg orders (peak size recorded), per §6.3.
func EventFromCSV(line string) (OrderEvent, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 22 {
		return OrderEvent{}, fmt.Errorf("domain: malformed event line: want 22 fields, got %d", len(fields))
	}

	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse timestamp: %w", err)
	}
	price, err := decimal.NewFromString(fields[6])
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse price: %w", err)
	}
	newPrice, err := decimal.NewFromString(fields[10])
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse new_price: %w", err)
	}

	e := OrderEvent{
		Timestamp: time.Unix(0, ts),
		Type:      EventType(fields[1]),
		Side:      Side(fields[3]),
		OrderTyp:  OrderType(fields[4]),
		TIF:       TimeInForce(fields[5]),
		Price:     price,
		NewPrice:  newPrice,
	}
	e.OrderID, err = strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse order_id: %w", err)
	}
	e.Quantity, err = strconv.ParseInt(fields[7], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse quantity: %w", err)
	}
	e.PeakSize, err = strconv.ParseInt(fields[8], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse peak_size: %w", err)
	}
	e.HasNewPrice, err = strconv.ParseBool(fields[9])
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse has_new_price: %w", err)
	}
	e.HasNewQuantity, err = strconv.ParseBool(fields[11])
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse has_new_quantity: %w", err)
	}
	e.NewQuantity, err = strconv.ParseInt(fields[12], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse new_quantity: %w", err)
	}
	e.BuyOrderID, err = strconv.ParseInt(fields[13], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse buy_order_id: %w", err)
	}
	e.SellOrderID, err = strconv.ParseInt(fields[14], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse sell_order_id: %w", err)
	}
	e.FillQty, err = strconv.ParseInt(fields[15], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse fill_qty: %w", err)
	}
	e.HasAccount, err = strconv.ParseBool(fields[16])
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse has_account: %w", err)
	}
	e.BuyAccount, err = strconv.ParseInt(fields[17], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse buy_account: %w", err)
	}
	e.AccountID, err = strconv.ParseInt(fields[18], 10, 64)
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse account_id: %w", err)
	}
	e.IsStopOrder, err = strconv.ParseBool(fields[19])
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse is_stop_order: %w", err)
	}
	stopPrice, err := decimal.NewFromString(fields[20])
	if err != nil {
		return OrderEvent{}, fmt.Errorf("domain: parse stop_price: %w", err)
	}
	e.StopPrice = stopPrice
	e.StopBecomes = StopBecomes(fields[21])
	return e, nil
}
