// Package http is the HTTP demo server exposing an engine.Engine over
// gin, adapted from the teacher's internal/api/http/http_server.go: the
// same gin.Default()+middleware+JSON-handler shape, generalized from the
// teacher's order/trade/orderbook surface to this engine's
// submit/cancel/amend/depth/fill-stream surface.
package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vkarasev/matchcore/internal/api/dto"
	"github.com/vkarasev/matchcore/internal/api/middleware"
	"github.com/vkarasev/matchcore/internal/book"
	"github.com/vkarasev/matchcore/internal/domain"
	"github.com/vkarasev/matchcore/internal/engine"
)

// Server wraps an *engine.Engine with an HTTP surface and a websocket
// fill stream, matching the teacher's HTTPServer{Eng: ...} shape.
type Server struct {
	Eng      *engine.Engine
	fillHub  *hub[dto.Fill]
	upgrader websocket.Upgrader
}

// NewServer constructs a Server over eng and subscribes to its fill
// router so every accepted fill is fanned out to websocket subscribers.
func NewServer(eng *engine.Engine) *Server {
	s := &Server{
		Eng:      eng,
		fillHub:  newHub[dto.Fill](),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
	eng.Router().RegisterFillCallback(s.onFill)
	return s
}

func (s *Server) onFill(f domain.EnhancedFill) {
	s.fillHub.Broadcast(convertFill(f))
}

// Run wires the route table and blocks serving on addr, matching the
// teacher's HTTPServer.Run(addr).
func (s *Server) Run(addr string) error {
	r := gin.Default()

	rl := middleware.NewRateLimiter(10 * time.Millisecond)
	r.Use(rl.Middleware())

	r.POST("/orders", s.submitOrder)
	r.POST("/orders/modify", s.modifyOrder)
	r.POST("/orders/cancel", s.cancelOrder)
	r.GET("/orders/:id", s.getOrder)
	r.GET("/orderbook", s.getOrderbook)
	r.POST("/snapshot/save", s.saveSnapshot)
	r.POST("/snapshot/load", s.loadSnapshot)
	r.GET("/ws/fills", s.streamFills)

	return r.Run(addr)
}

func (s *Server) submitOrder(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	o, err := buildOrder(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.Eng.Submit(o)

	c.JSON(http.StatusOK, dto.SubmitOrderResponse{
		OrderID:   o.ID,
		State:     string(o.State),
		Remaining: o.Remaining,
	})
}

func (s *Server) modifyOrder(c *gin.Context) {
	var req dto.ModifyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok := s.Eng.Amend(req.OrderID, req.NewPrice, req.NewQuantity)
	c.JSON(http.StatusOK, dto.ModifyOrderResponse{OrderID: req.OrderID, Modified: ok})
}

func (s *Server) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok := s.Eng.Cancel(req.OrderID)
	c.JSON(http.StatusOK, dto.CancelOrderResponse{OrderID: req.OrderID, Cancelled: ok})
}

func (s *Server) getOrder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}
	o, ok := s.Eng.Lookup(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, dto.GetOrderResponse{Order: convertOrder(o)})
}

func (s *Server) getOrderbook(c *gin.Context) {
	bids, asks := s.Eng.MarketDepth(20)
	c.JSON(http.StatusOK, dto.MarketDepthResponse{
		Symbol: s.Eng.Symbol(),
		Bids:   convertLevels(bids),
		Asks:   convertLevels(asks),
	})
}

func (s *Server) saveSnapshot(c *gin.Context) {
	var req dto.SnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Eng.SaveSnapshot(req.Path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.SnapshotResponse{Path: req.Path, Ok: true})
}

func (s *Server) loadSnapshot(c *gin.Context) {
	var req dto.SnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Eng.LoadSnapshot(req.Path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.SnapshotResponse{Path: req.Path, Ok: true})
}

func (s *Server) streamFills(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.fillHub.Subscribe(64)
	defer s.fillHub.Unsubscribe(sub)

	for f := range sub.ch {
		if err := conn.WriteJSON(f); err != nil {
			return
		}
	}
}

func buildOrder(req dto.SubmitOrderRequest) (*domain.Order, error) {
	side := domain.Side(req.Side)
	tif := domain.TimeInForce(req.TIF)

	if req.IsStop {
		becomes := domain.StopBecomes(req.Becomes)
		return domain.NewStopOrder(req.OrderID, req.AccountID, side, req.StopPrice, becomes, req.LimitPrice, req.Quantity, tif)
	}
	switch domain.OrderType(req.Type) {
	case domain.Market:
		return domain.NewMarketOrder(req.OrderID, req.AccountID, side, req.Quantity, tif)
	case domain.Limit:
		if req.PeakSize > 0 {
			return domain.NewIcebergOrder(req.OrderID, req.AccountID, side, req.Price, req.Quantity, req.PeakSize, tif)
		}
		return domain.NewLimitOrder(req.OrderID, req.AccountID, side, req.Price, req.Quantity, tif)
	default:
		return nil, fmt.Errorf("unknown order type %q", req.Type)
	}
}

func convertOrder(o *domain.Order) dto.Order {
	return dto.Order{
		ID:        o.ID,
		AccountID: o.AccountID,
		Side:      string(o.Side),
		Type:      string(o.Type),
		TIF:       string(o.TIF),
		Price:     o.Price,
		Original:  o.Original,
		Remaining: o.Remaining,
		Display:   o.Display,
		PeakSize:  o.PeakSize,
		State:     string(o.State),
		IsPending: o.IsStop(),
	}
}

func convertLevels(levels []book.PriceLevel) []dto.PriceLevel {
	out := make([]dto.PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = dto.PriceLevel{Price: l.Price, Quantity: l.Quantity}
	}
	return out
}

func convertFill(f domain.EnhancedFill) dto.Fill {
	return dto.Fill{
		FillID:        f.FillID,
		Symbol:        f.Symbol,
		BuyOrderID:    f.BuyOrderID,
		SellOrderID:   f.SellOrderID,
		BuyAccountID:  f.BuyAccountID,
		SellAccountID: f.SellAccountID,
		Price:         f.Price,
		Quantity:      f.Quantity,
		Timestamp:     f.Timestamp,
		AggressorSide: string(f.AggressorSide),
		LiquidityFlag: string(f.LiquidityFlag),
		BuyerFee:      f.BuyerFee,
		SellerFee:     f.SellerFee,
	}
}

