// Package execution turns assembled signals into orders and supervises
// open positions until their stop or target is hit.
package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"insidebar-engine/internal/model"
)

// PaperBroker simulates a broker in memory: market orders fill
// immediately at the last set quote plus slippage. It implements
// model.Broker and model.QuoteFetcher, so the live wiring runs
// unchanged in paper mode.
type PaperBroker struct {
	mu          sync.Mutex
	seq         int64
	orders      map[string]model.Order
	positions   map[string]*model.Position
	quotes      map[string]int64 // trading symbol -> paise
	slippageBps int64
}

// NewPaperBroker creates a paper broker with the given slippage in
// basis points (applied against the taker).
func NewPaperBroker(slippageBps int64) *PaperBroker {
	return &PaperBroker{
		orders:      make(map[string]model.Order),
		positions:   make(map[string]*model.Position),
		quotes:      make(map[string]int64),
		slippageBps: slippageBps,
	}
}

// SetQuote sets the simulated last traded price for a symbol.
func (b *PaperBroker) SetQuote(tradingSymbol string, paise int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quotes[tradingSymbol] = paise
	if pos, ok := b.positions[tradingSymbol]; ok {
		pos.LastPrice = paise
	}
}

// LTP returns the simulated quote for a symbol.
func (b *PaperBroker) LTP(ctx context.Context, exchange, tradingSymbol, symbolToken string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.quotes[tradingSymbol]
	if !ok {
		return 0, fmt.Errorf("%w: no paper quote for %s", model.ErrQuoteUnavailable, tradingSymbol)
	}
	return q, nil
}

// PlaceOrder fills a market order instantly at quote ± slippage.
func (b *PaperBroker) PlaceOrder(ctx context.Context, req model.OrderRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	quote, ok := b.quotes[req.TradingSymbol]
	if !ok {
		if req.Price > 0 {
			quote = req.Price
		} else {
			return "", fmt.Errorf("no paper quote for %s", req.TradingSymbol)
		}
	}

	fill := quote
	slip := quote * b.slippageBps / 10000
	if req.Transaction == "BUY" {
		fill += slip
	} else {
		fill -= slip
	}

	b.seq++
	orderID := fmt.Sprintf("PAPER-%d", b.seq)
	b.orders[orderID] = model.Order{
		OrderID:         orderID,
		TradingSymbol:   req.TradingSymbol,
		SymbolToken:     req.SymbolToken,
		Exchange:        req.Exchange,
		TransactionType: req.Transaction,
		OrderType:       req.OrderType,
		ProductType:     req.ProductType,
		Qty:             req.Qty,
		FilledQty:       req.Qty,
		Price:           req.Price,
		AvgPrice:        fill,
		Status:          model.OrderComplete,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	b.applyFill(req, fill)
	return orderID, nil
}

func (b *PaperBroker) applyFill(req model.OrderRequest, fill int64) {
	pos, ok := b.positions[req.TradingSymbol]
	if !ok {
		pos = &model.Position{
			TradingSymbol: req.TradingSymbol,
			SymbolToken:   req.SymbolToken,
			Exchange:      req.Exchange,
			LastPrice:     fill,
		}
		b.positions[req.TradingSymbol] = pos
	}
	qty := req.Qty
	if req.Transaction == "SELL" {
		qty = -qty
	}
	newQty := pos.Qty + qty
	if qty > 0 && newQty != 0 {
		// weighted average entry on adds; a buy that exactly covers a
		// short leaves no position to average into
		pos.AvgPrice = (pos.AvgPrice*pos.Qty + fill*qty) / newQty
	}
	pos.Qty = newQty
	pos.LastPrice = fill
	if pos.Qty == 0 {
		delete(b.positions, req.TradingSymbol)
	}
}

// GetPositions returns open simulated positions.
func (b *PaperBroker) GetPositions(ctx context.Context) ([]model.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, *p)
	}
	return out, nil
}

// CancelOrder marks an order cancelled. Paper fills are instantaneous,
// so only unknown IDs fail.
func (b *PaperBroker) CancelOrder(ctx context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("unknown order %s", orderID)
	}
	if o.Status != model.OrderComplete {
		o.Status = model.OrderCancelled
		o.UpdatedAt = time.Now()
		b.orders[orderID] = o
	}
	return nil
}

// GetOrderStatus returns the simulated order state.
func (b *PaperBroker) GetOrderStatus(ctx context.Context, orderID string) (model.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[orderID]
	if !ok {
		return model.Order{}, fmt.Errorf("unknown order %s", orderID)
	}
	return o, nil
}

// ModifyOrder updates price/qty on a non-terminal order.
func (b *PaperBroker) ModifyOrder(ctx context.Context, orderID string, upd model.OrderUpdate) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("unknown order %s", orderID)
	}
	if o.Status == model.OrderComplete || o.Status == model.OrderCancelled {
		return fmt.Errorf("order %s already %s", orderID, o.Status)
	}
	if upd.Price > 0 {
		o.Price = upd.Price
	}
	if upd.Qty > 0 {
		o.Qty = upd.Qty
	}
	o.UpdatedAt = time.Now()
	b.orders[orderID] = o
	return nil
}
