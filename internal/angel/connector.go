// Package angel adapts the SmartAPI client to the engine's broker,
// quote, and candle ports. Prices cross this boundary in paise.
package angel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"insidebar-engine/internal/model"
	"insidebar-engine/pkg/smartconnect"
)

// tradingMinutesPerDay is the NSE session length (9:15–15:30).
const tradingMinutesPerDay = 375

// Connector implements model.Broker, model.QuoteFetcher, and
// model.CandleSource over a logged-in SmartAPI session.
type Connector struct {
	client *smartconnect.Client

	// spot instrument for candle fetches
	spotToken    string
	spotExchange string

	mu     sync.Mutex
	tokens map[string]string // "NFO:NIFTY26200CE" -> symboltoken
}

// New creates a connector. spotToken/spotExchange identify the index
// instrument candles are fetched for (e.g. 99926000 on NSE for NIFTY).
func New(client *smartconnect.Client, spotToken, spotExchange string) *Connector {
	return &Connector{
		client:       client,
		spotToken:    spotToken,
		spotExchange: spotExchange,
		tokens:       make(map[string]string),
	}
}

// resolveToken looks up the symbol token for a trading symbol, caching
// results for the session.
func (c *Connector) resolveToken(ctx context.Context, exchange, tradingSymbol string) (string, error) {
	key := exchange + ":" + tradingSymbol
	c.mu.Lock()
	if tok, ok := c.tokens[key]; ok {
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	scrips, err := c.client.SearchScrip(ctx, exchange, tradingSymbol)
	if err != nil {
		return "", err
	}
	for _, s := range scrips {
		if strings.EqualFold(s.TradingSymbol, tradingSymbol) {
			c.mu.Lock()
			c.tokens[key] = s.SymbolToken
			c.mu.Unlock()
			return s.SymbolToken, nil
		}
	}
	return "", fmt.Errorf("no scrip matches %s on %s", tradingSymbol, exchange)
}

// TokenFor resolves and caches the symbol token for a trading symbol.
func (c *Connector) TokenFor(ctx context.Context, exchange, tradingSymbol string) (string, error) {
	return c.resolveToken(ctx, exchange, tradingSymbol)
}

// PlaceOrder submits an order via SmartAPI and returns the order ID.
func (c *Connector) PlaceOrder(ctx context.Context, req model.OrderRequest) (string, error) {
	token := req.SymbolToken
	if token == "" {
		var err error
		token, err = c.resolveToken(ctx, req.Exchange, req.TradingSymbol)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", req.TradingSymbol, err)
		}
	}
	params := smartconnect.OrderParams{
		Variety:         "NORMAL",
		TradingSymbol:   req.TradingSymbol,
		SymbolToken:     token,
		TransactionType: req.Transaction,
		Exchange:        req.Exchange,
		OrderType:       req.OrderType,
		ProductType:     req.ProductType,
		Duration:        "DAY",
		Quantity:        smartconnect.FormatQty(req.Qty),
	}
	if req.OrderType == "LIMIT" && req.Price > 0 {
		params.Price = smartconnect.FormatPrice(model.Rupees(req.Price))
	}
	return c.client.PlaceOrder(ctx, params)
}

// GetPositions returns open positions with paise prices.
func (c *Connector) GetPositions(ctx context.Context) ([]model.Position, error) {
	raw, err := c.client.Positions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Position, 0, len(raw))
	for _, p := range raw {
		qty, _ := strconv.ParseInt(p.NetQty, 10, 64)
		avg, _ := strconv.ParseFloat(p.AvgNetPrice, 64)
		ltp, _ := strconv.ParseFloat(p.LTP, 64)
		out = append(out, model.Position{
			TradingSymbol: p.TradingSymbol,
			SymbolToken:   p.SymbolToken,
			Exchange:      p.Exchange,
			Qty:           qty,
			AvgPrice:      model.Paise(avg),
			LastPrice:     model.Paise(ltp),
		})
	}
	return out, nil
}

// CancelOrder cancels a NORMAL-variety order.
func (c *Connector) CancelOrder(ctx context.Context, orderID string) error {
	return c.client.CancelOrder(ctx, orderID, "NORMAL")
}

// GetOrderStatus scans the order book for the order.
func (c *Connector) GetOrderStatus(ctx context.Context, orderID string) (model.Order, error) {
	book, err := c.client.OrderBook(ctx)
	if err != nil {
		return model.Order{}, err
	}
	for _, d := range book {
		if d.OrderID != orderID {
			continue
		}
		qty, _ := strconv.ParseInt(d.Quantity, 10, 64)
		filled, _ := strconv.ParseInt(d.FilledShares, 10, 64)
		avg, _ := strconv.ParseFloat(d.AveragePrice, 64)
		price, _ := strconv.ParseFloat(d.Price, 64)
		return model.Order{
			OrderID:         d.OrderID,
			TradingSymbol:   d.TradingSymbol,
			SymbolToken:     d.SymbolToken,
			Exchange:        d.Exchange,
			TransactionType: d.TransactionType,
			OrderType:       d.OrderType,
			ProductType:     d.ProductType,
			Qty:             qty,
			FilledQty:       filled,
			Price:           model.Paise(price),
			AvgPrice:        model.Paise(avg),
			Status:          mapOrderStatus(d.Status),
		}, nil
	}
	return model.Order{}, fmt.Errorf("order %s not in order book", orderID)
}

// ModifyOrder updates price/quantity of an open order. SmartAPI needs
// the full order context, so the current state is read back first.
func (c *Connector) ModifyOrder(ctx context.Context, orderID string, upd model.OrderUpdate) error {
	cur, err := c.GetOrderStatus(ctx, orderID)
	if err != nil {
		return err
	}
	params := smartconnect.ModifyOrderParams{
		Variety:       "NORMAL",
		OrderID:       orderID,
		OrderType:     cur.OrderType,
		ProductType:   cur.ProductType,
		Duration:      "DAY",
		Exchange:      cur.Exchange,
		TradingSymbol: cur.TradingSymbol,
		SymbolToken:   cur.SymbolToken,
	}
	if upd.Qty > 0 {
		params.Quantity = smartconnect.FormatQty(upd.Qty)
	}
	if upd.Price > 0 {
		params.Price = smartconnect.FormatPrice(model.Rupees(upd.Price))
	}
	return c.client.ModifyOrder(ctx, params)
}

func mapOrderStatus(s string) string {
	switch strings.ToLower(s) {
	case "complete":
		return model.OrderComplete
	case "rejected":
		return model.OrderRejected
	case "cancelled", "cancelled for day":
		return model.OrderCancelled
	case "open", "trigger pending":
		return model.OrderOpen
	default:
		return model.OrderPlaced
	}
}

// LTP returns the last traded price in paise. The symbol token is
// resolved via scrip search when not supplied.
func (c *Connector) LTP(ctx context.Context, exchange, tradingSymbol, symbolToken string) (int64, error) {
	if symbolToken == "" {
		var err error
		symbolToken, err = c.resolveToken(ctx, exchange, tradingSymbol)
		if err != nil {
			return 0, err
		}
	}
	rupees, err := c.client.LTP(ctx, exchange, tradingSymbol, symbolToken)
	if err != nil {
		return 0, err
	}
	return model.Paise(rupees), nil
}

// Candles fetches the most recent count completed candles for the spot
// instrument. The in-progress candle is included when the market is
// open; callers drop it via the marketdata provider.
func (c *Connector) Candles(ctx context.Context, symbol string, tf int, count int) ([]model.Candle, error) {
	interval, err := intervalFor(tf)
	if err != nil {
		return nil, err
	}

	// Span enough calendar days to cover count bars of trading time.
	days := (count*tf)/tradingMinutesPerDay + 3
	now := time.Now()
	bars, err := c.client.CandleData(ctx, smartconnect.CandleParams{
		Exchange:    c.spotExchange,
		SymbolToken: c.spotToken,
		Interval:    interval,
		From:        now.AddDate(0, 0, -days),
		To:          now,
	})
	if err != nil {
		return nil, fmt.Errorf("candles %s tf=%d: %w", symbol, tf, err)
	}

	candles := make([]model.Candle, 0, len(bars))
	for _, b := range bars {
		candles = append(candles, model.Candle{
			Symbol: symbol,
			TF:     tf,
			TS:     b.TS,
			Open:   model.Paise(b.Open),
			High:   model.Paise(b.High),
			Low:    model.Paise(b.Low),
			Close:  model.Paise(b.Close),
			Volume: b.Volume,
		})
	}
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}

func intervalFor(tf int) (string, error) {
	switch tf {
	case model.TF15Min:
		return smartconnect.IntervalFifteenMinute, nil
	case model.TFHourly:
		return smartconnect.IntervalOneHour, nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %d minutes", tf)
	}
}
