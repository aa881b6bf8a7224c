package model

import "context"

// ── Capability Port Interfaces ──
// These interfaces decouple the strategy core from concrete broker and
// storage implementations. The core never depends on a broker variant
// directly, so a simulation stub can substitute in tests.

// OrderRequest carries the parameters for a new order.
type OrderRequest struct {
	TradingSymbol string
	SymbolToken   string
	Exchange      string // NFO
	Transaction   string // BUY, SELL
	OrderType     string // MARKET, LIMIT
	ProductType   string // INTRADAY
	Qty           int64
	Price         int64 // paise, 0 for market
}

// OrderUpdate carries a modification to an open order. Zero fields are
// left unchanged.
type OrderUpdate struct {
	Price int64
	Qty   int64
}

// Broker is the capability interface every broker connector implements.
type Broker interface {
	// PlaceOrder submits an order, returning the broker order ID.
	PlaceOrder(ctx context.Context, req OrderRequest) (string, error)

	// GetPositions returns all open positions.
	GetPositions(ctx context.Context) ([]Position, error)

	// CancelOrder cancels an open order.
	CancelOrder(ctx context.Context, orderID string) error

	// GetOrderStatus fetches the current state of an order.
	GetOrderStatus(ctx context.Context, orderID string) (Order, error)

	// ModifyOrder updates price/quantity of an open order.
	ModifyOrder(ctx context.Context, orderID string, upd OrderUpdate) error
}

// QuoteFetcher resolves the last traded premium for an option contract.
// Failures must surface as errors; the signal assembler never fabricates
// an entry price.
type QuoteFetcher interface {
	LTP(ctx context.Context, exchange, tradingSymbol, symbolToken string) (int64, error)
}

// CandleSource supplies completed candles for a symbol and timeframe,
// chronological, with the in-progress candle already excluded.
type CandleSource interface {
	Candles(ctx context.Context, symbol string, tf int, count int) ([]Candle, error)
}

// CandleStore persists and reads back candles for backtests.
type CandleStore interface {
	WriteCandles(candles []Candle) error
	ReadCandles(symbol string, tf int, afterTS int64) ([]Candle, error)
	Close() error
}

// SignalSink receives assembled signals (e.g. a Redis stream feeding the
// dashboard). Publishing is fire-and-forget from the core's perspective.
type SignalSink interface {
	PublishSignal(ctx context.Context, sig Signal) error
}
