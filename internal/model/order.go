package model

import "time"

// Order represents a broker order for an option contract.
type Order struct {
	OrderID         string    `json:"order_id"`
	TradingSymbol   string    `json:"trading_symbol"`
	SymbolToken     string    `json:"symbol_token"`
	Exchange        string    `json:"exchange"`         // NFO for NIFTY options
	TransactionType string    `json:"transaction_type"` // BUY, SELL
	OrderType       string    `json:"order_type"`       // MARKET, LIMIT
	ProductType     string    `json:"product_type"`     // INTRADAY
	Qty             int64     `json:"qty"`
	Price           int64     `json:"price"` // limit price in paise (0 for market)
	Status          string    `json:"status"`
	FilledQty       int64     `json:"filled_qty"`
	AvgPrice        int64     `json:"avg_price"` // fill average in paise
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Broker order status values.
const (
	OrderPlaced    = "PLACED"
	OrderOpen      = "OPEN"
	OrderComplete  = "COMPLETE"
	OrderRejected  = "REJECTED"
	OrderCancelled = "CANCELLED"
)
