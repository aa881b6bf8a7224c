package model

// Position represents an open broker position.
type Position struct {
	TradingSymbol string `json:"trading_symbol"`
	SymbolToken   string `json:"symbol_token"`
	Exchange      string `json:"exchange"`
	Qty           int64  `json:"qty"`        // positive = long, negative = short
	AvgPrice      int64  `json:"avg_price"`  // paise
	LastPrice     int64  `json:"last_price"` // latest premium in paise
}

// UnrealizedPnL computes unrealized profit/loss in paise.
func (p *Position) UnrealizedPnL() int64 {
	return (p.LastPrice - p.AvgPrice) * p.Qty
}
