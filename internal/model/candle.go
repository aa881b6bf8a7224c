package model

import "time"

// Timeframes used by the strategy, in minutes.
const (
	TF15Min  = 15
	TFHourly = 60
)

// StrikeTick is the NIFTY strike increment: ₹50, in paise.
const StrikeTick = 5000

// Candle represents one completed OHLCV candle for a single timeframe.
// All prices are in paise (int64) to avoid floating-point drift.
type Candle struct {
	Symbol string    `json:"symbol"`
	TF     int       `json:"tf"`     // timeframe in minutes
	TS     time.Time `json:"ts"`     // bucket start time (UTC)
	Open   int64     `json:"open"`   // paise
	High   int64     `json:"high"`   // paise
	Low    int64     `json:"low"`    // paise
	Close  int64     `json:"close"`  // paise
	Volume int64     `json:"volume"` // traded quantity in this bucket
}

// Range is the breakout reference band: the high/low of the candle
// immediately preceding the most recent inside bar.
type Range struct {
	High int64 `json:"high"` // paise
	Low  int64 `json:"low"`  // paise
}

// Rupees converts paise to rupees for display.
func Rupees(paise int64) float64 {
	return float64(paise) / 100
}

// Paise converts rupees to paise, rounding to the nearest paisa.
func Paise(rupees float64) int64 {
	if rupees >= 0 {
		return int64(rupees*100 + 0.5)
	}
	return int64(rupees*100 - 0.5)
}
