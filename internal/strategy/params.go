// Package strategy implements the Inside Bar + breakout options strategy:
// pattern detection over hourly candles, breakout confirmation on the
// 15-minute timeframe, strike/risk calculation, and signal assembly.
//
// All routines are pure functions over immutable candle slices. Strategy
// parameters travel as an explicit Params value, never as ambient state.
package strategy

import "math"

// Params holds the tunable strategy parameters.
type Params struct {
	SLPoints   int64   `json:"sl"`       // stop-loss distance in rupee points
	RiskReward float64 `json:"rr"`       // take-profit = sl distance × rr
	VolumeMult float64 `json:"vol_mult"` // breakout volume threshold multiplier
	ATMOffset  int     `json:"atm_offset"`
	LotSize    int64   `json:"lot_size"`

	// Optional filters.
	VolumeSpike    bool `json:"volume_spike"`     // require above-threshold volume on breakout
	AvoidOpenRange bool `json:"avoid_open_range"` // skip signals inside the opening-range window
}

// DefaultParams returns the stock NIFTY parameter set.
func DefaultParams() Params {
	return Params{
		SLPoints:       30,
		RiskReward:     1.8,
		VolumeMult:     1.0,
		ATMOffset:      0,
		LotSize:        75,
		VolumeSpike:    true,
		AvoidOpenRange: false,
	}
}

// slPaise returns the stop-loss distance in paise.
func (p Params) slPaise() int64 {
	return p.SLPoints * 100
}

// tpPaise returns the take-profit distance in paise, rounded to the
// nearest paisa.
func (p Params) tpPaise() int64 {
	return int64(math.Round(float64(p.slPaise()) * p.RiskReward))
}
