package backtest

import (
	"time"

	"insidebar-engine/internal/model"
)

// ExitReason records why a simulated position was closed.
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitForced     ExitReason = "forced_exit" // data exhausted while in-position
)

// Trade is one closed simulated trade.
type Trade struct {
	Direction  model.Direction `json:"direction"`
	Strike     int64           `json:"strike"`      // paise
	Entry      int64           `json:"entry"`       // paise
	Exit       int64           `json:"exit"`        // paise
	StopLoss   int64           `json:"stop_loss"`   // paise
	TakeProfit int64           `json:"take_profit"` // paise
	Qty        int64           `json:"qty"`
	PnL        int64           `json:"pnl"` // (exit − entry) × qty, paise
	EntryTS    time.Time       `json:"entry_ts"`
	ExitTS     time.Time       `json:"exit_ts"`
	ExitReason ExitReason      `json:"exit_reason"`
}

// EquityPoint is one sample of the running equity curve.
type EquityPoint struct {
	TS     time.Time `json:"ts"`
	Equity int64     `json:"equity"` // paise
}

// Result holds the full output of a backtest run.
type Result struct {
	Trades      []Trade       `json:"trades"`
	EquityCurve []EquityPoint `json:"equity_curve"`

	InitialCapital int64   `json:"initial_capital"` // paise
	FinalCapital   int64   `json:"final_capital"`   // paise
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	TotalPnL       int64   `json:"total_pnl"`    // paise
	WinRate        float64 `json:"win_rate"`     // percent
	AvgWin         float64 `json:"avg_win"`      // paise
	AvgLoss        float64 `json:"avg_loss"`     // paise
	MaxDrawdown    float64 `json:"max_drawdown"` // percent
	ReturnPct      float64 `json:"return_pct"`
}

// summarize fills the aggregate fields from trades and the equity curve.
func (r *Result) summarize() {
	r.TotalTrades = len(r.Trades)
	var winSum, lossSum int64
	for _, t := range r.Trades {
		r.TotalPnL += t.PnL
		switch {
		case t.PnL > 0:
			r.WinningTrades++
			winSum += t.PnL
		case t.PnL < 0:
			r.LosingTrades++
			lossSum += t.PnL
		}
	}
	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades) * 100
	}
	if r.WinningTrades > 0 {
		r.AvgWin = float64(winSum) / float64(r.WinningTrades)
	}
	if r.LosingTrades > 0 {
		r.AvgLoss = float64(lossSum) / float64(r.LosingTrades)
	}
	if r.InitialCapital > 0 {
		r.ReturnPct = float64(r.FinalCapital-r.InitialCapital) / float64(r.InitialCapital) * 100
	}
	r.MaxDrawdown = maxDrawdownPct(r.EquityCurve)
}

// maxDrawdownPct computes the largest peak-to-trough equity decline as a
// positive percentage.
func maxDrawdownPct(curve []EquityPoint) float64 {
	if len(curve) < 2 {
		return 0
	}
	peak := curve[0].Equity
	var worst float64
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := float64(peak-p.Equity) / float64(peak) * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
