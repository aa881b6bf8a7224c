// Package backtest replays historical candles through the inside-bar
// detection and breakout-confirmation pipeline, tracking one simulated
// position at a time and the resulting equity curve.
package backtest

import (
	"fmt"

	"insidebar-engine/internal/model"
	"insidebar-engine/internal/strategy"
)

// maxLookahead bounds how many 15-minute candles after an inside bar are
// scanned for a breakout before the setup expires.
const maxLookahead = 20

// Simulator replays candles through the strategy pipeline. It is a
// two-state machine: flat or in-position, never more than one open
// position, fixed lot size, no pyramiding.
type Simulator struct {
	params         strategy.Params
	initialCapital int64

	// execPrice maps the confirming candle to the simulated entry
	// premium. Defaults to the candle close.
	execPrice func(model.Candle) int64
}

// New creates a Simulator with the given parameters and starting capital
// in paise.
func New(p strategy.Params, initialCapital int64) *Simulator {
	return &Simulator{
		params:         p,
		initialCapital: initialCapital,
		execPrice:      func(c model.Candle) int64 { return c.Close },
	}
}

// SetExecutionPrice overrides how the entry premium is read from the
// confirming candle.
func (s *Simulator) SetExecutionPrice(f func(model.Candle) int64) {
	s.execPrice = f
}

// openPosition is the simulator's in-position state. It exists only while
// a simulated trade is open.
type openPosition struct {
	direction  model.Direction
	strike     int64
	entry      int64
	stopLoss   int64
	takeProfit int64
	entryIndex int
}

// Run replays the hourly and 15-minute series and returns the trade log
// and equity curve. Both series must be chronological; malformed input
// fails with a validation error.
func (s *Simulator) Run(hourly, fifteenMin []model.Candle) (*Result, error) {
	if err := model.ValidateSeries(hourly); err != nil {
		return nil, fmt.Errorf("hourly series: %w", err)
	}
	if err := model.ValidateSeries(fifteenMin); err != nil {
		return nil, fmt.Errorf("15m series: %w", err)
	}

	res := &Result{
		InitialCapital: s.initialCapital,
		FinalCapital:   s.initialCapital,
	}
	if len(fifteenMin) > 0 {
		res.EquityCurve = append(res.EquityCurve, EquityPoint{TS: fifteenMin[0].TS, Equity: s.initialCapital})
	}

	bars := strategy.DetectInsideBars(hourly)
	next := 0 // next inside bar to arm

	var (
		rng     model.Range
		armed   bool
		armedAt int // index of first 15m candle after the inside bar
		pos     *openPosition
	)

	closeTrade := func(i int, exit int64, reason ExitReason) {
		pnl := (exit - pos.entry) * s.params.LotSize
		res.Trades = append(res.Trades, Trade{
			Direction:  pos.direction,
			Strike:     pos.strike,
			Entry:      pos.entry,
			Exit:       exit,
			StopLoss:   pos.stopLoss,
			TakeProfit: pos.takeProfit,
			Qty:        s.params.LotSize,
			PnL:        pnl,
			EntryTS:    fifteenMin[pos.entryIndex].TS,
			ExitTS:     fifteenMin[i].TS,
			ExitReason: reason,
		})
		res.FinalCapital += pnl
		res.EquityCurve = append(res.EquityCurve, EquityPoint{TS: fifteenMin[i].TS, Equity: res.FinalCapital})
		pos = nil
	}

	for i, c := range fifteenMin {
		// Arm the most recent inside bar whose hour has started before
		// this candle. Earlier unarmed bars are superseded.
		for next < len(bars) && c.TS.After(hourly[bars[next]].TS) {
			mother := hourly[bars[next]-1]
			rng = model.Range{High: mother.High, Low: mother.Low}
			armed = true
			armedAt = i
			next++
		}

		if pos != nil {
			if i == pos.entryIndex {
				continue // exits trigger on subsequent candles only
			}
			// Stop-loss takes priority when both bounds are crossed
			// within the same candle.
			if c.Low <= pos.stopLoss {
				closeTrade(i, pos.stopLoss, ExitStopLoss)
			} else if c.High >= pos.takeProfit {
				closeTrade(i, pos.takeProfit, ExitTakeProfit)
			}
			continue
		}

		if !armed {
			continue
		}
		if i-armedAt >= maxLookahead {
			armed = false // setup expired without a breakout
			continue
		}

		lo := armedAt
		if i-4 > lo {
			lo = i - 4
		}
		dir := strategy.ConfirmBreakout(fifteenMin[lo:i+1], rng, s.params.VolumeMult, s.params.VolumeSpike)
		if dir == model.DirectionNone {
			continue
		}

		entry := s.execPrice(c)
		sl, tp := strategy.RiskLevels(entry, s.params)
		pos = &openPosition{
			direction:  dir,
			strike:     strategy.StrikeFor(c.Close, dir, s.params.ATMOffset),
			entry:      entry,
			stopLoss:   sl,
			takeProfit: tp,
			entryIndex: i,
		}
		armed = false // one trade per inside bar
	}

	// Data exhausted while in-position: force-close at the last close.
	if pos != nil {
		closeTrade(len(fifteenMin)-1, fifteenMin[len(fifteenMin)-1].Close, ExitForced)
	}

	res.summarize()
	return res, nil
}
