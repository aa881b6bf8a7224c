package backtest

import (
	"errors"
	"testing"
	"time"

	"insidebar-engine/internal/model"
	"insidebar-engine/internal/strategy"
)

var simBase = time.Date(2026, 1, 6, 10, 15, 0, 0, time.UTC)

func simParams() strategy.Params {
	return strategy.Params{
		SLPoints:    30,
		RiskReward:  1.8,
		VolumeMult:  1.5,
		LotSize:     75,
		VolumeSpike: true,
	}
}

// hourlyPair returns an hourly series whose second candle is an inside
// bar, giving a reference range of 10000/9000 paise.
func hourlyPair() []model.Candle {
	return []model.Candle{
		{Symbol: "NIFTY", TF: model.TFHourly, TS: simBase, Open: 9000, High: 10000, Low: 9000, Close: 9800, Volume: 100},
		{Symbol: "NIFTY", TF: model.TFHourly, TS: simBase.Add(time.Hour), Open: 9300, High: 9800, Low: 9200, Close: 9500, Volume: 100},
	}
}

// fb builds a 15m candle i slots after the inside bar closes.
func fb(i int, high, low, cl, vol int64) model.Candle {
	return model.Candle{
		Symbol: "NIFTY",
		TF:     model.TF15Min,
		TS:     simBase.Add(time.Hour + 15*time.Minute + time.Duration(i)*15*time.Minute),
		Open:   cl,
		High:   high,
		Low:    low,
		Close:  cl,
		Volume: vol,
	}
}

// Breakout entry at close 10500 gives stop 7500 and target 15900 with
// the default test parameters.
func breakoutPrefix() []model.Candle {
	return []model.Candle{
		fb(0, 9600, 9400, 9500, 10),
		fb(1, 10600, 10400, 10500, 50), // CE breakout, entry candle
	}
}

func TestSimulator_StopLossExit(t *testing.T) {
	fifteen := append(breakoutPrefix(),
		fb(2, 8000, 7000, 7800, 10), // crosses the stop
	)

	res, err := New(simParams(), 1_000_000).Run(hourlyPair(), fifteen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}

	tr := res.Trades[0]
	if tr.Direction != model.DirectionCE {
		t.Errorf("direction = %q, want CE", tr.Direction)
	}
	if tr.ExitReason != ExitStopLoss {
		t.Errorf("exit reason = %q, want stop_loss", tr.ExitReason)
	}
	if tr.Exit != 7500 {
		t.Errorf("exit = %d, want the stop level 7500", tr.Exit)
	}
	wantPnL := int64(7500-10500) * 75
	if tr.PnL != wantPnL {
		t.Errorf("pnl = %d, want %d", tr.PnL, wantPnL)
	}
	if res.FinalCapital != 1_000_000+wantPnL {
		t.Errorf("final capital = %d, want %d", res.FinalCapital, 1_000_000+wantPnL)
	}
	if !tr.ExitTS.Equal(fifteen[2].TS) {
		t.Errorf("exit TS = %v, want %v", tr.ExitTS, fifteen[2].TS)
	}
}

func TestSimulator_StopWinsSameCandleCollision(t *testing.T) {
	// One candle spans both the stop and the target: the stop decides.
	fifteen := append(breakoutPrefix(),
		fb(2, 16000, 7000, 9000, 10),
	)

	res, err := New(simParams(), 1_000_000).Run(hourlyPair(), fifteen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}
	if res.Trades[0].ExitReason != ExitStopLoss {
		t.Errorf("exit reason = %q, want stop_loss to win the collision", res.Trades[0].ExitReason)
	}
}

func TestSimulator_TakeProfitExit(t *testing.T) {
	fifteen := append(breakoutPrefix(),
		fb(2, 16000, 10000, 15000, 10),
	)

	res, err := New(simParams(), 1_000_000).Run(hourlyPair(), fifteen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != ExitTakeProfit || tr.Exit != 15900 {
		t.Errorf("exit = (%q,%d), want (take_profit,15900)", tr.ExitReason, tr.Exit)
	}
	if tr.PnL != int64(15900-10500)*75 {
		t.Errorf("pnl = %d, want %d", tr.PnL, int64(15900-10500)*75)
	}
	if res.WinningTrades != 1 || res.WinRate != 100 {
		t.Errorf("summary = %dW %.0f%%, want 1W 100%%", res.WinningTrades, res.WinRate)
	}
}

func TestSimulator_EntryCandleNeverExits(t *testing.T) {
	// The breakout candle itself dips below the stop; exits may only
	// trigger from the next candle on.
	fifteen := []model.Candle{
		fb(0, 9600, 9400, 9500, 10),
		fb(1, 10600, 7000, 10500, 50), // entry candle with a deep wick
		fb(2, 11000, 10000, 10800, 10),
		fb(3, 9000, 7000, 8000, 10), // stop hits here
	}

	res, err := New(simParams(), 1_000_000).Run(hourlyPair(), fifteen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}
	if !res.Trades[0].ExitTS.Equal(fifteen[3].TS) {
		t.Errorf("exit TS = %v, want candle 3 at %v", res.Trades[0].ExitTS, fifteen[3].TS)
	}
}

func TestSimulator_ForcedExitAtDataEnd(t *testing.T) {
	fifteen := append(breakoutPrefix(),
		fb(2, 12000, 10000, 11000, 10), // inside the bracket, data ends
	)

	res, err := New(simParams(), 1_000_000).Run(hourlyPair(), fifteen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != ExitForced {
		t.Errorf("exit reason = %q, want forced_exit", tr.ExitReason)
	}
	if tr.Exit != 11000 {
		t.Errorf("exit = %d, want last close 11000", tr.Exit)
	}
}

func TestSimulator_SetupExpires(t *testing.T) {
	// 21 quiet candles exhaust the lookahead; a breakout afterwards must
	// not trade.
	var fifteen []model.Candle
	for i := 0; i < 22; i++ {
		fifteen = append(fifteen, fb(i, 9600, 9400, 9500, 10))
	}
	fifteen = append(fifteen, fb(22, 10600, 10400, 10500, 900))

	res, err := New(simParams(), 1_000_000).Run(hourlyPair(), fifteen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Fatalf("trades = %d, want 0 (setup expired)", len(res.Trades))
	}
	if res.FinalCapital != res.InitialCapital {
		t.Errorf("final capital = %d, want unchanged %d", res.FinalCapital, res.InitialCapital)
	}
}

func TestSimulator_EquityCurve(t *testing.T) {
	fifteen := append(breakoutPrefix(),
		fb(2, 8000, 7000, 7800, 10),
	)

	res, err := New(simParams(), 1_000_000).Run(hourlyPair(), fifteen)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.EquityCurve) != 2 {
		t.Fatalf("equity points = %d, want 2 (seed + one close)", len(res.EquityCurve))
	}
	if res.EquityCurve[0].Equity != 1_000_000 {
		t.Errorf("seed equity = %d, want 1000000", res.EquityCurve[0].Equity)
	}
	if res.EquityCurve[1].Equity != res.FinalCapital {
		t.Errorf("last equity = %d, want final capital %d", res.EquityCurve[1].Equity, res.FinalCapital)
	}
	if res.MaxDrawdown <= 0 {
		t.Errorf("max drawdown = %.2f, want > 0 after a losing trade", res.MaxDrawdown)
	}
}

func TestSimulator_RejectsMalformedInput(t *testing.T) {
	fifteen := breakoutPrefix()
	fifteen[1].TS = fifteen[0].TS // duplicate timestamp

	_, err := New(simParams(), 1_000_000).Run(hourlyPair(), fifteen)
	if !errors.Is(err, model.ErrBadSeries) {
		t.Fatalf("err = %v, want ErrBadSeries", err)
	}
}
