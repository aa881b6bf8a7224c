package strategy

import (
	"testing"
	"time"

	"insidebar-engine/internal/model"
)

// m15 creates a test 15m candle i slots after the base time, with the
// close and volume under test. Prices in paise.
func m15(i int, close, vol int64) model.Candle {
	return model.Candle{
		Symbol: "NIFTY",
		TF:     model.TF15Min,
		TS:     testBase.Add(time.Duration(i) * 15 * time.Minute),
		Open:   close,
		High:   close + 100,
		Low:    close - 100,
		Close:  close,
		Volume: vol,
	}
}

func TestConfirmBreakout_VolumeSpikeAboveRange(t *testing.T) {
	rng := model.Range{High: 10000, Low: 9000}
	// Mean volume = (10+10+10+10+50)/5 = 18; threshold at 1.5x = 27.
	// Only the last candle clears it, and it closes above the range.
	fifteen := []model.Candle{
		m15(0, 9500, 10),
		m15(1, 9500, 10),
		m15(2, 9500, 10),
		m15(3, 9500, 10),
		m15(4, 10500, 50),
	}

	if dir := ConfirmBreakout(fifteen, rng, 1.5, true); dir != model.DirectionCE {
		t.Fatalf("direction = %q, want CE", dir)
	}
}

func TestConfirmBreakout_BelowRangeIsPE(t *testing.T) {
	rng := model.Range{High: 10000, Low: 9000}
	fifteen := []model.Candle{
		m15(0, 9500, 10),
		m15(1, 9500, 10),
		m15(2, 8800, 50), // closes below the range with volume
		m15(3, 9500, 10),
		m15(4, 9500, 10),
	}

	if dir := ConfirmBreakout(fifteen, rng, 1.0, true); dir != model.DirectionPE {
		t.Fatalf("direction = %q, want PE", dir)
	}
}

func TestConfirmBreakout_FirstQualifyingCandleWins(t *testing.T) {
	rng := model.Range{High: 10000, Low: 9000}
	// Both a PE candle (index 1) and a CE candle (index 3) qualify;
	// the earlier one decides.
	fifteen := []model.Candle{
		m15(0, 9500, 10),
		m15(1, 8800, 90),
		m15(2, 9500, 10),
		m15(3, 10500, 90),
		m15(4, 9500, 10),
	}

	dir, at := confirmBreakoutAt(fifteen, rng, 1.0, true)
	if dir != model.DirectionPE {
		t.Fatalf("direction = %q, want PE (oldest qualifying candle)", dir)
	}
	if at != 1 {
		t.Errorf("confirming index = %d, want 1", at)
	}
}

func TestConfirmBreakout_VolumeBlocksCloseBeyondRange(t *testing.T) {
	rng := model.Range{High: 10000, Low: 9000}
	// The breakout candle closes above the range but its volume is on
	// the mean, not above it.
	fifteen := []model.Candle{
		m15(0, 9500, 20),
		m15(1, 9500, 20),
		m15(2, 9500, 20),
		m15(3, 9500, 20),
		m15(4, 10500, 20),
	}

	if dir := ConfirmBreakout(fifteen, rng, 1.0, true); dir != model.DirectionNone {
		t.Fatalf("direction = %q, want none (volume not above threshold)", dir)
	}
	// With the volume filter off the same candle confirms.
	if dir := ConfirmBreakout(fifteen, rng, 1.0, false); dir != model.DirectionCE {
		t.Fatalf("direction without volume filter = %q, want CE", dir)
	}
}

func TestConfirmBreakout_OnlyLastFiveCandlesCount(t *testing.T) {
	rng := model.Range{High: 10000, Low: 9000}
	// A huge breakout candle six slots back must be ignored.
	fifteen := []model.Candle{
		m15(0, 10500, 900),
		m15(1, 9500, 10),
		m15(2, 9500, 10),
		m15(3, 9500, 10),
		m15(4, 9500, 10),
		m15(5, 9500, 10),
	}

	if dir := ConfirmBreakout(fifteen, rng, 1.0, true); dir != model.DirectionNone {
		t.Fatalf("direction = %q, want none (breakout outside the window)", dir)
	}
}

func TestConfirmBreakout_NoBreakout(t *testing.T) {
	rng := model.Range{High: 10000, Low: 9000}
	fifteen := []model.Candle{
		m15(0, 9500, 10),
		m15(1, 9600, 20),
		m15(2, 9400, 30),
	}

	dir, at := confirmBreakoutAt(fifteen, rng, 1.0, true)
	if dir != model.DirectionNone || at != -1 {
		t.Fatalf("got (%q,%d), want (none,-1)", dir, at)
	}
}

func TestConfirmBreakout_EmptyWindow(t *testing.T) {
	dir, at := confirmBreakoutAt(nil, model.Range{High: 10000, Low: 9000}, 1.0, true)
	if dir != model.DirectionNone || at != -1 {
		t.Fatalf("got (%q,%d), want (none,-1)", dir, at)
	}
}
