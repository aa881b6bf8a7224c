package strategy

import "insidebar-engine/internal/model"

// breakoutWindow is how many of the most recent 15-minute candles are
// considered for confirmation.
const breakoutWindow = 5

// ConfirmBreakout scans the most recent 15-minute candles for a
// volume-confirmed close beyond the reference range. Candles are checked
// oldest to newest and the first qualifying candle wins: a close above
// rng.High returns CE, below rng.Low returns PE. Volume must exceed the
// window's mean volume times volMult (skipped when requireVolume is
// false). An exhausted window returns DirectionNone — absence of a
// breakout is a normal outcome, not an error.
func ConfirmBreakout(fifteenMin []model.Candle, rng model.Range, volMult float64, requireVolume bool) model.Direction {
	dir, _ := confirmBreakoutAt(fifteenMin, rng, volMult, requireVolume)
	return dir
}

// confirmBreakoutAt additionally reports the index (into fifteenMin) of
// the confirming candle, for entry pricing and session filters.
func confirmBreakoutAt(fifteenMin []model.Candle, rng model.Range, volMult float64, requireVolume bool) (model.Direction, int) {
	if len(fifteenMin) == 0 {
		return model.DirectionNone, -1
	}
	start := 0
	if len(fifteenMin) > breakoutWindow {
		start = len(fifteenMin) - breakoutWindow
	}
	window := fifteenMin[start:]

	var volSum int64
	for _, c := range window {
		volSum += c.Volume
	}
	threshold := float64(volSum) / float64(len(window)) * volMult

	for i, c := range window {
		if requireVolume && float64(c.Volume) <= threshold {
			continue
		}
		if c.Close > rng.High {
			return model.DirectionCE, start + i
		}
		if c.Close < rng.Low {
			return model.DirectionPE, start + i
		}
	}
	return model.DirectionNone, -1
}
