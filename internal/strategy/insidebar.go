package strategy

import "insidebar-engine/internal/model"

// DetectInsideBars scans hourly candles for inside bars: candles whose
// high/low range is strictly contained within the prior candle's range.
// Returns the matching indices, oldest to newest. Index 0 is never
// flagged. Fewer than 2 candles yields no detections. The caller must
// exclude the in-progress candle before invocation.
func DetectInsideBars(hourly []model.Candle) []int {
	var out []int
	for i := 1; i < len(hourly); i++ {
		if hourly[i].High < hourly[i-1].High && hourly[i].Low > hourly[i-1].Low {
			out = append(out, i)
		}
	}
	return out
}

// LatestRange returns the breakout reference band for the most recently
// detected inside bar: the high/low of the candle immediately preceding
// it. Reports false when no inside bar exists.
func LatestRange(hourly []model.Candle) (model.Range, bool) {
	bars := DetectInsideBars(hourly)
	if len(bars) == 0 {
		return model.Range{}, false
	}
	mother := hourly[bars[len(bars)-1]-1]
	return model.Range{High: mother.High, Low: mother.Low}, true
}
