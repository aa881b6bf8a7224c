package strategy

import (
	"testing"
	"time"

	"insidebar-engine/internal/model"
)

var testBase = time.Date(2026, 1, 6, 10, 15, 0, 0, time.UTC)

// hourlyBar creates a test hourly candle i hours after the base time.
// Prices are in paise.
func hourlyBar(i int, high, low int64) model.Candle {
	return model.Candle{
		Symbol: "NIFTY",
		TF:     model.TFHourly,
		TS:     testBase.Add(time.Duration(i) * time.Hour),
		Open:   low,
		High:   high,
		Low:    low,
		Close:  high,
		Volume: 100,
	}
}

func TestDetectInsideBars_StrictContainment(t *testing.T) {
	// Middle candle sits strictly inside the first; third breaks below.
	hourly := []model.Candle{
		hourlyBar(0, 10000, 9000),
		hourlyBar(1, 9500, 9200),
		hourlyBar(2, 9900, 8000),
	}

	got := DetectInsideBars(hourly)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("DetectInsideBars = %v, want [1]", got)
	}
}

func TestDetectInsideBars_EqualityIsNotInside(t *testing.T) {
	cases := []struct {
		name   string
		second model.Candle
	}{
		{"equal high", hourlyBar(1, 10000, 9200)},
		{"equal low", hourlyBar(1, 9500, 9000)},
		{"equal both", hourlyBar(1, 10000, 9000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hourly := []model.Candle{hourlyBar(0, 10000, 9000), tc.second}
			if got := DetectInsideBars(hourly); len(got) != 0 {
				t.Errorf("DetectInsideBars = %v, want none (containment must be strict)", got)
			}
		})
	}
}

func TestDetectInsideBars_FirstCandleNeverFlagged(t *testing.T) {
	// A single candle has no predecessor to be inside of.
	hourly := []model.Candle{hourlyBar(0, 10000, 9000)}
	if got := DetectInsideBars(hourly); len(got) != 0 {
		t.Fatalf("DetectInsideBars(single) = %v, want none", got)
	}
	if got := DetectInsideBars(nil); len(got) != 0 {
		t.Fatalf("DetectInsideBars(nil) = %v, want none", got)
	}
}

func TestDetectInsideBars_Multiple(t *testing.T) {
	hourly := []model.Candle{
		hourlyBar(0, 10000, 9000),
		hourlyBar(1, 9800, 9100), // inside 0
		hourlyBar(2, 9700, 9200), // inside 1
		hourlyBar(3, 10500, 9000),
	}
	got := DetectInsideBars(hourly)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("DetectInsideBars = %v, want [1 2]", got)
	}
}

func TestLatestRange_UsesMotherOfMostRecent(t *testing.T) {
	hourly := []model.Candle{
		hourlyBar(0, 10000, 9000),
		hourlyBar(1, 9800, 9100), // inside 0
		hourlyBar(2, 11000, 8500),
		hourlyBar(3, 10500, 8700), // inside 2, most recent
	}
	rng, ok := LatestRange(hourly)
	if !ok {
		t.Fatal("LatestRange reported no inside bar")
	}
	if rng.High != 11000 || rng.Low != 8500 {
		t.Errorf("range = (%d,%d), want (11000,8500) from the candle before the latest inside bar", rng.High, rng.Low)
	}
}

func TestLatestRange_NoInsideBar(t *testing.T) {
	hourly := []model.Candle{
		hourlyBar(0, 10000, 9000),
		hourlyBar(1, 10500, 8500), // engulfing, not inside
	}
	if _, ok := LatestRange(hourly); ok {
		t.Fatal("LatestRange reported an inside bar where none exists")
	}
}
