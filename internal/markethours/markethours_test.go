package markethours

import (
	"testing"
	"time"
)

// Jan 6 2026 is a Tuesday with no NSE holiday.
func istTime(hour, minute int) time.Time {
	return time.Date(2026, 1, 6, hour, minute, 0, 0, IST)
}

func TestIsMarketOpen(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"before open", istTime(9, 14), false},
		{"at open", istTime(9, 15), true},
		{"midday", istTime(12, 0), true},
		{"last minute", istTime(15, 29), true},
		{"at close", istTime(15, 30), false},
		{"evening", istTime(18, 0), false},
		{"saturday", time.Date(2026, 1, 10, 12, 0, 0, 0, IST), false},
		{"republic day", time.Date(2026, 1, 26, 12, 0, 0, 0, IST), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMarketOpen(tc.t); got != tc.want {
				t.Errorf("IsMarketOpen(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestIsMarketOpen_ConvertsZones(t *testing.T) {
	// 06:30 UTC is 12:00 IST — open, regardless of the input zone.
	utc := time.Date(2026, 1, 6, 6, 30, 0, 0, time.UTC)
	if !IsMarketOpen(utc) {
		t.Fatal("expected 06:30 UTC (12:00 IST) to be within market hours")
	}
}

func TestInOpeningRange(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"before open", istTime(9, 0), false},
		{"first minute", istTime(9, 15), true},
		{"mid window", istTime(9, 25), true},
		{"window end", istTime(9, 30), false},
		{"midday", istTime(12, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InOpeningRange(tc.t); got != tc.want {
				t.Errorf("InOpeningRange(%v) = %v, want %v", tc.t, got, tc.want)
			}
		})
	}
}

func TestNextOpen(t *testing.T) {
	// Early morning on a trading day: opens the same day.
	got := NextOpen(istTime(7, 0))
	want := istTime(9, 15)
	if !got.Equal(want) {
		t.Errorf("NextOpen(morning) = %v, want %v", got, want)
	}

	// Friday evening rolls to Monday.
	friday := time.Date(2026, 1, 9, 18, 0, 0, 0, IST)
	got = NextOpen(friday)
	want = time.Date(2026, 1, 12, 9, 15, 0, 0, IST)
	if !got.Equal(want) {
		t.Errorf("NextOpen(friday evening) = %v, want Monday open %v", got, want)
	}
}

func TestTimeUntilClose(t *testing.T) {
	if d := TimeUntilClose(istTime(15, 0)); d != 30*time.Minute {
		t.Errorf("TimeUntilClose(15:00) = %v, want 30m", d)
	}
	if d := TimeUntilClose(istTime(16, 0)); d != 0 {
		t.Errorf("TimeUntilClose(after close) = %v, want 0", d)
	}
}
