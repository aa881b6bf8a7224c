package marketdata

import (
	"context"
	"testing"
	"time"

	"insidebar-engine/internal/model"
)

var mdBase = time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)

func mdCandle(tf, i int, cl int64) model.Candle {
	return model.Candle{
		Symbol: "NIFTY",
		TF:     tf,
		TS:     mdBase.Add(time.Duration(i) * time.Duration(tf) * time.Minute),
		Open:   cl - 50,
		High:   cl + 100,
		Low:    cl - 100,
		Close:  cl,
		Volume: 10,
	}
}

func TestDropForming(t *testing.T) {
	candles := []model.Candle{mdCandle(15, 0, 1000), mdCandle(15, 1, 1100)}
	lastClose := candles[1].TS.Add(15 * time.Minute)

	// Mid-bucket: the trailing candle is still forming.
	got := DropForming(candles, 15, lastClose.Add(-time.Minute))
	if len(got) != 1 || got[0].Close != 1000 {
		t.Fatalf("DropForming mid-bucket = %d candles, want only the closed one", len(got))
	}

	// Exactly at bucket close the candle is complete.
	got = DropForming(candles, 15, lastClose)
	if len(got) != 2 {
		t.Fatalf("DropForming at close = %d candles, want 2", len(got))
	}

	if got := DropForming(nil, 15, lastClose); len(got) != 0 {
		t.Fatalf("DropForming(nil) = %d candles, want 0", len(got))
	}
}

type stubSource struct {
	candles []model.Candle
}

func (s *stubSource) Candles(ctx context.Context, symbol string, tf, count int) ([]model.Candle, error) {
	if count >= len(s.candles) {
		return s.candles, nil
	}
	return s.candles[len(s.candles)-count:], nil
}

func TestProvider_ExcludesFormingCandle(t *testing.T) {
	// Four closed candles plus one opening right now.
	src := &stubSource{}
	for i := 0; i < 5; i++ {
		src.candles = append(src.candles, mdCandle(15, i, int64(1000+i)))
	}
	now := src.candles[4].TS.Add(time.Minute)

	p := NewProvider(src)
	p.now = func() time.Time { return now }

	got, err := p.FifteenMin(context.Background(), "NIFTY", 3)
	if err != nil {
		t.Fatalf("FifteenMin: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candles, want 3", len(got))
	}
	if got[2].Close != 1003 {
		t.Errorf("last close = %d, want 1003 (forming candle excluded)", got[2].Close)
	}
}

func TestResample_FifteenToHourly(t *testing.T) {
	// Four 15m candles on one hour boundary plus one starting the next.
	fifteen := []model.Candle{
		{Symbol: "NIFTY", TF: 15, TS: mdBase, Open: 100, High: 120, Low: 95, Close: 110, Volume: 10},
		{Symbol: "NIFTY", TF: 15, TS: mdBase.Add(15 * time.Minute), Open: 110, High: 140, Low: 105, Close: 135, Volume: 20},
		{Symbol: "NIFTY", TF: 15, TS: mdBase.Add(30 * time.Minute), Open: 135, High: 138, Low: 90, Close: 95, Volume: 30},
		{Symbol: "NIFTY", TF: 15, TS: mdBase.Add(45 * time.Minute), Open: 95, High: 118, Low: 94, Close: 112, Volume: 40},
		{Symbol: "NIFTY", TF: 15, TS: mdBase.Add(60 * time.Minute), Open: 112, High: 113, Low: 111, Close: 112, Volume: 5},
	}

	hourly := Resample(fifteen, model.TFHourly)
	if len(hourly) != 2 {
		t.Fatalf("resampled %d buckets, want 2", len(hourly))
	}

	h := hourly[0]
	if !h.TS.Equal(mdBase) {
		t.Errorf("bucket TS = %v, want %v", h.TS, mdBase)
	}
	if h.Open != 100 || h.High != 140 || h.Low != 90 || h.Close != 112 {
		t.Errorf("OHLC = (%d,%d,%d,%d), want (100,140,90,112)", h.Open, h.High, h.Low, h.Close)
	}
	if h.Volume != 100 {
		t.Errorf("volume = %d, want 100", h.Volume)
	}
	if h.TF != model.TFHourly {
		t.Errorf("tf = %d, want 60", h.TF)
	}
}

func TestResample_Empty(t *testing.T) {
	if got := Resample(nil, model.TFHourly); got != nil {
		t.Fatalf("Resample(nil) = %v, want nil", got)
	}
}
