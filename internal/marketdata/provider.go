// Package marketdata prepares candle series for the strategy: it drops
// the in-progress candle and can resample 15-minute bars into hourly
// ones when no native hourly feed is available.
package marketdata

import (
	"context"
	"time"

	"insidebar-engine/internal/model"
)

// Provider serves completed candles from an underlying source. The
// source may include the bar still forming; Provider excludes it so the
// strategy only ever sees closed bars.
type Provider struct {
	src model.CandleSource
	now func() time.Time
}

// NewProvider wraps a candle source.
func NewProvider(src model.CandleSource) *Provider {
	return &Provider{src: src, now: time.Now}
}

// Hourly returns the most recent count completed hourly candles.
func (p *Provider) Hourly(ctx context.Context, symbol string, count int) ([]model.Candle, error) {
	return p.completed(ctx, symbol, model.TFHourly, count)
}

// FifteenMin returns the most recent count completed 15-minute candles.
func (p *Provider) FifteenMin(ctx context.Context, symbol string, count int) ([]model.Candle, error) {
	return p.completed(ctx, symbol, model.TF15Min, count)
}

func (p *Provider) completed(ctx context.Context, symbol string, tf, count int) ([]model.Candle, error) {
	// Ask for one extra bar so the count survives dropping a forming one.
	candles, err := p.src.Candles(ctx, symbol, tf, count+1)
	if err != nil {
		return nil, err
	}
	candles = DropForming(candles, tf, p.now())
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}

// DropForming removes the trailing candle if its bucket has not closed
// yet at the given instant. Candles must be chronological.
func DropForming(candles []model.Candle, tf int, now time.Time) []model.Candle {
	if len(candles) == 0 {
		return candles
	}
	last := candles[len(candles)-1]
	closeAt := last.TS.Add(time.Duration(tf) * time.Minute)
	if closeAt.After(now) {
		return candles[:len(candles)-1]
	}
	return candles
}

// Resample aggregates 15-minute candles into a coarser timeframe by
// bucketing on wall-clock boundaries. Partial trailing buckets are kept;
// pass the result through DropForming to exclude an unfinished one.
func Resample(fifteenMin []model.Candle, tf int) []model.Candle {
	if len(fifteenMin) == 0 {
		return nil
	}
	bucket := time.Duration(tf) * time.Minute
	var out []model.Candle
	for _, c := range fifteenMin {
		ts := c.TS.Truncate(bucket)
		if n := len(out); n > 0 && out[n-1].TS.Equal(ts) {
			cur := &out[n-1]
			if c.High > cur.High {
				cur.High = c.High
			}
			if c.Low < cur.Low {
				cur.Low = c.Low
			}
			cur.Close = c.Close
			cur.Volume += c.Volume
			continue
		}
		out = append(out, model.Candle{
			Symbol: c.Symbol,
			TF:     tf,
			TS:     ts,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}
	return out
}
