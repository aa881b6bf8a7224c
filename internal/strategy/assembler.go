package strategy

import (
	"context"
	"fmt"

	"insidebar-engine/internal/markethours"
	"insidebar-engine/internal/model"
)

// CheckForSignal runs the full detection pipeline over one snapshot of
// market data: inside-bar detection on the hourly series, breakout
// confirmation on the 15-minute series, strike selection, and risk
// levels. The entry premium comes from the quote fetcher; on fetch
// failure the whole attempt fails — an entry price is never fabricated.
//
// Returns (nil, nil) when no tradeable setup exists. Both series must be
// chronological with the in-progress candle excluded.
func CheckForSignal(ctx context.Context, symbol string, hourly, fifteenMin []model.Candle, quote model.QuoteFetcher, p Params) (*model.Signal, error) {
	if err := model.ValidateSeries(hourly); err != nil {
		return nil, fmt.Errorf("hourly series: %w", err)
	}
	if err := model.ValidateSeries(fifteenMin); err != nil {
		return nil, fmt.Errorf("15m series: %w", err)
	}

	rng, ok := LatestRange(hourly)
	if !ok {
		return nil, nil
	}

	dir, at := confirmBreakoutAt(fifteenMin, rng, p.VolumeMult, p.VolumeSpike)
	if dir == model.DirectionNone {
		return nil, nil
	}
	confirming := fifteenMin[at]

	if p.AvoidOpenRange && markethours.InOpeningRange(confirming.TS) {
		return nil, nil
	}

	sig := model.Signal{
		Symbol:    symbol,
		Direction: dir,
		Strike:    StrikeFor(confirming.Close, dir, p.ATMOffset),
		Range:     rng,
		Reason:    fmt.Sprintf("Inside Bar breakout on %s side with volume confirmation", dir),
		TS:        confirming.TS,
		Status:    model.SignalPending,
	}

	entry, err := quote.LTP(ctx, "NFO", sig.OptionSymbol(), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrQuoteUnavailable, sig.OptionSymbol(), err)
	}
	sig.Entry = entry
	sig.StopLoss, sig.TakeProfit = RiskLevels(entry, p)

	return &sig, nil
}
