package model

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the strategy core. Callers branch on these
// with errors.Is; retry policy (if any) belongs to the caller.
var (
	// ErrBadSeries marks malformed candle input: out-of-order or duplicate
	// timestamps, negative prices or volume. The core never repairs data.
	ErrBadSeries = errors.New("malformed candle series")

	// ErrQuoteUnavailable marks a broker price-fetch failure. Signal
	// assembly must fail rather than fabricate an entry premium.
	ErrQuoteUnavailable = errors.New("entry quote unavailable")
)

// IsQuoteUnavailable reports whether err stems from a quote fetch
// failure.
func IsQuoteUnavailable(err error) bool {
	return errors.Is(err, ErrQuoteUnavailable)
}

// ValidateSeries checks that candles are chronological with no duplicate
// timestamps and carry non-negative prices and volume.
// An empty or single-element series is valid.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if c.Open < 0 || c.High < 0 || c.Low < 0 || c.Close < 0 {
			return fmt.Errorf("%w: negative price at index %d", ErrBadSeries, i)
		}
		if c.Volume < 0 {
			return fmt.Errorf("%w: negative volume at index %d", ErrBadSeries, i)
		}
		if i > 0 && !candles[i-1].TS.Before(c.TS) {
			return fmt.Errorf("%w: non-monotonic timestamp at index %d", ErrBadSeries, i)
		}
	}
	return nil
}
