package execution

import (
	"context"
	"log"
	"time"

	"insidebar-engine/internal/model"
)

// defaultPollInterval is how often the monitor samples the premium when
// no tick stream is attached.
const defaultPollInterval = 10 * time.Second

// PositionMonitor watches one open option position and fires the exit
// callback the first time the premium crosses the stop or target. The
// stop check wins when both would trigger on the same sample.
type PositionMonitor struct {
	quotes   model.QuoteFetcher
	trade    *OpenTrade
	interval time.Duration

	ticks <-chan int64 // optional live premium feed, paise

	stop  int64 // current stop, ratchets up when trailing is on
	trail int64 // trailing distance in paise, 0 = off
	high  int64 // highest premium seen since entry

	// OnExit is called exactly once with the triggering premium and
	// outcome (OutcomeStopLoss or OutcomeTakeProfit).
	OnExit func(ctx context.Context, exitPrice int64, outcome string)
}

// NewPositionMonitor builds a monitor that polls the quote fetcher.
func NewPositionMonitor(quotes model.QuoteFetcher, trade *OpenTrade, interval time.Duration) *PositionMonitor {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &PositionMonitor{
		quotes:   quotes,
		trade:    trade,
		interval: interval,
		stop:     trade.Signal.StopLoss,
		high:     trade.Signal.Entry,
	}
}

// SetTrailing ratchets the stop up behind new premium highs, keeping it
// the given distance (paise) below the high-water mark. The stop never
// moves down.
func (m *PositionMonitor) SetTrailing(distance int64) {
	m.trail = distance
}

// AttachTicks switches the monitor from polling to a live premium feed.
// The channel carries LTP in paise; when it closes the monitor falls
// back to polling.
func (m *PositionMonitor) AttachTicks(ticks <-chan int64) {
	m.ticks = ticks
}

// Run blocks until the position exits or ctx is cancelled. Returns true
// if the exit callback fired.
func (m *PositionMonitor) Run(ctx context.Context) bool {
	sym := m.trade.Signal.OptionSymbol()
	log.Printf("[monitor] watching %s sl=%d tp=%d", sym, m.trade.Signal.StopLoss, m.trade.Signal.TakeProfit)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[monitor] %s: stopped (%v)", sym, ctx.Err())
			return false

		case ltp, ok := <-m.ticks:
			if !ok {
				m.ticks = nil
				continue
			}
			if m.check(ctx, ltp) {
				return true
			}

		case <-ticker.C:
			if m.ticks != nil {
				continue // live feed active, skip the poll
			}
			ltp, err := m.quotes.LTP(ctx, "NFO", sym, "")
			if err != nil {
				log.Printf("[monitor] %s: quote failed: %v", sym, err)
				continue
			}
			if m.check(ctx, ltp) {
				return true
			}
		}
	}
}

func (m *PositionMonitor) check(ctx context.Context, ltp int64) bool {
	if m.trail > 0 && ltp > m.high {
		m.high = ltp
		if trailed := m.high - m.trail; trailed > m.stop {
			m.stop = trailed
			log.Printf("[monitor] %s: stop trailed to %d", m.trade.Signal.OptionSymbol(), m.stop)
		}
	}
	switch {
	case ltp <= m.stop:
		m.exit(ctx, ltp, OutcomeStopLoss)
		return true
	case ltp >= m.trade.Signal.TakeProfit:
		m.exit(ctx, ltp, OutcomeTakeProfit)
		return true
	}
	return false
}

func (m *PositionMonitor) exit(ctx context.Context, ltp int64, outcome string) {
	log.Printf("[monitor] %s: %s at %d", m.trade.Signal.OptionSymbol(), outcome, ltp)
	if m.OnExit != nil {
		m.OnExit(ctx, ltp, outcome)
	}
}
