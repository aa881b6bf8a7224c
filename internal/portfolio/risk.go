// Package portfolio enforces account-level risk limits over the
// execution path: position caps, daily loss, and drawdown guard.
package portfolio

import (
	"log"
	"sync"
	"time"

	"insidebar-engine/internal/markethours"
)

// RiskLimits defines configurable risk management thresholds.
type RiskLimits struct {
	MaxQty           int64   `json:"max_qty"`            // max quantity per order
	MaxDailyLoss     int64   `json:"max_daily_loss"`     // max daily loss in paise
	MaxOpenPositions int     `json:"max_open_positions"` // max concurrent positions
	MaxDrawdownPct   float64 `json:"max_drawdown_pct"`   // max drawdown percentage (0-100)
}

// DefaultRiskLimits returns conservative defaults for a single-lot
// options account.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxQty:           150,     // two NIFTY lots
		MaxDailyLoss:     500000,  // ₹5,000
		MaxOpenPositions: 1,       // the strategy never pyramids
		MaxDrawdownPct:   5.0,
	}
}

// RiskManager validates orders against risk limits and tracks equity.
type RiskManager struct {
	mu     sync.RWMutex
	limits RiskLimits

	openPositions int
	dailyPnL      int64
	equity        int64
	peakEquity    int64
	tradingDay    string
}

// NewRiskManager creates a RiskManager with the given limits and starting
// equity in paise.
func NewRiskManager(limits RiskLimits, initialEquity int64) *RiskManager {
	return &RiskManager{
		limits:     limits,
		equity:     initialEquity,
		peakEquity: initialEquity,
	}
}

// CanTrade checks whether a new order of the given quantity would violate
// any limit. Returns false with a reason if blocked.
func (rm *RiskManager) CanTrade(qty int64) (bool, string) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	if rm.openPositions >= rm.limits.MaxOpenPositions {
		return false, "max open positions reached"
	}
	if qty > rm.limits.MaxQty {
		return false, "order quantity exceeds limit"
	}
	if rm.dailyPnL < -rm.limits.MaxDailyLoss {
		return false, "max daily loss reached"
	}
	if rm.peakEquity > 0 {
		drawdown := float64(rm.peakEquity-rm.equity) / float64(rm.peakEquity) * 100
		if drawdown > rm.limits.MaxDrawdownPct {
			return false, "max drawdown exceeded"
		}
	}
	return true, ""
}

// PositionOpened bumps the open-position count after a fill.
func (rm *RiskManager) PositionOpened() {
	rm.mu.Lock()
	rm.openPositions++
	rm.mu.Unlock()
}

// PositionClosed records the realized P&L of a closed position and frees
// its slot.
func (rm *RiskManager) PositionClosed(pnl int64) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.openPositions > 0 {
		rm.openPositions--
	}
	rm.dailyPnL += pnl
	rm.equity += pnl
	if rm.equity > rm.peakEquity {
		rm.peakEquity = rm.equity
	}

	log.Printf("[risk] daily P&L: %d, equity: %d, peak: %d", rm.dailyPnL, rm.equity, rm.peakEquity)
}

// Equity returns the current equity in paise.
func (rm *RiskManager) Equity() int64 {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.equity
}

// OpenPositions returns the current open-position count.
func (rm *RiskManager) OpenPositions() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.openPositions
}

// ResetDaily resets the daily P&L counter (call at market open).
func (rm *RiskManager) ResetDaily() {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.dailyPnL = 0
}

// RolloverDaily resets the daily P&L when now falls on a new IST trading
// day. Returns true if a rollover happened.
func (rm *RiskManager) RolloverDaily(now time.Time) bool {
	day := now.In(markethours.IST).Format("2006-01-02")

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.tradingDay == day {
		return false
	}
	first := rm.tradingDay == ""
	rm.tradingDay = day
	if first {
		return false
	}
	rm.dailyPnL = 0
	log.Printf("[risk] daily P&L reset for %s", day)
	return true
}
