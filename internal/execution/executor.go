package execution

import (
	"context"
	"fmt"
	"log"

	"insidebar-engine/internal/metrics"
	"insidebar-engine/internal/model"
	"insidebar-engine/internal/notification"
	"insidebar-engine/internal/portfolio"
	"insidebar-engine/internal/store/sqlite"
	"insidebar-engine/internal/strategy"
)

// Exit outcomes recorded in the trade journal.
const (
	OutcomeStopLoss   = "stop_loss"
	OutcomeTakeProfit = "take_profit"
	OutcomeManual     = "manual_exit"
)

// Executor routes signals through the risk gate to the broker, records
// every decision in the trade journal, and publishes fills downstream.
type Executor struct {
	broker   model.Broker
	journal  *sqlite.Store
	risk     *portfolio.RiskManager
	notifier notification.Notifier
	sink     model.SignalSink // optional
	metrics  *metrics.Metrics // optional
	params   strategy.Params
}

// NewExecutor wires an executor. sink and m may be nil.
func NewExecutor(
	broker model.Broker,
	journal *sqlite.Store,
	risk *portfolio.RiskManager,
	notifier notification.Notifier,
	sink model.SignalSink,
	m *metrics.Metrics,
	params strategy.Params,
) *Executor {
	return &Executor{
		broker:   broker,
		journal:  journal,
		risk:     risk,
		notifier: notifier,
		sink:     sink,
		metrics:  m,
		params:   params,
	}
}

// OpenTrade is a live position the executor is responsible for closing.
type OpenTrade struct {
	JournalID int64
	OrderID   string
	Signal    model.Signal
	Qty       int64
}

// HandleSignal checks risk limits, places a market buy for one lot, and
// journals the outcome. A risk block journals the signal as cancelled
// and returns a nil trade without error.
func (e *Executor) HandleSignal(ctx context.Context, sig model.Signal) (*OpenTrade, error) {
	qty := e.params.LotSize

	if ok, reason := e.risk.CanTrade(qty); !ok {
		sig.Status = model.SignalCancelled
		if _, err := e.journal.RecordSignal(sig, "", qty); err != nil {
			log.Printf("[executor] journal write failed: %v", err)
		}
		if e.metrics != nil {
			e.metrics.OrdersRejected.Inc()
		}
		e.notify(ctx, notification.AlertWarning, "Signal blocked",
			fmt.Sprintf("%s %s blocked: %s", sig.OptionSymbol(), sig.Direction, reason))
		log.Printf("[executor] risk block: %s", reason)
		return nil, nil
	}

	orderID, err := e.broker.PlaceOrder(ctx, model.OrderRequest{
		TradingSymbol: sig.OptionSymbol(),
		Exchange:      "NFO",
		Transaction:   "BUY",
		OrderType:     "MARKET",
		ProductType:   "INTRADAY",
		Qty:           qty,
	})
	if err != nil {
		if e.metrics != nil {
			e.metrics.OrdersRejected.Inc()
		}
		e.notify(ctx, notification.AlertCritical, "Order failed",
			fmt.Sprintf("BUY %s x%d: %v", sig.OptionSymbol(), qty, err))
		return nil, fmt.Errorf("place entry order: %w", err)
	}

	sig.Status = model.SignalFilled
	journalID, err := e.journal.RecordSignal(sig, orderID, qty)
	if err != nil {
		log.Printf("[executor] journal write failed for order %s: %v", orderID, err)
	}
	e.risk.PositionOpened()

	if e.metrics != nil {
		e.metrics.OrdersPlaced.Inc()
		e.metrics.SignalsTotal.WithLabelValues(string(sig.Direction)).Inc()
		e.metrics.OpenPositions.Set(float64(e.risk.OpenPositions()))
	}
	if e.sink != nil {
		if err := e.sink.PublishSignal(ctx, sig); err != nil {
			log.Printf("[executor] signal publish failed: %v", err)
		}
	}
	e.notify(ctx, notification.AlertInfo, "Position opened",
		fmt.Sprintf("BUY %s x%d @ ₹%.2f | SL ₹%.2f TP ₹%.2f",
			sig.OptionSymbol(), qty,
			model.Rupees(sig.Entry), model.Rupees(sig.StopLoss), model.Rupees(sig.TakeProfit)))
	log.Printf("[executor] opened %s x%d order=%s entry=%d sl=%d tp=%d",
		sig.OptionSymbol(), qty, orderID, sig.Entry, sig.StopLoss, sig.TakeProfit)

	return &OpenTrade{JournalID: journalID, OrderID: orderID, Signal: sig, Qty: qty}, nil
}

// ClosePosition sells the position at market, records the exit and PnL,
// and releases the risk slot.
func (e *Executor) ClosePosition(ctx context.Context, trade *OpenTrade, exitPrice int64, outcome string) error {
	_, err := e.broker.PlaceOrder(ctx, model.OrderRequest{
		TradingSymbol: trade.Signal.OptionSymbol(),
		Exchange:      "NFO",
		Transaction:   "SELL",
		OrderType:     "MARKET",
		ProductType:   "INTRADAY",
		Qty:           trade.Qty,
	})
	if err != nil {
		e.notify(ctx, notification.AlertCritical, "Exit order failed",
			fmt.Sprintf("SELL %s x%d: %v", trade.Signal.OptionSymbol(), trade.Qty, err))
		return fmt.Errorf("place exit order: %w", err)
	}

	pnl := (exitPrice - trade.Signal.Entry) * trade.Qty
	if err := e.journal.UpdateExit(trade.JournalID, exitPrice, pnl, outcome); err != nil {
		log.Printf("[executor] journal exit update failed: %v", err)
	}
	e.risk.PositionClosed(pnl)

	if e.metrics != nil {
		e.metrics.TradesClosed.WithLabelValues(outcome).Inc()
		e.metrics.OpenPositions.Set(float64(e.risk.OpenPositions()))
		e.metrics.EquityPaise.Set(float64(e.risk.Equity()))
	}
	e.notify(ctx, notification.AlertInfo, "Position closed",
		fmt.Sprintf("SELL %s x%d @ ₹%.2f | %s | PnL ₹%.2f",
			trade.Signal.OptionSymbol(), trade.Qty,
			model.Rupees(exitPrice), outcome, model.Rupees(pnl)))
	log.Printf("[executor] closed %s exit=%d pnl=%d outcome=%s",
		trade.Signal.OptionSymbol(), exitPrice, pnl, outcome)
	return nil
}

func (e *Executor) notify(ctx context.Context, level notification.AlertLevel, title, msg string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Send(ctx, notification.Alert{Level: level, Title: title, Message: msg}); err != nil {
		log.Printf("[executor] notify failed: %v", err)
	}
}
