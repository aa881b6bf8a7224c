package sqlite

import (
	"database/sql"
	"time"

	"insidebar-engine/internal/model"
)

// TradeRecord is one row of the trade journal: the persistent append-only
// record of every signal taken, with its eventual exit and P&L.
type TradeRecord struct {
	ID         int64           `json:"id"`
	TS         time.Time       `json:"ts"`
	Symbol     string          `json:"symbol"`
	Strike     int64           `json:"strike"` // paise
	Direction  model.Direction `json:"direction"`
	OrderID    string          `json:"order_id"`
	Entry      int64           `json:"entry"`       // paise
	StopLoss   int64           `json:"stop_loss"`   // paise
	TakeProfit int64           `json:"take_profit"` // paise
	Exit       sql.NullInt64   `json:"exit"`        // paise, unset while open
	PnL        sql.NullInt64   `json:"pnl"`         // paise
	Status     string          `json:"status"`      // pending, filled, closed, cancelled
	Reason     string          `json:"reason"`      // pre-trade reasoning
	Outcome    string          `json:"outcome"`     // exit reason, free text
	Qty        int64           `json:"qty"`
}

// RecordSignal appends a journal row for a freshly assembled signal and
// returns its row ID.
func (s *Store) RecordSignal(sig model.Signal, orderID string, qty int64) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO trades (ts, symbol, strike, direction, order_id, entry, stop_loss, take_profit, status, reason, qty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sig.TS.UTC().Format(time.RFC3339), sig.Symbol, sig.Strike, string(sig.Direction),
		orderID, sig.Entry, sig.StopLoss, sig.TakeProfit, string(sig.Status), sig.Reason, qty)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateStatus moves a journal row between signal states
// (pending → filled | cancelled).
func (s *Store) UpdateStatus(id int64, status model.SignalStatus) error {
	_, err := s.db.Exec(`UPDATE trades SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// UpdateExit closes out a journal row with the exit price, P&L, and
// outcome text.
func (s *Store) UpdateExit(id int64, exit, pnl int64, outcome string) error {
	_, err := s.db.Exec(`
		UPDATE trades SET exit = ?, pnl = ?, status = 'closed', outcome = ? WHERE id = ?
	`, exit, pnl, outcome, id)
	return err
}

// Trades returns the last limit journal rows, newest first.
func (s *Store) Trades(limit int) ([]TradeRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, ts, symbol, strike, direction, COALESCE(order_id, ''), entry, stop_loss, take_profit,
		       exit, pnl, status, COALESCE(reason, ''), COALESCE(outcome, ''), qty
		FROM trades ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var ts, dir string
		if err := rows.Scan(&t.ID, &ts, &t.Symbol, &t.Strike, &dir, &t.OrderID,
			&t.Entry, &t.StopLoss, &t.TakeProfit, &t.Exit, &t.PnL, &t.Status, &t.Reason, &t.Outcome, &t.Qty); err != nil {
			return nil, err
		}
		t.Direction = model.Direction(dir)
		t.TS, _ = time.Parse(time.RFC3339, ts)
		out = append(out, t)
	}
	return out, rows.Err()
}

// OpenTrades returns journal rows still awaiting an exit.
func (s *Store) OpenTrades() ([]TradeRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, ts, symbol, strike, direction, COALESCE(order_id, ''), entry, stop_loss, take_profit,
		       exit, pnl, status, COALESCE(reason, ''), COALESCE(outcome, ''), qty
		FROM trades WHERE status IN ('pending', 'filled') ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var ts, dir string
		if err := rows.Scan(&t.ID, &ts, &t.Symbol, &t.Strike, &dir, &t.OrderID,
			&t.Entry, &t.StopLoss, &t.TakeProfit, &t.Exit, &t.PnL, &t.Status, &t.Reason, &t.Outcome, &t.Qty); err != nil {
			return nil, err
		}
		t.Direction = model.Direction(dir)
		t.TS, _ = time.Parse(time.RFC3339, ts)
		out = append(out, t)
	}
	return out, rows.Err()
}
