package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"insidebar-engine/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testCandle(i int, tf int) model.Candle {
	base := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
	return model.Candle{
		Symbol: "NIFTY",
		TF:     tf,
		TS:     base.Add(time.Duration(i) * time.Duration(tf) * time.Minute),
		Open:   2600000 + int64(i),
		High:   2610000 + int64(i),
		Low:    2590000 + int64(i),
		Close:  2605000 + int64(i),
		Volume: int64(100 + i),
	}
}

func TestCandles_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := []model.Candle{testCandle(0, 15), testCandle(1, 15), testCandle(2, 15)}
	if err := s.WriteCandles(in); err != nil {
		t.Fatalf("WriteCandles: %v", err)
	}

	out, err := s.ReadCandles("NIFTY", 15, 0)
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("read %d candles, want 3", len(out))
	}
	for i := range in {
		if !out[i].TS.Equal(in[i].TS) || out[i].Close != in[i].Close || out[i].Volume != in[i].Volume {
			t.Errorf("candle %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestCandles_DuplicateTimestampReplaces(t *testing.T) {
	s := openTestStore(t)

	c := testCandle(0, 15)
	if err := s.WriteCandles([]model.Candle{c}); err != nil {
		t.Fatalf("WriteCandles: %v", err)
	}
	c.Close = 9999999
	if err := s.WriteCandles([]model.Candle{c}); err != nil {
		t.Fatalf("WriteCandles(replace): %v", err)
	}

	out, err := s.ReadCandles("NIFTY", 15, 0)
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("read %d candles, want 1 after replace", len(out))
	}
	if out[0].Close != 9999999 {
		t.Errorf("close = %d, want the replacing value", out[0].Close)
	}
}

func TestCandles_AfterTSFilterAndTFIsolation(t *testing.T) {
	s := openTestStore(t)

	if err := s.WriteCandles([]model.Candle{
		testCandle(0, 15), testCandle(1, 15), testCandle(2, 15),
		testCandle(0, 60),
	}); err != nil {
		t.Fatalf("WriteCandles: %v", err)
	}

	cut := testCandle(0, 15).TS.Unix()
	out, err := s.ReadCandles("NIFTY", 15, cut)
	if err != nil {
		t.Fatalf("ReadCandles: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("read %d candles after cutoff, want 2 (filter is strict)", len(out))
	}

	last, err := s.LastCandleTS("NIFTY", 60)
	if err != nil {
		t.Fatalf("LastCandleTS: %v", err)
	}
	if last != testCandle(0, 60).TS.Unix() {
		t.Errorf("LastCandleTS = %d, want %d", last, testCandle(0, 60).TS.Unix())
	}

	if last, _ := s.LastCandleTS("BANKNIFTY", 15); last != 0 {
		t.Errorf("LastCandleTS for unknown symbol = %d, want 0", last)
	}
}

func TestJournal_Lifecycle(t *testing.T) {
	s := openTestStore(t)

	sig := model.Signal{
		Symbol:     "NIFTY",
		Direction:  model.DirectionCE,
		Strike:     2620000,
		Entry:      15050,
		StopLoss:   12050,
		TakeProfit: 20470,
		Reason:     "Inside Bar breakout on CE side with volume confirmation",
		TS:         time.Date(2026, 1, 6, 11, 30, 0, 0, time.UTC),
		Status:     model.SignalFilled,
	}

	id, err := s.RecordSignal(sig, "ORD123", 75)
	if err != nil {
		t.Fatalf("RecordSignal: %v", err)
	}

	open, err := s.OpenTrades()
	if err != nil {
		t.Fatalf("OpenTrades: %v", err)
	}
	if len(open) != 1 || open[0].ID != id {
		t.Fatalf("OpenTrades = %+v, want the one filled row", open)
	}
	if open[0].OrderID != "ORD123" || open[0].Entry != 15050 || open[0].Qty != 75 {
		t.Errorf("row = %+v, want order/entry/qty preserved", open[0])
	}

	if err := s.UpdateExit(id, 12050, -225000, "stop_loss"); err != nil {
		t.Fatalf("UpdateExit: %v", err)
	}

	open, _ = s.OpenTrades()
	if len(open) != 0 {
		t.Fatalf("OpenTrades after exit = %d rows, want 0", len(open))
	}

	trades, err := s.Trades(10)
	if err != nil {
		t.Fatalf("Trades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("Trades = %d rows, want 1", len(trades))
	}
	tr := trades[0]
	if tr.Status != "closed" || tr.Outcome != "stop_loss" {
		t.Errorf("status/outcome = %q/%q, want closed/stop_loss", tr.Status, tr.Outcome)
	}
	if !tr.Exit.Valid || tr.Exit.Int64 != 12050 || !tr.PnL.Valid || tr.PnL.Int64 != -225000 {
		t.Errorf("exit/pnl = %+v/%+v, want 12050/-225000", tr.Exit, tr.PnL)
	}
}

func TestJournal_CancelledSignalNotOpen(t *testing.T) {
	s := openTestStore(t)

	sig := model.Signal{Symbol: "NIFTY", Direction: model.DirectionPE, Strike: 2600000, TS: time.Now().UTC(), Status: model.SignalCancelled}
	if _, err := s.RecordSignal(sig, "", 75); err != nil {
		t.Fatalf("RecordSignal: %v", err)
	}

	open, err := s.OpenTrades()
	if err != nil {
		t.Fatalf("OpenTrades: %v", err)
	}
	if len(open) != 0 {
		t.Fatalf("cancelled signal showed up in OpenTrades: %+v", open)
	}
}
