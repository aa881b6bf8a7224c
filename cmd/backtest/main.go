// Command backtest replays stored candles through the Inside Bar
// strategy and prints a performance report.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"insidebar-engine/internal/backtest"
	"insidebar-engine/internal/marketdata"
	"insidebar-engine/internal/model"
	"insidebar-engine/internal/store/sqlite"
	"insidebar-engine/internal/strategy"
)

func main() {
	var (
		dbPath  = flag.String("db", "data/insidebar.db", "sqlite candle database")
		symbol  = flag.String("symbol", "NIFTY", "index symbol")
		from    = flag.String("from", "", "start date YYYY-MM-DD (default: all stored data)")
		capital = flag.Float64("capital", 100000, "starting capital in rupees")

		sl      = flag.Int64("sl", 30, "stop-loss distance in points")
		rr      = flag.Float64("rr", 1.8, "risk/reward multiple")
		volMult = flag.Float64("vol-mult", 1.0, "breakout volume multiplier")
		offset  = flag.Int("atm-offset", 0, "strike offset from ATM in ticks")
		lot     = flag.Int64("lot", 75, "option lot size")
		noVol   = flag.Bool("no-volume-filter", false, "disable the volume spike filter")
	)
	flag.Parse()

	var afterTS int64
	if *from != "" {
		t, err := time.Parse("2006-01-02", *from)
		if err != nil {
			log.Fatalf("[backtest] bad -from date: %v", err)
		}
		afterTS = t.Unix()
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] open %s: %v", *dbPath, err)
	}
	defer store.Close()

	fifteen, err := store.ReadCandles(*symbol, model.TF15Min, afterTS)
	if err != nil {
		log.Fatalf("[backtest] read 15m candles: %v", err)
	}
	if len(fifteen) == 0 {
		log.Fatalf("[backtest] no 15m candles for %s in %s — run backfill first", *symbol, *dbPath)
	}
	hourly, err := store.ReadCandles(*symbol, model.TFHourly, afterTS)
	if err != nil {
		log.Fatalf("[backtest] read hourly candles: %v", err)
	}
	if len(hourly) == 0 {
		log.Printf("[backtest] no stored hourly candles, resampling from 15m")
		hourly = marketdata.Resample(fifteen, model.TFHourly)
	}

	params := strategy.Params{
		SLPoints:    *sl,
		RiskReward:  *rr,
		VolumeMult:  *volMult,
		ATMOffset:   *offset,
		LotSize:     *lot,
		VolumeSpike: !*noVol,
	}

	sim := backtest.New(params, model.Paise(*capital))
	result, err := sim.Run(hourly, fifteen)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	printReport(*symbol, fifteen, result)
}

func printReport(symbol string, fifteen []model.Candle, r *backtest.Result) {
	first, last := fifteen[0].TS, fifteen[len(fifteen)-1].TS

	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║            INSIDE BAR BACKTEST REPORT             ║")
	fmt.Println("╠══════════════════════════════════════════════════╣")
	fmt.Printf("║ Symbol          %-34s ║\n", symbol)
	fmt.Printf("║ Period          %-34s ║\n",
		first.Format("2006-01-02")+" → "+last.Format("2006-01-02"))
	fmt.Printf("║ Trades          %-34d ║\n", r.TotalTrades)
	fmt.Printf("║ Win rate        %-34s ║\n", fmt.Sprintf("%.1f%% (%dW / %dL)", r.WinRate, r.WinningTrades, r.LosingTrades))
	fmt.Printf("║ Total PnL       ₹%-33.2f ║\n", model.Rupees(r.TotalPnL))
	fmt.Printf("║ Avg win         ₹%-33.2f ║\n", r.AvgWin/100)
	fmt.Printf("║ Avg loss        ₹%-33.2f ║\n", r.AvgLoss/100)
	fmt.Printf("║ Max drawdown    %-34s ║\n", fmt.Sprintf("%.2f%%", r.MaxDrawdown))
	fmt.Printf("║ Return          %-34s ║\n", fmt.Sprintf("%.2f%%", r.ReturnPct))
	fmt.Printf("║ Final capital   ₹%-33.2f ║\n", model.Rupees(r.FinalCapital))
	fmt.Println("╚══════════════════════════════════════════════════╝")

	if len(r.Trades) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("  #  DIR  STRIKE   ENTRY     EXIT      PNL         REASON       ENTRY TIME")
	for i, t := range r.Trades {
		fmt.Printf("%3d  %-3s  %-7d  %-8.2f  %-8.2f  %-10.2f  %-11s  %s\n",
			i+1, t.Direction, t.Strike/100,
			model.Rupees(t.Entry), model.Rupees(t.Exit), model.Rupees(t.PnL),
			t.ExitReason, t.EntryTS.Format("2006-01-02 15:04"))
	}
}
