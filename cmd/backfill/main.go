// Command backfill downloads historical spot candles from Angel One and
// stores them in the sqlite candle database for backtesting.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/pquerna/otp/totp"

	"insidebar-engine/config"
	"insidebar-engine/internal/angel"
	"insidebar-engine/internal/model"
	"insidebar-engine/internal/store/sqlite"
	"insidebar-engine/pkg/smartconnect"
)

func main() {
	days := flag.Int("days", 30, "calendar days of history to fetch")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	code, err := totp.GenerateCode(cfg.AngelTOTPSecret, time.Now())
	if err != nil {
		log.Fatalf("[backfill] TOTP generation failed: %v", err)
	}
	client := smartconnect.New(smartconnect.Config{APIKey: cfg.AngelAPIKey})
	if _, err := client.GenerateSession(ctx, cfg.AngelClientCode, cfg.AngelPassword, code); err != nil {
		log.Fatalf("[backfill] login failed: %v", err)
	}
	connector := angel.New(client, cfg.SpotToken, cfg.Exchange)

	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[backfill] sqlite open: %v", err)
	}
	defer store.Close()

	// tradingMinutes approximates bars-per-day so the fetch spans the
	// requested calendar window.
	const tradingMinutes = 375
	for _, tf := range []int{model.TF15Min, model.TFHourly} {
		count := *days * tradingMinutes / tf
		candles, err := connector.Candles(ctx, cfg.Symbol, tf, count)
		if err != nil {
			log.Fatalf("[backfill] fetch tf=%d: %v", tf, err)
		}
		if err := store.WriteCandles(candles); err != nil {
			log.Fatalf("[backfill] store tf=%d: %v", tf, err)
		}
		log.Printf("[backfill] stored %d candles for %s tf=%dm", len(candles), cfg.Symbol, tf)
	}
}
