// Command live runs the Inside Bar engine against the market: it logs
// into Angel One, scans for signals every poll interval during market
// hours, executes them (paper or real), and supervises open positions
// over the tick feed until stop or target.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pquerna/otp/totp"

	"insidebar-engine/config"
	"insidebar-engine/internal/angel"
	"insidebar-engine/internal/execution"
	"insidebar-engine/internal/logger"
	"insidebar-engine/internal/markethours"
	"insidebar-engine/internal/marketdata"
	"insidebar-engine/internal/metrics"
	"insidebar-engine/internal/model"
	"insidebar-engine/internal/notification"
	"insidebar-engine/internal/portfolio"
	"insidebar-engine/internal/store/redis"
	"insidebar-engine/internal/store/sqlite"
	"insidebar-engine/internal/strategy"
)

const (
	hourlyLookback  = 48 // hourly candles per scan
	fifteenLookback = 20 // 15m candles per scan

	// defaultCapitalPaise is the starting equity for risk tracking: ₹1,00,000.
	defaultCapitalPaise = 100_000 * 100
)

func main() {
	paper := flag.Bool("paper", false, "simulate fills instead of placing real orders")
	flag.Parse()

	cfg := config.Load()
	slogger := logger.Init("live", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Broker session ──
	code, err := totp.GenerateCode(cfg.AngelTOTPSecret, time.Now())
	if err != nil {
		log.Fatalf("[live] TOTP generation failed: %v", err)
	}
	client := smartClient(cfg)
	if _, err := client.GenerateSession(ctx, cfg.AngelClientCode, cfg.AngelPassword, code); err != nil {
		log.Fatalf("[live] login failed: %v", err)
	}
	slogger.Info("session established", "client", cfg.AngelClientCode)

	connector := angel.New(client, cfg.SpotToken, cfg.Exchange)
	provider := marketdata.NewProvider(connector)

	// ── Storage, publishing, metrics ──
	store, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("[live] sqlite open: %v", err)
	}
	defer store.Close()

	var sink model.SignalSink
	var publisher *redis.Publisher
	publisher, err = redis.New(redis.PublisherConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err != nil {
		log.Printf("[live] redis unavailable, signals will not be published: %v", err)
		publisher = nil
	} else {
		sink = publisher
		defer publisher.Close()
	}

	m := metrics.New()
	go metrics.Serve(cfg.MetricsAddr)

	var notifier notification.Notifier = notification.NewLogNotifier()
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifier = notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	}

	// ── Execution ──
	risk := portfolio.NewRiskManager(portfolio.DefaultRiskLimits(), defaultCapitalPaise)
	m.EquityPaise.Set(float64(risk.Equity()))

	var broker model.Broker = connector
	var paperBroker *execution.PaperBroker
	if *paper {
		paperBroker = execution.NewPaperBroker(5)
		broker = paperBroker
		log.Printf("[live] paper trading mode: fills are simulated")
	}
	exec := execution.NewExecutor(broker, store, risk, notifier, sink, m, cfg.Strategy)

	// ── Tick feed for position supervision ──
	feed := smartFeed(client, cfg)
	if err := feed.Connect(ctx); err != nil {
		log.Printf("[live] tick feed unavailable, monitors will poll: %v", err)
		feed = nil
	} else {
		defer feed.Close()
	}

	eng := &engine{
		cfg:       cfg,
		connector: connector,
		provider:  provider,
		store:     store,
		exec:      exec,
		publisher: publisher,
		metrics:   m,
		risk:      risk,
		feed:      feed,
		paper:     paperBroker,
	}
	if eng.feed != nil {
		go eng.fanOutTicks(ctx)
	}

	slogger.Info("scanner started",
		"symbol", cfg.Symbol, "interval", cfg.PollInterval.String(),
		"sl_points", cfg.Strategy.SLPoints, "rr", cfg.Strategy.RiskReward)

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()
	eng.tick(ctx) // scan immediately on startup
	for {
		select {
		case <-ctx.Done():
			log.Printf("[live] shutting down")
			return
		case <-ticker.C:
			eng.tick(ctx)
		}
	}
}

// engine holds the live scan state: at most one open trade at a time.
type engine struct {
	cfg       *config.Config
	connector *angel.Connector
	provider  *marketdata.Provider
	store     *sqlite.Store
	exec      *execution.Executor
	publisher *redis.Publisher
	metrics   *metrics.Metrics
	risk      *portfolio.RiskManager
	feed      tickFeed
	paper     *execution.PaperBroker

	mu         sync.Mutex
	open       *execution.OpenTrade
	watchToken string
	premiums   chan int64
	monCancel  context.CancelFunc
}

func (e *engine) tick(ctx context.Context) {
	now := time.Now()
	e.risk.RolloverDaily(now)

	e.mu.Lock()
	trade := e.open
	e.mu.Unlock()

	if !markethours.IsMarketOpen(now) {
		if trade != nil {
			e.squareOff(ctx, trade)
			return
		}
		log.Printf("[live] %s", markethours.StatusString(now))
		return
	}
	if trade != nil {
		return // monitor owns the cycle while a position is open
	}

	e.metrics.ScanCycles.Inc()
	start := time.Now()
	sig, err := e.scan(ctx)
	e.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.ScanErrors.Inc()
		if model.IsQuoteUnavailable(err) {
			e.metrics.QuoteErrors.Inc()
		}
		log.Printf("[live] scan failed: %v", err)
		return
	}
	if sig == nil {
		return
	}
	e.enter(ctx, *sig)
}

// scan fetches fresh candles, persists them, and runs the strategy.
func (e *engine) scan(ctx context.Context) (*model.Signal, error) {
	hourly, err := e.provider.Hourly(ctx, e.cfg.Symbol, hourlyLookback)
	if err != nil {
		return nil, err
	}
	fifteen, err := e.provider.FifteenMin(ctx, e.cfg.Symbol, fifteenLookback)
	if err != nil {
		return nil, err
	}
	if err := e.store.WriteCandles(hourly); err != nil {
		log.Printf("[live] candle persist failed: %v", err)
	}
	if err := e.store.WriteCandles(fifteen); err != nil {
		log.Printf("[live] candle persist failed: %v", err)
	}
	return strategy.CheckForSignal(ctx, e.cfg.Symbol, hourly, fifteen, e.connector, e.cfg.Strategy)
}

func (e *engine) enter(ctx context.Context, sig model.Signal) {
	if e.paper != nil {
		e.paper.SetQuote(sig.OptionSymbol(), sig.Entry)
	}
	trade, err := e.exec.HandleSignal(ctx, sig)
	if err != nil {
		log.Printf("[live] entry failed: %v", err)
		return
	}
	if trade == nil {
		return // blocked by risk limits
	}

	monCtx, cancel := context.WithCancel(ctx)
	premiums := make(chan int64, 16)

	e.mu.Lock()
	e.open = trade
	e.premiums = premiums
	e.monCancel = cancel
	e.mu.Unlock()

	if e.feed != nil {
		if token, err := e.connector.TokenFor(ctx, "NFO", sig.OptionSymbol()); err == nil {
			e.mu.Lock()
			e.watchToken = token
			e.mu.Unlock()
			if err := e.feed.Subscribe(exchangeNSEFO, []string{token}); err != nil {
				log.Printf("[live] feed subscribe failed, monitor will poll: %v", err)
			}
		} else {
			log.Printf("[live] token lookup failed, monitor will poll: %v", err)
		}
	}

	mon := execution.NewPositionMonitor(e.connector, trade, 10*time.Second)
	mon.AttachTicks(premiums)
	if e.cfg.TrailPoints > 0 {
		mon.SetTrailing(e.cfg.TrailPoints * 100)
	}
	mon.OnExit = func(ctx context.Context, exitPrice int64, outcome string) {
		if e.paper != nil {
			e.paper.SetQuote(trade.Signal.OptionSymbol(), exitPrice)
		}
		if err := e.exec.ClosePosition(ctx, trade, exitPrice, outcome); err != nil {
			log.Printf("[live] exit failed, manual intervention needed: %v", err)
		}
		e.release(ctx, trade)
	}
	go mon.Run(monCtx)
}

// squareOff force-closes the open position after market close.
func (e *engine) squareOff(ctx context.Context, trade *execution.OpenTrade) {
	e.mu.Lock()
	cancel := e.monCancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	ltp, err := e.connector.LTP(ctx, "NFO", trade.Signal.OptionSymbol(), "")
	if err != nil {
		log.Printf("[live] square-off quote failed, using entry: %v", err)
		ltp = trade.Signal.Entry
	}
	if e.paper != nil {
		e.paper.SetQuote(trade.Signal.OptionSymbol(), ltp)
	}
	if err := e.exec.ClosePosition(ctx, trade, ltp, execution.OutcomeManual); err != nil {
		log.Printf("[live] square-off failed: %v", err)
		return
	}
	e.release(ctx, trade)
}

// release clears position state and unsubscribes the tick feed.
func (e *engine) release(ctx context.Context, trade *execution.OpenTrade) {
	e.mu.Lock()
	token := e.watchToken
	e.open = nil
	e.watchToken = ""
	e.premiums = nil
	e.monCancel = nil
	e.mu.Unlock()

	if e.feed != nil && token != "" {
		if err := e.feed.Unsubscribe(exchangeNSEFO, []string{token}); err != nil {
			log.Printf("[live] feed unsubscribe failed: %v", err)
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishEquity(ctx, time.Now(), e.risk.Equity()); err != nil {
			log.Printf("[live] equity publish failed: %v", err)
		}
	}
	log.Printf("[live] %s released, scanning resumes", trade.Signal.OptionSymbol())
}

// fanOutTicks forwards feed ticks for the watched token to the active
// monitor's premium channel.
func (e *engine) fanOutTicks(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-e.feed.Ticks():
			if !ok {
				return
			}
			e.mu.Lock()
			ch, token := e.premiums, e.watchToken
			e.mu.Unlock()
			if ch == nil || tick.Token != token {
				continue
			}
			select {
			case ch <- tick.LTP:
			default: // monitor busy, newer tick supersedes
			}
		}
	}
}
