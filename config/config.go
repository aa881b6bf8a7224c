package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"insidebar-engine/internal/strategy"
)

// Config holds all application configuration loaded from environment
// variables.
type Config struct {
	// Angel One credentials
	AngelAPIKey     string
	AngelClientCode string
	AngelPassword   string
	AngelTOTPSecret string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	MetricsAddr   string
	LogLevel      string

	// Instrument under watch
	Symbol    string // index symbol, e.g. NIFTY
	SpotToken string // broker token for the spot index
	Exchange  string // spot exchange

	// Live scan cadence
	PollInterval time.Duration

	// TrailPoints, when > 0, enables a trailing stop on live positions
	// at the given distance in rupee points.
	TrailPoints int64

	// Notifications (optional)
	TelegramBotToken string
	TelegramChatID   string

	// Strategy parameters, passed explicitly into every detector,
	// confirmer, and simulator call.
	Strategy strategy.Params
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is applied first,
// best-effort. Broker credentials are required.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AngelAPIKey:     mustEnv("ANGEL_API_KEY"),
		AngelClientCode: mustEnv("ANGEL_CLIENT_CODE"),
		AngelPassword:   mustEnv("ANGEL_PASSWORD"),
		AngelTOTPSecret: mustEnv("ANGEL_TOTP_SECRET"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/insidebar.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		Symbol:    getEnv("SYMBOL", "NIFTY"),
		SpotToken: getEnv("SPOT_TOKEN", "99926000"), // NIFTY 50 index
		Exchange:  getEnv("SPOT_EXCHANGE", "NSE"),

		PollInterval: time.Duration(getInt("POLL_INTERVAL_SECONDS", 900)) * time.Second,
		TrailPoints:  int64(getInt("TRAIL_POINTS", 0)),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		Strategy: loadStrategyParams(),
	}
}

// loadStrategyParams reads the strategy knobs from env on top of the
// defaults.
func loadStrategyParams() strategy.Params {
	p := strategy.DefaultParams()
	p.SLPoints = int64(getInt("SL_POINTS", int(p.SLPoints)))
	p.RiskReward = getFloat("RISK_REWARD", p.RiskReward)
	p.VolumeMult = getFloat("VOLUME_MULT", p.VolumeMult)
	p.ATMOffset = getInt("ATM_OFFSET", p.ATMOffset)
	p.LotSize = int64(getInt("LOT_SIZE", int(p.LotSize)))
	p.VolumeSpike = getBool("FILTER_VOLUME_SPIKE", p.VolumeSpike)
	p.AvoidOpenRange = getBool("FILTER_AVOID_OPEN_RANGE", p.AvoidOpenRange)
	return p
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid bool for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return b
}
