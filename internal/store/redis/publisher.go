// Package redis publishes assembled signals and equity snapshots to
// Redis for the external dashboard: a capped stream for history plus
// latest-value keys for cheap polling.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"insidebar-engine/internal/model"
)

const (
	signalStream    = "signals"
	signalStreamMax = 1000
	latestSignalKey = "latest:signal"
	latestEquityKey = "latest:equity"
	latestTTL       = 24 * time.Hour
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes signals and equity snapshots to Redis.
type Publisher struct {
	client *goredis.Client
}

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// PublishSignal appends the signal to the signal stream and refreshes the
// latest-signal key.
func (p *Publisher) PublishSignal(ctx context.Context, sig model.Signal) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	if err := p.client.XAdd(ctx, &goredis.XAddArgs{
		Stream: signalStream,
		MaxLen: signalStreamMax,
		Approx: true,
		Values: map[string]interface{}{"data": payload},
	}).Err(); err != nil {
		return fmt.Errorf("xadd signal: %w", err)
	}

	return p.client.Set(ctx, latestSignalKey, payload, latestTTL).Err()
}

// PublishEquity refreshes the latest-equity key (paise).
func (p *Publisher) PublishEquity(ctx context.Context, ts time.Time, equity int64) error {
	payload, _ := json.Marshal(map[string]interface{}{
		"ts":     ts.UTC().Format(time.RFC3339),
		"equity": equity,
	})
	return p.client.Set(ctx, latestEquityKey, payload, latestTTL).Err()
}

// Close releases the connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
