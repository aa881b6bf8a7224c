package main

import (
	"context"

	"insidebar-engine/config"
	"insidebar-engine/pkg/smartconnect"
)

const exchangeNSEFO = smartconnect.ExchangeNSEFO

// tickFeed is the slice of the market feed the engine uses, so tests can
// stub it out.
type tickFeed interface {
	Connect(ctx context.Context) error
	Subscribe(exchangeType int, tokens []string) error
	Unsubscribe(exchangeType int, tokens []string) error
	Ticks() <-chan smartconnect.Tick
	Close()
}

func smartClient(cfg *config.Config) *smartconnect.Client {
	return smartconnect.New(smartconnect.Config{APIKey: cfg.AngelAPIKey})
}

func smartFeed(client *smartconnect.Client, cfg *config.Config) tickFeed {
	return smartconnect.NewStream(smartconnect.StreamConfig{
		AuthToken:  client.AccessToken(),
		APIKey:     cfg.AngelAPIKey,
		ClientCode: cfg.AngelClientCode,
		FeedToken:  client.FeedToken(),
	})
}
