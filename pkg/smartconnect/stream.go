package smartconnect

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamURI         = "wss://smartapisocket.angelone.in/smart-stream"
	heartbeatInterval = 10 * time.Second
	maxReconnects     = 5
	reconnectDelay    = 3 * time.Second

	// ltpPacketLen is the size of a subscription-mode-1 binary packet.
	ltpPacketLen = 51

	actionSubscribe   = 1
	actionUnsubscribe = 0

	// ModeLTP requests last-traded-price packets only.
	ModeLTP = 1
)

// Exchange type codes used by the market feed.
const (
	ExchangeNSECM = 1 // NSE cash
	ExchangeNSEFO = 2 // NSE F&O
)

// Tick is one LTP update. LTP is in paise — the feed publishes prices
// already multiplied by 100.
type Tick struct {
	Token        string
	ExchangeType int
	LTP          int64
	Timestamp    time.Time
}

// StreamConfig configures the market feed connection.
type StreamConfig struct {
	AuthToken  string // session JWT
	APIKey     string
	ClientCode string
	FeedToken  string
	URL        string // default: wss://smartapisocket.angelone.in/smart-stream
}

// Stream is a SmartAPI WebSocket market feed for LTP ticks.
type Stream struct {
	cfg StreamConfig

	mu    sync.Mutex
	conn  *websocket.Conn
	subs  []subscribeRequest
	ticks chan Tick

	closed chan struct{}
	once   sync.Once
}

type tokenList struct {
	ExchangeType int      `json:"exchangeType"`
	Tokens       []string `json:"tokens"`
}

type subscribeRequest struct {
	CorrelationID string `json:"correlationID"`
	Action        int    `json:"action"`
	Params        struct {
		Mode      int         `json:"mode"`
		TokenList []tokenList `json:"tokenList"`
	} `json:"params"`
}

// NewStream creates a market feed. Call Connect before Subscribe.
func NewStream(cfg StreamConfig) *Stream {
	if cfg.URL == "" {
		cfg.URL = streamURI
	}
	return &Stream{
		cfg:    cfg,
		ticks:  make(chan Tick, 256),
		closed: make(chan struct{}),
	}
}

// Ticks returns the channel LTP updates are delivered on. It is closed
// when the stream shuts down.
func (s *Stream) Ticks() <-chan Tick { return s.ticks }

// Connect dials the feed and starts the read and heartbeat loops. It
// reconnects on transient failures until ctx is cancelled or the retry
// limit is hit.
func (s *Stream) Connect(ctx context.Context) error {
	if err := s.dial(ctx); err != nil {
		return err
	}
	go s.run(ctx)
	return nil
}

func (s *Stream) dial(ctx context.Context) error {
	headers := map[string][]string{
		"Authorization": {"Bearer " + s.cfg.AuthToken},
		"x-api-key":     {s.cfg.APIKey},
		"x-client-code": {s.cfg.ClientCode},
		"x-feed-token":  {s.cfg.FeedToken},
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, headers)
	if err != nil {
		return fmt.Errorf("feed dial: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// Subscribe requests LTP ticks for the given tokens. Subscriptions are
// replayed after a reconnect.
func (s *Stream) Subscribe(exchangeType int, tokens []string) error {
	req := subscribeRequest{CorrelationID: "insidebar", Action: actionSubscribe}
	req.Params.Mode = ModeLTP
	req.Params.TokenList = []tokenList{{ExchangeType: exchangeType, Tokens: tokens}}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, req)
	if s.conn == nil {
		return fmt.Errorf("feed not connected")
	}
	return s.conn.WriteJSON(req)
}

// Unsubscribe stops ticks for the given tokens.
func (s *Stream) Unsubscribe(exchangeType int, tokens []string) error {
	req := subscribeRequest{CorrelationID: "insidebar", Action: actionUnsubscribe}
	req.Params.Mode = ModeLTP
	req.Params.TokenList = []tokenList{{ExchangeType: exchangeType, Tokens: tokens}}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("feed not connected")
	}
	return s.conn.WriteJSON(req)
}

// Close shuts the stream down and closes the tick channel.
func (s *Stream) Close() {
	s.once.Do(func() {
		close(s.closed)
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
	})
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.ticks)
	go s.heartbeat(ctx)

	attempts := 0
	for {
		err := s.readLoop(ctx)
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		default:
		}

		attempts++
		if attempts > maxReconnects {
			log.Printf("[feed] giving up after %d reconnect attempts: %v", maxReconnects, err)
			return
		}
		log.Printf("[feed] disconnected (%v), reconnecting in %s (attempt %d/%d)",
			err, reconnectDelay, attempts, maxReconnects)

		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		}
		if err := s.dial(ctx); err != nil {
			continue
		}
		attempts = 0
		s.resubscribe()
	}
}

func (s *Stream) resubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.subs {
		if err := s.conn.WriteJSON(req); err != nil {
			log.Printf("[feed] resubscribe failed: %v", err)
			return
		}
	}
}

func (s *Stream) readLoop(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("no connection")
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		switch msgType {
		case websocket.BinaryMessage:
			tick, ok := parseLTPPacket(data)
			if !ok {
				continue
			}
			select {
			case s.ticks <- tick:
			case <-ctx.Done():
				return ctx.Err()
			default:
				// slow consumer, drop the tick
			}
		case websocket.TextMessage:
			// "pong" heartbeats and error payloads
			var errMsg struct {
				ErrorCode string `json:"errorCode"`
				Message   string `json:"errorMessage"`
			}
			if json.Unmarshal(data, &errMsg) == nil && errMsg.ErrorCode != "" {
				log.Printf("[feed] server error %s: %s", errMsg.ErrorCode, errMsg.Message)
			}
		}
	}
}

func (s *Stream) heartbeat(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				log.Printf("[feed] heartbeat failed: %v", err)
			}
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		}
	}
}

// parseLTPPacket decodes a subscription-mode-1 binary packet:
// byte 0 mode, byte 1 exchange type, bytes 2:27 null-padded token,
// bytes 35:43 exchange timestamp (ms), bytes 43:51 LTP in paise,
// both little-endian int64.
func parseLTPPacket(data []byte) (Tick, bool) {
	if len(data) < ltpPacketLen || int(data[0]) != ModeLTP {
		return Tick{}, false
	}
	token := data[2:27]
	if i := bytes.IndexByte(token, 0); i >= 0 {
		token = token[:i]
	}
	tsMillis := int64(binary.LittleEndian.Uint64(data[35:43]))
	ltp := int64(binary.LittleEndian.Uint64(data[43:51]))
	return Tick{
		Token:        string(token),
		ExchangeType: int(data[1]),
		LTP:          ltp,
		Timestamp:    time.UnixMilli(tsMillis),
	}, true
}
