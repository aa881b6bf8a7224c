// Package smartconnect is a typed Angel One SmartAPI client covering the
// endpoints this engine needs: session login, order management,
// positions, LTP quotes, historical candles, and scrip search. Request
// and response shapes are concrete structs rather than raw maps.
package smartconnect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	defaultRoot    = "https://apiconnect.angelone.in"
	defaultTimeout = 7 * time.Second
)

var routes = map[string]string{
	"api.login":        "/rest/auth/angelbroking/user/v1/loginByPassword",
	"api.logout":       "/rest/secure/angelbroking/user/v1/logout",
	"api.token":        "/rest/auth/angelbroking/jwt/v1/generateTokens",
	"api.user.profile": "/rest/secure/angelbroking/user/v1/getProfile",

	"api.order.place":  "/rest/secure/angelbroking/order/v1/placeOrder",
	"api.order.modify": "/rest/secure/angelbroking/order/v1/modifyOrder",
	"api.order.cancel": "/rest/secure/angelbroking/order/v1/cancelOrder",
	"api.order.book":   "/rest/secure/angelbroking/order/v1/getOrderBook",

	"api.ltp.data":     "/rest/secure/angelbroking/order/v1/getLtpData",
	"api.position":     "/rest/secure/angelbroking/order/v1/getPosition",
	"api.candle.data":  "/rest/secure/angelbroking/historical/v1/getCandleData",
	"api.search.scrip": "/rest/secure/angelbroking/order/v1/searchScrip",
}

// Config configures the SmartAPI client.
type Config struct {
	APIKey  string
	RootURL string        // default: https://apiconnect.angelone.in
	Timeout time.Duration // default: 7s
	Debug   bool
}

// Client is an authenticated SmartAPI HTTP client.
type Client struct {
	apiKey       string
	accessToken  string
	refreshToken string
	feedToken    string
	clientCode   string

	rootURL    string
	debug      bool
	httpClient *http.Client

	clientLocalIP string
	clientMAC     string

	// SessionExpiryHook fires on a 403 TokenException so the caller can
	// re-login.
	SessionExpiryHook func()
}

// New creates a SmartAPI client.
func New(cfg Config) *Client {
	if cfg.RootURL == "" {
		cfg.RootURL = defaultRoot
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		apiKey:        cfg.APIKey,
		rootURL:       cfg.RootURL,
		debug:         cfg.Debug,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		clientLocalIP: localIP(),
		clientMAC:     localMAC(),
	}
}

// FeedToken returns the market-data feed token from the current session.
func (c *Client) FeedToken() string { return c.feedToken }

// AccessToken returns the JWT for the current session.
func (c *Client) AccessToken() string { return c.accessToken }

// ClientCode returns the logged-in client code.
func (c *Client) ClientCode() string { return c.clientCode }

// apiResponse is the SmartAPI envelope.
type apiResponse struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	ErrorType string          `json:"error_type"`
	Data      json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, route string, body interface{}, out interface{}) error {
	uri, ok := routes[route]
	if !ok {
		return fmt.Errorf("unknown route: %s", route)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.rootURL+uri, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-ClientLocalIP", c.clientLocalIP)
	req.Header.Set("X-ClientPublicIP", c.clientLocalIP)
	req.Header.Set("X-MACAddress", c.clientMAC)
	req.Header.Set("X-PrivateKey", c.apiKey)
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	if c.debug {
		log.Printf("[smartapi] %s %s", method, uri)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("smartapi %s: %w", route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("smartapi %s read: %w", route, err)
	}

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("smartapi %s: bad JSON response: %w", route, err)
	}
	if env.ErrorType != "" {
		if resp.StatusCode == http.StatusForbidden && env.ErrorType == "TokenException" && c.SessionExpiryHook != nil {
			c.SessionExpiryHook()
		}
		return fmt.Errorf("smartapi %s: %s: %s", route, env.ErrorType, env.Message)
	}
	if !env.Status {
		return fmt.Errorf("smartapi %s: %s (%s)", route, env.Message, env.ErrorCode)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("smartapi %s: decode data: %w", route, err)
		}
	}
	return nil
}

// ── Session ──

// SessionTokens holds the credentials of a live session.
type SessionTokens struct {
	JWTToken     string `json:"jwtToken"`
	RefreshToken string `json:"refreshToken"`
	FeedToken    string `json:"feedToken"`
}

// GenerateSession logs in with client code, password, and a TOTP code,
// storing the session tokens on the client.
func (c *Client) GenerateSession(ctx context.Context, clientCode, password, totp string) (SessionTokens, error) {
	var tokens SessionTokens
	err := c.do(ctx, http.MethodPost, "api.login", map[string]string{
		"clientcode": clientCode,
		"password":   password,
		"totp":       totp,
	}, &tokens)
	if err != nil {
		return tokens, fmt.Errorf("login: %w", err)
	}
	c.accessToken = tokens.JWTToken
	c.refreshToken = tokens.RefreshToken
	c.feedToken = tokens.FeedToken
	c.clientCode = clientCode
	return tokens, nil
}

// RenewSession refreshes the JWT using the stored refresh token.
func (c *Client) RenewSession(ctx context.Context) error {
	var tokens SessionTokens
	err := c.do(ctx, http.MethodPost, "api.token", map[string]string{
		"refreshToken": c.refreshToken,
	}, &tokens)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	if tokens.JWTToken != "" {
		c.accessToken = tokens.JWTToken
	}
	if tokens.FeedToken != "" {
		c.feedToken = tokens.FeedToken
	}
	return nil
}

// TerminateSession logs out.
func (c *Client) TerminateSession(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "api.logout", map[string]string{
		"clientcode": c.clientCode,
	}, nil)
}

// ── Orders ──

// OrderParams carries a new-order request.
type OrderParams struct {
	Variety         string `json:"variety"` // NORMAL, STOPLOSS, AMO
	TradingSymbol   string `json:"tradingsymbol"`
	SymbolToken     string `json:"symboltoken"`
	TransactionType string `json:"transactiontype"` // BUY, SELL
	Exchange        string `json:"exchange"`        // NSE, NFO
	OrderType       string `json:"ordertype"`       // MARKET, LIMIT
	ProductType     string `json:"producttype"`     // INTRADAY, DELIVERY
	Duration        string `json:"duration"`        // DAY
	Quantity        string `json:"quantity"`
	Price           string `json:"price,omitempty"`
	TriggerPrice    string `json:"triggerprice,omitempty"`
}

// PlaceOrder submits an order and returns the broker order ID.
func (c *Client) PlaceOrder(ctx context.Context, p OrderParams) (string, error) {
	var data struct {
		OrderID string `json:"orderid"`
	}
	if err := c.do(ctx, http.MethodPost, "api.order.place", p, &data); err != nil {
		return "", fmt.Errorf("place order: %w", err)
	}
	if data.OrderID == "" {
		return "", fmt.Errorf("place order: empty order id in response")
	}
	return data.OrderID, nil
}

// ModifyOrderParams carries an order modification.
type ModifyOrderParams struct {
	Variety       string `json:"variety"`
	OrderID       string `json:"orderid"`
	OrderType     string `json:"ordertype"`
	ProductType   string `json:"producttype"`
	Duration      string `json:"duration"`
	Exchange      string `json:"exchange"`
	TradingSymbol string `json:"tradingsymbol"`
	SymbolToken   string `json:"symboltoken"`
	Quantity      string `json:"quantity,omitempty"`
	Price         string `json:"price,omitempty"`
}

// ModifyOrder updates an open order.
func (c *Client) ModifyOrder(ctx context.Context, p ModifyOrderParams) error {
	if err := c.do(ctx, http.MethodPost, "api.order.modify", p, nil); err != nil {
		return fmt.Errorf("modify order: %w", err)
	}
	return nil
}

// CancelOrder cancels an open order.
func (c *Client) CancelOrder(ctx context.Context, orderID, variety string) error {
	if err := c.do(ctx, http.MethodPost, "api.order.cancel", map[string]string{
		"variety": variety,
		"orderid": orderID,
	}, nil); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	return nil
}

// OrderDetails is one row of the order book.
type OrderDetails struct {
	OrderID         string `json:"orderid"`
	TradingSymbol   string `json:"tradingsymbol"`
	SymbolToken     string `json:"symboltoken"`
	Exchange        string `json:"exchange"`
	TransactionType string `json:"transactiontype"`
	OrderType       string `json:"ordertype"`
	ProductType     string `json:"producttype"`
	Status          string `json:"orderstatus"`
	Quantity        string `json:"quantity"`
	FilledShares    string `json:"filledshares"`
	AveragePrice    string `json:"averageprice"`
	Price           string `json:"price"`
	UpdateTime      string `json:"updatetime"`
}

// OrderBook returns today's orders.
func (c *Client) OrderBook(ctx context.Context) ([]OrderDetails, error) {
	var data []OrderDetails
	if err := c.do(ctx, http.MethodGet, "api.order.book", nil, &data); err != nil {
		return nil, fmt.Errorf("order book: %w", err)
	}
	return data, nil
}

// ── Positions & quotes ──

// PositionData is one open position as reported by the broker.
type PositionData struct {
	TradingSymbol string `json:"tradingsymbol"`
	SymbolToken   string `json:"symboltoken"`
	Exchange      string `json:"exchange"`
	ProductType   string `json:"producttype"`
	NetQty        string `json:"netqty"`
	AvgNetPrice   string `json:"avgnetprice"`
	LTP           string `json:"ltp"`
}

// Positions returns all open positions.
func (c *Client) Positions(ctx context.Context) ([]PositionData, error) {
	var data []PositionData
	if err := c.do(ctx, http.MethodGet, "api.position", nil, &data); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	return data, nil
}

// LTP fetches the last traded price in rupees.
func (c *Client) LTP(ctx context.Context, exchange, tradingSymbol, symbolToken string) (float64, error) {
	var data struct {
		LTP json.Number `json:"ltp"`
	}
	err := c.do(ctx, http.MethodPost, "api.ltp.data", map[string]string{
		"exchange":      exchange,
		"tradingsymbol": tradingSymbol,
		"symboltoken":   symbolToken,
	}, &data)
	if err != nil {
		return 0, fmt.Errorf("ltp %s: %w", tradingSymbol, err)
	}
	v, err := data.LTP.Float64()
	if err != nil {
		return 0, fmt.Errorf("ltp %s: bad price %q", tradingSymbol, data.LTP)
	}
	return v, nil
}

// ── Historical candles ──

// Candle intervals accepted by the historical API.
const (
	IntervalFifteenMinute = "FIFTEEN_MINUTE"
	IntervalOneHour       = "ONE_HOUR"
	IntervalOneDay        = "ONE_DAY"
)

// CandleParams selects a historical candle range.
type CandleParams struct {
	Exchange    string
	SymbolToken string
	Interval    string
	From, To    time.Time
}

// CandleBar is one OHLCV bar with rupee prices, as returned by the API.
type CandleBar struct {
	TS     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// apiTimeLayout is the timestamp format the candle endpoint expects and
// returns (exchange local time).
const apiTimeLayout = "2006-01-02 15:04"

// CandleData fetches historical candles. Bars come back chronological.
func (c *Client) CandleData(ctx context.Context, p CandleParams) ([]CandleBar, error) {
	var rows [][]json.Number
	err := c.do(ctx, http.MethodPost, "api.candle.data", map[string]string{
		"exchange":    p.Exchange,
		"symboltoken": p.SymbolToken,
		"interval":    p.Interval,
		"fromdate":    p.From.Format(apiTimeLayout),
		"todate":      p.To.Format(apiTimeLayout),
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("candle data: %w", err)
	}

	bars := make([]CandleBar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, row[0].String())
		if err != nil {
			return nil, fmt.Errorf("candle data: bad timestamp %q", row[0])
		}
		o, _ := row[1].Float64()
		h, _ := row[2].Float64()
		l, _ := row[3].Float64()
		cl, _ := row[4].Float64()
		v, _ := row[5].Int64()
		bars = append(bars, CandleBar{TS: ts, Open: o, High: h, Low: l, Close: cl, Volume: v})
	}
	return bars, nil
}

// ── Scrip search ──

// Scrip is one instrument returned by scrip search.
type Scrip struct {
	Exchange      string `json:"exchange"`
	TradingSymbol string `json:"tradingsymbol"`
	SymbolToken   string `json:"symboltoken"`
}

// SearchScrip finds instruments matching the query on an exchange.
func (c *Client) SearchScrip(ctx context.Context, exchange, query string) ([]Scrip, error) {
	var data []Scrip
	err := c.do(ctx, http.MethodPost, "api.search.scrip", map[string]string{
		"exchange":    exchange,
		"searchscrip": query,
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("search scrip %q: %w", query, err)
	}
	return data, nil
}

// ── Host identity headers ──

func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
				return ipNet.IP.String()
			}
		}
	}
	return "127.0.0.1"
}

func localMAC() string {
	ifs, _ := net.Interfaces()
	for _, ifc := range ifs {
		if len(ifc.HardwareAddr) > 0 {
			return ifc.HardwareAddr.String()
		}
	}
	return "00:11:22:33:44:55"
}

// FormatQty renders an order quantity for the API.
func FormatQty(qty int64) string {
	return strconv.FormatInt(qty, 10)
}

// FormatPrice renders a rupee price for the API with paisa precision.
func FormatPrice(rupees float64) string {
	return strconv.FormatFloat(rupees, 'f', 2, 64)
}
