package tool

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/neilh44/cryptobot/internal/schema"
)

const (
	binanceToolName = "get_crypto_price"

	binanceDescription = `Get current live price and market information for a cryptocurrency
trading pair from Binance. Input is a symbol like BTCUSDT, ETHUSDT or ADAUSDT.
Use this for any question about current prices, 24h change, volume or trend.`
)

// BinanceOptions configure the market-data tool.
type BinanceOptions struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// BinanceTool retrieves spot price and 24h statistics from the Binance public
// API. Upstream faults (timeout, rate limit, invalid symbol) are reported as a
// structured error payload in the returned content; Call itself only errors on
// internal marshaling problems.
type BinanceTool struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
}

// NewBinanceTool creates the market-data tool with a 10s request timeout by
// default.
func NewBinanceTool(optFns ...func(o *BinanceOptions)) *BinanceTool {
	opts := BinanceOptions{
		BaseURL: "https://api.binance.com",
		Timeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &BinanceTool{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		apiSecret: opts.APISecret,
		client:    client,
	}
}

// Name implements Tool.
func (t *BinanceTool) Name() string { return binanceToolName }

// Description implements Tool.
func (t *BinanceTool) Description() string { return binanceDescription }

// Parameters implements Tool.
func (t *BinanceTool) Parameters() map[string]any {
	return schema.Object(map[string]any{
		"symbol": schema.String("Trading pair symbol like BTCUSDT or ETHUSDT"),
	}, "symbol")
}

// quotePayload is the success payload handed back to the model.
type quotePayload struct {
	Symbol             string  `json:"symbol"`
	CurrentPrice       float64 `json:"current_price"`
	PriceChange24h     float64 `json:"price_change_24h"`
	PriceChangePct24h  float64 `json:"price_change_percent_24h"`
	High24h            float64 `json:"high_24h"`
	Low24h             float64 `json:"low_24h"`
	Volume24h          float64 `json:"volume_24h"`
	QuoteVolume24h     float64 `json:"quote_volume_24h"`
	OpenPrice          float64 `json:"open_price"`
	PrevClosePrice     float64 `json:"prev_close_price"`
	BidPrice           float64 `json:"bid_price"`
	AskPrice           float64 `json:"ask_price"`
	TimestampMs        int64   `json:"timestamp"`
	Trend              string  `json:"trend"`
	DataSource         string  `json:"data_source"`
	LastUpdated        string  `json:"last_updated"`
}

type quoteErrorPayload struct {
	Error       bool   `json:"error"`
	Message     string `json:"message"`
	Symbol      string `json:"symbol"`
	DataSource  string `json:"data_source"`
	TimestampMs int64  `json:"timestamp"`
}

// Call fetches the current price and 24h statistics for the requested symbol.
func (t *BinanceTool) Call(ctx context.Context, args map[string]any) (string, error) {
	symbol, _ := args["symbol"].(string)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	// Reject malformed symbols before touching the network.
	if err := validateSymbol(symbol); err != nil {
		return t.errorPayload(symbol, err.Error())
	}

	price, err := t.tickerPrice(ctx, symbol)
	if err != nil {
		return t.errorPayload(symbol, fmt.Sprintf("failed to retrieve price data: %v", err))
	}

	stats, err := t.ticker24h(ctx, symbol)
	if err != nil {
		return t.errorPayload(symbol, fmt.Sprintf("failed to retrieve 24h statistics: %v", err))
	}

	changePct := parseFloat(stats.PriceChangePercent)
	trend := "flat"
	switch {
	case changePct > 0:
		trend = "up"
	case changePct < 0:
		trend = "down"
	}

	timestamp := stats.CloseTime
	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}

	payload := quotePayload{
		Symbol:            symbol,
		CurrentPrice:      parseFloat(price.Price),
		PriceChange24h:    parseFloat(stats.PriceChange),
		PriceChangePct24h: changePct,
		High24h:           parseFloat(stats.HighPrice),
		Low24h:            parseFloat(stats.LowPrice),
		Volume24h:         parseFloat(stats.Volume),
		QuoteVolume24h:    parseFloat(stats.QuoteVolume),
		OpenPrice:         parseFloat(stats.OpenPrice),
		PrevClosePrice:    parseFloat(stats.PrevClosePrice),
		BidPrice:          parseFloat(stats.BidPrice),
		AskPrice:          parseFloat(stats.AskPrice),
		TimestampMs:       timestamp,
		Trend:             trend,
		DataSource:        "binance",
		LastUpdated:       time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal quote payload: %w", err)
	}
	return string(out), nil
}

func (t *BinanceTool) errorPayload(symbol, message string) (string, error) {
	out, err := json.Marshal(quoteErrorPayload{
		Error:       true,
		Message:     message,
		Symbol:      symbol,
		DataSource:  "binance",
		TimestampMs: time.Now().UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal error payload: %w", err)
	}
	return string(out), nil
}

// validateSymbol enforces the minimal trading-pair shape (BTCUSDT style).
func validateSymbol(symbol string) error {
	if len(symbol) < 6 {
		return fmt.Errorf("invalid symbol format %q: use a pair like BTCUSDT", symbol)
	}
	for _, r := range symbol {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("invalid symbol format %q: only letters and digits allowed", symbol)
		}
	}
	return nil
}

type tickerPriceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type ticker24hResponse struct {
	Symbol             string `json:"symbol"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
	OpenPrice          string `json:"openPrice"`
	PrevClosePrice     string `json:"prevClosePrice"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
	CloseTime          int64  `json:"closeTime"`
}

func (t *BinanceTool) tickerPrice(ctx context.Context, symbol string) (*tickerPriceResponse, error) {
	var resp tickerPriceResponse
	query := url.Values{"symbol": {symbol}}
	if err := t.getJSON(ctx, "/api/v3/ticker/price", query, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *BinanceTool) ticker24h(ctx context.Context, symbol string) (*ticker24hResponse, error) {
	var resp ticker24hResponse
	query := url.Values{"symbol": {symbol}}
	if err := t.getJSON(ctx, "/api/v3/ticker/24hr", query, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// getJSON performs a GET against the Binance API. Signed requests get a
// timestamp plus an HMAC-SHA256 signature over the query string, per the
// Binance authenticated endpoint contract.
func (t *BinanceTool) getJSON(ctx context.Context, path string, query url.Values, signed bool, v any) error {
	if signed {
		if t.apiSecret == "" {
			return fmt.Errorf("api secret required for signed request")
		}
		query.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		query.Set("signature", sign(query.Encode(), t.apiSecret))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if t.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", t.apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("invalid symbol or parameters: %s", strings.TrimSpace(string(body)))
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("rate limit exceeded")
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("http error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid json response: %w", err)
	}
	return nil
}

// sign computes the hex HMAC-SHA256 signature Binance expects on signed
// endpoints.
func sign(queryString, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(queryString))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
