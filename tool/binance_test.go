package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBinanceTestServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/api/v3/ticker/price":
			json.NewEncoder(w).Encode(map[string]string{
				"symbol": r.URL.Query().Get("symbol"),
				"price":  "50000.00",
			})
		case "/api/v3/ticker/24hr":
			json.NewEncoder(w).Encode(map[string]any{
				"symbol":             r.URL.Query().Get("symbol"),
				"priceChange":        "1200.50",
				"priceChangePercent": "2.46",
				"highPrice":          "51000.00",
				"lowPrice":           "48500.00",
				"volume":             "12345.6",
				"quoteVolume":        "610000000.0",
				"openPrice":          "48799.50",
				"prevClosePrice":     "48800.00",
				"bidPrice":           "49999.00",
				"askPrice":           "50001.00",
				"closeTime":          int64(1700000000000),
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestBinanceToolReturnsQuote(t *testing.T) {
	var requests atomic.Int64
	srv := newBinanceTestServer(t, &requests)
	defer srv.Close()

	tool := NewBinanceTool(func(o *BinanceOptions) { o.BaseURL = srv.URL })
	out, err := tool.Call(context.Background(), map[string]any{"symbol": "btcusdt"})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))

	assert.Equal(t, "BTCUSDT", payload["symbol"])
	assert.Equal(t, 50000.0, payload["current_price"])
	assert.Equal(t, 2.46, payload["price_change_percent_24h"])
	assert.Equal(t, "up", payload["trend"])
	assert.Equal(t, "binance", payload["data_source"])
	assert.Equal(t, float64(1700000000000), payload["timestamp"])
	assert.EqualValues(t, 2, requests.Load())
}

func TestBinanceToolRejectsShortSymbolWithoutRequest(t *testing.T) {
	var requests atomic.Int64
	srv := newBinanceTestServer(t, &requests)
	defer srv.Close()

	tool := NewBinanceTool(func(o *BinanceOptions) { o.BaseURL = srv.URL })
	out, err := tool.Call(context.Background(), map[string]any{"symbol": "BTC"})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))

	assert.Equal(t, true, payload["error"])
	assert.Contains(t, payload["message"], "invalid symbol format")
	assert.Zero(t, requests.Load(), "validation failures must not hit the network")
}

func TestBinanceToolRejectsNonAlphanumericSymbol(t *testing.T) {
	var requests atomic.Int64
	srv := newBinanceTestServer(t, &requests)
	defer srv.Close()

	tool := NewBinanceTool(func(o *BinanceOptions) { o.BaseURL = srv.URL })
	out, err := tool.Call(context.Background(), map[string]any{"symbol": "BTC/USDT"})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, true, payload["error"])
	assert.Zero(t, requests.Load())
}

func TestBinanceToolReportsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tool := NewBinanceTool(func(o *BinanceOptions) { o.BaseURL = srv.URL })
	out, err := tool.Call(context.Background(), map[string]any{"symbol": "FAKEPAIR"})
	require.NoError(t, err, "upstream faults are data, not errors")

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, true, payload["error"])
	assert.Contains(t, payload["message"], "failed to retrieve price data")
}

func TestBinanceToolDownTrend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/ticker/price":
			json.NewEncoder(w).Encode(map[string]string{"symbol": "ETHUSDT", "price": "3000"})
		default:
			json.NewEncoder(w).Encode(map[string]any{"priceChangePercent": "-1.5", "closeTime": int64(1)})
		}
	}))
	defer srv.Close()

	tool := NewBinanceTool(func(o *BinanceOptions) { o.BaseURL = srv.URL })
	out, err := tool.Call(context.Background(), map[string]any{"symbol": "ETHUSDT"})
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "down", payload["trend"])
}

func TestSignMatchesBinanceReference(t *testing.T) {
	// Reference vector from the Binance API documentation.
	query := "symbol=LTCBTC&side=BUY&type=LIMIT&timeInForce=GTC&quantity=1&price=0.1&recvWindow=5000&timestamp=1499827319559"
	secret := "NhqPtmdSJYdKjVHjA7PZj4Mge3R5YNiP1e3UZjInClVN65XAbvqqM6A7H5fATj0j"
	assert.Equal(t,
		"c8db56825ae71d6d79447849e617115f4a920fa2acdcab2b053c4b2838bd6b71",
		sign(query, secret),
	)
}
