package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	drepo "TrendPulse/internal/domain/repository"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v3/ticker/24hr", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","lastPrice":"50000","quoteVolume":"9000000","priceChangePercent":"1.5"},
			{"symbol":"ETHUSDT","lastPrice":"3000","quoteVolume":"8000000","priceChangePercent":"-0.5"},
			{"symbol":"ETHBTC","lastPrice":"0.06","quoteVolume":"9999999","priceChangePercent":"0.1"},
			{"symbol":"BTCUPUSDT","lastPrice":"12","quoteVolume":"7000000","priceChangePercent":"3.0"},
			{"symbol":"TINYUSDT","lastPrice":"0.01","quoteVolume":"1000","priceChangePercent":"0.0"}
		]`))
	})

	mux.HandleFunc("/api/v3/klines", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		require.Equal(t, "15m", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`[
			[1700000000000,"100.0","110.0","95.0","105.0","1234.5",1700000899999,"0",10,"0","0","0"],
			[1700000900000,"105.0","112.0","104.0","111.0","2345.6",1700001799999,"0",12,"0","0","0"]
		]`))
	})

	mux.HandleFunc("/api/v3/depth", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"bids":[["100.0","2.0"],["99.5","1.0"]],
			"asks":[["100.5","1.5"],["bad","x"]]
		}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListSymbolsFiltersAndSorts(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "USDT", 3_000_000, time.Second)

	out, err := c.ListSymbols(context.Background(), 120)
	require.NoError(t, err)

	// ETHBTC (wrong quote), BTCUPUSDT (leveraged) and TINYUSDT (volume floor)
	// are all gone; the rest are sorted by quote volume descending.
	require.Len(t, out, 2)
	require.Equal(t, "BTCUSDT", out[0].Symbol)
	require.Equal(t, "ETHUSDT", out[1].Symbol)
	require.Equal(t, 50000.0, out[0].LastPrice)
	require.Equal(t, 1.5, out[0].ChangePct)
}

func TestListSymbolsHonorsLimit(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "USDT", 3_000_000, time.Second)

	out, err := c.ListSymbols(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "BTCUSDT", out[0].Symbol)
}

func TestGetCandlesParsesMixedArrays(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "USDT", 0, time.Second)

	candles, err := c.GetCandles(context.Background(), "BTCUSDT", drepo.Interval15m, 2)
	require.NoError(t, err)
	require.Len(t, candles, 2)

	first := candles[0]
	require.Equal(t, time.UnixMilli(1700000000000), first.OpenTime)
	require.Equal(t, 100.0, first.Open)
	require.Equal(t, 110.0, first.High)
	require.Equal(t, 95.0, first.Low)
	require.Equal(t, 105.0, first.Close)
	require.Equal(t, 1234.5, first.Volume)
}

func TestGetOrderBookDropsMalformedLevels(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "USDT", 0, time.Second)

	book, err := c.GetOrderBook(context.Background(), "BTCUSDT", 5)
	require.NoError(t, err)
	require.Equal(t, "BTCUSDT", book.Symbol)
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 1)
	require.Equal(t, 100.0, book.Bids[0].Price)
	require.Equal(t, 2.0, book.Bids[0].Size)
}

func TestParseKlineRejectsShortRows(t *testing.T) {
	_, err := parseKline(json.RawMessage(`[1700000000000,"1","2"]`))
	require.Error(t, err)
}

func TestIsLeveraged(t *testing.T) {
	require.True(t, isLeveraged("BTCUPUSDT", "USDT"))
	require.True(t, isLeveraged("ETHDOWNUSDT", "USDT"))
	require.True(t, isLeveraged("XBULLUSDT", "USDT"))
	require.False(t, isLeveraged("BTCUSDT", "USDT"))
	// SUPER contains no leveraged suffix at the end of the base.
	require.False(t, isLeveraged("SUPERUSDT", "USDT"))
}
