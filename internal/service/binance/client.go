package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/internal/service/ratelimit"
	xhttp "TrendPulse/pkg/http"
)

// leveraged tokens track multiples of the underlying and pollute a directional
// scan, so the universe listing drops them.
var leveragedSuffixes = []string{"UP", "DOWN", "BULL", "BEAR"}

// Client implements MarketData over the Binance spot REST API.
type Client struct {
	baseURL        string
	quoteAsset     string
	minQuoteVolume float64
	client         *xhttp.Client
	limiter        *ratelimit.Limiter
}

// New creates a Binance REST MarketData client.
func New(baseURL, quoteAsset string, minQuoteVolume float64, timeout time.Duration) drepo.MarketData {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		quoteAsset:     quoteAsset,
		minQuoteVolume: minQuoteVolume,
		client:         xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter:        ratelimit.New(),
	}
}

type ticker24h struct {
	Symbol      string `json:"symbol"`
	LastPrice   string `json:"lastPrice"`
	QuoteVolume string `json:"quoteVolume"`
	PriceChange string `json:"priceChangePercent"`
}

// ListSymbols returns the top instruments by 24h quote volume: quote-asset
// suffix match, leveraged tokens excluded, volume floor applied, sorted
// descending, capped at limit.
func (c *Client) ListSymbols(ctx context.Context, limit int) ([]models.SymbolInfo, error) {
	if !c.limiter.Allow("tickers", 2, 0.2) {
		return nil, fmt.Errorf("binance tickers: rate limited")
	}

	var tickers []ticker24h
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/ticker/24hr",
	}, &tickers)
	if err != nil {
		return nil, fmt.Errorf("binance tickers: %w", err)
	}

	out := make([]models.SymbolInfo, 0, limit)
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, c.quoteAsset) {
			continue
		}
		if isLeveraged(t.Symbol, c.quoteAsset) {
			continue
		}
		qv, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil || qv < c.minQuoteVolume {
			continue
		}
		price, _ := strconv.ParseFloat(t.LastPrice, 64)
		chg, _ := strconv.ParseFloat(t.PriceChange, 64)
		out = append(out, models.SymbolInfo{
			Symbol:      t.Symbol,
			LastPrice:   price,
			QuoteVolume: qv,
			ChangePct:   chg,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuoteVolume > out[j].QuoteVolume })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetCandles fetches up to limit klines for one symbol, oldest first.
func (c *Client) GetCandles(ctx context.Context, symbol string, interval drepo.Interval, limit int) ([]models.Candle, error) {
	if !c.limiter.Allow("klines", 20, 10) {
		return nil, fmt.Errorf("binance klines %s: rate limited", symbol)
	}

	var raw []json.RawMessage
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {string(interval)},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, row := range raw {
		candle, err := parseKline(row)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

type depthPayload struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// GetOrderBook fetches top-of-book depth for one symbol.
func (c *Client) GetOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	if !c.limiter.Allow("depth", 20, 10) {
		return nil, fmt.Errorf("binance depth %s: rate limited", symbol)
	}

	var payload depthPayload
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/depth",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"limit":  {strconv.Itoa(depth)},
		},
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("binance depth %s: %w", symbol, err)
	}

	book := &models.OrderBook{Symbol: symbol}
	for _, lvl := range payload.Bids {
		if l, ok := parseLevel(lvl); ok {
			book.Bids = append(book.Bids, l)
		}
	}
	for _, lvl := range payload.Asks {
		if l, ok := parseLevel(lvl); ok {
			book.Asks = append(book.Asks, l)
		}
	}
	return book, nil
}

// parseKline decodes one kline row. Binance encodes the row as a mixed array:
// numbers for timestamps, strings for prices and volumes.
func parseKline(row json.RawMessage) (models.Candle, error) {
	var fields []interface{}
	if err := json.Unmarshal(row, &fields); err != nil {
		return models.Candle{}, fmt.Errorf("decode kline: %w", err)
	}
	if len(fields) < 6 {
		return models.Candle{}, fmt.Errorf("kline row too short: %d fields", len(fields))
	}

	openTime, ok := fields[0].(float64)
	if !ok {
		return models.Candle{}, fmt.Errorf("kline open time not numeric")
	}

	vals := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := fields[i].(string)
		if !ok {
			return models.Candle{}, fmt.Errorf("kline field %d not a string", i)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		vals[i-1] = v
	}

	return models.Candle{
		OpenTime: time.UnixMilli(int64(openTime)),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

func parseLevel(lvl []string) (models.BookLevel, bool) {
	if len(lvl) < 2 {
		return models.BookLevel{}, false
	}
	price, err1 := strconv.ParseFloat(lvl[0], 64)
	size, err2 := strconv.ParseFloat(lvl[1], 64)
	if err1 != nil || err2 != nil {
		return models.BookLevel{}, false
	}
	return models.BookLevel{Price: price, Size: size}, true
}

func isLeveraged(symbol, quote string) bool {
	base := strings.TrimSuffix(symbol, quote)
	for _, suf := range leveragedSuffixes {
		if strings.HasSuffix(base, suf) {
			return true
		}
	}
	return false
}
