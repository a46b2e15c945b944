package models

import "time"

// Candle represents one OHLCV bar at a fixed interval, oldest-first in slices.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// BookLevel is one resting price level of an order book side.
type BookLevel struct {
	Price float64
	Size  float64
}

// OrderBook holds top-of-book depth for one symbol. Bids and asks are ordered
// nearest-to-touch first.
type OrderBook struct {
	Symbol string
	Bids   []BookLevel
	Asks   []BookLevel
}

// Ticker is one live price observation from the stream.
type Ticker struct {
	Symbol    string
	Price     float64
	Timestamp int64 // unix ms
}

// SymbolInfo is one tradable instrument from the universe listing.
type SymbolInfo struct {
	Symbol      string
	LastPrice   float64
	QuoteVolume float64
	ChangePct   float64
}
