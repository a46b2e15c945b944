package repository

import (
	"context"
	"errors"
	"time"

	"TrendPulse/internal/domain/models"
)

// ErrNotFound is returned by stores when no record exists.
var ErrNotFound = errors.New("repository: not found")

// MarketData provides candle, depth and universe access. Every call may fail
// with a transport error; callers treat that as "no data for this instrument
// this cycle".
type MarketData interface {
	ListSymbols(ctx context.Context, limit int) ([]models.SymbolInfo, error)
	GetCandles(ctx context.Context, symbol string, interval Interval, limit int) ([]models.Candle, error)
	GetOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error)
}

// ModelStore persists the learned model state between cycles, plus the last
// cycle's report for the results endpoint.
type ModelStore interface {
	Load(ctx context.Context) (models.ModelState, error)
	Save(ctx context.Context, state models.ModelState) error
	SaveResults(ctx context.Context, report *models.CycleReport) error
	LoadResults(ctx context.Context) (*models.CycleReport, error)
	Ping(ctx context.Context) error
}

// HistoryStore records qualifying scan results for offline analysis.
type HistoryStore interface {
	StoreCycle(ctx context.Context, report *models.CycleReport) error
	QueryRange(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.HistoryEntry, error)
	Health(ctx context.Context) error
}

// SignalPublisher pushes qualifying results to downstream consumers.
type SignalPublisher interface {
	PublishResults(ctx context.Context, results []models.ScanResult) error
	Close() error
}

// Notifier delivers one formatted text report. Fire-and-forget.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// TickerStream is a live last-price feed for a small set of symbols.
type TickerStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Ticker, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational measurements.
type Metrics interface {
	RecordCycle(outcome string, seconds float64)
	RecordEvaluation(seconds float64)
	RecordQualified(n int)
	RecordError(kind string)
	RecordAccuracy(pct float64)
	RecordLastPrice(symbol string, price float64)
}
