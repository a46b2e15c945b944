package usecase

import (
	"context"
	"sync"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	applogger "TrendPulse/pkg/logger"
)

// TickerCache holds the latest observed price per panel symbol.
type TickerCache struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewTickerCache creates an empty ticker cache.
func NewTickerCache() *TickerCache {
	return &TickerCache{prices: make(map[string]float64)}
}

// Update records a price observation.
func (c *TickerCache) Update(symbol string, price float64) {
	c.mu.Lock()
	c.prices[symbol] = price
	c.mu.Unlock()
}

// Snapshot returns a copy of the current prices.
func (c *TickerCache) Snapshot() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]float64, len(c.prices))
	for k, v := range c.prices {
		out[k] = v
	}
	return out
}

// TickerCollector consumes the live price stream into the cache. It exists so
// cycle reports can show fresh panel prices without an extra REST round-trip.
type TickerCollector struct {
	stream  drepo.TickerStream
	cache   *TickerCache
	metrics drepo.Metrics
	logger  *applogger.Logger
}

// NewTickerCollector creates a new TickerCollector.
func NewTickerCollector(stream drepo.TickerStream, cache *TickerCache, metrics drepo.Metrics, logger *applogger.Logger) *TickerCollector {
	return &TickerCollector{stream: stream, cache: cache, metrics: metrics, logger: logger}
}

// Start connects the stream and consumes it until ctx is done.
func (c *TickerCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	ticks, errs := c.stream.Read(ctx)
	go c.consume(ctx, ticks, errs)
	return nil
}

func (c *TickerCollector) consume(ctx context.Context, ticks <-chan *models.Ticker, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errs:
			if err != nil {
				c.metrics.RecordError("stream")
				c.logger.Warn("ticker stream error, reconnecting", applogger.Error(err))
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.logger.Error("ticker stream reconnect failed", applogger.Error(rerr))
					return
				}
				ticks, errs = c.stream.Read(ctx)
			}
		case t := <-ticks:
			if t == nil {
				continue
			}
			c.cache.Update(t.Symbol, t.Price)
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

// Stop closes the stream.
func (c *TickerCollector) Stop() error { return c.stream.Close() }
