package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	icache "TrendPulse/internal/service/cache"
	"TrendPulse/internal/services/analytics"
	"TrendPulse/internal/services/indicators"
	"TrendPulse/pkg/config"
	applogger "TrendPulse/pkg/logger"
	"TrendPulse/pkg/pool"
)

// minScanHistory is the lookback window an instrument must fill before it can
// be scanned at all.
const minScanHistory = 200

// recentChangeWindow is the trailing span for the report's price-change percent.
const recentChangeWindow = 5

const universeCacheKey = "universe"
const universeCacheTTL = 10 * time.Minute

// ErrCycleRunning is returned when a trigger arrives while a cycle is active.
var ErrCycleRunning = errors.New("scan cycle already running")

// Scanner owns the process-scoped model state and drives scan cycles: a
// sequential learning pass over the panel, a wholesale model replacement, then
// a bounded-concurrency sweep over the universe.
type Scanner struct {
	cfg       *config.Config
	market    drepo.MarketData
	store     drepo.ModelStore
	history   drepo.HistoryStore
	publisher drepo.SignalPublisher
	notifier  drepo.Notifier
	metrics   drepo.Metrics
	logger    *applogger.Logger
	universe  *icache.TTLCache
	prices    *TickerCache

	running atomic.Bool

	mu    sync.RWMutex
	model models.ModelState
}

// NewScanner creates a Scanner. history, publisher, notifier and prices may be
// nil when the corresponding backend is disabled.
func NewScanner(
	cfg *config.Config,
	market drepo.MarketData,
	store drepo.ModelStore,
	history drepo.HistoryStore,
	publisher drepo.SignalPublisher,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	prices *TickerCache,
) *Scanner {
	return &Scanner{
		cfg:       cfg,
		market:    market,
		store:     store,
		history:   history,
		publisher: publisher,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		universe:  icache.NewTTLCache(),
		prices:    prices,
	}
}

// LoadModel primes the in-memory model from the store, falling back to the
// hardcoded defaults when nothing was persisted yet.
func (s *Scanner) LoadModel(ctx context.Context) error {
	state, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, drepo.ErrNotFound) {
			s.mu.Lock()
			s.model = models.DefaultModelState()
			s.mu.Unlock()
			s.logger.Info("no persisted model, using defaults")
			return nil
		}
		return fmt.Errorf("load model: %w", err)
	}
	s.mu.Lock()
	s.model = state
	s.mu.Unlock()
	s.logger.Info("model loaded",
		applogger.String("accuracy", state.Accuracy),
		applogger.Any("weights", state.Weights),
	)
	return nil
}

// Interval returns the configured candle interval, normalized.
func (s *Scanner) Interval() drepo.Interval {
	return drepo.NormalizeInterval(s.cfg.Binance.Interval)
}

// Model returns a copy of the current model state.
func (s *Scanner) Model() models.ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// LastReport returns the most recent cycle report from the store.
func (s *Scanner) LastReport(ctx context.Context) (*models.CycleReport, error) {
	return s.store.LoadResults(ctx)
}

// PingStore checks the persistence collaborator.
func (s *Scanner) PingStore(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// TryStartCycle schedules one cycle in the background. Exactly one cycle may
// run at a time; an overlapping trigger gets ErrCycleRunning.
func (s *Scanner) TryStartCycle(ctx context.Context, limit int, notify bool) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrCycleRunning
	}
	go func() {
		defer s.running.Store(false)
		s.runCycle(context.WithoutCancel(ctx), limit, notify)
	}()
	return nil
}

// IsRunning reports whether a cycle is currently active.
func (s *Scanner) IsRunning() bool {
	return s.running.Load()
}

func (s *Scanner) runCycle(ctx context.Context, limit int, notify bool) {
	start := time.Now()
	interval := drepo.NormalizeInterval(s.cfg.Binance.Interval)

	symbols, err := s.listUniverse(ctx, limit)
	if err != nil {
		// Nothing to scan without a universe: the whole cycle aborts.
		s.logger.Error("universe listing failed, aborting cycle", applogger.Error(err))
		s.metrics.RecordError("universe")
		s.metrics.RecordCycle("aborted", time.Since(start).Seconds())
		return
	}

	// Phase 1: sequential learning over the panel against one shared snapshot.
	snapshot := s.Model().Weights
	outcomes := make([]models.LearningOutcome, 0, len(s.cfg.Scan.PanelSymbols))
	learnCfg := analytics.LearnerConfig{
		TradeCount: s.cfg.Scan.Learning.TradeCount,
		Lookahead:  s.cfg.Scan.Learning.Lookahead,
		Rate:       s.cfg.Scan.Learning.Rate,
	}
	for _, symbol := range s.cfg.Scan.PanelSymbols {
		candles, err := s.market.GetCandles(ctx, symbol, interval, s.cfg.Binance.CandleLimit)
		if err != nil {
			s.logger.Warn("panel fetch failed", applogger.String("symbol", symbol), applogger.Error(err))
			s.metrics.RecordError("panel_fetch")
			continue
		}
		outcome := analytics.Learn(symbol, candles, snapshot, learnCfg)
		if !outcome.AccuracyOK {
			s.logger.Warn("panel symbol lacks history", applogger.String("symbol", symbol))
			continue
		}
		outcomes = append(outcomes, outcome)
	}

	weights, accuracy, ok := analytics.Aggregate(outcomes, snapshot)
	model := s.Model()
	if ok {
		model = models.ModelState{
			Weights:   weights,
			Accuracy:  fmt.Sprintf("%.1f", accuracy),
			UpdatedAt: time.Now().UTC(),
		}
		// Replace wholesale before the sweep starts; sweep readers never race
		// the writer.
		s.mu.Lock()
		s.model = model
		s.mu.Unlock()

		s.metrics.RecordAccuracy(accuracy)
		if err := s.store.Save(ctx, model); err != nil {
			// In-memory state stays authoritative for this process lifetime.
			s.logger.Error("model persist failed", applogger.Error(err))
			s.metrics.RecordError("persist")
		}
	} else {
		s.logger.Warn("learning panel produced no usable outcome, keeping weights")
	}

	// Phase 2: bounded-concurrency sweep with the updated snapshot.
	sweepWeights := model.Weights
	tasks := make([]pool.Task[models.ScanResult], len(symbols))
	for i, info := range symbols {
		symbol := info.Symbol
		tasks[i] = func(ctx context.Context) (*models.ScanResult, error) {
			evalStart := time.Now()
			res, err := s.evaluate(ctx, symbol, interval, sweepWeights)
			s.metrics.RecordEvaluation(time.Since(evalStart).Seconds())
			return res, err
		}
	}
	results := pool.Run(ctx, s.cfg.Scan.Concurrency, tasks, func(idx int, err error) {
		s.logger.Debug("evaluation dropped",
			applogger.String("symbol", symbols[idx].Symbol),
			applogger.Error(err),
		)
		s.metrics.RecordError("evaluate")
	})

	ranked := rankResults(results)
	s.metrics.RecordQualified(len(ranked))

	report := &models.CycleReport{
		StartedAt: start.UTC(),
		Duration:  time.Since(start).Round(time.Millisecond).String(),
		Universe:  len(symbols),
		Evaluated: len(symbols),
		Qualified: len(ranked),
		Model:     model,
		Results:   ranked,
	}

	s.publishReport(ctx, report, notify)
	s.metrics.RecordCycle("ok", time.Since(start).Seconds())
	s.logger.Info("cycle complete",
		applogger.Int("universe", len(symbols)),
		applogger.Int("qualified", len(ranked)),
		applogger.String("duration", report.Duration),
	)
}

// listUniverse returns the instrument universe, served from the TTL cache when
// a recent listing exists.
func (s *Scanner) listUniverse(ctx context.Context, limit int) ([]models.SymbolInfo, error) {
	if v, ok := s.universe.Get(universeCacheKey); ok {
		if symbols, ok := v.([]models.SymbolInfo); ok && len(symbols) > 0 {
			if limit > 0 && len(symbols) > limit {
				return symbols[:limit], nil
			}
			return symbols, nil
		}
	}
	symbols, err := s.market.ListSymbols(ctx, s.cfg.Binance.MaxSymbols)
	if err != nil {
		return nil, err
	}
	s.universe.Set(universeCacheKey, symbols, universeCacheTTL)
	if limit > 0 && len(symbols) > limit {
		symbols = symbols[:limit]
	}
	return symbols, nil
}

// evaluate runs one instrument through the prediction engine. A nil result
// with nil error means the instrument did not qualify.
func (s *Scanner) evaluate(ctx context.Context, symbol string, interval drepo.Interval, weights models.WeightVector) (*models.ScanResult, error) {
	candles, err := s.market.GetCandles(ctx, symbol, interval, s.cfg.Binance.CandleLimit)
	if err != nil {
		return nil, err
	}
	if len(candles) < minScanHistory {
		return nil, fmt.Errorf("insufficient history for %s: %d candles", symbol, len(candles))
	}

	book, err := s.market.GetOrderBook(ctx, symbol, s.cfg.Binance.BookDepth)
	if err != nil {
		// A missing book degrades to the neutral reading rather than dropping
		// the instrument.
		book = nil
	}
	obi := indicators.BookImbalance(book)

	readings := analytics.ComputeReadings(candles, obi)
	pred := analytics.Predict(readings, weights)
	if pred.Confidence < s.cfg.Scan.MinConfidence {
		return nil, nil
	}

	lastCandle := candles[len(candles)-1]
	atr := indicators.ATR(candles, analytics.ATRWindow)
	atrNow := atr[len(atr)-1]
	if atrNow <= 0 || math.Abs(lastCandle.Close-lastCandle.Open)/atrNow <= s.cfg.Scan.VolatilityGate {
		return nil, nil
	}

	base := candles[len(candles)-1-recentChangeWindow].Close
	changePct := 0.0
	if base > 0 {
		changePct = (lastCandle.Close - base) / base * 100
	}

	return &models.ScanResult{
		Symbol:        symbol,
		Score:         pred.Score,
		Confidence:    pred.Confidence,
		Direction:     pred.Direction,
		ChangePct:     changePct,
		ATR:           atrNow,
		BookImbalance: obi,
		LastPrice:     lastCandle.Close,
	}, nil
}

// publishReport fans the report out to the store, history, Kafka and the
// notifier. All failures are logged and swallowed.
func (s *Scanner) publishReport(ctx context.Context, report *models.CycleReport, notify bool) {
	if err := s.store.SaveResults(ctx, report); err != nil {
		s.logger.Warn("results cache failed", applogger.Error(err))
		s.metrics.RecordError("results_cache")
	}
	if s.history != nil {
		if err := s.history.StoreCycle(ctx, report); err != nil {
			s.logger.Warn("history store failed", applogger.Error(err))
			s.metrics.RecordError("history")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishResults(ctx, report.Results); err != nil {
			s.logger.Warn("signal publish failed", applogger.Error(err))
			s.metrics.RecordError("publish")
		}
	}
	if notify && s.notifier != nil {
		text := FormatReport(report, s.panelPrices(), s.cfg.Scan.TopResults)
		if err := s.notifier.Send(ctx, text); err != nil {
			s.logger.Warn("notification failed", applogger.Error(err))
			s.metrics.RecordError("notify")
		}
	}
}

func (s *Scanner) panelPrices() map[string]float64 {
	if s.prices == nil {
		return nil
	}
	return s.prices.Snapshot()
}

// rankResults orders qualifying results by confidence, breaking ties by score
// magnitude, then symbol for determinism.
func rankResults(results []*models.ScanResult) []models.ScanResult {
	out := make([]models.ScanResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		si, sj := abs(out[i].Score), abs(out[j].Score)
		if si != sj {
			return si > sj
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
