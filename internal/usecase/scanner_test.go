package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/config"
	applogger "TrendPulse/pkg/logger"

	"github.com/stretchr/testify/require"
)

type fakeMarket struct {
	symbols   []models.SymbolInfo
	listErr   error
	candleErr map[string]error
	book      *models.OrderBook
	candles   func(symbol string) []models.Candle
}

func (m *fakeMarket) ListSymbols(ctx context.Context, limit int) ([]models.SymbolInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit > 0 && len(m.symbols) > limit {
		return m.symbols[:limit], nil
	}
	return m.symbols, nil
}

func (m *fakeMarket) GetCandles(ctx context.Context, symbol string, interval drepo.Interval, limit int) ([]models.Candle, error) {
	if err := m.candleErr[symbol]; err != nil {
		return nil, err
	}
	return m.candles(symbol), nil
}

func (m *fakeMarket) GetOrderBook(ctx context.Context, symbol string, depth int) (*models.OrderBook, error) {
	if m.book == nil {
		return nil, errors.New("no depth")
	}
	return m.book, nil
}

type fakeStore struct {
	state      *models.ModelState
	report     *models.CycleReport
	pingErr    error
	saveCalled int
}

func (s *fakeStore) Load(ctx context.Context) (models.ModelState, error) {
	if s.state == nil {
		return models.ModelState{}, drepo.ErrNotFound
	}
	return *s.state, nil
}

func (s *fakeStore) Save(ctx context.Context, state models.ModelState) error {
	s.state = &state
	s.saveCalled++
	return nil
}

func (s *fakeStore) SaveResults(ctx context.Context, report *models.CycleReport) error {
	s.report = report
	return nil
}

func (s *fakeStore) LoadResults(ctx context.Context) (*models.CycleReport, error) {
	if s.report == nil {
		return nil, drepo.ErrNotFound
	}
	return s.report, nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return s.pingErr }

type noopMetrics struct{}

func (noopMetrics) RecordCycle(string, float64)     {}
func (noopMetrics) RecordEvaluation(float64)        {}
func (noopMetrics) RecordQualified(int)             {}
func (noopMetrics) RecordError(string)              {}
func (noopMetrics) RecordAccuracy(float64)          {}
func (noopMetrics) RecordLastPrice(string, float64) {}

// uptrend builds a steady 1% per candle climb with growing volume. Shape is
// chosen so both the confidence gate and the ATR volatility gate pass.
func uptrend(n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 100.0
	for i := range out {
		open := price
		close := open * 1.01
		out[i] = models.Candle{
			OpenTime: time.Unix(int64(i)*900, 0),
			Open:     open,
			High:     close * 1.001,
			Low:      open * 0.999,
			Close:    close,
			Volume:   1000 + float64(i)*10,
		}
		price = close
	}
	return out
}

func bidHeavyBook() *models.OrderBook {
	return &models.OrderBook{
		Bids: []models.BookLevel{{Price: 100, Size: 10}, {Price: 99, Size: 10}},
		Asks: []models.BookLevel{{Price: 101, Size: 1}, {Price: 102, Size: 1}},
	}
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Binance.Interval = "15m"
	cfg.Binance.CandleLimit = 210
	cfg.Binance.BookDepth = 10
	cfg.Binance.MaxSymbols = 120
	cfg.Scan.Concurrency = 4
	cfg.Scan.MinConfidence = 50
	cfg.Scan.VolatilityGate = 0.5
	cfg.Scan.TopResults = 10
	cfg.Scan.PanelSymbols = []string{"BTCUSDT"}
	cfg.Scan.Learning.TradeCount = 30
	cfg.Scan.Learning.Lookahead = 5
	cfg.Scan.Learning.Rate = 2
	return cfg
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	return l
}

func newTestScanner(t *testing.T, market *fakeMarket, store *fakeStore) *Scanner {
	t.Helper()
	return NewScanner(testConfig(), market, store, nil, nil, nil, noopMetrics{}, testLogger(t), nil)
}

func TestRunCycleEndToEnd(t *testing.T) {
	market := &fakeMarket{
		symbols: []models.SymbolInfo{
			{Symbol: "AUSDT", QuoteVolume: 9e6},
			{Symbol: "BUSDT", QuoteVolume: 8e6},
			{Symbol: "CUSDT", QuoteVolume: 7e6},
		},
		book:    bidHeavyBook(),
		candles: func(string) []models.Candle { return uptrend(210) },
	}
	store := &fakeStore{}
	s := newTestScanner(t, market, store)
	require.NoError(t, s.LoadModel(context.Background()))

	s.runCycle(context.Background(), 0, false)

	// Learning replaced and persisted the model.
	require.Equal(t, 1, store.saveCalled)
	require.Equal(t, models.AdjustableBudget, store.state.Weights.Sum())
	require.Equal(t, store.state.Weights, s.Model().Weights)

	// Every instrument in a strong uptrend with a bid-heavy book qualifies.
	require.NotNil(t, store.report)
	require.Equal(t, 3, store.report.Universe)
	require.Equal(t, 3, store.report.Qualified)
	for _, r := range store.report.Results {
		require.Equal(t, models.DirectionUp, r.Direction)
		require.GreaterOrEqual(t, r.Confidence, 50)
		require.Greater(t, r.ChangePct, 0.0)
	}

	// Ranking is confidence-descending.
	for i := 1; i < len(store.report.Results); i++ {
		require.GreaterOrEqual(t, store.report.Results[i-1].Confidence, store.report.Results[i].Confidence)
	}
}

func TestRunCycleAbortsWhenUniverseFails(t *testing.T) {
	market := &fakeMarket{listErr: errors.New("binance down")}
	store := &fakeStore{}
	s := newTestScanner(t, market, store)
	require.NoError(t, s.LoadModel(context.Background()))

	s.runCycle(context.Background(), 0, false)

	require.Nil(t, store.report)
	require.Zero(t, store.saveCalled)
}

func TestRunCycleKeepsWeightsWhenPanelFails(t *testing.T) {
	market := &fakeMarket{
		symbols:   []models.SymbolInfo{{Symbol: "AUSDT"}},
		candleErr: map[string]error{"BTCUSDT": errors.New("panel fetch refused")},
		book:      bidHeavyBook(),
		candles:   func(string) []models.Candle { return uptrend(210) },
	}
	store := &fakeStore{}
	s := newTestScanner(t, market, store)
	require.NoError(t, s.LoadModel(context.Background()))

	s.runCycle(context.Background(), 0, false)

	// No usable panel outcome: the default weights survive unpersisted, but
	// the sweep still completes on the old snapshot.
	require.Zero(t, store.saveCalled)
	require.Equal(t, models.DefaultWeights(), s.Model().Weights)
	require.NotNil(t, store.report)
	require.Equal(t, 1, store.report.Qualified)
}

func TestRunCycleDegradesToNeutralBook(t *testing.T) {
	market := &fakeMarket{
		symbols: []models.SymbolInfo{{Symbol: "AUSDT"}},
		book:    nil, // every depth fetch fails
		candles: func(string) []models.Candle { return uptrend(210) },
	}
	store := &fakeStore{}
	s := newTestScanner(t, market, store)
	require.NoError(t, s.LoadModel(context.Background()))

	s.runCycle(context.Background(), 0, false)

	require.NotNil(t, store.report)
	for _, r := range store.report.Results {
		require.Equal(t, 50.0, r.BookImbalance)
	}
}

func TestTryStartCycleSingleFlight(t *testing.T) {
	s := newTestScanner(t, &fakeMarket{listErr: errors.New("unused")}, &fakeStore{})

	s.running.Store(true)
	err := s.TryStartCycle(context.Background(), 0, false)
	require.ErrorIs(t, err, ErrCycleRunning)
	require.True(t, s.IsRunning())
}

func TestLoadModelFallsBackToDefaults(t *testing.T) {
	s := newTestScanner(t, &fakeMarket{}, &fakeStore{})

	require.NoError(t, s.LoadModel(context.Background()))
	require.Equal(t, models.DefaultWeights(), s.Model().Weights)
}

func TestEvaluateInsufficientHistory(t *testing.T) {
	market := &fakeMarket{
		book:    bidHeavyBook(),
		candles: func(string) []models.Candle { return uptrend(150) },
	}
	s := newTestScanner(t, market, &fakeStore{})

	res, err := s.evaluate(context.Background(), "AUSDT", drepo.Interval15m, models.DefaultWeights())
	require.Error(t, err)
	require.Nil(t, res)
}

func TestEvaluateVolatilityGate(t *testing.T) {
	// Wide ranges with tiny net movement: directional conviction exists but the
	// candle body is a small fraction of ATR.
	quiet := make([]models.Candle, 210)
	price := 100.0
	for i := range quiet {
		open := price
		close := open * 1.0001
		quiet[i] = models.Candle{Open: open, High: open * 1.05, Low: open * 0.95, Close: close, Volume: 1000}
		price = close
	}
	market := &fakeMarket{
		book:    bidHeavyBook(),
		candles: func(string) []models.Candle { return quiet },
	}
	s := newTestScanner(t, market, &fakeStore{})

	res, err := s.evaluate(context.Background(), "AUSDT", drepo.Interval15m, models.DefaultWeights())
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestRankResults(t *testing.T) {
	in := []*models.ScanResult{
		{Symbol: "B", Confidence: 70, Score: 70},
		nil,
		{Symbol: "C", Confidence: 90, Score: -90},
		{Symbol: "A", Confidence: 70, Score: -70},
	}
	out := rankResults(in)

	require.Len(t, out, 3)
	require.Equal(t, "C", out[0].Symbol)
	// Same confidence and score magnitude: symbol breaks the tie.
	require.Equal(t, "A", out[1].Symbol)
	require.Equal(t, "B", out[2].Symbol)
}
