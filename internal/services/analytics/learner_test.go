package analytics

import (
	"testing"

	"TrendPulse/internal/domain/models"

	"github.com/stretchr/testify/require"
)

// uptrendCandles builds a steady 1% per candle uptrend with growing volume.
func uptrendCandles(n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 100.0
	for i := range out {
		open := price
		close := open * 1.01
		out[i] = models.Candle{
			Open:   open,
			High:   close * 1.001,
			Low:    open * 0.999,
			Close:  close,
			Volume: 1000 + float64(i)*10,
		}
		price = close
	}
	return out
}

func flatSeries(n int) []models.Candle {
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Open: 100, High: 100, Low: 100, Close: 100, Volume: 500}
	}
	return out
}

func TestLearnInsufficientHistory(t *testing.T) {
	cfg := DefaultLearnerConfig()
	start := models.DefaultWeights()

	out := Learn("BTCUSDT", uptrendCandles(cfg.TradeCount+cfg.Lookahead-1), start, cfg)

	require.False(t, out.AccuracyOK)
	require.Equal(t, start, out.Weights)
	require.Zero(t, out.Trials)
}

func TestLearnPreservesBudget(t *testing.T) {
	cfg := DefaultLearnerConfig()
	out := Learn("BTCUSDT", uptrendCandles(210), models.DefaultWeights(), cfg)

	require.True(t, out.AccuracyOK)
	require.Equal(t, cfg.TradeCount, out.Trials)
	require.Equal(t, models.AdjustableBudget, out.Weights.Sum())
	for _, v := range out.Weights.Values() {
		require.Positive(t, v)
	}
}

func TestLearnKeepsWeightsWithinBounds(t *testing.T) {
	// A lopsided but valid starting vector: the trend followers grow until OBV
	// pins at the ceiling, and rescaling the grown total must not push the
	// starved oscillator key under the floor.
	start := models.FromValues([4]int{68, 6, 6, 5})

	out := Learn("BTCUSDT", uptrendCandles(210), start, DefaultLearnerConfig())

	require.True(t, out.AccuracyOK)
	require.Equal(t, models.AdjustableBudget, out.Weights.Sum())
	for _, v := range out.Weights.Values() {
		require.GreaterOrEqual(t, v, models.WeightFloor)
		require.LessOrEqual(t, v, models.WeightCeiling)
	}
}

func TestLearnUptrendScoresWell(t *testing.T) {
	out := Learn("BTCUSDT", uptrendCandles(210), models.DefaultWeights(), DefaultLearnerConfig())

	// A clean monotonic trend should be called correctly far more often than
	// not; the trend followers gain share at the oscillator's expense.
	require.Greater(t, out.Accuracy, 50.0)
}

func TestLearnFlatOutcomesMoveNothing(t *testing.T) {
	cfg := DefaultLearnerConfig()
	start := models.DefaultWeights()

	out := Learn("BTCUSDT", flatSeries(210), start, cfg)

	require.True(t, out.AccuracyOK)
	require.Equal(t, cfg.TradeCount, out.Trials)
	require.Zero(t, out.Accuracy)
	require.Equal(t, start, out.Weights)
}

func TestAdjustVotersOnlyMovesMatchingSigns(t *testing.T) {
	w := models.DefaultWeights()
	pred := models.PredictionResult{
		Score: 35,
		Contributions: models.Contributions{
			OBV:     30,
			Stoch:   -25,
			OIProxy: 20,
			MACD:    10,
		},
	}

	got := adjustVoters(w, pred, 2)

	require.Equal(t, w.OBV+2, got.OBV)
	require.Equal(t, w.Stoch, got.Stoch) // voted against, untouched
	require.Equal(t, w.OIProxy+2, got.OIProxy)
	require.Equal(t, w.MACD+2, got.MACD)
}

func TestAdjustVotersZeroScoreIsNoop(t *testing.T) {
	w := models.DefaultWeights()
	got := adjustVoters(w, models.PredictionResult{Score: 0}, 2)
	require.Equal(t, w, got)
}
