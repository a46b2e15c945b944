package analytics

import (
	"testing"

	"TrendPulse/internal/domain/models"

	"github.com/stretchr/testify/require"
)

func TestAggregateEmptyPanelIsNoop(t *testing.T) {
	start := models.DefaultWeights()

	w, acc, ok := Aggregate(nil, start)
	require.False(t, ok)
	require.Equal(t, start, w)
	require.Zero(t, acc)
}

func TestAggregateExcludesUnusableOutcomes(t *testing.T) {
	start := models.DefaultWeights()
	outcomes := []models.LearningOutcome{
		{Symbol: "BTCUSDT", Weights: models.WeightVector{OBV: 35, Stoch: 20, OIProxy: 20, MACD: 10}, Accuracy: 70, AccuracyOK: true},
		{Symbol: "SHORTUSDT", Weights: models.WeightVector{OBV: 85, Stoch: 0, OIProxy: 0, MACD: 0}, Accuracy: 0, AccuracyOK: false},
	}

	w, acc, ok := Aggregate(outcomes, start)
	require.True(t, ok)
	require.Equal(t, models.WeightVector{OBV: 35, Stoch: 20, OIProxy: 20, MACD: 10}, w)
	require.Equal(t, 70.0, acc)
}

func TestAggregateFullyExcludedPanelIsNoop(t *testing.T) {
	start := models.DefaultWeights()
	outcomes := []models.LearningOutcome{
		{Symbol: "AUSDT", AccuracyOK: false},
		{Symbol: "BUSDT", AccuracyOK: false},
	}

	w, _, ok := Aggregate(outcomes, start)
	require.False(t, ok)
	require.Equal(t, start, w)
}

func TestAggregateMeanAndAccuracy(t *testing.T) {
	outcomes := []models.LearningOutcome{
		{Weights: models.WeightVector{OBV: 30, Stoch: 25, OIProxy: 20, MACD: 10}, Accuracy: 40, AccuracyOK: true},
		{Weights: models.WeightVector{OBV: 40, Stoch: 15, OIProxy: 20, MACD: 10}, Accuracy: 60, AccuracyOK: true},
	}

	w, acc, ok := Aggregate(outcomes, models.DefaultWeights())
	require.True(t, ok)
	require.Equal(t, models.WeightVector{OBV: 35, Stoch: 20, OIProxy: 20, MACD: 10}, w)
	require.Equal(t, 50.0, acc)
	require.Equal(t, models.AdjustableBudget, w.Sum())
}

func TestAggregateFloorClampThenRenormalize(t *testing.T) {
	// One dominant vector: the floor clamp lifts the starved keys to 5 and the
	// residual settlement pulls the total back to the budget exactly.
	outcomes := []models.LearningOutcome{
		{Weights: models.WeightVector{OBV: 79, Stoch: 2, OIProxy: 2, MACD: 2}, Accuracy: 55, AccuracyOK: true},
	}

	w, _, ok := Aggregate(outcomes, models.DefaultWeights())
	require.True(t, ok)
	require.Equal(t, models.AdjustableBudget, w.Sum())
	require.GreaterOrEqual(t, w.Stoch, models.WeightFloor)
	require.GreaterOrEqual(t, w.OIProxy, models.WeightFloor)
	require.GreaterOrEqual(t, w.MACD, models.WeightFloor)
	require.Equal(t, models.WeightVector{OBV: 70, Stoch: 5, OIProxy: 5, MACD: 5}, w)
}
