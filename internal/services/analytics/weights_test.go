package analytics

import (
	"testing"

	"TrendPulse/internal/domain/models"

	"github.com/stretchr/testify/require"
)

func TestClampWeights(t *testing.T) {
	w := clampWeights(models.WeightVector{OBV: 2, Stoch: 120, OIProxy: 10, MACD: -3})
	require.Equal(t, models.WeightVector{OBV: 5, Stoch: 100, OIProxy: 10, MACD: 5}, w)
}

func TestNormalizeWeightsIdentityOnBudget(t *testing.T) {
	w := models.DefaultWeights()
	require.Equal(t, models.AdjustableBudget, w.Sum())
	require.Equal(t, w, normalizeWeights(w, models.AdjustableBudget))
}

func TestNormalizeWeightsRemainderLandsOnOBV(t *testing.T) {
	// 40*85/160 = 21.25 rounds to 21 for each key, leaving 1 point over.
	w := normalizeWeights(models.WeightVector{OBV: 40, Stoch: 40, OIProxy: 40, MACD: 40}, models.AdjustableBudget)
	require.Equal(t, models.WeightVector{OBV: 22, Stoch: 21, OIProxy: 21, MACD: 21}, w)
	require.Equal(t, models.AdjustableBudget, w.Sum())
}

func TestNormalizeWeightsNonPositiveSumUntouched(t *testing.T) {
	w := models.WeightVector{}
	require.Equal(t, w, normalizeWeights(w, models.AdjustableBudget))
}

func TestFinalizeWeightsRestoresFloorAfterScaling(t *testing.T) {
	// Two maxed-out keys shrink the small ones to 2 under plain rescaling; the
	// finalize step lifts them back to the floor and settles the excess on OBV.
	w := finalizeWeights(models.WeightVector{OBV: 100, Stoch: 100, OIProxy: 5, MACD: 5}, models.AdjustableBudget)
	require.Equal(t, models.WeightVector{OBV: 35, Stoch: 40, OIProxy: 5, MACD: 5}, w)
	require.Equal(t, models.AdjustableBudget, w.Sum())
}

func TestFinalizeWeightsBoundsForRandomishInputs(t *testing.T) {
	inputs := []models.WeightVector{
		{OBV: 100, Stoch: 6, OIProxy: 66, MACD: 65},
		{OBV: 90, Stoch: 25, OIProxy: 80, MACD: 70},
		{OBV: 100, Stoch: 100, OIProxy: 100, MACD: 100},
		{OBV: 79, Stoch: 2, OIProxy: 2, MACD: 2},
		{OBV: 5, Stoch: 5, OIProxy: 5, MACD: 5},
	}
	for _, in := range inputs {
		out := finalizeWeights(in, models.AdjustableBudget)
		require.Equal(t, models.AdjustableBudget, out.Sum(), "input %+v", in)
		for _, v := range out.Values() {
			require.GreaterOrEqual(t, v, models.WeightFloor, "input %+v", in)
			require.LessOrEqual(t, v, models.WeightCeiling, "input %+v", in)
		}
	}
}

func TestNormalizeWeightsExactSumForRandomishInputs(t *testing.T) {
	inputs := []models.WeightVector{
		{OBV: 90, Stoch: 25, OIProxy: 80, MACD: 70},
		{OBV: 5, Stoch: 5, OIProxy: 5, MACD: 5},
		{OBV: 100, Stoch: 5, OIProxy: 5, MACD: 5},
		{OBV: 1, Stoch: 2, OIProxy: 3, MACD: 4},
	}
	for _, in := range inputs {
		out := normalizeWeights(in, models.AdjustableBudget)
		require.Equal(t, models.AdjustableBudget, out.Sum(), "input %+v", in)
	}
}
