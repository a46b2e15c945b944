package analytics

import (
	"math"

	"TrendPulse/internal/domain/models"
)

// Aggregate merges the panel's independently learned vectors into one global
// vector. Outcomes without a usable accuracy (insufficient history) are
// excluded from both means; a fully excluded panel leaves the starting vector
// untouched.
//
// Averaging, rounding and flooring each independently drift the sum off the
// fixed budget, so the rounded mean goes through the shared finalize step
// that renormalizes and settles the residual inside the per-key bounds.
func Aggregate(outcomes []models.LearningOutcome, start models.WeightVector) (models.WeightVector, float64, bool) {
	var sums [4]int
	var accSum float64
	n := 0
	for _, o := range outcomes {
		if !o.AccuracyOK {
			continue
		}
		vals := o.Weights.Values()
		for i := range sums {
			sums[i] += vals[i]
		}
		accSum += o.Accuracy
		n++
	}
	if n == 0 {
		return start, 0, false
	}

	var mean [4]int
	for i := range sums {
		mean[i] = int(math.Round(float64(sums[i]) / float64(n)))
	}

	w := finalizeWeights(models.FromValues(mean), models.AdjustableBudget)

	return w, accSum / float64(n), true
}
