package analytics

import (
	"math"

	"TrendPulse/internal/domain/models"
)

// clampWeights bounds every adjustable weight to [WeightFloor, WeightCeiling].
func clampWeights(w models.WeightVector) models.WeightVector {
	vals := w.Values()
	for i, v := range vals {
		if v < models.WeightFloor {
			vals[i] = models.WeightFloor
		}
		if v > models.WeightCeiling {
			vals[i] = models.WeightCeiling
		}
	}
	return models.FromValues(vals)
}

// normalizeWeights rescales the vector so the four values sum exactly to
// budget. Per-key rounding can leave the sum off by a few points, so the
// remainder lands on the first key of the fixed enumeration (OBV); that key is
// deterministic, which keeps repeated normalizations stable.
func normalizeWeights(w models.WeightVector, budget int) models.WeightVector {
	total := w.Sum()
	if total <= 0 {
		return w
	}
	vals := w.Values()
	sum := 0
	for i, v := range vals {
		vals[i] = int(math.Round(float64(v) * float64(budget) / float64(total)))
		sum += vals[i]
	}
	vals[0] += budget - sum
	return models.FromValues(vals)
}

// finalizeWeights renormalizes to the budget and re-imposes the per-key
// bounds. Scaling a grown vector back down can land a small key under the
// floor, and clamping it back up moves the sum off the budget again, so the
// residual is settled in enumeration order with each key only moving as far
// as its bound allows.
func finalizeWeights(w models.WeightVector, budget int) models.WeightVector {
	vals := clampWeights(normalizeWeights(w, budget)).Values()
	diff := budget
	for _, v := range vals {
		diff -= v
	}
	for i := 0; i < len(vals) && diff != 0; i++ {
		step := diff
		if diff > 0 {
			if room := models.WeightCeiling - vals[i]; room < step {
				step = room
			}
		} else {
			if room := models.WeightFloor - vals[i]; room > step {
				step = room
			}
		}
		vals[i] += step
		diff -= step
	}
	return models.FromValues(vals)
}
