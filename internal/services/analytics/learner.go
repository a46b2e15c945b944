package analytics

import (
	"TrendPulse/internal/domain/models"
)

// LearnerConfig drives one backtest-style learning pass.
type LearnerConfig struct {
	TradeCount int // simulated trials per pass
	Lookahead  int // candles between prediction and outcome
	Rate       int // points added or removed per trial
}

// DefaultLearnerConfig returns the reference learning parameters.
func DefaultLearnerConfig() LearnerConfig {
	return LearnerConfig{TradeCount: 30, Lookahead: 5, Rate: 2}
}

// Learn replays recent history for one instrument as a sequence of
// predict/observe trials and nudges the weight vector toward the indicators
// that called outcomes correctly. The order book is held neutral throughout:
// historical depth snapshots do not exist, so the static book signal sits out
// of the replay.
//
// The update rule is symmetric: every adjustable indicator whose contribution
// sign matched the net score ("voted with" the prediction) gains Rate points
// on a hit and loses Rate on a miss. Indicators that sat out or voted against
// are untouched either way.
func Learn(symbol string, candles []models.Candle, start models.WeightVector, cfg LearnerConfig) models.LearningOutcome {
	if len(candles) < cfg.TradeCount+cfg.Lookahead {
		return models.LearningOutcome{Symbol: symbol, Weights: start, AccuracyOK: false}
	}

	weights := start
	hits := 0
	trials := 0

	for i := 0; i < cfg.TradeCount; i++ {
		predictIdx := len(candles) - cfg.Lookahead - 1 - i
		outcomeIdx := len(candles) - 1 - i
		if predictIdx < WarmupCandles || outcomeIdx >= len(candles) {
			break
		}

		// Only the prefix up to the prediction point is visible to the model.
		readings := ComputeReadings(candles[:predictIdx+1], NeutralBook)
		pred := Predict(readings, weights)

		delta := candles[outcomeIdx].Close - candles[predictIdx].Close
		trials++
		if delta == 0 {
			// Flat outcome: neither a hit nor a miss, no weight movement.
			continue
		}

		actualUp := delta > 0
		hit := (pred.Direction == models.DirectionUp) == actualUp
		if hit {
			hits++
		}

		step := cfg.Rate
		if !hit {
			step = -cfg.Rate
		}
		weights = adjustVoters(weights, pred, step)
		weights = clampWeights(weights)
	}

	weights = finalizeWeights(weights, models.AdjustableBudget)

	accuracy := 0.0
	if trials > 0 {
		accuracy = float64(hits) / float64(trials) * 100
	}
	return models.LearningOutcome{
		Symbol:     symbol,
		Weights:    weights,
		Accuracy:   accuracy,
		AccuracyOK: true,
		Trials:     trials,
	}
}

// adjustVoters moves every adjustable weight whose contribution sign matched
// the prediction's net-score sign by step points.
func adjustVoters(w models.WeightVector, pred models.PredictionResult, step int) models.WeightVector {
	netSign := sign(pred.Score)
	if netSign == 0 {
		return w
	}
	c := pred.Contributions
	if sign(c.OBV) == netSign {
		w.OBV += step
	}
	if sign(c.Stoch) == netSign {
		w.Stoch += step
	}
	if sign(c.OIProxy) == netSign {
		w.OIProxy += step
	}
	if sign(c.MACD) == netSign {
		w.MACD += step
	}
	return w
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
