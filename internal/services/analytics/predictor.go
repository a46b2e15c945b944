package analytics

import "TrendPulse/internal/domain/models"

// Threshold ladder cutoffs for mapping raw readings to signed points.
const (
	obvChangeCutoff = 1.0 // percent

	stochOversold   = 20.0
	stochOverbought = 80.0

	pressureStrong = 50.0
	pressureWeak   = 10.0

	bookStrongHigh = 65.0
	bookWeakHigh   = 55.0
	bookWeakLow    = 45.0
	bookStrongLow  = 35.0
)

// Predict combines the signal readings and the weight vector into a
// directional call. Each indicator contributes a signed point value bounded by
// its weight; the static book weight is applied on top of the four adjustable
// ones. A net score of exactly zero resolves to UP: the engine is asked for a
// side on every evaluation, and the tie-break is a deliberate, documented
// choice rather than an artifact.
func Predict(r models.SignalReadings, w models.WeightVector) models.PredictionResult {
	var c models.Contributions

	// Rising OBV is accumulation, falling is distribution.
	switch {
	case r.OBVChange > obvChangeCutoff:
		c.OBV = w.OBV
	case r.OBVChange < -obvChangeCutoff:
		c.OBV = -w.OBV
	}

	// Stochastic votes mean-reversion: oversold reads as upside room.
	switch {
	case r.Stochastic < stochOversold:
		c.Stoch = w.Stoch
	case r.Stochastic > stochOverbought:
		c.Stoch = -w.Stoch
	}

	// Volume pressure uses a four-tier ladder.
	switch {
	case r.VolumePressure >= pressureStrong:
		c.OIProxy = w.OIProxy
	case r.VolumePressure >= pressureWeak:
		c.OIProxy = w.OIProxy / 2
	case r.VolumePressure <= -pressureStrong:
		c.OIProxy = -w.OIProxy
	case r.VolumePressure <= -pressureWeak:
		c.OIProxy = -w.OIProxy / 2
	}

	switch {
	case r.MACDHist > 0:
		c.MACD = w.MACD
	case r.MACDHist < 0:
		c.MACD = -w.MACD
	}

	switch {
	case r.BookImbalance > bookStrongHigh:
		c.Book = models.StaticBookWeight
	case r.BookImbalance > bookWeakHigh:
		c.Book = models.StaticBookWeight / 2
	case r.BookImbalance < bookStrongLow:
		c.Book = -models.StaticBookWeight
	case r.BookImbalance < bookWeakLow:
		c.Book = -models.StaticBookWeight / 2
	}

	score := c.OBV + c.Stoch + c.OIProxy + c.MACD + c.Book

	dir := models.DirectionUp
	if score < 0 {
		dir = models.DirectionDown
	}
	conf := score
	if conf < 0 {
		conf = -conf
	}
	if conf > 100 {
		conf = 100
	}

	return models.PredictionResult{
		Direction:     dir,
		Confidence:    conf,
		Score:         score,
		Contributions: c,
	}
}
