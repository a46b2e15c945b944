package analytics

import (
	"math"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/services/indicators"
)

// Indicator parameters. These match the reference configuration and are not
// meant to be tuned per deployment.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9

	StochWindow = 14
	ATRWindow   = 14

	// OBVChangeWindow is the trailing span for the OBV percent-change reading.
	OBVChangeWindow = 20

	// WarmupCandles is the minimum history before any prediction is meaningful.
	WarmupCandles = 26

	// NeutralBook is the book-imbalance reading used when no live book exists.
	NeutralBook = 50.0
)

// ComputeReadings derives the five normalized signal readings from a candle
// sequence and a book-imbalance percent. The caller passes NeutralBook when no
// live order book is available (e.g. during learning replays).
func ComputeReadings(candles []models.Candle, bookImbalance float64) models.SignalReadings {
	obv := indicators.OBV(candles)
	stoch := indicators.StochasticK(candles, StochWindow)
	hist := indicators.MACDHistogram(candles, MACDFast, MACDSlow, MACDSignal)

	return models.SignalReadings{
		OBVChange:      trailingChangePct(obv, OBVChangeWindow),
		Stochastic:     last(stoch),
		MACDHist:       last(hist),
		VolumePressure: indicators.VolumePressure(candles[len(candles)-1]),
		BookImbalance:  bookImbalance,
	}
}

// trailingChangePct returns the percent change between the last value and the
// value `window` points back, or 0 when the base is too small or missing.
func trailingChangePct(values []float64, window int) float64 {
	if len(values) <= window {
		return 0
	}
	base := values[len(values)-1-window]
	if math.Abs(base) < 1e-9 {
		return 0
	}
	return (values[len(values)-1] - base) / math.Abs(base) * 100
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
