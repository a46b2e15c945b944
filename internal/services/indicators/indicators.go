package indicators

import (
	"math"

	"TrendPulse/internal/domain/models"
)

const epsilon = 1e-9

// EMA computes an exponential moving average over values. Indices before the
// window has warmed up carry the simple average of the prefix; from there the
// standard recurrence with alpha = 2/(window+1) applies. Output length equals
// input length.
func EMA(values []float64, window int) []float64 {
	if len(values) == 0 || window <= 0 {
		return nil
	}
	out := make([]float64, len(values))
	alpha := 2.0 / float64(window+1)
	sum := 0.0
	for i, v := range values {
		if i < window {
			sum += v
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = v*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// MACDHistogram returns the MACD histogram per candle: the MACD line (fast EMA
// minus slow EMA of closes) minus the signal EMA of the line. The signal EMA is
// recomputed over the growing line prefix at every index, which matches the
// reference output exactly; values are equal to an incremental pass within
// floating-point tolerance.
func MACDHistogram(candles []models.Candle, fast, slow, signal int) []float64 {
	if len(candles) == 0 {
		return nil
	}
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	out := make([]float64, len(closes))
	for i := range line {
		sig := EMA(line[:i+1], signal)
		out[i] = line[i] - sig[len(sig)-1]
	}
	return out
}

// OBV computes on-balance volume: a cumulative sum seeded with the first
// candle's volume, adding volume on an up close and subtracting on a down
// close. Ties leave the running value unchanged.
func OBV(candles []models.Candle) []float64 {
	if len(candles) == 0 {
		return nil
	}
	out := make([]float64, len(candles))
	out[0] = candles[0].Volume
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			out[i] = out[i-1] + candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			out[i] = out[i-1] - candles[i].Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// StochasticK computes the %K oscillator over a trailing window. Indices before
// the first full window, and flat windows, read neutral 50.
func StochasticK(candles []models.Candle, window int) []float64 {
	out := make([]float64, len(candles))
	for i := range candles {
		if i < window-1 {
			out[i] = 50
			continue
		}
		hh := math.Inf(-1)
		ll := math.Inf(1)
		for j := i - window + 1; j <= i; j++ {
			hh = math.Max(hh, candles[j].High)
			ll = math.Min(ll, candles[j].Low)
		}
		if hh-ll < epsilon {
			out[i] = 50
			continue
		}
		out[i] = 100 * (candles[i].Close - ll) / (hh - ll)
	}
	return out
}

// ATR computes the average true range with Wilder's smoothing. The first
// smoothed value is the simple average of the first `window` true ranges; the
// output is left-padded with that value so it matches the candle count.
func ATR(candles []models.Candle, window int) []float64 {
	if len(candles) < window+1 {
		return nil
	}
	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		trs = append(trs, math.Max(hl, math.Max(hc, lc)))
	}
	smoothed := make([]float64, len(trs)-window+1)
	sum := 0.0
	for i := 0; i < window; i++ {
		sum += trs[i]
	}
	smoothed[0] = sum / float64(window)
	for i := window; i < len(trs); i++ {
		smoothed[i-window+1] = (smoothed[i-window]*float64(window-1) + trs[i]) / float64(window)
	}
	out := make([]float64, len(candles))
	pad := len(candles) - len(smoothed)
	for i := 0; i < pad; i++ {
		out[i] = smoothed[0]
	}
	copy(out[pad:], smoothed)
	return out
}

// VolumePressure maps where the close sits in the candle's high-low range to a
// signed -100..+100 sentiment. A degenerate range reads 0.
func VolumePressure(c models.Candle) float64 {
	rng := c.High - c.Low
	if rng < epsilon {
		return 0
	}
	return ((c.Close-c.Low)/rng)*200 - 100
}

// BookImbalance computes the depth-weighted order-book imbalance percent.
// Levels nearer to touch count more: level i of a depth-n side carries weight
// n-i. Returns neutral 50 when the book is absent or carries no volume.
func BookImbalance(book *models.OrderBook) float64 {
	if book == nil || len(book.Bids) == 0 || len(book.Asks) == 0 {
		return 50
	}
	var wBid, wAsk float64
	for i, lvl := range book.Bids {
		wBid += lvl.Size * float64(len(book.Bids)-i)
	}
	for i, lvl := range book.Asks {
		wAsk += lvl.Size * float64(len(book.Asks)-i)
	}
	total := wBid + wAsk
	if total < epsilon {
		return 50
	}
	return wBid / total * 100
}
