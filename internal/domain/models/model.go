package models

import "time"

// Direction is a directional call on an instrument.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Weight bounds. The four adjustable weights always sum to AdjustableBudget;
// the order-book imbalance weight is static and sits on top, making the full
// budget 100.
const (
	WeightFloor      = 5
	WeightCeiling    = 100
	StaticBookWeight = 15
	AdjustableBudget = 100 - StaticBookWeight
)

// WeightVector holds the four adjustable indicator weights in points.
// Field order matters: renormalization applies its remainder correction to the
// first key of the fixed enumeration (OBV).
type WeightVector struct {
	OBV     int `json:"obv"`
	Stoch   int `json:"stoch"`
	OIProxy int `json:"oi_proxy"`
	MACD    int `json:"macd"`
}

// DefaultWeights returns the fallback vector used when no persisted model exists.
func DefaultWeights() WeightVector {
	return WeightVector{OBV: 30, Stoch: 25, OIProxy: 20, MACD: 10}
}

// Sum returns the total points across the four adjustable weights.
func (w WeightVector) Sum() int {
	return w.OBV + w.Stoch + w.OIProxy + w.MACD
}

// Values returns the weights in the fixed enumeration order.
func (w WeightVector) Values() [4]int {
	return [4]int{w.OBV, w.Stoch, w.OIProxy, w.MACD}
}

// FromValues rebuilds a vector from the fixed enumeration order.
func FromValues(v [4]int) WeightVector {
	return WeightVector{OBV: v[0], Stoch: v[1], OIProxy: v[2], MACD: v[3]}
}

// SignalReadings are the normalized inputs to one prediction.
type SignalReadings struct {
	OBVChange      float64 // percent change of OBV over the trailing window
	Stochastic     float64 // %K, 0..100
	MACDHist       float64 // raw histogram value
	VolumePressure float64 // -100..+100
	BookImbalance  float64 // 0..100, 50 = neutral
}

// Contributions is the signed per-indicator point breakdown of one prediction.
type Contributions struct {
	OBV     int `json:"obv"`
	Stoch   int `json:"stoch"`
	OIProxy int `json:"oi_proxy"`
	MACD    int `json:"macd"`
	Book    int `json:"book"`
}

// PredictionResult is the output of one weighted prediction. Not persisted.
type PredictionResult struct {
	Direction     Direction
	Confidence    int // 0..100
	Score         int // signed net score
	Contributions Contributions
}

// LearningOutcome is the result of one learner pass over one instrument.
type LearningOutcome struct {
	Symbol     string
	Weights    WeightVector
	Accuracy   float64
	AccuracyOK bool // false when history was insufficient
	Trials     int
}

// ModelState is the only state that outlives a cycle. Replaced wholesale after
// each learning pass.
type ModelState struct {
	Weights   WeightVector `json:"weights"`
	Accuracy  string       `json:"accuracy"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// DefaultModelState returns the hardcoded fallback model.
func DefaultModelState() ModelState {
	return ModelState{Weights: DefaultWeights(), Accuracy: "0", UpdatedAt: time.Now().UTC()}
}

// ScanResult is one qualifying instrument from a sweep. Ephemeral per cycle.
type ScanResult struct {
	Symbol        string    `json:"symbol"`
	Score         int       `json:"score"`
	Confidence    int       `json:"confidence"`
	Direction     Direction `json:"direction"`
	ChangePct     float64   `json:"change_pct"`
	ATR           float64   `json:"atr"`
	BookImbalance float64   `json:"book_imbalance"`
	LastPrice     float64   `json:"last_price"`
}

// HistoryEntry is one persisted scan result with its cycle timestamp.
type HistoryEntry struct {
	CycleTS time.Time `json:"cycle_ts"`
	ScanResult
}

// CycleReport summarizes one completed scan cycle.
type CycleReport struct {
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
	Universe  int          `json:"universe"`
	Evaluated int          `json:"evaluated"`
	Qualified int          `json:"qualified"`
	Model     ModelState   `json:"model"`
	Results   []ScanResult `json:"results"`
}
