package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal    *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	qualifiedTotal prometheus.Counter
	modelAccuracy  prometheus.Gauge
	lastPrice      *prometheus.GaugeVec
	cycleDuration  *prometheus.HistogramVec
	evalDuration   prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_cycles_total",
				Help: "Total number of scan cycles by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trendpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		qualifiedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "trendpulse_qualified_signals_total",
				Help: "Total number of qualifying scan results",
			},
		),
		modelAccuracy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "trendpulse_model_accuracy_percent",
				Help: "Panel-averaged learning accuracy of the current model",
			},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "trendpulse_last_price",
				Help: "Last observed price for a panel symbol",
			},
			[]string{"symbol"},
		),
		cycleDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trendpulse_cycle_duration_seconds",
				Help:    "Duration of full scan cycles in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"outcome"},
		),
		evalDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trendpulse_evaluation_duration_seconds",
				Help:    "Duration of per-instrument evaluations in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordCycle records a completed cycle and its duration.
func (r *Recorder) RecordCycle(outcome string, seconds float64) {
	r.cyclesTotal.WithLabelValues(outcome).Inc()
	r.cycleDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordEvaluation records one per-instrument evaluation duration.
func (r *Recorder) RecordEvaluation(seconds float64) {
	r.evalDuration.Observe(seconds)
}

// RecordQualified adds to the qualifying-result counter.
func (r *Recorder) RecordQualified(n int) {
	r.qualifiedTotal.Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAccuracy records the current model accuracy.
func (r *Recorder) RecordAccuracy(pct float64) {
	r.modelAccuracy.Set(pct)
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}
