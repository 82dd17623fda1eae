package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	tradesTotal    *prometheus.CounterVec
	skipsTotal     *prometheus.CounterVec
	portfolioValue prometheus.Gauge
	dayDuration    prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		tradesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swinglab_trades_total",
				Help: "Total number of executed trades",
			},
			[]string{"action", "reason"},
		),
		skipsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swinglab_skipped_buys_total",
				Help: "Total number of buy orders skipped",
			},
			[]string{"reason"},
		),
		portfolioValue: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "swinglab_portfolio_value",
				Help: "Mark-to-market portfolio value for the current simulation day",
			},
		),
		dayDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "swinglab_day_duration_seconds",
				Help:    "Duration of a single simulated trading day in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordTrade records an executed trade.
func (r *Recorder) RecordTrade(action, reason string) {
	r.tradesTotal.WithLabelValues(action, reason).Inc()
}

// RecordSkippedBuy records a buy order that could not be filled.
func (r *Recorder) RecordSkippedBuy(reason string) {
	r.skipsTotal.WithLabelValues(reason).Inc()
}

// RecordPortfolioValue records the current portfolio value.
func (r *Recorder) RecordPortfolioValue(value float64) {
	r.portfolioValue.Set(value)
}

// RecordDayDuration records how long a simulated day took to process.
func (r *Recorder) RecordDayDuration(seconds float64) {
	r.dayDuration.Observe(seconds)
}
