package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	signalsTotal    *prometheus.CounterVec
	duplicatesTotal *prometheus.CounterVec
	tradesOpened    *prometheus.CounterVec
	tradesClosed    *prometheus.CounterVec
	trendFlips      *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_signals_total",
				Help: "Total signals ingested by classification",
			},
			[]string{"symbol", "classification"},
		),
		duplicatesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_duplicate_signals_total",
				Help: "Signals suppressed by the deduplication cache",
			},
			[]string{"symbol"},
		),
		tradesOpened: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_trades_opened_total",
				Help: "Trades opened by strategy combination",
			},
			[]string{"symbol", "combination"},
		),
		tradesClosed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_trades_closed_total",
				Help: "Trades closed by reason",
			},
			[]string{"symbol", "reason"},
		),
		trendFlips: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_trend_flips_total",
				Help: "Confirmed trend direction flips",
			},
			[]string{"symbol", "direction"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_operation_duration_seconds",
				Help:    "Duration of engine operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordSignal(symbol, classification string) {
	r.signalsTotal.WithLabelValues(symbol, classification).Inc()
}

func (r *Recorder) RecordDuplicate(symbol string) {
	r.duplicatesTotal.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordTradeOpened(symbol, combination string) {
	r.tradesOpened.WithLabelValues(symbol, combination).Inc()
}

func (r *Recorder) RecordTradeClosed(symbol, reason string) {
	r.tradesClosed.WithLabelValues(symbol, reason).Inc()
}

func (r *Recorder) RecordTrendFlip(symbol, direction string) {
	r.trendFlips.WithLabelValues(symbol, direction).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
