package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Parse outcomes used as the outcome label.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Metrics records parse activity. A nil *Metrics records nothing.
type Metrics struct {
	parses       *prometheus.CounterVec
	transactions *prometheus.CounterVec
	duplicates   prometheus.Counter
	skipped      prometheus.Counter
	duration     *prometheus.HistogramVec
}

// NewMetrics registers the parse metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		parses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_parse_total",
			Help: "Statement parses by file format, detected bank and outcome.",
		}, []string{"format", "bank", "outcome"}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "statement_transactions_total",
			Help: "Transactions recovered from statements.",
		}, []string{"format"}),
		duplicates: factory.NewCounter(prometheus.CounterOpts{
			Name: "statement_duplicates_removed_total",
			Help: "Candidate transactions dropped as duplicates.",
		}),
		skipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "statement_rows_skipped_total",
			Help: "Candidate rows skipped with a warning.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statement_parse_duration_seconds",
			Help:    "Time spent parsing one statement.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"format"}),
	}
}

func (m *Metrics) observe(format, bank, outcome string, transactions, duplicates, skipped int, seconds float64) {
	if m == nil {
		return
	}
	m.parses.WithLabelValues(format, bank, outcome).Inc()
	m.transactions.WithLabelValues(format).Add(float64(transactions))
	m.duplicates.Add(float64(duplicates))
	m.skipped.Add(float64(skipped))
	m.duration.WithLabelValues(format).Observe(seconds)
}
