// Package metrics holds the prometheus collectors for the payment pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	payments          *prometheus.CounterVec
	settlements       *prometheus.CounterVec
	ledgerAppends     *prometheus.CounterVec
	ledgerConflicts   prometheus.Counter
	refunds           *prometheus.CounterVec
	webhookAttempts   *prometheus.CounterVec
	webhookLatency    prometheus.Histogram
	executorLatency   *prometheus.HistogramVec
	webhookSweepCount prometheus.Counter
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		payments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paycorex_payments_total",
			Help: "Payments by method and resulting status.",
		}, []string{"method", "status"}),
		settlements: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paycorex_settlements_total",
			Help: "Committed settlements by source.",
		}, []string{"source"}),
		ledgerAppends: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paycorex_ledger_appends_total",
			Help: "Ledger appends by entity kind and outcome.",
		}, []string{"entity_kind", "outcome"}),
		ledgerConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "paycorex_ledger_conflicts_total",
			Help: "Retryable storage conflicts seen while writing the ledger.",
		}),
		refunds: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paycorex_refunds_total",
			Help: "Refunds by resulting status.",
		}, []string{"status"}),
		webhookAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paycorex_webhook_attempts_total",
			Help: "Webhook delivery attempts by event type and resulting status.",
		}, []string{"event_type", "status"}),
		webhookLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "paycorex_webhook_attempt_seconds",
			Help:    "Outbound webhook call latency.",
			Buckets: prometheus.DefBuckets,
		}),
		executorLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paycorex_executor_seconds",
			Help:    "Method executor latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		webhookSweepCount: f.NewCounter(prometheus.CounterOpts{
			Name: "paycorex_webhook_sweep_attempts_total",
			Help: "Deliveries re-attempted by the retry sweep.",
		}),
	}
}

func (m *Metrics) PaymentFinished(method, status string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(method, status).Inc()
}

func (m *Metrics) Settled(source string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(source).Inc()
}

func (m *Metrics) LedgerAppend(entityKind, outcome string) {
	if m == nil {
		return
	}
	m.ledgerAppends.WithLabelValues(entityKind, outcome).Inc()
}

func (m *Metrics) LedgerConflict() {
	if m == nil {
		return
	}
	m.ledgerConflicts.Inc()
}

func (m *Metrics) RefundFinished(status string) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(status).Inc()
}

func (m *Metrics) WebhookAttempt(eventType, status string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookAttempts.WithLabelValues(eventType, status).Inc()
	m.webhookLatency.Observe(seconds)
}

func (m *Metrics) ExecutorObserved(method string, seconds float64) {
	if m == nil {
		return
	}
	m.executorLatency.WithLabelValues(method).Observe(seconds)
}

func (m *Metrics) SweepAttempted(n int) {
	if m == nil {
		return
	}
	m.webhookSweepCount.Add(float64(n))
}
