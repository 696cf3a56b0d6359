package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics tracks reconciliation outcomes and gateway calls.
type PaymentMetrics struct {
	confirmations *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	gatewayCalls  *prometheus.HistogramVec
}

// NewPaymentMetrics registers payment metrics on reg. A nil registerer yields no-op metrics.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopconsole_payment_confirmations_total",
		Help: "Payment confirmations applied, by source and outcome.",
	}, []string{"source", "outcome"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopconsole_webhook_deliveries_total",
		Help: "Gateway webhook deliveries, by result.",
	}, []string{"result"})
	gatewayCalls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopconsole_gateway_call_duration_seconds",
		Help:    "Latency of payment gateway API calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})
	reg.MustRegister(confirmations, webhooks, gatewayCalls)
	return &PaymentMetrics{confirmations: confirmations, webhooks: webhooks, gatewayCalls: gatewayCalls}
}

// IncConfirmation counts one ApplyPaymentConfirmation outcome.
func (m *PaymentMetrics) IncConfirmation(source, outcome string) {
	if m == nil || m.confirmations == nil {
		return
	}
	m.confirmations.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// IncWebhook counts one webhook delivery by result.
func (m *PaymentMetrics) IncWebhook(result string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveGatewayCall records a gateway call latency.
func (m *PaymentMetrics) ObserveGatewayCall(operation string, err error, duration time.Duration) {
	if m == nil || m.gatewayCalls == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.gatewayCalls.WithLabelValues(normalizeLabel(operation), result).Observe(duration.Seconds())
}
