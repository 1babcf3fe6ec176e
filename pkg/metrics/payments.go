package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records webhook and checkout outcomes for operators.
type PaymentMetrics struct {
	webhookEvents  *prometheus.CounterVec
	ordersCreated  *prometheus.CounterVec
	promoRejected  *prometheus.CounterVec
	sideEffectFail *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Processed gateway webhook events by type and outcome.",
	}, []string{"event_type", "outcome"})
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created through checkout by outcome.",
	}, []string{"outcome"})
	promoRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promo_rejections_total",
		Help: "Promo redemptions rejected by reason.",
	}, []string{"reason"})
	sideEffectFail := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "side_effect_failures_total",
		Help: "Best-effort side effects that failed after payment confirmation.",
	}, []string{"effect"})
	reg.MustRegister(webhookEvents, ordersCreated, promoRejected, sideEffectFail)
	return &PaymentMetrics{
		webhookEvents:  webhookEvents,
		ordersCreated:  ordersCreated,
		promoRejected:  promoRejected,
		sideEffectFail: sideEffectFail,
	}
}

// ObserveWebhookEvent counts one processed webhook delivery.
func (m *PaymentMetrics) ObserveWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// ObserveOrderCreated counts one checkout attempt.
func (m *PaymentMetrics) ObserveOrderCreated(outcome string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObservePromoRejection counts a rejected promo redemption.
func (m *PaymentMetrics) ObservePromoRejection(reason string) {
	if m == nil || m.promoRejected == nil {
		return
	}
	m.promoRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveSideEffectFailure counts a failed best-effort side effect.
func (m *PaymentMetrics) ObserveSideEffectFailure(effect string) {
	if m == nil || m.sideEffectFail == nil {
		return
	}
	m.sideEffectFail.WithLabelValues(normalizeLabel(effect)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
