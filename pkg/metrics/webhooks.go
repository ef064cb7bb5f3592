package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics counts inbound webhook deliveries and the mapping outcomes
// they produce.
type WebhookMetrics struct {
	received *prometheus.CounterVec
	mappings *prometheus.CounterVec
}

// NewWebhookMetrics registers the inbound webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhooks_received_total",
		Help: "Inbound webhooks by source, topic and result.",
	}, []string{"source", "topic", "result"})
	mappings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mapping_outcomes_total",
		Help: "Mapping engine runs by topic and outcome.",
	}, []string{"topic", "outcome"})
	reg.MustRegister(received, mappings)
	return &WebhookMetrics{received: received, mappings: mappings}
}

// Observe counts one delivery.
func (m *WebhookMetrics) Observe(source, topic, result string) {
	if m == nil || m.received == nil {
		return
	}
	m.received.WithLabelValues(normalizeLabel(source), normalizeLabel(topic), normalizeLabel(result)).Inc()
}

// ObserveMapping counts one mapping engine run.
func (m *WebhookMetrics) ObserveMapping(topic, outcome string) {
	if m == nil || m.mappings == nil {
		return
	}
	m.mappings.WithLabelValues(normalizeLabel(topic), normalizeLabel(outcome)).Inc()
}
