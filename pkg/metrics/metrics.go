// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "switchboard"

// Turn outcomes.
const (
	OutcomeAnswered     = "answered"
	OutcomeNoResponse   = "no_response"
	OutcomeToolCall     = "tool_call"
	OutcomeRunFailed    = "run_failed"
	OutcomeTimeout      = "timeout"
	OutcomeError        = "error"
	OutcomeInvalidInput = "invalid_input"
)

// Webhook delivery results.
const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
	DeliverySkipped   = "skipped"
)

var TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "turns_total",
	Help:      "Number of chat turns handled, by outcome",
}, []string{"outcome"})

var RunPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "run_polls_total",
	Help:      "Number of run status fetches issued while waiting on runs",
})

var RunDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "run_duration_seconds",
	Help:      "Time from run creation to a terminal status",
	Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
}, []string{"status"})

var WebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "webhook_deliveries_total",
	Help:      "Number of Teams webhook deliveries, by result",
}, []string{"result"})
