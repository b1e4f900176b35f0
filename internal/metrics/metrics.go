// Package metrics holds the agent's Prometheus collectors. Collectors are
// registered on the default registry and exposed by the API under /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wellness_agent"

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "turns_total",
		Help:      "Conversation turns processed, labeled by outcome.",
	}, []string{"outcome"})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "phase_duration_seconds",
		Help:      "Latency of each pipeline phase.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"phase"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "fallbacks_total",
		Help:      "Stages that degraded to their fallback result, labeled by stage.",
	}, []string{"stage"})

	timeUnresolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "actions",
		Name:      "time_unresolved_total",
		Help:      "Natural-language time fields that could not be resolved and were dropped.",
	}, []string{"field"})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "actions",
		Name:      "executed_total",
		Help:      "Executed actions, labeled by operation and result.",
	}, []string{"operation", "result"})

	embedFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "retrieval",
		Name:      "embed_failures_total",
		Help:      "Query embeddings that failed and were replaced by a zero vector.",
	})

	outboxTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "messages_total",
		Help:      "Outbox messages handled, labeled by op and result (done, retry, dead).",
	}, []string{"op", "result"})

	panicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "panics_recovered_total",
		Help:      "Handler panics turned into 500 responses, labeled by route template.",
	}, []string{"route"})

	outboxLastDone = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "last_done_timestamp_seconds",
		Help:      "Unix timestamp of the most recent outbox message completed.",
	})
)

// Turn outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

func ObserveTurn(outcome string) { turnsTotal.WithLabelValues(outcome).Inc() }

func ObservePhase(phase string, d time.Duration) {
	phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// IncFallback counts a stage (intent, reasoning) that returned its fallback.
func IncFallback(stage string) { fallbacksTotal.WithLabelValues(stage).Inc() }

func IncTimeUnresolved(field string) { timeUnresolvedTotal.WithLabelValues(field).Inc() }

func ObserveAction(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	actionsTotal.WithLabelValues(operation, result).Inc()
}

func IncEmbedFailure() { embedFailuresTotal.Inc() }

func IncPanic(route string) { panicsTotal.WithLabelValues(route).Inc() }

func ObserveOutbox(op, result string, at time.Time) {
	outboxTotal.WithLabelValues(op, result).Inc()
	if result == "done" && !at.IsZero() {
		outboxLastDone.Set(float64(at.Unix()))
	}
}
