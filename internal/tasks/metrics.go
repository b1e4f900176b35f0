package tasks

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// queueDepth is only written from the shard's own worker goroutine.
var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wellness_agent",
			Subsystem: "tasks",
			Name:      "submissions_total",
			Help:      "Jobs accepted for execution.",
		},
		[]string{"shard"},
	)

	queueFullTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wellness_agent",
			Subsystem: "tasks",
			Name:      "queue_full_total",
			Help:      "Enqueue attempts that timed out on a full shard.",
		},
		[]string{"shard"},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wellness_agent",
			Subsystem: "tasks",
			Name:      "failures_total",
			Help:      "Jobs that failed after their last attempt.",
		},
		[]string{"shard"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wellness_agent",
			Subsystem: "tasks",
			Name:      "run_duration_seconds",
			Help:      "Job attempt latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"shard"},
	)

	queueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wellness_agent",
			Subsystem: "tasks",
			Name:      "queue_depth",
			Help:      "Current depth of each shard.",
		},
		[]string{"shard"},
	)
)

func labelFor(i int) string { return strconv.Itoa(i) }
