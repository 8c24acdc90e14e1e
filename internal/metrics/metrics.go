package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	LabelSuccess   string = "success"
	LabelRetryable string = "retryable"
	LabelFailure   string = "failure"
	LabelFatal     string = "fatal"
)

var (
	actionMetric = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibana_migration_action_total",
			Help: "Number of migration action invocations by result",
		}, []string{"action", "result"},
	)

	actionDurationMetric = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kibana_migration_action_duration_seconds",
			Help:    "Duration of a single migration action invocation",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"action"},
	)

	retriesExhaustedMetric = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kibana_migration_retries_exhausted_total",
			Help: "Number of times an action was abandoned after exhausting its retry budget",
		}, []string{"action"},
	)
)

// RegisterCustomMetrics registers the migration metrics with reg.
func RegisterCustomMetrics(reg prometheus.Registerer) error {
	metricCollectors := []prometheus.Collector{
		actionMetric,
		actionDurationMetric,
		retriesExhaustedMetric,
	}

	for _, metric := range metricCollectors {
		if err := reg.Register(metric); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAction records one invocation of action with its result label and
// duration.
func ObserveAction(action, result string, duration time.Duration) {
	actionMetric.With(prometheus.Labels{
		"action": action,
		"result": result,
	}).Inc()

	actionDurationMetric.With(prometheus.Labels{
		"action": action,
	}).Observe(duration.Seconds())
}

func IncrementRetriesExhausted(action string) {
	retriesExhaustedMetric.With(prometheus.Labels{
		"action": action,
	}).Inc()
}

// ActionCount returns the current count for action and result.
func ActionCount(action, result string) prometheus.Counter {
	return actionMetric.With(prometheus.Labels{
		"action": action,
		"result": result,
	})
}

func RetriesExhausted(action string) prometheus.Counter {
	return retriesExhaustedMetric.With(prometheus.Labels{
		"action": action,
	})
}
