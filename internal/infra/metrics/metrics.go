package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var evaluationTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoscaler_evaluation_total",
		Help: "Total number of evaluation cycles started per target.",
	},
	[]string{"namespace", "target"},
)

var cycleSkippedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoscaler_cycle_skipped_total",
		Help: "Total number of evaluation cycles skipped without actuation, by reason " +
			"(metric_unavailable, insufficient_data, error).",
	},
	[]string{"namespace", "target", "reason"},
)

var actuationConflictTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoscaler_actuation_conflict_total",
		Help: "Total number of scale updates lost to a concurrent external change " +
			"after the internal retry.",
	},
	[]string{"namespace", "target"},
)

var scaleDownSuppressedTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoscaler_scale_down_suppressed_total",
		Help: "Total number of decreases dampened by the stabilization window or " +
			"the scale-down rate limiter.",
	},
	[]string{"namespace", "target"},
)

var scaleTotal = promauto.With(prometheus.DefaultRegisterer).NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoscaler_scale_total",
		Help: "Total number of successful scale actuations, by direction.",
	},
	[]string{"namespace", "target", "direction"},
)

var currentReplicas = promauto.With(prometheus.DefaultRegisterer).NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "autoscaler_current_replicas",
		Help: "Replica count observed on the workload at the last evaluation.",
	},
	[]string{"namespace", "target"},
)

var desiredReplicas = promauto.With(prometheus.DefaultRegisterer).NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "autoscaler_desired_replicas",
		Help: "Stabilized desired replica count computed at the last evaluation.",
	},
	[]string{"namespace", "target"},
)

// RecordEvaluation increments the evaluation counter for a target.
func RecordEvaluation(namespace, target string) {
	evaluationTotal.WithLabelValues(namespace, target).Inc()
}

// RecordCycleSkipped increments the skipped-cycle counter for a target with the reason.
func RecordCycleSkipped(namespace, target, reason string) {
	cycleSkippedTotal.WithLabelValues(namespace, target, reason).Inc()
}

// RecordActuationConflict increments the conflict counter for a target.
func RecordActuationConflict(namespace, target string) {
	actuationConflictTotal.WithLabelValues(namespace, target).Inc()
}

// RecordScaleDownSuppressed increments the suppressed scale-down counter for a target.
func RecordScaleDownSuppressed(namespace, target string) {
	scaleDownSuppressedTotal.WithLabelValues(namespace, target).Inc()
}

// RecordScale increments the scale counter with the direction of the change.
func RecordScale(namespace, target string, from, to int32) {
	direction := "up"
	if to < from {
		direction = "down"
	}

	scaleTotal.WithLabelValues(namespace, target, direction).Inc()
}

// SetReplicas records the observed and desired replica gauges for a target.
func SetReplicas(namespace, target string, current, desired int32) {
	currentReplicas.WithLabelValues(namespace, target).Set(float64(current))
	desiredReplicas.WithLabelValues(namespace, target).Set(float64(desired))
}
