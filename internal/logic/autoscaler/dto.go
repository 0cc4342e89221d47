package autoscaler

import "time"

// Target represents a scalable workload in the domain layer.
type Target struct {
	Name        string
	Namespace   string
	Annotations map[string]string
	// Replicas is the current desired replica count from the workload spec.
	Replicas int32
	// PodSelector is the label selector matching the workload's pods,
	// used by metric sources to find live replicas.
	PodSelector string
}

// Bounds are the replica bounds a target must stay within after actuation.
type Bounds struct {
	Min int32
	Max int32
}

// AggregationType selects how per-replica samples reduce to one value.
type AggregationType string

const (
	// AggregationUtilization averages usage/request ratios (percent) across replicas.
	AggregationUtilization AggregationType = "utilization"
	// AggregationValue averages raw sample values across replicas.
	AggregationValue AggregationType = "value"
)

// MetricSpec describes one metric a target scales on.
type MetricSpec struct {
	// Name is "cpu", "memory" or "custom".
	Name string
	// Query is the PromQL expression for custom metrics, empty otherwise.
	Query string
	// TargetValue is percent of requested resource for utilization metrics,
	// an absolute per-replica value otherwise. Always > 0.
	TargetValue float64
	Aggregation AggregationType
}

// Sample is one observation for one replica of one metric.
// Created by a MetricSource each poll, consumed by the aggregator, not persisted.
type Sample struct {
	Replica   string
	Metric    string
	Timestamp time.Time
	// Value is the observed amount (cores, bytes, or raw custom value).
	Value float64
	// Capacity is the requested resource amount for utilization metrics;
	// 0 when not applicable.
	Capacity float64
}

// ScalingDecision is the outcome of one evaluation cycle for a target.
type ScalingDecision struct {
	Desired   int32
	Timestamp time.Time
	// Metric names the metric that demanded the most replicas.
	Metric string
}

// ScheduleSpec raises the minimum replica floor while a cron window is active.
type ScheduleSpec struct {
	Cron        string
	TZ          string
	Duration    time.Duration
	MinReplicas int32
}

// TargetConfig is the declarative scaling configuration resolved from
// target annotations for one cycle.
type TargetConfig struct {
	Bounds   Bounds
	Metrics  []MetricSpec
	Schedule *ScheduleSpec
}

// State is the per-target evaluation state. It is owned by the target's
// evaluation and never shared between targets.
type State struct {
	decisions           []ScalingDecision
	periodStart         time.Time
	periodStartReplicas int32
}

// NewState creates an empty per-target state.
func NewState() *State {
	return &State{}
}
