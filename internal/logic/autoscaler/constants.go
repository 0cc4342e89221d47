package autoscaler

const (
	AutoscalerTargetLabelSelector = "autoscaler.beta.k8s.skillcoder.com/enabled=true"

	AnnotationMinReplicasKey          = "autoscaler.beta.k8s.skillcoder.com/min-replicas"
	AnnotationMaxReplicasKey          = "autoscaler.beta.k8s.skillcoder.com/max-replicas"
	AnnotationTargetCPUKey            = "autoscaler.beta.k8s.skillcoder.com/target-cpu-utilization"
	AnnotationTargetMemoryKey         = "autoscaler.beta.k8s.skillcoder.com/target-memory-utilization"
	AnnotationMetricQueryKey          = "autoscaler.beta.k8s.skillcoder.com/metric-query"
	AnnotationMetricTargetValueKey    = "autoscaler.beta.k8s.skillcoder.com/metric-target-value"
	AnnotationScheduleKey             = "autoscaler.beta.k8s.skillcoder.com/min-replicas-schedule"
	AnnotationScheduleDurationKey     = "autoscaler.beta.k8s.skillcoder.com/schedule-duration"
	AnnotationScheduleMinReplicasKey  = "autoscaler.beta.k8s.skillcoder.com/schedule-min-replicas"
	AnnotationTZKey                   = "autoscaler.beta.k8s.skillcoder.com/tz"
	AnnotationLastScaleKey            = "autoscaler.beta.k8s.skillcoder.com/last-scale"

	// metric names used for resource specs and in decision logging
	MetricCPU    = "cpu"
	MetricMemory = "memory"
	MetricCustom = "custom"

	// percentScale is the divisor for percentage values (e.g. 80% -> 80/100).
	percentScale = 100
)
