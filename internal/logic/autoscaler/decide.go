package autoscaler

import (
	"math"
	"time"
)

// defaultTolerance is the no-action band around the target value: when the
// observed/target ratio is within it, the current replica count stands.
const defaultTolerance = 0.1

// metricValue pairs a metric spec with its aggregated current value.
type metricValue struct {
	spec  MetricSpec
	value float64
}

// desiredForMetric computes the replica count one metric demands.
// Fractions round up to avoid under-provisioning.
func desiredForMetric(current int32, value float64, spec MetricSpec) int32 {
	ratio := value / spec.TargetValue
	if math.Abs(ratio-1.0) <= defaultTolerance {
		return current
	}

	return int32(math.Ceil(float64(current) * ratio))
}

// decide computes the desired replica count across all configured metrics.
// Each metric votes independently; the most demanding one wins. The result
// is clamped to the target's bounds.
func decide(
	now time.Time,
	current int32,
	values []metricValue,
	bounds Bounds,
) ScalingDecision {
	decision := ScalingDecision{
		Desired:   current,
		Timestamp: now,
	}

	for i := range values {
		desired := desiredForMetric(current, values[i].value, values[i].spec)
		if i == 0 || desired > decision.Desired {
			decision.Desired = desired
			decision.Metric = values[i].spec.Name
		}
	}

	decision.Desired = clamp(decision.Desired, bounds)

	return decision
}

func clamp(replicas int32, bounds Bounds) int32 {
	if replicas < bounds.Min {
		return bounds.Min
	}

	if replicas > bounds.Max {
		return bounds.Max
	}

	return replicas
}
