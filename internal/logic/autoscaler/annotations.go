package autoscaler

import (
	"fmt"
	"strconv"
	"time"
)

const defaultScheduleDuration = 1 * time.Hour

// resolveTargetConfig builds the declarative scaling configuration for one
// cycle from the target's annotations. A resolution error rejects only this
// target; the rest of the fleet keeps evaluating.
func resolveTargetConfig(target Target) (*TargetConfig, error) {
	bounds, err := resolveBounds(target.Annotations)
	if err != nil {
		return nil, err
	}

	specs, err := resolveMetricSpecs(target.Annotations)
	if err != nil {
		return nil, err
	}

	sched, err := resolveSchedule(target.Annotations)
	if err != nil {
		return nil, err
	}

	return &TargetConfig{
		Bounds:   bounds,
		Metrics:  specs,
		Schedule: sched,
	}, nil
}

func resolveBounds(annotations map[string]string) (Bounds, error) {
	bounds := Bounds{Min: 1}

	if minStr, ok := annotations[AnnotationMinReplicasKey]; ok {
		minReplicas, err := parseReplicas(minStr)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: %s: %w", ErrBoundsParse, AnnotationMinReplicasKey, err)
		}

		bounds.Min = minReplicas
	}

	maxStr, ok := annotations[AnnotationMaxReplicasKey]
	if !ok {
		return Bounds{}, fmt.Errorf(
			"%w: annotation %s not found",
			ErrBoundsParse,
			AnnotationMaxReplicasKey,
		)
	}

	maxReplicas, err := parseReplicas(maxStr)
	if err != nil {
		return Bounds{}, fmt.Errorf("%w: %s: %w", ErrBoundsParse, AnnotationMaxReplicasKey, err)
	}

	bounds.Max = maxReplicas

	if bounds.Min < 1 || bounds.Max < bounds.Min {
		return Bounds{}, fmt.Errorf(
			"%w: min=%d max=%d",
			ErrInvalidBounds,
			bounds.Min,
			bounds.Max,
		)
	}

	return bounds, nil
}

func resolveMetricSpecs(annotations map[string]string) ([]MetricSpec, error) {
	specs := make([]MetricSpec, 0, 3)

	if cpuStr, ok := annotations[AnnotationTargetCPUKey]; ok {
		target, err := parseTargetValue(cpuStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMetricSpecParse, AnnotationTargetCPUKey, err)
		}

		specs = append(specs, MetricSpec{
			Name:        MetricCPU,
			TargetValue: target,
			Aggregation: AggregationUtilization,
		})
	}

	if memStr, ok := annotations[AnnotationTargetMemoryKey]; ok {
		target, err := parseTargetValue(memStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMetricSpecParse, AnnotationTargetMemoryKey, err)
		}

		specs = append(specs, MetricSpec{
			Name:        MetricMemory,
			TargetValue: target,
			Aggregation: AggregationUtilization,
		})
	}

	if query, ok := annotations[AnnotationMetricQueryKey]; ok {
		valueStr, ok := annotations[AnnotationMetricTargetValueKey]
		if !ok {
			return nil, fmt.Errorf(
				"%w: annotation %s set without %s",
				ErrMetricSpecParse,
				AnnotationMetricQueryKey,
				AnnotationMetricTargetValueKey,
			)
		}

		target, err := parseTargetValue(valueStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMetricSpecParse, AnnotationMetricTargetValueKey, err)
		}

		specs = append(specs, MetricSpec{
			Name:        MetricCustom,
			Query:       query,
			TargetValue: target,
			Aggregation: AggregationValue,
		})
	}

	if len(specs) == 0 {
		return nil, ErrNoMetricSpecs
	}

	return specs, nil
}

func resolveSchedule(annotations map[string]string) (*ScheduleSpec, error) {
	cronSpec, ok := annotations[AnnotationScheduleKey]
	if !ok {
		return nil, nil
	}

	minStr, ok := annotations[AnnotationScheduleMinReplicasKey]
	if !ok {
		return nil, fmt.Errorf(
			"%w: annotation %s set without %s",
			ErrScheduleParse,
			AnnotationScheduleKey,
			AnnotationScheduleMinReplicasKey,
		)
	}

	minReplicas, err := parseReplicas(minStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrScheduleParse, AnnotationScheduleMinReplicasKey, err)
	}

	duration := defaultScheduleDuration

	if durStr, ok := annotations[AnnotationScheduleDurationKey]; ok {
		duration, err = time.ParseDuration(durStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrScheduleParse, AnnotationScheduleDurationKey, err)
		}

		if duration <= 0 {
			return nil, fmt.Errorf("%w: duration must be positive", ErrScheduleParse)
		}
	}

	return &ScheduleSpec{
		Cron:        cronSpec,
		TZ:          annotations[AnnotationTZKey],
		Duration:    duration,
		MinReplicas: minReplicas,
	}, nil
}

func parseReplicas(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}

	if n < 0 {
		return 0, fmt.Errorf("negative replica count %d", n)
	}

	return int32(n), nil
}

func parseTargetValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	if v <= 0 {
		return 0, fmt.Errorf("target value must be positive, got %v", v)
	}

	return v, nil
}
