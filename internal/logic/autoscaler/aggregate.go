package autoscaler

// aggregate reduces per-replica samples into one current value for the metric.
//
// Utilization metrics average the usage/request ratio (as percent) across
// replicas. Replicas that did not report within the window are simply absent
// from the slice and are excluded from the mean, never treated as zero.
// Replicas without a known request cannot report utilization and are skipped.
func aggregate(samples []Sample, spec MetricSpec) (float64, error) {
	var (
		sum   float64
		count int
	)

	for i := range samples {
		switch spec.Aggregation {
		case AggregationUtilization:
			if samples[i].Capacity <= 0 {
				continue
			}

			sum += samples[i].Value / samples[i].Capacity * percentScale
		default:
			sum += samples[i].Value
		}

		count++
	}

	if count == 0 {
		return 0, ErrInsufficientData
	}

	return sum / float64(count), nil
}
