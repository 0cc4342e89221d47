package autoscaler

import (
	"context"
	"time"
)

// ScaleRepository is the port interface for workload discovery and actuation.
// Implementations are provided by adapters in the outbound layer.
type ScaleRepository interface {
	ListTargetsQuery(
		ctx context.Context,
		labelSelector string,
	) ([]Target, error)

	// ApplyScaleCommand sets the desired replica count. It must be idempotent
	// and use optimistic concurrency: on a conflicting concurrent change it
	// re-reads once and retries, then surfaces a conflict error.
	ApplyScaleCommand(
		ctx context.Context,
		namespace,
		name string,
		replicas int32,
	) error

	SetAnnotationCommand(
		ctx context.Context,
		namespace,
		name string,
		key,
		value string,
	) error
}

// MetricSource is the port interface for per-replica telemetry.
// Poll returns one Sample per live replica for the given metric, or fails
// when the backing system cannot be reached. It never retries internally.
type MetricSource interface {
	Name() string

	Poll(
		ctx context.Context,
		target Target,
		spec MetricSpec,
	) ([]Sample, error)
}

// CronNexter computes the next cron occurrence after a point in time.
type CronNexter interface {
	NextAfter(spec, tz string, after time.Time) (time.Time, error)
}

// notFound is a private interface for checking "not found" errors
// without importing the adapter package.
type notFound interface {
	IsNotFound()
}

// conflict is a private interface for checking optimistic-concurrency
// conflicts without importing the adapter package.
type conflict interface {
	IsConflict()
}

// tooManyRequests is a private interface for checking "too many requests"
// errors without importing the adapter package.
type tooManyRequests interface {
	IsTooManyRequests()
}

// unavailable is a private interface for checking telemetry outages
// without importing the adapter package.
type unavailable interface {
	IsUnavailable()
}
