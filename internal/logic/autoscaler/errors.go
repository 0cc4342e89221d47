package autoscaler

import "errors"

var (
	// ErrMetricUnavailable means the backing telemetry system could not be
	// reached. The cycle is skipped; the next tick retries.
	ErrMetricUnavailable = errors.New("metric unavailable")

	// ErrInsufficientData means no replica reported a usable sample.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrActuationConflict means a concurrent external change raced the scale
	// update and the internal re-read retry also failed.
	ErrActuationConflict = errors.New("actuation conflict")

	ErrBoundsParse     = errors.New("parse replica bounds")
	ErrInvalidBounds   = errors.New("invalid replica bounds")
	ErrMetricSpecParse = errors.New("parse metric spec")
	ErrNoMetricSpecs   = errors.New("no metric specs configured")
	ErrScheduleParse   = errors.New("parse schedule")
	ErrApplyScale      = errors.New("apply scale")
)
