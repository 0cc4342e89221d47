package metricsapi

// UnavailableError represents a telemetry backend that could not be reached.
// Recoverable; the caller decides retry cadence.
type UnavailableError struct{}

func (e *UnavailableError) Error() string {
	return "metrics API unavailable"
}

func (e *UnavailableError) IsUnavailable() {}

var errUnavailable = &UnavailableError{}
