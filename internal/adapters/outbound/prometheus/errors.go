package prometheus

// UnavailableError represents a Prometheus endpoint that could not be
// reached or answered abnormally. Recoverable; the caller decides retry cadence.
type UnavailableError struct{}

func (e *UnavailableError) Error() string {
	return "prometheus unavailable"
}

func (e *UnavailableError) IsUnavailable() {}

var errUnavailable = &UnavailableError{}
