package k8s

// ConflictError represents an optimistic-concurrency conflict on a scale
// update that survived the internal re-read retry.
type ConflictError struct{}

func (e *ConflictError) Error() string {
	return "scale update conflict"
}

func (e *ConflictError) IsConflict() {}

var errConflict = &ConflictError{}

// TooManyRequestsError represents a "too many requests" case that is not an error.
type TooManyRequestsError struct{}

func (e *TooManyRequestsError) Error() string {
	return "too many requests"
}

func (e *TooManyRequestsError) IsTooManyRequests() {}

var errTooManyRequests = &TooManyRequestsError{}

// TargetNotFoundError represents a "not found" case that is not an error.
type TargetNotFoundError struct{}

func (e *TargetNotFoundError) Error() string {
	return "target not found"
}

func (e *TargetNotFoundError) IsNotFound() {}

var errTargetNotFound = &TargetNotFoundError{}
