package surety

import "errors"

// Every failure returned by the engine wraps exactly one of these values.
// Callers distinguish them with errors.Is.
var (
	ErrSystemDisabled    = errors.New("system disabled")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrAlreadyExists     = errors.New("already exists")
	ErrNotFound          = errors.New("not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
	ErrInvalidInput      = errors.New("invalid input")
	// ErrFlightClosed is returned for operations that need a flight whose
	// status is still unknown.
	ErrFlightClosed = errors.New("flight status already finalized")
)
