package expreplay

import "github.com/pkg/errors"

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Cause returns the underlying error so that errors.Cause can see
// through an ExpReplayError
func (e *ExpReplayError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying error
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var errEmptyCache = errors.New("cache empty")

var errInsufficientSamples = errors.New("insufficient samples in buffer")

// IsInsufficientSamples returns whether or not an error reports that
// there are insufficient samples in the buffer to sample from the
// buffer. Errors wrapped with github.com/pkg/errors are unwrapped.
//
// A buffer has too few samples to sample if its current size is
// less than the requested batch size.
func IsInsufficientSamples(err error) bool {
	return errors.Cause(err) == errInsufficientSamples
}

// IsEmptyBuffer returns whether or not an error reports that a
// replay buffer is empty.
func IsEmptyBuffer(err error) bool {
	return errors.Cause(err) == errEmptyCache
}
