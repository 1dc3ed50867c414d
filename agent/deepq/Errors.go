package deepq

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/fiorenza2/RL-Algorithms/expreplay"
)

// NotReadyError is returned when learning is requested with fewer
// transitions than the batch size
type NotReadyError struct {
	Op   string
	Have int
	Want int
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s: not enough transitions to learn\n\twant(%d)"+
		"\n\thave(%d)", e.Op, e.Want, e.Have)
}

// IsNotReady returns whether err reports that there is not yet enough
// data to learn, either from the agent or from the replay buffer
func IsNotReady(err error) bool {
	var notReady *NotReadyError
	if errors.As(err, &notReady) {
		return true
	}
	return expreplay.IsInsufficientSamples(err) || expreplay.IsEmptyBuffer(err)
}

// CheckpointError is returned when a checkpoint cannot be written, is
// missing, or is incompatible with the agent
type CheckpointError struct {
	Op   string
	Path string
	Err  error
}

func (e *CheckpointError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Cause returns the underlying error
func (e *CheckpointError) Cause() error {
	return e.Err
}

// Unwrap returns the underlying error
func (e *CheckpointError) Unwrap() error {
	return e.Err
}

// IsCheckpointError returns whether err is or wraps a CheckpointError
func IsCheckpointError(err error) bool {
	var ckpt *CheckpointError
	return errors.As(err, &ckpt)
}

var (
	errBadMagic   = errors.New("not a checkpoint file")
	errBadVersion = errors.New("unsupported checkpoint version")
	errTopology   = errors.New("network topology mismatch")
	errShape      = errors.New("parameter shape mismatch")
)
