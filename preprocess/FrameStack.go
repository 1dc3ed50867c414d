package preprocess

import (
	"github.com/gammazero/deque"
	"github.com/pkg/errors"
)

// FrameStack holds the most recent K frames. Once K frames have been
// seen, pushing a new frame drops the oldest.
type FrameStack struct {
	frames   *deque.Deque[[]float64]
	k        int
	frameLen int
}

// NewFrameStack returns a new FrameStack of k frames, each of length
// frameLen
func NewFrameStack(k, frameLen int) (*FrameStack, error) {
	if k < 1 {
		return nil, errors.Errorf("newFrameStack: k must be > 0 (have %d)",
			k)
	}
	if frameLen < 1 {
		return nil, errors.Errorf("newFrameStack: frame length must be > 0 "+
			"(have %d)", frameLen)
	}

	return &FrameStack{
		frames:   deque.New[[]float64](k),
		k:        k,
		frameLen: frameLen,
	}, nil
}

// Reset clears the stack and fills every slot with a copy of the first
// frame of an episode
func (f *FrameStack) Reset(frame []float64) error {
	if len(frame) != f.frameLen {
		return f.lengthError("reset", frame)
	}

	f.frames.Clear()
	for i := 0; i < f.k; i++ {
		f.frames.PushBack(copyFrame(frame))
	}
	return nil
}

// Push appends the newest frame, dropping the oldest once K frames
// are held
func (f *FrameStack) Push(frame []float64) error {
	if len(frame) != f.frameLen {
		return f.lengthError("push", frame)
	}

	if f.frames.Len() == f.k {
		f.frames.PopFront()
	}
	f.frames.PushBack(copyFrame(frame))
	return nil
}

// State returns the stacked frames, oldest first, as a new slice of
// length K * frameLen
func (f *FrameStack) State() []float64 {
	state := make([]float64, 0, f.k*f.frameLen)
	for i := 0; i < f.frames.Len(); i++ {
		state = append(state, f.frames.At(i)...)
	}
	return state
}

// Len returns the number of frames currently held
func (f *FrameStack) Len() int {
	return f.frames.Len()
}

// K returns the number of frames in a full stack
func (f *FrameStack) K() int {
	return f.k
}

func (f *FrameStack) lengthError(op string, frame []float64) error {
	return errors.Errorf("%s: invalid frame length\n\twant(%d)\n\thave(%d)",
		op, f.frameLen, len(frame))
}

func copyFrame(frame []float64) []float64 {
	out := make([]float64, len(frame))
	copy(out, frame)
	return out
}
