package preprocess

import "github.com/pkg/errors"

// Observer turns raw observations into agent states. The input
// topology is fixed when the Observer is created: rank 1 observations
// are used as feature vectors, while higher rank observations are
// treated as images and are preprocessed and stacked.
type Observer struct {
	shape []int
	stack *FrameStack
}

// NewObserver returns an Observer for observations of the given shape.
// The parameter k is the number of frames to stack and is ignored for
// feature vector observations.
func NewObserver(shape []int, k int) (*Observer, error) {
	if len(shape) == 0 {
		return nil, errors.New("newObserver: observation shape is empty")
	}

	s := make([]int, len(shape))
	copy(s, shape)
	o := &Observer{shape: s}

	if len(shape) > 1 {
		stack, err := NewFrameStack(k, FrameLen)
		if err != nil {
			return nil, errors.Wrap(err, "newObserver")
		}
		o.stack = stack
	}
	return o, nil
}

// IsImage returns whether observations are treated as images
func (o *Observer) IsImage() bool {
	return o.stack != nil
}

// StateShape returns the shape of the states returned by the Observer,
// either (features) or (K, Size, Size)
func (o *Observer) StateShape() []int {
	if o.IsImage() {
		return []int{o.stack.K(), Size, Size}
	}
	return []int{o.shape[0]}
}

// Reset returns the state for the first observation of an episode
func (o *Observer) Reset(obs []float64) ([]float64, error) {
	if !o.IsImage() {
		return o.vector(obs)
	}

	frame, err := Frame(obs, o.shape)
	if err != nil {
		return nil, err
	}
	if err := o.stack.Reset(frame); err != nil {
		return nil, err
	}
	return o.stack.State(), nil
}

// Observe returns the state after a new observation within an episode
func (o *Observer) Observe(obs []float64) ([]float64, error) {
	if !o.IsImage() {
		return o.vector(obs)
	}

	frame, err := Frame(obs, o.shape)
	if err != nil {
		return nil, err
	}
	if err := o.stack.Push(frame); err != nil {
		return nil, err
	}
	return o.stack.State(), nil
}

func (o *Observer) vector(obs []float64) ([]float64, error) {
	if len(obs) != o.shape[0] {
		return nil, errors.Errorf("observe: invalid observation length"+
			"\n\twant(%d)\n\thave(%d)", o.shape[0], len(obs))
	}
	state := make([]float64, len(obs))
	copy(state, obs)
	return state, nil
}
