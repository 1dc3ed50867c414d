// Package expreplay implements a bounded experience replay buffer of
// transitions with FIFO eviction and uniform batch sampling.
package expreplay

import (
	"github.com/gammazero/deque"
	"github.com/pkg/errors"

	"github.com/fiorenza2/RL-Algorithms/timestep"
)

// Store is a fixed-capacity experience replay buffer. When full,
// pushing a new transition evicts exactly the oldest one, so that
// survivors stay in insertion order.
//
// A Store is owned by a single trainer and is not safe for concurrent
// use.
type Store struct {
	data     *deque.Deque[timestep.Transition]
	capacity int
	sampler  Selector
}

// New creates and returns a new Store with the given capacity. Batches
// are sampled uniformly using a source seeded with seed.
func New(capacity int, seed uint64) (*Store, error) {
	return NewWithSelector(capacity, NewUniformSelector(seed))
}

// NewWithSelector creates and returns a new Store which samples
// indices with the given Selector
func NewWithSelector(capacity int, sampler Selector) (*Store, error) {
	if capacity < 1 {
		return nil, errors.Errorf("new: capacity must be > 0 (have %d)",
			capacity)
	}
	if sampler == nil {
		return nil, errors.New("new: sampler must not be nil")
	}

	return &Store{
		data:     deque.New[timestep.Transition](),
		capacity: capacity,
		sampler:  sampler,
	}, nil
}

// Push adds a transition to the buffer, evicting the oldest
// transition first if the buffer is full
func (s *Store) Push(t timestep.Transition) {
	if s.data.Len() == s.capacity {
		s.data.PopFront()
	}
	s.data.PushBack(t)
}

// Sample returns n distinct transitions drawn from the current
// contents of the buffer. If the buffer holds fewer than n
// transitions, an *ExpReplayError is returned which satisfies
// IsInsufficientSamples.
func (s *Store) Sample(n int) ([]timestep.Transition, error) {
	if n < 1 {
		return nil, errors.Errorf("sample: batch size must be > 0 "+
			"(have %d)", n)
	}
	if s.data.Len() == 0 {
		return nil, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if s.data.Len() < n {
		return nil, &ExpReplayError{
			Op:  "sample",
			Err: errors.Wrapf(errInsufficientSamples, "want(%d) have(%d)", n, s.data.Len()),
		}
	}

	indices := s.sampler.choose(n, s.data.Len())
	batch := make([]timestep.Transition, n)
	for i, index := range indices {
		batch[i] = s.data.At(index)
	}
	return batch, nil
}

// SampleBatch samples n transitions and packs them into a Batch
func (s *Store) SampleBatch(n int) (Batch, error) {
	transitions, err := s.Sample(n)
	if err != nil {
		return Batch{}, err
	}
	return NewBatch(transitions)
}

// Len returns the current number of transitions in the buffer
func (s *Store) Len() int {
	return s.data.Len()
}

// Capacity returns the maximum number of transitions in the buffer
func (s *Store) Capacity() int {
	return s.capacity
}

// Contents returns the transitions in the buffer in insertion order,
// oldest first
func (s *Store) Contents() []timestep.Transition {
	out := make([]timestep.Transition, s.data.Len())
	for i := range out {
		out[i] = s.data.At(i)
	}
	return out
}
