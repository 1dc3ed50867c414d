package expreplay

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Selector implements functionality for choosing which indices of an
// experience replay buffer should be sampled
type Selector interface {
	// choose selects n distinct indices in [0, size)
	choose(n, size int) []int
}

// uniformSelector is a Selector which selects data from an experience
// replay buffer uniformly randomly, without replacement within a
// single batch
type uniformSelector struct {
	src rand.Source
}

// NewUniformSelector returns a new Selector which selects data uniformly
// randomly from an experience replay buffer
func NewUniformSelector(seed uint64) Selector {
	return &uniformSelector{src: rand.NewSource(seed)}
}

// choose selects n distinct indices uniformly at random
func (u *uniformSelector) choose(n, size int) []int {
	selected := make([]int, n)
	sampleuv.WithoutReplacement(selected, size, u.src)
	return selected
}

// fifoSelector selects the oldest n indices in the buffer. It is
// used to drain a buffer in insertion order.
type fifoSelector struct{}

// NewFifoSelector returns a Selector which selects the oldest data in
// the buffer
func NewFifoSelector() Selector {
	return fifoSelector{}
}

// choose selects the first n indices
func (fifoSelector) choose(n, _ int) []int {
	selected := make([]int, n)
	for i := range selected {
		selected[i] = i
	}
	return selected
}
