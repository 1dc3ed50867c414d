package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// New creates a network for inputs of the given shape in graph g. Rank
// 1 inputs produce an MLP with the given hidden layers, each with a
// bias unit and activation act, which defaults to ReLU. Rank 3 inputs of shape
// (frames, size, size) produce a convolutional network, in which case
// hidden and act are ignored.
func New(inputShape []int, batch, outputs int, g *G.ExprGraph,
	hidden []int, act *Activation, init G.InitWFn) (NeuralNet, error) {
	if act == nil {
		act = ReLU()
	}

	switch len(inputShape) {
	case 1:
		biases := make([]bool, len(hidden))
		acts := make([]*Activation, len(hidden))
		for i := range hidden {
			biases[i] = true
			acts[i] = act
		}
		return NewMultiHeadMLP(inputShape[0], batch, outputs, g, hidden,
			biases, init, acts)

	case 3:
		if inputShape[1] != inputShape[2] {
			return nil, fmt.Errorf("new: frames must be square (have %v)",
				inputShape)
		}
		return NewConvNet(inputShape[0], inputShape[1], batch, outputs, g,
			init)

	default:
		return nil, fmt.Errorf("new: unsupported input shape %v", inputShape)
	}
}
