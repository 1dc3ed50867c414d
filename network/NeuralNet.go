// Package network implements the action-value approximators used by
// agents. Each network owns a Gorgonia computational graph with an
// input node of a fixed batch size.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a differentiable function approximator built on a
// Gorgonia computational graph. The input node is set with SetInput,
// the graph is run by a VM owned by the caller, and the predictions
// are then available through Output.
type NeuralNet interface {
	Graph() *G.ExprGraph
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int

	// Features returns the number of input values for a single sample
	Features() int
	Outputs() int
	SetInput([]float64) error

	// Set copies the parameters of the argument network into the
	// receiver. After Set, both networks hold bit-identical parameters.
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Prediction() *G.Node
	Output() G.Value
	Topology() Topology
}

// Kind denotes the architecture family of a network
type Kind string

const (
	MLP Kind = "mlp"
	CNN Kind = "cnn"
)

// Topology describes the architecture of a network independent of its
// batch size and parameter values. It is recorded in checkpoints so
// that parameters are only ever loaded into a matching network.
type Topology struct {
	Kind    Kind
	Inputs  []int // Shape of a single input sample
	Hidden  []int
	Outputs int
}

// Equal returns whether two topologies describe the same architecture
func (t Topology) Equal(other Topology) bool {
	return t.Kind == other.Kind && t.Outputs == other.Outputs &&
		equalInts(t.Inputs, other.Inputs) && equalInts(t.Hidden, other.Hidden)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
