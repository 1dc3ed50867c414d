package network

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// setInput sets the value of an input node, which must hold want values
func setInput(node *G.Node, input []float64, want int) error {
	if len(input) != want {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", want, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(node.Shape()...),
	)
	return G.Let(node, inputTensor)
}

// values returns the backing data of a learnable node
func values(node *G.Node) ([]float64, error) {
	if node.Value() == nil {
		return nil, fmt.Errorf("node %v has no value", node.Name())
	}
	data, ok := node.Value().Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("node %v does not hold float64 data",
			node.Name())
	}
	return data, nil
}

// copyLearnables copies the values of src into dest in place. The
// nodes must match in number and shape.
func copyLearnables(dest, src G.Nodes) error {
	if len(dest) != len(src) {
		return fmt.Errorf("set: invalid number of learnables\n\twant(%d)"+
			"\n\thave(%d)", len(dest), len(src))
	}

	for i := range dest {
		if !dest[i].Shape().Eq(src[i].Shape()) {
			return fmt.Errorf("set: learnable %d has incompatible shape"+
				"\n\twant(%v)\n\thave(%v)", i, dest[i].Shape(),
				src[i].Shape())
		}

		d, err := values(dest[i])
		if err != nil {
			return fmt.Errorf("set: %v", err)
		}
		s, err := values(src[i])
		if err != nil {
			return fmt.Errorf("set: %v", err)
		}
		copy(d, s)
	}
	return nil
}

// Parameters returns a copy of the parameters of a network, one slice
// per learnable node in the order given by Learnables
func Parameters(net NeuralNet) ([][]float64, error) {
	learnables := net.Learnables()
	params := make([][]float64, len(learnables))
	for i, node := range learnables {
		data, err := values(node)
		if err != nil {
			return nil, fmt.Errorf("parameters: %v", err)
		}
		params[i] = append([]float64{}, data...)
	}
	return params, nil
}

// Shapes returns the shapes of the learnable nodes of a network
func Shapes(net NeuralNet) [][]int {
	learnables := net.Learnables()
	shapes := make([][]int, len(learnables))
	for i, node := range learnables {
		shapes[i] = append([]int{}, node.Shape()...)
	}
	return shapes
}

// Names returns the names of the learnable nodes of a network
func Names(net NeuralNet) []string {
	learnables := net.Learnables()
	names := make([]string, len(learnables))
	for i, node := range learnables {
		names[i] = node.Name()
	}
	return names
}

// SetParameters overwrites the parameters of a network in place. The
// params must be ordered as the network's Learnables.
func SetParameters(net NeuralNet, params [][]float64) error {
	learnables := net.Learnables()
	if len(params) != len(learnables) {
		return fmt.Errorf("setParameters: invalid number of parameter "+
			"blocks\n\twant(%d)\n\thave(%d)", len(learnables), len(params))
	}

	for i, node := range learnables {
		data, err := values(node)
		if err != nil {
			return fmt.Errorf("setParameters: %v", err)
		}
		if len(data) != len(params[i]) {
			return fmt.Errorf("setParameters: block %d has invalid length"+
				"\n\twant(%d)\n\thave(%d)", i, len(data), len(params[i]))
		}
		copy(data, params[i])
	}
	return nil
}

// Equal returns whether two networks hold bit-identical parameters
func Equal(a, b NeuralNet) bool {
	la, lb := a.Learnables(), b.Learnables()
	if len(la) != len(lb) {
		return false
	}

	for i := range la {
		da, err := values(la[i])
		if err != nil {
			return false
		}
		db, err := values(lb[i])
		if err != nil || len(da) != len(db) {
			return false
		}
		for j := range da {
			if math.Float64bits(da[j]) != math.Float64bits(db[j]) {
				return false
			}
		}
	}
	return true
}

// OutputData returns a copy of the values produced by the last run of
// the network's graph
func OutputData(net NeuralNet) ([]float64, error) {
	out := net.Output()
	if out == nil {
		return nil, fmt.Errorf("outputData: network has not been run")
	}
	data, ok := out.Data().([]float64)
	if !ok {
		return nil, fmt.Errorf("outputData: output is not float64 data")
	}
	return append([]float64{}, data...), nil
}
