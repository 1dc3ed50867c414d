package network

import (
	"testing"

	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

// run runs the graph of net on input and returns a copy of its output
func run(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	require.NoError(t, net.SetInput(input))
	require.NoError(t, vm.RunAll())
	out, err := OutputData(net)
	require.NoError(t, err)
	return out
}

func newMLP(t *testing.T, batch int) NeuralNet {
	t.Helper()
	net, err := New([]int{3}, batch, 2, G.NewGraph(), []int{8, 4}, ReLU(),
		G.GlorotU(1.0))
	require.NoError(t, err)
	return net
}

func TestMultiHeadMLPShapes(t *testing.T) {
	net := newMLP(t, 5)
	require.Equal(t, 5, net.BatchSize())
	require.Equal(t, 3, net.Features())
	require.Equal(t, 2, net.Outputs())

	// Two hidden layers plus the output layer, each with a bias
	require.Len(t, net.Learnables(), 6)
	require.Len(t, net.Model(), 6)
	require.Equal(t, [][]int{{3, 8}, {1, 8}, {8, 4}, {1, 4}, {4, 2}, {1, 2}},
		Shapes(net))

	top := net.Topology()
	require.Equal(t, MLP, top.Kind)
	require.True(t, top.Equal(Topology{Kind: MLP, Inputs: []int{3},
		Hidden: []int{8, 4}, Outputs: 2}))

	out := run(t, net, make([]float64, 15))
	require.Len(t, out, 10)
}

func TestMultiHeadMLPInvalid(t *testing.T) {
	g := G.NewGraph()
	_, err := NewMultiHeadMLP(3, 1, 2, g, []int{4}, []bool{true}, G.Zeroes(),
		nil)
	require.Error(t, err)

	_, err = NewMultiHeadMLP(3, 1, 2, g, []int{4}, nil, G.Zeroes(),
		[]*Activation{ReLU()})
	require.Error(t, err)

	_, err = New([]int{3, 4}, 1, 2, g, nil, ReLU(), G.Zeroes())
	require.Error(t, err)

	net := newMLP(t, 1)
	require.Error(t, net.SetInput([]float64{1}))
}

func TestCloneWithBatchCopiesParameters(t *testing.T) {
	net := newMLP(t, 1)
	clone, err := net.CloneWithBatch(4)
	require.NoError(t, err)

	require.Equal(t, 4, clone.BatchSize())
	require.True(t, Equal(net, clone))
	require.NotSame(t, net.Graph(), clone.Graph())

	// The same sample must produce the same prediction in both networks
	sample := []float64{0.1, -0.2, 0.3}
	single := run(t, net, sample)

	batch := make([]float64, 0, 12)
	for i := 0; i < 4; i++ {
		batch = append(batch, sample...)
	}
	outs := run(t, clone, batch)
	for i := 0; i < 4; i++ {
		require.InDeltaSlice(t, single, outs[2*i:2*i+2], 1e-12)
	}
}

func TestSetDoesNotAlias(t *testing.T) {
	a := newMLP(t, 1)
	b := newMLP(t, 1)
	require.False(t, Equal(a, b))

	require.NoError(t, b.Set(a))
	require.True(t, Equal(a, b))

	params, err := Parameters(a)
	require.NoError(t, err)
	params[0][0] += 1.0
	require.NoError(t, SetParameters(a, params))
	require.False(t, Equal(a, b))
}

func TestSetParametersInvalid(t *testing.T) {
	net := newMLP(t, 1)
	require.Error(t, SetParameters(net, [][]float64{{1}}))

	params, err := Parameters(net)
	require.NoError(t, err)
	params[1] = params[1][:1]
	require.Error(t, SetParameters(net, params))

	other, err := New([]int{4}, 1, 2, G.NewGraph(), []int{8, 4}, ReLU(),
		G.GlorotU(1.0))
	require.NoError(t, err)
	require.Error(t, net.Set(other))
}

func TestConvNet(t *testing.T) {
	const (
		frames = 2
		size   = 36
		batch  = 2
	)
	net, err := New([]int{frames, size, size}, batch, 3, G.NewGraph(), nil,
		nil, G.GlorotU(1.0))
	require.NoError(t, err)

	require.Equal(t, frames*size*size, net.Features())
	require.Equal(t, CNN, net.Topology().Kind)
	require.Equal(t, []int{32, 64, 64, atariHidden}, net.Topology().Hidden)

	// Three filters, then two fully connected layers with biases
	require.Len(t, net.Learnables(), 7)

	out := run(t, net, make([]float64, batch*frames*size*size))
	require.Len(t, out, batch*3)

	clone, err := net.CloneWithBatch(1)
	require.NoError(t, err)
	require.True(t, Equal(net, clone))
}

func TestConvNetTooSmall(t *testing.T) {
	_, err := NewConvNet(1, 10, 1, 2, G.NewGraph(), G.Zeroes())
	require.Error(t, err)

	_, err = New([]int{1, 10, 12}, 1, 2, G.NewGraph(), nil, nil, G.Zeroes())
	require.Error(t, err)
}

func TestParseActivation(t *testing.T) {
	for _, name := range []string{"relu", "ReLU", "tanh", "sigmoid", "identity", ""} {
		act, err := ParseActivation(name)
		require.NoError(t, err)
		require.NotNil(t, act)
	}
	_, err := ParseActivation("swish")
	require.Error(t, err)

	act := TanH()
	encoded, err := act.GobEncode()
	require.NoError(t, err)

	var decoded Activation
	require.NoError(t, decoded.GobDecode(encoded))
	require.Equal(t, "tanh", decoded.String())
	require.True(t, Identity().IsIdentity())
}
