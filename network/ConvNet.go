package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// convLayer describes a single 2D convolution with a square kernel
type convLayer struct {
	filters int
	kernel  int
	stride  int
}

// Convolutions used on stacked frames: 32 8x8 filters with stride 4,
// 64 4x4 filters with stride 2, then 64 3x3 filters with stride 1
var atariConvs = []convLayer{
	{filters: 32, kernel: 8, stride: 4},
	{filters: 64, kernel: 4, stride: 2},
	{filters: 64, kernel: 3, stride: 1},
}

// atariHidden is the number of units in the fully connected layer
// following the convolutions
const atariHidden = 512

// convNet implements a convolutional action-value network on stacked
// square frames of shape (frames, size, size), followed by one hidden
// fully connected layer and a linear output layer.
type convNet struct {
	g          *G.ExprGraph
	input      *G.Node
	filters    []*G.Node
	fc         []*fcLayer
	frames     int
	size       int
	numOutputs int
	batchSize  int
	init       G.InitWFn

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewConvNet creates and returns a new convolutional network in graph
// g taking batches of batch stacks of frames, each frame being a
// size x size image. The network predicts outputs values per sample.
func NewConvNet(frames, size, batch, outputs int, g *G.ExprGraph,
	init G.InitWFn) (NeuralNet, error) {
	if frames < 1 || batch < 1 || outputs < 1 {
		return nil, fmt.Errorf("newConvNet: frames (%d), batch (%d) and "+
			"outputs (%d) must be positive", frames, batch, outputs)
	}

	// Validate the spatial dimensions of each convolution
	spatial := size
	for i, c := range atariConvs {
		spatial = convOutput(spatial, c.kernel, c.stride)
		if spatial < 1 {
			return nil, fmt.Errorf("newConvNet: input of size %d too "+
				"small for convolution %d", size, i)
		}
	}

	input := G.NewTensor(g, tensor.Float64, 4,
		G.WithShape(batch, frames, size, size), G.WithName("input"),
		G.WithInit(G.Zeroes()))

	filters := make([]*G.Node, len(atariConvs))
	channels := frames
	for i, c := range atariConvs {
		filters[i] = G.NewTensor(g, tensor.Float64, 4,
			G.WithShape(c.filters, channels, c.kernel, c.kernel),
			G.WithName(fmt.Sprintf("C%dW", i)), G.WithInit(init))
		channels = c.filters
	}

	flat := channels * spatial * spatial
	fc := addfcLayers(g, []int{atariHidden, outputs}, []bool{true, true},
		[]*Activation{ReLU(), Identity()}, init, flat, "F")

	net := &convNet{
		g:          g,
		input:      input,
		filters:    filters,
		fc:         fc,
		frames:     frames,
		size:       size,
		numOutputs: outputs,
		batchSize:  batch,
		init:       init,
	}

	if err := net.fwd(flat); err != nil {
		return nil, fmt.Errorf("newConvNet: could not compute forward "+
			"pass: %v", err)
	}
	return net, nil
}

// convOutput returns the output size of a convolution with no padding
// and no dilation
func convOutput(in, kernel, stride int) int {
	return (in-kernel)/stride + 1
}

// fwd adds the forward pass to the graph
func (c *convNet) fwd(flat int) error {
	x := c.input
	var err error
	for i, conv := range atariConvs {
		x, err = G.Conv2d(x, c.filters[i],
			tensor.Shape{conv.kernel, conv.kernel}, []int{0, 0},
			[]int{conv.stride, conv.stride}, []int{1, 1})
		if err != nil {
			return fmt.Errorf("convolution %d: %v", i, err)
		}
		if x, err = G.Rectify(x); err != nil {
			return fmt.Errorf("convolution %d activation: %v", i, err)
		}
	}

	if x, err = G.Reshape(x, tensor.Shape{c.batchSize, flat}); err != nil {
		return fmt.Errorf("flatten: %v", err)
	}

	for i, l := range c.fc {
		if x, err = l.fwd(x); err != nil {
			return fmt.Errorf("fully connected layer %d: %v", i, err)
		}
	}

	c.prediction = x
	G.Read(c.prediction, &c.predVal)
	return nil
}

// Graph returns the computational graph of the network
func (c *convNet) Graph() *G.ExprGraph {
	return c.g
}

// CloneWithBatch clones the network into a new graph with a new batch
// size. The clone holds a copy of the receiver's parameters.
func (c *convNet) CloneWithBatch(batchSize int) (NeuralNet, error) {
	net, err := NewConvNet(c.frames, c.size, batchSize, c.numOutputs,
		G.NewGraph(), c.init)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}

	if err := net.Set(c); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: could not copy weights: %v",
			err)
	}
	return net, nil
}

// BatchSize returns the batch size of inputs to the network
func (c *convNet) BatchSize() int {
	return c.batchSize
}

// Features returns the number of values in a single stack of frames
func (c *convNet) Features() int {
	return c.frames * c.size * c.size
}

// Outputs returns the number of outputs from the network
func (c *convNet) Outputs() int {
	return c.numOutputs
}

// SetInput sets the stacked frames for the whole batch in row major
// order
func (c *convNet) SetInput(input []float64) error {
	return setInput(c.input, input, c.Features()*c.batchSize)
}

// Set copies the parameters of source into the network
func (c *convNet) Set(source NeuralNet) error {
	return copyLearnables(c.Learnables(), source.Learnables())
}

// Learnables returns the convolution filters followed by the fully
// connected weights and biases
func (c *convNet) Learnables() G.Nodes {
	if c.learnables == nil {
		learnables := make(G.Nodes, 0, len(c.filters)+2*len(c.fc))
		learnables = append(learnables, c.filters...)
		for _, l := range c.fc {
			learnables = append(learnables, l.learnables()...)
		}
		c.learnables = learnables
	}
	return c.learnables
}

// Model returns the learnables nodes with their gradients.
func (c *convNet) Model() []G.ValueGrad {
	if c.model == nil {
		c.model = G.NodesToValueGrads(c.Learnables())
	}
	return c.model
}

// Prediction returns the output node of the network
func (c *convNet) Prediction() *G.Node {
	return c.prediction
}

// Output returns the value of the output node after the graph has been
// run
func (c *convNet) Output() G.Value {
	return c.predVal
}

// Topology returns the architecture of the network
func (c *convNet) Topology() Topology {
	hidden := make([]int, 0, len(atariConvs)+1)
	for _, conv := range atariConvs {
		hidden = append(hidden, conv.filters)
	}
	hidden = append(hidden, atariHidden)

	return Topology{
		Kind:    CNN,
		Inputs:  []int{c.frames, c.size, c.size},
		Hidden:  hidden,
		Outputs: c.numOutputs,
	}
}
