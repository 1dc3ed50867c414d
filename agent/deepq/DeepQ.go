// Package deepq implements the deep Q-learning agent: an ε-greedy policy
// over a neural network action-value approximator, trained by
// minimizing the mean squared TD error against a periodically
// synchronized target network.
package deepq

import (
	"fmt"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/fiorenza2/RL-Algorithms/agent/policy"
	"github.com/fiorenza2/RL-Algorithms/expreplay"
	"github.com/fiorenza2/RL-Algorithms/network"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// DeepQ implements the deep Q-learning algorithm with a target network
// and the MSE loss.
//
// Three copies of the action-value network are kept, each in its own
// graph with its own VM:
//
//	trainNet	online weights, batch input, adapted by the solver
//	targetNet	target weights, batch input, provides the update target
//	policyNet	copy of the online weights with a single input, used to
//			select actions
type DeepQ struct {
	trainNet   network.NeuralNet
	trainNetVM G.VM
	solver     G.Solver

	targetNet   network.NeuralNet
	targetNetVM G.VM

	policyNet   network.NeuralNet
	policyNetVM G.VM
	policyStale bool // Whether policyNet lags behind trainNet

	// Input nodes of trainNet's graph used to compute the update target:
	//
	// 	r + γ * (1 - done) * max[Q_target(s', a')]
	//
	// and to pick out Q(s, a) for the action taken.
	nextStateActionValues *G.Node
	rewards               *G.Node
	discounts             *G.Node
	selectedActions       *G.Node
	loss                  G.Value

	stateShape []int
	features   int
	numActions int
	batchSize  int
	gamma      float64

	schedule    policy.LinearSchedule
	warmup      int
	selector    *policy.EGreedy
	evalEpsilon float64
	step        int
}

// New creates and returns a new DeepQ agent for states of the given
// shape. Rank 1 states use an MLP, while stacked frames of shape
// (frames, size, size) use a convolutional network.
func New(config Config, stateShape []int, numActions int,
	seed uint64) (*DeepQ, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "new")
	}
	if numActions < 1 {
		return nil, errors.Errorf("new: need at least one action, have %d",
			numActions)
	}

	init, err := config.Init.Create(seed)
	if err != nil {
		return nil, errors.Wrap(err, "new")
	}
	var act *network.Activation // Defaults to ReLU
	if config.Activation != "" {
		act, err = network.ParseActivation(config.Activation)
		if err != nil {
			return nil, errors.Wrap(err, "new")
		}
	}
	batchSize := config.BatchSize

	// Online network that learns the weights
	trainNet, err := network.New(stateShape, batchSize, numActions,
		G.NewGraph(), config.Hidden, act, init)
	if err != nil {
		return nil, errors.Wrap(err, "new: could not create network")
	}

	// Target network starts as an exact copy of the online network
	targetNet, err := trainNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, errors.Wrap(err, "new: could not create target network")
	}

	// Policy network for selecting actions one state at a time
	policyNet, err := trainNet.CloneWithBatch(1)
	if err != nil {
		return nil, errors.Wrap(err, "new: could not create policy network")
	}

	gTrain := trainNet.Graph()

	// Create nodes to compute the update target: r + γ * max[Q(s', a')]
	nextStateActionValues := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))
	rewards := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("reward"))
	discounts := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("discount"))

	updateTarget := G.Must(G.Max(nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	// Actions selected in the sampled states as one-hot rows, used to
	// pick out the value of the action taken from the network outputs
	selectedActions := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("actionSelected"))
	selectedActionsValue := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Mean squared TD error
	losses := G.Must(G.Sub(updateTarget, selectedActionsValue))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	d := &DeepQ{
		trainNet:              trainNet,
		targetNet:             targetNet,
		policyNet:             policyNet,
		nextStateActionValues: nextStateActionValues,
		rewards:               rewards,
		discounts:             discounts,
		selectedActions:       selectedActions,
		stateShape:            append([]int{}, stateShape...),
		features:              trainNet.Features(),
		numActions:            numActions,
		batchSize:             batchSize,
		gamma:                 config.Gamma,
		schedule:              config.Schedule(),
		warmup:                config.Warmup,
		selector:              policy.NewEGreedy(seed),
	}
	G.Read(cost, &d.loss)

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "new: could not compute gradient")
	}

	// The cost is already a mean over the batch
	d.solver, err = config.Solver.Create(1)
	if err != nil {
		return nil, errors.Wrap(err, "new")
	}

	d.trainNetVM = G.NewTapeMachine(gTrain,
		G.BindDualValues(trainNet.Learnables()...))
	d.targetNetVM = G.NewTapeMachine(targetNet.Graph())
	d.policyNetVM = G.NewTapeMachine(policyNet.Graph())

	return d, nil
}

// SelectAction returns an action for the given state. In training mode,
// a random action is taken with probability given by the exploration
// schedule at the current step. Otherwise, a random action is taken with
// the evaluation epsilon, which is 0 unless set with SetEvalEpsilon.
// Greedy actions break ties by the lowest action index.
func (d *DeepQ) SelectAction(state []float64, training bool) (int, error) {
	if len(state) != d.features {
		return 0, errors.Errorf("selectAction: invalid state size"+
			"\n\twant(%d)\n\thave(%d)", d.features, len(state))
	}

	epsilon := d.evalEpsilon
	if training {
		epsilon = d.Epsilon()
	}
	if d.selector.Explore(epsilon) {
		return d.RandomAction(), nil
	}

	values, err := d.ActionValues(state)
	if err != nil {
		return 0, errors.Wrap(err, "selectAction")
	}
	return policy.Greedy(values), nil
}

// ActionValues returns the online action values of a state
func (d *DeepQ) ActionValues(state []float64) ([]float64, error) {
	if d.policyStale {
		if err := d.policyNet.Set(d.trainNet); err != nil {
			return nil, errors.Wrap(err, "actionValues: could not sync policy")
		}
		d.policyStale = false
	}

	if err := d.policyNet.SetInput(state); err != nil {
		return nil, errors.Wrap(err, "actionValues")
	}
	defer d.policyNetVM.Reset()
	if err := d.policyNetVM.RunAll(); err != nil {
		return nil, errors.Wrap(err, "actionValues")
	}
	return network.OutputData(d.policyNet)
}

// RandomAction returns an action chosen uniformly at random
func (d *DeepQ) RandomAction() int {
	return d.selector.Random(d.numActions)
}

// SetEvalEpsilon sets the epsilon used when not in training mode
func (d *DeepQ) SetEvalEpsilon(epsilon float64) {
	d.evalEpsilon = epsilon
}

// Learn performs one gradient step on the online weights using a batch
// of exactly BatchSize transitions and returns the loss of the batch
// before the update. The target weights are not changed.
func (d *DeepQ) Learn(batch []ts.Transition) (float64, error) {
	if len(batch) < d.batchSize {
		return 0, &NotReadyError{Op: "learn", Have: len(batch),
			Want: d.batchSize}
	}
	if len(batch) > d.batchSize {
		return 0, errors.Errorf("learn: batch too large\n\twant(%d)"+
			"\n\thave(%d)", d.batchSize, len(batch))
	}

	b, err := expreplay.NewBatch(batch)
	if err != nil {
		return 0, errors.Wrap(err, "learn")
	}
	if b.Features != d.features {
		return 0, errors.Errorf("learn: invalid state size\n\twant(%d)"+
			"\n\thave(%d)", d.features, b.Features)
	}

	// Predict the action values in the next states
	nextValues, err := d.targetValues(b.NextStates)
	if err != nil {
		return 0, errors.Wrap(err, "learn")
	}

	if err := G.Let(d.nextStateActionValues, tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(nextValues),
	)); err != nil {
		return 0, errors.Wrap(err, "learn: could not set next action values")
	}
	if err := G.Let(d.rewards, tensor.New(
		tensor.WithShape(d.batchSize),
		tensor.WithBacking(b.Rewards),
	)); err != nil {
		return 0, errors.Wrap(err, "learn: could not set rewards")
	}
	if err := G.Let(d.discounts, tensor.New(
		tensor.WithShape(d.batchSize),
		tensor.WithBacking(b.Discounts(d.gamma)),
	)); err != nil {
		return 0, errors.Wrap(err, "learn: could not set discounts")
	}
	if err := G.Let(d.selectedActions, tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(b.OneHotActions(d.numActions)),
	)); err != nil {
		return 0, errors.Wrap(err, "learn: could not set actions")
	}
	if err := d.trainNet.SetInput(b.States); err != nil {
		return 0, errors.Wrap(err, "learn")
	}

	// Run the learning step
	defer d.trainNetVM.Reset()
	if err := d.trainNetVM.RunAll(); err != nil {
		return 0, errors.Wrap(err, "learn")
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return 0, errors.Wrap(err, "learn: solver step")
	}
	d.policyStale = true

	return scalar(d.loss)
}

// targetValues returns a copy of the target network's action values for
// a batch of states
func (d *DeepQ) targetValues(states []float64) ([]float64, error) {
	if err := d.targetNet.SetInput(states); err != nil {
		return nil, err
	}
	defer d.targetNetVM.Reset()
	if err := d.targetNetVM.RunAll(); err != nil {
		return nil, err
	}
	return network.OutputData(d.targetNet)
}

// SyncTarget sets the target weights to a copy of the online weights
func (d *DeepQ) SyncTarget() error {
	if err := d.targetNet.Set(d.trainNet); err != nil {
		return errors.Wrap(err, "syncTarget")
	}
	return nil
}

// TargetEqualsOnline returns whether the target and online weights are
// bit-identical
func (d *DeepQ) TargetEqualsOnline() bool {
	return network.Equal(d.targetNet, d.trainNet)
}

// Parameters returns a copy of the online weights
func (d *DeepQ) Parameters() ([][]float64, error) {
	return network.Parameters(d.trainNet)
}

// TargetParameters returns a copy of the target weights
func (d *DeepQ) TargetParameters() ([][]float64, error) {
	return network.Parameters(d.targetNet)
}

// Step returns the global step counter
func (d *DeepQ) Step() int {
	return d.step
}

// SetStep sets the global step counter which drives exploration
func (d *DeepQ) SetStep(step int) {
	d.step = step
}

// Epsilon returns the training epsilon at the current step. Epsilon is
// 1 during warmup.
func (d *DeepQ) Epsilon() float64 {
	if d.Phase() == policy.Warmup {
		return 1.0
	}
	return d.schedule.Epsilon(d.step)
}

// Phase returns the training phase at the current step
func (d *DeepQ) Phase() policy.Phase {
	return policy.PhaseAt(d.step, d.warmup, d.schedule.FinalStep)
}

// NumActions returns the number of actions the agent chooses between
func (d *DeepQ) NumActions() int {
	return d.numActions
}

// StateShape returns the shape of states the agent accepts
func (d *DeepQ) StateShape() []int {
	return append([]int{}, d.stateShape...)
}

// Topology returns the topology of the agent's networks
func (d *DeepQ) Topology() network.Topology {
	return d.trainNet.Topology()
}

func (d *DeepQ) String() string {
	return fmt.Sprintf("DeepQ(%v, actions=%d, batch=%d, γ=%v, %v)",
		d.trainNet.Topology().Kind, d.numActions, d.batchSize, d.gamma,
		d.schedule)
}

// scalar returns the float64 held by a scalar Gorgonia value
func scalar(v G.Value) (float64, error) {
	if v == nil {
		return 0, errors.New("loss has not been computed")
	}
	switch data := v.Data().(type) {
	case float64:
		return data, nil
	case []float64:
		if len(data) == 1 {
			return data[0], nil
		}
	}
	return 0, errors.Errorf("loss is not a scalar: %v", v)
}
