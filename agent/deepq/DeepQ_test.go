package deepq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/fiorenza2/RL-Algorithms/agent/policy"
	"github.com/fiorenza2/RL-Algorithms/network"
	"github.com/fiorenza2/RL-Algorithms/solver"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

const (
	features   = 4
	numActions = 3
	batchSize  = 8
)

func testConfig() Config {
	c := DefaultConfig()
	c.BatchSize = batchSize
	c.Hidden = []int{16}
	c.FinalExpFrame = 1000
	c.Solver = solver.NewAdam(1e-2, 1e-8, 0.9, 0.999)
	return c
}

func newAgent(t *testing.T, c Config, seed uint64) *DeepQ {
	t.Helper()
	d, err := New(c, []int{features}, numActions, seed)
	require.NoError(t, err)
	return d
}

func randomTransitions(rng *rand.Rand, n int, done bool) []ts.Transition {
	batch := make([]ts.Transition, n)
	for i := range batch {
		state := make([]float64, features)
		next := make([]float64, features)
		for j := range state {
			state[j] = rng.NormFloat64()
			next[j] = rng.NormFloat64()
		}
		batch[i] = ts.NewTransition(state, rng.Intn(numActions),
			rng.Float64()*2-1, next, done)
	}
	return batch
}

func TestNewInvalid(t *testing.T) {
	_, err := New(testConfig(), []int{features}, 0, 1)
	require.Error(t, err)

	_, err = New(testConfig(), []int{2, 3}, numActions, 1)
	require.Error(t, err)

	c := testConfig()
	c.Gamma = 1.5
	_, err = New(c, []int{features}, numActions, 1)
	require.Error(t, err)

	c = testConfig()
	c.Activation = "swish"
	_, err = New(c, []int{features}, numActions, 1)
	require.Error(t, err)
}

func TestSameSeedSameParameters(t *testing.T) {
	p1, err := newAgent(t, testConfig(), 5).Parameters()
	require.NoError(t, err)
	p2, err := newAgent(t, testConfig(), 5).Parameters()
	require.NoError(t, err)
	require.Equal(t, p1, p2)
}

func TestSyncTarget(t *testing.T) {
	d := newAgent(t, testConfig(), 1)
	require.True(t, d.TargetEqualsOnline())

	rng := rand.New(rand.NewSource(1))
	before, err := d.TargetParameters()
	require.NoError(t, err)

	_, err = d.Learn(randomTransitions(rng, batchSize, false))
	require.NoError(t, err)

	// Learning changes only the online weights
	require.False(t, d.TargetEqualsOnline())
	after, err := d.TargetParameters()
	require.NoError(t, err)
	require.Equal(t, before, after)

	require.NoError(t, d.SyncTarget())
	require.True(t, d.TargetEqualsOnline())

	online, err := d.Parameters()
	require.NoError(t, err)
	target, err := d.TargetParameters()
	require.NoError(t, err)
	require.Equal(t, online, target)
}

func TestLearnNotReady(t *testing.T) {
	d := newAgent(t, testConfig(), 2)
	before, err := d.Parameters()
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(2))
	_, err = d.Learn(randomTransitions(rng, batchSize-1, false))
	require.Error(t, err)
	require.True(t, IsNotReady(err))

	var notReady *NotReadyError
	require.True(t, errors.As(err, &notReady))
	require.Equal(t, batchSize-1, notReady.Have)
	require.Equal(t, batchSize, notReady.Want)

	after, err := d.Parameters()
	require.NoError(t, err)
	require.Equal(t, before, after)

	_, err = d.Learn(randomTransitions(rng, batchSize+1, false))
	require.Error(t, err)
	require.False(t, IsNotReady(err))
}

func TestLearnReducesLoss(t *testing.T) {
	d := newAgent(t, testConfig(), 3)
	rng := rand.New(rand.NewSource(3))

	// Terminal transitions have fixed regression targets
	batch := randomTransitions(rng, batchSize, true)

	first, err := d.Learn(batch)
	require.NoError(t, err)
	var last float64
	for i := 0; i < 300; i++ {
		last, err = d.Learn(batch)
		require.NoError(t, err)
	}
	if last >= first {
		t.Errorf("loss did not decrease\n\twant(< %v)\n\thave(%v)", first,
			last)
	}
}

func TestEpsilon(t *testing.T) {
	c := testConfig()
	c.Warmup = 100
	d := newAgent(t, c, 4)

	d.SetStep(50)
	require.Equal(t, policy.Warmup, d.Phase())
	require.Equal(t, 1.0, d.Epsilon())

	d.SetStep(500)
	require.Equal(t, policy.Exploring, d.Phase())
	assert.InDelta(t, 1.0-0.5*0.99, d.Epsilon(), 1e-12)

	d.SetStep(5000)
	require.Equal(t, policy.Exploiting, d.Phase())
	require.Equal(t, 0.01, d.Epsilon())
	require.Equal(t, 5000, d.Step())
}

func TestSelectActionGreedy(t *testing.T) {
	d := newAgent(t, testConfig(), 5)
	state := []float64{0.1, -0.2, 0.3, -0.4}

	values, err := d.ActionValues(state)
	require.NoError(t, err)
	require.Len(t, values, numActions)
	want := policy.Greedy(values)

	for i := 0; i < 50; i++ {
		a, err := d.SelectAction(state, false)
		require.NoError(t, err)
		require.Equal(t, want, a)
	}

	_, err = d.SelectAction([]float64{1, 2}, false)
	require.Error(t, err)
}

func TestSelectActionFollowsLearning(t *testing.T) {
	d := newAgent(t, testConfig(), 6)
	rng := rand.New(rand.NewSource(6))
	state := []float64{0.5, 0.5, 0.5, 0.5}

	before, err := d.ActionValues(state)
	require.NoError(t, err)
	_, err = d.Learn(randomTransitions(rng, batchSize, false))
	require.NoError(t, err)
	after, err := d.ActionValues(state)
	require.NoError(t, err)

	require.NotEqual(t, before, after)
}

func TestEvalEpsilon(t *testing.T) {
	d := newAgent(t, testConfig(), 7)
	d.SetEvalEpsilon(1.0)

	state := []float64{0, 0, 0, 0}
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		a, err := d.SelectAction(state, false)
		require.NoError(t, err)
		require.GreaterOrEqual(t, a, 0)
		require.Less(t, a, numActions)
		seen[a] = true
	}
	require.Len(t, seen, numActions)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "params.ckpt")

	d := newAgent(t, testConfig(), 8)
	rng := rand.New(rand.NewSource(8))
	for i := 0; i < 5; i++ {
		_, err := d.Learn(randomTransitions(rng, batchSize, false))
		require.NoError(t, err)
	}
	d.SetStep(1234)
	require.NoError(t, d.Save(path))

	header, err := ReadHeader(path)
	require.NoError(t, err)
	require.Equal(t, 1234, header.Step)
	require.Equal(t, numActions, header.NumActions)
	require.Equal(t, network.MLP, header.Topology.Kind)

	loaded := newAgent(t, testConfig(), 99)
	require.NoError(t, loaded.Load(path))
	require.Equal(t, 1234, loaded.Step())
	require.True(t, loaded.TargetEqualsOnline())

	want, err := d.Parameters()
	require.NoError(t, err)
	have, err := loaded.Parameters()
	require.NoError(t, err)
	require.Equal(t, want, have)

	// The same checkpoint and states yield the same greedy actions
	for i := 0; i < 20; i++ {
		state := []float64{rng.NormFloat64(), rng.NormFloat64(),
			rng.NormFloat64(), rng.NormFloat64()}
		a1, err := d.SelectAction(state, false)
		require.NoError(t, err)
		a2, err := loaded.SelectAction(state, false)
		require.NoError(t, err)
		require.Equal(t, a1, a2)
	}

	// No temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	d := newAgent(t, testConfig(), 9)

	err := d.Load(filepath.Join(dir, "missing.ckpt"))
	require.True(t, IsCheckpointError(err))

	garbage := filepath.Join(dir, "garbage.ckpt")
	require.NoError(t, os.WriteFile(garbage, []byte("not a checkpoint"),
		0o644))
	err = d.Load(garbage)
	require.True(t, IsCheckpointError(err))
	require.Equal(t, errBadMagic, errors.Cause(err))

	// Parameters written by a differently shaped network
	c := testConfig()
	c.Hidden = []int{32}
	other := newAgent(t, c, 9)
	path := filepath.Join(dir, "other.ckpt")
	require.NoError(t, other.Save(path))

	before, err := d.Parameters()
	require.NoError(t, err)
	err = d.Load(path)
	require.True(t, IsCheckpointError(err))
	require.Equal(t, errTopology, errors.Cause(err))

	after, err := d.Parameters()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestImageTopology(t *testing.T) {
	c := testConfig()
	c.BatchSize = 2
	d, err := New(c, []int{2, 84, 84}, numActions, 10)
	require.NoError(t, err)
	require.Equal(t, network.CNN, d.Topology().Kind)

	state := make([]float64, 2*84*84)
	a, err := d.SelectAction(state, false)
	require.NoError(t, err)
	require.Less(t, a, numActions)

	batch := make([]ts.Transition, 2)
	for i := range batch {
		batch[i] = ts.NewTransition(state, i, 1.0, state, false)
	}
	_, err = d.Learn(batch)
	require.NoError(t, err)
}
