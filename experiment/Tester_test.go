package experiment

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fiorenza2/RL-Algorithms/agent/deepq"
	"github.com/fiorenza2/RL-Algorithms/environment/gridworld"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

func testConfig() TestConfig {
	return TestConfig{
		FrameSkip:   1,
		FrameStack:  1,
		MaxEpSteps:  100,
		NumEpisodes: 3,
	}
}

// load saves a checkpoint with the fake agent a and loads it into tester
func load(t *testing.T, tester *Tester, a *fakeAgent) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake.ckpt")
	require.NoError(t, a.Save(path))
	require.NoError(t, tester.LoadCheckpoint(path))
}

func TestTesterReturns(t *testing.T) {
	e := &fakeEnv{length: 6}
	a := &fakeAgent{action: 1}
	cfg := testConfig()
	cfg.FrameSkip = 4

	tester, err := NewTester(e, a, cfg)
	require.NoError(t, err)
	load(t, tester, a)

	returns, err := tester.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []float64{6, 6, 6}, returns)

	// Two decisions per episode, all greedy, and no learning
	require.Equal(t, 6, a.greedy)
	require.Equal(t, 0, a.learns)
	require.Equal(t, 0, a.step)
	require.Len(t, e.actions, 18)
}

func TestTesterVisualise(t *testing.T) {
	var out bytes.Buffer
	cfg := testConfig()
	cfg.NumEpisodes = 1
	cfg.Visualise = true

	a := &fakeAgent{}
	tester, err := NewTester(&fakeEnv{length: 3}, a, cfg, WithOutput(&out))
	require.NoError(t, err)
	load(t, tester, a)

	_, err = tester.Run(context.Background())
	require.NoError(t, err)

	// Once after reset and once per decision
	require.Equal(t, 4, strings.Count(out.String(), "step"))
}

func TestTesterMissingCheckpoint(t *testing.T) {
	tester, err := NewTester(&fakeEnv{length: 3}, &fakeAgent{}, testConfig())
	require.NoError(t, err)

	err = tester.LoadCheckpoint(filepath.Join(t.TempDir(), "missing.ckpt"))
	require.Error(t, err)
	require.True(t, deepq.IsCheckpointError(err))
}

func TestTesterRunWithoutCheckpoint(t *testing.T) {
	e := &fakeEnv{length: 3}
	a := &fakeAgent{}
	tester, err := NewTester(e, a, testConfig())
	require.NoError(t, err)

	returns, err := tester.Run(context.Background())
	require.Error(t, err)
	require.True(t, deepq.IsCheckpointError(err))
	require.Empty(t, returns)
	require.Empty(t, e.actions)
	require.Equal(t, 0, a.greedy)

	// A failed load leaves the Tester unable to run
	require.Error(t, tester.LoadCheckpoint(filepath.Join(t.TempDir(),
		"missing.ckpt")))
	_, err = tester.Run(context.Background())
	require.True(t, deepq.IsCheckpointError(err))
}

// recorder records the actions issued to an Environment
type recorder struct {
	*gridworld.GridWorld
	actions []int
}

func (r *recorder) Step(a int) (ts.TimeStep, bool, error) {
	r.actions = append(r.actions, a)
	return r.GridWorld.Step(a)
}

func TestTesterDeterministic(t *testing.T) {
	g := gridworld.NewDefault()
	shape := g.ObservationSpec().Shape
	numActions := g.ActionSpec().NumActions()

	c := deepq.DefaultConfig()
	c.Hidden = []int{8}
	trained, err := deepq.New(c, shape, numActions, 11)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dqn.ckpt")
	require.NoError(t, trained.Save(path))

	run := func(seed uint64) ([]int, []float64) {
		d, err := deepq.New(c, shape, numActions, seed)
		require.NoError(t, err)

		e := &recorder{GridWorld: gridworld.NewDefault()}
		cfg := testConfig()
		cfg.MaxEpSteps = 20
		cfg.NumEpisodes = 2

		tester, err := NewTester(e, d, cfg)
		require.NoError(t, err)
		require.NoError(t, tester.LoadCheckpoint(path))

		returns, err := tester.Run(context.Background())
		require.NoError(t, err)
		return e.actions, returns
	}

	actions1, returns1 := run(1)
	actions2, returns2 := run(2)
	require.NotEmpty(t, actions1)
	require.Equal(t, actions1, actions2)
	require.Equal(t, returns1, returns2)
}

func TestTestConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	cfg.MaxEpSteps = 0
	_, err := NewTester(&fakeEnv{}, &fakeAgent{}, cfg)
	require.Error(t, err)
}
