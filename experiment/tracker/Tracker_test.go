package tracker

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func episodes(returns ...float64) []Episode {
	out := make([]Episode, len(returns))
	for i, r := range returns {
		out[i] = Episode{
			Episode: i + 1,
			Steps:   10 * (i + 1),
			Return:  r,
			Epsilon: 1 / float64(i+1),
			Loss:    0.5,
			Learns:  i,
			Phase:   "Exploring",
		}
	}
	return out
}

func TestReturnRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "returns.bin")
	r := NewReturn(path)

	for _, e := range episodes(1, -2, 3.5) {
		require.NoError(t, r.Track(e))
	}
	require.Equal(t, []float64{1, -2, 3.5}, r.Returns())
	require.NoError(t, r.Close())

	data, err := LoadData(path)
	require.NoError(t, err)
	require.Equal(t, []float64{1, -2, 3.5}, data)

	_, err = LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	require.Error(t, err)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	first, err := OpenSQLite(path, RunMeta{Mode: "train", EnvID: "CartPole-v0"})
	require.NoError(t, err)
	want := episodes(1, 2, 3)
	for _, e := range want {
		require.NoError(t, first.Track(e))
	}
	require.Error(t, first.Track(want[0]), "duplicate episode")
	require.NoError(t, first.Close())

	// Reopening keeps earlier runs
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	second, err := store.StartRun(ctx, RunMeta{Mode: "test", EnvID: "GridWorld-v0"})
	require.NoError(t, err)
	require.NoError(t, second.Track(want[0]))
	require.NoError(t, second.Close())

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, first.RunID(), runs[0].ID)
	require.Equal(t, "train", runs[0].Mode)
	require.Equal(t, "GridWorld-v0", runs[1].EnvID)

	got, err := store.Episodes(ctx, first.RunID())
	require.NoError(t, err)
	require.Equal(t, want, got)

	got, err = store.Episodes(ctx, second.RunID())
	require.NoError(t, err)
	require.Len(t, got, 1)
}

type failing struct {
	closed bool
}

func (f *failing) Track(Episode) error { return errors.New("track") }

func (f *failing) Close() error {
	f.closed = true
	return errors.New("close")
}

func TestMulti(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "r.bin"))
	f := &failing{}

	m := Multi(r, f)
	require.Error(t, m.Track(episodes(4)[0]))
	require.Equal(t, []float64{4}, r.Returns())

	require.Error(t, m.Close())
	require.True(t, f.closed)
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	err := Report(&buf, "CartPole-v0", map[string][]float64{
		"train": {1, 2, 3, 4},
		"test":  {5, 6},
	})
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "<html")
	require.Contains(t, out, "CartPole-v0")
	require.Contains(t, out, "train (avg 100)")

	require.Error(t, Report(&buf, "empty", nil))
}
