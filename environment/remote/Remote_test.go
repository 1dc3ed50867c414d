package remote

import (
	"context"
	"net"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	"github.com/fiorenza2/RL-Algorithms/environment/classiccontrol/cartpole"
	"github.com/fiorenza2/RL-Algorithms/environment/gridworld"
)

func serve(t *testing.T, e env.Environment) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	Register(s, NewServer(e))
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, "passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context,
			_ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSpec(t *testing.T) {
	c := serve(t, gridworld.NewDefault())

	require.Equal(t, []int{25}, c.ObservationSpec().Shape)
	require.Equal(t, gridworld.NumActions, c.ActionSpec().NumActions())
}

func TestEpisodeMatchesLocal(t *testing.T) {
	local := gridworld.NewDefault()
	c := serve(t, gridworld.NewDefault())

	want, err := local.Reset()
	require.NoError(t, err)
	got, err := c.Reset()
	require.NoError(t, err)
	require.True(t, got.First())
	require.Equal(t, want.ObservationData(), got.ObservationData())

	actions := []int{
		gridworld.Right, gridworld.Right, gridworld.Right, gridworld.Right,
		gridworld.Up, gridworld.Up, gridworld.Up, gridworld.Up,
	}
	for _, a := range actions {
		wantStep, wantDone, err := local.Step(a)
		require.NoError(t, err)
		gotStep, gotDone, err := c.Step(a)
		require.NoError(t, err)

		require.Equal(t, wantDone, gotDone)
		require.Equal(t, wantStep.Reward, gotStep.Reward)
		require.Equal(t, wantStep.Number, gotStep.Number)
		require.Equal(t, wantStep.ObservationData(), gotStep.ObservationData())
		require.Equal(t, wantDone, gotStep.Last())
	}

	// The episode is over, so the server refuses further steps
	_, _, err = c.Step(gridworld.Left)
	require.Error(t, err)
}

func TestSeed(t *testing.T) {
	local := cartpole.NewDefault(0)
	c := serve(t, cartpole.NewDefault(0))

	local.Seed(1<<63 + 7)
	c.Seed(1<<63 + 7)

	want, err := local.Reset()
	require.NoError(t, err)
	got, err := c.Reset()
	require.NoError(t, err)
	require.Equal(t, want.ObservationData(), got.ObservationData())
}

func TestIllegalAction(t *testing.T) {
	c := serve(t, gridworld.NewDefault())
	_, err := c.Reset()
	require.NoError(t, err)

	_, _, err = c.Step(-1)
	require.Error(t, err)
	_, _, err = c.Step(gridworld.NumActions)
	require.Error(t, err)
}

func TestMakeWithoutAddress(t *testing.T) {
	_, err := env.Make("Remote", 0)
	require.Error(t, err)
	require.True(t, env.IsConfigurationError(err))
}

func TestCodec(t *testing.T) {
	_, err := decodeAction(encodeAction(3))
	require.NoError(t, err)

	msg := encodeAction(0)
	msg.Fields[fieldAction] = encodeSpec([]int{1}, 1).Fields[fieldNumActions]
	a, err := decodeAction(msg)
	require.NoError(t, err)
	require.Equal(t, 1, a)

	seed, err := decodeSeed(encodeSeed(1<<64 - 1))
	require.NoError(t, err)
	require.Equal(t, uint64(1<<64-1), seed)

	shape, n, err := decodeSpec(encodeSpec([]int{2, 84, 84}, 6))
	require.NoError(t, err)
	require.Equal(t, []int{2, 84, 84}, shape)
	require.Equal(t, 6, n)

	_, _, err = decodeSpec(encodeSpec(nil, 2))
	require.Error(t, err)
}

func TestServeStopsOnCancel(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- Serve(ctx, lis, gridworld.NewDefault(), nil) }()

	c, err := Dial(context.Background(), lis.Addr().String())
	require.NoError(t, err)
	require.Equal(t, gridworld.NumActions, c.ActionSpec().NumActions())
	require.NoError(t, c.Close())

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
}

func TestServeReleasesOnListenerError(t *testing.T) {
	before := runtime.NumGoroutine()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, lis.Close())

	// The context is never cancelled, so only a failed Serve can stop
	// the server
	err = Serve(context.Background(), lis, gridworld.NewDefault(), nil)
	require.Error(t, err)

	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 2*time.Second, 10*time.Millisecond)
}
