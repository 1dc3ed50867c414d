package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	env "github.com/fiorenza2/RL-Algorithms/environment"
	ts "github.com/fiorenza2/RL-Algorithms/timestep"
)

// CallTimeout bounds each call made by a Client
const CallTimeout = 30 * time.Second

// DialTimeout bounds the spec request made when dialing through the
// environment registry
const DialTimeout = 10 * time.Second

func init() {
	env.Register("Remote", func(s env.Settings) (env.Environment, error) {
		if s.Address == "" {
			return nil, env.NewConfigurationError("make remote",
				"no address given")
		}

		ctx, cancel := context.WithTimeout(context.Background(), DialTimeout)
		defer cancel()
		c, err := Dial(ctx, s.Address)
		if err != nil {
			return nil, err
		}

		if len(s.ObservationShape) > 0 {
			want := env.NewObservationSpec(s.ObservationShape, nil, nil).Len()
			if have := c.ObservationSpec().Len(); have != want {
				c.Close()
				return nil, env.NewConfigurationError("make remote",
					"observation shape %v holds %d values, server sends %d",
					s.ObservationShape, want, have)
			}
			c.obsShape = append([]int{}, s.ObservationShape...)
		}

		c.Seed(s.Seed)
		return c, nil
	})
}

// Client implements environment.Environment by forwarding every call to
// a dqn.Environment server
type Client struct {
	conn       *grpc.ClientConn
	addr       string
	obsShape   []int
	numActions int

	// seedErr holds the error of the last Seed call, which is reported
	// by the next Reset
	seedErr error
}

// Dial connects to the server at addr and fetches its specs. Transport
// security is disabled unless opts say otherwise.
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client,
	error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %v", addr)
	}

	c := &Client{conn: conn, addr: addr}
	out, err := c.invoke(ctx, "Spec", &structpb.Struct{})
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "dial %v", addr)
	}

	c.obsShape, c.numActions, err = decodeSpec(out)
	if err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "dial %v", addr)
	}
	return c, nil
}

func (c *Client) invoke(ctx context.Context, method string,
	in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.conn.Invoke(ctx, "/"+serviceName+"/"+method, in, out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) call(method string, in *structpb.Struct) (*structpb.Struct,
	error) {
	ctx, cancel := context.WithTimeout(context.Background(), CallTimeout)
	defer cancel()
	return c.invoke(ctx, method, in)
}

// Reset resets the remote environment
func (c *Client) Reset() (ts.TimeStep, error) {
	if err := c.seedErr; err != nil {
		c.seedErr = nil
		return ts.TimeStep{}, errors.Wrap(err, "reset: seed")
	}

	out, err := c.call("Reset", &structpb.Struct{})
	if err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}

	step, _, err := decodeStep(out)
	if err != nil {
		return ts.TimeStep{}, errors.Wrap(err, "reset")
	}
	return step, nil
}

// Step takes one step in the remote environment
func (c *Client) Step(action int) (ts.TimeStep, bool, error) {
	if action < 0 || action >= c.numActions {
		return ts.TimeStep{}, false, errors.Errorf("step: illegal action "+
			"%d ∉ [0, %d)", action, c.numActions)
	}

	out, err := c.call("Step", encodeAction(action))
	if err != nil {
		return ts.TimeStep{}, false, errors.Wrap(err, "step")
	}

	step, done, err := decodeStep(out)
	if err != nil {
		return ts.TimeStep{}, false, errors.Wrap(err, "step")
	}
	return step, done, nil
}

// ObservationSpec returns the observation spec fetched at dial time
func (c *Client) ObservationSpec() env.Spec {
	return env.NewObservationSpec(c.obsShape, nil, nil)
}

// ActionSpec returns the action spec fetched at dial time
func (c *Client) ActionSpec() env.Spec {
	return env.NewActionSpec(c.numActions)
}

// Seed reseeds the remote environment
func (c *Client) Seed(seed uint64) {
	_, c.seedErr = c.call("Seed", encodeSeed(seed))
}

// Close closes the connection. The remote environment is left running.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) String() string {
	return fmt.Sprintf("Remote(%v)", c.addr)
}
