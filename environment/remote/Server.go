package remote

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fiorenza2/RL-Algorithms/environment"
)

const serviceName = "dqn.Environment"

// EnvironmentServer is the server API of the dqn.Environment service
type EnvironmentServer interface {
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Step(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Spec(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Seed(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type method func(EnvironmentServer, context.Context,
	*structpb.Struct) (*structpb.Struct, error)

func unary(name string, call method) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error,
			interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EnvironmentServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(EnvironmentServer), ctx,
					req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*EnvironmentServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Reset", EnvironmentServer.Reset),
		unary("Step", EnvironmentServer.Step),
		unary("Spec", EnvironmentServer.Spec),
		unary("Seed", EnvironmentServer.Seed),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dqn/environment",
}

// Server serves a single Environment. Calls are serialized since an
// Environment is not safe for concurrent use.
type Server struct {
	mu  sync.Mutex
	env environment.Environment
}

// NewServer returns a Server for the Environment e
func NewServer(e environment.Environment) *Server {
	return &Server{env: e}
}

// Register registers srv with the gRPC server s
func Register(s *grpc.Server, srv *Server) {
	s.RegisterService(&serviceDesc, srv)
}

// Reset resets the environment
func (s *Server) Reset(context.Context, *structpb.Struct) (*structpb.Struct,
	error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, err := s.env.Reset()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return encodeStep(step, false), nil
}

// Step takes one environmental step
func (s *Server) Step(_ context.Context,
	in *structpb.Struct) (*structpb.Struct, error) {
	action, err := decodeAction(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "step: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	step, done, err := s.env.Step(action)
	if err != nil {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	return encodeStep(step, done), nil
}

// Spec returns the observation shape and number of actions
func (s *Server) Spec(context.Context, *structpb.Struct) (*structpb.Struct,
	error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return encodeSpec(s.env.ObservationSpec().Shape,
		s.env.ActionSpec().NumActions()), nil
}

// Seed reseeds the environment
func (s *Server) Seed(_ context.Context,
	in *structpb.Struct) (*structpb.Struct, error) {
	seed, err := decodeSeed(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "seed: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.env.Seed(seed)
	return &structpb.Struct{}, nil
}

// Serve serves the Environment e on lis until ctx is cancelled, logging
// each call at debug level
func Serve(ctx context.Context, lis net.Listener, e environment.Environment,
	logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(func(ctx context.Context,
		req any, info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("rpc", "method", info.FullMethod,
			"duration", time.Since(start), "error", err)
		return resp, err
	}))
	Register(s, NewServer(e))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.GracefulStop()
		case <-done:
		}
	}()

	logger.Info("serving environment", "addr", lis.Addr().String())
	if err := s.Serve(lis); err != nil {
		s.Stop()
		return err
	}
	return nil
}
