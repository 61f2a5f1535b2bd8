// Package grpc provides a gRPC service for the monitor package.
//
// The service is declared with protobuf well-known types only, so no
// generated code is required:
//
//	service Monitor {
//	  rpc Status(google.protobuf.Empty) returns (google.protobuf.Struct);
//	  rpc ClearAll(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
package grpc

import (
	"context"
	"log/slog"

	"github.com/rbaliyan/msgbus/monitor"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "msgbus.monitor.v1.Monitor"

// Full method names
const (
	MethodStatus   = "/" + ServiceName + "/Status"
	MethodClearAll = "/" + ServiceName + "/ClearAll"
)

// MonitorServer is the server API for the Monitor service.
type MonitorServer interface {
	Status(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ClearAll(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// Service implements MonitorServer on top of a registry.
type Service struct {
	registry monitor.Registry
	logger   *slog.Logger
}

var _ MonitorServer = (*Service)(nil)

// New creates a new gRPC service for r.
func New(r monitor.Registry) *Service {
	return &Service{
		registry: r,
		logger:   slog.Default().With("component", "msgbus>monitor>grpc"),
	}
}

// Register registers the service with a gRPC server.
func (s *Service) Register(server *grpc.Server) {
	server.RegisterService(&serviceDesc, s)
}

// Status returns the registry snapshot.
func (s *Service) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := monitor.Snapshot(ctx, s.registry)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to build snapshot: %v", err)
	}
	return snap, nil
}

// ClearAll drops every subscription and returns the snapshot afterwards.
func (s *Service) ClearAll(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	s.registry.ClearAll(ctx)
	s.logger.Info("cleared all buses", "registry", s.registry.Name())
	return s.Status(ctx, req)
}

func statusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitorServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func clearAllHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MonitorServer).ClearAll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodClearAll}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(MonitorServer).ClearAll(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Status", Handler: statusHandler},
		{MethodName: "ClearAll", Handler: clearAllHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "msgbus/monitor/v1/monitor.proto",
}

// Client calls a remote Monitor service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Status fetches the remote registry snapshot.
func (c *Client) Status(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodStatus, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearAll clears the remote registry.
func (c *Client) ClearAll(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodClearAll, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
