package grpcbridge

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "xdao.ensbridge.v1.Resolver"

const (
	methodCall       = "/" + serviceName + "/Call"
	methodStaticCall = "/" + serviceName + "/StaticCall"
)

// ResolverServer is the server API for the Resolver gRPC service.
//
// Requests and replies are raw call data and raw results carried in
// protobuf well-known wrappers, so no codegen toolchain is needed. Caller
// identity travels in metadata (see package keys).
type ResolverServer interface {
	Call(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
	StaticCall(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error)
}

// UnimplementedResolverServer can be embedded to have forward compatible implementations.
type UnimplementedResolverServer struct{}

func (UnimplementedResolverServer) Call(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Call not implemented")
}
func (UnimplementedResolverServer) StaticCall(context.Context, *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method StaticCall not implemented")
}

// RegisterResolverServer registers the Resolver service on a gRPC server.
func RegisterResolverServer(s grpc.ServiceRegistrar, srv ResolverServer) {
	s.RegisterService(&Resolver_ServiceDesc, srv)
}

// ResolverClient is the client API for the Resolver gRPC service.
type ResolverClient interface {
	Call(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	StaticCall(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
}

type resolverClient struct{ cc grpc.ClientConnInterface }

func NewResolverClient(cc grpc.ClientConnInterface) ResolverClient { return &resolverClient{cc: cc} }

func (c *resolverClient) Call(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodCall, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *resolverClient) StaticCall(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, methodStaticCall, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Resolver_Call_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResolverServer).Call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCall}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ResolverServer).Call(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Resolver_StaticCall_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ResolverServer).StaticCall(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodStaticCall}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ResolverServer).StaticCall(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Resolver_ServiceDesc is the grpc.ServiceDesc for the Resolver service.
var Resolver_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ResolverServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Call", Handler: _Resolver_Call_Handler},
		{MethodName: "StaticCall", Handler: _Resolver_StaticCall_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "resolver.proto",
}
