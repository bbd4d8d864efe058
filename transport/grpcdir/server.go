// Package grpcdir serves a registry.Directory over gRPC and reads one back,
// so a Bridge can consult registries kept by other processes.
package grpcdir

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/registry"
)

// Server exposes a registry.Directory over the Directory gRPC service.
type Server struct {
	UnimplementedDirectoryServer
	Directory registry.Directory
}

func (s *Server) Owner(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	node, err := s.node(in)
	if err != nil {
		return nil, err
	}
	a, err := s.Directory.Owner(ctx, node)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(a.Bytes()), nil
}

func (s *Server) Resolver(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	node, err := s.node(in)
	if err != nil {
		return nil, err
	}
	a, err := s.Directory.Resolver(ctx, node)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(a.Bytes()), nil
}

func (s *Server) TTL(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.UInt64Value, error) {
	node, err := s.node(in)
	if err != nil {
		return nil, err
	}
	ttl, err := s.Directory.TTL(ctx, node)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.UInt64(ttl), nil
}

func (s *Server) node(in *wrapperspb.BytesValue) (model.Node, error) {
	if s == nil || s.Directory == nil {
		return model.ZeroNode, status.Error(codes.FailedPrecondition, "missing directory")
	}
	n, err := model.NodeFromBytes(in.GetValue())
	if err != nil {
		return model.ZeroNode, status.Error(codes.InvalidArgument, err.Error())
	}
	return n, nil
}

func mapErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Unavailable, err.Error())
}
