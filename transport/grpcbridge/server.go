// Package grpcbridge carries resolver calls over gRPC.
//
// Server exposes any resolver.Endpoint, a Bridge included. Client is a
// resolver.Endpoint backed by a remote server, and Dialer maps resolver
// addresses to servers so a Bridge can forward to resolvers in another
// process.
package grpcbridge

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/resolver"
)

// ServerOptions configures caller authentication.
type ServerOptions struct {
	// TrustedForwarders may sign calls on behalf of another caller.
	TrustedForwarders []model.Address

	// AllowAnonymous admits unsigned calls with the zero caller.
	AllowAnonymous bool

	// MaxSkew defaults to DefaultMaxSkew.
	MaxSkew time.Duration

	Now func() time.Time
}

// Server exposes a resolver.Endpoint over the Resolver gRPC service.
type Server struct {
	UnimplementedResolverServer
	endpoint resolver.Endpoint
	auth     *authenticator
}

func NewServer(ep resolver.Endpoint, opts ServerOptions) *Server {
	a := &authenticator{
		trusted:        make(map[model.Address]bool, len(opts.TrustedForwarders)),
		allowAnonymous: opts.AllowAnonymous,
		maxSkew:        opts.MaxSkew,
		now:            opts.Now,
	}
	for _, f := range opts.TrustedForwarders {
		a.trusted[f] = true
	}
	if a.maxSkew <= 0 {
		a.maxSkew = DefaultMaxSkew
	}
	if a.now == nil {
		a.now = time.Now
	}
	return &Server{endpoint: ep, auth: a}
}

func (s *Server) Call(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return s.serve(ctx, methodCall, in.GetValue(), false)
}

func (s *Server) StaticCall(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	return s.serve(ctx, methodStaticCall, in.GetValue(), true)
}

func (s *Server) serve(ctx context.Context, method string, data []byte, readOnly bool) (*wrapperspb.BytesValue, error) {
	if s == nil || s.endpoint == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing endpoint")
	}
	caller, err := s.auth.caller(ctx, method, data, readOnly)
	if err != nil {
		return nil, err
	}
	ret, err := s.endpoint.Call(ctx, resolver.Message{Caller: caller, Data: data, ReadOnly: readOnly})
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(ret), nil
}
