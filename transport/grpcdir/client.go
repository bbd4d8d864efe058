package grpcdir

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/registry"
)

// Client implements registry.Directory over a Directory gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client DirectoryClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var _ registry.Directory = (*Client)(nil)

// NewClient wraps an existing connection. Close then closes cc only if it
// is a *grpc.ClientConn.
func NewClient(cc grpc.ClientConnInterface) *Client {
	c := &Client{client: NewDirectoryClient(cc)}
	if conn, ok := cc.(*grpc.ClientConn); ok {
		c.cc = conn
	}
	return c
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Owner(ctx context.Context, node model.Node) (model.Address, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.Owner(ctx, wrapperspb.Bytes(node.Bytes()))
	if err != nil {
		return model.ZeroAddress, mapRPC(err)
	}
	return model.AddressFromBytes(reply.GetValue())
}

func (c *Client) Resolver(ctx context.Context, node model.Node) (model.Address, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.Resolver(ctx, wrapperspb.Bytes(node.Bytes()))
	if err != nil {
		return model.ZeroAddress, mapRPC(err)
	}
	return model.AddressFromBytes(reply.GetValue())
}

func (c *Client) TTL(ctx context.Context, node model.Node) (uint64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()
	reply, err := c.client.TTL(ctx, wrapperspb.Bytes(node.Bytes()))
	if err != nil {
		return 0, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

func mapRPC(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return fmt.Errorf("grpcdir: %s: %s", st.Code(), st.Message())
	}
}
