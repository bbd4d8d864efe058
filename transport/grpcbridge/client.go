package grpcbridge

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/ensbridge/keys"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/resolver"
	"xdao.co/ensbridge/transport"
)

// Client implements resolver.Endpoint over a Resolver gRPC service.
//
// Calls are signed with Signer when set. A message whose Caller is the
// signer's address is a direct call. Any other non-zero Caller is sent as a
// forwarded call on the Caller's behalf, which the server honours only if the
// signer is one of its trusted forwarders. A zero Caller is relayed as
// anonymous and never runs with the signer's identity.
type Client struct {
	cc     *grpc.ClientConn
	client ResolverClient
	Signer keys.Signer

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration

	now func() time.Time
}

var _ resolver.Endpoint = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int

	// Extra is appended to the default dial options.
	Extra []grpc.DialOption
}

func dialOptions(opts DialOptions) []grpc.DialOption {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(transport.UnaryClientRequestID()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}
	return append(dialOpts, opts.Extra...)
}

// DialConn opens a client connection with the package's default options.
func DialConn(target string, opts DialOptions) (*grpc.ClientConn, error) {
	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	return grpc.DialContext(ctx, target, dialOptions(opts)...)
}

func Dial(target string, signer keys.Signer, opts DialOptions) (*Client, error) {
	cc, err := DialConn(target, opts)
	if err != nil {
		return nil, err
	}
	c := NewClient(cc, signer)
	c.cc = cc
	return c, nil
}

// NewClient wraps an existing connection. Closing the Client does not close cc.
func NewClient(cc grpc.ClientConnInterface, signer keys.Signer) *Client {
	return &Client{client: NewResolverClient(cc), Signer: signer, now: time.Now}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Call(ctx context.Context, msg resolver.Message) ([]byte, error) {
	method, invoke := methodCall, c.client.Call
	if msg.ReadOnly {
		method, invoke = methodStaticCall, c.client.StaticCall
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()

	if c.Signer != nil {
		env := keys.Envelope{Method: method, Data: msg.Data, ReadOnly: msg.ReadOnly}
		switch msg.Caller {
		case c.Signer.Public().Address():
		case model.ZeroAddress:
			env.Anonymous = true
		default:
			env.Origin = msg.Caller
		}
		var err error
		if ctx, err = signCall(ctx, c.Signer, env, c.now()); err != nil {
			return nil, err
		}
	}

	reply, err := invoke(ctx, wrapperspb.Bytes(msg.Data))
	if err != nil {
		return nil, mapRPC(err)
	}
	return reply.GetValue(), nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}
