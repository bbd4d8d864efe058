package grpcbridge

import (
	"context"
	"sync"
	"time"

	"xdao.co/ensbridge/keys"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/resolver"
)

// Dialer reaches resolvers served by remote Resolver services. Routes maps
// each resolver address to a gRPC target; unrouted addresses report
// resolver.ErrNoEndpoint so a resolver.MultiDialer can fall through.
//
// Connections are opened on first use and reused. A route is fixed for the
// Dialer's lifetime.
type Dialer struct {
	Routes  map[model.Address]string
	Signer  keys.Signer
	Options DialOptions

	// Timeout is applied to every Client this Dialer hands out.
	Timeout time.Duration

	mu      sync.Mutex
	clients map[model.Address]*Client
}

var _ resolver.Dialer = (*Dialer)(nil)

func (d *Dialer) Dial(ctx context.Context, addr model.Address) (resolver.Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, ok := d.Routes[addr]
	if !ok {
		return nil, resolver.ErrNoEndpoint
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.clients[addr]; ok {
		return c, nil
	}
	c, err := Dial(target, d.Signer, d.Options)
	if err != nil {
		return nil, err
	}
	c.Timeout = d.Timeout
	if d.clients == nil {
		d.clients = map[model.Address]*Client{}
	}
	d.clients[addr] = c
	return c, nil
}

// Close closes every connection opened so far.
func (d *Dialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for addr, c := range d.clients {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
		delete(d.clients, addr)
	}
	return first
}
