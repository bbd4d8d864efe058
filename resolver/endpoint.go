// Package resolver defines how resolver calls are addressed and executed.
//
// A resolver is anything reachable at a model.Address that accepts raw call
// data (see package calldata) and returns raw result bytes. The vocabulary of
// calls is open: Endpoint never enumerates methods.
package resolver

import (
	"context"
	"errors"

	"xdao.co/ensbridge/model"
)

var (
	ErrNoEndpoint    = errors.New("resolver: no endpoint at address")
	ErrAddressInUse  = errors.New("resolver: address already attached")
	ErrReadOnly      = errors.New("resolver: state change in read-only call")
	ErrUnknownMethod = errors.New("resolver: unknown method")
	ErrUnauthorized  = errors.New("resolver: caller not authorised for node")
	ErrBadArguments  = errors.New("resolver: malformed arguments")
)

// Message is one call.
//
// Caller is the party the call acts for; the zero address is an anonymous
// caller and owns nothing. ReadOnly calls must not change state;
// endpoints reject state-changing methods with ErrReadOnly.
type Message struct {
	Caller   model.Address
	Data     []byte
	ReadOnly bool
}

// Endpoint executes calls. A failed call has no effect.
type Endpoint interface {
	Call(ctx context.Context, msg Message) ([]byte, error)
}

// EndpointFunc adapts a function to Endpoint.
type EndpointFunc func(ctx context.Context, msg Message) ([]byte, error)

func (f EndpointFunc) Call(ctx context.Context, msg Message) ([]byte, error) { return f(ctx, msg) }

// Dialer finds the endpoint at an address. Dial must not cache results across
// calls unless the address-to-endpoint binding is immutable.
type Dialer interface {
	Dial(ctx context.Context, addr model.Address) (Endpoint, error)
}

// MultiDialer tries each dialer in order and returns the first endpoint found.
//
// Only ErrNoEndpoint moves on to the next dialer; any other error is returned.
type MultiDialer []Dialer

func (m MultiDialer) Dial(ctx context.Context, addr model.Address) (Endpoint, error) {
	for _, d := range m {
		ep, err := d.Dial(ctx, addr)
		if err == nil {
			return ep, nil
		}
		if errors.Is(err, ErrNoEndpoint) {
			continue
		}
		return nil, err
	}
	return nil, ErrNoEndpoint
}
