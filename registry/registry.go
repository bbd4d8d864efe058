// Package registry models a naming authority's directory: for every node, an
// owner, a resolver address and a TTL.
//
// The bridge only ever reads a directory through Directory. Memory is an
// in-process registry with ENS ownership rules, used by tests, tools and the
// gRPC directory service.
package registry

import (
	"context"
	"errors"

	"xdao.co/ensbridge/model"
)

var ErrUnauthorized = errors.New("registry: caller does not own node")

// Directory is the read side of a naming authority.
//
// Unset owners and resolvers are reported as the zero address, never as an
// error; errors mean the directory itself could not be consulted.
type Directory interface {
	Owner(ctx context.Context, node model.Node) (model.Address, error)
	Resolver(ctx context.Context, node model.Node) (model.Address, error)
	TTL(ctx context.Context, node model.Node) (uint64, error)
}

// Record is the per-node state held by a directory.
type Record struct {
	Owner    model.Address
	Resolver model.Address
	TTL      uint64
}
