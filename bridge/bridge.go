// Package bridge implements a delegating resolver.
//
// A Bridge is registered as the resolver of names in a host registry. For
// each host node it holds a delegated node, a name in a second, independent
// registry. Resolver calls addressed to the host node are rewritten to the
// delegated node and forwarded, unchanged otherwise, to whatever resolver the
// delegated registry currently lists for it. Clients of the host registry see
// the delegated records as if they were the host's own.
//
// The delegated resolver is looked up on every call. Nothing about the
// delegated registry is cached.
package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/registry"
	"xdao.co/ensbridge/resolver"
	"xdao.co/ensbridge/storage"
)

// Options configures a Bridge. The zero value is usable.
type Options struct {
	// Admin may set any delegation, in addition to each host node's owner.
	// The zero address disables the admin role.
	Admin model.Address

	// Store holds delegation records. Defaults to storage.NewMemory().
	Store storage.Store

	// Interfaces are advertised through supportsInterface in addition to
	// ERC-165, the bridge's own interface and DefaultInterfaces.
	Interfaces []calldata.Selector

	Logger *slog.Logger
}

// Bridge forwards resolver calls from a host registry to a delegated one.
// It is safe for concurrent use.
type Bridge struct {
	host      registry.Directory
	delegated registry.Directory
	dialer    resolver.Dialer
	store     storage.Store
	admin     model.Address
	ifaces    map[calldata.Selector]bool
	log       *slog.Logger
}

var _ resolver.Endpoint = (*Bridge)(nil)

// New constructs a Bridge between the host and delegated directories.
// dialer reaches the resolvers the delegated directory points at.
func New(host, delegated registry.Directory, dialer resolver.Dialer, opts Options) (*Bridge, error) {
	if host == nil || delegated == nil {
		return nil, errors.New("bridge: host and delegated directories are required")
	}
	if dialer == nil {
		return nil, errors.New("bridge: dialer is required")
	}
	b := &Bridge{
		host:      host,
		delegated: delegated,
		dialer:    dialer,
		store:     opts.Store,
		admin:     opts.Admin,
		ifaces: map[calldata.Selector]bool{
			resolver.SelectorSupportsInterface: true,
			InterfaceID:                        true,
		},
		log: opts.Logger,
	}
	for _, id := range DefaultInterfaces {
		b.ifaces[id] = true
	}
	for _, id := range opts.Interfaces {
		b.ifaces[id] = true
	}
	if b.store == nil {
		b.store = storage.NewMemory()
	}
	if b.log == nil {
		b.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return b, nil
}

// SetDelegation points host at delegated. caller must own host in the host
// registry, or be the configured admin. The delegated node is not checked.
func (b *Bridge) SetDelegation(ctx context.Context, caller model.Address, host, delegated model.Node) error {
	if err := b.authorise(ctx, caller, host); err != nil {
		return err
	}
	if err := b.store.Put(ctx, host, delegated); err != nil {
		return wrapError(KindInternal, "store delegation", err)
	}
	b.log.DebugContext(ctx, "delegation set",
		slog.String("host", host.Hex()),
		slog.String("delegated", delegated.Hex()),
		slog.String("caller", caller.Hex()))
	return nil
}

// ResolvedDelegate returns the delegated node for host, or the zero node when
// none is set.
func (b *Bridge) ResolvedDelegate(ctx context.Context, host model.Node) (model.Node, error) {
	d, err := b.store.Get(ctx, host)
	if storage.IsNotFound(err) {
		return model.ZeroNode, nil
	}
	if err != nil {
		return model.ZeroNode, wrapError(KindInternal, "load delegation", err)
	}
	return d, nil
}

// DelegatedResolverAddress returns the resolver the delegated registry
// currently lists for host's delegated node.
func (b *Bridge) DelegatedResolverAddress(ctx context.Context, host model.Node) (model.Address, error) {
	_, addr, err := b.route(ctx, host)
	return addr, err
}

func (b *Bridge) route(ctx context.Context, host model.Node) (model.Node, model.Address, error) {
	d, err := b.ResolvedDelegate(ctx, host)
	if err != nil {
		return model.ZeroNode, model.ZeroAddress, err
	}
	if d.IsZero() {
		return model.ZeroNode, model.ZeroAddress, newError(KindNoDelegation, "no delegation for "+host.Hex())
	}
	addr, err := b.delegated.Resolver(ctx, d)
	if err != nil {
		return model.ZeroNode, model.ZeroAddress, wrapError(KindInternal, "read delegated resolver", err)
	}
	if addr.IsZero() {
		return model.ZeroNode, model.ZeroAddress, newError(KindNoResolver, "no resolver for delegated node "+d.Hex())
	}
	return d, addr, nil
}

func (b *Bridge) authorise(ctx context.Context, caller model.Address, host model.Node) error {
	if !b.admin.IsZero() && caller == b.admin {
		return nil
	}
	owner, err := b.host.Owner(ctx, host)
	if err != nil {
		return wrapError(KindInternal, "read host owner", err)
	}
	if owner.IsZero() || owner != caller {
		return newError(KindUnauthorized, caller.Hex()+" may not delegate "+host.Hex())
	}
	return nil
}
