package resolver

import (
	"context"
	"fmt"

	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/registry"
)

// CallVia performs a call the way a registry client does: it reads the node
// from msg.Data, asks dir for that node's resolver and calls it.
//
// ErrNoEndpoint is returned when dir lists no resolver for the node.
func CallVia(ctx context.Context, dir registry.Directory, dialer Dialer, msg Message) ([]byte, error) {
	_, node, _, err := calldata.Split(msg.Data)
	if err != nil {
		return nil, err
	}
	addr, err := dir.Resolver(ctx, node)
	if err != nil {
		return nil, err
	}
	if addr.IsZero() {
		return nil, fmt.Errorf("%w: no resolver set for %s", ErrNoEndpoint, node)
	}
	ep, err := dialer.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	return ep.Call(ctx, msg)
}
