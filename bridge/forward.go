package bridge

import (
	"context"
	"log/slog"

	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/resolver"
)

// Forward relays a resolver call keyed by a host node to the delegated
// resolver.
//
// The node argument at calldata.NodeOffset is replaced by the delegated node;
// every other byte, the caller and the read-only flag are passed through. The
// callee's result is returned as is.
func (b *Bridge) Forward(ctx context.Context, msg resolver.Message) ([]byte, error) {
	sel, host, _, err := calldata.Split(msg.Data)
	if err != nil {
		return nil, wrapError(KindMalformedCall, "split call", err)
	}
	delegated, addr, err := b.route(ctx, host)
	if err != nil {
		return nil, err
	}
	out, err := calldata.WithNode(msg.Data, delegated)
	if err != nil {
		return nil, wrapError(KindMalformedCall, "rewrite call", err)
	}

	ep, err := b.dialer.Dial(ctx, addr)
	if err != nil {
		b.log.WarnContext(ctx, "dial delegated resolver failed",
			slog.String("resolver", addr.Hex()), slog.Any("err", err))
		return nil, wrapError(KindForwardingFailed, "dial "+addr.Hex(), err)
	}
	ret, err := ep.Call(ctx, resolver.Message{Caller: msg.Caller, Data: out, ReadOnly: msg.ReadOnly})
	if err != nil {
		b.log.DebugContext(ctx, "forwarded call failed",
			slog.String("selector", sel.Hex()),
			slog.String("host", host.Hex()),
			slog.String("resolver", addr.Hex()),
			slog.Any("err", err))
		return nil, wrapError(KindForwardingFailed, "call "+sel.Hex()+" on "+addr.Hex(), err)
	}
	b.log.DebugContext(ctx, "forwarded call",
		slog.String("selector", sel.Hex()),
		slog.String("host", host.Hex()),
		slog.String("delegated", delegated.Hex()),
		slog.String("resolver", addr.Hex()),
		slog.Bool("read_only", msg.ReadOnly))
	return ret, nil
}
