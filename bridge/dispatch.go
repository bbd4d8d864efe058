package bridge

import (
	"context"

	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/resolver"
)

// Methods the bridge answers itself. Every other call is forwarded.
var (
	SelectorSetDelegation     = calldata.SelectorOf("setENSDelegation(bytes32,bytes32)")
	SelectorDelegation        = calldata.SelectorOf("ensDelegation(bytes32)")
	SelectorDelegatedResolver = calldata.SelectorOf("delegatedResolver(bytes32)")

	// InterfaceID is the ERC-165 identifier of the bridge's own methods.
	InterfaceID = xorSelectors(SelectorSetDelegation, SelectorDelegation, SelectorDelegatedResolver)
)

// DefaultInterfaces are the record interfaces every bridge advertises: the
// addr, contenthash and text profiles a delegated public resolver serves.
var DefaultInterfaces = []calldata.Selector{
	resolver.SelectorAddr,
	resolver.SelectorContenthash,
	resolver.SelectorText,
}

func SetDelegationCall(host, delegated model.Node) []byte {
	return calldata.Pack(SelectorSetDelegation, calldata.Bytes32(host), calldata.Bytes32(delegated))
}

func DelegationCall(host model.Node) []byte {
	return calldata.Pack(SelectorDelegation, calldata.Bytes32(host))
}

func DelegatedResolverCall(host model.Node) []byte {
	return calldata.Pack(SelectorDelegatedResolver, calldata.Bytes32(host))
}

// Call makes the Bridge a resolver.Endpoint. Its own methods are dispatched
// locally; anything else goes through Forward.
func (b *Bridge) Call(ctx context.Context, msg resolver.Message) ([]byte, error) {
	sel, ok := calldata.SelectorFromCall(msg.Data)
	if !ok {
		return nil, newError(KindMalformedCall, "call shorter than a selector")
	}
	args := msg.Data[calldata.SelectorSize:]

	switch sel {
	case SelectorSetDelegation:
		if msg.ReadOnly {
			return nil, resolver.ErrReadOnly
		}
		vals, err := calldata.Decode(args, calldata.TypeBytes32, calldata.TypeBytes32)
		if err != nil {
			return nil, wrapError(KindMalformedCall, "setENSDelegation arguments", err)
		}
		host, _ := vals.Node(0)
		delegated, _ := vals.Node(1)
		return nil, b.SetDelegation(ctx, msg.Caller, host, delegated)

	case SelectorDelegation:
		host, err := hostArg(args, "ensDelegation")
		if err != nil {
			return nil, err
		}
		d, err := b.ResolvedDelegate(ctx, host)
		if err != nil {
			return nil, err
		}
		return calldata.Encode(calldata.Bytes32(d)), nil

	case SelectorDelegatedResolver:
		host, err := hostArg(args, "delegatedResolver")
		if err != nil {
			return nil, err
		}
		addr, err := b.DelegatedResolverAddress(ctx, host)
		if err != nil {
			return nil, err
		}
		return calldata.Encode(calldata.Address(addr)), nil

	case resolver.SelectorSupportsInterface:
		vals, err := calldata.Decode(args, calldata.TypeBytes4)
		if err != nil {
			return nil, wrapError(KindMalformedCall, "supportsInterface id", err)
		}
		id, _ := vals.Selector(0)
		return calldata.Encode(calldata.Bool(b.ifaces[id])), nil

	default:
		return b.Forward(ctx, msg)
	}
}

func hostArg(args []byte, method string) (model.Node, error) {
	vals, err := calldata.Decode(args, calldata.TypeBytes32)
	if err != nil {
		return model.ZeroNode, wrapError(KindMalformedCall, method+" host", err)
	}
	host, _ := vals.Node(0)
	return host, nil
}

func xorSelectors(sels ...calldata.Selector) calldata.Selector {
	var out calldata.Selector
	for _, s := range sels {
		for i := range out {
			out[i] ^= s[i]
		}
	}
	return out
}
