package resolver

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/registry"
)

// Public is a record-holding resolver for the nodes of one registry.
//
// Records may only be changed by the node's current owner in that registry.
type Public struct {
	dir registry.Directory

	mu     sync.RWMutex
	addrs  map[model.Node]model.Address
	hashes map[model.Node][]byte
	texts  map[model.Node]map[string]string
}

var _ Endpoint = (*Public)(nil)

func NewPublic(dir registry.Directory) *Public {
	return &Public{
		dir:    dir,
		addrs:  map[model.Node]model.Address{},
		hashes: map[model.Node][]byte{},
		texts:  map[model.Node]map[string]string{},
	}
}

func (p *Public) Addr(node model.Node) model.Address {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.addrs[node]
}

func (p *Public) Contenthash(node model.Node) []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]byte(nil), p.hashes[node]...)
}

func (p *Public) Text(node model.Node, key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.texts[node][key]
}

func (p *Public) SetAddr(ctx context.Context, caller model.Address, node model.Node, a model.Address) error {
	if err := p.authorise(ctx, caller, node); err != nil {
		return err
	}
	p.mu.Lock()
	p.addrs[node] = a
	p.mu.Unlock()
	return nil
}

func (p *Public) SetContenthash(ctx context.Context, caller model.Address, node model.Node, hash []byte) error {
	if err := p.authorise(ctx, caller, node); err != nil {
		return err
	}
	p.mu.Lock()
	p.hashes[node] = append([]byte(nil), hash...)
	p.mu.Unlock()
	return nil
}

func (p *Public) SetText(ctx context.Context, caller model.Address, node model.Node, key, value string) error {
	if err := p.authorise(ctx, caller, node); err != nil {
		return err
	}
	p.mu.Lock()
	m := p.texts[node]
	if m == nil {
		m = map[string]string{}
		p.texts[node] = m
	}
	m[key] = value
	p.mu.Unlock()
	return nil
}

// SupportsInterface reports ERC-165 support for the methods Public implements.
func (p *Public) SupportsInterface(id calldata.Selector) bool {
	switch id {
	case SelectorSupportsInterface, SelectorAddr, SelectorContenthash, SelectorText:
		return true
	default:
		return false
	}
}

// publicInputs lists the argument types of every method Public serves.
var publicInputs = map[calldata.Selector][]abi.Type{
	SelectorAddr:              {calldata.TypeBytes32},
	SelectorSetAddr:           {calldata.TypeBytes32, calldata.TypeAddress},
	SelectorContenthash:       {calldata.TypeBytes32},
	SelectorSetContenthash:    {calldata.TypeBytes32, calldata.TypeBytes},
	SelectorText:              {calldata.TypeBytes32, calldata.TypeString},
	SelectorSetText:           {calldata.TypeBytes32, calldata.TypeString, calldata.TypeString},
	SelectorSupportsInterface: {calldata.TypeBytes4},
}

// Call decodes msg.Data and runs the matching method.
func (p *Public) Call(ctx context.Context, msg Message) ([]byte, error) {
	sel, ok := calldata.SelectorFromCall(msg.Data)
	if !ok {
		return nil, ErrUnknownMethod
	}
	types, known := publicInputs[sel]
	if !known {
		return nil, fmt.Errorf("%w %s", ErrUnknownMethod, sel)
	}
	args, err := calldata.Decode(msg.Data[calldata.SelectorSize:], types...)
	if err != nil {
		return nil, badArgs(err)
	}

	if sel == SelectorSupportsInterface {
		id, err := args.Selector(0)
		if err != nil {
			return nil, badArgs(err)
		}
		return calldata.Encode(calldata.Bool(p.SupportsInterface(id))), nil
	}

	node, err := args.Node(0)
	if err != nil {
		return nil, badArgs(err)
	}

	switch sel {
	case SelectorAddr:
		return calldata.Encode(calldata.Address(p.Addr(node))), nil
	case SelectorContenthash:
		return calldata.Encode(calldata.Bytes(p.Contenthash(node))), nil
	case SelectorText:
		key, err := args.String(1)
		if err != nil {
			return nil, badArgs(err)
		}
		return calldata.Encode(calldata.String(p.Text(node, key))), nil
	default:
		if msg.ReadOnly {
			return nil, ErrReadOnly
		}
		return nil, p.write(ctx, msg.Caller, sel, node, args)
	}
}

func (p *Public) write(ctx context.Context, caller model.Address, sel calldata.Selector, node model.Node, args calldata.Values) error {
	switch sel {
	case SelectorSetAddr:
		a, err := args.Address(1)
		if err != nil {
			return badArgs(err)
		}
		return p.SetAddr(ctx, caller, node, a)
	case SelectorSetContenthash:
		hash, err := args.Bytes(1)
		if err != nil {
			return badArgs(err)
		}
		return p.SetContenthash(ctx, caller, node, hash)
	default:
		key, err := args.String(1)
		if err != nil {
			return badArgs(err)
		}
		value, err := args.String(2)
		if err != nil {
			return badArgs(err)
		}
		return p.SetText(ctx, caller, node, key, value)
	}
}

func (p *Public) authorise(ctx context.Context, caller model.Address, node model.Node) error {
	owner, err := p.dir.Owner(ctx, node)
	if err != nil {
		return err
	}
	if owner.IsZero() || owner != caller {
		return ErrUnauthorized
	}
	return nil
}

func badArgs(err error) error { return fmt.Errorf("%w: %v", ErrBadArguments, err) }
