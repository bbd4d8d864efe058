package resolver

import (
	"context"
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/sha3"

	"xdao.co/ensbridge/model"
)

// Network is an in-process address space of endpoints.
type Network struct {
	mu        sync.RWMutex
	endpoints map[model.Address]Endpoint
	nonce     uint64
}

var _ Dialer = (*Network)(nil)

func NewNetwork() *Network {
	return &Network{endpoints: map[model.Address]Endpoint{}}
}

// Attach binds ep to addr.
func (n *Network) Attach(addr model.Address, ep Endpoint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.endpoints[addr]; ok || addr.IsZero() {
		return ErrAddressInUse
	}
	n.endpoints[addr] = ep
	return nil
}

// Deploy binds ep to a fresh address and returns it. Addresses are derived
// from a per-network counter, so a sequence of deployments is reproducible.
func (n *Network) Deploy(ep Endpoint) model.Address {
	n.mu.Lock()
	defer n.mu.Unlock()
	for {
		n.nonce++
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], n.nonce)
		h := sha3.NewLegacyKeccak256()
		_, _ = h.Write([]byte("xdao-ensbridge/network"))
		_, _ = h.Write(buf[:])
		sum := h.Sum(nil)

		var addr model.Address
		copy(addr[:], sum[len(sum)-model.AddressSize:])
		if _, taken := n.endpoints[addr]; taken || addr.IsZero() {
			continue
		}
		n.endpoints[addr] = ep
		return addr
	}
}

// Detach removes the endpoint bound to addr, if any.
func (n *Network) Detach(addr model.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.endpoints, addr)
}

func (n *Network) Dial(ctx context.Context, addr model.Address) (Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	ep, ok := n.endpoints[addr]
	if !ok {
		return nil, ErrNoEndpoint
	}
	return ep, nil
}
