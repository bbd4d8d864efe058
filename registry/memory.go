package registry

import (
	"context"
	"sync"

	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/nodeutil"
)

// Memory is an in-process registry.
//
// The root node is owned by the address given to NewMemory. Every mutation
// requires the caller to own the node being changed (for Set*Subnode*, the
// parent). Mutations are all-or-nothing.
type Memory struct {
	mu      sync.RWMutex
	records map[model.Node]Record
}

var _ Directory = (*Memory)(nil)

func NewMemory(rootOwner model.Address) *Memory {
	return &Memory{records: map[model.Node]Record{
		model.ZeroNode: {Owner: rootOwner},
	}}
}

func (m *Memory) Owner(ctx context.Context, node model.Node) (model.Address, error) {
	if err := ctx.Err(); err != nil {
		return model.ZeroAddress, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[node].Owner, nil
}

func (m *Memory) Resolver(ctx context.Context, node model.Node) (model.Address, error) {
	if err := ctx.Err(); err != nil {
		return model.ZeroAddress, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[node].Resolver, nil
}

func (m *Memory) TTL(ctx context.Context, node model.Node) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[node].TTL, nil
}

// Record returns a snapshot of the node's record.
func (m *Memory) Record(node model.Node) Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[node]
}

// SetRecord replaces owner, resolver and TTL of node in one step.
func (m *Memory) SetRecord(caller model.Address, node model.Node, owner, resolver model.Address, ttl uint64) error {
	return m.update(caller, node, func() {
		m.records[node] = Record{Owner: owner, Resolver: resolver, TTL: ttl}
	})
}

// SetSubnodeOwner creates or reassigns label under node and returns the subnode.
func (m *Memory) SetSubnodeOwner(caller model.Address, node, label model.Node, owner model.Address) (model.Node, error) {
	sub := nodeutil.Subnode(node, label)
	err := m.update(caller, node, func() {
		r := m.records[sub]
		r.Owner = owner
		m.records[sub] = r
	})
	return sub, err
}

// SetSubnodeRecord is SetSubnodeOwner plus resolver and TTL assignment.
func (m *Memory) SetSubnodeRecord(caller model.Address, node, label model.Node, owner, resolver model.Address, ttl uint64) (model.Node, error) {
	sub := nodeutil.Subnode(node, label)
	err := m.update(caller, node, func() {
		m.records[sub] = Record{Owner: owner, Resolver: resolver, TTL: ttl}
	})
	return sub, err
}

func (m *Memory) SetOwner(caller model.Address, node model.Node, owner model.Address) error {
	return m.update(caller, node, func() {
		r := m.records[node]
		r.Owner = owner
		m.records[node] = r
	})
}

func (m *Memory) SetResolver(caller model.Address, node model.Node, resolver model.Address) error {
	return m.update(caller, node, func() {
		r := m.records[node]
		r.Resolver = resolver
		m.records[node] = r
	})
}

func (m *Memory) SetTTL(caller model.Address, node model.Node, ttl uint64) error {
	return m.update(caller, node, func() {
		r := m.records[node]
		r.TTL = ttl
		m.records[node] = r
	})
}

func (m *Memory) update(caller model.Address, authNode model.Node, apply func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner := m.records[authNode].Owner
	if owner.IsZero() || owner != caller {
		return ErrUnauthorized
	}
	apply()
	return nil
}
