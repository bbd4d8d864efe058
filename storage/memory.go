package storage

import (
	"context"
	"sync"

	"xdao.co/ensbridge/model"
)

// Memory is a process-local Store.
type Memory struct {
	mu      sync.RWMutex
	records map[model.Node]model.Node
}

var (
	_ Store  = (*Memory)(nil)
	_ Lister = (*Memory)(nil)
)

func NewMemory() *Memory {
	return &Memory{records: map[model.Node]model.Node{}}
}

func (m *Memory) Get(ctx context.Context, host model.Node) (model.Node, error) {
	if err := ctx.Err(); err != nil {
		return model.ZeroNode, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.records[host]
	if !ok {
		return model.ZeroNode, ErrNotFound
	}
	return d, nil
}

func (m *Memory) Put(ctx context.Context, host, delegated model.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[host] = delegated
	return nil
}

func (m *Memory) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]Record, 0, len(m.records))
	for h, d := range m.records {
		out = append(out, Record{Host: h, Delegated: d})
	}
	m.mu.RUnlock()
	SortRecords(out)
	return out, nil
}
