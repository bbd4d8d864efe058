package storage

import (
	"context"

	"xdao.co/ensbridge/model"
)

// Multi provides deterministic, ordered read fallback across several stores.
//
// Lookup order is the slice order in Stores; callers MUST supply a fixed order.
// Put writes only to the first store.
type Multi struct {
	Stores []Store
}

var _ Store = Multi{}

func (m Multi) Put(ctx context.Context, host, delegated model.Node) error {
	if len(m.Stores) == 0 {
		return ErrNoStores
	}
	return m.Stores[0].Put(ctx, host, delegated)
}

func (m Multi) Get(ctx context.Context, host model.Node) (model.Node, error) {
	for _, s := range m.Stores {
		d, err := s.Get(ctx, host)
		if err == nil {
			return d, nil
		}
		if IsNotFound(err) {
			continue
		}
		return model.ZeroNode, err
	}
	return model.ZeroNode, ErrNotFound
}
