package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"xdao.co/ensbridge/model"
)

// NamedStore associates a Store with a stable backend name for error reporting.
type NamedStore struct {
	Name  string
	Store Store
}

// Replicating writes every record to all configured backends.
//
// Reads fall back in order. A Put that fails on any backend is rolled back on
// the backends already written, so a failed Put leaves every backend with its
// previous value. A host that had no record is rolled back to the zero node,
// which reads as "no delegation".
//
// Puts are serialised, so every backend sees writes in the same order and
// ends with the same last writer.
type Replicating struct {
	Backends []NamedStore

	mu sync.Mutex
}

var _ Store = (*Replicating)(nil)

func (r *Replicating) Put(ctx context.Context, host, delegated model.Node) error {
	if len(r.Backends) == 0 {
		return ErrNoStores
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var done []replicaWrite
	fail := func(err error) error {
		return errors.Join(err, r.rollback(ctx, host, done))
	}
	for _, b := range r.Backends {
		if b.Store == nil {
			return fail(fmt.Errorf("storage: nil store for backend %q", b.Name))
		}
		prev, err := b.Store.Get(ctx, host)
		if err != nil && !IsNotFound(err) {
			return fail(fmt.Errorf("storage: backend %q: %w", b.Name, err))
		}
		if err := b.Store.Put(ctx, host, delegated); err != nil {
			return fail(fmt.Errorf("storage: backend %q: %w", b.Name, err))
		}
		done = append(done, replicaWrite{b: b, prev: prev})
	}
	return nil
}

type replicaWrite struct {
	b    NamedStore
	prev model.Node
}

// rollback restores prior values on the backends already written and
// returns the restores that failed.
func (r *Replicating) rollback(ctx context.Context, host model.Node, done []replicaWrite) error {
	var errs []error
	for i := len(done) - 1; i >= 0; i-- {
		if err := done[i].b.Store.Put(context.WithoutCancel(ctx), host, done[i].prev); err != nil {
			errs = append(errs, fmt.Errorf("storage: rollback backend %q: %w", done[i].b.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Replicating) Get(ctx context.Context, host model.Node) (model.Node, error) {
	for _, b := range r.Backends {
		if b.Store == nil {
			continue
		}
		d, err := b.Store.Get(ctx, host)
		if err == nil {
			return d, nil
		}
		if IsNotFound(err) {
			continue
		}
		return model.ZeroNode, fmt.Errorf("storage: backend %q: %w", b.Name, err)
	}
	return model.ZeroNode, ErrNotFound
}
