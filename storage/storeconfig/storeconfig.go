package storeconfig

import (
	"errors"
	"fmt"

	"xdao.co/ensbridge/storage"
	"xdao.co/ensbridge/storage/storeregistry"
)

// Config describes how to open one or more delegation stores via storeregistry.
//
// WritePolicy values:
// - "first" (default): write only to the first backend; reads fall back in order
// - "all": write to every backend, rolling back on partial failure (see storage.Replicating)
//
// Example (YAML):
//
//	store:
//	  write_policy: all
//	  backends:
//	    - name: sqlite
//	      config: {sqlite-path: /var/lib/xdao/bridge.db}
//	    - name: localfs
//	      config: {localfs-dir: /var/lib/xdao/records}
//
// Config values are backend-specific and mirror the backend's flag names.
type Config struct {
	WritePolicy string          `json:"write_policy,omitempty" yaml:"write_policy"`
	Backends    []BackendConfig `json:"backends" yaml:"backends"`
}

type BackendConfig struct {
	// Name is the storeregistry backend name to open (e.g. "sqlite", "localfs", "memory").
	Name string `json:"name" yaml:"name"`
	// ID is an optional stable alias used in error messages. If empty, Name is used.
	ID     string            `json:"id,omitempty" yaml:"id"`
	Config map[string]string `json:"config,omitempty" yaml:"config"`
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("storeconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("storeconfig: backend name is required")
		}
		id := b.ID
		if id == "" {
			id = b.Name
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("storeconfig: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	switch c.WritePolicy {
	case "", "first", "all":
		return nil
	default:
		return fmt.Errorf("storeconfig: invalid write_policy %q", c.WritePolicy)
	}
}

// Open opens the configured stores and combines them per WritePolicy.
// The returned close function closes every opened backend in reverse order.
func (c Config) Open(usage storeregistry.Usage) (storage.Store, func() error, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	named := make([]storage.NamedStore, 0, len(c.Backends))
	closers := make([]func() error, 0, len(c.Backends))
	for _, b := range c.Backends {
		s, closeFn, err := storeregistry.OpenWithConfig(b.Name, usage, b.Config)
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i]()
			}
			return nil, nil, err
		}
		name := b.Name
		if b.ID != "" {
			name = b.ID
		}
		named = append(named, storage.NamedStore{Name: name, Store: s})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}

	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	if len(named) == 1 {
		return named[0].Store, closeAll, nil
	}
	if c.WritePolicy == "all" {
		return &storage.Replicating{Backends: named}, closeAll, nil
	}
	stores := make([]storage.Store, 0, len(named))
	for _, n := range named {
		stores = append(stores, n.Store)
	}
	return storage.Multi{Stores: stores}, closeAll, nil
}
