// Package storeregistry lets binaries choose where delegation records live.
//
// Each backend package (storage/localfs, storage/sqlite, the built-in memory
// store) registers a Backend from init(). xdao-bridge and xdao-bridged link
// the backends they support with blank imports and select one by name, from
// flags or from the store section of the daemon config.
package storeregistry

import (
	"errors"
	"flag"
	"fmt"
	"sort"
	"sync"

	"xdao.co/ensbridge/storage"
)

var (
	// ErrUnknownBackend is returned for a backend name nobody registered.
	ErrUnknownBackend = errors.New("storeregistry: unknown delegation store backend")
	// ErrNotLinked is returned when a backend exists but is not offered to
	// the requesting program.
	ErrNotLinked = errors.New("storeregistry: delegation store backend not supported in this binary")
	// ErrNoConfig is returned when a backend can only be opened from flags.
	ErrNoConfig = errors.New("storeregistry: delegation store backend has no config form")
)

// Opener builds a delegation store. The close function may be nil.
type Opener func() (storage.Store, func() error, error)

// Backend describes one way of persisting host -> delegated node records.
type Backend struct {
	Name        string
	Description string
	Usage       Usage

	// RegisterFlags adds the backend's flags (directory, DSN) to fs. It is
	// called at most once per flag set.
	RegisterFlags func(fs *flag.FlagSet)

	// Open builds the store from the values parsed into those flags.
	Open Opener

	// OpenConfig builds the store from the daemon's store options, whose
	// keys match the flag names. Optional.
	OpenConfig func(opts map[string]string) (storage.Store, func() error, error)
}

func (b Backend) validate() error {
	switch {
	case b.Name == "":
		return errors.New("storeregistry: backend without a name")
	case b.Usage == 0:
		return fmt.Errorf("storeregistry: backend %q is not offered to any binary", b.Name)
	case b.RegisterFlags == nil:
		return fmt.Errorf("storeregistry: backend %q has no flags hook", b.Name)
	case b.Open == nil:
		return fmt.Errorf("storeregistry: backend %q cannot open a store", b.Name)
	}
	return nil
}

var registered = struct {
	sync.RWMutex
	byName map[string]Backend
}{byName: map[string]Backend{}}

// Register adds a delegation store backend. Names are unique.
func Register(b Backend) error {
	if err := b.validate(); err != nil {
		return err
	}
	registered.Lock()
	defer registered.Unlock()
	if _, dup := registered.byName[b.Name]; dup {
		return fmt.Errorf("storeregistry: backend %q registered twice", b.Name)
	}
	registered.byName[b.Name] = b
	return nil
}

// MustRegister is Register for init functions.
func MustRegister(b Backend) {
	if err := Register(b); err != nil {
		panic(err)
	}
}

// List returns the backends offered to usage, ordered by name.
func List(usage Usage) []Backend {
	registered.RLock()
	out := make([]Backend, 0, len(registered.byName))
	for _, b := range registered.byName {
		if b.Usage.allows(usage) {
			out = append(out, b)
		}
	}
	registered.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names lists the backend names offered to usage, for help text.
func Names(usage Usage) []string {
	var names []string
	for _, b := range List(usage) {
		names = append(names, b.Name)
	}
	return names
}

// RegisterFlags adds every usable backend's flags to fs up front, since the
// flag package rejects flags it does not know before -backend is read.
func RegisterFlags(fs *flag.FlagSet, usage Usage) {
	for _, b := range List(usage) {
		b.RegisterFlags(fs)
	}
}

// Open builds the named delegation store from parsed flags.
func Open(name string, usage Usage) (storage.Store, func() error, error) {
	b, err := find(name, usage)
	if err != nil {
		return nil, nil, err
	}
	return b.Open()
}

// OpenWithConfig builds the named delegation store from config options.
func OpenWithConfig(name string, usage Usage, opts map[string]string) (storage.Store, func() error, error) {
	b, err := find(name, usage)
	if err != nil {
		return nil, nil, err
	}
	if b.OpenConfig == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrNoConfig, name)
	}
	return b.OpenConfig(opts)
}

func find(name string, usage Usage) (Backend, error) {
	registered.RLock()
	b, ok := registered.byName[name]
	registered.RUnlock()
	switch {
	case !ok:
		return Backend{}, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	case !b.Usage.allows(usage):
		return Backend{}, fmt.Errorf("%w: %q", ErrNotLinked, name)
	}
	return b, nil
}
