package storeregistry

import (
	"flag"

	"xdao.co/ensbridge/storage"
)

func init() {
	MustRegister(Backend{
		Name:          "memory",
		Description:   "In-process delegation store (lost on exit)",
		Usage:         UsageCLI | UsageDaemon,
		RegisterFlags: func(*flag.FlagSet) {},
		Open: func() (storage.Store, func() error, error) {
			return storage.NewMemory(), nil, nil
		},
		OpenConfig: func(map[string]string) (storage.Store, func() error, error) {
			return storage.NewMemory(), nil, nil
		},
	})
}
