package storeregistry

import (
	"context"
	"errors"
	"flag"
	"strings"
	"testing"

	"xdao.co/ensbridge/nodeutil"
	"xdao.co/ensbridge/storage"
)

func TestMemoryBackendIsBuiltin(t *testing.T) {
	names := Names(UsageDaemon)
	found := false
	for _, n := range names {
		if n == "memory" {
			found = true
		}
	}
	if !found {
		t.Fatalf("memory backend not registered: %v", names)
	}

	s, closeFn, err := OpenWithConfig("memory", UsageDaemon, nil)
	if err != nil {
		t.Fatalf("OpenWithConfig: %v", err)
	}
	if closeFn != nil {
		t.Fatalf("memory backend should not need closing")
	}
	host := nodeutil.Namehash("fuckingfucker.eth")
	if _, err := s.Get(context.Background(), host); !storage.IsNotFound(err) {
		t.Fatalf("fresh store should be empty, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	open := func() (storage.Store, func() error, error) { return storage.NewMemory(), nil, nil }
	flags := func(*flag.FlagSet) {}

	cases := []Backend{
		{Usage: UsageCLI, RegisterFlags: flags, Open: open},
		{Name: "x-noflags", Usage: UsageCLI, Open: open},
		{Name: "x-noopen", Usage: UsageCLI, RegisterFlags: flags},
		{Name: "x-nousage", RegisterFlags: flags, Open: open},
		{Name: "memory", Usage: UsageCLI, RegisterFlags: flags, Open: open},
	}
	for _, b := range cases {
		if err := Register(b); err == nil {
			t.Fatalf("Register(%q): expected error", b.Name)
		}
	}
}

func TestOpenRespectsUsage(t *testing.T) {
	err := Register(Backend{
		Name:          "test-cli-only",
		Usage:         UsageCLI,
		RegisterFlags: func(*flag.FlagSet) {},
		Open:          func() (storage.Store, func() error, error) { return storage.NewMemory(), nil, nil },
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := Open("test-cli-only", UsageDaemon); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("expected usage rejection, got %v", err)
	}
	if _, _, err := Open("test-cli-only", UsageCLI); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, _, err := OpenWithConfig("test-cli-only", UsageCLI, nil); !errors.Is(err, ErrNoConfig) {
		t.Fatalf("expected error for backend without OpenConfig, got %v", err)
	}
	if _, _, err := Open("does-not-exist", UsageCLI); !errors.Is(err, ErrUnknownBackend) || !strings.Contains(err.Error(), "does-not-exist") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}
