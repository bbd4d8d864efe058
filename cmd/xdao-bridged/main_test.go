package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"xdao.co/ensbridge/bridge"
	"xdao.co/ensbridge/config"
	"xdao.co/ensbridge/keys"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/nodeutil"
	"xdao.co/ensbridge/registry"
	"xdao.co/ensbridge/resolver"
	"xdao.co/ensbridge/storage/storeconfig"
	"xdao.co/ensbridge/transport/grpcbridge"
	"xdao.co/ensbridge/transport/grpcdir"
)

func listen(t *testing.T, register func(*grpc.Server)) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	register(srv)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func testSigner(t *testing.T, b byte) (keys.Signer, string) {
	t.Helper()
	seed := bytes.Repeat([]byte{b}, keys.SeedSize)
	s, err := keys.NewSigner(keys.Ed25519, seed)
	require.NoError(t, err)
	ks, err := keys.OpenKeyStore(t.TempDir())
	require.NoError(t, err)
	_, path, err := ks.Init("test", keys.Ed25519, seed, false)
	require.NoError(t, err)
	return s, path
}

func TestDaemonServesBridge(t *testing.T) {
	ctx := context.Background()
	owner, _ := testSigner(t, 1)
	fwd, fwdKey := testSigner(t, 2)
	deployer := owner.Public().Address()

	hostMem := registry.NewMemory(deployer)
	delegatedMem := registry.NewMemory(deployer)
	_, err := hostMem.SetSubnodeOwner(deployer, model.ZeroNode, nodeutil.Labelhash("eth"), deployer)
	require.NoError(t, err)
	_, err = delegatedMem.SetSubnodeOwner(deployer, model.ZeroNode, nodeutil.Labelhash("badass"), deployer)
	require.NoError(t, err)

	public := resolver.NewPublic(delegatedMem)
	publicAddr := model.Address{19: 0x50}
	d, err := delegatedMem.SetSubnodeRecord(deployer, nodeutil.Namehash("badass"), nodeutil.Labelhash("fucking"), deployer, publicAddr, 100000)
	require.NoError(t, err)
	h, err := hostMem.SetSubnodeRecord(deployer, nodeutil.Namehash("eth"), nodeutil.Labelhash("fuckingfucker"), deployer, model.Address{19: 0xb0}, 100000)
	require.NoError(t, err)

	cfg := config.Config{
		Listen:             "127.0.0.1:0",
		HostDirectory:      listen(t, func(s *grpc.Server) { grpcdir.RegisterDirectoryServer(s, &grpcdir.Server{Directory: hostMem}) }),
		DelegatedDirectory: listen(t, func(s *grpc.Server) { grpcdir.RegisterDirectoryServer(s, &grpcdir.Server{Directory: delegatedMem}) }),
		Store: storeconfig.Config{Backends: []storeconfig.BackendConfig{
			{Name: "sqlite", Config: map[string]string{"sqlite-path": filepath.Join(t.TempDir(), "bridge.db")}},
		}},
		Routes: map[string]string{
			publicAddr.Hex(): listen(t, func(s *grpc.Server) {
				grpcbridge.RegisterResolverServer(s, grpcbridge.NewServer(public, grpcbridge.ServerOptions{
					TrustedForwarders: []model.Address{fwd.Public().Address()},
				}))
			}),
		},
		KeyFile:     fwdKey,
		DialTimeout: 5 * time.Second,
		CallTimeout: 5 * time.Second,
	}
	require.NoError(t, cfg.Validate())

	dm, err := newDaemon(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })
	bridgeTarget := listen(t, func(s *grpc.Server) {
		// Serve the daemon's service description on a test listener.
		grpcbridge.RegisterResolverServer(s, grpcbridge.NewServer(dm.bridge, grpcbridge.ServerOptions{AllowAnonymous: true}))
	})

	c, err := grpcbridge.Dial(bridgeTarget, owner, grpcbridge.DialOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = c.Call(ctx, resolver.Message{Caller: owner.Public().Address(), Data: bridge.SetDelegationCall(h, d)})
	require.NoError(t, err)
	_, err = c.Call(ctx, resolver.Message{Caller: owner.Public().Address(), Data: resolver.SetTextCall(h, "url", "https://fucking.badass")})
	require.NoError(t, err)
	assert.Equal(t, "https://fucking.badass", public.Text(d, "url"))

	anon, err := grpcbridge.Dial(bridgeTarget, nil, grpcbridge.DialOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = anon.Close() })
	ret, err := anon.Call(ctx, resolver.Message{Data: resolver.TextCall(h, "url"), ReadOnly: true})
	require.NoError(t, err)
	text, err := resolver.DecodeString(ret)
	require.NoError(t, err)
	assert.Equal(t, "https://fucking.badass", text)
}

func TestDaemonRejectsBadKeyFile(t *testing.T) {
	cfg := config.Config{
		Listen:             "127.0.0.1:0",
		HostDirectory:      "127.0.0.1:1",
		DelegatedDirectory: "127.0.0.1:1",
		Store:              storeconfig.Config{Backends: []storeconfig.BackendConfig{{Name: "memory"}}},
		KeyFile:            filepath.Join(t.TempDir(), "missing.key"),
	}
	_, err := newDaemon(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunListsBackends(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"--list-backends"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	for _, name := range []string{"localfs", "memory", "sqlite"} {
		assert.Contains(t, out.String(), name)
	}
}

func TestRunRejectsMissingConfig(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "--env-file", ""}, &out, &errOut)
	assert.Equal(t, 2, code)
	assert.True(t, strings.Contains(errOut.String(), "config"), errOut.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	mem := registry.NewMemory(model.Address{1})
	dir := listen(t, func(s *grpc.Server) { grpcdir.RegisterDirectoryServer(s, &grpcdir.Server{Directory: mem}) })
	t.Setenv("BRIDGE_LISTEN", "127.0.0.1:0")
	t.Setenv("BRIDGE_HOST_DIRECTORY", dir)
	t.Setenv("BRIDGE_DELEGATED_DIRECTORY", dir)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	var out, errOut bytes.Buffer
	go func() { done <- run(ctx, []string{"--env-file", ""}, &out, &errOut) }()
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
