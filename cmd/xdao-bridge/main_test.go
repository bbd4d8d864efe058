package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"xdao.co/ensbridge/bridge"
	"xdao.co/ensbridge/keys"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/nodeutil"
	"xdao.co/ensbridge/registry"
	"xdao.co/ensbridge/resolver"
	"xdao.co/ensbridge/transport/grpcbridge"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, strings.TrimSpace(out.String()), errOut.String()
}

func TestNamehashAndSelector(t *testing.T) {
	code, out, _ := runCLI(t, "namehash", "foo.eth")
	require.Equal(t, 0, code)
	assert.Equal(t, "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f", out)

	code, out, _ = runCLI(t, "selector", "addr(bytes32)")
	require.Equal(t, 0, code)
	assert.Equal(t, "0x3b3b57de", out)

	code, _, _ = runCLI(t, "namehash")
	assert.Equal(t, 2, code)
}

func TestNodeCIDRoundTrip(t *testing.T) {
	code, out, errOut := runCLI(t, "node-cid", "eth")
	require.Equal(t, 0, code, errOut)
	hexForm, cidForm, ok := strings.Cut(out, "\t")
	require.True(t, ok, out)
	assert.Equal(t, "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae", hexForm)

	code, out, errOut = runCLI(t, "node-cid", cidForm)
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasPrefix(out, hexForm+"\t"), out)
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown command")
}

func TestKeyCommands(t *testing.T) {
	dir := t.TempDir()
	seed := strings.Repeat("07", keys.SeedSize)

	code, out, errOut := runCLI(t, "key", "init", "--keys-dir", dir, "--name", "ops", "--seed-hex", seed)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Created key: ed25519:")

	want, err := keys.NewSigner(keys.Ed25519, bytes.Repeat([]byte{7}, keys.SeedSize))
	require.NoError(t, err)
	assert.Contains(t, out, "Address: "+want.Public().Address().Hex())

	code, _, _ = runCLI(t, "key", "init", "--keys-dir", dir, "--name", "ops", "--seed-hex", seed)
	assert.Equal(t, 1, code, "existing key must not be overwritten without --force")

	code, _, errOut = runCLI(t, "key", "derive", "--keys-dir", dir, "--from", "ops", "--role", "forwarder")
	require.Equal(t, 0, code, errOut)

	code, out, errOut = runCLI(t, "key", "export", "--keys-dir", dir, "--name", "ops")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, want.Public().Address().Hex())

	code, out, errOut = runCLI(t, "key", "list", "--keys-dir", dir)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "ops\t[forwarder]", out)

	code, _, _ = runCLI(t, "key", "init", "--keys-dir", dir, "--name", "pq", "--scheme", "dilithium3")
	assert.Equal(t, 0, code)
	code, _, _ = runCLI(t, "key", "init", "--keys-dir", dir, "--name", "bad", "--scheme", "rsa")
	assert.Equal(t, 1, code)
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	code, out, errOut := runCLI(t, "store", "put", "--store", "localfs", "--localfs-dir", dir, "--host", "fuckingfucker.eth", "--delegated", "fucking.badass")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, nodeutil.Namehash("fucking.badass").Hex())

	code, out, errOut = runCLI(t, "store", "get", "--store", "localfs", "--localfs-dir", dir, "--host", "fuckingfucker.eth")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, nodeutil.Namehash("fucking.badass").Hex(), out)

	code, _, errOut = runCLI(t, "store", "get", "--store", "localfs", "--localfs-dir", dir, "--host", "other.eth")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no delegation")

	bundlePath := filepath.Join(t.TempDir(), "delegations.tar")
	code, _, errOut = runCLI(t, "store", "export", "--store", "localfs", "--localfs-dir", dir, "--out", bundlePath, "--label", "fuckingfucker.eth")
	require.Equal(t, 0, code, errOut)

	db := filepath.Join(t.TempDir(), "bridge.db")
	code, out, errOut = runCLI(t, "store", "import", "--store", "sqlite", "--sqlite-path", db, "--in", bundlePath)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "imported 1 records", out)

	code, out, errOut = runCLI(t, "store", "get", "--store", "sqlite", "--sqlite-path", db, "--host", "fuckingfucker.eth")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, nodeutil.Namehash("fucking.badass").Hex(), out)

	code, out, _ = runCLI(t, "store", "backends")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "sqlite")
}

func TestRemoteCommands(t *testing.T) {
	keysDir := t.TempDir()
	seed := strings.Repeat("01", keys.SeedSize)
	code, _, errOut := runCLI(t, "key", "init", "--keys-dir", keysDir, "--name", "owner", "--seed-hex", seed)
	require.Equal(t, 0, code, errOut)
	owner, err := keys.NewSigner(keys.Ed25519, bytes.Repeat([]byte{1}, keys.SeedSize))
	require.NoError(t, err)
	deployer := owner.Public().Address()

	hostDir := registry.NewMemory(deployer)
	delegatedDir := registry.NewMemory(deployer)
	network := resolver.NewNetwork()
	_, err = hostDir.SetSubnodeOwner(deployer, model.ZeroNode, nodeutil.Labelhash("eth"), deployer)
	require.NoError(t, err)
	_, err = delegatedDir.SetSubnodeOwner(deployer, model.ZeroNode, nodeutil.Labelhash("badass"), deployer)
	require.NoError(t, err)
	public := resolver.NewPublic(delegatedDir)
	publicAddr := network.Deploy(public)
	d, err := delegatedDir.SetSubnodeRecord(deployer, nodeutil.Namehash("badass"), nodeutil.Labelhash("fucking"), deployer, publicAddr, 100000)
	require.NoError(t, err)
	require.NoError(t, public.SetAddr(context.Background(), deployer, d, model.Address{19: 0x42}))

	b, err := bridge.New(hostDir, delegatedDir, network, bridge.Options{})
	require.NoError(t, err)
	_, err = hostDir.SetSubnodeRecord(deployer, nodeutil.Namehash("eth"), nodeutil.Labelhash("fuckingfucker"), deployer, network.Deploy(b), 100000)
	require.NoError(t, err)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	grpcbridge.RegisterResolverServer(srv, grpcbridge.NewServer(b, grpcbridge.ServerOptions{AllowAnonymous: true}))
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)
	target := lis.Addr().String()

	code, _, errOut = runCLI(t, "delegated-resolver", "--target", target, "--host", "fuckingfucker.eth")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no delegation")

	code, _, errOut = runCLI(t, "set-delegation", "--target", target, "--host", "fuckingfucker.eth", "--delegated", "fucking.badass")
	assert.Equal(t, 1, code, "unsigned callers own nothing")
	assert.Contains(t, errOut, "may not delegate")

	code, _, errOut = runCLI(t, "set-delegation", "--target", target, "--keys-dir", keysDir, "--signer", "owner",
		"--host", "fuckingfucker.eth", "--delegated", "fucking.badass")
	require.Equal(t, 0, code, errOut)

	code, out, errOut := runCLI(t, "resolved-delegate", "--target", target, "--host", "fuckingfucker.eth")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, d.Hex(), out)

	code, out, errOut = runCLI(t, "delegated-resolver", "--target", target, "--host", "fuckingfucker.eth")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, publicAddr.Hex(), out)

	code, out, errOut = runCLI(t, "addr", "--target", target, "--node", "fuckingfucker.eth")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, model.Address{19: 0x42}.Hex(), out)

	data := "0x" + hex.EncodeToString(resolver.AddrCall(nodeutil.Namehash("fuckingfucker.eth")))
	code, out, errOut = runCLI(t, "call", "--target", target, "--static", "--data", data)
	require.Equal(t, 0, code, errOut)
	assert.True(t, strings.HasSuffix(out, "42"), out)

	code, _, _ = runCLI(t, "call", "--target", target, "--data", "nothex")
	assert.Equal(t, 2, code)
}
