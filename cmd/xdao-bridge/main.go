package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"xdao.co/ensbridge/bridge"
	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/keys"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/nodeutil"
	"xdao.co/ensbridge/resolver"
	"xdao.co/ensbridge/transport/grpcbridge"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "namehash":
		return cmdNamehash(args[1:], out, errOut)
	case "node-cid":
		return cmdNodeCID(args[1:], out, errOut)
	case "selector":
		return cmdSelector(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "store":
		return cmdStore(args[1:], out, errOut)
	case "call":
		return cmdCall(args[1:], out, errOut)
	case "set-delegation":
		return cmdSetDelegation(args[1:], out, errOut)
	case "resolved-delegate":
		return cmdResolvedDelegate(args[1:], out, errOut)
	case "delegated-resolver":
		return cmdDelegatedResolver(args[1:], out, errOut)
	case "addr":
		return cmdAddr(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "xdao-bridge: ENS delegation bridge tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xdao-bridge namehash <name>")
	fmt.Fprintln(w, "  xdao-bridge node-cid <name|0xnode|cid>")
	fmt.Fprintln(w, "  xdao-bridge selector <signature>")
	fmt.Fprintln(w, "  xdao-bridge key init --name <name> [--scheme ed25519|dilithium3] [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  xdao-bridge key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  xdao-bridge key list")
	fmt.Fprintln(w, "  xdao-bridge key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  xdao-bridge store get --store <backend> [backend flags] --host <node>")
	fmt.Fprintln(w, "  xdao-bridge store put --store <backend> [backend flags] --host <node> --delegated <node>")
	fmt.Fprintln(w, "  xdao-bridge store export --store <backend> [backend flags] [--out <file>] [--label <name>]...")
	fmt.Fprintln(w, "  xdao-bridge store import --store <backend> [backend flags] --in <file> [--ignore-unknown]")
	fmt.Fprintln(w, "  xdao-bridge store backends")
	fmt.Fprintln(w, "  xdao-bridge call --target <host:port> --data <0xhex> [--static] [signer flags]")
	fmt.Fprintln(w, "  xdao-bridge set-delegation --target <host:port> --host <node> --delegated <node> [signer flags]")
	fmt.Fprintln(w, "  xdao-bridge resolved-delegate --target <host:port> --host <node>")
	fmt.Fprintln(w, "  xdao-bridge delegated-resolver --target <host:port> --host <node>")
	fmt.Fprintln(w, "  xdao-bridge addr --target <host:port> --node <node>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - <node> is an ENS name, a 0x-prefixed 32-byte hex node, or a node CID")
	fmt.Fprintln(w, "  - signer flags: --key-file <path> | --signer <name> [--signer-role <role>] [--keys-dir <dir>]")
	fmt.Fprintln(w, "  - keys are stored under ~/.xdao/ensbridge/keys/<name> (0600 seed files)")
	fmt.Fprintln(w, "  - call prints the raw result as 0x-prefixed hex")
}

// parseNodeArg reads a node as hex, as a CID, or else as an ENS name.
func parseNodeArg(s string) (model.Node, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.ZeroNode, fmt.Errorf("empty node")
	}
	if n, err := nodeutil.ParseNode(s); err == nil {
		return n, nil
	}
	if strings.HasPrefix(s, "0x") {
		return model.ParseNode(s)
	}
	return nodeutil.Namehash(s), nil
}

func cmdNamehash(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: xdao-bridge namehash <name>")
		return 2
	}
	_, _ = fmt.Fprintln(out, nodeutil.Namehash(args[0]).Hex())
	return 0
}

func cmdNodeCID(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: xdao-bridge node-cid <name|0xnode|cid>")
		return 2
	}
	n, err := parseNodeArg(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "invalid node: %v\n", err)
		return 2
	}
	c, err := nodeutil.CID(n)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(out, "%s\t%s\n", n.Hex(), c)
	return 0
}

func cmdSelector(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "usage: xdao-bridge selector <signature>")
		return 2
	}
	_, _ = fmt.Fprintln(out, calldata.SelectorOf(args[0]).Hex())
	return 0
}

// remoteFlags are shared by the commands that talk to a Resolver service.
type remoteFlags struct {
	target     string
	timeout    time.Duration
	keyFile    string
	signer     string
	signerRole string
	keysDir    string
}

func (r *remoteFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.target, "target", "127.0.0.1:7788", "Resolver service gRPC target host:port")
	fs.DurationVar(&r.timeout, "timeout", 10*time.Second, "Per-call timeout")
	fs.StringVar(&r.keyFile, "key-file", "", "Sign calls with this key file")
	fs.StringVar(&r.signer, "signer", "", "Sign calls with this stored key")
	fs.StringVar(&r.signerRole, "signer-role", "", "Use a derived role key of --signer")
	fs.StringVar(&r.keysDir, "keys-dir", "", "Key store directory (default ~/.xdao/ensbridge/keys)")
}

func (r *remoteFlags) loadSigner() (keys.Signer, error) {
	switch {
	case r.keyFile != "":
		return keys.LoadSignerFile(r.keyFile)
	case r.signer != "":
		ks, err := keys.OpenKeyStore(r.keysDir)
		if err != nil {
			return nil, err
		}
		return ks.Signer(r.signer, r.signerRole)
	default:
		return nil, nil
	}
}

func (r *remoteFlags) call(msg resolver.Message) ([]byte, error) {
	signer, err := r.loadSigner()
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}
	c, err := grpcbridge.Dial(r.target, signer, grpcbridge.DialOptions{Timeout: r.timeout})
	if err != nil {
		return nil, err
	}
	defer c.Close()
	c.Timeout = r.timeout
	if signer != nil && msg.Caller.IsZero() {
		msg.Caller = signer.Public().Address()
	}
	return c.Call(context.Background(), msg)
}

func cmdCall(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var rf remoteFlags
	rf.register(fs)
	data := fs.String("data", "", "Call data as 0x-prefixed hex")
	static := fs.Bool("static", false, "Read-only call")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(*data, "0x"))
	if err != nil || len(raw) == 0 {
		fmt.Fprintln(errOut, "invalid --data")
		return 2
	}
	ret, err := rf.call(resolver.Message{Data: raw, ReadOnly: *static})
	if err != nil {
		fmt.Fprintf(errOut, "call: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "0x"+hex.EncodeToString(ret))
	return 0
}

func cmdSetDelegation(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("set-delegation", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var rf remoteFlags
	rf.register(fs)
	hostArg := fs.String("host", "", "Host node")
	delegatedArg := fs.String("delegated", "", "Delegated node")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	host, err := parseNodeArg(*hostArg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --host: %v\n", err)
		return 2
	}
	delegated, err := parseNodeArg(*delegatedArg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --delegated: %v\n", err)
		return 2
	}
	if _, err := rf.call(resolver.Message{Data: bridge.SetDelegationCall(host, delegated)}); err != nil {
		fmt.Fprintf(errOut, "set-delegation: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(out, "%s -> %s\n", host.Hex(), delegated.Hex())
	return 0
}

func cmdResolvedDelegate(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("resolved-delegate", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var rf remoteFlags
	rf.register(fs)
	hostArg := fs.String("host", "", "Host node")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	host, err := parseNodeArg(*hostArg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --host: %v\n", err)
		return 2
	}
	ret, err := rf.call(resolver.Message{Data: bridge.DelegationCall(host), ReadOnly: true})
	if err != nil {
		fmt.Fprintf(errOut, "resolved-delegate: %v\n", err)
		return 1
	}
	d, err := resolver.DecodeNode(ret)
	if err != nil {
		fmt.Fprintf(errOut, "resolved-delegate: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, d.Hex())
	return 0
}

func cmdDelegatedResolver(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("delegated-resolver", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var rf remoteFlags
	rf.register(fs)
	hostArg := fs.String("host", "", "Host node")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	host, err := parseNodeArg(*hostArg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --host: %v\n", err)
		return 2
	}
	ret, err := rf.call(resolver.Message{Data: bridge.DelegatedResolverCall(host), ReadOnly: true})
	if err != nil {
		fmt.Fprintf(errOut, "delegated-resolver: %v\n", err)
		return 1
	}
	a, err := resolver.DecodeAddress(ret)
	if err != nil {
		fmt.Fprintf(errOut, "delegated-resolver: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, a.Hex())
	return 0
}

func cmdAddr(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("addr", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var rf remoteFlags
	rf.register(fs)
	nodeArg := fs.String("node", "", "Node to resolve")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	node, err := parseNodeArg(*nodeArg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --node: %v\n", err)
		return 2
	}
	ret, err := rf.call(resolver.Message{Data: resolver.AddrCall(node), ReadOnly: true})
	if err != nil {
		fmt.Fprintf(errOut, "addr: %v\n", err)
		return 1
	}
	a, err := resolver.DecodeAddress(ret)
	if err != nil {
		fmt.Fprintf(errOut, "addr: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, a.Hex())
	return 0
}

func randomSeed() ([]byte, error) {
	seed := make([]byte, keys.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return seed, nil
}
