package main

import (
	"flag"
	"fmt"
	"io"

	"xdao.co/ensbridge/keys"
)

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: xdao-bridge key <subcommand> [--keys-dir <dir>] ...")
	fmt.Fprintln(w, "subcommands: init, derive, list, export")
}

func openKeyStore(fs *flag.FlagSet) func() (*keys.KeyStore, error) {
	dir := fs.String("keys-dir", "", "Key store directory (default ~/.xdao/ensbridge/keys)")
	return func() (*keys.KeyStore, error) { return keys.OpenKeyStore(*dir) }
}

func printIdentity(out io.Writer, label string, pub keys.PublicKey, path string) {
	fmt.Fprintf(out, "%s: %s\n", label, pub)
	fmt.Fprintf(out, "Address: %s\n", pub.Address().Hex())
	if path != "" {
		fmt.Fprintf(out, "Stored at: %s\n", path)
	}
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)
	store := openKeyStore(fs)

	var name, scheme, seedHex string
	var force bool
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&scheme, "scheme", string(keys.Ed25519), "Signature scheme: ed25519 or dilithium3")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional 32-byte seed as 64 hex chars (for reproducible setups)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := keys.CheckName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}

	var seed []byte
	var err error
	if seedHex != "" {
		if seed, err = keys.ParseSeedHex(seedHex); err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	} else if seed, err = randomSeed(); err != nil {
		fmt.Fprintf(errOut, "rand: %v\n", err)
		return 1
	}

	ks, err := store()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	pub, path, err := ks.Init(name, keys.Scheme(scheme), seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	printIdentity(out, "Created key", pub, path)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)
	store := openKeyStore(fs)

	var from, role string
	var force bool
	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role name")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" || role == "" {
		fmt.Fprintln(errOut, "missing --from or --role")
		return 2
	}

	ks, err := store()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	pub, path, err := ks.Derive(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive: %v\n", err)
		return 1
	}
	printIdentity(out, "Derived key", pub, path)
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	store := openKeyStore(fs)

	var name, role string
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ks, err := store()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	s, err := ks.Signer(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	printIdentity(out, "Public key", s.Public(), "")
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	store := openKeyStore(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ks, err := store()
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "list: %v\n", err)
		return 1
	}
	for _, e := range entries {
		if len(e.Roles) == 0 {
			fmt.Fprintln(out, e.Name)
			continue
		}
		fmt.Fprintf(out, "%s\t%v\n", e.Name, e.Roles)
	}
	return 0
}
