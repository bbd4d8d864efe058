package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/storage"
	"xdao.co/ensbridge/storage/bundle"
	"xdao.co/ensbridge/storage/storeregistry"

	_ "xdao.co/ensbridge/storage/localfs"
	_ "xdao.co/ensbridge/storage/sqlite"
)

// cmdStore inspects or repairs a delegation store directly, bypassing the
// bridge's authorisation. Intended for operators with access to the files.
func cmdStore(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: xdao-bridge store <get|put|export|import|backends> ...")
		return 2
	}
	switch args[0] {
	case "backends":
		for _, b := range storeregistry.List(storeregistry.UsageCLI) {
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	case "get", "put":
		return cmdStoreAccess(args[0], args[1:], out, errOut)
	case "export":
		return cmdStoreExport(args[1:], out, errOut)
	case "import":
		return cmdStoreImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown store subcommand: %s\n", args[0])
		return 2
	}
}

func cmdStoreAccess(verb string, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("store "+verb, flag.ContinueOnError)
	fs.SetOutput(errOut)
	backend := fs.String("store", "", "Store backend name (see: xdao-bridge store backends)")
	hostArg := fs.String("host", "", "Host node")
	delegatedArg := fs.String("delegated", "", "Delegated node (put only)")
	storeregistry.RegisterFlags(fs, storeregistry.UsageCLI)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	host, err := parseNodeArg(*hostArg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --host: %v\n", err)
		return 2
	}
	s, closeFn, err := storeregistry.Open(*backend, storeregistry.UsageCLI)
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	ctx := context.Background()
	if verb == "put" {
		delegated, err := parseNodeArg(*delegatedArg)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --delegated: %v\n", err)
			return 2
		}
		if err := s.Put(ctx, host, delegated); err != nil {
			fmt.Fprintf(errOut, "put: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "%s -> %s\n", host.Hex(), delegated.Hex())
		return 0
	}

	d, err := s.Get(ctx, host)
	if storage.IsNotFound(err) {
		fmt.Fprintln(errOut, "no delegation")
		return 1
	}
	if err != nil {
		fmt.Fprintf(errOut, "get: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, d.Hex())
	return 0
}

func cmdStoreExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("store export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	backend := fs.String("store", "", "Store backend name (see: xdao-bridge store backends)")
	outPath := fs.String("out", "", "Output bundle path (default stdout)")
	noIndex := fs.Bool("no-index", false, "Omit index.json")
	var labels stringList
	fs.Var(&labels, "label", "Record a name in index.json (repeatable)")
	storeregistry.RegisterFlags(fs, storeregistry.UsageCLI)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	s, closeFn, err := storeregistry.Open(*backend, storeregistry.UsageCLI)
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}
	l, ok := s.(storage.Lister)
	if !ok {
		fmt.Fprintf(errOut, "store %q cannot enumerate records\n", *backend)
		return 1
	}

	opts := bundle.ExportOptions{IncludeIndex: !*noIndex}
	if len(labels) > 0 {
		opts.Labels = make(map[string]model.Node, len(labels))
		for _, name := range labels {
			n, err := parseNodeArg(name)
			if err != nil {
				fmt.Fprintf(errOut, "invalid --label: %v\n", err)
				return 2
			}
			opts.Labels[name] = n
		}
	}

	w := out
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(errOut, "create: %v\n", err)
			return 1
		}
		defer f.Close()
		w = f
	}
	if err := bundle.Export(context.Background(), w, l, opts); err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	return 0
}

func cmdStoreImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("store import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	backend := fs.String("store", "", "Store backend name (see: xdao-bridge store backends)")
	inPath := fs.String("in", "", "Input bundle path")
	ignoreUnknown := fs.Bool("ignore-unknown", false, "Skip entries that are not delegation records")
	storeregistry.RegisterFlags(fs, storeregistry.UsageCLI)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *inPath == "" {
		fmt.Fprintln(errOut, "missing --in")
		return 2
	}

	f, err := os.Open(*inPath)
	if err != nil {
		fmt.Fprintf(errOut, "open: %v\n", err)
		return 1
	}
	defer f.Close()

	s, closeFn, err := storeregistry.Open(*backend, storeregistry.UsageCLI)
	if err != nil {
		fmt.Fprintf(errOut, "store: %v\n", err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	n, err := bundle.Import(context.Background(), f, s, bundle.ImportOptions{IgnoreUnknown: *ignoreUnknown})
	if err != nil {
		fmt.Fprintf(errOut, "import: %v (%d records written)\n", err, n)
		return 1
	}
	fmt.Fprintf(out, "imported %d records\n", n)
	return 0
}

type stringList []string

func (l *stringList) String() string { return fmt.Sprint(*l) }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}
