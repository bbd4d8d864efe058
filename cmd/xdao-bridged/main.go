package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"xdao.co/ensbridge/bridge"
	"xdao.co/ensbridge/config"
	"xdao.co/ensbridge/keys"
	"xdao.co/ensbridge/storage/storeregistry"
	"xdao.co/ensbridge/transport"
	"xdao.co/ensbridge/transport/grpcbridge"
	"xdao.co/ensbridge/transport/grpcdir"

	_ "xdao.co/ensbridge/storage/localfs"
	_ "xdao.co/ensbridge/storage/sqlite"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("xdao-bridged", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configPath := fs.String("config", "", "YAML or JSON config file (environment variables override it)")
	envFile := fs.String("env-file", ".env", "Optional dotenv file loaded before the environment is read")
	listBackends := fs.Bool("list-backends", false, "List supported store backends and exit")
	printEnv := fs.Bool("print-env", false, "Describe the environment variables and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *listBackends {
		for _, b := range storeregistry.List(storeregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}
	if *printEnv {
		config.Usage(out)
		return 0
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(errOut, "env file: %v\n", err)
		return 2
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	log, err := cfg.NewLogger(errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	d, err := newDaemon(cfg, log)
	if err != nil {
		log.Error("start", slog.Any("err", err))
		return 1
	}
	defer d.Close()

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Error("listen", slog.Any("err", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		d.server.GracefulStop()
	}()

	log.Info("xdao-bridged listening",
		slog.String("addr", lis.Addr().String()),
		slog.String("host_directory", cfg.HostDirectory),
		slog.String("delegated_directory", cfg.DelegatedDirectory))
	if err := d.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		log.Error("serve", slog.Any("err", err))
		return 1
	}
	return 0
}

// daemon is a Bridge wired to remote directories and resolvers, served over gRPC.
type daemon struct {
	server  *grpc.Server
	bridge  *bridge.Bridge
	closers []func() error
}

func newDaemon(cfg config.Config, log *slog.Logger) (*daemon, error) {
	d := &daemon{}
	if err := d.init(cfg, log); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *daemon) init(cfg config.Config, log *slog.Logger) error {
	dialOpts := grpcbridge.DialOptions{Timeout: cfg.DialTimeout, MaxMsgBytes: cfg.MaxMsgBytes}
	host, err := dialDirectory(cfg.HostDirectory, dialOpts, cfg)
	if err != nil {
		return fmt.Errorf("host directory: %w", err)
	}
	d.closers = append(d.closers, host.Close)
	delegated, err := dialDirectory(cfg.DelegatedDirectory, dialOpts, cfg)
	if err != nil {
		return fmt.Errorf("delegated directory: %w", err)
	}
	d.closers = append(d.closers, delegated.Close)

	store, closeStore, err := cfg.Store.Open(storeregistry.UsageDaemon)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if closeStore != nil {
		d.closers = append(d.closers, closeStore)
	}

	var signer keys.Signer
	if cfg.KeyFile != "" {
		if signer, err = keys.LoadSignerFile(cfg.KeyFile); err != nil {
			return fmt.Errorf("key file: %w", err)
		}
		log.Info("forwarding identity", slog.String("address", signer.Public().Address().Hex()))
	}

	routes, _ := cfg.RouteTable()
	dialer := &grpcbridge.Dialer{Routes: routes, Signer: signer, Options: dialOpts, Timeout: cfg.CallTimeout}
	d.closers = append(d.closers, dialer.Close)

	admin, _ := cfg.AdminAddress()
	ifaces, _ := cfg.InterfaceIDs()
	d.bridge, err = bridge.New(host, delegated, dialer, bridge.Options{
		Admin:      admin,
		Store:      store,
		Interfaces: ifaces,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	forwarders, _ := cfg.ForwarderAddresses()
	d.server = grpc.NewServer(
		grpc.ChainUnaryInterceptor(transport.UnaryServerLogger(log)),
		grpc.MaxRecvMsgSize(maxMsg(cfg.MaxMsgBytes)),
	)
	grpcbridge.RegisterResolverServer(d.server, grpcbridge.NewServer(d.bridge, grpcbridge.ServerOptions{
		TrustedForwarders: forwarders,
		AllowAnonymous:    !cfg.RequireSignature,
	}))
	return nil
}

func dialDirectory(target string, opts grpcbridge.DialOptions, cfg config.Config) (*grpcdir.Client, error) {
	cc, err := grpcbridge.DialConn(target, opts)
	if err != nil {
		return nil, err
	}
	c := grpcdir.NewClient(cc)
	c.Timeout = cfg.CallTimeout
	return c, nil
}

func maxMsg(n int) int {
	if n <= 0 {
		return 4 << 20
	}
	return n
}

// Close releases every connection and store in reverse order of opening.
func (d *daemon) Close() error {
	var first error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	d.closers = nil
	return first
}
