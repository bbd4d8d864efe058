// Package config loads the bridge daemon's configuration from a YAML or
// JSON file, environment variables, and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/storage/storeconfig"
)

// Config is the daemon configuration. Environment variables override file
// values.
type Config struct {
	Listen string `yaml:"listen" json:"listen" env:"BRIDGE_LISTEN" env-default:"127.0.0.1:7788"`

	// gRPC targets of the Directory services for the two registries.
	HostDirectory      string `yaml:"host_directory" json:"host_directory" env:"BRIDGE_HOST_DIRECTORY"`
	DelegatedDirectory string `yaml:"delegated_directory" json:"delegated_directory" env:"BRIDGE_DELEGATED_DIRECTORY"`

	// Admin may set any delegation. Empty disables the role.
	Admin string `yaml:"admin" json:"admin" env:"BRIDGE_ADMIN"`

	Store storeconfig.Config `yaml:"store" json:"store"`

	// Routes maps resolver addresses to the gRPC targets serving them.
	// BRIDGE_ROUTES holds "0xaddr=host:port" pairs separated by commas and
	// adds to the file's routes.
	Routes    map[string]string `yaml:"routes" json:"routes"`
	RoutesEnv string            `yaml:"-" json:"-" env:"BRIDGE_ROUTES"`

	// TrustedForwarders may relay calls on behalf of other callers.
	TrustedForwarders []string `yaml:"trusted_forwarders" json:"trusted_forwarders" env:"BRIDGE_TRUSTED_FORWARDERS" env-separator:","`
	// RequireSignature rejects unsigned calls instead of serving them as the zero caller.
	RequireSignature  bool     `yaml:"require_signature" json:"require_signature" env:"BRIDGE_REQUIRE_SIGNATURE"`

	// KeyFile signs calls the bridge forwards to remote resolvers.
	KeyFile string `yaml:"key_file" json:"key_file" env:"BRIDGE_KEY_FILE"`

	// Interfaces are extra supportsInterface IDs, as 0x-prefixed hex.
	Interfaces []string `yaml:"interfaces" json:"interfaces" env:"BRIDGE_INTERFACES" env-separator:","`

	DialTimeout time.Duration `yaml:"dial_timeout" json:"dial_timeout" env:"BRIDGE_DIAL_TIMEOUT" env-default:"5s"`
	CallTimeout time.Duration `yaml:"call_timeout" json:"call_timeout" env:"BRIDGE_CALL_TIMEOUT" env-default:"10s"`
	MaxMsgBytes int           `yaml:"max_msg_bytes" json:"max_msg_bytes" env:"BRIDGE_MAX_MSG_BYTES"`

	Log LogConfig `yaml:"log" json:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level" env:"BRIDGE_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" json:"format" env:"BRIDGE_LOG_FORMAT" env-default:"text"`
}

// Load reads path (YAML or JSON by extension) with environment overrides,
// or the environment alone when path is empty, and validates the result.
// A memory store is used when no store backend is configured.
func Load(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if len(cfg.Store.Backends) == 0 {
		cfg.Store.Backends = []storeconfig.BackendConfig{{Name: "memory"}}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from file into the environment if it exists.
// Variables already set are left alone.
func LoadDotEnv(file string) error {
	if file == "" {
		return nil
	}
	if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(file)
}

// Usage describes the environment variables Config reads.
func Usage(w io.Writer) {
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(w, desc)
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("config: listen is required")
	}
	if c.HostDirectory == "" || c.DelegatedDirectory == "" {
		return errors.New("config: host_directory and delegated_directory are required")
	}
	if _, err := c.AdminAddress(); err != nil {
		return err
	}
	if _, err := c.RouteTable(); err != nil {
		return err
	}
	if _, err := c.ForwarderAddresses(); err != nil {
		return err
	}
	if _, err := c.InterfaceIDs(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: invalid log format %q", c.Log.Format)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c Config) AdminAddress() (model.Address, error) {
	if c.Admin == "" {
		return model.ZeroAddress, nil
	}
	a, err := model.ParseAddress(c.Admin)
	if err != nil {
		return model.ZeroAddress, fmt.Errorf("config: admin: %w", err)
	}
	return a, nil
}

// RouteTable merges Routes and RoutesEnv.
func (c Config) RouteTable() (map[model.Address]string, error) {
	out := make(map[model.Address]string, len(c.Routes))
	add := func(addr, target string) error {
		a, err := model.ParseAddress(strings.TrimSpace(addr))
		if err != nil {
			return fmt.Errorf("config: route %q: %w", addr, err)
		}
		target = strings.TrimSpace(target)
		if target == "" {
			return fmt.Errorf("config: route %q: empty target", addr)
		}
		out[a] = target
		return nil
	}
	for addr, target := range c.Routes {
		if err := add(addr, target); err != nil {
			return nil, err
		}
	}
	for _, pair := range strings.Split(c.RoutesEnv, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		addr, target, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("config: route %q: want addr=target", pair)
		}
		if err := add(addr, target); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c Config) ForwarderAddresses() ([]model.Address, error) {
	out := make([]model.Address, 0, len(c.TrustedForwarders))
	for _, s := range c.TrustedForwarders {
		if strings.TrimSpace(s) == "" {
			continue
		}
		a, err := model.ParseAddress(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("config: trusted forwarder %q: %w", s, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (c Config) InterfaceIDs() ([]calldata.Selector, error) {
	out := make([]calldata.Selector, 0, len(c.Interfaces))
	for _, s := range c.Interfaces {
		sel, err := calldata.ParseSelector(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("config: interface %q: %w", s, err)
		}
		out = append(out, sel)
	}
	return out, nil
}

func (c Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return l, nil
}

// NewLogger builds the daemon's logger writing to w.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
