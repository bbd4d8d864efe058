package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/ensbridge/calldata"
	"xdao.co/ensbridge/model"
)

const sampleYAML = `
listen: 0.0.0.0:9000
host_directory: host-registry:7000
delegated_directory: delegated-registry:7000
admin: "0x00000000000000000000000000000000000000aa"
store:
  write_policy: all
  backends:
    - name: memory
    - name: memory
      id: mirror
routes:
  "0x0000000000000000000000000000000000000050": resolver-a:7001
trusted_forwarders:
  - "0x00000000000000000000000000000000000000f0"
interfaces: ["0x3b3b57de"]
dial_timeout: 2s
log:
  level: debug
  format: json
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "bridge.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "host-registry:7000", cfg.HostDirectory)
	assert.Equal(t, 2*time.Second, cfg.DialTimeout)
	assert.Equal(t, 10*time.Second, cfg.CallTimeout, "default applies to unset fields")
	assert.False(t, cfg.RequireSignature)
	assert.Len(t, cfg.Store.Backends, 2)

	admin, err := cfg.AdminAddress()
	require.NoError(t, err)
	assert.Equal(t, model.Address{19: 0xaa}, admin)

	routes, err := cfg.RouteTable()
	require.NoError(t, err)
	assert.Equal(t, map[model.Address]string{{19: 0x50}: "resolver-a:7001"}, routes)

	fwd, err := cfg.ForwarderAddresses()
	require.NoError(t, err)
	assert.Equal(t, []model.Address{{19: 0xf0}}, fwd)

	ids, err := cfg.InterfaceIDs()
	require.NoError(t, err)
	assert.Equal(t, []calldata.Selector{calldata.SelectorOf("addr(bytes32)")}, ids)

	var buf bytes.Buffer
	log, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	log.Debug("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("BRIDGE_LISTEN", "127.0.0.1:1")
	t.Setenv("BRIDGE_ROUTES", "0x0000000000000000000000000000000000000051=resolver-b:7001")

	cfg, err := Load(writeFile(t, "bridge.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:1", cfg.Listen)

	routes, err := cfg.RouteTable()
	require.NoError(t, err)
	assert.Len(t, routes, 2)
	assert.Equal(t, "resolver-b:7001", routes[model.Address{19: 0x51}])
}

func TestLoadFromEnvOnly(t *testing.T) {
	t.Setenv("BRIDGE_HOST_DIRECTORY", "h:1")
	t.Setenv("BRIDGE_DELEGATED_DIRECTORY", "d:1")
	t.Setenv("BRIDGE_TRUSTED_FORWARDERS", "0x00000000000000000000000000000000000000f0,0x00000000000000000000000000000000000000f1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7788", cfg.Listen)
	require.Len(t, cfg.Store.Backends, 1)
	assert.Equal(t, "memory", cfg.Store.Backends[0].Name)

	fwd, err := cfg.ForwarderAddresses()
	require.NoError(t, err)
	assert.Len(t, fwd, 2)
}

func TestValidateRejects(t *testing.T) {
	base := func() Config {
		c, err := Load(writeFile(t, "bridge.yaml", sampleYAML))
		require.NoError(t, err)
		return c
	}
	cases := map[string]func(*Config){
		"no directories": func(c *Config) { c.HostDirectory = "" },
		"bad admin":      func(c *Config) { c.Admin = "0x1234" },
		"bad route":      func(c *Config) { c.Routes = map[string]string{"nope": "x:1"} },
		"empty target":   func(c *Config) { c.RoutesEnv = "0x0000000000000000000000000000000000000051=" },
		"bad forwarder":  func(c *Config) { c.TrustedForwarders = []string{"0xzz"} },
		"bad interface":  func(c *Config) { c.Interfaces = []string{"0x01"} },
		"bad level":      func(c *Config) { c.Log.Level = "loud" },
		"bad format":     func(c *Config) { c.Log.Format = "xml" },
		"bad store":      func(c *Config) { c.Store.WritePolicy = "some" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := base()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := writeFile(t, ".env", "BRIDGE_TEST_DOTENV=loaded\n")
	t.Setenv("BRIDGE_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("BRIDGE_TEST_DOTENV"))
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("BRIDGE_TEST_DOTENV"))
}
