package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(viper.New(), "", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "vault", cfg.Vault.Local)
	assert.False(t, cfg.Vault.Watch)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, graph.RankOptions{
		DampingFactor: graph.DefaultDampingFactor,
		MaxIterations: graph.DefaultMaxIterations,
		Tolerance:     graph.DefaultTolerance,
		TopK:          graph.DefaultTopK,
	}, cfg.Analytics.RankOptions())
	assert.Equal(t, graph.DefaultMaxHops, cfg.Analytics.MaxHops)
}

func TestLoad_FileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	yaml := `vault:
  local: notes
  external: /srv/reference
  watch: true
analytics:
  damping_factor: 0.5
  top_k: 3
server:
  transport: http
  addr: ":9000"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vaultgraph.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(viper.New(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "notes", cfg.Vault.Local)
	assert.Equal(t, "/srv/reference", cfg.Vault.External)
	assert.True(t, cfg.Vault.Watch)
	assert.Equal(t, 0.5, cfg.Analytics.DampingFactor)
	assert.Equal(t, 3, cfg.Analytics.TopK)
	assert.Equal(t, graph.DefaultMaxIterations, cfg.Analytics.MaxIterations, "unset keys keep defaults")
	assert.Equal(t, "http", cfg.Server.Transport)
	assert.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vaultgraph.yaml"), []byte("vault:\n  local: from-file\n"), 0o644))
	t.Setenv("VAULTGRAPH_VAULT_LOCAL", "from-env")
	t.Setenv("VAULTGRAPH_ANALYTICS_MAX_HOPS", "2")

	cfg, err := Load(viper.New(), "", "")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Vault.Local)
	assert.Equal(t, 2, cfg.Analytics.MaxHops)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Vault:  VaultConfig{Local: "vault"},
			Server: ServerConfig{Transport: "stdio"},
			Log:    LogConfig{Format: "console"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown transport", func(c *Config) { c.Server.Transport = "grpc" }, true},
		{"http without addr", func(c *Config) { c.Server.Transport = "http" }, true},
		{"http with addr", func(c *Config) { c.Server.Transport = "http"; c.Server.Addr = ":1" }, false},
		{"no local vault", func(c *Config) { c.Vault.Local = "" }, true},
		{"two external sources", func(c *Config) { c.Vault.External = "a"; c.Vault.ExternalDB = "b" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"analytics are not validated", func(c *Config) { c.Analytics.DampingFactor = 7 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
