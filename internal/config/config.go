package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VAULTGRAPH_VAULT_LOCAL.
const EnvPrefix = "VAULTGRAPH"

// Config holds all settings for vaultgraph.
type Config struct {
	Vault     VaultConfig     `mapstructure:"vault"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
}

// VaultConfig locates the entity files.
type VaultConfig struct {
	Local      string `mapstructure:"local"`
	External   string `mapstructure:"external"`    // optional read-only vault dir
	ExternalDB string `mapstructure:"external_db"` // optional KuzuDB reference database
	Watch      bool   `mapstructure:"watch"`
}

// AnalyticsConfig holds the defaults applied when a query omits a parameter.
type AnalyticsConfig struct {
	DampingFactor float64 `mapstructure:"damping_factor"`
	MaxIterations int     `mapstructure:"max_iterations"`
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxHops       int     `mapstructure:"max_hops"`
	TopK          int     `mapstructure:"top_k"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string `mapstructure:"transport"` // stdio or http
	Addr      string `mapstructure:"addr"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// RankOptions converts the analytics defaults for graph.ArticleRank.
func (a AnalyticsConfig) RankOptions() graph.RankOptions {
	return graph.RankOptions{
		DampingFactor: a.DampingFactor,
		MaxIterations: a.MaxIterations,
		Tolerance:     a.Tolerance,
		TopK:          a.TopK,
	}
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("vault.local", "vault")
	v.SetDefault("vault.external", "")
	v.SetDefault("vault.external_db", "")
	v.SetDefault("vault.watch", false)

	v.SetDefault("analytics.damping_factor", graph.DefaultDampingFactor)
	v.SetDefault("analytics.max_iterations", graph.DefaultMaxIterations)
	v.SetDefault("analytics.tolerance", graph.DefaultTolerance)
	v.SetDefault("analytics.max_hops", graph.DefaultMaxHops)
	v.SetDefault("analytics.top_k", graph.DefaultTopK)

	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.addr", "localhost:8090")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration into v and decodes it. Values come from, in
// increasing precedence: defaults, the config file, VAULTGRAPH_* environment
// variables, and any flags already bound to v.
//
// When file is empty, vaultgraph.yaml is searched in the working directory
// and then $HOME; not finding one is not an error. An explicit file must
// exist.
func Load(v *viper.Viper, file string, home string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("vaultgraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home != "" {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that cannot be clamped to a sensible value.
// Analytics parameters are not checked here; the engine clamps them.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("config: server.transport must be stdio or http, got %q", c.Server.Transport)
	}
	if c.Server.Transport == "http" && c.Server.Addr == "" {
		return errors.New("config: server.addr is required for the http transport")
	}
	if c.Vault.Local == "" {
		return errors.New("config: vault.local is required")
	}
	if c.Vault.External != "" && c.Vault.ExternalDB != "" {
		return errors.New("config: vault.external and vault.external_db are mutually exclusive")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
