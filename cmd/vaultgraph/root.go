package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dusk-indust/vaultgraph/internal/config"
	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/dusk-indust/vaultgraph/internal/index"
	"github.com/dusk-indust/vaultgraph/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app carries the state shared by every subcommand. It is populated by the
// root command's PersistentPreRunE before any RunE executes.
type app struct {
	v       *viper.Viper
	cfgFile string
	envFile string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "vaultgraph",
		Short: "Knowledge graph analytics over a vault of Markdown entity files",
		Long: `vaultgraph indexes a directory of Markdown entity files, optionally
layered over a read-only external corpus, and answers centrality, path,
link prediction, and community queries over the combined graph.

Run "vaultgraph serve" to expose the graph as MCP tools.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync(a.logger)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./vaultgraph.yaml, then $HOME/vaultgraph.yaml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "environment file loaded before the configuration")
	pf.String("vault", "", `local vault directory (default "vault")`)
	pf.String("external", "", "read-only external vault directory")
	pf.String("external-db", "", "KuzuDB database holding the external corpus")
	pf.String("log-level", "", `log level: debug, info, warn, error (default "info")`)
	pf.String("log-format", "", `log format: console or json (default "console")`)

	a.bind(pf, map[string]string{
		"vault.local":       "vault",
		"vault.external":    "external",
		"vault.external_db": "external-db",
		"log.level":         "log-level",
		"log.format":        "log-format",
	})

	root.AddCommand(
		newServeCmd(a),
		newRankCmd(a),
		newPathCmd(a),
		newPredictCmd(a),
		newCommunitiesCmd(a),
		newSearchCmd(a),
		newShowCmd(a),
		newExportCmd(a),
		newInitCmd(),
		newImportCmd(a),
	)

	return root
}

// bind maps config keys to flags so that a flag given on the command line
// overrides the config file and environment.
func (a *app) bind(flags *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := loadEnvFile(a.envFile, cmd.Flags().Changed("env-file")); err != nil {
		return err
	}

	home, _ := os.UserHomeDir()
	cfg, err := config.Load(a.v, a.cfgFile, home)
	if err != nil {
		return err
	}

	l, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = l
	if used := a.v.ConfigFileUsed(); used != "" {
		l.Debug("config loaded", zap.String("file", used))
	}
	return nil
}

// loadEnvFile loads KEY=value pairs into the process environment. Variables
// already set win. A missing default file is ignored; a missing explicit
// file is an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, fs.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("load env file: %w", err)
}

// openIndex builds the unified index from the loaded configuration.
func (a *app) openIndex(ctx context.Context, watch bool) (*index.Unified, error) {
	oc := index.OpenConfig{
		LocalDir:    a.cfg.Vault.Local,
		Watch:       watch,
		ExternalDir: a.cfg.Vault.External,
		Logger:      a.logger,
	}
	if a.cfg.Vault.ExternalDB != "" {
		r, err := openExternalDB(ctx, a.cfg.Vault.ExternalDB)
		if err != nil {
			return nil, err
		}
		oc.External = r
	}
	return index.Open(ctx, oc)
}

// snapshot opens the index, reads one merged snapshot, and closes it again.
func (a *app) snapshot(ctx context.Context) (*graph.KnowledgeGraph, error) {
	u, err := a.openIndex(ctx, false)
	if err != nil {
		return nil, err
	}
	kg, err := u.ReadGraph(ctx)
	return kg, errors.Join(err, u.Close())
}
