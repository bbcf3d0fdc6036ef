package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/vaultgraph/internal/mcptools"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the knowledge graph as MCP tools",
		Long: `Serve the knowledge graph tools over MCP.

The stdio transport is meant to be launched by an MCP client. The http
transport serves streamable HTTP on --addr, with Prometheus metrics at
/metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			u, err := a.openIndex(ctx, a.cfg.Vault.Watch)
			if err != nil {
				return err
			}
			defer func() {
				if err := u.Close(); err != nil {
					a.logger.Warn("close index", zap.Error(err))
				}
			}()

			svc := mcptools.NewKnowledgeService(u, a.cfg.Analytics, a.logger)
			if a.cfg.Server.Transport == "http" {
				return mcptools.RunMCPServer(ctx, svc, a.cfg.Server.Addr)
			}
			return mcptools.RunMCPServerStdio(ctx, svc)
		},
	}

	f := cmd.Flags()
	f.String("transport", "", `MCP transport: stdio or http (default "stdio")`)
	f.String("addr", "", `listen address for the http transport (default "localhost:8090")`)
	f.Bool("watch", false, "mark the local index stale when vault files change on disk")
	a.bind(f, map[string]string{
		"server.transport": "transport",
		"server.addr":      "addr",
		"vault.watch":      "watch",
	})

	return cmd
}
