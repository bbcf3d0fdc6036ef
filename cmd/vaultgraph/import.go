package main

import (
	"fmt"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/dusk-indust/vaultgraph/internal/vault"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		from   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "import <db-path>",
		Short: "Load a vault directory into a KuzuDB database for use as external_db",
		Long: `Load every entity file of a vault directory into a KuzuDB database.
Point vault.external_db at the result to use it as the external corpus.
Import into a new database; relations are appended, so importing the same
vault twice duplicates them.

With --dry-run the vault is staged in memory and only the counts are
reported; the database is not touched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := from
			if src == "" {
				src = a.cfg.Vault.Local
			}

			var (
				store graph.Store
				err   error
			)
			if dryRun {
				store = graph.NewMemStore()
			} else if store, err = openImportStore(args[0]); err != nil {
				return err
			}
			defer store.Close()

			stats, err := graph.Copy(cmd.Context(), store, vault.New(src))
			if err != nil {
				return fmt.Errorf("import %s: %w", src, err)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintf(out, "Would import %d entities and %d relations into %s\n",
					stats.EntityCount, stats.RelationCount, args[0])
				return nil
			}

			a.logger.Info("vault imported",
				zap.String("from", src),
				zap.String("db", args[0]),
				zap.Int("entities", stats.EntityCount),
				zap.Int("relations", stats.RelationCount),
			)
			fmt.Fprintf(out, "Imported %d entities and %d relations into %s\n",
				stats.EntityCount, stats.RelationCount, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "vault directory to import (default is the local vault)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "stage the vault in memory and report counts without writing")
	return cmd
}
