package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/dusk-indust/vaultgraph/internal/index"
	"github.com/spf13/cobra"
)

func newRankCmd(a *app) *cobra.Command {
	var (
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank entities by ArticleRank centrality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kg, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			opts := a.cfg.Analytics.RankOptions()
			if cmd.Flags().Changed("top-k") {
				opts.TopK = topK
			}
			result := graph.ArticleRank(kg.Entities, kg.Relations, opts)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tENTITY\tSCORE\tIN\tOUT")
			for i, r := range result.Ranking {
				fmt.Fprintf(tw, "%d\t%s\t%.4f\t%d\t%d\n", i+1, r.Name, r.Score, r.Degree.In, r.Degree.Out)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d iterations, converged: %t\n", result.Iterations, result.Converged)
			return nil
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of entities to list (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newPathCmd(a *app) *cobra.Command {
	var (
		maxHops int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Find the shortest directed chain of relations between two entities",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kg, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			hops := a.cfg.Analytics.MaxHops
			if cmd.Flags().Changed("max-hops") {
				hops = maxHops
			}
			result := graph.FindPath(kg.Relations, args[0], args[1], hops)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}
			if result == nil {
				fmt.Fprintf(out, "No path from %s to %s within %d hops.\n", args[0], args[1], hops)
				return nil
			}
			fmt.Fprintln(out, formatPath(result))
			fmt.Fprintf(out, "%d hops\n", result.Hops)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxHops, "max-hops", 0, "maximum number of relations to follow (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// formatPath renders a path as A -[type]-> B -[type]-> C.
func formatPath(p *graph.PathResult) string {
	var sb strings.Builder
	sb.WriteString(p.Entities[0])
	for i, r := range p.Relations {
		fmt.Fprintf(&sb, " -[%s]-> %s", r.RelationType, p.Entities[i+1])
	}
	return sb.String()
}

func newPredictCmd(a *app) *cobra.Command {
	var (
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "predict <entity>",
		Short: "Suggest likely relations for an entity by Adamic-Adar score",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kg, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			k := a.cfg.Analytics.TopK
			if cmd.Flags().Changed("top-k") {
				k = topK
			}
			predictions := graph.PredictLinks(args[0], kg.Entities, kg.Relations, k)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, predictions)
			}
			if len(predictions) == 0 {
				fmt.Fprintf(out, "No predictions for %s.\n", args[0])
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ENTITY\tSCORE\tSHARED")
			for _, p := range predictions {
				fmt.Fprintf(tw, "%s\t%.4f\t%s\n", p.Entity, p.Score, strings.Join(p.SharedNeighbors, ", "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of predictions (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func newCommunitiesCmd(a *app) *cobra.Command {
	var (
		maxIterations int
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:   "communities",
		Short: "Group entities into communities by label propagation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kg, err := a.snapshot(cmd.Context())
			if err != nil {
				return err
			}
			iters := a.cfg.Analytics.MaxIterations
			if cmd.Flags().Changed("max-iterations") {
				iters = maxIterations
			}
			result := graph.DetectCommunities(kg.Entities, kg.Relations, iters)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, result)
			}
			for _, c := range result.Communities {
				fmt.Fprintf(out, "%s (%d): %s\n", c.Label, len(c.Members), strings.Join(c.Members, ", "))
			}
			fmt.Fprintf(out, "\n%d communities, %d iterations, converged: %t\n",
				result.Count, result.Iterations, result.Converged)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "label propagation iteration cap (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search entity names, types, and observations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.openIndex(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer u.Close()

			matches := u.Search(args[0])
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, matches)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ENTITY\tTYPE\tOBSERVATIONS")
			for _, e := range matches {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Name, e.EntityType, len(e.Observations))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the matching entities as JSON")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <entity>",
		Short: "Print one entity with its outgoing relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.openIndex(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer u.Close()

			e, ok := u.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%q: %w", args[0], index.ErrNotFound)
			}
			relations := u.RelationsOf(e.Name)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, struct {
					graph.Entity
					Relations []graph.Relation `json:"relations"`
				}{*e, relations})
			}
			fmt.Fprintf(out, "%s", e.Name)
			if e.EntityType != "" {
				fmt.Fprintf(out, " (%s)", e.EntityType)
			}
			fmt.Fprintln(out)
			for _, o := range e.Observations {
				fmt.Fprintf(out, "  - %s\n", o)
			}
			for _, r := range relations {
				fmt.Fprintf(out, "  -[%s]-> %s", r.RelationType, r.To)
				if r.Qualification != "" {
					fmt.Fprintf(out, " (%s)", r.Qualification)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the entity as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
