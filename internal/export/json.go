package export

import (
	"time"

	"github.com/dusk-indust/vaultgraph/internal/graph"
)

// Report is the top-level JSON export structure: one snapshot and every
// analytics result computed over it.
type Report struct {
	ExportedAt  string                `json:"exportedAt"`
	Stats       graph.GraphStats      `json:"stats"`
	Entities    []EntityReport        `json:"entities"`
	Centrality  graph.RankResult      `json:"centrality"`
	Communities graph.CommunityResult `json:"communities"`
}

// EntityReport describes one entity with its position in the graph.
type EntityReport struct {
	Name         string           `json:"name"`
	EntityType   string           `json:"entityType,omitempty"`
	Observations []string         `json:"observations"`
	Degree       graph.Degree     `json:"degree"`
	Score        float64          `json:"score"`
	Community    string           `json:"community"`
	Relations    []graph.Relation `json:"relations"`
}

// ReportOptions controls the analytics run for a report.
type ReportOptions struct {
	Rank                graph.RankOptions
	CommunityIterations int
}

// BuildReport runs centrality and community detection over kg and collects
// the results per entity, in entity order.
func BuildReport(kg *graph.KnowledgeGraph, opts ReportOptions) *Report {
	if kg == nil {
		kg = &graph.KnowledgeGraph{}
	}

	rank := graph.ArticleRank(kg.Entities, kg.Relations, opts.Rank)
	communities := graph.DetectCommunities(kg.Entities, kg.Relations, opts.CommunityIterations)
	degrees := graph.ComputeDegrees(kg.Entities, kg.Relations)

	outgoing := make(map[string][]graph.Relation)
	for _, r := range kg.Relations {
		outgoing[r.From] = append(outgoing[r.From], r)
	}

	report := &Report{
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Stats:       kg.Stats(),
		Entities:    make([]EntityReport, 0, len(kg.Entities)),
		Centrality:  rank,
		Communities: communities,
	}
	seen := make(map[string]bool, len(kg.Entities))
	for _, e := range kg.Entities {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true

		rels := outgoing[e.Name]
		if rels == nil {
			rels = []graph.Relation{}
		}
		obs := e.Observations
		if obs == nil {
			obs = []string{}
		}
		report.Entities = append(report.Entities, EntityReport{
			Name:         e.Name,
			EntityType:   e.EntityType,
			Observations: obs,
			Degree:       degrees[e.Name],
			Score:        rank.Scores[e.Name],
			Community:    communities.Labels[e.Name],
			Relations:    rels,
		})
	}
	return report
}
