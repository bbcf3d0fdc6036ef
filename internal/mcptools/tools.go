package mcptools

import "github.com/dusk-indust/vaultgraph/internal/graph"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.
// Omitted numeric parameters fall back to the configured analytics defaults.

// GetCentralityInput is the input for the get_centrality MCP tool.
type GetCentralityInput struct {
	DampingFactor float64 `json:"dampingFactor,omitempty" jsonschema:"probability of following a relation, in (0,1) (default: 0.85)"`
	MaxIterations int     `json:"maxIterations,omitempty" jsonschema:"iteration cap (default: 100); negative returns the initial scores"`
	Tolerance     float64 `json:"tolerance,omitempty" jsonschema:"stop once no score moves more than this (default: 1e-6)"`
	TopK          int     `json:"topK,omitempty" jsonschema:"number of ranked entities to return (default: 10)"`
}

// GetCentralityOutput is the result of the get_centrality MCP tool.
type GetCentralityOutput struct {
	Ranking     []graph.RankedEntity `json:"ranking"`
	Iterations  int                  `json:"iterations"`
	Converged   bool                 `json:"converged"`
	EntityCount int                  `json:"entityCount"`
}

// FindPathInput is the input for the find_path MCP tool.
type FindPathInput struct {
	From    string `json:"from" jsonschema:"name of the start entity"`
	To      string `json:"to" jsonschema:"name of the target entity"`
	MaxHops *int   `json:"maxHops,omitempty" jsonschema:"maximum number of relations to follow (default: 5)"`
}

// FindPathOutput is the result of the find_path MCP tool.
type FindPathOutput struct {
	Found bool              `json:"found"`
	Path  *graph.PathResult `json:"path,omitempty"`
}

// PredictLinksInput is the input for the predict_links MCP tool.
type PredictLinksInput struct {
	Entity string `json:"entity" jsonschema:"name of the entity to suggest relations for"`
	TopK   int    `json:"topK,omitempty" jsonschema:"number of suggestions to return (default: 10)"`
}

// PredictLinksOutput is the result of the predict_links MCP tool.
type PredictLinksOutput struct {
	Predictions []graph.LinkPrediction `json:"predictions"`
}

// DetectCommunitiesInput is the input for the detect_communities MCP tool.
type DetectCommunitiesInput struct {
	MaxIterations int `json:"maxIterations,omitempty" jsonschema:"label propagation pass cap (default: 100); negative keeps every entity alone"`
}

// DetectCommunitiesOutput is the result of the detect_communities MCP tool.
type DetectCommunitiesOutput struct {
	Communities []graph.Community `json:"communities"`
	Count       int               `json:"count"`
	Iterations  int               `json:"iterations"`
	Converged   bool              `json:"converged"`
}

// LookupEntityInput is the input for the lookup_entity MCP tool.
type LookupEntityInput struct {
	Name string `json:"name" jsonschema:"exact entity name"`
}

// LookupEntityOutput is the result of the lookup_entity MCP tool.
type LookupEntityOutput struct {
	Found     bool             `json:"found"`
	Source    string           `json:"source,omitempty" jsonschema:"local or external"`
	Entity    *graph.Entity    `json:"entity,omitempty"`
	Relations []graph.Relation `json:"relations"`
}

// SearchEntitiesInput is the input for the search_entities MCP tool.
type SearchEntitiesInput struct {
	Query string `json:"query" jsonschema:"case-insensitive text matched against names, types, and observations"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// SearchEntitiesOutput is the result of the search_entities MCP tool.
type SearchEntitiesOutput struct {
	Entities []graph.Entity `json:"entities"`
	Total    int            `json:"total"`
}

// RelationsOfInput is the input for the relations_of MCP tool.
type RelationsOfInput struct {
	Name string `json:"name" jsonschema:"entity whose outgoing relations to list"`
}

// RelationsOfOutput is the result of the relations_of MCP tool.
type RelationsOfOutput struct {
	Relations []graph.Relation `json:"relations"`
}

// RelationInput is one outgoing relation in a put_entity call.
type RelationInput struct {
	To            string `json:"to" jsonschema:"target entity name"`
	RelationType  string `json:"relationType" jsonschema:"kind of relation, e.g. influences"`
	Qualification string `json:"qualification,omitempty" jsonschema:"optional qualifier, e.g. increases"`
}

// PutEntityInput is the input for the put_entity MCP tool.
type PutEntityInput struct {
	Name         string          `json:"name" jsonschema:"entity name"`
	EntityType   string          `json:"entityType,omitempty" jsonschema:"entity type, e.g. person or habit"`
	Observations []string        `json:"observations,omitempty" jsonschema:"free-text facts about the entity"`
	Relations    []RelationInput `json:"relations,omitempty" jsonschema:"outgoing relations; replaces the existing ones"`
}

// PutEntityOutput is the result of the put_entity MCP tool.
type PutEntityOutput struct {
	Entity    graph.Entity     `json:"entity"`
	Relations []graph.Relation `json:"relations"`
}

// DeleteEntityInput is the input for the delete_entity MCP tool.
type DeleteEntityInput struct {
	Name string `json:"name" jsonschema:"local entity to delete"`
}

// DeleteEntityOutput is the result of the delete_entity MCP tool.
type DeleteEntityOutput struct {
	Deleted bool `json:"deleted"`
}

// GraphStatsInput is the input for the graph_stats MCP tool.
type GraphStatsInput struct{}

// GraphStatsOutput is the result of the graph_stats MCP tool.
type GraphStatsOutput struct {
	Stats       graph.GraphStats `json:"stats"`
	Local       graph.GraphStats `json:"local"`
	HasExternal bool             `json:"hasExternal"`
	Stale       bool             `json:"stale" jsonschema:"the local vault changed on disk since the last scan"`
}

// RefreshIndexInput is the input for the refresh_index MCP tool.
type RefreshIndexInput struct{}

// RefreshIndexOutput is the result of the refresh_index MCP tool.
type RefreshIndexOutput struct {
	Local graph.GraphStats `json:"local"`
}
