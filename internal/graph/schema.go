package graph

// --- Models ---

// Entity is a named node in the knowledge graph. Name is the only identity;
// two entities with the same name from different sources are the same node.
type Entity struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

// Relation is a directed, typed edge between two entity names. Either
// endpoint may name an entity that does not exist (a dangling edge).
type Relation struct {
	From          string `json:"from"`
	To            string `json:"to"`
	RelationType  string `json:"relationType"`
	Qualification string `json:"qualification,omitempty"`
}

// KnowledgeGraph is a read-only snapshot of entities and relations.
// Slice order is insertion order and only matters as a tie-break.
type KnowledgeGraph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// GraphStats summarizes a knowledge graph.
type GraphStats struct {
	EntityCount   int `json:"entityCount"`
	RelationCount int `json:"relationCount"`
}

// Stats counts the entities and relations in the snapshot.
func (g *KnowledgeGraph) Stats() GraphStats {
	if g == nil {
		return GraphStats{}
	}
	return GraphStats{
		EntityCount:   len(g.Entities),
		RelationCount: len(g.Relations),
	}
}

// --- Analytics results ---

// Degree holds the in/out edge counts of one entity.
type Degree struct {
	In    int `json:"inDegree"`
	Out   int `json:"outDegree"`
	Total int `json:"totalDegree"`
}

// RankedEntity is one row of a centrality ranking.
type RankedEntity struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Degree Degree  `json:"degree"`
}

// RankResult is the output of ArticleRank.
type RankResult struct {
	Scores     map[string]float64 `json:"scores"`
	Ranking    []RankedEntity     `json:"ranking"`
	Iterations int                `json:"iterations"`
	Converged  bool               `json:"converged"`
}

// PathResult is a directed path found by FindPath.
type PathResult struct {
	Entities  []string   `json:"entities"`  // from..to inclusive
	Relations []Relation `json:"relations"` // in traversal order
	Hops      int        `json:"hops"`
}

// LinkPrediction is a candidate relation suggested by PredictLinks.
type LinkPrediction struct {
	Entity          string   `json:"entity"`
	Score           float64  `json:"score"`
	SharedNeighbors []string `json:"sharedNeighbors"`
	Explanation     string   `json:"explanation"`
}

// Community is a group of entities that ended with the same label.
type Community struct {
	Label   string   `json:"label"`
	Members []string `json:"members"`
}

// CommunityResult is the output of DetectCommunities.
type CommunityResult struct {
	Communities []Community       `json:"communities"`
	Labels      map[string]string `json:"labels"` // entity name -> label
	Count       int               `json:"count"`
	Iterations  int               `json:"iterations"`
	Converged   bool              `json:"converged"`
}
