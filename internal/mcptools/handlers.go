package mcptools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dusk-indust/vaultgraph/internal/config"
	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/dusk-indust/vaultgraph/internal/index"
	"github.com/dusk-indust/vaultgraph/internal/metrics"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const defaultSearchLimit = 20

// KnowledgeService holds the index and analytics defaults used by MCP tool
// handlers. Every analytics call reads a fresh snapshot of the unified index.
type KnowledgeService struct {
	index    *index.Unified
	defaults config.AnalyticsConfig
	logger   *zap.Logger
}

// NewKnowledgeService creates a KnowledgeService over idx. A nil logger
// discards output.
func NewKnowledgeService(idx *index.Unified, defaults config.AnalyticsConfig, logger *zap.Logger) *KnowledgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeService{index: idx, defaults: defaults, logger: logger}
}

// snapshot reads the merged graph and records its size.
func (s *KnowledgeService) snapshot(ctx context.Context) (*graph.KnowledgeGraph, error) {
	kg, err := s.index.ReadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	metrics.SetSnapshotSize(kg.Stats())
	return kg, nil
}

// GetCentrality ranks entities by ArticleRank.
func (s *KnowledgeService) GetCentrality(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetCentralityInput,
) (*mcp.CallToolResult, GetCentralityOutput, error) {
	kg, err := s.snapshot(ctx)
	if err != nil {
		return nil, GetCentralityOutput{}, err
	}

	opts := s.defaults.RankOptions()
	if input.DampingFactor != 0 {
		opts.DampingFactor = input.DampingFactor
	}
	if input.MaxIterations != 0 {
		opts.MaxIterations = input.MaxIterations
	}
	if input.Tolerance != 0 {
		opts.Tolerance = input.Tolerance
	}
	if input.TopK != 0 {
		opts.TopK = input.TopK
	}

	result := graph.ArticleRank(kg.Entities, kg.Relations, opts)
	return nil, GetCentralityOutput{
		Ranking:     result.Ranking,
		Iterations:  result.Iterations,
		Converged:   result.Converged,
		EntityCount: len(result.Scores),
	}, nil
}

// FindPath finds the shortest directed path between two entities.
func (s *KnowledgeService) FindPath(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindPathInput,
) (*mcp.CallToolResult, FindPathOutput, error) {
	if input.From == "" || input.To == "" {
		return nil, FindPathOutput{}, errors.New("from and to are required")
	}
	kg, err := s.snapshot(ctx)
	if err != nil {
		return nil, FindPathOutput{}, err
	}

	maxHops := s.defaults.MaxHops
	if input.MaxHops != nil {
		maxHops = *input.MaxHops
	}

	path := graph.FindPath(kg.Relations, input.From, input.To, maxHops)
	return nil, FindPathOutput{Found: path != nil, Path: path}, nil
}

// PredictLinks suggests new relations for an entity.
func (s *KnowledgeService) PredictLinks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PredictLinksInput,
) (*mcp.CallToolResult, PredictLinksOutput, error) {
	if input.Entity == "" {
		return nil, PredictLinksOutput{}, errors.New("entity is required")
	}
	kg, err := s.snapshot(ctx)
	if err != nil {
		return nil, PredictLinksOutput{}, err
	}

	topK := s.defaults.TopK
	if input.TopK != 0 {
		topK = input.TopK
	}

	predictions := graph.PredictLinks(input.Entity, kg.Entities, kg.Relations, topK)
	return nil, PredictLinksOutput{Predictions: predictions}, nil
}

// DetectCommunities groups entities by label propagation.
func (s *KnowledgeService) DetectCommunities(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DetectCommunitiesInput,
) (*mcp.CallToolResult, DetectCommunitiesOutput, error) {
	kg, err := s.snapshot(ctx)
	if err != nil {
		return nil, DetectCommunitiesOutput{}, err
	}

	maxIter := s.defaults.MaxIterations
	if input.MaxIterations != 0 {
		maxIter = input.MaxIterations
	}

	result := graph.DetectCommunities(kg.Entities, kg.Relations, maxIter)
	return nil, DetectCommunitiesOutput{
		Communities: result.Communities,
		Count:       result.Count,
		Iterations:  result.Iterations,
		Converged:   result.Converged,
	}, nil
}

// LookupEntity returns one entity, preferring the local vault.
func (s *KnowledgeService) LookupEntity(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input LookupEntityInput,
) (*mcp.CallToolResult, LookupEntityOutput, error) {
	if input.Name == "" {
		return nil, LookupEntityOutput{}, errors.New("name is required")
	}

	out := LookupEntityOutput{Relations: s.index.RelationsOf(input.Name)}
	if e, ok := s.index.Local().Lookup(input.Name); ok {
		out.Found, out.Source, out.Entity = true, "local", e
	} else if e, ok := s.index.Lookup(input.Name); ok {
		out.Found, out.Source, out.Entity = true, "external", e
	}
	return nil, out, nil
}

// SearchEntities runs a text search over both indexes.
func (s *KnowledgeService) SearchEntities(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SearchEntitiesInput,
) (*mcp.CallToolResult, SearchEntitiesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results := s.index.Search(input.Query)
	total := len(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return nil, SearchEntitiesOutput{Entities: results, Total: total}, nil
}

// RelationsOf lists an entity's outgoing relations from both indexes.
func (s *KnowledgeService) RelationsOf(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RelationsOfInput,
) (*mcp.CallToolResult, RelationsOfOutput, error) {
	if input.Name == "" {
		return nil, RelationsOfOutput{}, errors.New("name is required")
	}
	return nil, RelationsOfOutput{Relations: s.index.RelationsOf(input.Name)}, nil
}

// PutEntity creates or replaces an entity in the local vault.
func (s *KnowledgeService) PutEntity(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PutEntityInput,
) (*mcp.CallToolResult, PutEntityOutput, error) {
	if input.Name == "" {
		return nil, PutEntityOutput{}, errors.New("name is required")
	}

	entity := graph.Entity{
		Name:         input.Name,
		EntityType:   input.EntityType,
		Observations: input.Observations,
	}
	if entity.Observations == nil {
		entity.Observations = []string{}
	}
	relations := make([]graph.Relation, 0, len(input.Relations))
	for _, r := range input.Relations {
		if r.To == "" {
			return nil, PutEntityOutput{}, errors.New("every relation needs a to")
		}
		relations = append(relations, graph.Relation{
			From:          input.Name,
			To:            r.To,
			RelationType:  r.RelationType,
			Qualification: r.Qualification,
		})
	}

	if err := s.index.Local().Put(ctx, entity, relations); err != nil {
		return nil, PutEntityOutput{}, err
	}
	return nil, PutEntityOutput{Entity: entity, Relations: relations}, nil
}

// DeleteEntity removes an entity from the local vault.
func (s *KnowledgeService) DeleteEntity(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteEntityInput,
) (*mcp.CallToolResult, DeleteEntityOutput, error) {
	if input.Name == "" {
		return nil, DeleteEntityOutput{}, errors.New("name is required")
	}
	if err := s.index.Local().Delete(ctx, input.Name); err != nil {
		if errors.Is(err, index.ErrNotFound) {
			return nil, DeleteEntityOutput{Deleted: false}, nil
		}
		return nil, DeleteEntityOutput{}, err
	}
	return nil, DeleteEntityOutput{Deleted: true}, nil
}

// GraphStats reports snapshot sizes and whether the local vault is stale.
func (s *KnowledgeService) GraphStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GraphStatsInput,
) (*mcp.CallToolResult, GraphStatsOutput, error) {
	kg, err := s.snapshot(ctx)
	if err != nil {
		return nil, GraphStatsOutput{}, err
	}
	return nil, GraphStatsOutput{
		Stats:       kg.Stats(),
		Local:       s.localStats(),
		HasExternal: s.index.HasExternal(),
		Stale:       s.index.Local().Stale(),
	}, nil
}

// RefreshIndex rescans the local vault.
func (s *KnowledgeService) RefreshIndex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ RefreshIndexInput,
) (*mcp.CallToolResult, RefreshIndexOutput, error) {
	if err := s.index.Local().Refresh(ctx); err != nil {
		return nil, RefreshIndexOutput{}, err
	}
	return nil, RefreshIndexOutput{Local: s.localStats()}, nil
}

func (s *KnowledgeService) localStats() graph.GraphStats {
	entities, relations := s.index.Local().Snapshot()
	return graph.GraphStats{EntityCount: len(entities), RelationCount: len(relations)}
}

// instrument wraps a tool handler with call metrics and logging.
func instrument[In, Out any](s *KnowledgeService, tool string, h mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		start := time.Now()
		res, out, err := h(ctx, req, input)
		metrics.ObserveToolCall(tool, start, err)
		if err != nil {
			s.logger.Warn("tool call failed", zap.String("tool", tool), zap.Error(err))
		} else {
			s.logger.Debug("tool call", zap.String("tool", tool), zap.Duration("took", time.Since(start)))
		}
		return res, out, err
	}
}
