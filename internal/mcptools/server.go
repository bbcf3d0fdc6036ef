package mcptools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dusk-indust/vaultgraph/internal/metrics"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// version is set by the linker at build time.
var version = "dev"

// NewKnowledgeMCPServer creates an MCP server with every knowledge graph tool registered.
func NewKnowledgeMCPServer(svc *KnowledgeService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "vaultgraph",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_centrality",
		Description: "Rank entities by ArticleRank centrality. Returns the top entities with their scores and in/out degrees.",
	}, instrument(svc, "get_centrality", svc.GetCentrality))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_path",
		Description: "Find the shortest directed chain of relations from one entity to another, up to a hop limit.",
	}, instrument(svc, "find_path", svc.FindPath))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "predict_links",
		Description: "Suggest entities that are likely related to the given entity, scored by Adamic-Adar over shared neighbors.",
	}, instrument(svc, "predict_links", svc.PredictLinks))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "detect_communities",
		Description: "Group entities into communities of densely connected entities using label propagation.",
	}, instrument(svc, "detect_communities", svc.DetectCommunities))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_entity",
		Description: "Return one entity by exact name with its outgoing relations. Local entities shadow external ones.",
	}, instrument(svc, "lookup_entity", svc.LookupEntity))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_entities",
		Description: "Case-insensitive text search over entity names, types, and observations. Local matches come first.",
	}, instrument(svc, "search_entities", svc.SearchEntities))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "relations_of",
		Description: "List the outgoing relations of an entity from the local vault and the external corpus.",
	}, instrument(svc, "relations_of", svc.RelationsOf))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "put_entity",
		Description: "Create or replace an entity in the local vault, including its observations and outgoing relations.",
	}, instrument(svc, "put_entity", svc.PutEntity))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_entity",
		Description: "Delete an entity file from the local vault.",
	}, instrument(svc, "delete_entity", svc.DeleteEntity))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "graph_stats",
		Description: "Report entity and relation counts and whether the local vault changed on disk since it was last scanned.",
	}, instrument(svc, "graph_stats", svc.GraphStats))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh_index",
		Description: "Rescan the local vault directory to pick up edits made outside the server.",
	}, instrument(svc, "refresh_index", svc.RefreshIndex))

	return server
}

// RunMCPServer serves the knowledge graph tools over streamable HTTP at
// addr, with Prometheus metrics at /metrics.
func RunMCPServer(ctx context.Context, svc *KnowledgeService, addr string) error {
	server := NewKnowledgeMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", handler)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	svc.logger.Info("serving MCP over HTTP", zap.String("addr", addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// the client disconnects or ctx is done.
func RunMCPServerStdio(ctx context.Context, svc *KnowledgeService) error {
	svc.logger.Info("serving MCP over stdio")
	return NewKnowledgeMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
