package metrics

import (
	"net/http"
	"time"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tool metrics
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vaultgraph_tool_calls_total",
			Help: "Number of MCP tool calls by outcome",
		},
		[]string{"tool", "status"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vaultgraph_tool_duration_seconds",
			Help:    "Time spent handling MCP tool calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	// Snapshot metrics
	SnapshotEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vaultgraph_snapshot_entities",
		Help: "Entities in the most recent analytics snapshot",
	})

	SnapshotRelations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vaultgraph_snapshot_relations",
		Help: "Relations in the most recent analytics snapshot",
	})
)

// ObserveToolCall records one finished tool call.
func ObserveToolCall(tool string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ToolCalls.WithLabelValues(tool, status).Inc()
	ToolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}

// SetSnapshotSize records the size of the snapshot the analytics ran on.
func SetSnapshotSize(stats graph.GraphStats) {
	SnapshotEntities.Set(float64(stats.EntityCount))
	SnapshotRelations.Set(float64(stats.RelationCount))
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
