package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore creates a MemStore and populates it with the given entities and relations.
func setupStore(t *testing.T, entities []Entity, relations []Relation) *MemStore {
	t.Helper()
	ctx := context.Background()
	store := NewMemStore()
	require.NoError(t, store.InitSchema(ctx))

	for _, e := range entities {
		require.NoError(t, store.AddEntity(ctx, e))
	}
	for _, r := range relations {
		require.NoError(t, store.AddRelation(ctx, r))
	}
	return store
}

func TestMemStore_ReadGraphKeepsInsertionOrder(t *testing.T) {
	entities := []Entity{
		{Name: "Zeta", EntityType: "person", Observations: []string{"likes tea"}},
		{Name: "Alpha", EntityType: "place"},
	}
	relations := []Relation{rel("Zeta", "Alpha"), rel("Alpha", "Nowhere")}
	store := setupStore(t, entities, relations)

	kg, err := store.ReadGraph(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entities, kg.Entities)
	assert.Equal(t, relations, kg.Relations)
}

func TestMemStore_ReplaceEntityKeepsPosition(t *testing.T) {
	store := setupStore(t, entitiesNamed("A", "B"), nil)
	ctx := context.Background()

	require.NoError(t, store.AddEntity(ctx, Entity{Name: "A", EntityType: "updated"}))

	kg, err := store.ReadGraph(ctx)
	require.NoError(t, err)
	require.Len(t, kg.Entities, 2)
	assert.Equal(t, "A", kg.Entities[0].Name)
	assert.Equal(t, "updated", kg.Entities[0].EntityType)
}

func TestMemStore_SnapshotIsACopy(t *testing.T) {
	store := setupStore(t, []Entity{{Name: "A", Observations: []string{"one"}}}, nil)
	ctx := context.Background()

	kg, err := store.ReadGraph(ctx)
	require.NoError(t, err)
	kg.Entities[0].Observations[0] = "mutated"

	again, err := store.ReadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", again.Entities[0].Observations[0])
}

func TestCopy(t *testing.T) {
	src := setupStore(t, entitiesNamed("A", "B", "C"), []Relation{rel("A", "B"), rel("B", "C"), rel("B", "C")})
	dst := NewMemStore()

	stats, err := Copy(context.Background(), dst, src)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.EntityCount)
	assert.Equal(t, 3, stats.RelationCount, "duplicates are copied as-is")

	want, _ := src.ReadGraph(context.Background())
	got, err := dst.ReadGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestKnowledgeGraph_Stats(t *testing.T) {
	var nilGraph *KnowledgeGraph
	assert.Equal(t, GraphStats{}, nilGraph.Stats())

	kg := &KnowledgeGraph{Entities: entitiesNamed("A"), Relations: []Relation{rel("A", "A")}}
	assert.Equal(t, GraphStats{EntityCount: 1, RelationCount: 1}, kg.Stats())
}
