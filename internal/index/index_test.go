package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/dusk-indust/vaultgraph/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// writeVault writes one entity file per record into a fresh directory.
func writeVault(t *testing.T, records ...vault.Record) string {
	t.Helper()
	dir := t.TempDir()
	v := vault.New(dir)
	for _, rec := range records {
		_, err := v.Write(context.Background(), rec)
		require.NoError(t, err)
	}
	return dir
}

func record(name, entityType string, observations []string, targets ...string) vault.Record {
	rec := vault.Record{Entity: graph.Entity{Name: name, EntityType: entityType, Observations: observations}}
	for _, to := range targets {
		rec.Relations = append(rec.Relations, graph.Relation{From: name, To: to, RelationType: "links"})
	}
	return rec
}

func names(entities []graph.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Name
	}
	return out
}

// closeTracker is a graph.Reader that records Close calls.
type closeTracker struct {
	kg     *graph.KnowledgeGraph
	err    error
	closed int
}

func (c *closeTracker) ReadGraph(context.Context) (*graph.KnowledgeGraph, error) {
	return c.kg, c.err
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

func TestLocalIndex_LookupSearchRelations(t *testing.T) {
	dir := writeVault(t,
		record("Coffee", "drink", []string{"Bitter taste", "best before noon"}, "Sleep", "Ghost"),
		record("Sleep", "state", nil),
	)
	l, err := NewLocalIndex(context.Background(), dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	e, ok := l.Lookup("Coffee")
	require.True(t, ok)
	assert.Equal(t, "drink", e.EntityType)

	_, ok = l.Lookup("coffee")
	assert.False(t, ok, "lookup is exact")

	rels := l.RelationsOf("Coffee")
	require.Len(t, rels, 2)
	assert.Equal(t, "Sleep", rels[0].To)
	assert.Equal(t, "Ghost", rels[1].To, "dangling relations are kept")

	none := l.RelationsOf("Sleep")
	assert.NotNil(t, none)
	assert.Empty(t, none)

	assert.Equal(t, []string{"Coffee"}, names(l.Search("BITTER")))
	assert.Equal(t, []string{"Coffee"}, names(l.Search("taste best")), "observations are joined by a space")
	assert.Equal(t, []string{"Sleep"}, names(l.Search("stat")))
	assert.Equal(t, []string{"Coffee", "Sleep"}, names(l.Search("")))
	assert.Empty(t, l.Search("tea"))
}

func TestLocalIndex_ReturnsCopies(t *testing.T) {
	dir := writeVault(t, record("A", "", []string{"one"}))
	l, err := NewLocalIndex(context.Background(), dir)
	require.NoError(t, err)

	e, _ := l.Lookup("A")
	e.Observations[0] = "mutated"

	again, _ := l.Lookup("A")
	assert.Equal(t, "one", again.Observations[0])
}

func TestLocalIndex_MissingDirIsEmpty(t *testing.T) {
	l, err := NewLocalIndex(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	_, ok := l.Lookup("anything")
	assert.False(t, ok)
	assert.Empty(t, l.Search(""))
}

func TestLocalIndex_UnreadablePathFails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewLocalIndex(context.Background(), file)
	assert.Error(t, err)

	_, err = NewExternalIndex(context.Background(), file)
	assert.Error(t, err)
}

func TestLocalIndex_PutAndDelete(t *testing.T) {
	dir := writeVault(t, record("Coffee", "drink", nil, "Sleep"))
	ctx := context.Background()
	l, err := NewLocalIndex(ctx, dir)
	require.NoError(t, err)

	err = l.Put(ctx, graph.Entity{Name: "Coffee", EntityType: "habit"}, []graph.Relation{
		{From: "someone else", To: "Focus", RelationType: "improves"},
	})
	require.NoError(t, err)

	e, ok := l.Lookup("Coffee")
	require.True(t, ok)
	assert.Equal(t, "habit", e.EntityType)
	assert.Equal(t, []graph.Relation{{From: "Coffee", To: "Focus", RelationType: "improves"}}, l.RelationsOf("Coffee"),
		"outgoing relations are replaced and re-rooted")

	// A fresh scan sees the same thing.
	reopened, err := NewLocalIndex(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, l.RelationsOf("Coffee"), reopened.RelationsOf("Coffee"))

	require.NoError(t, l.Delete(ctx, "Coffee"))
	_, ok = l.Lookup("Coffee")
	assert.False(t, ok)
	assert.Empty(t, l.RelationsOf("Coffee"))
	assert.NoFileExists(t, filepath.Join(dir, "Coffee.md"))

	err = l.Delete(ctx, "Coffee")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalIndex_PutRefusesSharedFileName(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	l, err := NewLocalIndex(ctx, dir)
	require.NoError(t, err)

	require.NoError(t, l.Put(ctx, graph.Entity{Name: "A/B", Observations: []string{"slash"}}, nil))

	tests := []struct {
		name  string
		other string
	}{
		{"separator replaced", "A-B"},
		{"case folded", "a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Put(ctx, graph.Entity{Name: tt.other}, nil)
			assert.ErrorIs(t, err, ErrNameConflict)
			_, ok := l.Lookup(tt.other)
			assert.False(t, ok)
		})
	}

	require.NoError(t, l.Refresh(ctx))
	e, ok := l.Lookup("A/B")
	require.True(t, ok, "the first entity's file is untouched")
	assert.Equal(t, []string{"slash"}, e.Observations)

	// Re-putting the owner itself is fine.
	assert.NoError(t, l.Put(ctx, graph.Entity{Name: "A/B"}, nil))
}

func TestLocalIndex_RefreshPicksUpExternalEdits(t *testing.T) {
	dir := writeVault(t, record("A", "", nil))
	ctx := context.Background()
	l, err := NewLocalIndex(ctx, dir)
	require.NoError(t, err)

	_, err = vault.New(dir).Write(ctx, record("B", "", nil))
	require.NoError(t, err)

	_, ok := l.Lookup("B")
	assert.False(t, ok, "no automatic rescan")

	require.NoError(t, l.Refresh(ctx))
	_, ok = l.Lookup("B")
	assert.True(t, ok)
	assert.False(t, l.Stale())
}

func TestLocalIndex_WatchMarksStale(t *testing.T) {
	dir := writeVault(t, record("A", "", nil))
	ctx := context.Background()
	l, err := NewLocalIndex(ctx, dir, WithWatch(zap.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "B.md"), []byte("- edited elsewhere\n"), 0o644))

	assert.Eventually(t, l.Stale, 5*time.Second, 10*time.Millisecond)
	_, ok := l.Lookup("B")
	assert.False(t, ok, "stale indexes keep serving the last scan")

	require.NoError(t, l.Refresh(ctx))
	assert.False(t, l.Stale())
	_, ok = l.Lookup("B")
	assert.True(t, ok)
}

func TestLocalIndex_CloseIsIdempotent(t *testing.T) {
	l, err := NewLocalIndex(context.Background(), t.TempDir(), WithWatch(nil))
	require.NoError(t, err)

	assert.NoError(t, l.Close())
	assert.NoError(t, l.Close())
}

func TestExternalIndex_FromReader(t *testing.T) {
	reader := &closeTracker{kg: &graph.KnowledgeGraph{
		Entities:  []graph.Entity{{Name: "Paper", EntityType: "source"}},
		Relations: []graph.Relation{{From: "Paper", To: "Topic", RelationType: "covers"}},
	}}
	x, err := NewExternalIndexFromReader(context.Background(), reader)
	require.NoError(t, err)

	_, ok := x.Lookup("Paper")
	assert.True(t, ok)
	assert.Len(t, x.RelationsOf("Paper"), 1)

	require.NoError(t, x.Close())
	require.NoError(t, x.Close())
	assert.Equal(t, 1, reader.closed, "reader is closed exactly once")
}

func TestExternalIndex_ReaderFailureClosesReader(t *testing.T) {
	reader := &closeTracker{err: errors.New("corrupt database")}

	_, err := NewExternalIndexFromReader(context.Background(), reader)
	assert.ErrorContains(t, err, "corrupt database")
	assert.Equal(t, 1, reader.closed)
}
