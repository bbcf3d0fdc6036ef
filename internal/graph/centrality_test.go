package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// entitiesNamed builds bare entities in the given order.
func entitiesNamed(names ...string) []Entity {
	out := make([]Entity, len(names))
	for i, n := range names {
		out[i] = Entity{Name: n, EntityType: "concept"}
	}
	return out
}

// rel builds an "influences" relation from -> to.
func rel(from, to string) Relation {
	return Relation{From: from, To: to, RelationType: "influences", Qualification: "increases"}
}

func TestComputeDegrees(t *testing.T) {
	entities := entitiesNamed("A", "B", "C", "Lonely")
	relations := []Relation{
		rel("A", "B"),
		rel("A", "C"),
		rel("C", "B"),
		rel("A", "Ghost"), // dangling target
	}

	degrees := ComputeDegrees(entities, relations)

	assert.Equal(t, Degree{In: 0, Out: 3, Total: 3}, degrees["A"])
	assert.Equal(t, Degree{In: 2, Out: 0, Total: 2}, degrees["B"])
	assert.Equal(t, Degree{In: 1, Out: 1, Total: 2}, degrees["C"])
	assert.Equal(t, Degree{}, degrees["Lonely"])
	_, ok := degrees["Ghost"]
	assert.False(t, ok, "dangling endpoints must not appear in the degree map")
}

func TestArticleRank_EmptyGraph(t *testing.T) {
	result := ArticleRank(nil, []Relation{rel("A", "B")}, RankOptions{})

	assert.Empty(t, result.Scores)
	assert.Empty(t, result.Ranking)
	assert.Equal(t, 0, result.Iterations, "no iteration on an empty graph")
}

func TestArticleRank_CycleConvergesToEqualScores(t *testing.T) {
	entities := entitiesNamed("A", "B", "C")
	relations := []Relation{rel("A", "B"), rel("B", "C"), rel("C", "A")}

	result := ArticleRank(entities, relations, RankOptions{})

	require.Len(t, result.Scores, 3)
	assert.True(t, result.Converged)
	assert.InDelta(t, result.Scores["A"], result.Scores["B"], 1e-6)
	assert.InDelta(t, result.Scores["B"], result.Scores["C"], 1e-6)
	assert.InDelta(t, 1.0/3.0, result.Scores["A"], 1e-6)
}

func TestArticleRank_Deterministic(t *testing.T) {
	entities := entitiesNamed("A", "B", "C", "D", "E")
	relations := []Relation{
		rel("A", "B"), rel("A", "C"), rel("B", "C"),
		rel("C", "D"), rel("D", "A"), rel("E", "D"),
	}
	opts := RankOptions{DampingFactor: 0.85, MaxIterations: 50, Tolerance: 1e-9}

	first := ArticleRank(entities, relations, opts)
	second := ArticleRank(entities, relations, opts)

	assert.Equal(t, first, second)
}

func TestArticleRank_MoreIncomingEdgesRanksHigher(t *testing.T) {
	// Target and Other are identical sinks, except Target has one more
	// incoming relation.
	entities := entitiesNamed("S1", "S2", "Target", "Other")
	relations := []Relation{
		rel("S1", "Target"),
		rel("S2", "Target"),
		rel("S1", "Other"),
	}

	result := ArticleRank(entities, relations, RankOptions{})

	require.True(t, result.Converged)
	assert.Greater(t, result.Scores["Target"], result.Scores["Other"])
	assert.Equal(t, "Target", result.Ranking[0].Name)
	assert.Equal(t, 2, result.Ranking[0].Degree.In)
}

func TestArticleRank_SinksKeepTheirMass(t *testing.T) {
	// A -> B with B a sink. B's score is not redistributed, so after one
	// pass: A = 0.15/2, B = 0.15/2 + 0.85 * 0.5 / 1.
	entities := entitiesNamed("A", "B")
	relations := []Relation{rel("A", "B")}

	result := ArticleRank(entities, relations, RankOptions{MaxIterations: 1})

	assert.Equal(t, 1, result.Iterations)
	assert.InDelta(t, 0.075, result.Scores["A"], 1e-12)
	assert.InDelta(t, 0.075+0.425, result.Scores["B"], 1e-12)
}

func TestArticleRank_NegativeIterationsReturnsInitialScores(t *testing.T) {
	entities := entitiesNamed("A", "B", "C", "D")
	relations := []Relation{rel("A", "B"), rel("C", "B")}

	result := ArticleRank(entities, relations, RankOptions{MaxIterations: -1})

	assert.Equal(t, 0, result.Iterations)
	assert.False(t, result.Converged)
	for _, name := range []string{"A", "B", "C", "D"} {
		assert.Equal(t, 0.25, result.Scores[name])
	}
}

func TestArticleRank_RankingStableAndTruncated(t *testing.T) {
	// No relations: every entity has the same score, so the ranking must
	// follow entity order.
	entities := entitiesNamed("E1", "E2", "E3", "E4", "E5")

	result := ArticleRank(entities, nil, RankOptions{TopK: 3})

	require.Len(t, result.Ranking, 3)
	assert.Equal(t, "E1", result.Ranking[0].Name)
	assert.Equal(t, "E2", result.Ranking[1].Name)
	assert.Equal(t, "E3", result.Ranking[2].Name)
	assert.Len(t, result.Scores, 5, "scores cover every entity regardless of TopK")
}

func TestArticleRank_DanglingAndSelfLoopsTolerated(t *testing.T) {
	entities := entitiesNamed("A", "", "B")
	relations := []Relation{
		rel("A", "Missing"),
		rel("Missing", "B"),
		rel("B", "B"),
		rel("", "A"),
		rel("A", "B"),
		rel("A", "B"), // duplicate tuple
	}

	result := ArticleRank(entities, relations, RankOptions{})

	require.Len(t, result.Scores, 3)
	for name, score := range result.Scores {
		assert.Greater(t, score, 0.0, "score for %q", name)
	}
}

func TestRankOptions_InvalidDampingFallsBackToDefault(t *testing.T) {
	for _, d := range []float64{0, -0.5, 1, 1.5, math.NaN()} {
		opts := RankOptions{DampingFactor: d}.withDefaults()
		assert.Equal(t, DefaultDampingFactor, opts.DampingFactor, "damping %v", d)
	}
}

func TestArticleRank_NaNDampingKeepsScoresFinite(t *testing.T) {
	entities := entitiesNamed("A", "B")
	relations := []Relation{rel("A", "B")}

	result := ArticleRank(entities, relations, RankOptions{DampingFactor: math.NaN()})

	for name, score := range result.Scores {
		assert.False(t, math.IsNaN(score), "score for %q", name)
	}
	assert.True(t, result.Converged)
}
