package graph

import (
	"math"
	"sort"
)

// Defaults for ArticleRank.
const (
	DefaultDampingFactor = 0.85
	DefaultMaxIterations = 100
	DefaultTolerance     = 1e-6
	DefaultTopK          = 10
)

// RankOptions tunes ArticleRank. Zero values select the defaults, so a
// DampingFactor of exactly 0 cannot be requested; it and any value outside
// (0, 1), NaN included, fall back to DefaultDampingFactor. A negative
// MaxIterations returns the initial scores unchanged.
type RankOptions struct {
	DampingFactor float64
	MaxIterations int
	Tolerance     float64
	TopK          int
}

func (o RankOptions) withDefaults() RankOptions {
	if o.DampingFactor <= 0 || o.DampingFactor >= 1 || math.IsNaN(o.DampingFactor) {
		o.DampingFactor = DefaultDampingFactor
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MaxIterations < 0 {
		o.MaxIterations = 0
	}
	if o.Tolerance <= 0 || math.IsNaN(o.Tolerance) {
		o.Tolerance = DefaultTolerance
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	return o
}

// ComputeDegrees counts incoming and outgoing relations for every entity.
// Entities without relations get a zero Degree; relation endpoints that are
// not entities are ignored.
func ComputeDegrees(entities []Entity, relations []Relation) map[string]Degree {
	degrees := make(map[string]Degree, len(entities))
	for _, e := range entities {
		degrees[e.Name] = Degree{}
	}
	for _, r := range relations {
		if d, ok := degrees[r.From]; ok {
			d.Out++
			d.Total++
			degrees[r.From] = d
		}
		if d, ok := degrees[r.To]; ok {
			d.In++
			d.Total++
			degrees[r.To] = d
		}
	}
	return degrees
}

// ArticleRank scores entities with the ArticleRank variant of PageRank:
//
//	score(v) = (1-d)/n + d * sum over u->v of score(u) / max(outDegree(u), 1)
//
// Sinks keep their mass instead of spreading it over the graph. Iteration is
// synchronous: each pass reads only the previous score vector. The loop stops
// after MaxIterations or once the largest per-node change drops below
// Tolerance.
func ArticleRank(entities []Entity, relations []Relation, opts RankOptions) RankResult {
	opts = opts.withDefaults()

	names := uniqueNames(entities)
	n := len(names)
	if n == 0 {
		return RankResult{Scores: map[string]float64{}, Ranking: []RankedEntity{}, Converged: true}
	}

	index := make(map[string]int, n)
	for i, name := range names {
		index[name] = i
	}

	// outDegree counts every relation leaving a node, dangling targets included.
	outDegree := make([]int, n)
	incoming := make([][]int, n)
	for _, r := range relations {
		u, ok := index[r.From]
		if !ok {
			continue
		}
		outDegree[u]++
		if v, ok := index[r.To]; ok {
			incoming[v] = append(incoming[v], u)
		}
	}

	d := opts.DampingFactor
	base := (1 - d) / float64(n)

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1 / float64(n)
	}

	iterations := 0
	converged := false
	for iterations < opts.MaxIterations {
		next := make([]float64, n)
		maxDelta := 0.0
		for v := 0; v < n; v++ {
			sum := 0.0
			for _, u := range incoming[v] {
				sum += scores[u] / float64(max(outDegree[u], 1))
			}
			next[v] = base + d*sum
			if delta := math.Abs(next[v] - scores[v]); delta > maxDelta {
				maxDelta = delta
			}
		}
		scores = next
		iterations++
		if maxDelta < opts.Tolerance {
			converged = true
			break
		}
	}

	degrees := ComputeDegrees(entities, relations)
	result := RankResult{
		Scores:     make(map[string]float64, n),
		Ranking:    make([]RankedEntity, n),
		Iterations: iterations,
		Converged:  converged,
	}
	for i, name := range names {
		result.Scores[name] = scores[i]
		result.Ranking[i] = RankedEntity{Name: name, Score: scores[i], Degree: degrees[name]}
	}
	sort.SliceStable(result.Ranking, func(i, j int) bool {
		return result.Ranking[i].Score > result.Ranking[j].Score
	})
	if len(result.Ranking) > opts.TopK {
		result.Ranking = result.Ranking[:opts.TopK]
	}
	return result
}

// uniqueNames returns entity names in first-occurrence order.
func uniqueNames(entities []Entity) []string {
	seen := make(map[string]bool, len(entities))
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		names = append(names, e.Name)
	}
	return names
}
