package graph

import (
	"fmt"
	"math"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// neighborhood is an undirected view of the relation set: every relation
// links both endpoints regardless of direction.
type neighborhood struct {
	sets   map[string]mapset.Set[string]
	order  map[string][]string // neighbors in first-seen order
	degree map[string]int      // relation-endpoint incidences
}

func buildNeighborhood(relations []Relation) *neighborhood {
	nb := &neighborhood{
		sets:   make(map[string]mapset.Set[string]),
		order:  make(map[string][]string),
		degree: make(map[string]int),
	}
	link := func(a, b string) {
		set, ok := nb.sets[a]
		if !ok {
			set = mapset.NewThreadUnsafeSet[string]()
			nb.sets[a] = set
		}
		if set.Add(b) {
			nb.order[a] = append(nb.order[a], b)
		}
	}
	for _, r := range relations {
		link(r.From, r.To)
		link(r.To, r.From)
		nb.degree[r.From]++
		nb.degree[r.To]++
	}
	return nb
}

// adamicAdarWeight is one shared neighbor's contribution. ln(1) is zero, so
// neighbors of degree 1 or less contribute a flat 1.0.
func adamicAdarWeight(degree int) float64 {
	if degree > 1 {
		return 1 / math.Log(float64(degree))
	}
	return 1.0
}

func (nb *neighborhood) of(name string) mapset.Set[string] {
	if set, ok := nb.sets[name]; ok {
		return set
	}
	return mapset.NewThreadUnsafeSet[string]()
}

// PredictLinks suggests entities that the named entity is likely to relate
// to, scored by Adamic–Adar over undirected neighbor sets:
//
//	score(e, o) = sum over shared neighbors c of 1/ln(degree(c))
//
// A shared neighbor with degree 1 contributes exactly 1.0. Entities already
// adjacent to e in either direction, and e itself, are never candidates.
// Results are ordered by score, ties keeping entity order, and cut to topK.
func PredictLinks(entity string, entities []Entity, relations []Relation, topK int) []LinkPrediction {
	if topK <= 0 {
		topK = DefaultTopK
	}
	predictions := []LinkPrediction{}
	if len(entities) == 0 {
		return predictions
	}

	nb := buildNeighborhood(relations)
	own := nb.of(entity)
	if own.Cardinality() == 0 {
		return predictions
	}

	for _, name := range uniqueNames(entities) {
		if name == entity || own.Contains(name) {
			continue
		}
		common := own.Intersect(nb.of(name))
		if common.Cardinality() == 0 {
			continue
		}

		// Walk e's neighbors in first-seen order so output is stable.
		shared := make([]string, 0, common.Cardinality())
		score := 0.0
		for _, c := range nb.order[entity] {
			if !common.Contains(c) {
				continue
			}
			shared = append(shared, c)
			score += adamicAdarWeight(nb.degree[c])
		}

		predictions = append(predictions, LinkPrediction{
			Entity:          name,
			Score:           score,
			SharedNeighbors: shared,
			Explanation: fmt.Sprintf("%s and %s share %d neighbor(s); Adamic-Adar score %.4f",
				entity, name, len(shared), score),
		})
	}

	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Score > predictions[j].Score
	})
	if len(predictions) > topK {
		predictions = predictions[:topK]
	}
	return predictions
}
