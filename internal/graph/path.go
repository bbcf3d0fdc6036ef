package graph

// DefaultMaxHops caps FindPath when the caller passes a negative hop budget.
const DefaultMaxHops = 5

// FindPath runs a breadth-first search from `from` to `to` following
// relations in their stored direction only. Each node is visited once, so the
// first path discovered has the fewest hops. Paths longer than maxHops are
// not found. It returns nil when `to` is unreachable within the budget.
//
// A query from a node to itself yields a zero-hop path holding that node.
func FindPath(relations []Relation, from, to string, maxHops int) *PathResult {
	if maxHops < 0 {
		maxHops = DefaultMaxHops
	}
	if from == to {
		return &PathResult{Entities: []string{from}, Relations: []Relation{}, Hops: 0}
	}

	// Outgoing adjacency in relation order keeps the search deterministic.
	outgoing := make(map[string][]int)
	for i, r := range relations {
		outgoing[r.From] = append(outgoing[r.From], i)
	}

	// BFS state: each entry tracks the node and the relations used to reach it.
	type bfsEntry struct {
		name string
		via  []int
	}

	visited := map[string]bool{from: true}
	queue := []bfsEntry{{name: from}}

	for depth := 0; depth < maxHops && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			for _, ri := range outgoing[entry.name] {
				nb := relations[ri].To
				if visited[nb] {
					continue
				}
				visited[nb] = true
				via := make([]int, len(entry.via), len(entry.via)+1)
				copy(via, entry.via)
				via = append(via, ri)
				if nb == to {
					return buildPath(relations, from, via)
				}
				nextQueue = append(nextQueue, bfsEntry{name: nb, via: via})
			}
		}
		queue = nextQueue
	}

	return nil
}

func buildPath(relations []Relation, from string, via []int) *PathResult {
	p := &PathResult{
		Entities:  make([]string, 0, len(via)+1),
		Relations: make([]Relation, 0, len(via)),
		Hops:      len(via),
	}
	p.Entities = append(p.Entities, from)
	for _, ri := range via {
		p.Relations = append(p.Relations, relations[ri])
		p.Entities = append(p.Entities, relations[ri].To)
	}
	return p
}
