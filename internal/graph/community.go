package graph

// DetectCommunities groups entities by label propagation.
//
// Algorithm:
//  1. Every entity starts labeled with its own name.
//  2. Build an undirected adjacency list among known entities.
//  3. Each pass computes a complete new label vector from the previous one:
//     a node takes the most frequent label among its neighbors. Ties go to
//     the node's current label when it is one of the tied labels, otherwise
//     to the label encountered first while walking the neighbors. Without
//     the current-label rule every node of a triangle swaps labels forever
//     under synchronous updates.
//  4. Stop after a pass with no changes, or after maxIterations passes.
//
// A maxIterations of zero selects DefaultMaxIterations; a negative value
// returns every entity in its own community. Bipartite structures can
// alternate between two labelings under synchronous updates and never
// converge: a mutual pair A-B swaps labels every pass and ends as two
// communities, and a chain A-B-C can group A with C while B sits alone.
// The iteration cap bounds that case, the last pass wins, and Converged
// reports false.
func DetectCommunities(entities []Entity, relations []Relation, maxIterations int) CommunityResult {
	if maxIterations == 0 {
		maxIterations = DefaultMaxIterations
	}
	if maxIterations < 0 {
		maxIterations = 0
	}

	names := uniqueNames(entities)
	if len(names) == 0 {
		return CommunityResult{Communities: []Community{}, Labels: map[string]string{}, Converged: true}
	}

	adj := buildAdjacency(names, relations)

	labels := make(map[string]string, len(names))
	for _, name := range names {
		labels[name] = name
	}

	iterations := 0
	converged := false
	for iterations < maxIterations {
		next := make(map[string]string, len(names))
		changed := false
		for _, name := range names {
			label := dominantLabel(labels[name], adj[name], labels)
			next[name] = label
			if label != labels[name] {
				changed = true
			}
		}
		labels = next
		iterations++
		if !changed {
			converged = true
			break
		}
	}

	return CommunityResult{
		Communities: groupByLabel(names, labels),
		Labels:      labels,
		Count:       countLabels(labels),
		Iterations:  iterations,
		Converged:   converged,
	}
}

// buildAdjacency constructs a bidirectional adjacency list between known
// entities. Neighbor lists are distinct, in first-seen relation order, and
// exclude self-loops and dangling endpoints.
func buildAdjacency(names []string, relations []Relation) map[string][]string {
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	adj := make(map[string][]string, len(names))
	seen := make(map[string]map[string]bool, len(names))
	link := func(a, b string) {
		if seen[a] == nil {
			seen[a] = make(map[string]bool)
		}
		if seen[a][b] {
			return
		}
		seen[a][b] = true
		adj[a] = append(adj[a], b)
	}
	for _, r := range relations {
		if r.From == r.To || !known[r.From] || !known[r.To] {
			continue
		}
		link(r.From, r.To)
		link(r.To, r.From)
	}
	return adj
}

// dominantLabel picks the label a node adopts this pass. Isolated nodes keep
// their current label.
func dominantLabel(current string, neighbors []string, labels map[string]string) string {
	if len(neighbors) == 0 {
		return current
	}
	counts := make(map[string]int, len(neighbors))
	var order []string
	for _, nb := range neighbors {
		l := labels[nb]
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}
	best := order[0]
	for _, l := range order[1:] {
		if counts[l] > counts[best] {
			best = l
		}
	}
	if counts[current] == counts[best] {
		return current
	}
	return best
}

// groupByLabel returns communities ordered by their first member's position,
// members in entity order.
func groupByLabel(names []string, labels map[string]string) []Community {
	index := make(map[string]int)
	var communities []Community
	for _, name := range names {
		l := labels[name]
		i, ok := index[l]
		if !ok {
			i = len(communities)
			index[l] = i
			communities = append(communities, Community{Label: l})
		}
		communities[i].Members = append(communities[i].Members, name)
	}
	return communities
}

func countLabels(labels map[string]string) int {
	distinct := make(map[string]bool, len(labels))
	for _, l := range labels {
		distinct[l] = true
	}
	return len(distinct)
}
