package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/vaultgraph/internal/graph"
)

// maxLabel bounds node and edge label length in diagrams.
const maxLabel = 40

// GenerateMermaid produces a Mermaid graph TD diagram of a knowledge graph.
// Entities are grouped by community when communities is non-nil; relations
// become labeled arrows. Dangling relation targets are drawn as bare nodes
// outside every subgraph.
func GenerateMermaid(kg *graph.KnowledgeGraph, communities *graph.CommunityResult) string {
	// Build entity → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[string]bool)
	declare := func(indent, name string) {
		declared[name] = true
		sb.WriteString(fmt.Sprintf("%s%s[\"%s\"]\n", indent, getID("e:"+name), label(name)))
	}

	if kg == nil {
		return sb.String()
	}

	// Emit community subgraphs. Singletons stay top-level to keep the
	// diagram readable.
	if communities != nil {
		for _, c := range communities.Communities {
			if len(c.Members) < 2 {
				continue
			}
			sb.WriteString(fmt.Sprintf("  subgraph %s[\"%s\"]\n", getID("c:"+c.Label), label(c.Label)))
			for _, member := range c.Members {
				declare("    ", member)
			}
			sb.WriteString("  end\n")
		}
	}
	for _, e := range kg.Entities {
		if !declared[e.Name] {
			declare("  ", e.Name)
		}
	}

	for _, r := range kg.Relations {
		if !declared[r.To] {
			declare("  ", r.To)
		}
		if !declared[r.From] {
			declare("  ", r.From)
		}
		text := r.RelationType
		if r.Qualification != "" {
			text += " (" + r.Qualification + ")"
		}
		if text == "" {
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", getID("e:"+r.From), getID("e:"+r.To)))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s -->|\"%s\"| %s\n", getID("e:"+r.From), label(text), getID("e:"+r.To)))
	}

	return sb.String()
}

// label escapes quotes and truncates long text for Mermaid.
func label(s string) string {
	if r := []rune(s); len(r) > maxLabel {
		s = string(r[:maxLabel-1]) + "…"
	}
	return strings.ReplaceAll(s, `"`, "#quot;")
}
