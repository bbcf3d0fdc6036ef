// Package index serves entity lookups, relation listings, and text search
// over a local authored vault and an optional external reference corpus.
package index

import (
	"errors"
	"slices"
	"strings"

	"github.com/dusk-indust/vaultgraph/internal/graph"
)

// ErrNotFound is returned when deleting an entity the local index does not hold.
var ErrNotFound = errors.New("index: entity not found")

// ErrNameConflict is returned when an entity would be written to a file that
// already holds a different entity. File names are compared case-insensitively.
var ErrNameConflict = errors.New("index: entity file belongs to another entity")

// Provider is the capability shared by every index.
type Provider interface {
	// Lookup returns the entity with the given name.
	Lookup(name string) (*graph.Entity, bool)

	// RelationsOf returns the relations whose From is name, in insertion
	// order. The result is never nil.
	RelationsOf(name string) []graph.Relation

	// Search returns entities whose name, type, or observations contain
	// text, ignoring case.
	Search(text string) []graph.Entity

	// Close releases resources. Calling it more than once is safe.
	Close() error
}

// table is the in-memory view an index answers from. It is not safe for
// concurrent use; owners guard it.
type table struct {
	order     []string
	entities  map[string]graph.Entity
	fromOrder []string
	outgoing  map[string][]graph.Relation
}

func newTable() *table {
	return &table{
		entities: make(map[string]graph.Entity),
		outgoing: make(map[string][]graph.Relation),
	}
}

// tableFromGraph indexes a snapshot. A repeated entity name replaces the
// earlier entity in place.
func tableFromGraph(kg *graph.KnowledgeGraph) *table {
	t := newTable()
	if kg == nil {
		return t
	}
	for _, e := range kg.Entities {
		t.putEntity(e)
	}
	for _, r := range kg.Relations {
		t.addRelation(r)
	}
	return t
}

func (t *table) putEntity(e graph.Entity) {
	if _, ok := t.entities[e.Name]; !ok {
		t.order = append(t.order, e.Name)
	}
	t.entities[e.Name] = e
}

func (t *table) addRelation(r graph.Relation) {
	if _, ok := t.outgoing[r.From]; !ok {
		t.fromOrder = append(t.fromOrder, r.From)
	}
	t.outgoing[r.From] = append(t.outgoing[r.From], r)
}

// setRelations replaces every relation leaving from.
func (t *table) setRelations(from string, rels []graph.Relation) {
	if len(rels) == 0 {
		t.dropRelations(from)
		return
	}
	if _, ok := t.outgoing[from]; !ok {
		t.fromOrder = append(t.fromOrder, from)
	}
	t.outgoing[from] = slices.Clone(rels)
}

func (t *table) dropRelations(from string) {
	if _, ok := t.outgoing[from]; !ok {
		return
	}
	delete(t.outgoing, from)
	t.fromOrder = slices.DeleteFunc(t.fromOrder, func(n string) bool { return n == from })
}

func (t *table) removeEntity(name string) bool {
	if _, ok := t.entities[name]; !ok {
		return false
	}
	delete(t.entities, name)
	t.order = slices.DeleteFunc(t.order, func(n string) bool { return n == name })
	t.dropRelations(name)
	return true
}

func (t *table) lookup(name string) (*graph.Entity, bool) {
	e, ok := t.entities[name]
	if !ok {
		return nil, false
	}
	e = cloneEntity(e)
	return &e, true
}

func (t *table) relationsOf(name string) []graph.Relation {
	rels := t.outgoing[name]
	out := make([]graph.Relation, len(rels))
	copy(out, rels)
	return out
}

func (t *table) search(text string) []graph.Entity {
	needle := strings.ToLower(text)
	out := []graph.Entity{}
	for _, name := range t.order {
		e := t.entities[name]
		if matches(e, needle) {
			out = append(out, cloneEntity(e))
		}
	}
	return out
}

// snapshot returns every entity in order and every relation grouped by
// source in first-seen order.
func (t *table) snapshot() ([]graph.Entity, []graph.Relation) {
	entities := make([]graph.Entity, 0, len(t.order))
	for _, name := range t.order {
		entities = append(entities, cloneEntity(t.entities[name]))
	}
	relations := []graph.Relation{}
	for _, from := range t.fromOrder {
		relations = append(relations, t.outgoing[from]...)
	}
	return entities, relations
}

// matches reports whether the lower-cased needle occurs in the entity's
// name, type, or observations joined by a single space.
func matches(e graph.Entity, needle string) bool {
	return strings.Contains(strings.ToLower(e.Name), needle) ||
		strings.Contains(strings.ToLower(e.EntityType), needle) ||
		strings.Contains(strings.ToLower(strings.Join(e.Observations, " ")), needle)
}

func cloneEntity(e graph.Entity) graph.Entity {
	if e.Observations != nil {
		e.Observations = slices.Clone(e.Observations)
	}
	return e
}
