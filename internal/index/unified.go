package index

import (
	"context"
	"errors"

	"github.com/dusk-indust/vaultgraph/internal/graph"
)

// Unified merges the local index with an optional external index. Local
// entries shadow external entries with the same name.
type Unified struct {
	local    *LocalIndex
	external *ExternalIndex
}

var (
	_ Provider     = (*Unified)(nil)
	_ graph.Reader = (*Unified)(nil)
)

// NewUnified combines local and external. A nil external runs in local-only
// mode, which behaves exactly like an empty external index.
func NewUnified(local *LocalIndex, external *ExternalIndex) *Unified {
	return &Unified{local: local, external: external}
}

// Local returns the writable index.
func (u *Unified) Local() *LocalIndex {
	return u.local
}

// HasExternal reports whether an external index is attached.
func (u *Unified) HasExternal() bool {
	return u.external != nil
}

// Lookup consults the external index only when the local index misses.
func (u *Unified) Lookup(name string) (*graph.Entity, bool) {
	if e, ok := u.local.Lookup(name); ok {
		return e, true
	}
	if u.external == nil {
		return nil, false
	}
	return u.external.Lookup(name)
}

// Search returns local matches first, then external matches whose names
// were not already matched locally.
func (u *Unified) Search(text string) []graph.Entity {
	results := u.local.Search(text)
	if u.external == nil {
		return results
	}
	seen := make(map[string]bool, len(results))
	for _, e := range results {
		seen[e.Name] = true
	}
	for _, e := range u.external.Search(text) {
		if !seen[e.Name] {
			results = append(results, e)
		}
	}
	return results
}

// RelationsOf concatenates local and external relations, local first.
func (u *Unified) RelationsOf(name string) []graph.Relation {
	rels := u.local.RelationsOf(name)
	if u.external == nil {
		return rels
	}
	return append(rels, u.external.RelationsOf(name)...)
}

// ReadGraph assembles the merged snapshot the analytics run on: local
// entities, then external entities not shadowed by a local one, and every
// relation from both sides.
func (u *Unified) ReadGraph(_ context.Context) (*graph.KnowledgeGraph, error) {
	entities, relations := u.local.Snapshot()
	if u.external != nil {
		seen := make(map[string]bool, len(entities))
		for _, e := range entities {
			seen[e.Name] = true
		}
		extEntities, extRelations := u.external.Snapshot()
		for _, e := range extEntities {
			if !seen[e.Name] {
				entities = append(entities, e)
			}
		}
		relations = append(relations, extRelations...)
	}
	return &graph.KnowledgeGraph{Entities: entities, Relations: relations}, nil
}

// Close closes both indexes and joins their errors. It is safe to call
// more than once.
func (u *Unified) Close() error {
	var errs []error
	if err := u.local.Close(); err != nil {
		errs = append(errs, err)
	}
	if u.external != nil {
		if err := u.external.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
