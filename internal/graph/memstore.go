package graph

import (
	"context"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go slices and a name index.
// Thread-safe via sync.RWMutex.
type MemStore struct {
	mu        sync.RWMutex
	entities  []Entity
	byName    map[string]int // name -> position in entities
	relations []Relation
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		byName: make(map[string]int),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddEntity stores an entity. Re-adding a name replaces the earlier entity in
// place, keeping its original position.
func (m *MemStore) AddEntity(_ context.Context, entity Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entity.Observations = cloneStrings(entity.Observations)
	if i, ok := m.byName[entity.Name]; ok {
		m.entities[i] = entity
		return nil
	}
	m.byName[entity.Name] = len(m.entities)
	m.entities = append(m.entities, entity)
	return nil
}

// AddRelation appends a relation. Duplicates and dangling endpoints are kept.
func (m *MemStore) AddRelation(_ context.Context, rel Relation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relations = append(m.relations, rel)
	return nil
}

// ReadGraph returns a deep copy of the stored graph.
func (m *MemStore) ReadGraph(_ context.Context) (*KnowledgeGraph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	kg := &KnowledgeGraph{
		Entities:  make([]Entity, len(m.entities)),
		Relations: make([]Relation, len(m.relations)),
	}
	for i, e := range m.entities {
		e.Observations = cloneStrings(e.Observations)
		kg.Entities[i] = e
	}
	copy(kg.Relations, m.relations)
	return kg, nil
}

// Stats returns entity and relation counts.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &GraphStats{
		EntityCount:   len(m.entities),
		RelationCount: len(m.relations),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
