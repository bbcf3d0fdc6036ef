package graph

import (
	"context"
	"fmt"
	"io"
)

// Reader is the storage side the analytics engine is fed from. Every call
// returns a fresh, complete snapshot; callers never receive diffs.
// Implementations: vault.Vault (Markdown files), MemStore, KuzuStore.
type Reader interface {
	ReadGraph(ctx context.Context) (*KnowledgeGraph, error)
}

// Store is a writable graph backend.
// Implementations: KuzuStore (persistent), MemStore (testing, staging).
type Store interface {
	io.Closer
	Reader

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddEntity(ctx context.Context, entity Entity) error
	AddRelation(ctx context.Context, rel Relation) error

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Copy reads a full snapshot from src and writes it into dst, entities first
// so that backends enforcing endpoints can match relations.
func Copy(ctx context.Context, dst Store, src Reader) (*GraphStats, error) {
	kg, err := src.ReadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("read source graph: %w", err)
	}
	if err := dst.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	for _, e := range kg.Entities {
		if err := dst.AddEntity(ctx, e); err != nil {
			return nil, fmt.Errorf("add entity %q: %w", e.Name, err)
		}
	}
	for _, r := range kg.Relations {
		if err := dst.AddRelation(ctx, r); err != nil {
			return nil, fmt.Errorf("add relation %s->%s: %w", r.From, r.To, err)
		}
	}
	return dst.Stats(ctx)
}
