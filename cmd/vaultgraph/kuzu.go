//go:build cgo

package main

import (
	"context"
	"fmt"

	"github.com/dusk-indust/vaultgraph/internal/graph"
)

// openExternalDB opens a KuzuDB reference corpus built by "vaultgraph import".
func openExternalDB(ctx context.Context, path string) (graph.Reader, error) {
	store, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("open external database: %w", err)
	}
	if err := store.InitSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("open external database: %w", err)
	}
	return store, nil
}

// openImportStore opens or creates the KuzuDB database import writes into.
func openImportStore(path string) (graph.Store, error) {
	store, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return store, nil
}
