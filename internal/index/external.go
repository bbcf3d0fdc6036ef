package index

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/dusk-indust/vaultgraph/internal/vault"
)

// ExternalIndex is a read-only index over a reference corpus.
type ExternalIndex struct {
	tbl *table

	closer    io.Closer
	closeOnce sync.Once
	closeErr  error
}

var _ Provider = (*ExternalIndex)(nil)

// NewExternalIndex scans a vault directory. A missing directory yields an
// empty index; any other read failure is returned.
func NewExternalIndex(ctx context.Context, dir string) (*ExternalIndex, error) {
	return NewExternalIndexFromReader(ctx, vault.New(dir))
}

// NewExternalIndexFromReader indexes one snapshot of r. When r is an
// io.Closer the index takes ownership and closes it on Close, including
// when construction fails.
func NewExternalIndexFromReader(ctx context.Context, r graph.Reader) (*ExternalIndex, error) {
	closer, _ := r.(io.Closer)
	kg, err := r.ReadGraph(ctx)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, fmt.Errorf("external index: %w", err)
	}
	return &ExternalIndex{tbl: tableFromGraph(kg), closer: closer}, nil
}

func (x *ExternalIndex) Lookup(name string) (*graph.Entity, bool) {
	return x.tbl.lookup(name)
}

func (x *ExternalIndex) RelationsOf(name string) []graph.Relation {
	return x.tbl.relationsOf(name)
}

func (x *ExternalIndex) Search(text string) []graph.Entity {
	return x.tbl.search(text)
}

// Snapshot returns every entity and relation in the index.
func (x *ExternalIndex) Snapshot() ([]graph.Entity, []graph.Relation) {
	return x.tbl.snapshot()
}

// Close releases the underlying reader once.
func (x *ExternalIndex) Close() error {
	x.closeOnce.Do(func() {
		if x.closer != nil {
			x.closeErr = x.closer.Close()
		}
	})
	return x.closeErr
}
