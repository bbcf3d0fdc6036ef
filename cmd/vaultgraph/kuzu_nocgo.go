//go:build !cgo

package main

import (
	"context"
	"errors"

	"github.com/dusk-indust/vaultgraph/internal/graph"
)

var errNoKuzu = errors.New("KuzuDB support requires a build with CGO_ENABLED=1")

func openExternalDB(context.Context, string) (graph.Reader, error) {
	return nil, errNoKuzu
}

func openImportStore(string) (graph.Store, error) {
	return nil, errNoKuzu
}
