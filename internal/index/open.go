package index

import (
	"context"
	"errors"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OpenConfig describes the indexes to build.
type OpenConfig struct {
	// LocalDir is the authored vault directory.
	LocalDir string

	// Watch marks the local index stale on external edits.
	Watch bool

	// ExternalDir is an optional read-only vault directory.
	ExternalDir string

	// External is an optional reader for the reference corpus, such as a
	// KuzuDB store. It takes precedence over ExternalDir and is owned by
	// the returned index.
	External graph.Reader

	Logger *zap.Logger
}

// Open builds the local and external indexes in parallel. If either fails,
// anything already built is closed and the first error is returned.
func Open(ctx context.Context, cfg OpenConfig) (*Unified, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		local    *LocalIndex
		external *ExternalIndex
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var opts []LocalOption
		if cfg.Watch {
			opts = append(opts, WithWatch(logger))
		}
		var err error
		local, err = NewLocalIndex(gctx, cfg.LocalDir, opts...)
		return err
	})

	switch {
	case cfg.External != nil:
		g.Go(func() error {
			var err error
			external, err = NewExternalIndexFromReader(gctx, cfg.External)
			return err
		})
	case cfg.ExternalDir != "":
		g.Go(func() error {
			var err error
			external, err = NewExternalIndex(gctx, cfg.ExternalDir)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		var closeErrs []error
		if local != nil {
			closeErrs = append(closeErrs, local.Close())
		}
		if external != nil {
			closeErrs = append(closeErrs, external.Close())
		}
		return nil, errors.Join(append([]error{err}, closeErrs...)...)
	}

	u := NewUnified(local, external)
	entities, relations := local.Snapshot()
	logger.Info("index opened",
		zap.String("local", cfg.LocalDir),
		zap.Int("local_entities", len(entities)),
		zap.Int("local_relations", len(relations)),
		zap.Bool("external", external != nil),
		zap.Bool("watch", cfg.Watch),
	)
	return u, nil
}
