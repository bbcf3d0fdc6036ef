package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dusk-indust/vaultgraph/internal/graph"
	"github.com/dusk-indust/vaultgraph/internal/vault"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// LocalIndex is the read-write index over the user's own vault directory.
//
// It scans the directory once at construction. With WithWatch, file changes
// made outside the index mark it stale; the index never rescans on its own
// and Refresh must be called to pick the changes up.
type LocalIndex struct {
	vault *vault.Vault

	mu    sync.RWMutex
	tbl   *table
	paths map[string]string // entity name -> file

	stale   atomic.Bool
	watcher *fsnotify.Watcher
	logger  *zap.Logger
	wg      sync.WaitGroup

	// own counts pending watcher events caused by Put and Delete.
	ownMu sync.Mutex
	own   map[string]int

	closeOnce sync.Once
	closeErr  error
}

var _ Provider = (*LocalIndex)(nil)

type localOptions struct {
	watch  bool
	logger *zap.Logger
}

// LocalOption configures a LocalIndex.
type LocalOption func(*localOptions)

// WithWatch watches the vault directory for external edits. Watcher errors
// are logged to logger.
func WithWatch(logger *zap.Logger) LocalOption {
	return func(o *localOptions) {
		o.watch = true
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewLocalIndex scans dir and returns a ready index. A missing directory
// yields an empty index; any other read failure is returned.
func NewLocalIndex(ctx context.Context, dir string, opts ...LocalOption) (*LocalIndex, error) {
	o := localOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	l := &LocalIndex{
		vault:  vault.New(dir),
		logger: o.logger,
		own:    make(map[string]int),
	}
	tbl, paths, err := l.scan(ctx)
	if err != nil {
		return nil, err
	}
	l.tbl, l.paths = tbl, paths
	if o.watch {
		if err := l.startWatch(dir); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// scan reads the vault into a fresh table.
func (l *LocalIndex) scan(ctx context.Context) (*table, map[string]string, error) {
	records, err := l.vault.Scan(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("local index: %w", err)
	}
	tbl := newTable()
	paths := make(map[string]string, len(records))
	for _, rec := range records {
		tbl.putEntity(rec.Entity)
		for _, r := range rec.Relations {
			tbl.addRelation(r)
		}
		paths[rec.Entity.Name] = rec.Path
	}
	return tbl, paths, nil
}

func (l *LocalIndex) startWatch(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("local index: create vault dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("local index: create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("local index: watch %s: %w", dir, err)
	}
	l.watcher = w

	l.wg.Add(1)
	go l.watch()
	return nil
}

func (l *LocalIndex) watch() {
	defer l.wg.Done()
	for {
		select {
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if !vault.IsEntityFile(ev.Name) || !ev.Has(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) {
				continue
			}
			if l.consumeOwn(ev.Name) {
				continue
			}
			if !l.stale.Swap(true) {
				l.logger.Info("vault changed on disk; index is stale",
					zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("vault watcher error", zap.Error(err))
		}
	}
}

func (l *LocalIndex) expectOwn(paths ...string) {
	if l.watcher == nil {
		return
	}
	l.ownMu.Lock()
	defer l.ownMu.Unlock()
	for _, p := range paths {
		l.own[filepath.Clean(p)]++
	}
}

func (l *LocalIndex) forgetOwn(paths ...string) {
	for _, p := range paths {
		l.consumeOwn(p)
	}
}

func (l *LocalIndex) consumeOwn(path string) bool {
	l.ownMu.Lock()
	defer l.ownMu.Unlock()
	p := filepath.Clean(path)
	if l.own[p] == 0 {
		return false
	}
	l.own[p]--
	if l.own[p] == 0 {
		delete(l.own, p)
	}
	return true
}

// Dir returns the vault directory.
func (l *LocalIndex) Dir() string {
	return l.vault.Dir()
}

// Stale reports whether the vault changed on disk since the last scan.
func (l *LocalIndex) Stale() bool {
	return l.stale.Load()
}

// Refresh rescans the vault and clears the stale flag. Writers and readers
// wait for the scan. On failure the previous contents are kept and the index
// stays stale.
func (l *LocalIndex) Refresh(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	wasStale := l.stale.Swap(false)
	tbl, paths, err := l.scan(ctx)
	if err != nil {
		if wasStale {
			l.stale.Store(true)
		}
		return err
	}
	l.tbl, l.paths = tbl, paths
	l.ownMu.Lock()
	clear(l.own)
	l.ownMu.Unlock()
	return nil
}

// Put writes the entity file and replaces the entity and its outgoing
// relations in the index. Relations are re-rooted at the entity. Put fails
// with ErrNameConflict when the entity's file name, ignoring case, is
// already used by another entity.
func (l *LocalIndex) Put(ctx context.Context, entity graph.Entity, relations []graph.Relation) error {
	rels := make([]graph.Relation, len(relations))
	for i, r := range relations {
		r.From = entity.Name
		rels[i] = r
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	old := l.paths[entity.Name]
	target := filepath.Join(l.vault.Dir(), vault.FileName(entity.Name))
	if owner := l.fileOwner(target); owner != "" && owner != entity.Name {
		return fmt.Errorf("local index: put %q: %w: %q", entity.Name, ErrNameConflict, owner)
	}
	touched := []string{target}
	if old != "" && filepath.Clean(old) != filepath.Clean(touched[0]) {
		touched = append(touched, old)
	}
	l.expectOwn(touched...)

	path, err := l.vault.Write(ctx, vault.Record{Entity: entity, Relations: rels, Path: old})
	if err != nil {
		l.forgetOwn(touched...)
		return fmt.Errorf("local index: put %q: %w", entity.Name, err)
	}
	l.tbl.putEntity(cloneEntity(entity))
	l.tbl.setRelations(entity.Name, rels)
	l.paths[entity.Name] = path
	return nil
}

// fileOwner returns the entity whose file is path, or "". Callers hold mu.
func (l *LocalIndex) fileOwner(path string) string {
	path = filepath.Clean(path)
	for name, p := range l.paths {
		if strings.EqualFold(filepath.Clean(p), path) {
			return name
		}
	}
	return ""
}

// Delete removes the entity file and the entity's entries.
func (l *LocalIndex) Delete(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path, ok := l.paths[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	l.expectOwn(path)
	if err := l.vault.Remove(path); err != nil {
		l.forgetOwn(path)
		return fmt.Errorf("local index: delete %q: %w", name, err)
	}
	l.tbl.removeEntity(name)
	delete(l.paths, name)
	return nil
}

func (l *LocalIndex) Lookup(name string) (*graph.Entity, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tbl.lookup(name)
}

func (l *LocalIndex) RelationsOf(name string) []graph.Relation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tbl.relationsOf(name)
}

func (l *LocalIndex) Search(text string) []graph.Entity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tbl.search(text)
}

// Snapshot returns every entity and relation in the index.
func (l *LocalIndex) Snapshot() ([]graph.Entity, []graph.Relation) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tbl.snapshot()
}

// Close stops the watcher. The in-memory contents stay readable.
func (l *LocalIndex) Close() error {
	l.closeOnce.Do(func() {
		if l.watcher != nil {
			l.closeErr = l.watcher.Close()
			l.wg.Wait()
		}
	})
	return l.closeErr
}
