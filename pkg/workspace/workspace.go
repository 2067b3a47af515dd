// Package workspace manages a set of open grammar documents: opening,
// edit reparsing, reloads from disk, file watching, metrics, and symbol
// persistence.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"vislcg/cg3kit/pkg/cg/document"
	"vislcg/cg3kit/pkg/config"
	"vislcg/cg3kit/pkg/store"
	"vislcg/cg3kit/pkg/telemetry/metrics"
)

// Workspace holds the open documents and the shared infrastructure around
// them. All methods are safe for concurrent use.
type Workspace struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector
	store   *store.SQLiteStore

	mu   sync.RWMutex
	docs map[string]*document.Document
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) { w.logger = logger }
}

// WithMetrics attaches a metrics collector. Without one, nothing is
// recorded.
func WithMetrics(c *metrics.Collector) Option {
	return func(w *Workspace) { w.metrics = c }
}

// WithStore attaches a symbol store. Without one, nothing is persisted.
func WithStore(s *store.SQLiteStore) Option {
	return func(w *Workspace) { w.store = s }
}

// New creates an empty workspace.
func New(cfg *config.Config, opts ...Option) *Workspace {
	w := &Workspace{
		cfg:    cfg,
		logger: slog.Default(),
		docs:   make(map[string]*document.Document),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "workspace")
	return w
}

// Accepts reports whether the path has a grammar file extension.
func (w *Workspace) Accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.cfg.Watcher.Extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// Open reads and analyzes the grammar file at path, replacing any
// previously open document for it.
func (w *Workspace) Open(ctx context.Context, path string) (*document.Document, error) {
	if !w.Accepts(path) {
		return nil, fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat grammar file %q: %w", path, err)
	}
	if max := w.cfg.Engine.MaxFileSize; max > 0 && info.Size() > max {
		return nil, fmt.Errorf("grammar file %q is %d bytes, exceeds limit of %d", path, info.Size(), max)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar file %q: %w", path, err)
	}

	return w.OpenText(ctx, path, data)
}

// OpenText analyzes grammar source held in memory under the given name.
func (w *Workspace) OpenText(ctx context.Context, name string, text []byte) (*document.Document, error) {
	start := time.Now()
	doc, err := document.New(ctx, name, text)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	diags := doc.Diagnostics()
	w.recordAnalysis(doc, elapsed, true)

	w.mu.Lock()
	w.docs[name] = doc
	open := len(w.docs)
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.SetDocumentsOpen(open)
	}

	w.logger.Info("document opened",
		"file", name,
		"bytes", len(text),
		"symbols", doc.Index().Len(),
		"findings", diags.Count(),
		"duration", elapsed,
	)

	w.persist(ctx, doc)
	return doc, nil
}

// Update applies an edit to an open document, reparsing incrementally.
func (w *Workspace) Update(ctx context.Context, name string, e document.Edit) error {
	w.mu.RLock()
	doc, ok := w.docs[name]
	w.mu.RUnlock()
	if !ok {
		return fmt.Errorf("document %q is not open", name)
	}

	start := time.Now()
	if err := doc.Reparse(ctx, e); err != nil {
		return err
	}
	elapsed := time.Since(start)

	w.recordAnalysis(doc, elapsed, false)

	w.logger.Debug("document updated",
		"file", name,
		"offset", e.Offset,
		"removed", e.RemovedLen,
		"inserted", len(e.Inserted),
		"generation", doc.Generation(),
		"duration", elapsed,
	)

	w.persist(ctx, doc)
	return nil
}

// Reload re-reads an open document from disk and re-analyzes it in full.
// Files not yet open are opened.
func (w *Workspace) Reload(ctx context.Context, path string) error {
	_, err := w.Open(ctx, path)
	return err
}

// Close removes a document from the workspace. Persisted symbols are kept;
// the retention scheduler ages them out if the file never comes back.
func (w *Workspace) Close(name string) {
	w.mu.Lock()
	delete(w.docs, name)
	open := len(w.docs)
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.SetDocumentsOpen(open)
		w.metrics.SetIndexedSymbols(w.symbolTotal())
	}
	w.logger.Info("document closed", "file", name)
}

// Get returns the open document for name.
func (w *Workspace) Get(name string) (*document.Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[name]
	return doc, ok
}

// Names returns the names of all open documents, sorted.
func (w *Workspace) Names() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	names := make([]string, 0, len(w.docs))
	for name := range w.docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of open documents.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.docs)
}

// Watch watches root for grammar file changes and reloads changed
// documents. It blocks until the context is cancelled.
func (w *Workspace) Watch(ctx context.Context, root string) error {
	fw, err := NewFileWatcher(&w.cfg.Watcher, w.logger)
	if err != nil {
		return err
	}
	return fw.Watch(ctx, root, func(path string) error {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				w.Close(path)
				return nil
			}
			return err
		}
		return w.Reload(ctx, path)
	})
}

// recordAnalysis updates metrics after a parse or reparse.
func (w *Workspace) recordAnalysis(doc *document.Document, elapsed time.Duration, full bool) {
	if w.metrics == nil {
		return
	}

	diags := doc.Diagnostics()
	if full {
		w.metrics.RecordParse(elapsed, diags.HasErrors())
	} else {
		w.metrics.RecordReparse(elapsed, metrics.ModeIncremental)
	}

	byType := make(map[string]int)
	for _, d := range diags.Items {
		byType[string(d.Type)]++
	}
	w.metrics.RecordDiagnostics(byType)
	w.metrics.SetIndexedSymbols(w.symbolTotal())
}

// symbolTotal sums index sizes across open documents.
func (w *Workspace) symbolTotal() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	total := 0
	for _, doc := range w.docs {
		total += doc.Index().Len()
	}
	return total
}

// persist writes a document's symbols to the store, if one is attached.
func (w *Workspace) persist(ctx context.Context, doc *document.Document) {
	if w.store == nil {
		return
	}
	snapshot, err := w.store.Save(ctx, doc.File(), doc.Index())
	if err != nil {
		w.logger.Error("failed to persist symbols",
			"file", doc.File(),
			"error", err,
		)
		return
	}
	w.logger.Debug("symbols persisted",
		"file", doc.File(),
		"snapshot", snapshot,
		"count", doc.Index().Len(),
	)
}
