// Package watch re-resolves the binding map when any input document changes
// on disk.
package watch

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/borderux/recursica-forge-sub006/pkg/document"
	"github.com/borderux/recursica-forge-sub006/pkg/host"
	"github.com/borderux/recursica-forge-sub006/pkg/util"
)

// Options configures a DocumentWatcher.
type Options struct {
	// DebounceMs groups rapid changes into one reload. Default: 200.
	DebounceMs int

	// IgnorePatterns are doublestar globs matched against the slash form of
	// the event path; matching events are dropped.
	IgnorePatterns []string
}

// DefaultOptions returns the default watch options.
func DefaultOptions() Options {
	return Options{DebounceMs: 200}
}

// DocumentWatcher watches the three input documents and recomputes the host's
// binding map when any of them changes.
//
// **Features:**
//   - Debouncing - editors often write a file several times per save; all
//     events inside the window produce one reload
//   - Directory watches - atomic saves replace the file, so the parent
//     directories are watched and events are matched by path
//   - Failed reloads keep the previous map installed
//
// **Usage:**
//
//	w, err := watch.New(paths, cache, h, watch.DefaultOptions(), logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(); err != nil {
//	    return err
//	}
//	defer w.Stop()
type DocumentWatcher struct {
	watcher *fsnotify.Watcher
	cache   util.FileCache
	host    *host.Host
	paths   document.Paths
	docs    map[string]bool
	logger  *slog.Logger
	options Options

	// Debouncing
	timer      *time.Timer
	debounceMu sync.Mutex

	reloads  atomic.Int64
	failures atomic.Int64

	// Lifecycle
	stopChan chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// New creates a watcher for paths. Reads go through cache so that unchanged
// documents are served from memory.
func New(paths document.Paths, cache util.FileCache, h *host.Host, options Options, logger *slog.Logger) (*DocumentWatcher, error) {
	if err := paths.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = util.Discard()
	}
	for _, p := range options.IgnorePatterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if options.DebounceMs <= 0 {
		options.DebounceMs = DefaultOptions().DebounceMs
	}

	// Reads and invalidations share the absolute path as the cache key.
	paths = document.Paths{Tokens: clean(paths.Tokens), Theme: clean(paths.Theme), Spec: clean(paths.Spec)}
	docs := make(map[string]bool, 3)
	for _, p := range paths.All() {
		docs[p] = true
	}

	return &DocumentWatcher{
		watcher:  watcher,
		cache:    cache,
		host:     h,
		paths:    paths,
		docs:     docs,
		logger:   logger,
		options:  options,
		stopChan: make(chan struct{}),
	}, nil
}

// Start loads the documents once, watches their directories, and begins
// processing events in the background. The initial load must succeed.
func (dw *DocumentWatcher) Start() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.stopped {
		return fmt.Errorf("watcher already stopped")
	}
	if dw.started {
		return fmt.Errorf("watcher already started")
	}

	if _, err := dw.Reload(); err != nil {
		return err
	}

	dirs := make(map[string]bool)
	for doc := range dw.docs {
		dir := filepath.Dir(doc)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := dw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	dw.started = true
	dw.logger.Info("Document watcher started", "directories", len(dirs), "debounce_ms", dw.options.DebounceMs)

	go dw.eventLoop()
	return nil
}

// Stop stops the watcher.
//
// **Thread Safety:** Safe to call multiple times (idempotent).
func (dw *DocumentWatcher) Stop() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.stopped {
		return nil
	}
	dw.stopped = true
	close(dw.stopChan)

	dw.debounceMu.Lock()
	if dw.timer != nil {
		dw.timer.Stop()
		dw.timer = nil
	}
	dw.debounceMu.Unlock()

	err := dw.watcher.Close()
	dw.logger.Info("Document watcher stopped")
	return err
}

// Reload reads the documents and recomputes the binding map.
func (dw *DocumentWatcher) Reload() (host.Update, error) {
	set, err := document.LoadSet(dw.cache, dw.paths)
	if err != nil {
		dw.failures.Add(1)
		return host.Update{}, fmt.Errorf("failed to load documents: %w", err)
	}
	dw.reloads.Add(1)
	return dw.host.Recompute(set), nil
}

// eventLoop is the main event processing loop.
func (dw *DocumentWatcher) eventLoop() {
	for {
		select {
		case <-dw.stopChan:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			dw.handleEvent(event)

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.logger.Error("File watcher error", "error", err)
		}
	}
}

// handleEvent processes a file system event.
func (dw *DocumentWatcher) handleEvent(event fsnotify.Event) {
	path := clean(event.Name)
	if !dw.docs[path] || dw.shouldIgnore(path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	dw.logger.Debug("Document event", "op", event.Op.String(), "file", path)
	dw.cache.Invalidate(path)
	dw.debounceReload()
}

// debounceReload schedules a reload after the debounce delay. Later events
// inside the window push the reload back.
func (dw *DocumentWatcher) debounceReload() {
	dw.debounceMu.Lock()
	defer dw.debounceMu.Unlock()

	if dw.timer != nil {
		dw.timer.Stop()
	}
	dw.timer = time.AfterFunc(time.Duration(dw.options.DebounceMs)*time.Millisecond, func() {
		dw.debounceMu.Lock()
		dw.timer = nil
		dw.debounceMu.Unlock()

		select {
		case <-dw.stopChan:
			return
		default:
		}

		update, err := dw.Reload()
		if err != nil {
			dw.logger.Warn("Reload failed, keeping previous bindings", "error", err)
			return
		}
		dw.logger.Debug("Documents reloaded",
			"cached", update.Cached,
			"added", len(update.Diff.Added),
			"changed", len(update.Diff.Changed),
			"removed", len(update.Diff.Removed))
	})
}

// shouldIgnore checks a path against the ignore patterns.
func (dw *DocumentWatcher) shouldIgnore(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range dw.options.IgnorePatterns {
		if matched, _ := doublestar.Match(pattern, slashed); matched {
			return true
		}
	}
	return false
}

func clean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// GetStats returns watcher statistics.
func (dw *DocumentWatcher) GetStats() Stats {
	dw.debounceMu.Lock()
	pending := dw.timer != nil
	dw.debounceMu.Unlock()

	dw.mu.Lock()
	running := dw.started && !dw.stopped
	dw.mu.Unlock()

	return Stats{
		PendingReload: pending,
		Reloads:       dw.reloads.Load(),
		Failures:      dw.failures.Load(),
		IsRunning:     running,
	}
}

// Stats contains watcher statistics.
type Stats struct {
	PendingReload bool
	Reloads       int64
	Failures      int64
	IsRunning     bool
}
