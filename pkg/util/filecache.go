// Package util holds the document cache and logger setup shared by the
// forge commands.
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// FileCache hands out the bytes of the token, theme and component-specification
// documents. A document is memory-mapped on first read and mapped again when
// its size or modification time changes on disk, so a stale mapping is never
// served even if nobody called Invalidate.
//
// Safe for concurrent use.
type FileCache interface {
	// Read returns a private copy of the document at path. The copy stays
	// valid after Invalidate or Close.
	Read(path string) ([]byte, error)

	// Invalidate releases the document at path. Unknown paths are ignored.
	Invalidate(path string)

	// Size returns the number of documents held.
	Size() int

	Stats() FileCacheStats

	// Close releases every document.
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles caps the documents held at once. When the cache is full the
	// least recently read document is released. 0 means unlimited.
	MaxFiles int

	// EnableMetrics turns on the counters reported by Stats.
	EnableMetrics bool

	// Logger for mapping failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns defaults for one project's documents.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{MaxFiles: 16, EnableMetrics: true}
}

// FileCacheStats is a snapshot of cache activity.
type FileCacheStats struct {
	Documents     int   // documents currently held
	MappedBytes   int64 // bytes held through mmap, fallback copies excluded
	Loads         int64
	Hits          int64
	Misses        int64
	Refreshes     int64 // reloads after the file changed on disk
	Evictions     int64 // releases forced by MaxFiles
	Invalidations int64
	Fallbacks     int64 // loads that used os.ReadFile because mmap failed
}

// heldDoc is one loaded document. bytes aliases region when the file is
// mapped and is a heap copy otherwise.
type heldDoc struct {
	bytes   []byte
	region  mmap.MMap
	file    *os.File
	size    int64
	modTime time.Time
}

func (d *heldDoc) matches(info os.FileInfo) bool {
	return info.Size() == d.size && info.ModTime().Equal(d.modTime)
}

// release unmaps the document. Safe to call more than once.
func (d *heldDoc) release() error {
	var errs []error
	if d.region != nil {
		errs = append(errs, d.region.Unmap())
		d.region = nil
	}
	if d.file != nil {
		errs = append(errs, d.file.Close())
		d.file = nil
	}
	d.bytes = nil
	return errors.Join(errs...)
}

type docCache struct {
	logger  *slog.Logger
	metrics bool

	mu   sync.Mutex
	docs *simplelru.LRU[string, *heldDoc]

	loads, hits, misses, refreshes atomic.Int64
	evictions, invalidations       atomic.Int64
	fallbacks                      atomic.Int64
}

// NewFileCache creates a FileCache. A nil config uses DefaultFileCacheConfig.
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	c := &docCache{logger: config.Logger, metrics: config.EnableMetrics}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	capacity := config.MaxFiles
	if capacity <= 0 {
		capacity = math.MaxInt32
	}
	// only fails for a non-positive size
	c.docs, _ = simplelru.NewLRU[string, *heldDoc](capacity, c.dropped)
	return c
}

// dropped runs under mu whenever the LRU lets go of a document.
func (c *docCache) dropped(path string, d *heldDoc) {
	if err := d.release(); err != nil {
		c.logger.Warn("failed to release document", "path", path, "error", err)
	}
}

func (c *docCache) Read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		c.count(&c.misses)
		return nil, fmt.Errorf("failed to stat document %q: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.docs.Get(path); ok {
		if d.matches(info) {
			c.count(&c.hits)
			return clone(d.bytes), nil
		}
		c.logger.Debug("document changed on disk, loading again", "path", path)
		c.docs.Remove(path)
		c.count(&c.refreshes)
	} else {
		c.count(&c.misses)
	}

	d, err := c.load(path)
	if err != nil {
		return nil, err
	}
	if evicted := c.docs.Add(path, d); evicted {
		c.count(&c.evictions)
	}
	c.count(&c.loads)
	return clone(d.bytes), nil
}

// load maps path, reading it into memory when mmap is unavailable.
func (c *docCache) load(path string) (*heldDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat document %q: %w", path, err)
	}

	d := &heldDoc{size: info.Size(), modTime: info.ModTime()}
	if d.size == 0 {
		// empty files cannot be mapped
		f.Close()
		d.bytes = []byte{}
		return d, nil
	}

	region, mapErr := mmap.Map(f, mmap.RDONLY, 0)
	if mapErr == nil {
		d.region, d.file, d.bytes = region, f, region
		return d, nil
	}
	f.Close()

	c.logger.Warn("mmap failed, reading document into memory", "path", path, "size", d.size, "error", mapErr)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", path, errors.Join(mapErr, err))
	}
	c.count(&c.fallbacks)
	d.bytes = raw
	return d, nil
}

func (c *docCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.docs.Remove(path) {
		c.count(&c.invalidations)
	}
}

func (c *docCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docs.Len()
}

func (c *docCache) Stats() FileCacheStats {
	c.mu.Lock()
	held := c.docs.Len()
	var mapped int64
	for _, d := range c.docs.Values() {
		if d.region != nil {
			mapped += d.size
		}
	}
	c.mu.Unlock()

	return FileCacheStats{
		Documents:     held,
		MappedBytes:   mapped,
		Loads:         c.loads.Load(),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Refreshes:     c.refreshes.Load(),
		Evictions:     c.evictions.Load(),
		Invalidations: c.invalidations.Load(),
		Fallbacks:     c.fallbacks.Load(),
	}
}

func (c *docCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, path := range c.docs.Keys() {
		d, _ := c.docs.Peek(path)
		if err := d.release(); err != nil {
			errs = append(errs, fmt.Errorf("release %q: %w", path, err))
		}
	}
	// documents are already released; Purge only forgets them
	c.docs.Purge()

	c.logger.Debug("FileCache closed",
		"loads", c.loads.Load(),
		"hits", c.hits.Load(),
		"refreshes", c.refreshes.Load(),
		"fallbacks", c.fallbacks.Load())
	return errors.Join(errs...)
}

func (c *docCache) count(n *atomic.Int64) {
	if c.metrics {
		n.Add(1)
	}
}

func clone(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	return out
}
