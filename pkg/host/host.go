// Package host keeps the current binding map of a running application and
// recomputes it whenever the input documents change.
package host

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/borderux/recursica-forge-sub006/pkg/bindings"
	"github.com/borderux/recursica-forge-sub006/pkg/document"
	"github.com/borderux/recursica-forge-sub006/pkg/resolver"
	"github.com/borderux/recursica-forge-sub006/pkg/util"
)

// Config configures a Host.
type Config struct {
	// MaxCachedSets is the number of resolved document sets kept in the LRU
	// cache, keyed by document digest and options. Default: 32.
	MaxCachedSets int

	// Options are passed to every resolution run.
	Options resolver.Options

	// Debug enables verbose logging.
	Debug bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{MaxCachedSets: 32}
}

// Update is delivered to subscribers after a recompute changed the map.
type Update struct {
	Result   resolver.Result
	Previous bindings.Map
	Diff     bindings.Diff
	Digest   string
	Cached   bool
}

// Subscriber receives updates. It runs on the goroutine that called
// Recompute and must not call back into Recompute.
type Subscriber func(Update)

// Stats contains host statistics.
type Stats struct {
	Recomputes    int64
	CacheHits     int64
	CacheMisses   int64
	Evictions     int64
	Notifications int64
	AvgResolveMs  float64
	Bindings      int
	Subscribers   int
}

// Host owns the current binding map.
//
// **Architecture:**
//   - The resolver is a pure function; Host adds the state around it
//   - LRU cache of results keyed by document digest, so re-invoking on
//     unchanged input skips resolution
//   - Subscribers are notified with the diff against the previous map
//
// **Thread Safety:**
//   - Recompute calls are serialized
//   - Current and Stats are safe for concurrent use
//
// **Usage:**
//
//	h := host.New(host.DefaultConfig(), logger)
//	cancel := h.Subscribe(func(u host.Update) { fmt.Println(u.Diff.Names()) })
//	defer cancel()
//	h.Recompute(set)
type Host struct {
	cache *lru.Cache[string, resolver.Result]

	current resolver.Result
	digest  string
	mu      sync.RWMutex

	// recomputeMu serializes Recompute so diffs are taken against the map
	// the previous call installed.
	recomputeMu sync.Mutex

	subscribers map[int]Subscriber
	nextID      int
	subMu       sync.Mutex

	recomputes    atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	evictions     atomic.Int64
	notifications atomic.Int64
	resolveMicros atomic.Int64

	config Config
	logger *slog.Logger
}

// New creates a Host with an empty binding map.
func New(config Config, logger *slog.Logger) *Host {
	if config.MaxCachedSets <= 0 {
		config.MaxCachedSets = DefaultConfig().MaxCachedSets
	}
	if logger == nil {
		logger = util.Discard()
	}

	h := &Host{
		current:     resolver.Result{Bindings: bindings.Map{}},
		subscribers: make(map[int]Subscriber),
		config:      config,
		logger:      logger,
	}

	cache, err := lru.NewWithEvict(config.MaxCachedSets, func(key string, value resolver.Result) {
		h.evictions.Add(1)
		if config.Debug {
			logger.Debug("LRU evicting resolved set", "key", key, "bindings", len(value.Bindings))
		}
	})
	if err != nil {
		// This should never happen with a positive size
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}
	h.cache = cache

	logger.Info("Host initialized", "max_cached_sets", config.MaxCachedSets)
	return h
}

// Recompute resolves docs, installs the result as the current map, and
// notifies subscribers when anything changed. Sets with a digest are served
// from the cache when seen before.
func (h *Host) Recompute(docs document.Set) Update {
	h.recomputeMu.Lock()
	defer h.recomputeMu.Unlock()

	h.recomputes.Add(1)
	opts := h.config.Options
	if opts.Logger == nil {
		opts.Logger = h.logger
	}

	key := cacheKey(docs.Digest, opts)
	res, cached := h.lookup(key)
	if !cached {
		start := time.Now()
		res = resolver.Resolve(docs, opts)
		h.resolveMicros.Add(time.Since(start).Microseconds())
		if key != "" {
			h.cache.Add(key, cloneResult(res))
		}
	}

	h.mu.Lock()
	prev := h.current.Bindings
	h.current = res
	h.digest = docs.Digest
	h.mu.Unlock()

	update := Update{
		Result:   cloneResult(res),
		Previous: prev,
		Diff:     bindings.Compare(prev, res.Bindings),
		Digest:   docs.Digest,
		Cached:   cached,
	}

	if h.config.Debug {
		h.logger.Debug("Recomputed bindings",
			"digest", docs.Digest,
			"cached", cached,
			"bindings", len(res.Bindings),
			"added", len(update.Diff.Added),
			"changed", len(update.Diff.Changed),
			"removed", len(update.Diff.Removed))
	}

	if !update.Diff.Empty() {
		h.notify(update)
	}
	return update
}

func (h *Host) lookup(key string) (resolver.Result, bool) {
	if key == "" {
		h.cacheMisses.Add(1)
		return resolver.Result{}, false
	}
	res, ok := h.cache.Get(key)
	if !ok {
		h.cacheMisses.Add(1)
		return resolver.Result{}, false
	}
	h.cacheHits.Add(1)
	return cloneResult(res), true
}

func cacheKey(digest string, opts resolver.Options) string {
	if digest == "" {
		return ""
	}
	return fmt.Sprintf("%s|%s|%s|%s|%t", digest, opts.Namespace, opts.WrapperKey, opts.Mode, opts.Lenient)
}

func cloneResult(res resolver.Result) resolver.Result {
	res.Bindings = res.Bindings.Clone()
	return res
}

func (h *Host) notify(u Update) {
	h.subMu.Lock()
	ids := make([]int, 0, len(h.subscribers))
	for id := range h.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]Subscriber, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, h.subscribers[id])
	}
	h.subMu.Unlock()

	for _, fn := range subs {
		fn(u)
		h.notifications.Add(1)
	}
}

// Subscribe registers fn for updates in registration order. The returned
// function removes the subscription; it is safe to call more than once.
func (h *Host) Subscribe(fn Subscriber) func() {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	id := h.nextID
	h.nextID++
	h.subscribers[id] = fn

	return func() {
		h.subMu.Lock()
		delete(h.subscribers, id)
		h.subMu.Unlock()
	}
}

// ApplyTo returns a subscriber that mirrors every update onto ctx.
func ApplyTo(ctx bindings.StyleContext) Subscriber {
	return func(u Update) {
		bindings.Apply(ctx, u.Previous, u.Result.Bindings)
	}
}

// Current returns a copy of the current result.
func (h *Host) Current() resolver.Result {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cloneResult(h.current)
}

// Digest returns the digest of the document set currently installed.
func (h *Host) Digest() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.digest
}

// Purge drops every cached result.
func (h *Host) Purge() {
	h.cache.Purge()
}

// Stats returns host statistics.
func (h *Host) Stats() Stats {
	h.mu.RLock()
	n := len(h.current.Bindings)
	h.mu.RUnlock()

	h.subMu.Lock()
	subs := len(h.subscribers)
	h.subMu.Unlock()

	misses := h.cacheMisses.Load()
	var avg float64
	if misses > 0 {
		avg = float64(h.resolveMicros.Load()) / float64(misses) / 1000
	}

	return Stats{
		Recomputes:    h.recomputes.Load(),
		CacheHits:     h.cacheHits.Load(),
		CacheMisses:   misses,
		Evictions:     h.evictions.Load(),
		Notifications: h.notifications.Load(),
		AvgResolveMs:  avg,
		Bindings:      n,
		Subscribers:   subs,
	}
}
