package artifact

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/bibhealth/strokerisk/internal/domain/port"
)

// LoadFunc loads the classifier for a reference.
type LoadFunc func(ctx context.Context, ref string) (port.Classifier, error)

type cacheEntry struct {
	ready chan struct{}
	clf   port.Classifier
	err   error
}

// Cache is a port.ClassifierProvider that loads each reference once and
// reuses it until invalidated. Concurrent first requests for a reference wait
// for a single load. Failed loads are not kept.
type Cache struct {
	load    LoadFunc
	logger  *slog.Logger
	entries map[string]*cacheEntry
	mu      sync.Mutex
}

// NewCache creates an empty cache around load.
func NewCache(load LoadFunc, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		load:    load,
		logger:  logger,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns the classifier for ref, loading it on first use.
func (c *Cache) Get(ctx context.Context, ref string) (port.Classifier, error) {
	c.mu.Lock()
	e, ok := c.entries[ref]
	if !ok {
		e = &cacheEntry{ready: make(chan struct{})}
		c.entries[ref] = e
		c.mu.Unlock()
		c.fill(ctx, ref, e)
		return e.clf, e.err
	}
	c.mu.Unlock()

	select {
	case <-e.ready:
		return e.clf, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fill(ctx context.Context, ref string, e *cacheEntry) {
	start := time.Now()
	e.clf, e.err = c.load(ctx, ref)
	close(e.ready)

	if e.err != nil {
		c.mu.Lock()
		if c.entries[ref] == e {
			delete(c.entries, ref)
		}
		c.mu.Unlock()
		c.logger.Warn("model load failed", slog.String("model", ref), slog.String("error", e.err.Error()))
		return
	}

	c.logger.Info("model loaded",
		slog.String("model", ref),
		slog.String("name", e.clf.Name()),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// Invalidate drops ref. It reports whether ref was cached.
func (c *Cache) Invalidate(ref string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[ref]
	delete(c.entries, ref)
	return ok
}

// InvalidateAll drops every cached reference.
func (c *Cache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]*cacheEntry)
	return n
}

// Loaded returns the references whose classifiers are ready, sorted.
func (c *Cache) Loaded() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	refs := make([]string, 0, len(c.entries))
	for ref, e := range c.entries {
		select {
		case <-e.ready:
			if e.err == nil {
				refs = append(refs, ref)
			}
		default:
		}
	}
	sort.Strings(refs)
	return refs
}
