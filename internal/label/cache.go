package label

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wtsks/propsync/internal/model"
)

// EntitySource lists the published entities of a taxonomy.
type EntitySource interface {
	ListPublishedEntities(ctx context.Context, kind model.Kind) ([]model.Entity, error)
}

// Loader builds a fresh label map for a kind.
type Loader func(ctx context.Context, kind model.Kind) (*Map, error)

// SourceLoader returns a Loader that builds maps from src.
func SourceLoader(src EntitySource) Loader {
	return func(ctx context.Context, kind model.Kind) (*Map, error) {
		entities, err := src.ListPublishedEntities(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s entities: %w", kind, err)
		}
		return Build(entities), nil
	}
}

type cached struct {
	m       *Map
	expires time.Time
}

// Cache keeps one label map per kind for at most ttl. A ttl of zero turns
// caching off and every Get builds a fresh map.
type Cache struct {
	load Loader
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[model.Kind]cached
}

// NewCache creates a Cache around load.
func NewCache(load Loader, ttl time.Duration) *Cache {
	return &Cache{
		load:    load,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[model.Kind]cached),
	}
}

// Get returns the map for kind, loading it when missing or expired.
func (c *Cache) Get(ctx context.Context, kind model.Kind) (*Map, error) {
	if c.ttl <= 0 {
		return c.load(ctx, kind)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[kind]; ok && c.now().Before(e.expires) {
		return e.m, nil
	}

	m, err := c.load(ctx, kind)
	if err != nil {
		return nil, err
	}
	c.entries[kind] = cached{m: m, expires: c.now().Add(c.ttl)}
	return m, nil
}

// Invalidate drops the cached map for kind.
func (c *Cache) Invalidate(kind model.Kind) {
	c.mu.Lock()
	delete(c.entries, kind)
	c.mu.Unlock()
}

// LogConflicts wraps load so every collision in a freshly built map is
// logged as a warning.
func LogConflicts(load Loader, logger *slog.Logger) Loader {
	return func(ctx context.Context, kind model.Kind) (*Map, error) {
		m, err := load(ctx, kind)
		if err != nil {
			return nil, err
		}
		for _, c := range m.Conflicts() {
			logger.Warn("label collision",
				"kind", kind,
				"label", c.Key,
				"kept", c.Kept.Canonical,
				"dropped", c.Dropped.Canonical,
			)
		}
		return m, nil
	}
}
