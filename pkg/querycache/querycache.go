// Package querycache is a process-wide cache for the results of named remote
// queries. Stores load through it so that concurrent readers of the same
// query share one fetch, and invalidate by logical query name after a
// mutation so that the next read recomputes from source.
package querycache

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Logical query names shared across stores. Invalidating a name drops every
// cached key under it.
const (
	QueryTravelSummaries = "optimizedTravelSummaries"
	QueryDailyPlan       = "optimizedDailyPlan"
	QueryOverviewData    = "optimizedOverviewData"
)

type Loader func(ctx context.Context) (any, error)

type Cache struct {
	mu      sync.RWMutex
	results map[string]map[string]any
	group   singleflight.Group
}

func NewCache() *Cache {
	return &Cache{
		results: make(map[string]map[string]any),
	}
}

// Do returns the cached result for (name, key), or runs loader to produce it.
// Concurrent calls for the same (name, key) are collapsed into a single
// loader execution. Failed loads are not cached.
func (c *Cache) Do(ctx context.Context, name string, key string, loader Loader) (any, error) {
	c.mu.RLock()
	if byKey, ok := c.results[name]; ok {
		if result, ok := byKey[key]; ok {
			c.mu.RUnlock()
			return result, nil
		}
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do(name+"|"+key, func() (any, error) {
		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.results[name] == nil {
			c.results[name] = make(map[string]any)
		}
		c.results[name][key] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	return result, err
}

// Invalidate drops all cached results under the given query names.
func (c *Cache) Invalidate(names ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		if _, ok := c.results[name]; ok {
			log.Debugf("querycache: invalidating %s", name)
			delete(c.results, name)
		}
	}
}

// Clear drops everything (logout, trip switch).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = make(map[string]map[string]any)
}
