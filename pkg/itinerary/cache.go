package itinerary

import (
	"sort"
	"sync"
)

// Cache is a date-keyed cache of detailed items. A date present as a key
// always reflects the most recent successful fetch for that date (or a later
// targeted patch); a date absent as a key has never been fetched or was
// invalidated. Callers must distinguish "fetched and empty" from "never
// fetched" via Has, not via the length of the returned slice.
type Cache struct {
	mu      sync.RWMutex
	buckets map[string][]Item
}

func NewCache() *Cache {
	return &Cache{buckets: make(map[string][]Item)}
}

// Get returns the cached items for the date. Cache misses return an empty
// slice and never trigger a fetch.
func (c *Cache) Get(date string) []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bucket, ok := c.buckets[date]
	if !ok {
		return []Item{}
	}
	out := make([]Item, len(bucket))
	copy(out, bucket)
	return out
}

// GetItem looks one item up by source id and type within a date bucket.
func (c *Cache) GetItem(date string, sourceId string, itemType ItemType) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.buckets[date] {
		if item.SourceId == sourceId && item.Type == itemType {
			return item, true
		}
	}
	return Item{}, false
}

// Has reports whether the date has ever been fetched (and not invalidated).
func (c *Cache) Has(date string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.buckets[date]
	return ok
}

// Dates returns the cached dates in chronological order.
func (c *Cache) Dates() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dates := make([]string, 0, len(c.buckets))
	for date := range c.buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Put replaces the bucket for one date. A nil slice is stored as an empty
// bucket so that key presence still records the fetch.
func (c *Cache) Put(date string, items []Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(date, items)
}

// Merge applies several buckets in one update.
func (c *Cache) Merge(buckets map[string][]Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for date, items := range buckets {
		c.put(date, items)
	}
}

func (c *Cache) put(date string, items []Item) {
	if items == nil {
		items = []Item{}
	}
	stored := make([]Item, len(items))
	copy(stored, items)
	c.buckets[date] = stored
}

// PatchStatus flips the completion flag of every cached item matching source
// id and type, across all buckets, and returns how many records it touched.
func (c *Cache) PatchStatus(sourceId string, itemType ItemType, completed bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	patched := 0
	for date, bucket := range c.buckets {
		for i := range bucket {
			if bucket[i].SourceId == sourceId && bucket[i].Type == itemType {
				bucket[i].IsDone = completed
				patched++
			}
		}
		c.buckets[date] = bucket
	}
	return patched
}

// Invalidate removes one date bucket.
func (c *Cache) Invalidate(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buckets, date)
}

// Clear removes every bucket (logout, trip switch).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets = make(map[string][]Item)
}
