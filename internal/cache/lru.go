// Package cache holds recently computed position evaluations so that
// re-analyzing a game (or stepping back through one) does not repeat
// engine searches. In-memory only; nothing is persisted.
package cache

import (
	"container/list"
	"sync"
)

type entry struct {
	key   string
	value interface{}
}

// LRU is a thread-safe least-recently-used cache bounded by entry count.
type LRU struct {
	mu           sync.Mutex
	maxEntries   int
	items        map[string]*list.Element
	evictionList *list.List

	hits      int64
	misses    int64
	evictions int64
}

// NewLRU creates an LRU cache holding at most maxEntries items
// (0 = unlimited).
func NewLRU(maxEntries int) *LRU {
	return &LRU{
		maxEntries:   maxEntries,
		items:        make(map[string]*list.Element),
		evictionList: list.New(),
	}
}

// Get retrieves a value and marks it recently used.
func (c *LRU) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.evictionList.MoveToFront(elem)
		c.hits++
		return elem.Value.(*entry).value, true
	}

	c.misses++
	return nil, false
}

// Put adds or updates a value, evicting the oldest entry when over capacity.
func (c *LRU) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.evictionList.MoveToFront(elem)
		elem.Value.(*entry).value = value
		return
	}

	c.items[key] = c.evictionList.PushFront(&entry{key: key, value: value})

	for c.maxEntries > 0 && c.evictionList.Len() > c.maxEntries {
		oldest := c.evictionList.Back()
		if oldest == nil {
			break
		}
		c.evictionList.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
		c.evictions++
	}
}

// Clear removes all entries.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.evictionList.Init()
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictionList.Len()
}

// Stats reports hit/miss/eviction counters.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Entries:   c.evictionList.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}
