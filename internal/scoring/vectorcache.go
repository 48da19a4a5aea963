// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package scoring

import (
	"sync"
)

// defaultVectorCacheCapacity bounds the cache when no capacity is configured.
const defaultVectorCacheCapacity = 10000

// vectorEntry is a node in the cache's doubly-linked recency list.
type vectorEntry struct {
	key    string
	vector []float64
	prev   *vectorEntry
	next   *vectorEntry
}

// VectorCache is a thread-safe LRU cache for embedding vectors. Embeddings
// for corpus sentences are requested repeatedly across recommendation
// requests, so a bounded cache keeps provider traffic low without growing
// with corpus size.
//
// A doubly-linked list tracks recency and a map gives O(1) lookup;
// head.next is the most recently used entry.
type VectorCache struct {
	mu sync.Mutex

	capacity int
	items    map[string]*vectorEntry
	head     *vectorEntry
	tail     *vectorEntry

	hits   int64
	misses int64
}

// NewVectorCache creates a cache bounded to capacity entries.
func NewVectorCache(capacity int) *VectorCache {
	if capacity <= 0 {
		capacity = defaultVectorCacheCapacity
	}
	c := &VectorCache{
		capacity: capacity,
		items:    make(map[string]*vectorEntry, capacity),
		head:     &vectorEntry{},
		tail:     &vectorEntry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Get returns the cached vector for key, moving it to the front.
func (c *VectorCache) Get(key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.moveToFront(entry)
	c.hits++
	return entry.vector, true
}

// Add stores a vector, evicting the least recently used entry at capacity.
func (c *VectorCache) Add(key string, vector []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[key]; ok {
		entry.vector = vector
		c.moveToFront(entry)
		return
	}

	if len(c.items) >= c.capacity {
		lru := c.tail.prev
		if lru != c.head {
			c.unlink(lru)
			delete(c.items, lru.key)
		}
	}

	entry := &vectorEntry{key: key, vector: vector}
	c.items[key] = entry
	c.pushFront(entry)
}

// Len returns the current number of cached vectors.
func (c *VectorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counts since construction.
func (c *VectorCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *VectorCache) moveToFront(entry *vectorEntry) {
	c.unlink(entry)
	c.pushFront(entry)
}

func (c *VectorCache) unlink(entry *vectorEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (c *VectorCache) pushFront(entry *vectorEntry) {
	entry.next = c.head.next
	entry.prev = c.head
	c.head.next.prev = entry
	c.head.next = entry
}
