// Package lru implements a small, thread-safe, generic LRU cache.
//
// Lookup, insert and delete are O(1): a map provides key access and a
// doubly linked list with sentinel nodes keeps eviction order.
package lru

import "sync"

type entry[K comparable, V any] struct {
	key  K
	val  V
	prev *entry[K, V]
	next *entry[K, V]
}

// Cache is a fixed-capacity LRU cache safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu    sync.Mutex
	cap   int
	byKey map[K]*entry[K, V]
	head  *entry[K, V] // most recently used side
	tail  *entry[K, V] // eviction side
}

// New creates a cache holding at most capacity entries.
// Panics if capacity < 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}
	head := &entry[K, V]{}
	tail := &entry[K, V]{}
	head.next = tail
	tail.prev = head
	return &Cache[K, V]{
		cap:   capacity,
		byKey: make(map[K]*entry[K, V], capacity),
		head:  head,
		tail:  tail,
	}
}

// Get returns the value for key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byKey[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.detach(e)
	c.attach(e)
	return e.val, true
}

// Contains reports whether key is cached, without touching its use order.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.byKey[key]
	return ok
}

// Put stores key=val, evicting the least recently used entry when full.
func (c *Cache[K, V]) Put(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.byKey[key]; ok {
		e.val = val
		c.detach(e)
		c.attach(e)
		return
	}

	if len(c.byKey) >= c.cap {
		victim := c.tail.prev
		c.detach(victim)
		delete(c.byKey, victim.key)
	}

	e := &entry[K, V]{key: key, val: val}
	c.byKey[key] = e
	c.attach(e)
}

// Delete removes key from the cache. Returns true if it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byKey[key]
	if !ok {
		return false
	}
	c.detach(e)
	delete(c.byKey, key)
	return true
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head.next = c.tail
	c.tail.prev = c.head
	c.byKey = make(map[K]*entry[K, V], c.cap)
}

// caller must hold mu for the list operations below.

func (c *Cache[K, V]) detach(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *Cache[K, V]) attach(e *entry[K, V]) {
	e.next = c.head.next
	e.prev = c.head
	c.head.next.prev = e
	c.head.next = e
}
