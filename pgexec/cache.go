package pgexec

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pthm/sqlast/render"
)

// Cache stores documents produced by read statements, keyed by the
// statement text and its parameter values.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached document for stmt. ok is false when the entry
	// doesn't exist or has expired.
	Get(stmt render.Statement) (doc json.RawMessage, ok bool)

	// Set stores the document produced by stmt.
	Set(stmt render.Statement, doc json.RawMessage)
}

type cacheEntry struct {
	doc       json.RawMessage
	expiresAt time.Time // zero means no expiry
}

// MemoryCache is an in-memory Cache with optional TTL.
//
// The cache grows unbounded within its TTL window. Only cache statements
// whose results may be stale for that long; mutations never go through it.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	ttl   time.Duration // 0 means no expiry
}

// CacheOption configures a MemoryCache.
type CacheOption func(*MemoryCache)

// WithTTL sets the time-to-live for cache entries.
// A TTL of 0 (default) means entries never expire.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *MemoryCache) {
		c.ttl = ttl
	}
}

// NewCache creates an empty MemoryCache.
func NewCache(opts ...CacheOption) *MemoryCache {
	c := &MemoryCache{
		items: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached document for stmt.
func (c *MemoryCache) Get(stmt render.Statement) (json.RawMessage, bool) {
	key, ok := cacheKey(stmt)
	if !ok {
		return nil, false
	}

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.doc, true
}

// Set stores the document produced by stmt. Statements whose parameters
// cannot be encoded into a key are not cached.
func (c *MemoryCache) Set(stmt render.Statement, doc json.RawMessage) {
	key, ok := cacheKey(stmt)
	if !ok {
		return
	}

	entry := cacheEntry{doc: doc}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()
}

// Size returns the number of entries in the cache, including expired
// entries not yet evicted.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// cacheKey joins the SQL text with the JSON encoding of its arguments.
// Byte parameters encode as base64, so distinct values never collide.
func cacheKey(stmt render.Statement) (string, bool) {
	params, err := json.Marshal(stmt.Args())
	if err != nil {
		return "", false
	}
	return stmt.SQL + "\x00" + string(params), true
}

var _ Cache = (*MemoryCache)(nil)
