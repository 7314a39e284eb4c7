// Package cache provides a bounded, TTL-expiring cache for interpretation
// results, keyed by a hash of the normalized input text. It exists to avoid
// redundant model calls for repeated context-free inputs.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Response is a memoized interpretation result. It is stored and returned
// by value, so callers can never mutate a cached entry after the fact.
type Response struct {
	// Intent is the resolved function name, or the no-intent sentinel.
	Intent string `json:"intent"`
	// StructuredDataJSON carries the function's JSON arguments.
	StructuredDataJSON string `json:"structured_data_json"`
}

// Key returns the deterministic cache key for the given input text.
// Text is normalized (trimmed, lowercased) before hashing so trivially
// different spellings of the same request share an entry.
func Key(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	resp       Response
	insertedAt time.Time
}

// ResponseCache is a bounded TTL cache. Expired entries are removed lazily
// on lookup and in bulk when an insert finds the cache at capacity; there is
// no background sweep goroutine.
//
// ResponseCache is safe for concurrent use. All operations run under a
// single mutex; the cache is small and cleanup is O(size) at worst.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]entry
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// Config holds cache sizing parameters.
type Config struct {
	// MaxSize is the maximum number of entries (default: 500).
	MaxSize int
	// TTL is how long an entry stays valid (default: 30m).
	TTL time.Duration
}

// New creates a ResponseCache with the given bounds.
func New(cfg Config) *ResponseCache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 500
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	return &ResponseCache{
		entries: make(map[string]entry, cfg.MaxSize),
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		now:     time.Now,
	}
}

// Get returns the cached response for text, if present and not expired.
// An expired entry found during lookup is evicted immediately, so Get never
// returns a response older than the TTL even if no cleanup has run.
func (c *ResponseCache) Get(text string) (Response, bool) {
	key := Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Response{}, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		return Response{}, false
	}
	return e.resp, true
}

// Put stores resp under the key for text, overwriting any existing entry for
// the same text. When the cache is full it first drops every expired entry;
// if that frees nothing, the single oldest entry is evicted to make room.
// The size bound holds whenever Put returns.
func (c *ResponseCache) Put(text string, resp Response) {
	key := Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.cleanupExpiredLocked()
		if len(c.entries) >= c.maxSize {
			c.evictOldestLocked()
		}
	}

	c.entries[key] = entry{resp: resp, insertedAt: c.now()}
}

// Len returns the current number of entries, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResponseCache) cleanupExpiredLocked() {
	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.insertedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *ResponseCache) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.insertedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.insertedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
