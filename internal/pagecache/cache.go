// Package pagecache caches pages of feed content keyed by
// (owner, page, size), de-duplicating concurrent identical fetches.
package pagecache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	"golang.org/x/sync/singleflight"
)

// pageKey identifies one cached page. Keys are comparable structs, not
// delimited strings, so owner identifiers can never collide with the
// delimiter.
type pageKey struct {
	Owner  int64
	Number int
	Size   int
}

// String renders the key for singleflight and log output
func (k pageKey) String() string {
	return fmt.Sprintf("owner:%d:page:%d:size:%d", k.Owner, k.Number, k.Size)
}

// cacheEntry holds one cached page and its insertion time
type cacheEntry struct {
	page       domain.Page
	insertedAt time.Time
}

// PersistentStore is the optional second-level page store consulted on a
// memory miss before going to the network.
type PersistentStore interface {
	GetPage(ownerID int64, pageNumber, pageSize int, ttl time.Duration) (domain.Page, bool)
	SavePage(page domain.Page) error
}

// Cache fetches and caches pages of feed content.
//
// Eviction is insertion-order based: when the cache is full the oldest
// INSERTED entry is removed, regardless of how recently it was read.
// This mirrors the source system's behavior and is deliberately not LRU.
type Cache struct {
	repo   domain.ContentRepository
	store  PersistentStore // optional: nil disables the disk tier
	logger *slog.Logger

	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[pageKey]cacheEntry
	order   []pageKey // insertion order, oldest first

	flight singleflight.Group
}

// New creates a page cache backed by repo, with an optional persistent
// second-level store.
func New(repo domain.ContentRepository, store PersistentStore, ttl time.Duration, maxEntries int, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		repo:       repo,
		store:      store,
		logger:     logger,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[pageKey]cacheEntry),
	}
}

// FetchPage returns the cached page for (ownerID, pageNumber, pageSize)
// if fresh, otherwise fetches it. Concurrent calls for the same key share
// a single upstream round trip; the in-flight marker is dropped on success
// and failure alike so later calls can retry.
func (c *Cache) FetchPage(ctx context.Context, ownerID int64, pageNumber, pageSize int) (domain.Page, error) {
	key := pageKey{Owner: ownerID, Number: pageNumber, Size: pageSize}

	if page, ok := c.lookup(key); ok {
		c.logger.Debug("page cache hit", "key", key.String())
		return page, nil
	}

	result, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		// A concurrent flight may have populated the entry while this
		// caller waited on the singleflight lock.
		if page, ok := c.lookup(key); ok {
			return page, nil
		}

		// Second level: persisted pages from an earlier run
		if c.store != nil {
			if page, ok := c.store.GetPage(ownerID, pageNumber, pageSize, c.ttl); ok {
				c.logger.Debug("page store hit", "key", key.String())
				c.insert(key, page)
				return page, nil
			}
		}

		page, err := c.repo.FetchPage(ctx, ownerID, pageNumber, pageSize)
		if err != nil {
			// Failed fetches are never cached; the caller decides on retry
			return nil, fmt.Errorf("fetch page %s: %w", key.String(), err)
		}

		c.insert(key, page)
		if c.store != nil {
			if err := c.store.SavePage(page); err != nil {
				c.logger.Warn("failed to persist page", "key", key.String(), "error", err)
			}
		}
		return page, nil
	})
	if err != nil {
		return domain.Page{}, err
	}
	return result.(domain.Page), nil
}

// Contains reports whether a fresh entry exists for the key without
// touching the network or the persistent store.
func (c *Cache) Contains(ownerID int64, pageNumber, pageSize int) bool {
	_, ok := c.lookup(pageKey{Owner: ownerID, Number: pageNumber, Size: pageSize})
	return ok
}

// Len returns the current entry count
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every in-memory entry. The persistent store is untouched.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[pageKey]cacheEntry)
	c.order = nil
}

// lookup returns a fresh entry, dropping it if expired
func (c *Cache) lookup(key pageKey) (domain.Page, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.Page{}, false
	}
	if c.ttl > 0 && time.Since(entry.insertedAt) >= c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return domain.Page{}, false
	}
	return entry.page, true
}

// insert stores an entry, evicting the oldest-inserted entries while the
// cache is at capacity
func (c *Cache) insert(key pageKey, page domain.Page) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		// Re-insert counts as a fresh insertion for eviction order
		c.removeFromOrder(key)
	}

	for c.maxEntries > 0 && len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		victim := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, victim)
		c.logger.Debug("evicted page", "key", victim.String())
	}

	c.entries[key] = cacheEntry{page: page, insertedAt: time.Now()}
	c.order = append(c.order, key)
}

// removeFromOrder drops a key from the insertion-order queue.
// Caller must hold c.mu.
func (c *Cache) removeFromOrder(key pageKey) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
