// Package store persists fetched content pages with BoltDB so a relaunched
// session can paint from disk while the network catches up.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketPages  = []byte("pages")
	bucketOwners = []byte("owners")
)

// pageRecord wraps a page with its fetch time for freshness checks
type pageRecord struct {
	Items     []domain.ContentItem `json:"items"`
	FetchedAt time.Time            `json:"fetchedAt"`
}

// PageStore persists content pages using BoltDB with an in-memory
// promote-on-read cache for hot keys.
type PageStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	cache map[string][]byte
}

// NewPageStore opens the page store under baseCacheDir. An empty
// baseCacheDir selects memory-only mode (no persistence).
func NewPageStore(baseCacheDir, endpoint string) (*PageStore, error) {
	if baseCacheDir == "" {
		return &PageStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if endpoint != "" {
		dir = filepath.Join(baseCacheDir, hashEndpoint(endpoint))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "reel.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketPages, bucketOwners} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &PageStore{db: db, cache: make(map[string][]byte)}, nil
}

// hashEndpoint keys the cache directory by endpoint so switching servers
// never mixes catalogs
func hashEndpoint(endpoint string) string {
	normalized := strings.TrimRight(strings.ToLower(endpoint), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *PageStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// pageKey builds the hierarchical bolt key for a page
func pageKey(ownerID int64, pageNumber, pageSize int) string {
	return fmt.Sprintf("owner:%d:page:%d:size:%d", ownerID, pageNumber, pageSize)
}

// ownerPrefix is the key prefix covering every page of one owner
func ownerPrefix(ownerID int64) string {
	return fmt.Sprintf("owner:%d:", ownerID)
}

// === Generic helpers ===

func (s *PageStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *PageStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	// Update memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	// Write to BoltDB
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *PageStore) deletePrefix(bucket []byte, prefix string) {
	// Clear from memory cache
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	// Delete from BoltDB using prefix scan
	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Pages ===

// GetPage returns a persisted page if it exists and is younger than ttl.
// A ttl of zero disables the freshness check.
func (s *PageStore) GetPage(ownerID int64, pageNumber, pageSize int, ttl time.Duration) (domain.Page, bool) {
	var rec pageRecord
	if !s.get(bucketPages, pageKey(ownerID, pageNumber, pageSize), &rec) {
		return domain.Page{}, false
	}
	if ttl > 0 && time.Since(rec.FetchedAt) >= ttl {
		return domain.Page{}, false
	}
	return domain.Page{
		OwnerID: ownerID,
		Number:  pageNumber,
		Size:    pageSize,
		Items:   rec.Items,
	}, true
}

// SavePage persists a fetched page with its fetch time
func (s *PageStore) SavePage(page domain.Page) error {
	rec := pageRecord{
		Items:     page.Items,
		FetchedAt: time.Now(),
	}
	if err := s.set(bucketPages, pageKey(page.OwnerID, page.Number, page.Size), rec); err != nil {
		return err
	}
	// Track last activity per owner for diagnostics
	return s.set(bucketOwners, fmt.Sprintf("owner:%d:ts", page.OwnerID), time.Now().Unix())
}

// === Invalidation ===

// InvalidateOwner wipes every persisted page for one owner
func (s *PageStore) InvalidateOwner(ownerID int64) {
	s.deletePrefix(bucketPages, ownerPrefix(ownerID))
	s.deletePrefix(bucketOwners, ownerPrefix(ownerID))
}

// InvalidateAll wipes all persisted pages
func (s *PageStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketPages, bucketOwners} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
