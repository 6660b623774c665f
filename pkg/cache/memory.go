// Package cache provides a thread-safe, in-memory key-value store with
// TTL-based expiration and size-bounded eviction. It holds decoded source
// images fetched by URL so that reopening a project does not refetch it.
package cache

import (
	"sort"
	"sync"
	"time"

	"fotoforge/pkg/logger"
	"fotoforge/pkg/utils"
)

const (
	DefaultMaxSize = 100 // MB
	DefaultTTL     = 30 * time.Minute

	// DefaultMaxItemSize keeps single huge downloads out of the heap.
	DefaultMaxItemSize = 4 * 1024 * 1024

	GCInterval = 5 * time.Minute
)

// Options configures a MemoryCache. Zero values fall back to the defaults.
type Options struct {
	Enabled     bool
	MaxSizeMB   int
	TTL         time.Duration
	MaxItemSize int64
	GCInterval  time.Duration
}

type Item struct {
	Data      []byte
	ExpiresAt time.Time
	Size      int64
}

type MemoryCache struct {
	sync.RWMutex
	items       map[string]Item
	totalSize   int64
	maxSize     int64
	maxItemSize int64
	ttl         time.Duration
	enabled     bool
	now         func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New initializes the cache and starts the expiry worker when enabled.
func New(opts Options) *MemoryCache {
	limitMB := int64(opts.MaxSizeMB)
	if limitMB <= 0 {
		limitMB = DefaultMaxSize
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	itemLimit := opts.MaxItemSize
	if itemLimit <= 0 {
		itemLimit = DefaultMaxItemSize
	}
	gc := opts.GCInterval
	if gc <= 0 {
		gc = GCInterval
	}

	c := &MemoryCache{
		maxSize:     limitMB * 1024 * 1024,
		maxItemSize: itemLimit,
		ttl:         ttl,
		enabled:     opts.Enabled,
		now:         time.Now,
		stop:        make(chan struct{}),
	}

	if c.enabled {
		c.items = make(map[string]Item)
		go c.startGC(gc)
		logger.LogInfo("Memory Cache Initialized: %d MB Limit, TTL: %s", limitMB, ttl)
	} else {
		logger.LogWarn("Memory Cache is DISABLED via config (Running in pass-through mode).")
	}
	return c
}

// Set stores a value with the configured TTL. Values above the item limit
// or half of the whole capacity are skipped.
func (c *MemoryCache) Set(key string, data []byte) {
	if !c.enabled {
		return
	}

	size := int64(len(data))
	if size > c.maxItemSize || size > c.maxSize/2 {
		return
	}

	c.Lock()
	defer c.Unlock()

	if old, exists := c.items[key]; exists {
		c.totalSize -= old.Size
		delete(c.items, key)
	}

	if c.totalSize+size > c.maxSize {
		c.prune(size)
	}

	c.items[key] = Item{
		Data:      data,
		ExpiresAt: c.now().Add(c.ttl),
		Size:      size,
	}
	c.totalSize += size
}

// Get retrieves an item if it exists and hasn't expired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	c.RLock()
	defer c.RUnlock()

	item, found := c.items[key]
	if !found || c.now().After(item.ExpiresAt) {
		return nil, false
	}
	return item.Data, true
}

// Delete explicitly removes an item from the cache.
func (c *MemoryCache) Delete(key string) {
	if !c.enabled {
		return
	}

	c.Lock()
	defer c.Unlock()

	if item, found := c.items[key]; found {
		delete(c.items, key)
		c.totalSize -= item.Size
	}
}

// Stats returns the item count and bytes in use.
func (c *MemoryCache) Stats() (int, int64) {
	c.RLock()
	defer c.RUnlock()
	return len(c.items), c.totalSize
}

// Close stops the background worker. It is safe to call more than once.
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// prune evicts the soonest-expiring items until the incoming item fits
// under 80% of capacity. Caller holds the write lock.
func (c *MemoryCache) prune(needed int64) {
	if len(c.items) == 0 {
		return
	}

	targetSize := int64(float64(c.maxSize) * 0.80)

	type candidate struct {
		Key       string
		ExpiresAt time.Time
		Size      int64
	}

	candidates := make([]candidate, 0, len(c.items))
	for k, v := range c.items {
		candidates = append(candidates, candidate{k, v.ExpiresAt, v.Size})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ExpiresAt.Before(candidates[j].ExpiresAt)
	})

	for _, cand := range candidates {
		if c.totalSize+needed <= targetSize {
			break
		}
		delete(c.items, cand.Key)
		c.totalSize -= cand.Size
	}
}

// sweep removes expired items and reports what it freed.
func (c *MemoryCache) sweep() (int, int64) {
	c.Lock()
	defer c.Unlock()

	now := c.now()
	removedCount := 0
	removedBytes := int64(0)
	for k, v := range c.items {
		if now.After(v.ExpiresAt) {
			delete(c.items, k)
			c.totalSize -= v.Size
			removedBytes += v.Size
			removedCount++
		}
	}
	return removedCount, removedBytes
}

func (c *MemoryCache) startGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if n, freed := c.sweep(); n > 0 {
				logger.LogInfo("Cache GC: Cleaned %d items (%s freed)", n, utils.FormatBytes(freed))
			}
		}
	}
}
