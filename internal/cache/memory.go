package cache

import (
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/linkguard/internal/model"
)

type entry struct {
	result    model.AnalysisResult
	checkedAt time.Time
}

// ResultCache is an in-memory result cache with lazy TTL expiry and
// batch eviction of the oldest entries once capacity is exceeded.
//
// Ages are measured against the injected Clock, so go-cache's own
// expiration and janitor are disabled.
type ResultCache struct {
	mu       sync.Mutex
	items    *gocache.Cache
	ttl      time.Duration
	capacity int
	batch    int
	clock    Clock
}

// NewResultCache creates a result cache; a nil clock means the wall clock
func NewResultCache(cfg model.CacheConfig, clock Clock) *ResultCache {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.EvictBatch <= 0 {
		cfg.EvictBatch = 1
	}

	return &ResultCache{
		items:    gocache.New(gocache.NoExpiration, 0),
		ttl:      cfg.TTL,
		capacity: cfg.Capacity,
		batch:    cfg.EvictBatch,
		clock:    clock,
	}
}

// Get returns a copy of a live entry. An expired entry is deleted on the spot.
func (c *ResultCache) Get(url string) (model.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(url)
	val, found := c.items.Get(key)
	if !found {
		return model.AnalysisResult{}, false
	}

	e := val.(*entry)
	if c.expired(e, c.clock.Now()) {
		c.items.Delete(key)
		return model.AnalysisResult{}, false
	}

	return e.result.Clone(), true
}

// Put stores a copy of result, then evicts the oldest batch if over capacity
func (c *ResultCache) Put(url string, result model.AnalysisResult) {
	checkedAt := result.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = c.clock.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.Set(Key(url), &entry{result: result.Clone(), checkedAt: checkedAt}, gocache.NoExpiration)

	if c.capacity > 0 && c.items.ItemCount() > c.capacity {
		c.evictOldest()
	}
}

// Sweep removes every entry older than the TTL and returns how many went
func (c *ResultCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for key, item := range c.items.Items() {
		if c.expired(item.Object.(*entry), now) {
			c.items.Delete(key)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of stored entries, expired or not
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.ItemCount()
}

// Clear removes all entries
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Flush()
}

func (c *ResultCache) expired(e *entry, now time.Time) bool {
	return now.Sub(e.checkedAt) > c.ttl
}

// evictOldest drops the batch with the smallest checkedAt. Caller holds mu.
func (c *ResultCache) evictOldest() {
	type aged struct {
		key       string
		checkedAt time.Time
	}

	items := c.items.Items()
	all := make([]aged, 0, len(items))
	for key, item := range items {
		all = append(all, aged{key: key, checkedAt: item.Object.(*entry).checkedAt})
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].checkedAt.Before(all[j].checkedAt)
	})

	n := min(c.batch, len(all))
	for _, a := range all[:n] {
		c.items.Delete(a.key)
	}
}
