package usgs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/quake-agent/internal/domain"
	"github.com/couchcryptid/quake-agent/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedSource wraps an EventSource with an in-memory LRU cache whose
// entries expire after a fixed TTL.
type CachedSource struct {
	inner   domain.EventSource
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around an event source.
func NewCachedSource(inner domain.EventSource, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

// Fetch serves an unexpired cached result for f or fetches it from the inner source.
func (c *CachedSource) Fetch(ctx context.Context, f domain.Filter) ([]domain.Event, error) {
	key := filterKey(f)
	now := c.clock.Now()
	if events, ok := c.cache.get(key, now); ok {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return events, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	events, err := c.inner.Fetch(ctx, f)
	if err != nil {
		return events, err
	}
	// An empty result may be a degraded provider failure, so it is never cached.
	if len(events) > 0 {
		c.cache.put(key, events, now.Add(c.ttl))
	}
	return events, nil
}

func filterKey(f domain.Filter) string {
	maxMag := "-"
	if f.MaxMagnitude != nil {
		maxMag = fmt.Sprintf("%g", *f.MaxMagnitude)
	}
	return fmt.Sprintf("%g|%s|%d|%s|%d", f.MinMagnitude, maxMag, f.HoursBack, f.Location, ClampLimit(f.Limit))
}

// lruCache is a simple thread-safe LRU cache for event lists.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     []domain.Event
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) ([]domain.Event, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !now.Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.Event, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
