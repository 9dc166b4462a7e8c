package dashboard

import (
	"sync"
	"time"

	"github.com/jlow/kalshipulse/internal/models"
)

// cacheKey identifies one leaderboard snapshot.
type cacheKey struct {
	category string
	limit    int
	sortBy   string
}

type cacheEntry struct {
	events    []models.Event
	fetchedAt time.Time
}

// snapshotCache holds recently built leaderboards so dashboard traffic does
// not hit the Kalshi API on every request. Entries expire after the TTL; a
// TTL of zero disables caching.
type snapshotCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[cacheKey]cacheEntry
}

func newSnapshotCache(ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[cacheKey]cacheEntry),
	}
}

func (c *snapshotCache) get(key cacheKey) (cacheEntry, bool) {
	if c.ttl <= 0 {
		return cacheEntry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	if c.now().Sub(entry.fetchedAt) > c.ttl {
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *snapshotCache) put(key cacheKey, events []models.Event) cacheEntry {
	entry := cacheEntry{events: events, fetchedAt: c.now()}
	if c.ttl <= 0 {
		return entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return entry
}
