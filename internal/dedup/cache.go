// Package dedup suppresses re-processing of log lines already seen in
// this run. Fingerprints are kept in insertion order so eviction of the
// oldest entries is deterministic.
package dedup

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultHighWater is the fingerprint count that triggers eviction.
	DefaultHighWater = 10000
	// DefaultEvictBatch is how many of the oldest fingerprints are
	// dropped when the high water mark is exceeded.
	DefaultEvictBatch = 1000
)

// Cache is a bounded set of line fingerprints. Membership is checked and
// recorded in one step; when the set grows past its high water mark the
// oldest-inserted batch is evicted.
type Cache struct {
	mu        sync.Mutex
	seen      map[uint64]struct{}
	order     []uint64
	highWater int
	evict     int
}

// New creates a cache with the given bounds. Non-positive arguments fall
// back to the defaults.
func New(highWater, evictBatch int) *Cache {
	if highWater <= 0 {
		highWater = DefaultHighWater
	}
	if evictBatch <= 0 {
		evictBatch = DefaultEvictBatch
	}
	if evictBatch > highWater {
		evictBatch = highWater
	}
	return &Cache{
		seen:      make(map[uint64]struct{}, highWater),
		order:     make([]uint64, 0, highWater),
		highWater: highWater,
		evict:     evictBatch,
	}
}

// Fingerprint digests a raw log line.
func Fingerprint(line string) uint64 {
	return xxhash.Sum64String(line)
}

// Seen reports whether the line was already recorded, recording it if not.
func (c *Cache) Seen(line string) bool {
	return c.SeenFingerprint(Fingerprint(line))
}

// SeenFingerprint is Seen for a precomputed fingerprint.
func (c *Cache) SeenFingerprint(fp uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[fp]; ok {
		return true
	}
	c.seen[fp] = struct{}{}
	c.order = append(c.order, fp)

	if len(c.seen) > c.highWater {
		for _, old := range c.order[:c.evict] {
			delete(c.seen, old)
		}
		// Copy the tail so the evicted prefix can be collected.
		remaining := make([]uint64, len(c.order)-c.evict, c.highWater)
		copy(remaining, c.order[c.evict:])
		c.order = remaining
	}
	return false
}

// Len returns the number of fingerprints currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
