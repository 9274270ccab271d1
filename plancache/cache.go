// Package plancache implements the fingerprint-keyed plan cache from
// spec.md §4.6: lookup by the canonical fingerprint of an incoming logical
// plan, LRU eviction once a size limit is reached, sharded so concurrent
// Get/Put calls from different workers don't serialize on one lock.
// Grounded on the Get/Put/Stats shape of the kasuganosora-sqlexec
// plan-cache reference file, with eviction delegated to
// github.com/elastic/go-freelru (adopted from AKJUS-bsc-erigon's
// dependency set) instead of that file's hand-rolled evictOne scan.
package plancache

import (
	"hash/fnv"
	"sync/atomic"

	"github.com/elastic/go-freelru"

	"qcore/plan"
)

// numShards is fixed rather than configurable: spec.md §4.6 asks for
// "per-shard locking," not a tunable shard count, and 16 shards is enough
// to keep lock contention off the hot Query path at the engine's target
// core counts (spec.md §5: worker pool capped at 32).
const numShards = 16

// Cache is a fingerprint-keyed, sharded LRU of optimized logical plans.
type Cache struct {
	shards [numShards]*freelru.LRU[uint64, plan.Node]

	hits    atomic.Int64
	misses  atomic.Int64
	entries atomic.Int64
}

// New builds a Cache with the given total capacity, split evenly across
// shards (each shard gets at least 1 slot).
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 100
	}
	perShard := capacity / numShards
	if perShard < 1 {
		perShard = 1
	}
	c := &Cache{}
	for i := range c.shards {
		lru, err := freelru.New[uint64, plan.Node](uint32(perShard), hashFingerprintKey)
		if err != nil {
			// Only possible if perShard is invalid, which the clamp above
			// already prevents; a panic here means that invariant broke.
			panic(err)
		}
		c.shards[i] = lru
	}
	return c
}

func hashFingerprintKey(k uint64) uint32 { return uint32(k) ^ uint32(k>>32) }

// fingerprintKey hashes a plan.Fingerprint string to the uint64 key
// freelru stores, and is also used to pick a shard by its low bits.
func fingerprintKey(fingerprint string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fingerprint))
	return h.Sum64()
}

func (c *Cache) shardFor(key uint64) *freelru.LRU[uint64, plan.Node] {
	return c.shards[key&(numShards-1)]
}

// Get looks up a previously optimized plan by its canonical fingerprint.
func (c *Cache) Get(fingerprint string) (plan.Node, bool) {
	key := fingerprintKey(fingerprint)
	n, ok := c.shardFor(key).Get(key)
	if ok {
		c.hits.Add(1)
		return n, true
	}
	c.misses.Add(1)
	return nil, false
}

// Put inserts an optimized plan under its fingerprint. Per spec.md §4.6,
// "inserting when the key already exists is a no-op" — a cache entry is
// immutable once written.
func (c *Cache) Put(fingerprint string, n plan.Node) {
	key := fingerprintKey(fingerprint)
	shard := c.shardFor(key)
	if _, exists := shard.Get(key); exists {
		return
	}
	evicted := shard.Add(key, n)
	if !evicted {
		c.entries.Add(1)
	}
}

// Stats returns the cache's hit/miss/entry-count counters, updated
// atomically so concurrent Get/Put from multiple workers never race on
// the counters themselves (spec.md §4.6: "statistics counters ... updated
// atomically").
func (c *Cache) Stats() (hits, misses, entries int64) {
	return c.hits.Load(), c.misses.Load(), c.entries.Load()
}
