package census

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const shardCount = 32

// Cache is a process-wide concurrent map from directory path to its last
// computed file count. Keys are sharded by path hash so workers and the UI
// consumer never contend on a single lock. Entries are never evicted and
// never revalidated against the live filesystem.
//
// A key can be in one of three states: absent, claimed (a count is being
// computed) and ready. Claim is the atomic absent-to-claimed transition that
// keeps two concurrent refreshes of the same directory from submitting the
// same counting job twice.
type Cache struct {
	shards [shardCount]cacheShard
}

type cacheShard struct {
	mu sync.RWMutex
	m  map[string]cacheEntry
}

type cacheEntry struct {
	count int64
	ready bool
}

func NewCache() *Cache {
	c := &Cache{}
	for i := range c.shards {
		c.shards[i].m = make(map[string]cacheEntry)
	}
	return c
}

func (c *Cache) shard(path string) *cacheShard {
	return &c.shards[xxhash.Sum64String(path)%shardCount]
}

// Get returns the ready count for path. Claimed-but-unfinished entries
// report a miss.
func (c *Cache) Get(path string) (int64, bool) {
	s := c.shard(path)
	s.mu.RLock()
	e, ok := s.m[path]
	s.mu.RUnlock()
	if !ok || !e.ready {
		return 0, false
	}
	return e.count, true
}

// Put stores the count for path, overwriting any previous value. Idempotent:
// storing the same pair twice is harmless, and a later Put wins.
func (c *Cache) Put(path string, count int64) {
	s := c.shard(path)
	s.mu.Lock()
	s.m[path] = cacheEntry{count: count, ready: true}
	s.mu.Unlock()
}

// Claim marks path as being counted. It reports true only for the caller
// that moved the key from absent to claimed; everyone else should wait for
// the result to arrive instead of submitting another job.
func (c *Cache) Claim(path string) bool {
	s := c.shard(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[path]; ok {
		return false
	}
	s.m[path] = cacheEntry{}
	return true
}

// Len reports the number of known paths, ready or claimed.
func (c *Cache) Len() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}
