package deserializer

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/btraceio/jafar-sub003/internal/callgroup"
	"github.com/btraceio/jafar-sub003/internal/valuereader"
)

// MaxSize is the LRU eviction ceiling (§4.6: "LRU eviction at max_size =
// 1000").
const MaxSize = 1000

// Stats is a point-in-time snapshot of Cache's counters (§4.6: "statistics
// counters hits, misses, evictions, plus derived hit_rate").
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns Hits / (Hits + Misses), or 0 if the cache has never been
// queried.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a shape-keyed LRU of built deserializers, shared by every chunk
// whose metadata fingerprint routed it here (§4.6). All operations are
// internally synchronised; the hit path performs an LRU access-order touch
// via the underlying golang-lru Cache.
type Cache struct {
	lru   *lru.Cache[Key, valuereader.UntypedDeserializer]
	group callgroup.Group[Key, valuereader.UntypedDeserializer]

	mu        sync.Mutex
	hits      uint64
	misses    uint64
	evictions uint64
	onEvict   func(Key)
}

// NewCache returns an empty Cache bounded to MaxSize entries. onEvict, if
// non-nil, is called (synchronously, after the cache's lock is released) whenever the
// LRU evicts an entry; it exists purely for diagnostics (SPEC_FULL §D) and
// has no effect on decode correctness.
func NewCache(onEvict func(Key)) *Cache {
	return NewCacheSize(MaxSize, onEvict)
}

// NewCacheSize returns an empty Cache bounded to maxSize entries. maxSize <=
// 0 falls back to MaxSize (§6: "deserializer_cache_max (default 1000)").
func NewCacheSize(maxSize int, onEvict func(Key)) *Cache {
	if maxSize <= 0 {
		maxSize = MaxSize
	}
	c := &Cache{onEvict: onEvict}
	evictCb := func(key Key, _ valuereader.UntypedDeserializer) {
		c.mu.Lock()
		c.evictions++
		cb := c.onEvict
		c.mu.Unlock()
		if cb != nil {
			cb(key)
		}
	}
	// lru.NewWithEvict only errors for size <= 0, which maxSize never is here.
	l, _ := lru.NewWithEvict[Key, valuereader.UntypedDeserializer](maxSize, evictCb)
	c.lru = l
	return c
}

// GetOrBuild returns the cached deserializer for key, building it via
// build if absent. Concurrent GetOrBuild calls for the same key that miss
// simultaneously are deduplicated through callgroup: build runs once, and
// every caller observes its result (§4.6 acceptance: "build is invoked at
// most once per distinct key even under concurrent chunk decoding").
func (c *Cache) GetOrBuild(key Key, build func() (valuereader.UntypedDeserializer, error)) (valuereader.UntypedDeserializer, error) {
	if d, ok := c.lru.Get(key); ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return d, nil
	}

	d, err := c.group.Do(key, build)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	c.lru.Add(key, d)
	return d, nil
}

// Stats returns a snapshot of the cache's counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions}
}
