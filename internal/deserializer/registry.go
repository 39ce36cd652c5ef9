package deserializer

import (
	"sync"

	"github.com/btraceio/jafar-sub003/internal/metadata"
)

// Registry maps a chunk's metadata.Fingerprint to the Cache shared by
// every chunk using this registry (in this recording or another) whose
// type system hashes the same. Global returns the process-wide instance;
// NewRegistry and NewRegistrySize create independent ones.
type Registry struct {
	mu     sync.Mutex
	caches map[metadata.Fingerprint]*Cache

	// maxSize bounds every Cache this registry creates. Zero falls back to
	// MaxSize (§6: "deserializer_cache_max (default 1000)").
	maxSize int

	// onEvict is threaded into every Cache this registry creates; set via
	// NewRegistry so callers don't need a setter invoked after caches may
	// already have been created.
	onEvict func(Key)
}

// NewRegistry returns an empty registry whose caches are bounded to
// MaxSize. onEvict is forwarded to every Cache it creates (see
// NewCache); pass nil for no diagnostics hook.
func NewRegistry(onEvict func(Key)) *Registry {
	return NewRegistrySize(MaxSize, onEvict)
}

// NewRegistrySize returns an empty registry whose caches are bounded to
// maxSize entries. maxSize <= 0 falls back to MaxSize.
func NewRegistrySize(maxSize int, onEvict func(Key)) *Registry {
	return &Registry{caches: make(map[metadata.Fingerprint]*Cache), maxSize: maxSize, onEvict: onEvict}
}

// GetOrCreate returns the Cache for fp, creating an empty one on first
// request for that fingerprint.
func (r *Registry) GetOrCreate(fp metadata.Fingerprint) *Cache {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.caches[fp]; ok {
		return c
	}
	c := NewCacheSize(r.maxSize, r.onEvict)
	r.caches[fp] = c
	return c
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide Registry singleton, creating it (with no
// eviction hook) on first use.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry(nil)
	})
	return global
}
