package constantpool

import "sync"

// TypeFilter decides whether a given class's constant-pool values are
// worth materialising (§3: "optional TypeFilter (predicate over
// MetadataClass)"). A nil filter accepts every type. It is declared here
// as a predicate over a class id rather than *metadata.Class so this
// package does not need to import internal/metadata; callers that want to
// filter by class attributes close over a *metadata.Lookup themselves.
type TypeFilter func(typeID uint64) bool

// ConstantPools is the per-chunk registry of ConstantPool instances, one
// per referenced type id, plus the readiness flag flipped once the last
// checkpoint in the chunk's chain has been read (§4.3).
type ConstantPools struct {
	mu    sync.RWMutex
	pools map[uint64]*ConstantPool
	ready bool
}

// NewConstantPools returns an empty, not-yet-ready registry.
func NewConstantPools() *ConstantPools {
	return &ConstantPools{pools: make(map[uint64]*ConstantPool)}
}

// AddOrGet returns the pool for typeID, creating it (seeded with
// expectedCount capacity) if this is the first time the type has been
// seen in this chunk's checkpoint chain.
func (cps *ConstantPools) AddOrGet(typeID uint64, expectedCount int) *ConstantPool {
	cps.mu.Lock()
	defer cps.mu.Unlock()
	if p, ok := cps.pools[typeID]; ok {
		return p
	}
	p := newConstantPool(typeID, expectedCount)
	cps.pools[typeID] = p
	return p
}

// Get returns the pool for typeID without creating one.
func (cps *ConstantPools) Get(typeID uint64) (*ConstantPool, bool) {
	cps.mu.RLock()
	defer cps.mu.RUnlock()
	p, ok := cps.pools[typeID]
	return p, ok
}

// SetReady marks every pool in this chunk as fully populated: called once
// after the checkpoint chain (possibly spanning several linked events) has
// been read to exhaustion.
func (cps *ConstantPools) SetReady() {
	cps.mu.Lock()
	defer cps.mu.Unlock()
	cps.ready = true
}

// Ready reports whether SetReady has been called.
func (cps *ConstantPools) Ready() bool {
	cps.mu.RLock()
	defer cps.mu.RUnlock()
	return cps.ready
}

// TypeIDs returns every type id with a registered pool, in no particular
// order. Used by deserializer binding to know which types carry
// constant-pool-backed fields.
func (cps *ConstantPools) TypeIDs() []uint64 {
	cps.mu.RLock()
	defer cps.mu.RUnlock()
	ids := make([]uint64, 0, len(cps.pools))
	for id := range cps.pools {
		ids = append(ids, id)
	}
	return ids
}
