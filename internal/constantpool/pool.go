// Package constantpool implements the per-chunk constant pool system
// (§4.3): checkpoint events declare (type id -> [(id, offset)]) mappings,
// and values are decoded lazily, at most once per (type, id), on first
// lookup by a consumer walking an event that references them.
package constantpool

import (
	"sync"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
)

// ValueDecoder decodes one constant-pool value in place, with src
// positioned at the value's offset. Implemented by internal/valuereader;
// kept as a narrow interface so constantpool has no dependency on it.
type ValueDecoder interface {
	Decode(src *bytesource.Source, classID uint64) (any, error)
}

// ConstantPool holds the id -> offset mapping recorded from checkpoint
// events for one type, plus a lazily-populated id -> value cache.
// Invariant: Get materialises a given id's value at most once (§4.3,
// acceptance: "repeated calls return equal values").
type ConstantPool struct {
	typeID uint64

	mu      sync.Mutex
	offsets map[uint64]int64
	values  map[uint64]any
}

func newConstantPool(typeID uint64, expectedCount int) *ConstantPool {
	if expectedCount < 0 {
		expectedCount = 0
	}
	return &ConstantPool{
		typeID:  typeID,
		offsets: make(map[uint64]int64, expectedCount),
		values:  make(map[uint64]any),
	}
}

// TypeID returns the class id this pool holds values for.
func (p *ConstantPool) TypeID() uint64 {
	return p.typeID
}

// AddOffset records where id's encoded value begins. The first offset
// recorded for a given id wins; a later checkpoint re-declaring the same
// id (which a conforming writer should not do) is ignored rather than
// clobbering an already-known location.
func (p *ConstantPool) AddOffset(id uint64, offset int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.offsets[id]; ok {
		return
	}
	p.offsets[id] = offset
}

// Contains reports whether id has a recorded offset (not necessarily a
// materialised value yet).
func (p *ConstantPool) Contains(id uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.offsets[id]
	return ok
}

// Len returns the number of offsets recorded, regardless of how many have
// been materialised.
func (p *ConstantPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.offsets)
}

// Get returns id's materialised value, decoding it on first request. A
// ConstantPool returns (nil, false, nil) for an unknown id rather than an
// error (§4: "A ConstantPool returns null for unknown ids; it does not
// throw"). src is repositioned to the value's offset and restored before
// Get returns, under the pool's own lock, so concurrent callers sharing
// one ByteSource don't observe each other's seeks mid-decode.
func (p *ConstantPool) Get(src *bytesource.Source, id uint64, decoder ValueDecoder) (any, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.values[id]; ok {
		return v, true, nil
	}

	offset, ok := p.offsets[id]
	if !ok {
		return nil, false, nil
	}

	restore := src.Position()
	if err := src.Seek(offset); err != nil {
		return nil, false, err
	}
	v, err := decoder.Decode(src, p.typeID)
	if seekErr := src.Seek(restore); seekErr != nil && err == nil {
		err = seekErr
	}
	if err != nil {
		return nil, false, err
	}

	p.values[id] = v
	return v, true, nil
}
