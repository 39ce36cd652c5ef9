// Package listener declares the consumer-facing callback contract (§4.7,
// §6) and the per-chunk Context passed to every callback.
package listener

import (
	"errors"
	"sync"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/constantpool"
	"github.com/btraceio/jafar-sub003/internal/metadata"
	"github.com/btraceio/jafar-sub003/internal/valuereader"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// CPRef identifies a constant-pool-backed field value as produced by the
// generic value walk (§4.5): the class whose pool it lives in, and its id
// within that pool. Re-exported here so a consumer calling ResolveCPRef
// never needs to import internal/valuereader.
type CPRef = valuereader.CPRef

// DeserializerSource resolves a class's cached untyped deserializer,
// built and warmed once per chunk fingerprint (§4.6). Implemented by
// *internal/deserializer.Binder; declared here, rather than imported, so
// this package depends only on the narrow slice of that package's API
// DecodeEvent actually needs.
type DeserializerSource interface {
	DeserializerFor(c *metadata.Class, lookup *metadata.Lookup) (valuereader.UntypedDeserializer, error)
}

// ErrDecodeNotReady is returned by DecodeEvent and ResolveCPRef when
// called before BindDecoder, and by ResolveCPRef when called before the
// chunk's constant pools exist (e.g. from OnMetadata).
var ErrDecodeNotReady = errors.New("listener: decode facilities not bound for this chunk")

// Context is the per-chunk ParserContext (§3): the state a chunk's task
// builds up as it progresses through metadata, checkpoints, and events,
// and the state every Listener callback receives. A Context is owned
// exclusively by the goroutine decoding its chunk and is never published
// to another chunk's task.
type Context struct {
	ChunkIndex int // 1-based position of the chunk in the recording

	Metadata      *metadata.Lookup
	StringTable   *metadata.StringTable
	ConstantPools *constantpool.ConstantPools
	TypeFilter    func(*metadata.Class) bool

	// Scratch buffers reused across string/array reads within this chunk
	// (§3: "small reusable parse buffers (byte and char, 4096 each)").
	Scratch *wire.Scratch

	mu            sync.RWMutex
	metadataReady bool
	poolsReady    bool
	bag           map[string]any

	src           *bytesource.Source
	fastVarint    bool
	deserializers DeserializerSource
}

// NewContext returns an empty Context for the given chunk index, with a
// fresh Scratch buffer pair.
func NewContext(chunkIndex int) *Context {
	return &Context{
		ChunkIndex: chunkIndex,
		Scratch:    &wire.Scratch{Bytes: make([]byte, 0, 4096), Chars: make([]uint16, 0, 4096)},
	}
}

// MetadataReady reports whether the chunk's metadata event has been read.
func (c *Context) MetadataReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metadataReady
}

func (c *Context) setMetadataReady() {
	c.mu.Lock()
	c.metadataReady = true
	c.mu.Unlock()
}

// MarkMetadataReady flips the metadata-ready flag. Called by chunkio once
// the chunk's metadata event has been fully parsed.
func (c *Context) MarkMetadataReady() {
	c.setMetadataReady()
}

// ConstantPoolsReady reports whether the chunk's checkpoint chain has been
// fully read.
func (c *Context) ConstantPoolsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.poolsReady
}

func (c *Context) setConstantPoolsReady() {
	c.mu.Lock()
	c.poolsReady = true
	c.mu.Unlock()
}

// MarkConstantPoolsReady flips the pools-ready flag. Called by chunkio once
// the chunk's checkpoint chain has been fully read.
func (c *Context) MarkConstantPoolsReady() {
	c.setConstantPoolsReady()
}

// BindDecoder equips the Context with what DecodeEvent and ResolveCPRef
// need to do their own reads against the chunk's bytes: the chunk's byte
// source, the deserializer cache bound to this chunk's metadata
// fingerprint, and the varint decoding mode in effect. Called by chunkio
// once the chunk's metadata event has been parsed.
func (c *Context) BindDecoder(src *bytesource.Source, deserializers DeserializerSource, fastVarint bool) {
	c.src = src
	c.deserializers = deserializers
	c.fastVarint = fastVarint
}

// DecodeEvent decodes the event typeID currently refers to, via the
// cached deserializer for that class (§4.6). Call it from within OnEvent,
// before returning: the chunk's byte source is positioned at the event's
// payload only for the duration of that callback, since decodeEvents
// seeks past the event right after OnEvent returns.
func (c *Context) DecodeEvent(typeID uint64) (any, error) {
	if c.src == nil || c.deserializers == nil {
		return nil, ErrDecodeNotReady
	}
	cls, err := c.Metadata.GetClassByID(typeID)
	if err != nil {
		return nil, err
	}
	d, err := c.deserializers.DeserializerFor(cls, c.Metadata)
	if err != nil {
		return nil, err
	}
	return d.Deserialize(c.src, c.Metadata, c.StringTable, c.Scratch, c.fastVarint)
}

// ResolveCPRef resolves a CPRef surfaced by a decoded event's generic
// value walk against this chunk's constant pools (§4.5: "CP-referenced
// fields are stored as the raw id and resolved lazily"). found is false
// if ref's pool, or ref's id within it, is absent (§4.3: a ConstantPool
// returns null for an unknown id rather than erroring).
func (c *Context) ResolveCPRef(ref CPRef) (any, bool, error) {
	if c.src == nil || c.ConstantPools == nil {
		return nil, false, ErrDecodeNotReady
	}
	pool, ok := c.ConstantPools.Get(ref.ClassID)
	if !ok {
		return nil, false, nil
	}
	decoder := &valuereader.CPDecoder{
		Lookup:     c.Metadata,
		Table:      c.StringTable,
		Scratch:    c.Scratch,
		FastVarint: c.fastVarint,
	}
	return pool.Get(c.src, ref.ID, decoder)
}

// Put stores a value in the Context's plug-in state bag under key. The bag
// lives only as long as the Context itself (discarded when the chunk's
// task completes), so it is not a substitute for cross-chunk state.
func (c *Context) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bag == nil {
		c.bag = make(map[string]any)
	}
	c.bag[key] = value
}

// Get returns a value previously stored with Put.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.bag[key]
	return v, ok
}
