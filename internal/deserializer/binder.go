package deserializer

import (
	"github.com/btraceio/jafar-sub003/internal/metadata"
	"github.com/btraceio/jafar-sub003/internal/valuereader"
)

// Binder attaches a Cache to a chunk's MetadataLookup, implementing
// metadata.DeserializerBinder. It is the thing Lookup.BindDeserializers
// calls once metadata is ready (§4.2: "bind_deserializers() iterates all
// classes and builds/caches deserializers and skippers").
type Binder struct {
	cache *Cache
}

// NewBinder returns a Binder backed by cache.
func NewBinder(cache *Cache) *Binder {
	return &Binder{cache: cache}
}

// Bind warms cache for c's shape. Binding ahead of time means the first
// event of each class decoded during the chunk's event loop is already a
// cache hit rather than a cache miss on the hot path.
func (b *Binder) Bind(c *metadata.Class, lookup *metadata.Lookup) error {
	_, err := b.DeserializerFor(c, lookup)
	return err
}

// DeserializerFor returns (building and caching if necessary) the
// untyped deserializer for c's current shape.
func (b *Binder) DeserializerFor(c *metadata.Class, lookup *metadata.Lookup) (valuereader.UntypedDeserializer, error) {
	key := NewKey(c, lookup)
	return b.cache.GetOrBuild(key, func() (valuereader.UntypedDeserializer, error) {
		return valuereader.ChooseUntypedDeserializer(c, lookup), nil
	})
}

var _ metadata.DeserializerBinder = (*Binder)(nil)
