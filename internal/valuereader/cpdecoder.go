package valuereader

import (
	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/metadata"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// CPDecoder adapts a walk over a chunk's MetadataLookup into
// constantpool.ValueDecoder: decoding a constant-pool entry is just
// walking one value of the entry's declared class, the same as decoding
// any other nested value.
//
// scratch is reused across Decode calls; this is safe because
// ConstantPool.Get only ever invokes Decode while holding that pool's own
// lock, so calls through one CPDecoder never run concurrently against the
// same chunk's pools.
type CPDecoder struct {
	Lookup     *metadata.Lookup
	Table      wire.StringTable
	Scratch    *wire.Scratch
	FastVarint bool
}

// Decode implements constantpool.ValueDecoder.
func (d *CPDecoder) Decode(src *bytesource.Source, classID uint64) (any, error) {
	cls, err := d.Lookup.GetClassByID(classID)
	if err != nil {
		return nil, err
	}
	tv := NewTreeVisitor()
	if err := WalkValue(src, cls, d.Lookup, d.Table, d.Scratch, cls.Name, tv, d.FastVarint); err != nil {
		return nil, err
	}
	return tv.Result(), nil
}
