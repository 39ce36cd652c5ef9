package constantpool

import (
	"testing"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
)

type fixedDecoder struct {
	calls int
}

func (d *fixedDecoder) Decode(src *bytesource.Source, classID uint64) (any, error) {
	d.calls++
	b, err := src.ReadU8()
	if err != nil {
		return nil, err
	}
	return int(b), nil
}

func TestGetMaterialisesOnceAndRestoresPosition(t *testing.T) {
	data := []byte{0xAA, 42, 0xBB}
	src := bytesource.FromBytes(data)

	pool := newConstantPool(7, 1)
	pool.AddOffset(1, 1) // value byte at index 1

	decoder := &fixedDecoder{}

	if err := src.Seek(0); err != nil {
		t.Fatal(err)
	}
	v1, ok, err := pool.Get(src, 1, decoder)
	if err != nil || !ok {
		t.Fatalf("Get: v=%v ok=%v err=%v", v1, ok, err)
	}
	if v1 != 42 {
		t.Fatalf("got %v, want 42", v1)
	}
	if src.Position() != 0 {
		t.Fatalf("position not restored: %d", src.Position())
	}

	v2, ok, err := pool.Get(src, 1, decoder)
	if err != nil || !ok || v2 != 42 {
		t.Fatalf("second Get: v=%v ok=%v err=%v", v2, ok, err)
	}
	if decoder.calls != 1 {
		t.Fatalf("decoder called %d times, want 1 (at-most-once materialisation)", decoder.calls)
	}
}

func TestGetUnknownIDReturnsFalseNotError(t *testing.T) {
	src := bytesource.FromBytes([]byte{0})
	pool := newConstantPool(7, 0)
	v, ok, err := pool.Get(src, 99, &fixedDecoder{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || v != nil {
		t.Fatalf("got v=%v ok=%v, want nil,false", v, ok)
	}
}

func TestAddOffsetFirstWins(t *testing.T) {
	pool := newConstantPool(1, 0)
	pool.AddOffset(5, 10)
	pool.AddOffset(5, 20)
	if !pool.Contains(5) {
		t.Fatal("expected id 5 to be present")
	}
}

// sequentialSkipper advances by a fixed number of bytes per call,
// independent of classID, modelling a single-field fixed-width type.
// unknown, if set, marks the one class id Known reports as absent.
type sequentialSkipper struct {
	width   int64
	unknown uint64
	hasUnk  bool
}

func (s sequentialSkipper) Skip(src *bytesource.Source, classID uint64) error {
	return src.Skip(s.width)
}

func (s sequentialSkipper) Known(classID uint64) bool {
	return !(s.hasUnk && classID == s.unknown)
}

func TestReadCheckpointChainSingleLink(t *testing.T) {
	var buf []byte
	buf = appendVarint(buf, 0)          // size (unused by reader)
	buf = appendVarint(buf, 1)          // checkpoint marker
	buf = appendVarint(buf, 100)        // startTime
	buf = appendVarint(buf, 0)          // duration
	buf = appendVarint(buf, 0)          // next_offset_delta = 0 (end of chain)
	buf = append(buf, 0)                // isFlush = false
	buf = appendVarint(buf, 1)          // cpCount = 1 type
	buf = appendVarint(buf, 42)         // typeID
	buf = appendVarint(buf, 2)          // count of entries
	buf = appendVarint(buf, 1)          // id 1
	buf = append(buf, 0xAA)             // value byte for id 1
	buf = appendVarint(buf, 2)          // id 2
	buf = append(buf, 0xBB)             // value byte for id 2

	src := bytesource.FromBytes(buf)
	cps := NewConstantPools()
	skipper := sequentialSkipper{width: 1}

	if _, err := ReadCheckpointChain(src, cps, nil, skipper, true, nil); err != nil {
		t.Fatalf("ReadCheckpointChain: %v", err)
	}
	if !cps.Ready() {
		t.Fatal("expected pools ready after chain exhausted")
	}

	pool, ok := cps.Get(42)
	if !ok {
		t.Fatal("expected pool for type 42")
	}
	if pool.Len() != 2 {
		t.Fatalf("pool has %d offsets, want 2", pool.Len())
	}
}

func TestReadCheckpointChainZeroTypeIDWriterBug(t *testing.T) {
	var buf []byte
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 1)
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 0)
	buf = append(buf, 0)
	buf = appendVarint(buf, 1)  // cpCount = 1
	buf = appendVarint(buf, 0) // spurious zero type id
	buf = appendVarint(buf, 9) // the real type id, read via the single retry
	buf = appendVarint(buf, 1) // count = 1
	buf = appendVarint(buf, 1) // id 1
	buf = append(buf, 0xCC)

	src := bytesource.FromBytes(buf)
	cps := NewConstantPools()
	if _, err := ReadCheckpointChain(src, cps, nil, sequentialSkipper{width: 1}, true, nil); err != nil {
		t.Fatalf("ReadCheckpointChain: %v", err)
	}
	if _, ok := cps.Get(9); !ok {
		t.Fatal("expected pool for recovered type id 9")
	}
}

func TestReadCheckpointChainFilterSkipsButAdvances(t *testing.T) {
	var buf []byte
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 1)
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 0)
	buf = append(buf, 0)
	buf = appendVarint(buf, 1)
	buf = appendVarint(buf, 42)
	buf = appendVarint(buf, 1)
	buf = appendVarint(buf, 1)
	buf = append(buf, 0xAA)
	buf = append(buf, 0xFF) // sentinel after the checkpoint body

	src := bytesource.FromBytes(buf)
	cps := NewConstantPools()
	reject := func(typeID uint64) bool { return false }

	if _, err := ReadCheckpointChain(src, cps, reject, sequentialSkipper{width: 1}, true, nil); err != nil {
		t.Fatalf("ReadCheckpointChain: %v", err)
	}
	pool, ok := cps.Get(42)
	if !ok {
		t.Fatal("expected pool to still be created even when filtered out")
	}
	if pool.Len() != 0 {
		t.Fatalf("filtered type should record no offsets, got %d", pool.Len())
	}
	if src.Position() != int64(len(buf)-1) {
		t.Fatalf("position = %d, want %d (filtered value skipped, sentinel unread)", src.Position(), len(buf)-1)
	}
}

func TestReadCheckpointChainOnCheckpointStopsEarly(t *testing.T) {
	var buf []byte
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 1)
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 0) // next_offset_delta = 0, chain would end naturally too
	buf = append(buf, 0)
	buf = appendVarint(buf, 0) // cpCount = 0

	src := bytesource.FromBytes(buf)
	cps := NewConstantPools()
	calls := 0

	cont, err := ReadCheckpointChain(src, cps, nil, sequentialSkipper{width: 1}, true, func() bool {
		calls++
		return false
	})
	if err != nil {
		t.Fatalf("ReadCheckpointChain: %v", err)
	}
	if cont {
		t.Fatal("expected cont=false when onCheckpoint stops the chain")
	}
	if calls != 1 {
		t.Fatalf("onCheckpoint called %d times, want 1", calls)
	}
	if !cps.Ready() {
		t.Fatal("expected pools marked ready even when the chain stops early")
	}
}

func TestReadOneCheckpointUnknownTypeIDIsNonFatal(t *testing.T) {
	var buf []byte
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 1)
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 0)
	buf = appendVarint(buf, 77) // next_offset_delta, read before the unknown type aborts the rest
	buf = append(buf, 0)
	buf = appendVarint(buf, 1)  // cpCount = 1 type group
	buf = appendVarint(buf, 99) // typeID with no metadata class
	buf = appendVarint(buf, 2)  // count = 2 entries (never read: layout is unknown)

	src := bytesource.FromBytes(buf)
	cps := NewConstantPools()
	skipper := sequentialSkipper{width: 1, unknown: 99, hasUnk: true}

	delta, err := ReadOneCheckpoint(src, cps, nil, skipper, true)
	if err != nil {
		t.Fatalf("ReadOneCheckpoint: %v", err)
	}
	if delta != 77 {
		t.Fatalf("delta = %d, want 77", delta)
	}
	if _, ok := cps.Get(99); ok {
		t.Fatal("expected no pool recorded for an unknown type id")
	}
}

func appendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}
