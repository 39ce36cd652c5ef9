package wire

import (
	"errors"
	"math"
	"testing"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 127, 128, 129, 16383, 16384,
		1 << 20, 1<<28 - 1, 1 << 35, 1 << 49, 1 << 56,
		math.MaxUint32, math.MaxUint64, math.MaxUint64 - 1,
	}
	for _, v := range values {
		buf := EncodeVarint(nil, v)
		for _, fast := range []bool{true, false} {
			src := bytesource.FromBytes(append(append([]byte{}, buf...), make([]byte, 16)...))
			got, err := ReadVarint(src, fast)
			if err != nil {
				t.Fatalf("v=%d fast=%v: %v", v, fast, err)
			}
			if got != v {
				t.Fatalf("v=%d fast=%v: got %d", v, fast, got)
			}
			if src.Position() != int64(len(buf)) {
				t.Fatalf("v=%d fast=%v: position %d, want %d", v, fast, src.Position(), len(buf))
			}
		}
	}
}

func TestVarintSWARMatchesSequentialPosition(t *testing.T) {
	// A 9-byte varint with the MSB set in byte 8 (index 7): the stop byte
	// must be byte index 8 (the 9th byte), which contributes all 8 bits.
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	for _, fast := range []bool{true, false} {
		src := bytesource.FromBytes(append(append([]byte{}, buf...), 0xAA))
		v, err := ReadVarint(src, fast)
		if err != nil {
			t.Fatalf("fast=%v: %v", fast, err)
		}
		if src.Position() != 9 {
			t.Fatalf("fast=%v: position %d, want 9", fast, src.Position())
		}
		// low 56 bits all 1 (from 8 continuation bytes' 7-bit payloads),
		// plus byte 9's full 8 bits (0x01) shifted into bit 56.
		want := uint64(1)<<56 | (uint64(1)<<56 - 1)
		if v != want {
			t.Fatalf("fast=%v: v=%#x want %#x", fast, v, want)
		}
	}
}

func TestVarintTruncated(t *testing.T) {
	// 8 continuation bytes followed by EOF, one byte short of the 9th
	// (always-stop) byte: both paths must report a short read, not a
	// fabricated value.
	for _, fast := range []bool{true, false} {
		short := bytesource.FromBytes([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80})
		if _, err := ReadVarint(short, fast); !errors.Is(err, bytesource.ErrShortRead) {
			t.Fatalf("fast=%v: got %v, want ErrShortRead", fast, err)
		}
	}
}
