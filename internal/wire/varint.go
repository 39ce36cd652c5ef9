// Package wire implements the JFR-specific encodings that sit directly on
// top of a bytesource.Source: the continuation-bit varint (with an optional
// SWAR fast path) and the six-way string encoding used throughout metadata,
// checkpoint, and event payloads.
package wire

import (
	"errors"
	"math/bits"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
)

// ErrMalformedVarint is returned when a varint does not terminate within 9
// bytes (the maximum a JFR varint can occupy).
var ErrMalformedVarint = errors.New("wire: malformed varint (no stop byte in 9 bytes)")

const maxVarintBytes = 9

// ReadVarint decodes a JFR-flavoured LEB128 varint: up to 8 bytes with a
// 0x80 continuation bit contributing 7 payload bits each, and a 9th byte
// (reached only if the first 8 all had the continuation bit set) that
// contributes a full 8 bits instead of 7.
//
// When fastPath is true and at least 9 bytes remain in src, the SWAR path
// is used: it reads all 9 candidate bytes in one slice access and locates
// the stop byte via the continuation-bit bitmap rather than branching byte
// by byte. With fewer than 9 bytes remaining (end of chunk, or fastPath
// disabled) it falls back to the sequential path. Both paths must produce
// identical values and leave src positioned identically for any input;
// callers may toggle fastPath per Options without changing semantics.
func ReadVarint(src *bytesource.Source, fastPath bool) (uint64, error) {
	if fastPath && src.Remaining() >= maxVarintBytes {
		return readVarintSWAR(src)
	}
	return readVarintSequential(src)
}

func readVarintSequential(src *bytesource.Source) (uint64, error) {
	var result uint64
	for i := 0; i < maxVarintBytes; i++ {
		b, err := src.ReadU8()
		if err != nil {
			return 0, err
		}
		if i == maxVarintBytes-1 {
			// 9th byte: contributes all 8 bits, no continuation check.
			result |= uint64(b) << (7 * i)
			return result, nil
		}
		result |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, ErrMalformedVarint
}

// readVarintSWAR reads the 9 candidate bytes in one shot and finds the stop
// byte by building a bitmap of continuation bits and locating its first
// zero (the "SIMD within a register" trick: batch the branch-per-byte work
// of the sequential decoder into a handful of word-sized operations).
func readVarintSWAR(src *bytesource.Source) (uint64, error) {
	buf, err := src.Peek(maxVarintBytes)
	if err != nil {
		return 0, err
	}

	// contMask has bit i set iff buf[i] has its continuation bit (0x80) set,
	// for i in [0,8). The 9th byte (i==8) never has a continuation bit to
	// check, so it is excluded from the mask.
	var contMask uint16
	for i := 0; i < maxVarintBytes-1; i++ {
		if buf[i]&0x80 != 0 {
			contMask |= 1 << uint(i)
		}
	}

	// The stop byte is the first byte (0..7) without its continuation bit
	// set, i.e. the first zero bit in contMask. If all 8 have it set, the
	// 9th byte is the (full 8-bit) stop byte.
	inverted := (^contMask) & 0x00ff
	var stop int
	if inverted == 0 {
		stop = maxVarintBytes - 1
	} else {
		stop = bits.TrailingZeros16(inverted)
	}

	var result uint64
	for i := 0; i <= stop; i++ {
		if i == maxVarintBytes-1 {
			result |= uint64(buf[i]) << (7 * i)
		} else {
			result |= uint64(buf[i]&0x7f) << (7 * i)
		}
	}

	if err := src.Skip(int64(stop + 1)); err != nil {
		return 0, err
	}
	return result, nil
}
