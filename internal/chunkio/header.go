// Package chunkio locates chunks within a recording and drives one
// chunk's decode: reading its header, its metadata event, its checkpoint
// chain, and then iterating its generic events (§4.7).
package chunkio

import (
	"errors"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
)

// Magic is the 4-byte JFR chunk signature ("FLR\0", SPEC_FULL §D).
var Magic = [4]byte{'F', 'L', 'R', 0}

// HeaderSize is the fixed on-disk size of a chunk header in bytes: 4-byte
// magic, 2+2-byte version, five 8-byte fields (chunk size, constant-pool
// offset, metadata offset, start-time, duration), two more 8-byte fields
// (start-ticks, ticks-per-second), and a 4-byte feature-flags word
// (SPEC_FULL §D).
const HeaderSize = 4 + 2 + 2 + 8*7 + 4

// Feature flags (SPEC_FULL §D). FeatureCompressedInts is recorded but not
// acted on: JFR integer compression is exactly the varint scheme this
// parser already speaks unconditionally.
const (
	FeatureChunkFinal     uint32 = 1 << 0
	FeatureCompressedInts uint32 = 1 << 1
)

// ErrBadMagic is returned when a would-be chunk header doesn't start with
// Magic; this always aborts the whole recording, since chunk boundaries
// can no longer be trusted once one is misread.
var ErrBadMagic = errors.New("chunkio: bad chunk magic")

// Header is one chunk's fixed-layout header.
type Header struct {
	MajorVersion       uint16
	MinorVersion       uint16
	Size               int64 // total chunk size in bytes, including this header
	ConstantPoolOffset int64 // offset of the first checkpoint event, relative to chunk start
	MetadataOffset     int64 // offset of the metadata event, relative to chunk start
	StartTimeNanos     int64
	DurationNanos      int64
	StartTicks         int64
	TicksPerSecond     int64
	Features           uint32
}

// Final reports whether FeatureChunkFinal is set: the writer will not
// append another chunk after this one.
func (h Header) Final() bool {
	return h.Features&FeatureChunkFinal != 0
}

// ReadHeader reads one Header from src at its current position, advancing
// src past it. src's byte order must already be set to the recording's
// order (big-endian by default; ReadHeader does not change it).
func ReadHeader(src *bytesource.Source) (Header, error) {
	var magic [4]byte
	raw, err := src.ReadBytes(4)
	if err != nil {
		return Header{}, err
	}
	copy(magic[:], raw)
	if magic != Magic {
		return Header{}, ErrBadMagic
	}

	var h Header
	if h.MajorVersion, err = src.ReadU16(); err != nil {
		return Header{}, err
	}
	if h.MinorVersion, err = src.ReadU16(); err != nil {
		return Header{}, err
	}
	if h.Size, err = src.ReadI64(); err != nil {
		return Header{}, err
	}
	if h.ConstantPoolOffset, err = src.ReadI64(); err != nil {
		return Header{}, err
	}
	if h.MetadataOffset, err = src.ReadI64(); err != nil {
		return Header{}, err
	}
	if h.StartTimeNanos, err = src.ReadI64(); err != nil {
		return Header{}, err
	}
	if h.DurationNanos, err = src.ReadI64(); err != nil {
		return Header{}, err
	}
	if h.StartTicks, err = src.ReadI64(); err != nil {
		return Header{}, err
	}
	if h.TicksPerSecond, err = src.ReadI64(); err != nil {
		return Header{}, err
	}
	if h.Features, err = src.ReadU32(); err != nil {
		return Header{}, err
	}
	return h, nil
}
