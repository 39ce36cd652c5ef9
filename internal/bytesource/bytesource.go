// Package bytesource provides a random-access, endian-aware view over a
// recording's bytes, memory-mapped when opened from a file. It is the
// leaf of the parser's data flow: every other package reads through a
// Source rather than touching an *os.File or []byte directly.
//
// A Source can be sliced into bounded sub-views that carry their own
// position cursor but share the parent's underlying mapping, so chunks can
// be handed off to independent goroutines without copying bytes.
package bytesource

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"syscall"
)

var (
	// ErrEmpty is returned when opening a zero-length file.
	ErrEmpty = errors.New("bytesource: file is empty")

	// ErrShortRead is returned when a scalar or string read runs past the
	// end of the source's view.
	ErrShortRead = errors.New("bytesource: short read")

	// ErrNegativeOffset is returned by Slice when from is negative.
	ErrNegativeOffset = errors.New("bytesource: negative offset")

	// ErrOutOfRange is returned by Slice when the requested view would
	// extend beyond the parent's bounds.
	ErrOutOfRange = errors.New("bytesource: slice out of range")
)

// Source is a bounded, random-access view over recording bytes.
//
// The zero value is not usable; construct one with Open or FromBytes, or
// derive one with Slice.
type Source struct {
	data  []byte // shared with parent; never mutated
	pos   int64  // cursor, relative to data[0]
	order binary.ByteOrder

	// owner is non-nil only for the Source that performed the mmap, so
	// that Close unmaps exactly once regardless of how many slices were
	// derived from it.
	owner *mapping
}

type mapping struct {
	file *os.File
	data []byte
}

// Open memory-maps the file at path read-only and returns a Source
// spanning the whole file, defaulting to big-endian (JFR's wire order).
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() == 0 {
		f.Close()
		return nil, ErrEmpty
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, int(info.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Source{
		data:  data,
		order: binary.BigEndian,
		owner: &mapping{file: f, data: data},
	}, nil
}

// FromBytes wraps an in-memory buffer, useful for tests and for callers who
// already hold the recording in memory. No file handle is involved; Close
// is a no-op.
func FromBytes(data []byte) *Source {
	return &Source{data: data, order: binary.BigEndian}
}

// Close unmaps the underlying mapping, if any. Safe to call on a Source
// derived via Slice; only the owning Source actually unmaps, and only once.
func (s *Source) Close() error {
	if s.owner == nil {
		return nil
	}
	owner := s.owner
	s.owner = nil
	var err error
	if owner.data != nil {
		err = syscall.Munmap(owner.data)
		owner.data = nil
	}
	if owner.file != nil {
		if cerr := owner.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// SetByteOrder overrides the byte order used for scalar reads. A Source
// starts out big-endian and a slice inherits its parent's order; nothing
// in the parser calls this, so every read is big-endian unless a caller
// overrides it.
func (s *Source) SetByteOrder(order binary.ByteOrder) {
	s.order = order
}

// Len returns the total length of this view, independent of position.
func (s *Source) Len() int64 {
	return int64(len(s.data))
}

// Position returns the current cursor, relative to the start of this view.
func (s *Source) Position() int64 {
	return s.pos
}

// Remaining returns the number of unread bytes in this view.
func (s *Source) Remaining() int64 {
	return int64(len(s.data)) - s.pos
}

// Seek repositions the cursor to an absolute offset within this view.
func (s *Source) Seek(pos int64) error {
	if pos < 0 || pos > int64(len(s.data)) {
		return ErrOutOfRange
	}
	s.pos = pos
	return nil
}

// Slice returns a new Source whose view is [from, from+size) of s's current
// view, with its own independent cursor starting at 0. The parent's cursor
// is unaffected. The child shares s's mapping ownership bookkeeping (it is
// never the owner), so closing a child never unmaps the parent.
func (s *Source) Slice(from, size int64) (*Source, error) {
	if from < 0 {
		return nil, ErrNegativeOffset
	}
	if size < 0 || from+size > int64(len(s.data)) {
		return nil, ErrOutOfRange
	}
	return &Source{
		data:  s.data[from : from+size],
		order: s.order,
	}, nil
}

func (s *Source) require(n int64) error {
	if s.Remaining() < n {
		return ErrShortRead
	}
	return nil
}

// ReadU8 reads one unsigned byte and advances the cursor.
func (s *Source) ReadU8() (uint8, error) {
	if err := s.require(1); err != nil {
		return 0, err
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

// ReadBool reads one byte as a boolean (non-zero is true).
func (s *Source) ReadBool() (bool, error) {
	b, err := s.ReadU8()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadI16 reads a 2-byte signed integer in the source's byte order.
func (s *Source) ReadI16() (int16, error) {
	if err := s.require(2); err != nil {
		return 0, err
	}
	v := int16(s.order.Uint16(s.data[s.pos : s.pos+2]))
	s.pos += 2
	return v, nil
}

// ReadU16 reads a 2-byte unsigned integer in the source's byte order.
func (s *Source) ReadU16() (uint16, error) {
	if err := s.require(2); err != nil {
		return 0, err
	}
	v := s.order.Uint16(s.data[s.pos : s.pos+2])
	s.pos += 2
	return v, nil
}

// ReadI32 reads a 4-byte signed integer in the source's byte order.
func (s *Source) ReadI32() (int32, error) {
	if err := s.require(4); err != nil {
		return 0, err
	}
	v := int32(s.order.Uint32(s.data[s.pos : s.pos+4]))
	s.pos += 4
	return v, nil
}

// ReadU32 reads a 4-byte unsigned integer in the source's byte order.
func (s *Source) ReadU32() (uint32, error) {
	if err := s.require(4); err != nil {
		return 0, err
	}
	v := s.order.Uint32(s.data[s.pos : s.pos+4])
	s.pos += 4
	return v, nil
}

// ReadI64 reads an 8-byte signed integer in the source's byte order.
func (s *Source) ReadI64() (int64, error) {
	if err := s.require(8); err != nil {
		return 0, err
	}
	v := int64(s.order.Uint64(s.data[s.pos : s.pos+8]))
	s.pos += 8
	return v, nil
}

// ReadU64 reads an 8-byte unsigned integer in the source's byte order.
func (s *Source) ReadU64() (uint64, error) {
	if err := s.require(8); err != nil {
		return 0, err
	}
	v := s.order.Uint64(s.data[s.pos : s.pos+8])
	s.pos += 8
	return v, nil
}

// ReadF32 reads a 4-byte IEEE-754 float, correcting for byte order.
func (s *Source) ReadF32() (float32, error) {
	bits, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadF64 reads an 8-byte IEEE-754 double, correcting for byte order.
func (s *Source) ReadF64() (float64, error) {
	bits, err := s.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// Peek returns the next n bytes without advancing the cursor. The returned
// slice aliases the source's backing array and must not be retained past
// the lifetime of the chunk task, nor mutated.
func (s *Source) Peek(n int64) ([]byte, error) {
	if err := s.require(n); err != nil {
		return nil, err
	}
	return s.data[s.pos : s.pos+n], nil
}

// Skip advances the cursor by n bytes without reading them.
func (s *Source) Skip(n int64) error {
	if err := s.require(n); err != nil {
		return err
	}
	s.pos += n
	return nil
}

// ReadBytes reads and returns a copy of the next n bytes.
func (s *Source) ReadBytes(n int64) ([]byte, error) {
	if err := s.require(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, s.data[s.pos:s.pos+n])
	s.pos += n
	return out, nil
}

// AppendBytes reads n bytes into dst (growing it if needed) and returns the
// resulting slice, avoiding an allocation when dst has enough capacity.
// Used by the wire decoder's reusable scratch buffers.
func (s *Source) AppendBytes(dst []byte, n int64) ([]byte, error) {
	if err := s.require(n); err != nil {
		return dst, err
	}
	dst = append(dst[:0], s.data[s.pos:s.pos+n]...)
	s.pos += n
	return dst, nil
}

var _ io.Closer = (*Source)(nil)
