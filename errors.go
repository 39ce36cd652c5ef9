package jafar

import (
	"errors"
	"fmt"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/chunkio"
	"github.com/btraceio/jafar-sub003/internal/constantpool"
	"github.com/btraceio/jafar-sub003/internal/metadata"
	"github.com/btraceio/jafar-sub003/internal/scheduler"
	"github.com/btraceio/jafar-sub003/internal/typeskip"
	"github.com/btraceio/jafar-sub003/internal/valuereader"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// Kind classifies a ParseError for consumers that branch on error taxonomy
// rather than matching a specific sentinel (§7: "kinds, not types").
type Kind int

const (
	// KindMalformed covers bad varints, bad string ids, truncated fields,
	// impossible chunk offsets, and malformed metadata trees. Fatal to the
	// chunk it occurred in.
	KindMalformed Kind = iota
	// KindIO covers short reads and unmappable regions.
	KindIO
	// KindInternal covers assertion failures unreachable by contract,
	// including panics recovered from a chunk's worker goroutine.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindIO:
		return "io"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ParseError is the single fatal error type Parser.Parse returns.
// ChunkIndex is the failing chunk's 1-based index, or -1 when the failure
// is not tied to one chunk (e.g. opening the file or chunk discovery).
// Position is always -1: the parser does not record the stream position
// at which a failure occurred.
type ParseError struct {
	ChunkIndex int
	Position   int64
	Kind       Kind
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jafar: chunk %d at %d: %s: %v", e.ChunkIndex, e.Position, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// wrapError classifies err against the sentinel errors declared across the
// internal packages and wraps it into a *ParseError carrying chunkIndex and
// position. A nil err returns nil. If err wraps a *scheduler.ChunkError, its
// Index overrides chunkIndex regardless of what the caller passed in, since
// the chunk worker always knows which chunk it was decoding.
func wrapError(chunkIndex int, position int64, err error) error {
	if err == nil {
		return nil
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}
	var cerr *scheduler.ChunkError
	if errors.As(err, &cerr) {
		chunkIndex = cerr.Index
	}
	return &ParseError{ChunkIndex: chunkIndex, Position: position, Kind: classify(err), Err: err}
}

// classify maps a raw error from any internal package to its Kind. Errors
// not recognised default to KindInternal rather than KindMalformed: an
// unrecognised error is closer to "assertion failed" than "bad input"
// (§7's Internal kind: "unreachable by contract").
func classify(err error) Kind {
	var panicErr scheduler.PanicError
	switch {
	case errors.As(err, &panicErr):
		return KindInternal
	case errors.Is(err, bytesource.ErrShortRead),
		errors.Is(err, bytesource.ErrEmpty),
		errors.Is(err, bytesource.ErrNegativeOffset),
		errors.Is(err, bytesource.ErrOutOfRange):
		return KindIO
	case errors.Is(err, wire.ErrMalformedVarint),
		errors.Is(err, wire.ErrMalformedString),
		errors.Is(err, wire.ErrTableRefOutOfRange),
		errors.Is(err, metadata.ErrUnknownClassID),
		errors.Is(err, metadata.ErrStringIndexOutOfRange),
		errors.Is(err, constantpool.ErrMalformedCheckpoint),
		errors.Is(err, chunkio.ErrBadMagic),
		errors.Is(err, chunkio.ErrTruncatedEvent),
		errors.Is(err, typeskip.ErrUnknownOp),
		errors.Is(err, valuereader.ErrUnknownPrimitive):
		return KindMalformed
	default:
		return KindInternal
	}
}
