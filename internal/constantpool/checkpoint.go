package constantpool

import (
	"errors"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// ErrMalformedCheckpoint is returned for a checkpoint event whose declared
// entry count or type id stream is internally inconsistent (§4.3: "a
// non-existent type id silently skips entries; malformed entry lengths are
// fatal").
var ErrMalformedCheckpoint = errors.New("constantpool: malformed checkpoint event")

// checkpointTypeID is the reserved generic-event typeId marking a
// checkpoint event, distinct from any user-defined class id.
const checkpointTypeID = 1

// ValueSkipper advances src past one constant-pool-eligible value without
// decoding it, given the value's declared class id. Implemented by
// internal/typeskip; declared narrowly here so constantpool has no
// dependency on the skip-instruction compiler.
type ValueSkipper interface {
	Skip(src *bytesource.Source, classID uint64) error

	// Known reports whether classID resolves to a metadata class at all.
	// A type with no metadata class has no declared field layout, so
	// there is no Program that could skip its entries byte-accurately.
	Known(classID uint64) bool
}

// ReadCheckpointChain reads one checkpoint event at src's current position,
// then follows next_offset_delta to read every checkpoint linked from it,
// until a delta of zero ends the chain (§4.3). Each entry's offset is
// recorded in cps when its type passes filter (a nil filter accepts
// everything); entries for filtered-out types still have their bytes
// skipped via skipper so the stream stays synchronised, and entries for a
// type with no metadata class at all are abandoned non-fatally (see
// ReadOneCheckpoint). onCheckpoint, if non-nil, is called once per
// checkpoint read, after its entries are recorded; a false return stops
// the chain early (not treated as an error) and is reported back via the
// returned bool.
//
// src must be positioned at the first checkpoint event's {size, typeId}
// header. cps is marked ready once the chain is exhausted or stopped
// early.
func ReadCheckpointChain(src *bytesource.Source, cps *ConstantPools, filter TypeFilter, skipper ValueSkipper, fastVarint bool, onCheckpoint func() bool) (bool, error) {
	pos := src.Position()
	cont := true
	for {
		delta, err := ReadOneCheckpoint(src, cps, filter, skipper, fastVarint)
		if err != nil {
			return false, err
		}
		if onCheckpoint != nil && !onCheckpoint() {
			cont = false
			break
		}
		if delta == 0 {
			break
		}
		pos += delta
		if err := src.Seek(pos); err != nil {
			return false, err
		}
	}
	cps.SetReady()
	return cont, nil
}

// ReadOneCheckpoint reads one checkpoint event body at src's current
// position and returns its next_offset_delta (relative to that event's own
// start position); a delta of 0 means this was the last checkpoint in the
// chain. ReadCheckpointChain calls it once per link; it is exported for
// callers that walk the chain themselves.
func ReadOneCheckpoint(src *bytesource.Source, cps *ConstantPools, filter TypeFilter, skipper ValueSkipper, fastVarint bool) (int64, error) {
	_, err := wire.ReadVarint(src, fastVarint) // size
	if err != nil {
		return 0, err
	}
	marker, err := wire.ReadVarint(src, fastVarint)
	if err != nil {
		return 0, err
	}
	if marker != checkpointTypeID {
		return 0, ErrMalformedCheckpoint
	}
	if _, err := wire.ReadVarint(src, fastVarint); err != nil { // startTime
		return 0, err
	}
	if _, err := wire.ReadVarint(src, fastVarint); err != nil { // duration
		return 0, err
	}
	rawDelta, err := wire.ReadVarint(src, fastVarint)
	if err != nil {
		return 0, err
	}
	delta := int64(rawDelta)
	if _, err := src.ReadBool(); err != nil { // isFlush
		return 0, err
	}

	cpCount, err := wire.ReadVarint(src, fastVarint)
	if err != nil {
		return 0, err
	}

	for i := uint64(0); i < cpCount; i++ {
		typeID, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return 0, err
		}
		if typeID == 0 {
			// Writer bug: a spurious zero type id is skipped with a single
			// retry rather than treated as a real (and unknown) type.
			typeID, err = wire.ReadVarint(src, fastVarint)
			if err != nil {
				return 0, err
			}
		}

		count, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return 0, err
		}

		if !skipper.Known(typeID) {
			// §4.3, §7: "a non-existent type id silently skips entries;
			// ... non-fatal". No pool is recorded for typeID (cps.Get
			// stays absent), and since this type's entries have no
			// declared layout to skip byte-accurately, the rest of this
			// checkpoint's groups are abandoned rather than guessed at.
			// next_offset_delta (already read above) still lets the
			// caller resync to the next checkpoint in the chain, where
			// other types' pools are read normally.
			return delta, nil
		}

		accept := filter == nil || filter(typeID)
		pool := cps.AddOrGet(typeID, int(count))

		for j := uint64(0); j < count; j++ {
			id, err := wire.ReadVarint(src, fastVarint)
			if err != nil {
				return 0, err
			}
			valueStart := src.Position()
			if accept && !pool.Contains(id) {
				pool.AddOffset(id, valueStart)
			}
			if err := skipper.Skip(src, typeID); err != nil {
				return 0, err
			}
		}
	}

	return delta, nil
}
