package chunkio

import (
	"errors"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/constantpool"
	"github.com/btraceio/jafar-sub003/internal/deserializer"
	"github.com/btraceio/jafar-sub003/internal/listener"
	"github.com/btraceio/jafar-sub003/internal/metadata"
	"github.com/btraceio/jafar-sub003/internal/typeskip"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// ErrTruncatedEvent is returned when a chunk's generic event stream ends
// mid-event: a declared size that would run past the chunk's own bounds.
var ErrTruncatedEvent = errors.New("chunkio: truncated event")

// reservedTypeIDMax is the highest of the generic event types that carry no user event
// (metadata and checkpoint); the event loop skips them since they were
// already read directly via the header's offsets (§4.7).
const reservedTypeIDMax = 1

// ProcessChunk drives one chunk's full decode against src (a slice bounded
// to exactly this chunk's bytes, positioned at offset 0) and dispatches
// Listener callbacks in the order required by §4.7:
// OnChunkStart -> OnMetadata -> OnCheckpoint* -> OnEvent* -> OnChunkEnd.
//
// registry resolves this chunk's deserializer cache once its metadata has
// been parsed and its fingerprint is known (§4.6: "process-wide singleton
// with get_or_create(fingerprint)") — callers that want chunks sharing no
// state with the rest of the process can pass a fresh
// deserializer.NewRegistry instead of deserializer.Global().
func ProcessChunk(src *bytesource.Source, ctx *listener.Context, l listener.Listener, registry *deserializer.Registry, fastVarint bool) error {
	if !l.OnChunkStart(ctx) {
		l.OnChunkEnd(ctx, true)
		return nil
	}

	header, err := ReadHeader(src)
	if err != nil {
		return err
	}

	if err := decodeMetadata(src, header, ctx, registry, fastVarint); err != nil {
		return err
	}
	if !l.OnMetadata(ctx) {
		l.OnChunkEnd(ctx, true)
		return nil
	}

	cont, err := decodeCheckpoints(src, header, ctx, l, fastVarint)
	if err != nil {
		return err
	}
	if !cont {
		l.OnChunkEnd(ctx, true)
		return nil
	}

	cont, err = decodeEvents(src, header, ctx, l, fastVarint)
	if err != nil {
		return err
	}
	if !cont {
		l.OnChunkEnd(ctx, true)
		return nil
	}

	l.OnChunkEnd(ctx, false)
	return nil
}

func decodeMetadata(src *bytesource.Source, header Header, ctx *listener.Context, registry *deserializer.Registry, fastVarint bool) error {
	if err := src.Seek(header.MetadataOffset); err != nil {
		return err
	}
	if _, err := wire.ReadVarint(src, fastVarint); err != nil { // event size
		return err
	}
	if _, err := wire.ReadVarint(src, fastVarint); err != nil { // typeId (reserved, == 0)
		return err
	}

	table, lookup, err := metadata.Parse(src, fastVarint)
	if err != nil {
		return err
	}

	cache := registry.GetOrCreate(lookup.Fingerprint())
	binder := deserializer.NewBinder(cache)
	if err := lookup.BindDeserializers(binder); err != nil {
		return err
	}

	ctx.Metadata = lookup
	ctx.StringTable = table
	ctx.BindDecoder(src, binder, fastVarint)
	ctx.MarkMetadataReady()
	return nil
}

func decodeCheckpoints(src *bytesource.Source, header Header, ctx *listener.Context, l listener.Listener, fastVarint bool) (bool, error) {
	cps := constantpool.NewConstantPools()
	ctx.ConstantPools = cps

	skipper := typeskip.NewRegistry(ctx.Metadata, fastVarint)

	var filter constantpool.TypeFilter
	if ctx.TypeFilter != nil {
		filter = func(typeID uint64) bool {
			cls, err := ctx.Metadata.GetClassByID(typeID)
			if err != nil {
				return false
			}
			return ctx.TypeFilter(cls)
		}
	}

	if err := src.Seek(header.ConstantPoolOffset); err != nil {
		return false, err
	}

	cont, err := constantpool.ReadCheckpointChain(src, cps, filter, skipper, fastVarint, func() bool {
		return l.OnCheckpoint(ctx)
	})
	if err != nil {
		return false, err
	}
	ctx.MarkConstantPoolsReady()
	return cont, nil
}

func decodeEvents(src *bytesource.Source, header Header, ctx *listener.Context, l listener.Listener, fastVarint bool) (bool, error) {
	if err := src.Seek(int64(HeaderSize)); err != nil {
		return false, err
	}

	for src.Remaining() > 0 {
		eventStart := src.Position()
		size, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return false, err
		}
		if size == 0 {
			break
		}
		eventEnd := eventStart + int64(size)
		if eventEnd > header.Size {
			return false, ErrTruncatedEvent
		}

		typeID, err := wire.ReadVarint(src, fastVarint)
		if err != nil {
			return false, err
		}

		if typeID > reservedTypeIDMax {
			payloadSize := int64(size) - (src.Position() - eventStart)
			if !l.OnEvent(ctx, typeID, eventStart, int64(size), payloadSize) {
				return false, nil
			}
		}

		if err := src.Seek(eventEnd); err != nil {
			return false, err
		}
	}
	return true, nil
}
