package listener

// Listener is the consumer-facing callback contract (§6). Returning false
// from OnChunkStart, OnMetadata, OnCheckpoint, or OnEvent short-circuits
// the current chunk, which then gets OnChunkEnd(ctx, true). Returning false
// from OnRecordingStart ends the parse before any chunk is decoded. The
// results of OnChunkEnd and OnRecordingEnd are ignored: a false from
// OnChunkEnd does not stop other chunks of the recording.
//
// Callbacks for one chunk are issued serially on that chunk's worker
// goroutine; callbacks for different chunks may run concurrently and out
// of recording order, so implementations must be safe for concurrent use
// across chunks.
type Listener interface {
	// OnRecordingStart is called once, before any chunk task is submitted.
	OnRecordingStart() bool

	// OnChunkStart is called first for each chunk. Returning false skips
	// the chunk entirely (metadata, checkpoints, and events are not read).
	OnChunkStart(ctx *Context) bool

	// OnMetadata is called once the chunk's metadata event has been
	// parsed and ctx.Metadata is populated.
	OnMetadata(ctx *Context) bool

	// OnCheckpoint is called once per checkpoint event in the chunk's
	// chain, after that checkpoint's entries have been recorded into
	// ctx.ConstantPools.
	OnCheckpoint(ctx *Context) bool

	// OnEvent is called for each generic (non metadata/checkpoint) event.
	// eventStart is the offset of the event's {size, typeId} header,
	// relative to the chunk's start; size is the event's total encoded
	// size including that header; payloadSize is the number of bytes
	// remaining after typeId, i.e. the event body's length.
	OnEvent(ctx *Context, typeID uint64, eventStart, size, payloadSize int64) bool

	// OnChunkEnd is called once per chunk, whether or not it was skipped.
	OnChunkEnd(ctx *Context, skipped bool) bool

	// OnRecordingEnd is called once, after every chunk task has joined.
	OnRecordingEnd() bool
}

// NopListener implements Listener with every callback returning true and
// doing nothing else. Embed it to implement only the callbacks a consumer
// actually cares about.
type NopListener struct{}

func (NopListener) OnRecordingStart() bool                             { return true }
func (NopListener) OnChunkStart(*Context) bool                         { return true }
func (NopListener) OnMetadata(*Context) bool                           { return true }
func (NopListener) OnCheckpoint(*Context) bool                         { return true }
func (NopListener) OnEvent(*Context, uint64, int64, int64, int64) bool { return true }
func (NopListener) OnChunkEnd(*Context, bool) bool                     { return true }
func (NopListener) OnRecordingEnd() bool                               { return true }

var _ Listener = NopListener{}
