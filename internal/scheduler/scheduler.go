// Package scheduler locates a recording's chunk boundaries and decodes
// them on a bounded worker pool (§4.7, §10): a sequential discovery pass
// over the file's self-describing chunk headers, followed by one task per
// chunk submitted to golang.org/x/sync/errgroup, joined in submission
// order so error reporting is deterministic regardless of which chunk's
// goroutine happens to finish first.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/chunkio"
	"github.com/btraceio/jafar-sub003/internal/deserializer"
	"github.com/btraceio/jafar-sub003/internal/listener"
	"github.com/btraceio/jafar-sub003/internal/logging"
	"github.com/btraceio/jafar-sub003/internal/metadata"
)

// DefaultParallelism returns max(GOMAXPROCS-2, 1) (§5), leaving headroom
// for the goroutine driving discovery and the caller's own thread.
func DefaultParallelism() int {
	if n := runtime.GOMAXPROCS(0) - 2; n > 0 {
		return n
	}
	return 1
}

// PanicError wraps a value recovered from a chunk worker's panic so it can
// flow through Run's ordinary error path (§7: "worker tasks wrap any
// exception into a single fatal result").
type PanicError struct{ Value any }

func (e PanicError) Error() string { return fmt.Sprintf("scheduler: chunk worker panicked: %v", e.Value) }

// ChunkError attributes a chunk worker's error to its chunk index, so
// callers further up the stack (jafar.ParseError) can report which chunk
// failed without Run itself needing to know about that error type.
type ChunkError struct {
	Index int
	Err   error
}

func (e *ChunkError) Error() string { return fmt.Sprintf("chunk %d: %v", e.Index, e.Err) }
func (e *ChunkError) Unwrap() error { return e.Err }

// Chunk is one located chunk's byte range within the recording, relative
// to the start of the file.
type Chunk struct {
	Index  int // 0-based position in the recording; Run reports Index+1
	Offset int64
	Size   int64
}

// Discover walks src sequentially from its current position, reading just
// enough of each chunk header to learn its declared size, and returns
// every chunk's bounds without parsing metadata, checkpoints, or events
// (§4.7: "sequentially locates chunk boundaries"). src is left positioned
// at end of file.
func Discover(src *bytesource.Source) ([]Chunk, error) {
	var chunks []Chunk
	offset := src.Position()
	total := src.Len()

	for idx := 0; offset < total; idx++ {
		view, err := src.Slice(offset, total-offset)
		if err != nil {
			return nil, err
		}
		header, err := chunkio.ReadHeader(view)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, Chunk{Index: idx, Offset: offset, Size: header.Size})
		offset += header.Size
	}

	if err := src.Seek(total); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Options configures a Run: the worker pool size, the fast varint path,
// an optional per-class filter, and the deserializer registry chunks
// share their caches through.
type Options struct {
	Parallelism int
	FastVarint  bool
	TypeFilter  func(*metadata.Class) bool
	Registry    *deserializer.Registry
	Logger      *slog.Logger
}

// Run discovers src's chunks, decodes each on a bounded worker pool, and
// dispatches l's callbacks around and within every chunk (§4.7, §10).
// Errors are reported in chunk submission order: if chunks 1 and 4 both
// fail, Run returns chunk 1's error even if chunk 4's goroutine happened
// to finish first, so the result is deterministic across runs regardless
// of scheduling.
func Run(ctx context.Context, src *bytesource.Source, l listener.Listener, opts Options) error {
	logger := logging.Default(opts.Logger).With("component", "scheduler")

	chunks, err := Discover(src)
	if err != nil {
		logger.Error("chunk discovery failed", "err", err)
		return err
	}
	logger.Info("discovered chunks", "count", len(chunks))

	if !l.OnRecordingStart() {
		return nil
	}

	registry := opts.Registry
	if registry == nil {
		registry = deserializer.Global()
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	errs := make([]error, len(chunks))
	for _, c := range chunks {
		c := c
		// Listeners, logs and ChunkErrors see 1-based chunk indices.
		chunkIndex := c.Index + 1
		g.Go(func() (err error) {
			// A panic anywhere in this chunk's decode becomes this chunk's
			// single fatal result instead of crashing the process (§7).
			defer func() {
				if r := recover(); r != nil {
					logger.Error("chunk panicked", "chunk_index", chunkIndex, "recover", r)
					cerr := &ChunkError{Index: chunkIndex, Err: PanicError{Value: r}}
					errs[c.Index] = cerr
					err = cerr
				}
			}()

			if err := gctx.Err(); err != nil {
				return err
			}

			view, err := src.Slice(c.Offset, c.Size)
			if err != nil {
				cerr := &ChunkError{Index: chunkIndex, Err: err}
				errs[c.Index] = cerr
				return cerr
			}

			cctx := listener.NewContext(chunkIndex)
			cctx.TypeFilter = opts.TypeFilter

			if err := chunkio.ProcessChunk(view, cctx, l, registry, opts.FastVarint); err != nil {
				logger.Error("chunk failed", "chunk_index", chunkIndex, "err", err)
				cerr := &ChunkError{Index: chunkIndex, Err: err}
				errs[c.Index] = cerr
				return cerr
			}
			return nil
		})
	}

	// errgroup's own Wait error is discarded in favor of scanning errs in
	// submission order: whichever goroutine errors first wouldn't give a
	// run-to-run stable answer, but the lowest chunk index with a non-nil
	// error always will.
	_ = g.Wait()

	l.OnRecordingEnd()

	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
