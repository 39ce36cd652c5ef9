package jafar

import (
	"log/slog"

	"github.com/btraceio/jafar-sub003/internal/deserializer"
	"github.com/btraceio/jafar-sub003/internal/metadata"
	"github.com/btraceio/jafar-sub003/internal/scheduler"
)

// Options configures a Parser (§6, §A.3). The zero value is not directly
// usable; pass it to Open, which fills in every unset field's default.
type Options struct {
	// Parallelism is the worker pool size. Zero (or negative) defaults to
	// max(GOMAXPROCS-2, 1).
	Parallelism int

	// VarintSequentialOnly disables the SWAR 9-byte varint decoder in favor
	// of the sequential byte-at-a-time path. The zero value leaves the SWAR
	// path on, which is the default (§6: "varint_fast_path (default on)");
	// this field is inverted, rather than a plain "VarintFastPath bool",
	// precisely so the zero Options doesn't silently turn it off. The
	// spec's own "reported slower in practice" remark is the reason this
	// is a toggle rather than the only path.
	VarintSequentialOnly bool

	// DeserializerCacheMax bounds each per-fingerprint deserializer cache's
	// LRU size (§6: "deserializer_cache_max"). Zero defaults to
	// deserializer.MaxSize.
	DeserializerCacheMax int

	// TypeFilter, when non-nil, is consulted by the checkpoint decoder to
	// skip constant-pool values the consumer has no use for.
	TypeFilter func(*metadata.Class) bool

	// Logger receives lifecycle-boundary log records (§A.1). Nil uses a
	// discard logger.
	Logger *slog.Logger
}

// withDefaults returns a copy of o with a non-positive Parallelism replaced
// by its default; a zero DeserializerCacheMax and a nil Logger are
// resolved where they are used. It validates nothing further (§A.3: "functional, validate at
// construction" — there is nothing here that can fail validation).
func (o Options) withDefaults() Options {
	if o.Parallelism <= 0 {
		o.Parallelism = scheduler.DefaultParallelism()
	}
	return o
}

// registryFor returns a fresh deserializer.Registry sized to o's cache
// bound. A Parser owns its own registry rather than defaulting to
// deserializer.Global() so that two Parsers in the same process never
// share cached deserializers by accident.
func (o Options) registryFor() *deserializer.Registry {
	return deserializer.NewRegistrySize(o.DeserializerCacheMax, nil)
}
