// Package jafar parses JFR recordings: memory-mapped chunk discovery,
// concurrent chunk decode, and a listener callback contract for consuming
// metadata, constant pools, and events as they're read (§1, §4, §7).
package jafar

import (
	"context"
	"log/slog"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/listener"
	"github.com/btraceio/jafar-sub003/internal/logging"
	"github.com/btraceio/jafar-sub003/internal/scheduler"
)

// Listener is re-exported so callers implementing it need only import this
// package (§7's Listener contract).
type Listener = listener.Listener

// Context is re-exported for the same reason; it's the per-chunk handle
// passed to every Listener callback.
type Context = listener.Context

// CPRef is re-exported so a Listener resolving a constant-pool-backed
// field via Context.ResolveCPRef need not import internal/listener's
// dependencies to name the type.
type CPRef = listener.CPRef

// Parser reads one JFR recording. A Parser is not reusable across Parse
// calls from different goroutines concurrently; memory-map the file once
// and call Parse as many times as needed sequentially.
type Parser struct {
	src    *bytesource.Source
	opts   Options
	logger *slog.Logger
}

// Open memory-maps path and returns a Parser configured by opts (the zero
// Options is a valid default, per Options.withDefaults).
func Open(path string, opts Options) (*Parser, error) {
	src, err := bytesource.Open(path)
	if err != nil {
		return nil, wrapError(-1, -1, err)
	}
	return &Parser{
		src:    src,
		opts:   opts.withDefaults(),
		logger: logging.Default(opts.Logger).With("component", "parser"),
	}, nil
}

// Close unmaps the recording. Parse must not be called again afterward.
func (p *Parser) Close() error {
	return p.src.Close()
}

// Parse walks the recording synchronously, dispatching l's callbacks for
// every chunk's metadata, checkpoints, and events (§4.7, §7). It returns
// once every chunk has been processed or the first chunk (by index) that
// failed fatally, wrapped as a *ParseError.
func (p *Parser) Parse(l Listener) error {
	return p.ParseContext(context.Background(), l)
}

// ParseContext is Parse with a caller-supplied context. Cancelling ctx
// stops chunk workers from starting new work but does not interrupt a
// chunk already in flight (§7: workers observe cancellation between
// chunks, not mid-decode).
func (p *Parser) ParseContext(ctx context.Context, l Listener) error {
	registry := p.opts.registryFor()

	err := scheduler.Run(ctx, p.src, l, scheduler.Options{
		Parallelism: p.opts.Parallelism,
		FastVarint:  !p.opts.VarintSequentialOnly,
		TypeFilter:  p.opts.TypeFilter,
		Registry:    registry,
		Logger:      p.opts.Logger,
	})
	if err != nil {
		p.logger.Error("parse failed", "err", err)
		return wrapError(-1, -1, err)
	}
	return nil
}
