package typeskip

import (
	"errors"
	"sync"

	"github.com/btraceio/jafar-sub003/internal/bytesource"
	"github.com/btraceio/jafar-sub003/internal/metadata"
	"github.com/btraceio/jafar-sub003/internal/wire"
)

// ErrUnknownOp guards against a corrupt or hand-built Program; it should
// never be reachable through compile, which only ever emits the 7 known
// ops.
var ErrUnknownOp = errors.New("typeskip: unknown instruction opcode")

// Registry compiles and caches one Program per class id for a chunk's
// MetadataLookup, and satisfies constantpool.ValueSkipper. Programs are
// compiled lazily on first use: most checkpoints only ever reference a
// handful of the chunk's declared classes.
type Registry struct {
	lookup     *metadata.Lookup
	fastVarint bool

	mu       sync.Mutex
	programs map[uint64]Program
}

// NewRegistry returns a skip-program cache bound to lookup. fastVarint
// selects the SWAR varint decode path (§4.1) used while executing
// programs.
func NewRegistry(lookup *metadata.Lookup, fastVarint bool) *Registry {
	return &Registry{
		lookup:     lookup,
		fastVarint: fastVarint,
		programs:   make(map[uint64]Program),
	}
}

// ProgramFor returns (compiling and caching if necessary) the skip
// program for classID.
func (r *Registry) ProgramFor(classID uint64) (Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.programs[classID]; ok {
		return p, nil
	}
	cls, err := r.lookup.GetClassByID(classID)
	if err != nil {
		return nil, err
	}
	p, err := compileValue(cls, r.lookup)
	if err != nil {
		return nil, err
	}
	r.programs[classID] = p
	return p, nil
}

// Skip advances src past one value of class classID by compiling (or
// reusing a cached compile of) its Program and interpreting it once.
func (r *Registry) Skip(src *bytesource.Source, classID uint64) error {
	prog, err := r.ProgramFor(classID)
	if err != nil {
		return err
	}
	return run(src, prog, r.fastVarint)
}

// Known reports whether classID resolves to a metadata class, i.e.
// whether ProgramFor(classID) could succeed. Implements
// constantpool.ValueSkipper's escape hatch for a checkpoint entry whose
// declared type has no metadata class at all (§4.3).
func (r *Registry) Known(classID uint64) bool {
	r.mu.Lock()
	if _, ok := r.programs[classID]; ok {
		r.mu.Unlock()
		return true
	}
	r.mu.Unlock()
	_, err := r.lookup.GetClassByID(classID)
	return err == nil
}

// run interprets prog against src once. Array bodies are executed as
// nested sub-program slices, so arrays of arrays skip correctly without
// any extra bookkeeping beyond the slice bounds.
func run(src *bytesource.Source, prog Program, fastVarint bool) error {
	i := 0
	for i < len(prog) {
		ins := prog[i]
		switch ins.Op {
		case OpArray:
			body := prog[i+1 : i+1+ins.BodyLen]
			n, err := wire.ReadVarint(src, fastVarint)
			if err != nil {
				return err
			}
			for k := uint64(0); k < n; k++ {
				if err := run(src, body, fastVarint); err != nil {
					return err
				}
			}
			i += 1 + ins.BodyLen

		case OpByte:
			if _, err := src.ReadU8(); err != nil {
				return err
			}
			i++

		case OpFloat:
			if _, err := src.ReadF32(); err != nil {
				return err
			}
			i++

		case OpDouble:
			if _, err := src.ReadF64(); err != nil {
				return err
			}
			i++

		case OpString:
			if err := wire.SkipString(src, fastVarint); err != nil {
				return err
			}
			i++

		case OpVarint, OpCPEntry:
			if _, err := wire.ReadVarint(src, fastVarint); err != nil {
				return err
			}
			i++

		default:
			return ErrUnknownOp
		}
	}
	return nil
}
