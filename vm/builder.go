package vm

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Crabasa0/paging/datarecording"
	"github.com/Crabasa0/paging/vm/backingstore"
)

// RealMemorySizeEnv names the environment variable that overrides the
// arena size, as a decimal byte count.
const RealMemorySizeEnv = "VMSIM_REAL_MEM_SIZE"

// RealMemorySizeFromEnv reads the arena size from the environment, falling
// back to DefaultRealMemorySize. An unparseable or too-small value is a
// configuration error and panics.
func RealMemorySizeFromEnv() uint32 {
	v := os.Getenv(RealMemorySizeEnv)
	if v == "" {
		return DefaultRealMemorySize
	}

	size, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		panic(fmt.Sprintf("%s=%q is not a valid size: %v",
			RealMemorySizeEnv, v, err))
	}

	if size < PTAreaSize+PageSize {
		panic(fmt.Sprintf("%s=%d is smaller than the minimum %d",
			RealMemorySizeEnv, size, PTAreaSize+PageSize))
	}

	return uint32(size)
}

// Builder configures and builds paging engines.
type Builder struct {
	realMemorySize uint32
	store          backingstore.Storage
	recorder       datarecording.PagingRecorder
}

// MakeBuilder returns a Builder with default configuration.
func MakeBuilder() Builder {
	return Builder{
		realMemorySize: DefaultRealMemorySize,
	}
}

// WithRealMemorySize sets the total arena size in bytes.
func (b Builder) WithRealMemorySize(size uint32) Builder {
	b.realMemorySize = size
	return b
}

// WithStorage sets the backing store. An in-memory store is used when none
// is given.
func (b Builder) WithStorage(store backingstore.Storage) Builder {
	b.store = store
	return b
}

// WithRecorder attaches a recorder that captures paging events.
func (b Builder) WithRecorder(recorder datarecording.PagingRecorder) Builder {
	b.recorder = recorder
	return b
}

// Build creates the engine: it maps the arena, carves out the upper table,
// sizes the frame-to-PTE index, and starts the block counter at 1 so block
// 0 stays reserved. The simulated heap starts one page in, leaving the null
// page unmapped.
func (b Builder) Build() *Engine {
	e := &Engine{
		arena:     NewArena(b.realMemorySize),
		store:     b.store,
		tracer:    newTracer(b.recorder),
		ptFree:    PageSize,
		frameFree: PTAreaSize,
		simFree:   PageSize,
		nextBlock: 1,
	}

	if e.store == nil {
		e.store = backingstore.NewMemoryStorage()
	}

	e.upperPT = e.allocatePageTable()
	e.entries = make([]RealAddr, (b.realMemorySize-PTAreaSize)/PageSize)

	return e
}
