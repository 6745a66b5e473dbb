package vm

import (
	"fmt"

	"github.com/Crabasa0/paging/vm/backingstore"
)

// A Translator turns a simulated address into a real one, faulting into the
// engine as needed. The MMU facade implements it.
type Translator interface {
	Translate(addr SimAddr, write bool) RealAddr
}

// An Engine owns all paging state: the arena with its page-table and frame
// regions, the bump allocators, the frame-to-PTE index, the CLOCK cursor,
// the backing-store block counter, and the simulated-heap pointer.
//
// The engine is single-threaded. All operations run to completion and all
// invariant breaches panic.
type Engine struct {
	arena      *Arena
	store      backingstore.Storage
	translator Translator
	tracer     *tracer

	upperPT   RealAddr
	ptFree    RealAddr
	frameFree RealAddr
	simFree   SimAddr

	// entries maps each frame in the frame region back to the real
	// address of the lower PTE that owns it. The CLOCK hand walks it.
	entries   []RealAddr
	clockHand int

	nextBlock uint32

	stats Stats
}

// Stats is a snapshot of the engine's counters.
type Stats struct {
	Faults         uint64
	LowerTables    uint64
	Evictions      uint64
	Fetches        uint64
	NextBlock      uint32
	ResidentFrames int
	FrameCapacity  int
}

// UpperTable returns the real address of the upper page table.
func (e *Engine) UpperTable() RealAddr {
	return e.upperPT
}

// AttachTranslator connects the MMU facade that Map, Read, and Write route
// through. It must be called once before any client operation.
func (e *Engine) AttachTranslator(t Translator) {
	e.translator = t
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.NextBlock = e.nextBlock
	s.FrameCapacity = len(e.entries)

	for _, pteAddr := range e.entries {
		if pteAddr == 0 {
			continue
		}

		if e.arena.LoadPTE(pteAddr).Resident() {
			s.ResidentFrames++
		}
	}

	return s
}

// LoadPTE reads a page-table entry from real memory.
func (e *Engine) LoadPTE(addr RealAddr) PTE {
	return e.arena.LoadPTE(addr)
}

// StorePTE writes a page-table entry to real memory.
func (e *Engine) StorePTE(addr RealAddr, pte PTE) {
	e.arena.StorePTE(addr, pte)
}

// ReadReal copies bytes out of the arena at a real address.
func (e *Engine) ReadReal(buf []byte, addr RealAddr) {
	e.arena.Read(buf, addr)
}

// WriteReal copies bytes into the arena at a real address.
func (e *Engine) WriteReal(buf []byte, addr RealAddr) {
	e.arena.Write(buf, addr)
}

// allocatePageTable hands out a zeroed, page-aligned block from the
// page-table region. The region never shrinks and never evicts; running out
// means the simulated working set outgrew the fixed table budget.
func (e *Engine) allocatePageTable() RealAddr {
	if e.ptFree+PageSize > PTAreaSize {
		panic("page-table region exhausted")
	}

	addr := e.ptFree
	e.ptFree += PageSize
	e.arena.ZeroPage(addr)

	return addr
}

// allocateFrame hands out a zeroed, page-aligned frame from the frame
// region. Once the region is exhausted it evicts a victim instead. The
// returned frame has no owner in the frame-to-PTE index; the caller must
// install one before the next fault.
func (e *Engine) allocateFrame() RealAddr {
	if e.frameFree+PageSize > RealAddr(e.arena.Size()) {
		victim := e.findVictim()
		return e.evict(victim)
	}

	addr := e.frameFree
	e.frameFree += PageSize
	e.arena.ZeroPage(addr)

	return addr
}

// MapFault satisfies a failed translation of addr. When it returns, the
// upper and lower PTEs for addr are mapped and the lower PTE is resident.
func (e *Engine) MapFault(addr SimAddr) {
	e.stats.Faults++

	upperPTEAddr := e.upperPT + RealAddr(addr.UpperIndex()*PTESize)
	upperPTE := e.arena.LoadPTE(upperPTEAddr)

	if upperPTE == 0 {
		lowerTable := e.allocatePageTable()
		upperPTE = PTE(lowerTable)
		e.arena.StorePTE(upperPTEAddr, upperPTE)
		e.stats.LowerTables++
	}

	lowerPTEAddr := upperPTE.TableBase() + RealAddr(addr.LowerIndex()*PTESize)
	lowerPTE := e.arena.LoadPTE(lowerPTEAddr)

	if lowerPTE == 0 {
		frame := e.allocateFrame()
		e.arena.StorePTE(lowerPTEAddr, NewFramePTE(frame))
		e.entries[frameIndex(frame)] = lowerPTEAddr
		e.tracer.fault(addr, "first_touch")

		return
	}

	if !lowerPTE.Resident() {
		victim := e.findVictim()
		e.swap(lowerPTEAddr, victim)
		e.tracer.fault(addr, "swap_in")
	}
}

// Map translates a simulated address without transferring data.
func (e *Engine) Map(addr SimAddr, write bool) RealAddr {
	return e.mustTranslator().Translate(addr, write)
}

// Read translates addr and copies len(buf) bytes out of the backing frame.
// The access must not cross a page boundary.
func (e *Engine) Read(buf []byte, addr SimAddr) {
	e.checkPageCrossing(addr, len(buf))

	real := e.mustTranslator().Translate(addr, false)
	e.arena.Read(buf, real)
}

// Write translates addr and copies len(buf) bytes into the backing frame.
// The access must not cross a page boundary.
func (e *Engine) Write(buf []byte, addr SimAddr) {
	e.checkPageCrossing(addr, len(buf))

	real := e.mustTranslator().Translate(addr, true)
	e.arena.Write(buf, real)
}

// Alloc reserves size bytes of simulated space and returns its base
// address. The simulated heap is a bump pointer starting one page in, so
// simulated address 0 stays unmapped. There is no reclamation.
func (e *Engine) Alloc(size uint32) SimAddr {
	addr := e.simFree
	e.simFree += SimAddr(size)

	return addr
}

// Free releases nothing. The simulated heap does not reclaim.
func (e *Engine) Free(addr SimAddr) {
}

func (e *Engine) mustTranslator() Translator {
	if e.translator == nil {
		panic("no translator attached to the engine")
	}

	return e.translator
}

func (e *Engine) checkPageCrossing(addr SimAddr, n int) {
	if addr.Offset()+uint32(n) > PageSize {
		panic(fmt.Sprintf(
			"access of %d bytes at 0x%08x crosses a page boundary",
			n, uint32(addr)))
	}
}
