package vm

import "fmt"

// evict writes the frame owned by the lower PTE at victimPTEAddr to a fresh
// backing-store block, rewrites the PTE to name that block, zeroes the
// frame, and returns its real address. Every eviction consumes a new block;
// the dirty bit is not consulted.
//
// The frame-to-PTE index entry for the freed frame is left stale; the
// caller installs the new owner.
func (e *Engine) evict(victimPTEAddr RealAddr) RealAddr {
	pte := e.arena.LoadPTE(victimPTEAddr)
	frame := pte.Frame()

	block := e.nextBlock
	e.nextBlock++

	if err := e.store.WriteBlock(e.arena.Page(frame), block); err != nil {
		panic(fmt.Sprintf("backing store write of block %d: %v", block, err))
	}

	e.arena.ZeroPage(frame)
	e.arena.StorePTE(victimPTEAddr, NewBlockPTE(block))

	e.stats.Evictions++
	e.tracer.evict(victimPTEAddr, frame, block)

	return frame
}

// fetch reads the block named by the lower PTE at pteAddr into the given
// free frame, rewrites the PTE to name the frame, and installs the PTE as
// the frame's owner in the frame-to-PTE index.
func (e *Engine) fetch(pteAddr RealAddr, frame RealAddr) {
	block := e.arena.LoadPTE(pteAddr).Block()

	if err := e.store.ReadBlock(e.arena.Page(frame), block); err != nil {
		panic(fmt.Sprintf("backing store read of block %d: %v", block, err))
	}

	e.arena.StorePTE(pteAddr, NewFramePTE(frame))
	e.entries[frameIndex(frame)] = pteAddr

	e.stats.Fetches++
	e.tracer.fetch(pteAddr, frame, block)
}

// swap evicts the victim to free a frame, then fetches the page named by
// the lower PTE at inPTEAddr into it.
func (e *Engine) swap(inPTEAddr, victimPTEAddr RealAddr) {
	frame := e.evict(victimPTEAddr)
	e.fetch(inPTEAddr, frame)
}
