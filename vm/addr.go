// Package vm implements a demand-paged virtual memory engine over a flat
// real-memory arena and a block-addressed backing store. Simulated 32-bit
// addresses are translated through a two-level page table; pages are
// materialized on first touch, evicted under memory pressure with a CLOCK
// policy, and restored from the backing store on later faults.
package vm

import "fmt"

// A SimAddr is an address in the simulated 32-bit space exposed to clients.
type SimAddr uint32

// A RealAddr is an offset into the real-memory arena.
type RealAddr uint32

const (
	// PageSize is the size of both simulated pages and real frames.
	PageSize = 4 << 10

	// PTESize is the width of one page-table entry in real memory.
	PTESize = 4

	// PTAreaSize bounds the page-table region of the arena. The region
	// starts one page in, so it holds 1024 pages: the upper table plus up
	// to 1023 lower tables.
	PTAreaSize = 4<<20 + 4<<10

	// DefaultRealMemorySize is the arena size used when the
	// VMSIM_REAL_MEM_SIZE environment variable is not set.
	DefaultRealMemorySize = 4<<20 + 16<<10

	offsetMask     = PageSize - 1
	pageNumberMask = ^uint32(offsetMask)
)

// UpperIndex extracts the upper page-table index, bits 31..22.
func (a SimAddr) UpperIndex() uint32 {
	return uint32(a>>22) & 0x3ff
}

// LowerIndex extracts the lower page-table index, bits 21..12.
func (a SimAddr) LowerIndex() uint32 {
	return uint32(a>>12) & 0x3ff
}

// Offset extracts the byte offset within the page, bits 11..0.
func (a SimAddr) Offset() uint32 {
	return uint32(a) & offsetMask
}

// PageBase truncates the address to its page boundary.
func (a RealAddr) PageBase() RealAddr {
	return a & RealAddr(pageNumberMask)
}

// IsPageAligned reports whether the address sits on a page boundary.
func (a RealAddr) IsPageAligned() bool {
	return uint32(a)&offsetMask == 0
}

// frameIndex converts a frame address into its position in the
// frame-to-PTE index. The address must be a page-aligned address in the
// frame region.
func frameIndex(a RealAddr) int {
	if a < PTAreaSize || !a.IsPageAligned() {
		panic(fmt.Sprintf("0x%08x is not a frame address", uint32(a)))
	}

	return int(a-PTAreaSize) / PageSize
}

// frameAddr is the inverse of frameIndex.
func frameAddr(i int) RealAddr {
	return PTAreaSize + RealAddr(i)*PageSize
}
