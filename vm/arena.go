package vm

import (
	"encoding/binary"
	"fmt"
)

// An Arena is the real-memory buffer backing the simulation. Real addresses
// are offsets into it. The low part of the arena holds the page tables, the
// high part holds the frames that back simulated pages.
//
// Accesses beyond the arena are invariant breaches and panic.
type Arena struct {
	data []byte
}

// NewArena creates an arena of the given size. The size must leave room for
// the page-table region plus at least one frame.
func NewArena(size uint32) *Arena {
	if size < PTAreaSize+PageSize {
		panic(fmt.Sprintf(
			"arena size %d is smaller than the minimum %d",
			size, PTAreaSize+PageSize))
	}

	return &Arena{data: make([]byte, size)}
}

// Size returns the arena size in bytes.
func (a *Arena) Size() uint32 {
	return uint32(len(a.data))
}

// Read copies len(buf) bytes out of the arena starting at addr.
func (a *Arena) Read(buf []byte, addr RealAddr) {
	a.mustContain(addr, len(buf))
	copy(buf, a.data[addr:])
}

// Write copies len(buf) bytes into the arena starting at addr.
func (a *Arena) Write(buf []byte, addr RealAddr) {
	a.mustContain(addr, len(buf))
	copy(a.data[addr:], buf)
}

// LoadPTE reads the page-table entry stored at addr.
func (a *Arena) LoadPTE(addr RealAddr) PTE {
	a.mustContain(addr, PTESize)
	return PTE(binary.LittleEndian.Uint32(a.data[addr:]))
}

// StorePTE writes a page-table entry to addr.
func (a *Arena) StorePTE(addr RealAddr, pte PTE) {
	a.mustContain(addr, PTESize)
	binary.LittleEndian.PutUint32(a.data[addr:], uint32(pte))
}

// Page returns the arena bytes of the page starting at the page-aligned
// address addr. The slice aliases the arena.
func (a *Arena) Page(addr RealAddr) []byte {
	if !addr.IsPageAligned() {
		panic(fmt.Sprintf("0x%08x is not page-aligned", uint32(addr)))
	}

	a.mustContain(addr, PageSize)

	return a.data[addr : addr+PageSize]
}

// ZeroPage clears the page starting at addr.
func (a *Arena) ZeroPage(addr RealAddr) {
	page := a.Page(addr)
	for i := range page {
		page[i] = 0
	}
}

func (a *Arena) mustContain(addr RealAddr, n int) {
	if uint64(addr)+uint64(n) > uint64(len(a.data)) {
		panic(fmt.Sprintf(
			"access of %d bytes at 0x%08x exceeds the arena size %d",
			n, uint32(addr), len(a.data)))
	}
}
