package vm

import "fmt"

// A PTE is a page-table entry, a 32-bit tagged word describing the state of
// one simulated page. The resident bit selects between two encodings: a
// resident entry carries the frame's real address in bits 31..12, a
// non-resident entry carries a backing-store block number in bits 23..10.
// The zero value means unmapped.
type PTE uint32

const (
	pteResident   PTE = 1 << 0
	pteReferenced PTE = 1 << 1
	pteDirty      PTE = 1 << 2

	pteBlockShift = 10
	pteBlockMask  = 0x3fff
)

// NewFramePTE builds a resident entry for a page-aligned frame address.
func NewFramePTE(frame RealAddr) PTE {
	if !frame.IsPageAligned() {
		panic(fmt.Sprintf("frame 0x%08x is not page-aligned", uint32(frame)))
	}

	return PTE(frame) | pteResident
}

// NewBlockPTE builds a non-resident entry naming a backing-store block.
func NewBlockPTE(block uint32) PTE {
	if block == 0 || block > pteBlockMask {
		panic(fmt.Sprintf("block number %d is out of range", block))
	}

	return PTE(block << pteBlockShift)
}

// Resident reports whether the entry currently names a frame.
func (p PTE) Resident() bool {
	return p&pteResident != 0
}

// Referenced reports whether the page has been touched since the reference
// bit was last cleared.
func (p PTE) Referenced() bool {
	return p&pteReferenced != 0
}

// Dirty reports whether the page has been written since its last fetch.
func (p PTE) Dirty() bool {
	return p&pteDirty != 0
}

// Frame returns the real address of the frame backing the page. The entry
// must be resident.
func (p PTE) Frame() RealAddr {
	if !p.Resident() {
		panic(fmt.Sprintf("PTE 0x%08x is not resident", uint32(p)))
	}

	return RealAddr(uint32(p) & pageNumberMask)
}

// Block returns the backing-store block number holding the page. The entry
// must be non-resident and mapped.
func (p PTE) Block() uint32 {
	if p.Resident() {
		panic(fmt.Sprintf("PTE 0x%08x is resident", uint32(p)))
	}

	if p == 0 {
		panic("PTE is unmapped")
	}

	return uint32(p>>pteBlockShift) & pteBlockMask
}

// TableBase returns the base address of the lower table an upper entry
// points to. Upper entries carry a bare page-aligned address, no flags.
func (p PTE) TableBase() RealAddr {
	return RealAddr(uint32(p) & pageNumberMask)
}

// SetReferenced returns the entry with the reference bit set.
func (p PTE) SetReferenced() PTE {
	return p | pteReferenced
}

// ClearReferenced returns the entry with the reference bit cleared.
func (p PTE) ClearReferenced() PTE {
	return p &^ pteReferenced
}

// SetDirty returns the entry with the dirty bit set.
func (p PTE) SetDirty() PTE {
	return p | pteDirty
}
