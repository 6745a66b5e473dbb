// Package mmu provides the translation facade clients go through to reach
// simulated memory. It walks the two-level page table in real memory and
// calls back into the paging engine whenever a walk cannot complete.
package mmu

import "github.com/Crabasa0/paging/vm"

// Comp is the MMU. It translates simulated addresses by walking the upper
// and lower page tables, faulting and retrying on a missing or non-resident
// entry, and marks the lower PTE referenced (and dirty on writes) on every
// successful translation.
type Comp struct {
	memory       Memory
	faultHandler FaultHandler
	upperTable   vm.RealAddr
}

// Translate maps a simulated address to a real one. It never fails: a walk
// that cannot complete faults into the engine and is retried.
func (c *Comp) Translate(addr vm.SimAddr, write bool) vm.RealAddr {
	for {
		real, ok := c.walk(addr, write)
		if ok {
			return real
		}

		c.faultHandler.MapFault(addr)
	}
}

func (c *Comp) walk(addr vm.SimAddr, write bool) (vm.RealAddr, bool) {
	upperPTEAddr := c.upperTable + vm.RealAddr(addr.UpperIndex()*vm.PTESize)
	upperPTE := c.memory.LoadPTE(upperPTEAddr)

	if upperPTE == 0 {
		return 0, false
	}

	lowerPTEAddr := upperPTE.TableBase() +
		vm.RealAddr(addr.LowerIndex()*vm.PTESize)
	lowerPTE := c.memory.LoadPTE(lowerPTEAddr)

	if lowerPTE == 0 || !lowerPTE.Resident() {
		return 0, false
	}

	lowerPTE = lowerPTE.SetReferenced()
	if write {
		lowerPTE = lowerPTE.SetDirty()
	}

	c.memory.StorePTE(lowerPTEAddr, lowerPTE)

	return lowerPTE.Frame() | vm.RealAddr(addr.Offset()), true
}
