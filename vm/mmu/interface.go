package mmu

import "github.com/Crabasa0/paging/vm"

// Memory gives the MMU access to page-table entries in real memory.
type Memory interface {
	LoadPTE(addr vm.RealAddr) vm.PTE
	StorePTE(addr vm.RealAddr, pte vm.PTE)
}

// A FaultHandler materializes the page backing a simulated address. After
// it returns, the address translates.
type FaultHandler interface {
	MapFault(addr vm.SimAddr)
}
