package mmu

import "github.com/Crabasa0/paging/vm"

// Builder configures and builds MMUs.
type Builder struct {
	memory       Memory
	faultHandler FaultHandler
	upperTable   vm.RealAddr
}

// MakeBuilder returns a Builder with default configuration.
func MakeBuilder() Builder {
	return Builder{}
}

// WithMemory sets where the MMU reads and writes page-table entries.
func (b Builder) WithMemory(memory Memory) Builder {
	b.memory = memory
	return b
}

// WithFaultHandler sets the engine callback for failed walks.
func (b Builder) WithFaultHandler(handler FaultHandler) Builder {
	b.faultHandler = handler
	return b
}

// WithUpperTable sets the real address of the upper page table.
func (b Builder) WithUpperTable(addr vm.RealAddr) Builder {
	b.upperTable = addr
	return b
}

// Build creates the MMU.
func (b Builder) Build() *Comp {
	if b.memory == nil {
		panic("MMU requires a memory")
	}

	if b.faultHandler == nil {
		panic("MMU requires a fault handler")
	}

	return &Comp{
		memory:       b.memory,
		faultHandler: b.faultHandler,
		upperTable:   b.upperTable,
	}
}
