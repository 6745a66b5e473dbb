package vm_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Crabasa0/paging/vm"
	"github.com/Crabasa0/paging/vm/backingstore"
	"github.com/Crabasa0/paging/vm/mmu"
)

// newEngine builds an engine whose frame region holds exactly the given
// number of frames, wired to an in-memory backing store and a real MMU.
func newEngine(frames int) (*vm.Engine, *backingstore.MemoryStorage) {
	store := backingstore.NewMemoryStorage()

	engine := vm.MakeBuilder().
		WithRealMemorySize(vm.PTAreaSize + uint32(frames)*vm.PageSize).
		WithStorage(store).
		Build()

	translator := mmu.MakeBuilder().
		WithMemory(engine).
		WithFaultHandler(engine).
		WithUpperTable(engine.UpperTable()).
		Build()
	engine.AttachTranslator(translator)

	return engine, store
}

func lowerPTE(e *vm.Engine, addr vm.SimAddr) vm.PTE {
	upperPTE := e.LoadPTE(
		e.UpperTable() + vm.RealAddr(addr.UpperIndex()*vm.PTESize))
	if upperPTE == 0 {
		return 0
	}

	return e.LoadPTE(
		upperPTE.TableBase() + vm.RealAddr(addr.LowerIndex()*vm.PTESize))
}

func fullPage(b byte) []byte {
	return bytes.Repeat([]byte{b}, vm.PageSize)
}

var _ = Describe("Engine", func() {
	var (
		engine *vm.Engine
		store  *backingstore.MemoryStorage
	)

	BeforeEach(func() {
		engine, store = newEngine(4)
	})

	AfterEach(func() {
		Expect(engine.CheckInvariants()).To(Succeed())
	})

	It("should fault in a page on first touch and read it back", func() {
		engine.Write(fullPage('A'), 0x00001000)

		out := make([]byte, vm.PageSize)
		engine.Read(out, 0x00001000)

		Expect(out).To(Equal(fullPage('A')))

		stats := engine.Stats()
		Expect(stats.ResidentFrames).To(Equal(1))
		Expect(stats.LowerTables).To(Equal(uint64(1)))
		Expect(stats.Evictions).To(BeZero())
	})

	It("should allocate one lower table per 4 MiB range", func() {
		engine.Write(fullPage('A'), 0x00001000)
		Expect(engine.Stats().LowerTables).To(Equal(uint64(1)))

		// Same range, no new table.
		engine.Write(fullPage('B'), 0x00002000)
		Expect(engine.Stats().LowerTables).To(Equal(uint64(1)))

		// Next 4 MiB range forces a second table.
		engine.Write(fullPage('C'), 0x00401000)
		Expect(engine.Stats().LowerTables).To(Equal(uint64(2)))
	})

	It("should evict exactly one page when the frame region overflows", func() {
		for p := 1; p <= 4; p++ {
			engine.Write(fullPage(byte(p)), vm.SimAddr(p*vm.PageSize))
		}
		Expect(engine.Stats().Evictions).To(BeZero())

		engine.Write(fullPage(5), 0x00005000)

		stats := engine.Stats()
		Expect(stats.Evictions).To(Equal(uint64(1)))
		Expect(stats.ResidentFrames).To(Equal(4))
		Expect(store.NumBlocks()).To(Equal(1))

		// The CLOCK sweep clears all four reference bits and lands back
		// on the first frame, so the first page written is the victim.
		pte := lowerPTE(engine, 0x00001000)
		Expect(pte.Resident()).To(BeFalse())
		Expect(pte.Block()).To(Equal(uint32(1)))

		for p := 2; p <= 5; p++ {
			Expect(lowerPTE(engine, vm.SimAddr(p*vm.PageSize)).Resident()).
				To(BeTrue())
		}
	})

	It("should swap an evicted page back in unchanged", func() {
		for p := 1; p <= 5; p++ {
			engine.Write(fullPage(byte(p)), vm.SimAddr(p*vm.PageSize))
		}

		// Page 1 was the victim; reading it faults it back.
		out := make([]byte, vm.PageSize)
		engine.Read(out, 0x00001000)

		Expect(out).To(Equal(fullPage(1)))

		stats := engine.Stats()
		Expect(stats.Evictions).To(Equal(uint64(2)))
		Expect(stats.Fetches).To(Equal(uint64(1)))
		Expect(stats.ResidentFrames).To(Equal(4))
	})

	It("should clear every reference bit on a full CLOCK sweep", func() {
		for p := 1; p <= 4; p++ {
			engine.Write(fullPage(byte(p)), vm.SimAddr(p*vm.PageSize))
			Expect(lowerPTE(engine, vm.SimAddr(p*vm.PageSize)).Referenced()).
				To(BeTrue())
		}

		engine.Write(fullPage(5), 0x00005000)

		Expect(lowerPTE(engine, 0x00001000).Resident()).To(BeFalse())
		for p := 2; p <= 4; p++ {
			pte := lowerPTE(engine, vm.SimAddr(p*vm.PageSize))
			Expect(pte.Resident()).To(BeTrue())
			Expect(pte.Referenced()).To(BeFalse())
		}
		Expect(lowerPTE(engine, 0x00005000).Referenced()).To(BeTrue())
	})

	It("should survive repeated eviction and refetch of every page", func() {
		const pages = 8

		for p := 1; p <= pages; p++ {
			engine.Write(fullPage(byte(p)), vm.SimAddr(p*vm.PageSize))
		}

		for round := 0; round < 2; round++ {
			for p := 1; p <= pages; p++ {
				out := make([]byte, vm.PageSize)
				engine.Read(out, vm.SimAddr(p*vm.PageSize))
				Expect(out).To(Equal(fullPage(byte(p))), "page %d", p)
			}
		}
	})

	It("should return identical contents on successive reads", func() {
		engine.Write(fullPage('R'), 0x00003000)

		first := make([]byte, vm.PageSize)
		second := make([]byte, vm.PageSize)
		engine.Read(first, 0x00003000)
		engine.Read(second, 0x00003000)

		Expect(first).To(Equal(second))
	})

	It("should track the dirty bit per fetch generation", func() {
		engine.Write(fullPage('D'), 0x00001000)
		Expect(lowerPTE(engine, 0x00001000).Dirty()).To(BeTrue())

		// Force the page out and back in with reads only.
		for p := 2; p <= 5; p++ {
			engine.Write(fullPage(byte(p)), vm.SimAddr(p*vm.PageSize))
		}
		out := make([]byte, vm.PageSize)
		engine.Read(out, 0x00001000)

		pte := lowerPTE(engine, 0x00001000)
		Expect(pte.Resident()).To(BeTrue())
		Expect(pte.Dirty()).To(BeFalse())
	})

	It("should support sub-page reads and writes", func() {
		engine.Write([]byte("paging"), 0x00001f00)

		out := make([]byte, 6)
		engine.Read(out, 0x00001f00)

		Expect(out).To(Equal([]byte("paging")))
	})

	It("should reject accesses that cross a page boundary", func() {
		buf := make([]byte, 64)

		Expect(func() { engine.Read(buf, 0x00001fe0) }).To(Panic())
		Expect(func() { engine.Write(buf, 0x00001fe0) }).To(Panic())
	})

	It("should translate without copying via Map", func() {
		engine.Write(fullPage('M'), 0x00002000)

		real := engine.Map(0x00002abc, false)

		Expect(uint32(real) & (vm.PageSize - 1)).To(Equal(uint32(0xabc)))
		Expect(real.PageBase()).To(
			BeNumerically(">=", vm.RealAddr(vm.PTAreaSize)))
	})

	It("should bump the simulated heap from one page in", func() {
		first := engine.Alloc(100)
		second := engine.Alloc(50)

		Expect(first).To(Equal(vm.SimAddr(vm.PageSize)))
		Expect(second).To(Equal(vm.SimAddr(vm.PageSize + 100)))
	})

	It("should treat free as a no-op", func() {
		engine.Write(fullPage('F'), 0x00001000)
		engine.Write(fullPage('G'), 0x00002000)

		engine.Free(0x00001000)
		engine.Free(0x00002000)
		engine.Free(0)

		out := make([]byte, vm.PageSize)
		engine.Read(out, 0x00001000)
		Expect(out).To(Equal(fullPage('F')))

		engine.Read(out, 0x00002000)
		Expect(out).To(Equal(fullPage('G')))
	})

	It("should keep unrelated pages intact across evictions", func() {
		engine.Write(fullPage('X'), 0x00001000)

		// Churn through enough other pages to evict and restore X twice.
		for round := 0; round < 2; round++ {
			for p := 2; p <= 6; p++ {
				engine.Write(fullPage(byte(p)), vm.SimAddr(p*vm.PageSize))
			}

			out := make([]byte, vm.PageSize)
			engine.Read(out, 0x00001000)
			Expect(out).To(Equal(fullPage('X')))
		}
	})
})
