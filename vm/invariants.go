package vm

import "fmt"

// CheckInvariants validates the engine's structural invariants: every owned
// frame's index entry points at a resident lower PTE naming that frame, the
// page tables stay inside the page-table region, frames stay inside the
// frame region, and non-resident entries name blocks the engine has
// written. It returns the first breach found, or nil.
func (e *Engine) CheckInvariants() error {
	if err := e.checkIndex(); err != nil {
		return err
	}

	return e.checkTables()
}

func (e *Engine) checkIndex() error {
	for i, pteAddr := range e.entries {
		if pteAddr == 0 {
			continue
		}

		if pteAddr < PageSize || pteAddr >= PTAreaSize {
			return fmt.Errorf(
				"index entry %d names PTE address 0x%08x outside the page-table region",
				i, uint32(pteAddr))
		}

		pte := e.arena.LoadPTE(pteAddr)
		if !pte.Resident() {
			return fmt.Errorf(
				"index entry %d names a non-resident PTE at 0x%08x",
				i, uint32(pteAddr))
		}

		if pte.Frame() != frameAddr(i) {
			return fmt.Errorf(
				"index entry %d names PTE at 0x%08x whose frame 0x%08x is not 0x%08x",
				i, uint32(pteAddr), uint32(pte.Frame()), uint32(frameAddr(i)))
		}
	}

	return nil
}

func (e *Engine) checkTables() error {
	for upperIndex := uint32(0); upperIndex < PageSize/PTESize; upperIndex++ {
		upperPTEAddr := e.upperPT + RealAddr(upperIndex*PTESize)
		upperPTE := e.arena.LoadPTE(upperPTEAddr)

		if upperPTE == 0 {
			continue
		}

		base := upperPTE.TableBase()
		if base < PageSize || base >= PTAreaSize {
			return fmt.Errorf(
				"upper entry %d names lower table 0x%08x outside the page-table region",
				upperIndex, uint32(base))
		}

		if err := e.checkLowerTable(base); err != nil {
			return err
		}
	}

	return nil
}

func (e *Engine) checkLowerTable(base RealAddr) error {
	for lowerIndex := uint32(0); lowerIndex < PageSize/PTESize; lowerIndex++ {
		pteAddr := base + RealAddr(lowerIndex*PTESize)
		pte := e.arena.LoadPTE(pteAddr)

		if pte == 0 {
			continue
		}

		if pte.Resident() {
			frame := pte.Frame()
			if frame < PTAreaSize || frame >= RealAddr(e.arena.Size()) {
				return fmt.Errorf(
					"PTE at 0x%08x names frame 0x%08x outside the frame region",
					uint32(pteAddr), uint32(frame))
			}

			if e.entries[frameIndex(frame)] != pteAddr {
				return fmt.Errorf(
					"PTE at 0x%08x owns frame 0x%08x but the index names 0x%08x",
					uint32(pteAddr), uint32(frame),
					uint32(e.entries[frameIndex(frame)]))
			}

			continue
		}

		if block := pte.Block(); block >= e.nextBlock {
			return fmt.Errorf(
				"PTE at 0x%08x names block %d which was never written",
				uint32(pteAddr), block)
		}
	}

	return nil
}
