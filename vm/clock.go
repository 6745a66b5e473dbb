package vm

// findVictim runs the CLOCK policy over the frame-to-PTE index and returns
// the real address of the lower PTE whose frame should be evicted.
//
// The hand inspects the entry under it: a referenced owner has its
// reference bit cleared and the hand advances; the first non-referenced
// owner is the victim, with the hand left on it. Termination is guaranteed
// because each step clears a reference bit, so at most one full revolution
// precedes the pick.
//
// The policy is only consulted once the frame region has filled, at which
// point every index entry has an owner and owners are only ever reassigned,
// never removed.
func (e *Engine) findVictim() RealAddr {
	for {
		pteAddr := e.entries[e.clockHand]
		pte := e.arena.LoadPTE(pteAddr)

		if !pte.Referenced() {
			return pteAddr
		}

		e.arena.StorePTE(pteAddr, pte.ClearReferenced())
		e.clockHand = (e.clockHand + 1) % len(e.entries)
	}
}
