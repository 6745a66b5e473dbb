package datarecording

// FaultEvent records one invocation of the engine's fault handler.
type FaultEvent struct {
	Seq     uint64
	SimAddr uint32
	Kind    string
}

// EvictEvent records one page moved out to the backing store.
type EvictEvent struct {
	Seq     uint64
	PTEAddr uint32
	Frame   uint32
	Block   uint32
}

// FetchEvent records one page moved back in from the backing store.
type FetchEvent struct {
	Seq     uint64
	PTEAddr uint32
	Frame   uint32
	Block   uint32
}
