package vm

import "github.com/Crabasa0/paging/datarecording"

// A tracer forwards paging events to a PagingRecorder, stamping each with a
// sequence number. A nil tracer drops everything.
type tracer struct {
	recorder datarecording.PagingRecorder
	seq      uint64
}

func newTracer(recorder datarecording.PagingRecorder) *tracer {
	if recorder == nil {
		return nil
	}

	return &tracer{recorder: recorder}
}

func (t *tracer) fault(addr SimAddr, kind string) {
	if t == nil {
		return
	}

	t.seq++
	t.recorder.RecordFault(datarecording.FaultEvent{
		Seq:     t.seq,
		SimAddr: uint32(addr),
		Kind:    kind,
	})
}

func (t *tracer) evict(pteAddr, frame RealAddr, block uint32) {
	if t == nil {
		return
	}

	t.seq++
	t.recorder.RecordEviction(datarecording.EvictEvent{
		Seq:     t.seq,
		PTEAddr: uint32(pteAddr),
		Frame:   uint32(frame),
		Block:   block,
	})
}

func (t *tracer) fetch(pteAddr, frame RealAddr, block uint32) {
	if t == nil {
		return
	}

	t.seq++
	t.recorder.RecordFetch(datarecording.FetchEvent{
		Seq:     t.seq,
		PTEAddr: uint32(pteAddr),
		Frame:   uint32(frame),
		Block:   block,
	})
}
