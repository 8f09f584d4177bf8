package fragmentation

import "unsafe"

// flow is the in-progress reassembly state for one original datagram,
// keyed by (src, dst, id) — src is implicit in the owning source
// (spec.md §3).
type flow struct {
	flowEntry  // linkage in source.flows
	timerEntry // linkage in Engine's global timer FIFO

	id             uint32
	dst            Address
	unfragmentable []byte
	fragments      []fragment
	len            uint16 // 0 = unknown: no terminal fragment seen yet
	source         *source
}

var flowOverhead = uint32(unsafe.Sizeof(flow{}))

// findOrCreateFlow implements spec.md §4.3: a linear scan of src's flow
// list keyed by (id, dst), followed by head-insertion on miss. Creation
// charges sizeof(flow) to both counters and enqueues a timer entry
// expiring at currentTime+timeout.
func (e *Engine) findOrCreateFlow(src *source, id uint32, dst Address, currentTime uint32) *flow {
	for f := src.flows.front(); f != nil; f = f.next {
		if f.id == id && f.dst == dst {
			return f
		}
	}

	f := &flow{id: id, dst: dst, source: src}
	src.flows.pushFront(f)

	src.usedMem += flowOverhead
	e.totalUsedMem += flowOverhead

	e.addTimer(f, currentTime)
	return f
}

// deleteFlow cascades deletion of a flow's fragments and unfragmentable
// buffer, removes its timer entry, and unlinks it from its source
// (spec.md §4.3, mirroring dpi_ipv6_fragmentation_delete_flow).
func (e *Engine) deleteFlow(f *flow) {
	src := f.source

	src.usedMem -= flowOverhead
	e.totalUsedMem -= flowOverhead

	e.removeTimer(f)

	for _, frag := range f.fragments {
		n := uint32(frag.end - frag.offset)
		src.usedMem -= n
		e.totalUsedMem -= n
	}
	f.fragments = nil

	if f.unfragmentable != nil {
		n := uint32(len(f.unfragmentable))
		src.usedMem -= n
		e.totalUsedMem -= n
		f.unfragmentable = nil
	}

	src.flows.remove(f)
}
