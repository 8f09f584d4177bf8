package fragmentation

import "unsafe"

// source groups every in-progress flow originating from one IPv6
// source address, for accounting and eviction (spec.md §3).
type source struct {
	sourceEntry // linkage in its bucket

	addr    Address
	flows   flowList
	usedMem uint32
	row     uint16
}

var sourceOverhead = uint32(unsafe.Sizeof(source{}))

// findOrCreateSource implements spec.md §4.2: linear scan of the bucket
// for an equal address; on miss, prepend a fresh source and charge
// sizeof(source) to both the source counter and the global counter.
func (e *Engine) findOrCreateSource(addr Address) *source {
	row := hashAddr(addr, e.tableSize)
	bucket := &e.table[row]

	for s := bucket.front(); s != nil; s = s.next {
		if s.addr == addr {
			return s
		}
	}

	s := &source{addr: addr, row: row, usedMem: sourceOverhead}
	bucket.pushFront(s)
	e.totalUsedMem += sourceOverhead
	return s
}

// deleteSource cascades deletion of all of a source's flows (which each
// cascade fragment deletion), then unlinks it from its bucket (spec.md
// §4.2, mirroring dpi_ipv6_fragmentation_delete_source).
func (e *Engine) deleteSource(s *source) {
	for f := s.flows.front(); f != nil; {
		next := f.next
		e.deleteFlow(f)
		f = next
	}

	e.table[s.row].remove(s)
	e.totalUsedMem -= sourceOverhead
}
