// Package fragmentation implements the IPv6 datagram reassembly engine:
// a stateful component that buffers fragments by (source address,
// destination address, identification), reconstructs the original
// datagram once every fragment has arrived, and garbage-collects
// partial state under time and memory pressure.
//
// Packet parsing, IPv4 reassembly, and everything above the fragment
// header are the caller's responsibility; this package only manages
// the buffering and timing of IPv6 fragments already split into their
// unfragmentable and fragmentable parts by the caller.
package fragmentation

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	// MaxDatagramSize is the largest reassembled IPv6 datagram this
	// engine will produce (spec.md §4.6, §4.7).
	MaxDatagramSize = 65535

	// MinimumMTU is the smallest total packet size accepted when the
	// MTU check is enabled (spec.md §4.6 step 1).
	MinimumMTU = 1280

	// DefaultPerSourceMemoryLimit is the recommended per-source cap.
	DefaultPerSourceMemoryLimit = 8 * 1024
	// DefaultTotalMemoryLimit is the recommended engine-wide cap.
	DefaultTotalMemoryLimit = 32 * 1024 * 1024
	// DefaultReassemblyTimeout is the recommended flow lifetime, in
	// seconds of the caller-supplied monotonic counter.
	DefaultReassemblyTimeout = 30
)

// Engine is the reassembly engine handle (spec.md §3, "State"). The
// zero value is not usable; construct with New.
type Engine struct {
	mu sync.Mutex

	table     []sourceList
	tableSize uint16

	timers timerList

	perSourceLimit  uint32
	totalLimit      uint32
	timeoutSeconds  uint8
	totalUsedMem    uint32
	minimumMTUCheck bool

	logger *logrus.Logger
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithPerSourceMemoryLimit overrides DefaultPerSourceMemoryLimit.
func WithPerSourceMemoryLimit(n uint32) Option {
	return func(e *Engine) { e.perSourceLimit = n }
}

// WithTotalMemoryLimit overrides DefaultTotalMemoryLimit.
func WithTotalMemoryLimit(n uint32) Option {
	return func(e *Engine) { e.totalLimit = n }
}

// WithReassemblyTimeout overrides DefaultReassemblyTimeout.
func WithReassemblyTimeout(seconds uint8) Option {
	return func(e *Engine) { e.timeoutSeconds = seconds }
}

// WithMinimumMTUCheck toggles the spec.md §4.6 step 1 MTU check. It
// defaults to enabled: spec.md §9 treats the original's always-off
// macro as an accident, not the documented intent.
func WithMinimumMTUCheck(enabled bool) Option {
	return func(e *Engine) { e.minimumMTUCheck = enabled }
}

// WithLogger overrides the default discard logger (see log.go).
func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New enables IPv6 fragmentation support (spec.md §6,
// enable_ipv6_fragmentation). tableSize fixes the number of source
// hash buckets for the lifetime of the engine.
func New(tableSize uint16, opts ...Option) *Engine {
	e := &Engine{
		table:           make([]sourceList, tableSize),
		tableSize:       tableSize,
		perSourceLimit:  DefaultPerSourceMemoryLimit,
		totalLimit:      DefaultTotalMemoryLimit,
		timeoutSeconds:  DefaultReassemblyTimeout,
		minimumMTUCheck: true,
		logger:          newDiscardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetPerSourceMemoryLimit implements
// set_per_host_memory_limit (spec.md §6).
func (e *Engine) SetPerSourceMemoryLimit(n uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.perSourceLimit = n
}

// SetTotalMemoryLimit implements set_total_memory_limit (spec.md §6).
func (e *Engine) SetTotalMemoryLimit(n uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.totalLimit = n
}

// SetReassemblyTimeout implements set_reassembly_timeout (spec.md §6).
func (e *Engine) SetReassemblyTimeout(seconds uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.timeoutSeconds = seconds
}

// Close implements disable_ipv6_fragmentation (spec.md §6): it drops
// every source, flow, and fragment the engine holds. There is nothing
// to manually free in Go, but the counters are reset to exactly zero,
// which is the observable contract the original's teardown gave: no
// leaked accounting after the engine is disabled.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.table = make([]sourceList, e.tableSize)
	e.timers = timerList{}
	e.totalUsedMem = 0
}

// TotalUsedMem reports the engine-wide memory counter spec.md §3 defines,
// for callers that want to poll it for observability without reaching
// into internals.
func (e *Engine) TotalUsedMem() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalUsedMem
}

// SourceCount reports the number of distinct sources currently tracked
// across every bucket.
func (e *Engine) SourceCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	var n int
	for i := range e.table {
		for s := e.table[i].front(); s != nil; s = s.next {
			n++
		}
	}
	return n
}

// Fragment is a single IPv6 fragment as delivered by the upstream
// packet-processing pipeline: header parsing and option walking have
// already happened, and the fields below are exactly the ones spec.md
// §4.6 lists as manage_fragment's inputs (minus the C API's thread_id,
// which a Go sync.Mutex has no use for).
type Fragment struct {
	Src, Dst Address

	// Unfragmentable is the prefix of the original packet up to (not
	// including) the fragment header: the IPv6 header plus any
	// preceding extension headers.
	Unfragmentable []byte

	// Fragmentable is the payload slice for this fragment, covering
	// exactly [Offset, Offset+len(Fragmentable)).
	Fragmentable []byte

	Offset         uint16
	MoreFragments  bool
	Identification uint32
	NextHeader     uint8

	// CurrentTime is the caller-supplied monotonic second counter
	// (spec.md §2: the clock source is an external collaborator).
	CurrentTime uint32
}

// ManageFragment implements manage_fragment (spec.md §4.6): it accepts
// one fragment, buffers it, and returns either nil (accepted, or
// silently dropped — spec.md §7 collapses every failure into this same
// outcome) or the fully reassembled datagram, transferring ownership of
// the returned slice to the caller.
func (e *Engine) ManageFragment(in Fragment) []byte {
	// The MTU and oversize checks need no shared state, so — matching
	// the original, which performs them before taking its spinlock —
	// they run before the mutex is acquired.
	if e.minimumMTUCheck && len(in.Unfragmentable)+len(in.Fragmentable) < MinimumMTU {
		return nil
	}

	end := uint32(in.Offset) + uint32(len(in.Fragmentable))
	if end > MaxDatagramSize {
		e.logger.Debug("fragmentation: rejecting oversized fragment")
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	src := e.findOrCreateSource(in.Src)
	e.logDebugCounters(src)

	if e.applyEviction(src, in.CurrentTime) {
		return nil
	}

	f := e.findOrCreateFlow(src, in.Identification, in.Dst, in.CurrentTime)

	if f.len != 0 && in.Offset > f.len {
		// Malformed: starts past the known end of the datagram.
		return nil
	}

	if f.unfragmentable == nil {
		f.unfragmentable = append([]byte(nil), in.Unfragmentable...)
		n := uint32(len(f.unfragmentable))
		src.usedMem += n
		e.totalUsedMem += n
		patchNextHeader(f.unfragmentable, in.NextHeader)
	}

	if !in.MoreFragments {
		if f.len != 0 {
			// Terminal fragment already received; this one is a
			// redundant (or malicious) duplicate.
			return nil
		}
		f.len = uint16(end)
	}

	fragments, removed, inserted := insertFragment(f.fragments, in.Fragmentable, in.Offset, uint16(end))
	f.fragments = fragments

	src.usedMem += uint32(inserted)
	src.usedMem -= uint32(removed)
	e.totalUsedMem += uint32(inserted)
	e.totalUsedMem -= uint32(removed)

	if f.len != 0 && allContiguous(f.fragments) {
		return e.buildCompleteDatagram(f)
	}
	return nil
}

// buildCompleteDatagram implements spec.md §4.7: it assembles the
// unfragmentable prefix and the compacted fragment train into one
// buffer and patches the payload-length field. An oversize datagram
// destroys the flow (and its source, if that was the last flow) before
// returning nil; a compaction inconsistency is just a protocol error
// (spec.md §7) and leaves the flow live in the table, not destroyed.
func (e *Engine) buildCompleteDatagram(f *flow) []byte {
	src := f.source
	total := uint32(len(f.unfragmentable)) + uint32(f.len)

	if total > MaxDatagramSize {
		e.deleteFlow(f)
		if src.flows.empty() {
			e.deleteSource(src)
		}
		return nil
	}

	buf := make([]byte, total)
	copy(buf, f.unfragmentable)

	count := compact(f.fragments, buf[len(f.unfragmentable):], f.len)
	if count == -1 {
		return nil
	}

	patchPayloadLength(buf, uint16(uint32(count)+uint32(len(f.unfragmentable))-uint32(ipv6HeaderSize)))

	e.deleteFlow(f)
	if src.flows.empty() {
		e.deleteSource(src)
	}
	return buf
}
