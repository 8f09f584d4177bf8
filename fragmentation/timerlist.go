package fragmentation

// timerList is the engine-global expiration FIFO (spec.md §4.4): one
// entry per live flow, appended at creation and removed on destruction
// by any cause. Because every flow gets the same fixed timeout at
// creation, arrival order already equals expiration order, so this
// plain FIFO doubles as a priority queue with no heap needed.
//
// A flow participates in two lists at once (its source's flowList and
// this global timerList), so its timer linkage lives in separate fields
// (timerNext/timerPrev) from its flowList linkage (next/prev).
type timerList struct {
	head *flow
	tail *flow
}

func (l *timerList) empty() bool {
	return l.head == nil
}

func (l *timerList) front() *flow {
	return l.head
}

// pushBack appends f; new flows arrive at the tail, so the head is
// always the earliest-created (and, since timeouts are fixed, the
// earliest-expiring) live flow.
func (l *timerList) pushBack(f *flow) {
	f.timerNext = nil
	f.timerPrev = l.tail

	if l.tail != nil {
		l.tail.timerNext = f
	} else {
		l.head = f
	}
	l.tail = f
}

func (l *timerList) remove(f *flow) {
	prev := f.timerPrev
	next := f.timerNext

	if prev != nil {
		prev.timerNext = next
	} else {
		l.head = next
	}
	if next != nil {
		next.timerPrev = prev
	} else {
		l.tail = prev
	}
	f.timerNext, f.timerPrev = nil, nil
}

// timerEntry is embedded in flow for its global timer-queue linkage.
type timerEntry struct {
	timerNext *flow
	timerPrev *flow
	expiresAt uint32
}
