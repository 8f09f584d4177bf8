package fragmentation

// addTimer enqueues f's expiration at the tail of the engine's global
// FIFO (spec.md §4.4). Every flow uses the same fixed timeout, so the
// FIFO is already sorted by expiration without any heap machinery.
func (e *Engine) addTimer(f *flow, currentTime uint32) {
	f.expiresAt = currentTime + uint32(e.timeoutSeconds)
	e.timers.pushBack(f)
}

// removeTimer dequeues f's timer entry, on destruction by any cause.
func (e *Engine) removeTimer(f *flow) {
	e.timers.remove(f)
}
