package fragmentation

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newDiscardLogger returns a logrus.Logger with output discarded, so a
// caller who never opts in pays nothing on the hot path (spec.md §7:
// nothing is retried or surfaced, but internal categories are still
// useful to log at the implementation's discretion).
func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (e *Engine) logDrop(reason string, addr Address, id uint32) {
	e.logger.WithFields(logrus.Fields{
		"reason": reason,
		"source": addr,
		"id":     id,
	}).Debug("fragmentation: dropping/evicting flow")
}

// logDebugCounters reproduces the original's debug prints, fixing the
// field it mislabels: the original prints "Source memory occupied"
// but passes total_used_mem, not source_used_mem (spec.md §9). This
// logs the field under its correct name instead of perpetuating the
// mislabel.
func (e *Engine) logDebugCounters(src *source) {
	e.logger.WithFields(logrus.Fields{
		"total_used_mem":  e.totalUsedMem,
		"source_used_mem": src.usedMem,
	}).Debug("fragmentation: memory occupied")
}
