package reactive

// Listener is anything that can be told one of its inputs changed.
// Views implement it; stores call it through Notify.
type Listener interface {
	// MarkDirty reports that an input changed. For a View this triggers a
	// re-render.
	MarkDirty()

	// ID identifies the listener for deduplication inside a batch.
	ID() uint64
}

// Notify marks l dirty, or queues it when the calling goroutine is inside a
// Batch. Queued listeners are notified once when the outermost batch ends.
func Notify(l Listener) {
	if l == nil {
		return
	}
	if getBatchDepth() > 0 {
		queuePending(l)
		return
	}
	l.MarkDirty()
}
