package reactive

// DebugMode enables hook order validation on every render.
// Set it at startup; it is not synchronized.
var DebugMode bool

// Batch runs fn and defers listener notifications issued on this goroutine
// until the outermost Batch returns. Each listener is notified once, in the
// order it was first queued.
//
// Example:
//
//	reactive.Batch(func() {
//	    set.Set(model.Partial{"first": "Ada"})
//	    set.Set(model.Partial{"last": "Lovelace"})
//	})
//	// subscribed views re-render once
func Batch(fn func()) {
	s := currentState()
	s.batchDepth++

	defer func() {
		s.batchDepth--
		if s.batchDepth > 0 {
			return
		}
		pending := s.pending
		s.pending = nil
		release(s)
		flushPending(pending)
	}()

	fn()
}

func flushPending(pending []Listener) {
	if len(pending) == 0 {
		return
	}
	seen := make(map[uint64]struct{}, len(pending))
	for _, l := range pending {
		id := l.ID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		l.MarkDirty()
	}
}
