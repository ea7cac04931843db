package reactive

import "sync/atomic"

var idCounter uint64

// NextID returns a process-unique, monotonically increasing identifier.
// Owners, views and stores share the sequence.
func NextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}
