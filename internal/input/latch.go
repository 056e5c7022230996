package input

import "sync/atomic"

// Latch is a sticky activity flag shared between producers (the button edge
// handler, portal request handlers) and the single consumer on the main
// cycle. Signal never blocks; Take clears the flag and reports whether any
// Signal happened since the previous Take. Pulses are never lost, several
// pulses between two Takes collapse into one.
type Latch struct {
	set   atomic.Bool
	count atomic.Uint64
}

// Signal records activity. Safe to call from the edge handler.
func (l *Latch) Signal() {
	l.count.Add(1)
	l.set.Store(true)
}

// Take consumes the flag.
func (l *Latch) Take() bool {
	return l.set.Swap(false)
}

// Count returns the total number of signals, for diagnostics and tests.
func (l *Latch) Count() uint64 {
	return l.count.Load()
}
