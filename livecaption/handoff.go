package livecaption

import (
	"sync"

	"github.com/meetscribe/meetscribe/recognizer"
)

// Entry is one item moving from the worker to the presenter: either a
// recognizer result or a pipeline error to surface on the UI side.
type Entry struct {
	Result recognizer.Result
	Err    error
}

// Handoff is the FIFO handing results from the single pipeline worker to
// the single UI-side consumer. Neither side blocks the other: the
// producer appends and pokes a buffered wake channel; the consumer
// drains opportunistically.
//
// Backpressure degrades by supersession only. A pushed partial whose
// predecessor at the tail is also a partial replaces it in place, so a
// flood of partials collapses into one pending entry while finals and
// errors are always retained in order. A final is never dropped and is
// never reordered relative to the partials around it.
type Handoff struct {
	mu      sync.Mutex
	entries []Entry
	wake    chan struct{}
}

// NewHandoff creates an empty handoff.
func NewHandoff() *Handoff {
	return &Handoff{wake: make(chan struct{}, 1)}
}

// Push enqueues a result, coalescing a trailing partial.
func (h *Handoff) Push(r recognizer.Result) {
	h.mu.Lock()
	if !r.Final && len(h.entries) > 0 {
		tail := &h.entries[len(h.entries)-1]
		if tail.Err == nil && !tail.Result.Final {
			tail.Result = r
			h.mu.Unlock()
			h.signal()
			return
		}
	}
	h.entries = append(h.entries, Entry{Result: r})
	h.mu.Unlock()
	h.signal()
}

// PushErr enqueues a pipeline error so it is delivered to the UI side
// through the same ordered path as results.
func (h *Handoff) PushErr(err error) {
	h.mu.Lock()
	h.entries = append(h.entries, Entry{Err: err})
	h.mu.Unlock()
	h.signal()
}

// Drain removes and returns all pending entries in FIFO order.
func (h *Handoff) Drain() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return nil
	}
	out := h.entries
	h.entries = nil
	return out
}

// Wake returns the channel the consumer blocks on between drains.
func (h *Handoff) Wake() <-chan struct{} {
	return h.wake
}

// Len returns the number of pending entries.
func (h *Handoff) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *Handoff) signal() {
	select {
	case h.wake <- struct{}{}:
	default:
		// Consumer already has a pending wake-up.
	}
}
