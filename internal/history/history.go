// Package history keeps a rolling, newest-first log of scalar samples.
//
// Retention is driven by the reader: every read takes a width W and
// discards everything older than the W newest samples. Storage is a
// fixed-capacity ring, so a producer that is never read still runs in
// constant memory.
package history

type History struct {
	buf  []float64
	head int // slot of the newest sample
	size int
}

// New returns a history that holds a single zero sample.
func New(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	h := &History{buf: make([]float64, capacity)}
	h.Push(0)
	return h
}

// Push records v as the newest sample, overwriting the oldest one when
// the ring is full.
func (h *History) Push(v float64) {
	h.head = (h.head + 1) % len(h.buf)
	h.buf[h.head] = v
	if h.size < len(h.buf) {
		h.size++
	}
}

// Trim keeps only the w newest samples. The newest sample is never dropped.
func (h *History) Trim(w int) {
	if w < 1 {
		w = 1
	}
	if w < h.size {
		h.size = w
	}
}

// Samples trims to w and returns the retained samples newest first.
func (h *History) Samples(w int) []float64 {
	h.Trim(w)
	out := make([]float64, h.size)
	for i := range out {
		out[i] = h.at(i)
	}
	return out
}

// Series trims to w and returns the retained samples oldest first, the
// order plotting libraries expect.
func (h *History) Series(w int) []float64 {
	h.Trim(w)
	out := make([]float64, h.size)
	for i := range out {
		out[len(out)-1-i] = h.at(i)
	}
	return out
}

// Latest is the newest sample.
func (h *History) Latest() float64 { return h.buf[h.head] }

func (h *History) Len() int { return h.size }
func (h *History) Cap() int { return len(h.buf) }

// at returns the sample i steps older than the newest.
func (h *History) at(i int) float64 {
	n := len(h.buf)
	return h.buf[(h.head-i+n)%n]
}
