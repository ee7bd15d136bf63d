package sim

import (
	"gonum.org/v1/gonum/stat"
)

// History keeps the pulse counts of the most recent seconds.
type History struct {
	counts []float64
	next   int
	filled bool
}

func NewHistory(seconds int) *History {
	return &History{counts: make([]float64, seconds)}
}

func (h *History) Push(pulses uint32) {
	h.counts[h.next] = float64(pulses)
	h.next++
	if h.next == len(h.counts) {
		h.next = 0
		h.filled = true
	}
}

func (h *History) Len() int {
	if h.filled {
		return len(h.counts)
	}
	return h.next
}

// Rate is the mean count rate over the history in counts per second. An
// empty history has a zero rate.
func (h *History) Rate() float64 {
	n := h.Len()
	if n == 0 {
		return 0
	}
	return stat.Mean(h.counts[:n], nil)
}

func (h *History) Reset() {
	for i := range h.counts {
		h.counts[i] = 0
	}
	h.next = 0
	h.filled = false
}
