package scoring

import "github.com/okian/fairfeed/internal/domain/model"

// DiversityWindowSize is the default length of the trailing content-type
// window consulted by the diversity factor.
const DiversityWindowSize = 5

// TypeWindow is a fixed-capacity FIFO of the content types most recently
// processed within a single ranking call. It is plain per-call state:
// each ScoreAll builds its own and discards it afterwards.
type TypeWindow struct {
	buf  []model.ContentType
	head int
	n    int
}

// NewTypeWindow returns an empty window with the given capacity.
// Capacities below 1 fall back to the default.
func NewTypeWindow(capacity int) *TypeWindow {
	if capacity < 1 {
		capacity = DiversityWindowSize
	}
	return &TypeWindow{buf: make([]model.ContentType, capacity)}
}

// Diversity returns 1 minus the fraction of window entries matching ct.
// An empty window yields 1.0: nothing processed yet means no repeats.
func (w *TypeWindow) Diversity(ct model.ContentType) float64 {
	if w.n == 0 {
		return 1.0
	}
	same := 0
	for i := 0; i < w.n; i++ {
		if w.buf[(w.head+i)%len(w.buf)] == ct {
			same++
		}
	}
	return 1 - float64(same)/float64(w.n)
}

// Observe pushes ct into the window, evicting the oldest entry once the
// window is full.
func (w *TypeWindow) Observe(ct model.ContentType) {
	if w.n < len(w.buf) {
		w.buf[(w.head+w.n)%len(w.buf)] = ct
		w.n++
		return
	}
	w.buf[w.head] = ct
	w.head = (w.head + 1) % len(w.buf)
}

// Len returns the number of entries currently in the window.
func (w *TypeWindow) Len() int {
	return w.n
}
