package telemetry

// DefaultHistoryCap is the hard cap on the speed and memory histories.
const DefaultHistoryCap = 30

// DefaultAlpha is the exponential moving average weight applied to new
// speed samples.
const DefaultAlpha = 0.1

// Smoother applies an exponential moving average to upload and download
// throughput independently. The first sample of a session is stored raw,
// with no prior to smooth against. Smoother is not safe for concurrent
// use; each traffic channel owns one.
type Smoother struct {
	alpha    float64
	primed   bool
	up, down float64
}

// NewSmoother returns a Smoother with the given weight. A weight outside
// (0, 1] falls back to DefaultAlpha.
func NewSmoother(alpha float64) *Smoother {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &Smoother{alpha: alpha}
}

// Apply folds a raw sample into the series and returns the smoothed
// upload and download values.
func (s *Smoother) Apply(up, down float64) (float64, float64) {
	if !s.primed {
		s.up, s.down = up, down
		s.primed = true
		return s.up, s.down
	}
	s.up = s.up*(1-s.alpha) + up*s.alpha
	s.down = s.down*(1-s.alpha) + down*s.alpha
	return s.up, s.down
}

// Reset discards the smoothing state so the next sample is stored raw.
func (s *Smoother) Reset() {
	s.primed = false
	s.up, s.down = 0, 0
}

// History is a fixed-capacity, append-only sample buffer. When full, the
// oldest entry is evicted before appending (strict FIFO). History is not
// safe for concurrent use; callers synchronize around it.
type History[T any] struct {
	capacity int
	start    int
	items    []T
}

// NewHistory returns an empty history with the given capacity. A
// capacity below 1 falls back to DefaultHistoryCap.
func NewHistory[T any](capacity int) *History[T] {
	if capacity < 1 {
		capacity = DefaultHistoryCap
	}
	return &History[T]{
		capacity: capacity,
		items:    make([]T, 0, capacity),
	}
}

// Push appends a sample, evicting the oldest entry if the buffer is full.
func (h *History[T]) Push(v T) {
	if len(h.items) < h.capacity {
		h.items = append(h.items, v)
		return
	}
	h.items[h.start] = v
	h.start = (h.start + 1) % h.capacity
}

// Len returns the number of buffered samples.
func (h *History[T]) Len() int {
	return len(h.items)
}

// Items returns the buffered samples in arrival order, oldest first. The
// returned slice is a copy.
func (h *History[T]) Items() []T {
	out := make([]T, 0, len(h.items))
	out = append(out, h.items[h.start:]...)
	out = append(out, h.items[:h.start]...)
	return out
}

// Clear empties the buffer without changing its capacity.
func (h *History[T]) Clear() {
	h.items = h.items[:0]
	h.start = 0
}
