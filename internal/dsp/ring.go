package dsp

// Ring is a fixed-capacity sample ring used for the render reference
// history. It is owned by the single processing goroutine driving the
// engine, so it carries no lock, and reads copy into caller-provided
// scratch so the per-frame path stays allocation free.
type Ring struct {
	data   []float32
	head   int // index of the next write
	filled int
}

func NewRing(capacity int) *Ring {
	return &Ring{data: make([]float32, capacity)}
}

func (r *Ring) Capacity() int { return len(r.data) }

func (r *Ring) Filled() int { return r.filled }

// Write appends samples, overwriting the oldest once full.
func (r *Ring) Write(samples []float32) {
	for _, s := range samples {
		r.data[r.head] = s
		r.head++
		if r.head == len(r.data) {
			r.head = 0
		}
		if r.filled < len(r.data) {
			r.filled++
		}
	}
}

// CopyEnding fills dst with the len(dst) samples ending offset samples
// before the newest written sample. Positions older than what has been
// written are zero filled, so a cold or short history reads as silence.
func (r *Ring) CopyEnding(dst []float32, offset int) {
	n := len(dst)
	for i := 0; i < n; i++ {
		// age of the requested sample, newest == 0
		age := offset + n - 1 - i
		if age >= r.filled || age >= len(r.data) {
			dst[i] = 0
			continue
		}
		idx := r.head - 1 - age
		if idx < 0 {
			idx += len(r.data)
		}
		dst[i] = r.data[idx]
	}
}

func (r *Ring) Reset() {
	for i := range r.data {
		r.data[i] = 0
	}
	r.head = 0
	r.filled = 0
}
