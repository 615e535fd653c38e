package gesture

// Ring is a fixed-capacity FIFO buffer. Pushing onto a full ring evicts the
// oldest element.
type Ring[T any] struct {
	data []T
	pos  int
	full bool
}

// NewRing creates a Ring with the given capacity. Capacity below 1 is
// treated as 1.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Push adds a value, overwriting the oldest one when full.
func (r *Ring[T]) Push(v T) {
	r.data[r.pos] = v
	r.pos++
	if r.pos >= len(r.data) {
		r.pos = 0
		r.full = true
	}
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.pos
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.data)
}

// Full reports whether the ring holds Cap elements.
func (r *Ring[T]) Full() bool {
	return r.full
}

// Slice returns the contents oldest-first.
func (r *Ring[T]) Slice() []T {
	n := r.Len()
	out := make([]T, n)
	if r.full {
		copy(out, r.data[r.pos:])
		copy(out[len(r.data)-r.pos:], r.data[:r.pos])
	} else {
		copy(out, r.data[:r.pos])
	}
	return out
}

// Reset empties the ring.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.pos = 0
	r.full = false
}
