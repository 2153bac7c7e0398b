package store

// ring is a fixed-size circular buffer. Once full, each push overwrites the
// oldest element.
type ring[T any] struct {
	data  []T
	head  int
	count int
	size  int
}

func newRing[T any](size int) *ring[T] {
	return &ring[T]{
		data: make([]T, size),
		size: size,
	}
}

func (r *ring[T]) push(value T) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// oldestFirst returns all stored values in chronological order.
func (r *ring[T]) oldestFirst() []T {
	if r.count == 0 {
		return nil
	}
	result := make([]T, r.count)
	// head points to the next write position; the oldest value sits count slots behind it.
	start := (r.head - r.count + r.size) % r.size
	for i := 0; i < r.count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}

// newestFirst returns all stored values, most recent first.
func (r *ring[T]) newestFirst() []T {
	if r.count == 0 {
		return nil
	}
	result := make([]T, r.count)
	for i := 0; i < r.count; i++ {
		result[i] = r.data[(r.head-1-i+2*r.size)%r.size]
	}
	return result
}

// last returns the most recent value.
func (r *ring[T]) last() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.data[(r.head-1+r.size)%r.size], true
}

func (r *ring[T]) reset() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.head = 0
	r.count = 0
}

func (r *ring[T]) len() int {
	return r.count
}
