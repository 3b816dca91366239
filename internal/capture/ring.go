package capture

import (
	"bytes"
	"sync"
)

// RingBuffer is a thread-safe circular buffer that retains the most recent
// size bytes written to it.
//
//	Initial:     [_, _, _, _, _]  start=0, end=0
//	Write "abc": [a, b, c, _, _]  start=0, end=3
//	Write "de":  [a, b, c, d, e]  start=0, end=0, full=true
//	Write "fg":  [f, g, c, d, e]  start=2, end=2 → Bytes() returns "cdefg"
//
// RingBuffer implements io.Writer.
type RingBuffer struct {
	mu    sync.RWMutex
	data  []byte
	size  int
	start int
	end   int
	full  bool
}

// NewRingBuffer creates a ring buffer holding at most size bytes.
// A size below 1 is treated as 1.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends p, overwriting the oldest bytes when full. It never fails.
func (r *RingBuffer) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Only the last size bytes of p can survive.
	if len(p) >= r.size {
		copy(r.data, p[len(p)-r.size:])
		r.start, r.end, r.full = 0, 0, true
		return len(p), nil
	}

	for _, b := range p {
		r.data[r.end] = b
		r.end = (r.end + 1) % r.size
		if r.full {
			r.start = (r.start + 1) % r.size
		}
		if r.end == r.start {
			r.full = true
		}
	}
	return len(p), nil
}

// WriteString is Write for strings.
func (r *RingBuffer) WriteString(s string) (int, error) {
	return r.Write([]byte(s))
}

// Bytes returns a copy of the buffered data, oldest first.
func (r *RingBuffer) Bytes() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]byte, 0, r.len())
	if r.full || r.end < r.start {
		out = append(out, r.data[r.start:]...)
		out = append(out, r.data[:r.end]...)
	} else {
		out = append(out, r.data[r.start:r.end]...)
	}
	return out
}

// String returns the buffered data as a string.
func (r *RingBuffer) String() string {
	return string(r.Bytes())
}

// Contains reports whether the buffered data contains sub.
func (r *RingBuffer) Contains(sub []byte) bool {
	return bytes.Contains(r.Bytes(), sub)
}

// Len returns the number of buffered bytes.
func (r *RingBuffer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.len()
}

// Cap returns the buffer capacity.
func (r *RingBuffer) Cap() int {
	return r.size
}

func (r *RingBuffer) len() int {
	if r.full {
		return r.size
	}
	if r.end >= r.start {
		return r.end - r.start
	}
	return r.size - r.start + r.end
}

// Reset discards all buffered data.
func (r *RingBuffer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start, r.end, r.full = 0, 0, false
}
