package capture

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferWrap(t *testing.T) {
	r := NewRingBuffer(5)
	_, _ = r.WriteString("abc")
	assert.Equal(t, "abc", r.String())
	assert.Equal(t, 3, r.Len())

	_, _ = r.WriteString("de")
	assert.Equal(t, "abcde", r.String())

	_, _ = r.WriteString("fg")
	assert.Equal(t, "cdefg", r.String())
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, 5, r.Cap())
}

func TestRingBufferOversizedWrite(t *testing.T) {
	r := NewRingBuffer(4)
	_, _ = r.WriteString("x")
	n, err := r.WriteString("0123456789")
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "6789", r.String())

	_, _ = r.WriteString("ab")
	assert.Equal(t, "89ab", r.String())
}

func TestRingBufferContainsAndReset(t *testing.T) {
	r := NewRingBuffer(64)
	_, _ = r.WriteString("ioctl: Operation not permitted\n")
	assert.True(t, r.Contains([]byte("Operation not permitted")))

	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.String())
	assert.False(t, r.Contains([]byte("Operation")))
}

func TestRingBufferMinimumSize(t *testing.T) {
	r := NewRingBuffer(0)
	_, _ = r.WriteString("abc")
	assert.Equal(t, "c", r.String())
}

func TestRingBufferConcurrent(t *testing.T) {
	r := NewRingBuffer(128)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = r.WriteString("line\n")
				_ = r.Bytes()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 128, r.Len())
}
