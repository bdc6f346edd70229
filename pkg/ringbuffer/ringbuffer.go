// Copyright Flowlight, Inc. All rights reserved.
//
// Use of this source code is governed by the Apache 2.0 license that can be found in the
// LICENSE file or at:
// https://www.apache.org/licenses/LICENSE-2.0

package ringbuffer

import "fmt"

// RingBuffer is a fixed-capacity circular buffer that overwrites the oldest
// element when full. It is not safe for concurrent use; callers that share a
// buffer across goroutines must synchronize externally.
type RingBuffer[T any] struct {
	buf   []T
	head  int // index of the oldest element
	count int
}

// New creates a RingBuffer with the given capacity.
func New[T any](capacity int) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring buffer capacity must be positive, got %d", capacity)
	}
	return &RingBuffer[T]{
		buf: make([]T, capacity),
	}, nil
}

// Push adds an element, overwriting the oldest one if the buffer is full.
func (rb *RingBuffer[T]) Push(v T) {
	tail := (rb.head + rb.count) % len(rb.buf)
	rb.buf[tail] = v
	if rb.count == len(rb.buf) {
		// Full: the slot we just wrote was the oldest element
		rb.head = (rb.head + 1) % len(rb.buf)
	} else {
		rb.count++
	}
}

// GetAll returns the buffered elements oldest-first. The returned slice is a
// copy; mutating it does not affect the buffer.
func (rb *RingBuffer[T]) GetAll() []T {
	if rb.count == 0 {
		return nil
	}
	out := make([]T, rb.count)
	for i := 0; i < rb.count; i++ {
		out[i] = rb.buf[(rb.head+i)%len(rb.buf)]
	}
	return out
}

// Clear removes all elements. The underlying storage is retained but zeroed
// so buffered pointers do not outlive their drain.
func (rb *RingBuffer[T]) Clear() {
	var zero T
	for i := range rb.buf {
		rb.buf[i] = zero
	}
	rb.head = 0
	rb.count = 0
}

// Len returns the number of buffered elements.
func (rb *RingBuffer[T]) Len() int {
	return rb.count
}

// Cap returns the buffer capacity.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.buf)
}
