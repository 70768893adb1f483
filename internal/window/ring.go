// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package window provides the fixed-capacity buffers used by the
// displacement estimator for rolling statistics and bounded histories.
package window

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Ring is a fixed-capacity FIFO of float64 values backed by a single
// arena. Once full, each Push evicts the oldest value.
//
// Index 0 is always the oldest retained value and Len()-1 the newest.
type Ring struct {
	buf   []float64
	head  int // position of the oldest value in buf
	count int
}

// NewRing returns an empty ring holding at most capacity values.
// A capacity below 1 is raised to 1.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]float64, capacity)}
}

// Push appends v and reports whether the oldest value was evicted to
// make room for it.
func (r *Ring) Push(v float64) (evicted bool) {
	c := len(r.buf)
	if r.count < c {
		r.buf[(r.head+r.count)%c] = v
		r.count++
		return false
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % c
	return true
}

func (r *Ring) Len() int { return r.count }
func (r *Ring) Cap() int { return len(r.buf) }

// Full reports whether the next Push will evict.
func (r *Ring) Full() bool { return r.count == len(r.buf) }

func (r *Ring) slot(i int) int {
	if i < 0 || i >= r.count {
		panic("window: index out of range")
	}
	return (r.head + i) % len(r.buf)
}

// At returns the i-th oldest value. It panics if i is outside [0, Len()).
func (r *Ring) At(i int) float64 { return r.buf[r.slot(i)] }

// Set overwrites the i-th oldest value in place.
func (r *Ring) Set(i int, v float64) { r.buf[r.slot(i)] = v }

// Last returns the newest value, or 0 when the ring is empty.
func (r *Ring) Last() float64 {
	if r.count == 0 {
		return 0
	}
	return r.At(r.count - 1)
}

// SetLast overwrites the newest value. It is a no-op on an empty ring.
func (r *Ring) SetLast(v float64) {
	if r.count == 0 {
		return
	}
	r.Set(r.count-1, v)
}

// Mean returns the arithmetic mean of the retained values, 0 when empty.
func (r *Ring) Mean() float64 {
	if r.count == 0 {
		return 0
	}
	// Before the first wrap the values occupy a prefix of the arena; after
	// it they occupy the whole arena. Either way order does not matter.
	if r.count < len(r.buf) {
		return floats.Sum(r.buf[:r.count]) / float64(r.count)
	}
	return floats.Sum(r.buf) / float64(r.count)
}

// MeanAbsTail returns the mean absolute value of the newest n values.
// It returns 0 when n < 1 and uses every value when n exceeds Len().
func (r *Ring) MeanAbsTail(n int) float64 {
	if n > r.count {
		n = r.count
	}
	if n < 1 {
		return 0
	}
	var sum float64
	for i := r.count - n; i < r.count; i++ {
		sum += math.Abs(r.At(i))
	}
	return sum / float64(n)
}

// Values returns a copy of the retained values, oldest first.
func (r *Ring) Values() []float64 {
	out := make([]float64, r.count)
	for i := range out {
		out[i] = r.At(i)
	}
	return out
}

// Reset empties the ring without releasing its arena.
func (r *Ring) Reset() {
	r.head = 0
	r.count = 0
}
