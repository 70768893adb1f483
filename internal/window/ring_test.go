// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package window

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_PushEvictsOldest(t *testing.T) {
	r := NewRing(3)

	assert.False(t, r.Push(1))
	assert.False(t, r.Push(2))
	assert.False(t, r.Push(3))
	assert.True(t, r.Full())

	assert.True(t, r.Push(4))
	assert.Equal(t, []float64{2, 3, 4}, r.Values())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 2.0, r.At(0))
	assert.Equal(t, 4.0, r.Last())
}

func TestRing_LenNeverExceedsCap(t *testing.T) {
	r := NewRing(5)
	for i := 0; i < 1000; i++ {
		r.Push(float64(i))
		require.LessOrEqual(t, r.Len(), r.Cap())
	}
	assert.Equal(t, []float64{995, 996, 997, 998, 999}, r.Values())
}

func TestRing_Mean(t *testing.T) {
	r := NewRing(4)
	assert.Equal(t, 0.0, r.Mean(), "empty ring mean")

	r.Push(2)
	r.Push(4)
	assert.InDelta(t, 3.0, r.Mean(), 1e-12)

	for _, v := range []float64{6, 8, 10, 12} {
		r.Push(v)
	}
	assert.InDelta(t, 9.0, r.Mean(), 1e-12)
}

func TestRing_MeanAbsTail(t *testing.T) {
	r := NewRing(10)
	for _, v := range []float64{100, -1, 2, -3} {
		r.Push(v)
	}

	assert.InDelta(t, 2.0, r.MeanAbsTail(3), 1e-12)
	assert.InDelta(t, 26.5, r.MeanAbsTail(50), 1e-12)
	assert.Equal(t, 0.0, r.MeanAbsTail(0))
}

func TestRing_SetAndSetLast(t *testing.T) {
	r := NewRing(3)
	r.SetLast(7) // no-op on empty
	assert.Equal(t, 0, r.Len())

	for _, v := range []float64{1, 2, 3, 4} {
		r.Push(v)
	}
	r.Set(0, -2)
	r.SetLast(40)
	assert.Equal(t, []float64{-2, 3, 40}, r.Values())
}

func TestRing_AtOutOfRangePanics(t *testing.T) {
	r := NewRing(2)
	r.Push(1)
	assert.Panics(t, func() { r.At(1) })
	assert.Panics(t, func() { r.At(-1) })
}

func TestRing_NaNPropagates(t *testing.T) {
	r := NewRing(3)
	r.Push(1)
	r.Push(math.NaN())
	assert.True(t, math.IsNaN(r.Mean()))
}

func TestRing_Reset(t *testing.T) {
	r := NewRing(2)
	r.Push(1)
	r.Push(2)
	r.Push(3)
	r.Reset()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0.0, r.Last())
	r.Push(9)
	assert.Equal(t, []float64{9}, r.Values())
}

func TestNewRing_MinimumCapacity(t *testing.T) {
	assert.Equal(t, 1, NewRing(0).Cap())
}
