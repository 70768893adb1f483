// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package displacement

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withHistory returns an estimator whose velocity and position histories
// hold the given values, oldest first.
func withHistory(t *testing.T, velocities, positions []float64) *Estimator {
	t.Helper()
	require.Equal(t, len(velocities), len(positions))
	e := NewDefault()
	for i := range velocities {
		e.velocities.Push(velocities[i])
		e.positions.Push(positions[i])
	}
	return e
}

func TestFindReversal_NoiseIsSteppedOver(t *testing.T) {
	e := withHistory(t,
		[]float64{0.1, 0.1, -0.000001, 0.05},
		[]float64{0.001, 0.002, 0.003, 0.004},
	)
	const v = 0.05

	start := e.skipSameDirection(v)
	require.Equal(t, 2, start)

	rev := e.findReversal(v, start)
	assert.True(t, rev.found)
	assert.False(t, rev.genuine)
	assert.Equal(t, 1, rev.index, "scan continues past the noise entry")
}

func TestFindReversal_GenuineReversalStopsScan(t *testing.T) {
	e := withHistory(t,
		[]float64{0.1, 0.1, -0.01, 0.05},
		[]float64{0.001, 0.002, 0.003, 0.004},
	)
	const v = 0.05

	rev := e.findReversal(v, e.skipSameDirection(v))
	assert.True(t, rev.found)
	assert.True(t, rev.genuine)
	assert.Equal(t, 2, rev.index)
}

func TestFindReversal_ExhaustedHistory(t *testing.T) {
	e := withHistory(t,
		[]float64{-0.000001, -0.000002, 0.3},
		[]float64{0, 0, 0},
	)
	rev := e.findReversal(0.1, e.skipSameDirection(0.1))
	assert.True(t, rev.found)
	assert.False(t, rev.genuine)
	assert.Equal(t, -1, rev.index)
}

func TestSkipSameDirection_ZeroStopsRun(t *testing.T) {
	e := withHistory(t, []float64{0.2, 0, 0.1, 0.1}, []float64{0, 0, 0, 0})
	assert.Equal(t, 1, e.skipSameDirection(0.05))
	assert.Equal(t, 3, e.skipSameDirection(-0.05))
}

func TestCompensate_RestoresSettledPosition(t *testing.T) {
	var logged []string
	SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	})
	defer SetLogger(nil)

	e := withHistory(t,
		[]float64{-0.01, 0.02, 0.03},
		[]float64{0.001, 0.004, 0.009},
	)

	pos, compensated := e.compensate(0.01, 0.012)
	assert.True(t, compensated)
	assert.Equal(t, 0.001, pos)
	assert.Equal(t, []float64{-0.01, 0, 0}, e.Velocities())
	assert.Len(t, logged, 1)
}

func TestCompensate_NoReversalOnlyClamps(t *testing.T) {
	e := withHistory(t,
		[]float64{0.02, 0.03},
		[]float64{0.004, 0.009},
	)

	pos, compensated := e.compensate(0.01, 0.5)
	assert.False(t, compensated)
	assert.Equal(t, e.Params().PositionThreshold, pos)
	assert.Equal(t, []float64{0.02, 0.03}, e.Velocities(), "history untouched")

	pos, _ = e.compensate(0.01, -0.003)
	assert.Equal(t, 0.0, pos, "compensator lower clamp is 0, not the stable clamp")
}

func TestCompensate_NoiseReversalStillCompensates(t *testing.T) {
	e := withHistory(t,
		[]float64{0.1, 0.1, -0.000001, 0.05},
		[]float64{0.001, 0.002, 0.003, 0.004},
	)

	pos, compensated := e.compensate(0.05, 0.01)
	assert.True(t, compensated)
	assert.Equal(t, 0.003, pos)
	assert.Equal(t, []float64{0.1, 0.1, -0.000001, 0}, e.Velocities())
}

func TestZeroAndRestore_NoRestorePoint(t *testing.T) {
	e := withHistory(t,
		[]float64{0.1, 0.2},
		[]float64{0.004, 0.009},
	)

	pos, ok := e.zeroAndRestore(0.3)
	assert.False(t, ok)
	assert.Equal(t, 0.0, pos)
	assert.Equal(t, []float64{0, 0}, e.Velocities())
}

func TestZeroAndRestore_EmptyHistory(t *testing.T) {
	e := NewDefault()
	pos, ok := e.zeroAndRestore(0.3)
	assert.False(t, ok)
	assert.Equal(t, 0.0, pos)
}

func TestProcess_ZUPTCompensatesDriftRun(t *testing.T) {
	e := withHistory(t,
		[]float64{-0.01, 0.02, 0.03},
		[]float64{0.001, 0.004, 0.009},
	)
	for i := 0; i < e.Params().ZUPTWindow; i++ {
		e.finalAccelerations.Push(0)
	}
	e.started = true
	e.lastTimestamp = 1.0

	// Equal raw and smoothed means give a calibrated acceleration of 0.
	rd := e.Process(Sample{Timestamp: 1.01, AccelY: 1.0})

	assert.True(t, rd.Stationary)
	assert.True(t, rd.Compensated)
	assert.Equal(t, 0.0, rd.Velocity)
	assert.Equal(t, 0.001, rd.Position)
	assert.Equal(t, 0.001, rd.StablePosition)
	assert.Equal(t, []float64{-0.01, 0, 0, 0}, e.Velocities())
	assert.Equal(t, []float64{0.001, 0.004, 0.009, 0.001}, e.Positions())
	assert.True(t, e.ZUPTTriggered())
}
