// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"

	"github.com/relabs-tech/zupt_displacement/internal/displacement"
)

// MockWearable synthesizes a wearable that rests, rises smoothly by
// Amplitude metres, rests again and returns, forever. Each phase lasts
// Hold (rest) or Move (travel) seconds. Timestamps advance by a fixed
// step per call, so output is deterministic.
type MockWearable struct {
	Amplitude float64 // metres
	Move      float64 // seconds per travel
	Hold      float64 // seconds per rest
	Bias      float64 // constant Y offset in g, e.g. a tilted mount

	step float64
	t    float64
}

// NewMockSource creates a mock wearable sampled every step seconds that
// travels 5 mm in one second and rests two seconds between moves.
func NewMockSource(step float64) *MockWearable {
	return &MockWearable{
		Amplitude: 0.005,
		Move:      1.0,
		Hold:      2.0,
		Bias:      0.02,
		step:      step,
	}
}

func (m *MockWearable) Next() (displacement.Sample, error) {
	t := m.t
	m.t += m.step

	ay := m.Bias - m.Acceleration(t)/standardGravity
	return displacement.Sample{
		Timestamp: t,
		AccelY:    ay,
		AccelZ:    1.0,
	}, nil
}

// Displacement returns the true position at time t, in metres.
func (m *MockWearable) Displacement(t float64) float64 {
	phase, u := m.phase(t)
	switch phase {
	case 0:
		return 0
	case 1:
		return m.Amplitude / 2 * (1 - math.Cos(math.Pi*u))
	case 2:
		return m.Amplitude
	default:
		return m.Amplitude / 2 * (1 + math.Cos(math.Pi*u))
	}
}

// Acceleration returns the true acceleration at time t, in m/s². Positive
// means moving towards positive displacement.
func (m *MockWearable) Acceleration(t float64) float64 {
	phase, u := m.phase(t)
	k := m.Amplitude / 2 * (math.Pi / m.Move) * (math.Pi / m.Move)
	switch phase {
	case 1:
		return k * math.Cos(math.Pi*u)
	case 3:
		return -k * math.Cos(math.Pi*u)
	default:
		return 0
	}
}

// phase returns which quarter of the cycle t falls in (rest, rise, rest,
// fall) and the normalized progress through it.
func (m *MockWearable) phase(t float64) (int, float64) {
	cycle := 2 * (m.Hold + m.Move)
	tc := math.Mod(t, cycle)
	bounds := []float64{m.Hold, m.Move, m.Hold, m.Move}
	for i, d := range bounds {
		if tc < d {
			return i, tc / d
		}
		tc -= d
	}
	return 3, 1
}
