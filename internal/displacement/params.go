// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package displacement

import "fmt"

// Params holds the tunable constants of the estimator. The zero value is
// not usable; start from DefaultParams.
type Params struct {
	BiasWindow      int // raw samples averaged for the bias estimate
	SmoothingWindow int // per-channel short moving average
	HistoryCapacity int // velocities, positions, accelerations, stable positions

	ZUPTWindow    int     // newest calibrated accelerations examined for stillness
	ZUPTThreshold float64 // mean |a| at or below this means stationary

	CompensationEpsilon float64 // smallest opposing velocity treated as a real reversal

	PositionThreshold     float64 // upper clamp, also the reference for ScaledPosition
	StableLowerClamp      float64 // lower clamp of the published position
	CompensatorLowerClamp float64 // lower clamp of a position produced at a ZUPT

	// ClampNegativeDT treats out-of-order timestamps as dt = 0 instead of
	// integrating backwards. Off by default: timestamp order is the
	// caller's responsibility.
	ClampNegativeDT bool
}

// DefaultParams returns the reference tuning for a wearable moving a few
// millimetres along its Y axis.
func DefaultParams() Params {
	return Params{
		BiasWindow:            500,
		SmoothingWindow:       5,
		HistoryCapacity:       500,
		ZUPTWindow:            20,
		ZUPTThreshold:         0.0015,
		CompensationEpsilon:   1e-5,
		PositionThreshold:     0.015,
		StableLowerClamp:      -0.005,
		CompensatorLowerClamp: 0,
	}
}

// Validate rejects parameter sets the estimator cannot run with.
func (p Params) Validate() error {
	if p.BiasWindow < 1 {
		return fmt.Errorf("bias window must be >= 1, got %d", p.BiasWindow)
	}
	if p.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing window must be >= 1, got %d", p.SmoothingWindow)
	}
	if p.HistoryCapacity < 1 {
		return fmt.Errorf("history capacity must be >= 1, got %d", p.HistoryCapacity)
	}
	if p.ZUPTWindow < 1 || p.ZUPTWindow > p.HistoryCapacity {
		return fmt.Errorf("ZUPT window must be in [1, %d], got %d", p.HistoryCapacity, p.ZUPTWindow)
	}
	if p.ZUPTThreshold < 0 {
		return fmt.Errorf("ZUPT threshold must be >= 0, got %g", p.ZUPTThreshold)
	}
	if p.CompensationEpsilon < 0 {
		return fmt.Errorf("compensation epsilon must be >= 0, got %g", p.CompensationEpsilon)
	}
	if p.PositionThreshold <= 0 {
		return fmt.Errorf("position threshold must be > 0, got %g", p.PositionThreshold)
	}
	if p.StableLowerClamp > p.PositionThreshold {
		return fmt.Errorf("stable lower clamp %g exceeds position threshold %g", p.StableLowerClamp, p.PositionThreshold)
	}
	if p.CompensatorLowerClamp > p.PositionThreshold {
		return fmt.Errorf("compensator lower clamp %g exceeds position threshold %g", p.CompensatorLowerClamp, p.PositionThreshold)
	}
	return nil
}
