// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package displacement estimates small single-axis displacement of a
// wearable from a biased accelerometer stream by double integration with
// zero-velocity updates (ZUPT) and backward drift compensation.
//
// An Estimator is owned by exactly one producer. It performs no I/O and
// each Process call runs in time bounded by the configured window sizes.
package displacement

import (
	"fmt"
	"math"

	"github.com/relabs-tech/zupt_displacement/internal/window"
)

// Estimator holds the streaming state for one input stream. It is not
// safe for concurrent use.
type Estimator struct {
	params Params

	raw       *window.Ring // bias window over AccelY
	primary   *window.Ring // smoothing window over AccelY
	secondary *window.Ring // smoothing window over AccelZ, never consumed

	finalAccelerations *window.Ring
	velocities         *window.Ring
	positions          *window.Ring
	stablePositions    *window.Ring

	started        bool
	lastTimestamp  float64
	bias           float64
	readiness      Readiness
	stop           bool // never set by any reachable path; the publish branch is always taken
	stablePosition float64
	zuptTriggered  bool
}

// New returns an estimator with empty windows.
func New(p Params) (*Estimator, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("displacement: %w", err)
	}
	return &Estimator{
		params:             p,
		raw:                window.NewRing(p.BiasWindow),
		primary:            window.NewRing(p.SmoothingWindow),
		secondary:          window.NewRing(p.SmoothingWindow),
		finalAccelerations: window.NewRing(p.HistoryCapacity),
		velocities:         window.NewRing(p.HistoryCapacity),
		positions:          window.NewRing(p.HistoryCapacity),
		stablePositions:    window.NewRing(p.HistoryCapacity),
	}, nil
}

// NewDefault returns an estimator using DefaultParams.
func NewDefault() *Estimator {
	e, err := New(DefaultParams())
	if err != nil {
		panic(err)
	}
	return e
}

// Reset returns the estimator to its freshly constructed state so it can
// be reused for another stream.
func (e *Estimator) Reset() {
	for _, r := range []*window.Ring{
		e.raw, e.primary, e.secondary,
		e.finalAccelerations, e.velocities, e.positions, e.stablePositions,
	} {
		r.Reset()
	}
	e.started = false
	e.lastTimestamp = 0
	e.bias = 0
	e.readiness = NotReady
	e.stop = false
	e.stablePosition = 0
	e.zuptTriggered = false
}

// Process folds one sample into the estimate and returns the resulting
// state.
//
// dt is the difference to the previous timestamp (0 on the first sample).
// A negative dt is integrated as-is unless Params.ClampNegativeDT is set.
// NaN and Inf inputs are not filtered and propagate into every output.
func (e *Estimator) Process(s Sample) Reading {
	var dt float64
	if e.started {
		dt = s.Timestamp - e.lastTimestamp
	}
	if dt < 0 && e.params.ClampNegativeDT {
		dt = 0
	}
	e.started = true
	e.lastTimestamp = s.Timestamp

	if e.readiness == JustFilled {
		e.readiness = Ready
	}
	e.updateBias(s.AccelY)
	accel := e.smooth(s.AccelY, s.AccelZ)

	// Semi-implicit Euler.
	velocity := e.velocities.Last() + accel*dt
	position := e.positions.Last() + velocity*dt

	// The stillness test looks at the accelerations before this one.
	rd := Reading{Timestamp: s.Timestamp, Acceleration: accel, Bias: e.bias}
	if e.isStationary() {
		position, rd.Compensated = e.compensate(velocity, position)
		velocity = 0
		e.zuptTriggered = true
		e.stop = false
		e.stablePosition = position
		rd.Stationary = true
	}

	e.finalAccelerations.Push(accel)
	e.velocities.Push(velocity)
	e.positions.Push(position)
	e.stabilize(position)

	rd.Velocity = velocity
	rd.Position = position
	rd.StablePosition = e.stablePosition
	rd.Readiness = e.readiness
	return rd
}

// updateBias records the raw sample and refreshes the bias. The first
// eviction from the bias window discards everything integrated so far,
// since it was computed against a bias that had not settled.
func (e *Estimator) updateBias(ay float64) {
	if e.raw.Push(ay) && e.readiness == NotReady {
		e.readiness = JustFilled
		e.velocities.SetLast(0)
		e.positions.SetLast(0)
	}
	e.bias = e.raw.Mean()
}

// smooth returns the calibrated acceleration. Positive displacement is
// opposite to the sensor's Y axis, hence the sign inversion.
func (e *Estimator) smooth(ay, az float64) float64 {
	e.primary.Push(ay)
	e.secondary.Push(az)
	return -(e.primary.Mean() - e.bias)
}

// isStationary reports whether the ZUPTWindow calibrated accelerations
// recorded before the current sample are quiet enough to assume the device is at rest.
func (e *Estimator) isStationary() bool {
	n := e.params.ZUPTWindow
	if e.finalAccelerations.Len() < n {
		return false
	}
	return e.finalAccelerations.MeanAbsTail(n) <= e.params.ZUPTThreshold
}

func (e *Estimator) stabilize(position float64) {
	if !e.stop {
		e.stablePosition = position
	}
	e.stablePosition = clamp(e.stablePosition, e.params.StableLowerClamp, e.params.PositionThreshold)
	e.stablePositions.Push(e.stablePosition)
}

// Position returns the published stable position in metres.
func (e *Estimator) Position() float64 { return e.stablePosition }

// ScaledPosition remaps the stable position from [.., PositionThreshold]
// onto [.., limit].
func (e *Estimator) ScaledPosition(limit float64) float64 {
	return e.stablePosition * (limit / e.params.PositionThreshold)
}

// Bias returns the mean of the current bias window, 0 before any sample.
func (e *Estimator) Bias() float64 { return e.bias }

// Velocity returns the newest recorded velocity.
func (e *Estimator) Velocity() float64 { return e.velocities.Last() }

// Readiness reports how far the bias window has filled.
func (e *Estimator) Readiness() Readiness { return e.readiness }

// ZUPTTriggered reports whether a zero-velocity update has ever fired on
// this stream.
func (e *Estimator) ZUPTTriggered() bool { return e.zuptTriggered }

// Stopped reports the hold flag of the stabilizer. Nothing sets it yet;
// it is kept so a future hold mode does not change the state shape.
func (e *Estimator) Stopped() bool { return e.stop }

// Params returns the parameters the estimator was built with.
func (e *Estimator) Params() Params { return e.params }

// History accessors return copies, oldest first.

func (e *Estimator) FinalAccelerations() []float64 { return e.finalAccelerations.Values() }
func (e *Estimator) Velocities() []float64 { return e.velocities.Values() }
func (e *Estimator) Positions() []float64 { return e.positions.Values() }
func (e *Estimator) StablePositions() []float64 { return e.stablePositions.Values() }

func clamp(v, lo, hi float64) float64 {
	return math.Max(math.Min(v, hi), lo)
}
