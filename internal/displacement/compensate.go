// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package displacement

import "math"

// reversal is the outcome of scanning the velocity history for motion
// opposite to the velocity being zeroed.
type reversal struct {
	found   bool // at least one opposing entry precedes the same-direction run
	genuine bool // scan stopped on an opposing entry larger than epsilon
	index   int  // where the scan stopped, -1 if it ran off the history
}

// compensate runs when a ZUPT fires with tentative velocity v. If the run
// of velocities sharing v's direction was preceded by opposite motion, the
// run is treated as drift: it is zeroed and the position restored to the
// last settled value before it. The result is clamped to
// [CompensatorLowerClamp, PositionThreshold] whether or not it fired.
func (e *Estimator) compensate(v, position float64) (float64, bool) {
	start := e.skipSameDirection(v)
	rev := e.findReversal(v, start)

	compensated := false
	if rev.found {
		position, _ = e.zeroAndRestore(v)
		compensated = true
		Logf("displacement: position compensation triggered (v=%.6f)", v)
	}
	return clamp(position, e.params.CompensatorLowerClamp, e.params.PositionThreshold), compensated
}

// skipSameDirection returns the index of the newest history entry that does
// not share v's sign, or -1.
func (e *Estimator) skipSameDirection(v float64) int {
	idx := e.velocities.Len() - 1
	for idx >= 0 && v*e.velocities.At(idx) > 0 {
		idx--
	}
	return idx
}

// findReversal walks back from idx over opposing entries. Opposing entries
// no larger than CompensationEpsilon are noise and are stepped over.
func (e *Estimator) findReversal(v float64, idx int) reversal {
	r := reversal{index: idx}
	for r.index >= 0 && v*e.velocities.At(r.index) < 0 {
		r.found = true
		if math.Abs(e.velocities.At(r.index)) > e.params.CompensationEpsilon {
			r.genuine = true
			break
		}
		r.index--
	}
	return r
}

// zeroAndRestore zeroes the newest run of velocities sharing v's sign and
// returns the position recorded just before that run. When the run covers
// the whole history there is no restore point and it returns (0, false).
func (e *Estimator) zeroAndRestore(v float64) (float64, bool) {
	idx := e.velocities.Len() - 1
	for idx >= 0 && v*e.velocities.At(idx) > 0 {
		e.velocities.Set(idx, 0)
		idx--
	}
	if idx < 0 {
		return 0, false
	}
	return e.positions.At(idx), true
}
