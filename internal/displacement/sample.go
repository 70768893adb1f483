// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package displacement

import "fmt"

// Sample is one accelerometer record fed to the estimator.
//
// Only AccelY drives the displacement. AccelZ is smoothed but never
// consumed, and the orientation angles are carried for consumers that
// want them; the estimator ignores both.
type Sample struct {
	Timestamp float64 `json:"t"`     // seconds, expected non-decreasing
	AccelX    float64 `json:"ax"`    // g
	AccelY    float64 `json:"ay"`    // g, displacement axis
	AccelZ    float64 `json:"az"`    // g
	Pitch     float64 `json:"pitch"` // radians
	Roll      float64 `json:"roll"`  // radians
	Yaw       float64 `json:"yaw"`   // radians
}

// Readiness tracks whether the bias window has filled yet.
type Readiness int

const (
	NotReady   Readiness = iota // bias window still filling
	JustFilled                  // first eviction happened on this sample
	Ready
)

func (r Readiness) String() string {
	switch r {
	case NotReady:
		return "not_ready"
	case JustFilled:
		return "just_filled"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("readiness(%d)", int(r))
	}
}

func (r Readiness) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Readiness) UnmarshalText(b []byte) error {
	switch string(b) {
	case "not_ready":
		*r = NotReady
	case "just_filled":
		*r = JustFilled
	case "ready":
		*r = Ready
	default:
		return fmt.Errorf("unknown readiness %q", string(b))
	}
	return nil
}

// Reading is the estimator state after one Process call.
type Reading struct {
	Timestamp      float64   `json:"t"`
	Acceleration   float64   `json:"accel"` // calibrated, sign-inverted
	Velocity       float64   `json:"velocity"`
	Position       float64   `json:"position"`
	StablePosition float64   `json:"stable_position"`
	Bias           float64   `json:"bias"`
	Stationary     bool      `json:"stationary"`
	Compensated    bool      `json:"compensated"`
	Readiness      Readiness `json:"readiness"`
}
