// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Pose is the orientation carried alongside each displacement sample.
// Angles are in radians.
type Pose struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// FromAccel estimates pitch and roll from a static accelerometer reading
// (any unit). Yaw is not observable from gravity alone and is left at 0.
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
func FromAccel(ax, ay, az float64) Pose {
	return Pose{
		Pitch: math.Atan2(-ax, math.Sqrt(ay*ay+az*az)),
		Roll:  math.Atan2(ay, az),
	}
}

// Degrees converts the pose to degrees for display.
func (p Pose) Degrees() Pose {
	const k = 180.0 / math.Pi
	return Pose{Pitch: p.Pitch * k, Roll: p.Roll * k, Yaw: p.Yaw * k}
}
