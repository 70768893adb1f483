// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors provides the sample sources that feed the displacement
// estimator: recorded CSV files, serial line streams, an MPU9250 on SPI
// and a mock wearable.
package sensors

import (
	"github.com/relabs-tech/zupt_displacement/internal/displacement"
)

// Source is anything that can provide samples over time. Next returns
// io.EOF once a finite source is exhausted.
type Source interface {
	Next() (displacement.Sample, error)
}

// standardGravity converts m/s² to g.
const standardGravity = 9.80665
