// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"github.com/relabs-tech/zupt_displacement/internal/displacement"
)

// DisplacementMessage is the JSON payload published on the displacement
// topic after every processed sample.
type DisplacementMessage struct {
	displacement.Reading
	ScaledPosition float64 `json:"scaled_position"`
	Limit          float64 `json:"limit"`
	Session        string  `json:"session"`
}
