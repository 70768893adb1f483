// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/zupt_displacement/internal/config"
	"github.com/relabs-tech/zupt_displacement/internal/displacement"
	"github.com/relabs-tech/zupt_displacement/internal/sensors"
)

// RunMockConsole drives the simulated wearable through an in-process
// estimator and prints every reading. No broker is needed.
func RunMockConsole() error {
	cfg := config.Get()

	est, err := displacement.New(cfg.Estimator)
	if err != nil {
		return err
	}
	interval := time.Duration(cfg.SampleInterval) * time.Millisecond
	src := sensors.NewMockSource(interval.Seconds())
	session := uuid.NewString()
	limit := cfg.ScaleLimit()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		s, err := src.Next()
		if err != nil {
			return err
		}

		rd := est.Process(s)
		fmt.Println(formatDisplacement(DisplacementMessage{
			Reading:        rd,
			ScaledPosition: est.ScaledPosition(limit),
			Limit:          limit,
			Session:        session,
		}))
	}
	return nil
}
