// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/relabs-tech/zupt_displacement/internal/displacement"
	"github.com/relabs-tech/zupt_displacement/internal/report"
	"github.com/relabs-tech/zupt_displacement/internal/sensors"
)

// ReplaySummary describes one recording after it has been run through a
// fresh estimator.
type ReplaySummary struct {
	File          string
	Samples       int
	ZUPTs         int
	Compensations int
	FinalPosition float64
	MaxPosition   float64
	Bias          float64
	Plot          string
}

// ReplayFile runs every sample of a CSV recording through a new estimator.
// When plotPath is non-empty a report PNG is written there.
func ReplayFile(path string, p displacement.Params, plotPath string) (ReplaySummary, error) {
	sum := ReplaySummary{File: path}

	src, err := sensors.OpenCSV(path)
	if err != nil {
		return sum, err
	}
	defer src.Close()

	est, err := displacement.New(p)
	if err != nil {
		return sum, err
	}

	series := &report.Series{}
	for {
		s, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("replay %s: %w", path, err)
		}

		rd := est.Process(s)
		series.Add(rd)

		sum.Samples++
		if rd.Stationary {
			sum.ZUPTs++
		}
		if rd.Compensated {
			sum.Compensations++
		}
		if rd.StablePosition > sum.MaxPosition {
			sum.MaxPosition = rd.StablePosition
		}
	}
	sum.FinalPosition = est.Position()
	sum.Bias = est.Bias()

	if plotPath != "" && series.Len() > 0 {
		title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := report.Save(plotPath, title, series); err != nil {
			return sum, fmt.Errorf("plot %s: %w", path, err)
		}
		sum.Plot = plotPath
	}
	return sum, nil
}

// RunReplay replays each file independently. Plots go to plotDir as
// <name>.png when plotDir is set. A failing file is logged and skipped;
// the last such error is returned once all files have been tried.
func RunReplay(paths []string, p displacement.Params, plotDir string) ([]ReplaySummary, error) {
	var (
		out     []ReplaySummary
		lastErr error
	)
	for _, path := range paths {
		plotPath := ""
		if plotDir != "" {
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			plotPath = filepath.Join(plotDir, name+".png")
		}

		sum, err := ReplayFile(path, p, plotPath)
		if err != nil {
			log.Printf("replay: %v", err)
			lastErr = err
			continue
		}
		log.Printf("replay: %s samples=%d zupts=%d compensations=%d final=%.5f max=%.5f bias=%.5f",
			sum.File, sum.Samples, sum.ZUPTs, sum.Compensations, sum.FinalPosition, sum.MaxPosition, sum.Bias)
		if sum.Plot != "" {
			log.Printf("replay: plot written to %s", sum.Plot)
		}
		out = append(out, sum)
	}
	return out, lastErr
}
