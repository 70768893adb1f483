// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package report renders replayed displacement streams as PNG charts.
package report

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/relabs-tech/zupt_displacement/internal/displacement"
)

// Position axis range of the chart, wide enough to show both clamps.
const (
	positionMin = -0.01
	positionMax = 0.02
)

// Series accumulates the readings of one replayed stream. Unlike the
// estimator histories it is unbounded; it lives only as long as a replay.
type Series struct {
	Timestamps      []float64
	Accelerations   []float64
	Velocities      []float64
	StablePositions []float64
	Compensations   int
	Stationary      int
}

// Add records one reading.
func (s *Series) Add(rd displacement.Reading) {
	s.Timestamps = append(s.Timestamps, rd.Timestamp)
	s.Accelerations = append(s.Accelerations, rd.Acceleration)
	s.Velocities = append(s.Velocities, rd.Velocity)
	s.StablePositions = append(s.StablePositions, rd.StablePosition)
	if rd.Compensated {
		s.Compensations++
	}
	if rd.Stationary {
		s.Stationary++
	}
}

func (s *Series) Len() int { return len(s.Timestamps) }

// byIndex plots ys against the sample index.
func byIndex(ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(ys))
	for i, y := range ys {
		pts[i] = plotter.XY{X: float64(i), Y: y}
	}
	return pts
}

func byTime(ts, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(ys))
	for i := range ys {
		pts[i] = plotter.XY{X: ts[i], Y: ys[i]}
	}
	return pts
}

func linePlot(title, xLabel, yLabel, legend string, pts plotter.XYs, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", title, err)
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(legend, line)
	p.Legend.Top = true
	return p, nil
}

// Render draws acceleration and velocity against sample index and the
// stable position against time, stacked vertically, as PNG.
func Render(w io.Writer, title string, s *Series) error {
	if s.Len() == 0 {
		return fmt.Errorf("report: no samples to plot")
	}

	pAcc, err := linePlot("Acceleration over Time", "", "Acceleration (g)", "Acceleration",
		byIndex(s.Accelerations), color.RGBA{R: 31, G: 119, B: 180, A: 255})
	if err != nil {
		return err
	}
	if title != "" {
		pAcc.Title.Text = title + ": " + pAcc.Title.Text
	}
	pVel, err := linePlot("Velocity over Time", "", "Velocity (m/s)", "Velocity",
		byIndex(s.Velocities), color.RGBA{R: 255, G: 127, B: 14, A: 255})
	if err != nil {
		return err
	}
	pPos, err := linePlot("Position over Time", "Time (s)", "Position (m)", "Position",
		byTime(s.Timestamps, s.StablePositions), color.RGBA{R: 44, G: 160, B: 44, A: 255})
	if err != nil {
		return err
	}
	pPos.Y.Min = positionMin
	pPos.Y.Max = positionMax

	img := vgimg.New(8*vg.Inch, 10*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      3,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	plots := [][]*plot.Plot{{pAcc}, {pVel}, {pPos}}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("report: write png: %w", err)
	}
	return nil
}

// Save renders the chart into path, creating parent directories.
func Save(path, title string, s *Series) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := Render(bw, title, s); err != nil {
		return err
	}
	return bw.Flush()
}
