// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/zupt_displacement/internal/displacement"
)

// writeRecording writes n samples at 100 Hz with a constant Y reading.
func writeRecording(t *testing.T, dir, name string, n int, ay float64) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("Time (s),Accelerometer X (g),Accelerometer Y (g),Accelerometer Z (g)\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%.2f,0,%g,1\n", float64(i)*0.01, ay)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestReplayFile_StillRecording(t *testing.T) {
	dir := t.TempDir()
	path := writeRecording(t, dir, "still.csv", 600, 0.02)
	plot := filepath.Join(dir, "plots", "still.png")

	sum, err := ReplayFile(path, displacement.DefaultParams(), plot)
	require.NoError(t, err)

	assert.Equal(t, 600, sum.Samples)
	assert.Greater(t, sum.ZUPTs, 500)
	assert.InDelta(t, 0.02, sum.Bias, 1e-9)
	assert.InDelta(t, 0, sum.FinalPosition, 1e-6)
	assert.Equal(t, plot, sum.Plot)

	png, err := os.ReadFile(plot)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestReplayFile_NoPlot(t *testing.T) {
	path := writeRecording(t, t.TempDir(), "short.csv", 30, 0.0)

	sum, err := ReplayFile(path, displacement.DefaultParams(), "")
	require.NoError(t, err)
	assert.Equal(t, 30, sum.Samples)
	assert.Empty(t, sum.Plot)
}

func TestRunReplay_IndependentFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeRecording(t, dir, "a.csv", 50, 0.02)
	b := writeRecording(t, dir, "b.csv", 50, -0.3)
	missing := filepath.Join(dir, "missing.csv")
	plots := filepath.Join(dir, "out")

	sums, err := RunReplay([]string{a, missing, b}, displacement.DefaultParams(), plots)
	assert.Error(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, a, sums[0].File)
	assert.Equal(t, b, sums[1].File)
	assert.InDelta(t, 0.02, sums[0].Bias, 1e-9)
	assert.InDelta(t, -0.3, sums[1].Bias, 1e-9)

	assert.FileExists(t, filepath.Join(plots, "a.png"))
	assert.FileExists(t, filepath.Join(plots, "b.png"))
}

func TestReplayFile_BlankCellDoesNotAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gap.csv")
	data := "Time (s),Accelerometer X (g),Accelerometer Y (g),Accelerometer Z (g)\n" +
		"0.00,0,0.02,1\n0.01,0,,1\n0.02,0,0.02,1\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	sum, err := ReplayFile(path, displacement.DefaultParams(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Samples)
	assert.True(t, math.IsNaN(sum.Bias))
}
