// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/zupt_displacement/internal/displacement"
)

const recording = `Time (s),Accelerometer X (g),Accelerometer Y (g),Accelerometer Z (g),Pitch (radians),Roll (radians),Yaw (radians)
0.00,0.01,0.02,0.99,0.1,0.2,0.3
0.02,0.01,-0.03,0.98,0.1,0.2,0.3
`

func TestCSVSource_ReadsRecording(t *testing.T) {
	src, err := NewCSVSource(strings.NewReader(recording))
	require.NoError(t, err)

	s, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, displacement.Sample{
		Timestamp: 0, AccelX: 0.01, AccelY: 0.02, AccelZ: 0.99,
		Pitch: 0.1, Roll: 0.2, Yaw: 0.3,
	}, s)

	s, err = src.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.02, s.Timestamp)
	assert.Equal(t, -0.03, s.AccelY)

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVSource_ColumnOrderAndMissingPose(t *testing.T) {
	data := "Accelerometer Z (g),Time (s),Accelerometer Y (g),Accelerometer X (g)\n1,0.5,0,0\n"
	src, err := NewCSVSource(strings.NewReader(data))
	require.NoError(t, err)

	s, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.Timestamp)
	assert.Equal(t, 1.0, s.AccelZ)
	assert.InDelta(t, 0.0, s.Pitch, 1e-12)
	assert.InDelta(t, 0.0, s.Roll, 1e-12)
}

func TestCSVSource_Errors(t *testing.T) {
	_, err := NewCSVSource(strings.NewReader("Time (s),Accelerometer X (g)\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Accelerometer Y (g)")

	_, err = NewCSVSource(strings.NewReader(""))
	require.Error(t, err)

	src, err := NewCSVSource(strings.NewReader(
		"Time (s),Accelerometer X (g),Accelerometer Y (g),Accelerometer Z (g)\n0,0,abc,1\n0,0\n"))
	require.NoError(t, err)

	_, err = src.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV line 2")

	_, err = src.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestCSVSource_BlankCellIsNaN(t *testing.T) {
	src, err := NewCSVSource(strings.NewReader(
		"Time (s),Accelerometer X (g),Accelerometer Y (g),Accelerometer Z (g)\n0,0, ,1\n0.01,0,0.02,1\n"))
	require.NoError(t, err)

	s, err := src.Next()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.AccelY))
	assert.Equal(t, 1.0, s.AccelZ)

	s, err = src.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.02, s.AccelY)

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data4.csv")
	require.NoError(t, os.WriteFile(path, []byte(recording), 0o644))

	src, err := OpenCSV(path)
	require.NoError(t, err)
	defer src.Close()

	n := 0
	for {
		_, err := src.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 2, n)

	_, err = OpenCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestParseLine(t *testing.T) {
	s, err := ParseLine("1.5, 0.0, 0.01, 1.0")
	require.NoError(t, err)
	assert.Equal(t, 1.5, s.Timestamp)
	assert.Equal(t, 0.01, s.AccelY)
	assert.InDelta(t, math.Atan2(0.01, 1.0), s.Roll, 1e-12)

	s, err = ParseLine("2,0,0,1,0.3,0.2,0.1")
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.Pitch)
	assert.Equal(t, 0.1, s.Yaw)

	_, err = ParseLine("1,2,3")
	assert.Error(t, err)
	_, err = ParseLine("1,2,x,4")
	assert.Error(t, err)
}

func TestLineSource_SkipsNoise(t *testing.T) {
	stream := "3,0.1\n# header\n\n0.01,0,0.2,1\n0.02,0,0.3,1"
	src := NewLineSource(strings.NewReader(stream), "test")

	s, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.2, s.AccelY)

	s, err = src.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.AccelY, "final line without newline")

	_, err = src.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())
}

func TestCountsToSample(t *testing.T) {
	s := countsToSample(0.25, 0, 8192, 16384, countsPerG[0])
	assert.Equal(t, 0.25, s.Timestamp)
	assert.Equal(t, 0.5, s.AccelY)
	assert.Equal(t, 1.0, s.AccelZ)
	assert.InDelta(t, math.Atan2(0.5, 1), s.Roll, 1e-12)
}

func TestMockWearable_Profile(t *testing.T) {
	m := NewMockSource(0.01)

	assert.Equal(t, 0.0, m.Displacement(0.5))
	assert.InDelta(t, m.Amplitude/2, m.Displacement(m.Hold+m.Move/2), 1e-12)
	assert.InDelta(t, m.Amplitude, m.Displacement(m.Hold+m.Move+0.1), 1e-12)
	assert.InDelta(t, 0.0, m.Displacement(2*(m.Hold+m.Move)-1e-9), 1e-9)

	assert.Equal(t, 0.0, m.Acceleration(1.0))
	assert.Greater(t, m.Acceleration(m.Hold+0.01), 0.0, "accelerating upwards")
	assert.Less(t, m.Acceleration(m.Hold+m.Move-0.01), 0.0, "braking")
}

func TestMockWearable_Next(t *testing.T) {
	m := NewMockSource(0.01)

	var prev displacement.Sample
	for i := 0; i < 150; i++ {
		s, err := m.Next()
		require.NoError(t, err)
		if i > 0 {
			assert.InDelta(t, prev.Timestamp+0.01, s.Timestamp, 1e-9)
		}
		if s.Timestamp < m.Hold {
			assert.Equal(t, m.Bias, s.AccelY, "at rest only the mount bias remains")
		}
		prev = s
	}
}
