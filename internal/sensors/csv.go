// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/relabs-tech/zupt_displacement/internal/displacement"
	"github.com/relabs-tech/zupt_displacement/internal/orientation"
)

// Column names written by the motion recorder app.
const (
	ColumnTime   = "Time (s)"
	ColumnAccelX = "Accelerometer X (g)"
	ColumnAccelY = "Accelerometer Y (g)"
	ColumnAccelZ = "Accelerometer Z (g)"
	ColumnPitch  = "Pitch (radians)"
	ColumnRoll   = "Roll (radians)"
	ColumnYaw    = "Yaw (radians)"
)

// CSVSource replays a recording. Orientation columns are optional; when
// they are missing pitch and roll are derived from the accelerometer.
type CSVSource struct {
	r       *csv.Reader
	closer  io.Closer
	cols    map[string]int
	hasPose bool
	line    int
}

// OpenCSV opens a recording file. The caller must Close the source.
func OpenCSV(path string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	src, err := NewCSVSource(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.closer = f
	return src, nil
}

// NewCSVSource reads the header row from r and maps the columns.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{ColumnTime, ColumnAccelX, ColumnAccelY, ColumnAccelZ} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("CSV header missing column %q", required)
		}
	}
	_, hasPitch := cols[ColumnPitch]
	_, hasRoll := cols[ColumnRoll]
	_, hasYaw := cols[ColumnYaw]

	return &CSVSource{
		r:       cr,
		cols:    cols,
		hasPose: hasPitch && hasRoll && hasYaw,
		line:    1,
	}, nil
}

// Next returns the next row as a sample, or io.EOF after the last row.
func (s *CSVSource) Next() (displacement.Sample, error) {
	record, err := s.r.Read()
	if errors.Is(err, io.EOF) {
		return displacement.Sample{}, io.EOF
	}
	s.line++
	if err != nil {
		return displacement.Sample{}, fmt.Errorf("CSV line %d: %w", s.line, err)
	}

	field := func(name string) (float64, error) {
		i := s.cols[name]
		if i >= len(record) {
			return 0, fmt.Errorf("CSV line %d: missing %q", s.line, name)
		}
		raw := strings.TrimSpace(record[i])
		if raw == "" {
			// Blank cells are gaps in the recording; they flow on as NaN.
			return math.NaN(), nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("CSV line %d: %q: %w", s.line, name, err)
		}
		return v, nil
	}

	var out displacement.Sample
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{ColumnTime, &out.Timestamp},
		{ColumnAccelX, &out.AccelX},
		{ColumnAccelY, &out.AccelY},
		{ColumnAccelZ, &out.AccelZ},
	} {
		if *f.dst, err = field(f.name); err != nil {
			return displacement.Sample{}, err
		}
	}

	if !s.hasPose {
		p := orientation.FromAccel(out.AccelX, out.AccelY, out.AccelZ)
		out.Pitch, out.Roll = p.Pitch, p.Roll
		return out, nil
	}
	if out.Pitch, err = field(ColumnPitch); err != nil {
		return displacement.Sample{}, err
	}
	if out.Roll, err = field(ColumnRoll); err != nil {
		return displacement.Sample{}, err
	}
	if out.Yaw, err = field(ColumnYaw); err != nil {
		return displacement.Sample{}, err
	}
	return out, nil
}

// Close releases the underlying file, if any.
func (s *CSVSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
