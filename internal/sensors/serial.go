// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/zupt_displacement/internal/displacement"
	"github.com/relabs-tech/zupt_displacement/internal/orientation"
)

// LineSource reads comma-separated samples, one per line:
//
//	t,ax,ay,az
//	t,ax,ay,az,pitch,roll,yaw
//
// Blank lines and lines starting with '#' are skipped. Malformed lines are
// logged and skipped, since a serial stream often starts mid-line.
type LineSource struct {
	reader *bufio.Reader
	closer io.Closer
	name   string
}

// OpenSerial opens a serial port streaming sample lines.
func OpenSerial(portName string, baudRate int) (*LineSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	log.Printf("serial: port opened on %s at %d baud", portName, baudRate)

	src := NewLineSource(port, portName)
	src.closer = port
	return src, nil
}

// NewLineSource reads sample lines from r. name is used in log messages.
func NewLineSource(r io.Reader, name string) *LineSource {
	return &LineSource{reader: bufio.NewReader(r), name: name}
}

func (s *LineSource) Next() (displacement.Sample, error) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
			return displacement.Sample{}, err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sample, perr := ParseLine(line)
		if perr != nil {
			log.Printf("serial: %s: skipping line: %v", s.name, perr)
			continue
		}
		return sample, nil
	}
}

// Close releases the port, if any.
func (s *LineSource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// ParseLine parses one "t,ax,ay,az[,pitch,roll,yaw]" record.
func ParseLine(line string) (displacement.Sample, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 4 && len(parts) != 7 {
		return displacement.Sample{}, fmt.Errorf("expected 4 or 7 fields, got %d", len(parts))
	}

	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return displacement.Sample{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}

	s := displacement.Sample{
		Timestamp: vals[0],
		AccelX:    vals[1],
		AccelY:    vals[2],
		AccelZ:    vals[3],
	}
	if len(vals) == 7 {
		s.Pitch, s.Roll, s.Yaw = vals[4], vals[5], vals[6]
	} else {
		p := orientation.FromAccel(s.AccelX, s.AccelY, s.AccelZ)
		s.Pitch, s.Roll = p.Pitch, p.Roll
	}
	return s, nil
}
