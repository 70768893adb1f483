// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/zupt_displacement/internal/displacement"
	"github.com/relabs-tech/zupt_displacement/internal/orientation"
)

// countsPerG is the accelerometer sensitivity for each full-scale range
// setting (0=±2g, 1=±4g, 2=±8g, 3=±16g).
var countsPerG = [4]float64{16384, 8192, 4096, 2048}

type mpuSource struct {
	imu   *mpu9250.MPU9250
	scale float64
	start time.Time
}

// NewMPU9250Source initializes an MPU9250 over SPI and returns a Source
// that reads the accelerometer in g. Timestamps are seconds since the
// source was created. The source is polled; pace calls to Next.
func NewMPU9250Source(spiDev, csPin string, accelRange byte) (Source, error) {
	if accelRange > 3 {
		return nil, fmt.Errorf("IMU: accel range %d out of range 0-3", accelRange)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(csPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", csPin)
	}

	tr, err := mpu9250.NewSpiTransport(spiDev, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", spiDev, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := imu.SetAccelRange(accelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	log.Printf("IMU: accelerometer range set to %d (±%dg)", accelRange, []int{2, 4, 8, 16}[accelRange])

	// Calibration removes the factory offset; the estimator still tracks
	// the residual bias on its own.
	if err := imu.Calibrate(); err != nil {
		log.Printf("Warning: IMU calibration failed: %v", err)
	} else {
		log.Printf("IMU calibration complete")
	}

	return &mpuSource{
		imu:   imu,
		scale: countsPerG[accelRange],
		start: time.Now(),
	}, nil
}

func (s *mpuSource) Next() (displacement.Sample, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return displacement.Sample{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return displacement.Sample{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return displacement.Sample{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	return countsToSample(time.Since(s.start).Seconds(), ax, ay, az, s.scale), nil
}

func countsToSample(t float64, ax, ay, az int16, scale float64) displacement.Sample {
	s := displacement.Sample{
		Timestamp: t,
		AccelX:    float64(ax) / scale,
		AccelY:    float64(ay) / scale,
		AccelZ:    float64(az) / scale,
	}
	p := orientation.FromAccel(s.AccelX, s.AccelY, s.AccelZ)
	s.Pitch, s.Roll = p.Pitch, p.Roll
	return s
}
