// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/zupt_displacement/internal/config"
	"github.com/relabs-tech/zupt_displacement/internal/sensors"
)

// OpenSource builds the sample source selected in the configuration and
// reports whether it must be polled at SAMPLE_INTERVAL.
func OpenSource(cfg *config.Config) (src sensors.Source, polled bool, err error) {
	step := time.Duration(cfg.SampleInterval) * time.Millisecond
	switch cfg.Source {
	case "mock":
		log.Println("using mock wearable source")
		return sensors.NewMockSource(step.Seconds()), true, nil
	case "serial":
		src, err := sensors.OpenSerial(cfg.SerialPort, cfg.SerialBaudRate)
		return src, false, err
	case "mpu9250":
		src, err := sensors.NewMPU9250Source(cfg.IMUSPIDevice, cfg.IMUCSPin, cfg.IMUAccelRange)
		return src, true, err
	default:
		return nil, false, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// RunSampleProducer reads samples from the configured source and publishes
// them as JSON on the samples topic until the source is exhausted.
func RunSampleProducer() error {
	log.Println("starting zupt sample producer")

	cfg := config.Get()

	src, polled, err := OpenSource(cfg)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSampleProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Println("connected to MQTT, starting publish loop")

	var tick <-chan time.Time
	if polled {
		ticker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
		defer ticker.Stop()
		tick = ticker.C
	}

	published, err := pumpSamples(src, tick, func(payload []byte) error {
		token := client.Publish(cfg.TopicSamples, 0, false, payload)
		token.Wait()
		return token.Error()
	})
	if err != nil {
		return fmt.Errorf("after %d samples: %w", published, err)
	}
	log.Printf("source exhausted after %d samples", published)
	return nil
}

// pumpSamples forwards JSON-encoded samples from src to publish until the
// source reports io.EOF. When tick is non-nil each read waits for it.
// A read error ends the loop; the sources already skip malformed input, so
// what reaches here is a failing device. Publish errors are logged and the
// sample dropped.
func pumpSamples(src sensors.Source, tick <-chan time.Time, publish func([]byte) error) (int, error) {
	published := 0
	for {
		if tick != nil {
			<-tick
		}

		sample, err := src.Next()
		if errors.Is(err, io.EOF) {
			return published, nil
		}
		if err != nil {
			return published, fmt.Errorf("read sample: %w", err)
		}

		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("json marshal error (sample): %v", err)
			continue
		}
		if err := publish(payload); err != nil {
			log.Printf("MQTT publish error (samples): %v", err)
			continue
		}
		published++
		if published%500 == 0 {
			log.Printf("published %d samples (t=%.2fs ay=%.4f g)", published, sample.Timestamp, sample.AccelY)
		}
	}
}
