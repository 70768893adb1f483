// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/zupt_displacement/internal/config"
	"github.com/relabs-tech/zupt_displacement/internal/displacement"
	"github.com/relabs-tech/zupt_displacement/internal/orientation"
)

func formatSample(s displacement.Sample) string {
	deg := orientation.Pose{Roll: s.Roll, Pitch: s.Pitch, Yaw: s.Yaw}.Degrees()
	return fmt.Sprintf(
		"[SMPL] t=%8.3f  ax=%7.4f ay=%7.4f az=%7.4f  roll=%6.1f pitch=%6.1f",
		s.Timestamp, s.AccelX, s.AccelY, s.AccelZ,
		deg.Roll, deg.Pitch,
	)
}

func formatDisplacement(m DisplacementMessage) string {
	flags := ""
	if m.Stationary {
		flags += " ZUPT"
	}
	if m.Compensated {
		flags += " COMP"
	}
	return fmt.Sprintf(
		"[DISP] t=%8.3f  a=%8.5f  v=%8.5f  y=%8.5f  stable=%8.5f  scaled=%5.2f  %s%s",
		m.Timestamp, m.Acceleration, m.Velocity, m.Position, m.StablePosition,
		m.ScaledPosition, m.Readiness, flags,
	)
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to raw samples
	sampleToken := client.Subscribe(cfg.TopicSamples, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s displacement.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: sample unmarshal error: %v", err)
			return
		}
		fmt.Println(formatSample(s))
	})
	sampleToken.Wait()
	if sampleToken.Error() != nil {
		return sampleToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicSamples)

	// Subscribe to displacement
	dispToken := client.Subscribe(cfg.TopicDisplacement, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m DisplacementMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("console: displacement unmarshal error: %v", err)
			return
		}
		fmt.Println(formatDisplacement(m))
	})
	dispToken.Wait()
	if dispToken.Error() != nil {
		return dispToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicDisplacement)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
