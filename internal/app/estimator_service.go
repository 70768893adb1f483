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
	"sync"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/relabs-tech/zupt_displacement/internal/config"
	"github.com/relabs-tech/zupt_displacement/internal/displacement"
)

// estimatorService owns one estimator and serializes access to it; the
// MQTT client may deliver messages from its own goroutines.
type estimatorService struct {
	mu      sync.Mutex
	est     *displacement.Estimator
	limit   float64
	session string
	count   int
}

func newEstimatorService(p displacement.Params, limit float64) (*estimatorService, error) {
	est, err := displacement.New(p)
	if err != nil {
		return nil, err
	}
	return &estimatorService{est: est, limit: limit, session: uuid.NewString()}, nil
}

// handle decodes one sample payload, runs it through the estimator and
// returns the message to publish.
func (s *estimatorService) handle(payload []byte) (DisplacementMessage, error) {
	var sample displacement.Sample
	if err := json.Unmarshal(payload, &sample); err != nil {
		return DisplacementMessage{}, fmt.Errorf("sample unmarshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rd := s.est.Process(sample)
	s.count++
	if rd.Readiness == displacement.JustFilled {
		log.Printf("estimator: bias window filled after %d samples (bias=%.5f g)", s.count, rd.Bias)
	}
	return DisplacementMessage{
		Reading:        rd,
		ScaledPosition: s.est.ScaledPosition(s.limit),
		Limit:          s.limit,
		Session:        s.session,
	}, nil
}

// RunEstimator subscribes to the samples topic, estimates displacement and
// publishes one DisplacementMessage per sample until interrupted.
func RunEstimator() error {
	cfg := config.Get()

	svc, err := newEstimatorService(cfg.Estimator, cfg.ScaleLimit())
	if err != nil {
		return err
	}
	log.Printf("estimator: session %s", svc.session)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDEstimator).
		SetOrderMatters(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("estimator: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicSamples, 0, func(c mqtt.Client, msg mqtt.Message) {
		out, err := svc.handle(msg.Payload())
		if err != nil {
			log.Printf("estimator: %v", err)
			return
		}
		payload, err := json.Marshal(out)
		if err != nil {
			log.Printf("estimator: json marshal error: %v", err)
			return
		}
		// Waiting on the publish token inside a handler would deadlock
		// with ordered delivery; fire and forget.
		c.Publish(cfg.TopicDisplacement, 0, false, payload)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("estimator: subscribed to %s, publishing to %s", cfg.TopicSamples, cfg.TopicDisplacement)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Println("estimator: shutting down")
	return nil
}
