// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"math"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/zupt_displacement/internal/config"
)

const (
	displayWidth  = 128
	displayHeight = 64

	barTop    = 44
	barBottom = 60
)

// DisplayData holds the latest displacement message for the OLED.
type DisplayData struct {
	mu   sync.RWMutex
	msg  DisplacementMessage
	have bool
}

func (d *DisplayData) set(m DisplacementMessage) {
	d.mu.Lock()
	d.msg = m
	d.have = true
	d.mu.Unlock()
}

func (d *DisplayData) snapshot() (DisplacementMessage, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.msg, d.have
}

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: ssd1306 initialized")

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	// Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicDisplacement, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m DisplacementMessage
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			log.Printf("display: displacement unmarshal error: %v", err)
			return
		}
		data.set(m)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicDisplacement)

	// Display update loop
	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		m, have := data.snapshot()
		if err := dev.Draw(dev.Bounds(), renderDisplacement(m, have), image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func newFrame() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newFrame()

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("ZUPT Pi"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Hold still"))

	drawer.Dot = fixed.P(5, 56)
	drawer.DrawBytes([]byte("for bias..."))

	return img
}

// renderDisplacement draws the stable position in millimetres, a ZUPT
// marker and a bar proportional to the scaled position.
func renderDisplacement(m DisplacementMessage, have bool) *image1bit.VerticalLSB {
	img, drawer := newFrame()

	if !have {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Displacement"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
		return img
	}

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(fmt.Sprintf("Y: %6.2f mm", m.StablePosition*1000)))

	state := m.Readiness.String()
	if m.Stationary {
		state = "ZUPT"
	}
	drawer.Dot = fixed.P(0, 26)
	drawer.DrawBytes([]byte(fmt.Sprintf("V: %6.3f %s", m.Velocity, state)))

	drawer.Dot = fixed.P(0, 39)
	drawer.DrawBytes([]byte(fmt.Sprintf("%3.0f%%", m.ScaledPosition*100)))

	drawBar(img, m.ScaledPosition)
	return img
}

// drawBar outlines the bar area and fills it left to right; fraction is
// clipped to [0, 1].
func drawBar(img *image1bit.VerticalLSB, fraction float64) {
	if fraction < 0 || math.IsNaN(fraction) {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	for x := 0; x < displayWidth; x++ {
		img.SetBit(x, barTop, image1bit.On)
		img.SetBit(x, barBottom, image1bit.On)
	}
	for y := barTop; y <= barBottom; y++ {
		img.SetBit(0, y, image1bit.On)
		img.SetBit(displayWidth-1, y, image1bit.On)
	}
	fill := int(fraction * float64(displayWidth-4))
	for x := 2; x < 2+fill; x++ {
		for y := barTop + 2; y <= barBottom-2; y++ {
			img.SetBit(x, y, image1bit.On)
		}
	}
}
