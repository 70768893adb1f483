// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/relabs-tech/zupt_displacement/internal/displacement"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker                 string
	MQTTClientIDSampleProducer string
	MQTTClientIDEstimator      string
	MQTTClientIDConsole        string
	MQTTClientIDWeb            string
	MQTTClientIDDisplay        string

	// Topics
	TopicSamples      string
	TopicDisplacement string

	// Sample source: "mock", "serial" or "mpu9250"
	Source string

	// Serial line source
	SerialPort     string
	SerialBaudRate int

	// MPU9250 over SPI
	IMUSPIDevice string
	IMUCSPin     string
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte

	// Timing
	SampleInterval        int // milliseconds, polled sources only
	DisplayUpdateInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayLimit float64 // metres shown as full scale; 0 uses the position threshold

	// Estimator
	Estimator displacement.Params
}

// Package-level unexported variables for the singleton:
//   - globalConfig is only reachable through InitGlobal and Get.
//   - configOnce makes InitGlobal idempotent.
//   - configMu guards reads against the one-time initialization.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration that talks to a local broker and uses
// the reference estimator tuning. Client IDs get a random suffix so two
// instances of the same tool do not kick each other off the broker.
func Default() *Config {
	suffix := uuid.NewString()[:8]
	return &Config{
		MQTTBroker:                 "tcp://localhost:1883",
		MQTTClientIDSampleProducer: "zupt-sample-producer-" + suffix,
		MQTTClientIDEstimator:      "zupt-estimator-" + suffix,
		MQTTClientIDConsole:        "zupt-console-" + suffix,
		MQTTClientIDWeb:            "zupt-web-" + suffix,
		MQTTClientIDDisplay:        "zupt-display-" + suffix,

		TopicSamples:      "zupt/samples",
		TopicDisplacement: "zupt/displacement",

		Source: "mock",

		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 115200,

		IMUSPIDevice:  "/dev/spidev0.0",
		IMUCSPin:      "8",
		IMUAccelRange: 0,

		SampleInterval:        10,
		DisplayUpdateInterval: 200,

		WebServerPort: 8080,

		Estimator: displacement.DefaultParams(),
	}
}

// Load reads the configuration file on top of Default.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_SAMPLE_PRODUCER":
		c.MQTTClientIDSampleProducer = value
	case "MQTT_CLIENT_ID_ESTIMATOR":
		c.MQTTClientIDEstimator = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_SAMPLES":
		c.TopicSamples = value
	case "TOPIC_DISPLACEMENT":
		c.TopicDisplacement = value

	// Source
	case "SOURCE":
		switch value {
		case "mock", "serial", "mpu9250":
			c.Source = value
		default:
			return fmt.Errorf("SOURCE must be mock, serial or mpu9250, got %q", value)
		}
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value)
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "IMU_ACCEL_RANGE":
		rangeVal, err := parseInt(key, value)
		if err != nil {
			return err
		}
		if rangeVal < 0 || rangeVal > 3 {
			return fmt.Errorf("IMU_ACCEL_RANGE must be 0-3 (0=±2g, 1=±4g, 2=±8g, 3=±16g), got %d", rangeVal)
		}
		c.IMUAccelRange = byte(rangeVal)

	// Timing
	case "SAMPLE_INTERVAL":
		c.SampleInterval, err = parseInt(key, value)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)

	// Display
	case "DISPLAY_LIMIT":
		c.DisplayLimit, err = parseFloat(key, value)

	// Estimator
	case "BIAS_WINDOW":
		c.Estimator.BiasWindow, err = parseInt(key, value)
	case "SMOOTHING_WINDOW":
		c.Estimator.SmoothingWindow, err = parseInt(key, value)
	case "HISTORY_CAPACITY":
		c.Estimator.HistoryCapacity, err = parseInt(key, value)
	case "ZUPT_WINDOW":
		c.Estimator.ZUPTWindow, err = parseInt(key, value)
	case "ZUPT_THRESHOLD":
		c.Estimator.ZUPTThreshold, err = parseFloat(key, value)
	case "COMPENSATION_EPSILON":
		c.Estimator.CompensationEpsilon, err = parseFloat(key, value)
	case "POSITION_THRESHOLD":
		c.Estimator.PositionThreshold, err = parseFloat(key, value)
	case "STABLE_LOWER_CLAMP":
		c.Estimator.StableLowerClamp, err = parseFloat(key, value)
	case "COMPENSATOR_LOWER_CLAMP":
		c.Estimator.CompensatorLowerClamp, err = parseFloat(key, value)
	case "CLAMP_NEGATIVE_DT":
		c.Estimator.ClampNegativeDT, err = strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid CLAMP_NEGATIVE_DT %q: %w", value, err)
		}

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that the loaded values are usable together.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicSamples == "" || c.TopicDisplacement == "" {
		return fmt.Errorf("TOPIC_SAMPLES and TOPIC_DISPLACEMENT are required")
	}
	if c.Source == "serial" && c.SerialPort == "" {
		return fmt.Errorf("SERIAL_PORT is required for the serial source")
	}
	if c.SerialBaudRate <= 0 {
		return fmt.Errorf("SERIAL_BAUD_RATE must be > 0")
	}
	if c.SampleInterval <= 0 {
		return fmt.Errorf("SAMPLE_INTERVAL must be > 0")
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be > 0")
	}
	if c.DisplayLimit < 0 {
		return fmt.Errorf("DISPLAY_LIMIT must be >= 0")
	}
	if err := c.Estimator.Validate(); err != nil {
		return fmt.Errorf("estimator: %w", err)
	}
	return nil
}

// ScaleLimit returns the limit collaborators pass to ScaledPosition.
func (c *Config) ScaleLimit() float64 {
	if c.DisplayLimit == 0 {
		return c.Estimator.PositionThreshold
	}
	return c.DisplayLimit
}

// InitGlobal initializes the global configuration from file. Only the
// first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before
// InitGlobal succeeded.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
