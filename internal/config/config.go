// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicIMURaw            string
	TopicPoseComplementary string
	TopicPoseQuaternion    string
	TopicCalibration       string

	// IMU Hardware. An empty bus selects the simulated source.
	IMUI2CBus  string
	IMUI2CAddr uint16

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// IMU Sample Rate Configuration
	IMUDLPFConfig    byte // Digital Low Pass Filter configuration (0-6)
	IMUSampleRateDiv byte // Sample rate divider (output rate = internal rate / (1 + div))

	// Timing
	IMUSampleInterval int // milliseconds

	// Calibration
	CalibrationSamples  int
	CalibrationInterval int    // milliseconds between calibration samples
	CalibrationFile     string // reused if present; empty always recalibrates

	// Estimators. Zero selects the built-in defaults.
	FilterAlpha    float64
	QuaternionGain float64 // 1/s, > 0
	AccelGate      float64 // 0 disables gating

	// NMEA XDR output; empty port disables it
	SerialPort     string
	SerialBaudRate int

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CBus         string
	DisplayUpdateInterval int // milliseconds
}

// Defaults returns the values used for keys absent from the file.
func Defaults() Config {
	return Config{
		MQTTClientIDProducer:   "attitude-producer",
		MQTTClientIDConsole:    "attitude-console",
		MQTTClientIDWeb:        "attitude-web",
		MQTTClientIDDisplay:    "attitude-display",
		TopicIMURaw:            "attitude/imu/raw",
		TopicPoseComplementary: "attitude/pose/complementary",
		TopicPoseQuaternion:    "attitude/pose/quaternion",
		TopicCalibration:       "attitude/calibration",
		IMUI2CAddr:             0x68,
		IMUDLPFConfig:          3,
		IMUSampleRateDiv:       9,
		IMUSampleInterval:      200,
		CalibrationSamples:     250,
		CalibrationInterval:    10,
		SerialBaudRate:         4800,
		WebServerPort:          8080,
		DisplayUpdateInterval:  500,
	}
}

// SampleInterval returns IMUSampleInterval as a duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.IMUSampleInterval) * time.Millisecond
}

// Package-level singleton: InitGlobal sets it once, Get reads it under a
// read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		if err := cfg.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_IMU_RAW":
		c.TopicIMURaw = value
	case "TOPIC_POSE_COMPLEMENTARY":
		c.TopicPoseComplementary = value
	case "TOPIC_POSE_QUATERNION":
		c.TopicPoseQuaternion = value
	case "TOPIC_CALIBRATION":
		c.TopicCalibration = value

	// IMU Hardware
	case "IMU_I2C_BUS":
		c.IMUI2CBus = value
	case "IMU_I2C_ADDR":
		addr, perr := strconv.ParseUint(value, 0, 16)
		if perr != nil {
			return fmt.Errorf("invalid IMU_I2C_ADDR %q: %w", value, perr)
		}
		if addr != 0x68 && addr != 0x69 {
			return fmt.Errorf("IMU_I2C_ADDR must be 0x68 or 0x69, got 0x%02X", addr)
		}
		c.IMUI2CAddr = uint16(addr)

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		c.IMUAccelRange, err = parseByte(key, value, 3, "0=±2g, 1=±4g, 2=±8g, 3=±16g")
	case "IMU_GYRO_RANGE":
		c.IMUGyroRange, err = parseByte(key, value, 3, "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s")

	// IMU Sample Rate Configuration
	case "IMU_DLPF_CFG":
		c.IMUDLPFConfig, err = parseByte(key, value, 6, "")
	case "IMU_SMPLRT_DIV":
		c.IMUSampleRateDiv, err = parseByte(key, value, 255, "")

	// Timing
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parsePositive(key, value)

	// Calibration
	case "CALIBRATION_SAMPLES":
		c.CalibrationSamples, err = parsePositive(key, value)
	case "CALIBRATION_INTERVAL":
		c.CalibrationInterval, err = strconv.Atoi(value)
		if err != nil || c.CalibrationInterval < 0 {
			return fmt.Errorf("invalid CALIBRATION_INTERVAL %q", value)
		}
	case "CALIBRATION_FILE":
		c.CalibrationFile = value

	// Estimators
	case "FILTER_ALPHA":
		c.FilterAlpha, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid FILTER_ALPHA %q: %w", value, err)
		}
		if c.FilterAlpha <= 0 || c.FilterAlpha >= 1 {
			return fmt.Errorf("FILTER_ALPHA must be in (0, 1), got %v", c.FilterAlpha)
		}
	case "QUATERNION_GAIN":
		c.QuaternionGain, err = parseNonNegativeFloat(key, value)
		if err == nil && c.QuaternionGain == 0 {
			err = fmt.Errorf("QUATERNION_GAIN must be > 0")
		}
	case "ACCEL_GATE":
		c.AccelGate, err = parseNonNegativeFloat(key, value)

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parsePositive(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parsePositive(key, value)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parsePositive(key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseByte(key, value string, max int, legend string) (byte, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 || v > max {
		if legend != "" {
			return 0, fmt.Errorf("%s must be 0-%d (%s), got %d", key, max, legend, v)
		}
		return 0, fmt.Errorf("%s must be 0-%d, got %d", key, max, v)
	}
	return byte(v), nil
}

func parsePositive(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}

func parseNonNegativeFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %v", key, v)
	}
	return v, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicPoseQuaternion == "" || c.TopicPoseComplementary == "" {
		return fmt.Errorf("TOPIC_POSE_QUATERNION and TOPIC_POSE_COMPLEMENTARY are required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
