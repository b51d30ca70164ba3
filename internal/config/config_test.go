// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
# broker
MQTT_BROKER=tcp://localhost:1883
TOPIC_POSE_QUATERNION = attitude/q
IMU_I2C_BUS=1
IMU_I2C_ADDR=0x69
IMU_ACCEL_RANGE=2
IMU_GYRO_RANGE=1
IMU_SAMPLE_INTERVAL=50
CALIBRATION_SAMPLES=500
CALIBRATION_INTERVAL=0
FILTER_ALPHA=0.95
QUATERNION_GAIN=0.5
ACCEL_GATE=0.1
SERIAL_PORT=/dev/ttyUSB0
`

func TestParse(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	assert.Equal(t, "attitude/q", cfg.TopicPoseQuaternion)
	assert.Equal(t, "1", cfg.IMUI2CBus)
	assert.Equal(t, uint16(0x69), cfg.IMUI2CAddr)
	assert.Equal(t, byte(2), cfg.IMUAccelRange)
	assert.Equal(t, byte(1), cfg.IMUGyroRange)
	assert.Equal(t, 50*time.Millisecond, cfg.SampleInterval())
	assert.Equal(t, 500, cfg.CalibrationSamples)
	assert.Equal(t, 0, cfg.CalibrationInterval)
	assert.Equal(t, 0.95, cfg.FilterAlpha)
	assert.Equal(t, 0.5, cfg.QuaternionGain)
	assert.Equal(t, 0.1, cfg.AccelGate)
	assert.Equal(t, "/dev/ttyUSB0", cfg.SerialPort)

	// untouched keys keep their defaults
	def := Defaults()
	assert.Equal(t, def.TopicPoseComplementary, cfg.TopicPoseComplementary)
	assert.Equal(t, def.SerialBaudRate, cfg.SerialBaudRate)
	assert.Equal(t, def.IMUDLPFConfig, cfg.IMUDLPFConfig)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"missing broker":   "IMU_ACCEL_RANGE=0\n",
		"unknown key":      "MQTT_BROKER=x\nMAG_SCALE=1\n",
		"no equals":        "MQTT_BROKER=x\nIMU_I2C_BUS\n",
		"accel range":      "MQTT_BROKER=x\nIMU_ACCEL_RANGE=4\n",
		"gyro range":       "MQTT_BROKER=x\nIMU_GYRO_RANGE=-1\n",
		"dlpf":             "MQTT_BROKER=x\nIMU_DLPF_CFG=7\n",
		"address":          "MQTT_BROKER=x\nIMU_I2C_ADDR=0x50\n",
		"alpha":            "MQTT_BROKER=x\nFILTER_ALPHA=1\n",
		"gain":             "MQTT_BROKER=x\nQUATERNION_GAIN=-1\n",
		"zero gain":        "MQTT_BROKER=x\nQUATERNION_GAIN=0\n",
		"interval":         "MQTT_BROKER=x\nIMU_SAMPLE_INTERVAL=0\n",
		"calibration size": "MQTT_BROKER=x\nCALIBRATION_SAMPLES=abc\n",
		"empty topic":      "MQTT_BROKER=x\nTOPIC_POSE_QUATERNION=\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestParse_ErrorNamesLine(t *testing.T) {
	_, err := Parse(strings.NewReader("MQTT_BROKER=x\n\nIMU_ACCEL_RANGE=9\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config line 3")
}

func TestLoadAndGlobal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attitude_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	require.NoError(t, InitGlobal(path))
	require.NotNil(t, Get())
	assert.Equal(t, cfg.MQTTBroker, Get().MQTTBroker)
}
