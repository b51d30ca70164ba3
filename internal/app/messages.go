// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"time"

	"github.com/relabs-tech/inertial_attitude/internal/calibration"
	"github.com/relabs-tech/inertial_attitude/internal/imu"
	"github.com/relabs-tech/inertial_attitude/internal/orientation"
)

// Estimator names carried in PoseMessage.
const (
	EstimatorComplementary = "complementary"
	EstimatorQuaternion    = "quaternion"
)

// PoseMessage is published once per tick per estimator. The embedded Pose
// keeps roll/pitch/yaw at the top level so plain orientation.Pose
// consumers can decode it.
type PoseMessage struct {
	orientation.Pose
	Estimator string                  `json:"estimator"`
	Q         *orientation.Quaternion `json:"q,omitempty"`
	RunID     string                  `json:"run_id"`
	Seq       uint64                  `json:"seq"`
	Time      time.Time               `json:"time"`
}

// RawMessage is the raw sample plus its converted, bias-corrected values.
type RawMessage struct {
	imu.RawSample
	Accel imu.Vec3  `json:"accel"`
	Gyro  imu.Vec3  `json:"gyro"`
	RunID string    `json:"run_id"`
	Seq   uint64    `json:"seq"`
	Time  time.Time `json:"time"`
}

// Bias origins reported in BiasMessage.
const (
	BiasFromCalibration = "calibrated"
	BiasFromFile        = "file"
	BiasNone            = "none"
)

// BiasMessage announces the bias a producer run is applying.
type BiasMessage struct {
	calibration.Bias
	Origin string    `json:"origin"`
	Scale  imu.Scale `json:"scale"`
	RunID  string    `json:"run_id"`
}
