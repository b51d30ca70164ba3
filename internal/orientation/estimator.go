// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

// DefaultQuaternionGain is the proportional gravity-correction gain in 1/s.
const DefaultQuaternionGain = 1.0

// FreeFallFraction is the accel magnitude, as a fraction of g, below which
// the reading is treated as free fall and the gravity correction skipped.
const FreeFallFraction = 0.1

// QuaternionEstimator tracks full 3-DOF attitude by integrating angular rate
// and correcting roll/pitch drift toward measured gravity. Yaw has no
// absolute reference and drifts with gyro bias.
//
// Not safe for concurrent use; the sampling loop owns it.
type QuaternionEstimator struct {
	Gain float64

	// AccelGate, when > 0, skips the gravity correction for ticks where
	// |‖accel‖/g - 1| exceeds it. accel must then be in m/s².
	AccelGate float64

	q Quaternion
}

// NewQuaternionEstimator returns an estimator at the identity orientation.
func NewQuaternionEstimator(gain float64) *QuaternionEstimator {
	return &QuaternionEstimator{Gain: gain, q: Identity()}
}

// Init resets the orientation to identity.
func (e *QuaternionEstimator) Init() {
	e.q = Identity()
}

// Update advances the estimate by one tick. gyro in deg/s, accel in m/s²,
// dt in seconds. Ticks with non-finite gyro or dt, or dt <= 0, leave the
// state unchanged. Accel below FreeFallFraction·g integrates the gyro only.
func (e *QuaternionEstimator) Update(gyro, accel imu.Vec3, dt float64) {
	if !gyro.IsFinite() || !isFinite(dt) || dt <= 0 {
		return
	}
	gain := e.Gain
	if !accel.IsFinite() {
		accel = imu.Vec3{}
	}
	g := accel.Norm() / imu.StandardGravity
	if g < FreeFallFraction {
		gain = 0
	}
	if e.AccelGate > 0 && math.Abs(g-1) > e.AccelGate {
		gain = 0
	}
	e.q = Integrate(e.Quaternion(), gyro, accel, dt, gain)
}

// Quaternion returns the current orientation.
func (e *QuaternionEstimator) Quaternion() Quaternion {
	if e.q == (Quaternion{}) {
		return Identity()
	}
	return e.q
}

// Roll returns the current roll in degrees.
func (e *QuaternionEstimator) Roll() float64 { return e.Quaternion().Roll() }

// Pitch returns the current pitch in degrees.
func (e *QuaternionEstimator) Pitch() float64 { return e.Quaternion().Pitch() }

// Yaw returns the current yaw in degrees.
func (e *QuaternionEstimator) Yaw() float64 { return e.Quaternion().Yaw() }

// Pose returns roll, pitch and yaw.
func (e *QuaternionEstimator) Pose() Pose { return e.Quaternion().Pose() }
