// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "github.com/relabs-tech/inertial_attitude/internal/imu"

// DefaultAlpha is the gyro weight of the complementary blend. Tuned for a
// tick period of tens to hundreds of milliseconds.
const DefaultAlpha = 0.98

// AlphaForTimeConstant returns the blend weight giving a filter time
// constant of tau seconds at tick interval dt.
func AlphaForTimeConstant(tau, dt float64) float64 {
	if tau <= 0 || dt <= 0 {
		return 0
	}
	return tau / (tau + dt)
}

// Complementary fuses gyro-integrated and accelerometer tilt into roll and
// pitch. It cannot observe yaw. The blend is linear in degrees and does not
// wrap at ±180°, so near inverted a roll reading that flips sign pulls the
// estimate toward 0; use the quaternion estimator for inverted attitudes.
//
// Not safe for concurrent use; the sampling loop owns it.
type Complementary struct {
	Alpha float64

	roll  float64 // deg
	pitch float64 // deg
}

// NewComplementary returns a filter with both angles at zero.
func NewComplementary(alpha float64) *Complementary {
	return &Complementary{Alpha: alpha}
}

// Init resets both angles to zero.
func (c *Complementary) Init() {
	c.roll = 0
	c.pitch = 0
}

// Update advances the filter by one tick. accel is in any consistent unit,
// gyro in deg/s, dt in seconds.
func (c *Complementary) Update(accel, gyro imu.Vec3, dt float64) {
	if gyro.IsFinite() && isFinite(dt) && dt > 0 {
		c.roll += gyro.X * dt
		c.pitch += gyro.Y * dt
	}

	if !accel.IsFinite() {
		return
	}
	accRoll, accPitch, rollOK, pitchOK := AccelTilt(accel)
	a := c.Alpha
	if rollOK {
		c.roll = a*c.roll + (1-a)*accRoll
	}
	if pitchOK {
		c.pitch = a*c.pitch + (1-a)*accPitch
	}
}

// Roll returns the current roll in degrees.
func (c *Complementary) Roll() float64 { return c.roll }

// Pitch returns the current pitch in degrees.
func (c *Complementary) Pitch() float64 { return c.pitch }

// Pose returns roll and pitch; yaw is always 0.
func (c *Complementary) Pose() Pose {
	return Pose{Roll: c.roll, Pitch: c.pitch}
}
