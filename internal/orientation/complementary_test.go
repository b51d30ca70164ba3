// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

func TestComplementary_InitZeroes(t *testing.T) {
	c := NewComplementary(DefaultAlpha)
	c.Update(tiltVector(20, 10), imu.Vec3{X: 5}, 0.2)
	assert.NotZero(t, c.Roll())
	c.Init()
	assert.Equal(t, 0.0, c.Roll())
	assert.Equal(t, 0.0, c.Pitch())
}

func TestComplementary_SingleStepBlend(t *testing.T) {
	c := NewComplementary(0.7)
	c.Update(tiltVector(10, 0), imu.Vec3{X: 50, Y: -20}, 0.1)
	// roll: 0.7*(0+50*0.1) + 0.3*10; pitch: 0.7*(0-20*0.1) + 0.3*0
	assert.InDelta(t, 0.7*5+3, c.Roll(), 1e-9)
	assert.InDelta(t, 0.7*-2, c.Pitch(), 1e-9)
}

func TestComplementary_StaticConvergence(t *testing.T) {
	c := NewComplementary(DefaultAlpha)
	// Push the state somewhere arbitrary first.
	for i := 0; i < 50; i++ {
		c.Update(tiltVector(-60, 40), imu.Vec3{X: 200, Y: -150}, 0.05)
	}

	accel := tiltVector(25, -15)
	for i := 0; i < 2000; i++ {
		c.Update(accel, imu.Vec3{}, 0.05)
	}
	assert.InDelta(t, 25, c.Roll(), 0.01)
	assert.InDelta(t, -15, c.Pitch(), 0.01)
	assert.Equal(t, 0.0, c.Pose().Yaw)
}

func TestComplementary_YawOnlyRotation(t *testing.T) {
	c := NewComplementary(DefaultAlpha)
	accel := imu.Vec3{Z: imu.StandardGravity}
	for i := 0; i < 900; i++ {
		c.Update(accel, imu.Vec3{Z: 10}, 0.01)
	}
	assert.InDelta(t, 0, c.Roll(), 1e-9)
	assert.InDelta(t, 0, c.Pitch(), 1e-9)
}

func TestComplementary_ZeroAccelKeepsStateFinite(t *testing.T) {
	c := NewComplementary(DefaultAlpha)
	c.Update(tiltVector(10, 5), imu.Vec3{}, 0.2)
	before := c.Pose()

	c.Update(imu.Vec3{}, imu.Vec3{X: 1, Y: 1}, 0.2)
	assert.False(t, math.IsNaN(c.Roll()))
	assert.False(t, math.IsNaN(c.Pitch()))
	// Gyro-only integration for this tick.
	assert.InDelta(t, before.Roll+0.2, c.Roll(), 1e-9)
	assert.InDelta(t, before.Pitch+0.2, c.Pitch(), 1e-9)

	for i := 0; i < 2000; i++ {
		c.Update(tiltVector(10, 5), imu.Vec3{}, 0.2)
	}
	assert.InDelta(t, 10, c.Roll(), 0.01)
	assert.InDelta(t, 5, c.Pitch(), 0.01)
}

func TestComplementary_NonFiniteInputsIgnored(t *testing.T) {
	c := NewComplementary(DefaultAlpha)
	c.Update(imu.Vec3{Z: math.NaN()}, imu.Vec3{X: math.Inf(1)}, 0.1)
	c.Update(imu.Vec3{Z: 9.8}, imu.Vec3{X: 10}, math.NaN())
	c.Update(imu.Vec3{Z: 9.8}, imu.Vec3{X: 10}, -1)
	assert.Equal(t, 0.0, c.Roll())
	assert.Equal(t, 0.0, c.Pitch())
}
