// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

func fromEuler(rollDeg, pitchDeg, yawDeg float64) Quaternion {
	cr, sr := math.Cos(rollDeg*degToRad/2), math.Sin(rollDeg*degToRad/2)
	cp, sp := math.Cos(pitchDeg*degToRad/2), math.Sin(pitchDeg*degToRad/2)
	cy, sy := math.Cos(yawDeg*degToRad/2), math.Sin(yawDeg*degToRad/2)
	return Quaternion{
		W: cr*cp*cy + sr*sp*sy,
		X: sr*cp*cy - cr*sp*sy,
		Y: cr*sp*cy + sr*cp*sy,
		Z: cr*cp*sy - sr*sp*cy,
	}
}

func TestQuaternion_EulerRoundTrip(t *testing.T) {
	for _, e := range [][3]float64{{0, 0, 0}, {30, 0, 0}, {0, -45, 0}, {0, 0, 120}, {-20, 35, -150}} {
		q := fromEuler(e[0], e[1], e[2])
		assert.InDelta(t, 1, q.Norm(), 1e-12)
		assert.InDelta(t, e[0], q.Roll(), 1e-9, "roll %v", e)
		assert.InDelta(t, e[1], q.Pitch(), 1e-9, "pitch %v", e)
		assert.InDelta(t, e[2], q.Yaw(), 1e-9, "yaw %v", e)
	}
}

func TestQuaternion_GravityMatchesTilt(t *testing.T) {
	q := fromEuler(25, -40, 75)
	v := q.gravity()
	want := tiltVector(25, -40)
	assert.InDelta(t, want.X/imu.StandardGravity, v.X, 1e-12)
	assert.InDelta(t, want.Y/imu.StandardGravity, v.Y, 1e-12)
	assert.InDelta(t, want.Z/imu.StandardGravity, v.Z, 1e-12)
}

func TestQuaternion_MulConjugate(t *testing.T) {
	q := fromEuler(10, 20, 30)
	p := q.Mul(q.Conjugate())
	assert.InDelta(t, 1, p.W, 1e-12)
	assert.InDelta(t, 0, p.X, 1e-12)
	assert.InDelta(t, 0, p.Y, 1e-12)
	assert.InDelta(t, 0, p.Z, 1e-12)
	assert.Equal(t, q, Identity().Mul(q))
}

func TestQuaternion_NormalizedDegenerate(t *testing.T) {
	assert.Equal(t, Identity(), Quaternion{}.Normalized())
	assert.Equal(t, Identity(), Quaternion{W: math.NaN()}.Normalized())
	assert.InDelta(t, 1, Quaternion{W: 2, X: 2}.Normalized().Norm(), 1e-15)
}

func TestQuaternion_PitchSaturates(t *testing.T) {
	q := Quaternion{W: 1, Y: 1.0000001}
	assert.False(t, math.IsNaN(q.Pitch()))
}

func TestQuaternionEstimator_InitIsIdentity(t *testing.T) {
	e := NewQuaternionEstimator(DefaultQuaternionGain)
	e.Update(imu.Vec3{X: 30}, tiltVector(0, 0), 0.5)
	e.Init()
	assert.Equal(t, Identity(), e.Quaternion())

	var zero QuaternionEstimator
	assert.Equal(t, Identity(), zero.Quaternion())
}

func TestQuaternionEstimator_NormInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := NewQuaternionEstimator(DefaultQuaternionGain)
	for i := 0; i < 5000; i++ {
		gyro := imu.Vec3{X: rng.Float64()*1000 - 500, Y: rng.Float64()*1000 - 500, Z: rng.Float64()*1000 - 500}
		accel := imu.Vec3{X: rng.Float64()*40 - 20, Y: rng.Float64()*40 - 20, Z: rng.Float64()*40 - 20}
		dt := 0.001 + rng.Float64()*0.2
		e.Update(gyro, accel, dt)
		require.InDelta(t, 1, e.Quaternion().Norm(), 1e-9, "step %d", i)
	}
}

func TestQuaternionEstimator_StaticConvergence(t *testing.T) {
	e := NewQuaternionEstimator(DefaultQuaternionGain)
	// Arbitrary starting attitude.
	for i := 0; i < 100; i++ {
		e.Update(imu.Vec3{X: 90, Y: -45, Z: 30}, imu.Vec3{}, 0.01)
	}

	accel := tiltVector(30, -20)
	for i := 0; i < 4000; i++ {
		e.Update(imu.Vec3{}, accel, 0.01)
	}
	assert.InDelta(t, 30, e.Roll(), 0.05)
	assert.InDelta(t, -20, e.Pitch(), 0.05)
}

func TestQuaternionEstimator_YawOnlyRotation(t *testing.T) {
	e := NewQuaternionEstimator(DefaultQuaternionGain)
	accel := imu.Vec3{Z: imu.StandardGravity}
	// 10 deg/s for 4.5 s.
	for i := 0; i < 450; i++ {
		e.Update(imu.Vec3{Z: 10}, accel, 0.01)
	}
	assert.InDelta(t, 45, e.Yaw(), 0.1)
	assert.InDelta(t, 0, e.Roll(), 1e-6)
	assert.InDelta(t, 0, e.Pitch(), 1e-6)
}

func TestQuaternionEstimator_RollRateIntegrates(t *testing.T) {
	e := NewQuaternionEstimator(0)
	for i := 0; i < 100; i++ {
		e.Update(imu.Vec3{X: 20}, imu.Vec3{}, 0.01)
	}
	assert.InDelta(t, 20, e.Roll(), 0.01)
}

func TestQuaternionEstimator_ZeroAccelSkipsCorrection(t *testing.T) {
	e := NewQuaternionEstimator(DefaultQuaternionGain)
	e.Update(imu.Vec3{X: 10}, imu.Vec3{}, 0.1)
	q := e.Quaternion()
	assert.False(t, math.IsNaN(q.W) || math.IsNaN(q.X) || math.IsNaN(q.Y) || math.IsNaN(q.Z))
	assert.InDelta(t, 1.0, e.Roll(), 1e-3)

	for i := 0; i < 4000; i++ {
		e.Update(imu.Vec3{}, tiltVector(-10, 15), 0.01)
	}
	assert.InDelta(t, -10, e.Roll(), 0.05)
	assert.InDelta(t, 15, e.Pitch(), 0.05)
}

func TestQuaternionEstimator_NonFiniteInputsIgnored(t *testing.T) {
	e := NewQuaternionEstimator(DefaultQuaternionGain)
	e.Update(imu.Vec3{X: math.NaN()}, tiltVector(0, 0), 0.1)
	e.Update(imu.Vec3{X: 10}, tiltVector(0, 0), math.Inf(1))
	e.Update(imu.Vec3{X: 10}, tiltVector(0, 0), 0)
	assert.Equal(t, Identity(), e.Quaternion())

	e.Update(imu.Vec3{X: 10}, imu.Vec3{Z: math.NaN()}, 0.1)
	assert.InDelta(t, 1.0, e.Roll(), 1e-3)
}

func TestQuaternionEstimator_AccelGate(t *testing.T) {
	e := NewQuaternionEstimator(DefaultQuaternionGain)
	e.AccelGate = 0.2
	// 3 g sideways: linear acceleration, not gravity.
	for i := 0; i < 500; i++ {
		e.Update(imu.Vec3{}, imu.Vec3{Y: 3 * imu.StandardGravity}, 0.01)
	}
	assert.Equal(t, Identity(), e.Quaternion())

	e.AccelGate = 0
	for i := 0; i < 500; i++ {
		e.Update(imu.Vec3{}, imu.Vec3{Y: 3 * imu.StandardGravity}, 0.01)
	}
	assert.NotEqual(t, Identity(), e.Quaternion())
}

func TestIntegrate_ScenarioLevelStillIsIdentity(t *testing.T) {
	accel := imu.DefaultScale.ToPhysicalAccel(0, 0, 16384)
	gyro := imu.DefaultScale.ToPhysicalGyro(0, 0, 0)
	q := Integrate(Identity(), gyro, accel, 0.2, DefaultQuaternionGain)
	assert.InDelta(t, 1, q.W, 1e-12)
	assert.InDelta(t, 0, q.X, 1e-12)
	assert.InDelta(t, 0, q.Y, 1e-12)
	assert.InDelta(t, 0, q.Z, 1e-12)

	c := NewComplementary(DefaultAlpha)
	c.Update(accel, gyro, 0.2)
	assert.InDelta(t, 0, c.Roll(), 1e-12)
	assert.InDelta(t, 0, c.Pitch(), 1e-12)
}

func TestQuaternionEstimator_FreeFallSkipsCorrection(t *testing.T) {
	e := NewQuaternionEstimator(DefaultQuaternionGain)
	// About 0.002 g left over in free fall.
	residual := imu.Vec3{X: 0.02}
	for i := 0; i < 300; i++ {
		e.Update(imu.Vec3{}, residual, 0.01)
	}
	assert.Equal(t, Identity(), e.Quaternion())

	// The gyro is still integrated.
	for i := 0; i < 100; i++ {
		e.Update(imu.Vec3{X: 20}, residual, 0.01)
	}
	assert.InDelta(t, 20, e.Roll(), 0.01)
	assert.InDelta(t, 0, e.Pitch(), 1e-9)
}

func TestQuaternionEstimator_StaticConvergenceInverted(t *testing.T) {
	e := NewQuaternionEstimator(DefaultQuaternionGain)
	accel := imu.Vec3{Z: -imu.StandardGravity}
	for i := 0; i < 6000; i++ {
		e.Update(imu.Vec3{}, accel, 0.01)
	}
	assert.InDelta(t, -1, e.Quaternion().gravity().Z, 1e-6)
	assert.InDelta(t, 180, math.Abs(e.Roll()), 0.05)
	assert.InDelta(t, 0, e.Pitch(), 0.05)
	assert.InDelta(t, 1, e.Quaternion().Norm(), 1e-9)

	c := NewComplementary(DefaultAlpha)
	for i := 0; i < 6000; i++ {
		c.Update(accel, imu.Vec3{}, 0.01)
	}
	assert.InDelta(t, 180, math.Abs(c.Roll()), 0.05)
}

func TestIntegrate_OpposedGravityStillCorrects(t *testing.T) {
	q := Integrate(Identity(), imu.Vec3{}, imu.Vec3{Z: -1}, 0.01, DefaultQuaternionGain)
	assert.NotEqual(t, Identity(), q)
	assert.InDelta(t, 1, q.Norm(), 1e-12)
	assert.Less(t, q.gravity().Z, 1.0)

	nose := fromEuler(0, 90, 0)
	v := nose.gravity()
	q = Integrate(nose, imu.Vec3{}, imu.Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}, 0.01, DefaultQuaternionGain)
	assert.Greater(t, math.Abs(q.gravity().Z-v.Z)+math.Abs(q.gravity().Y-v.Y), 1e-4)
}
