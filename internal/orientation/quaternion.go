// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

// Quaternion is a rotation from body frame to the level reference frame,
// stored as (w, x, y, z). Estimator state keeps it at unit norm.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity is the level, zero-heading orientation.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Norm returns |q|.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalized returns q scaled to unit length. A zero or non-finite q
// yields Identity.
func (q Quaternion) Normalized() Quaternion {
	n := q.Norm()
	if !isFinite(n) || n < minVectorNorm {
		return Identity()
	}
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// Mul returns the Hamilton product q ⊗ r.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{W: q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Roll returns the rotation about the body X axis in degrees (ZYX order).
func (q Quaternion) Roll() float64 {
	return math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y)) * radToDeg
}

// Pitch returns the rotation about the body Y axis in degrees (ZYX order).
// It saturates at ±90°.
func (q Quaternion) Pitch() float64 {
	s := 2 * (q.W*q.Y - q.Z*q.X)
	s = math.Max(-1, math.Min(1, s))
	return math.Asin(s) * radToDeg
}

// Yaw returns the rotation about the vertical axis in degrees (ZYX order).
func (q Quaternion) Yaw() float64 {
	return math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z)) * radToDeg
}

// Pose returns all three Euler angles.
func (q Quaternion) Pose() Pose {
	return Pose{Roll: q.Roll(), Pitch: q.Pitch(), Yaw: q.Yaw()}
}

// gravity returns the unit "up" direction in body coordinates implied by q,
// i.e. what a level-calibrated accelerometer would read at rest.
func (q Quaternion) gravity() imu.Vec3 {
	return imu.Vec3{
		X: 2 * (q.X*q.Z - q.W*q.Y),
		Y: 2 * (q.W*q.X + q.Y*q.Z),
		Z: q.W*q.W - q.X*q.X - q.Y*q.Y + q.Z*q.Z,
	}
}

// Integrate advances q by one tick and returns the new unit quaternion.
//
// gyro is in deg/s, accel in any unit (only its direction is used), dt in
// seconds, gain in 1/s. The gyro rate is integrated to first order, then q
// is rotated toward agreement with the measured gravity direction by
// gain·(â × v)·dt, where v is the gravity direction q predicts. The
// correction is skipped when accel has no usable direction. When â is
// opposite to v the error is taken about a fixed axis perpendicular to v.
func Integrate(q Quaternion, gyro, accel imu.Vec3, dt, gain float64) Quaternion {
	gx := gyro.X * degToRad
	gy := gyro.Y * degToRad
	gz := gyro.Z * degToRad

	h := 0.5 * dt
	q = Quaternion{
		W: q.W + h*(-q.X*gx-q.Y*gy-q.Z*gz),
		X: q.X + h*(q.W*gx+q.Y*gz-q.Z*gy),
		Y: q.Y + h*(q.W*gy-q.X*gz+q.Z*gx),
		Z: q.Z + h*(q.W*gz+q.X*gy-q.Y*gx),
	}.Normalized()

	n := accel.Norm()
	if gain <= 0 || !isFinite(n) || n < minVectorNorm {
		return q
	}
	ax, ay, az := accel.X/n, accel.Y/n, accel.Z/n
	v := q.gravity()
	ex := ay*v.Z - az*v.Y
	ey := az*v.X - ax*v.Z
	ez := ax*v.Y - ay*v.X
	if ax*v.X+ay*v.Y+az*v.Z < antiparallelCos {
		// â and v are opposed and the cross product vanishes. Any axis
		// perpendicular to v starts the rotation out of the stuck state.
		ex, ey, ez = perpendicular(v)
	}

	k := 0.5 * gain * dt
	return q.Mul(Quaternion{W: 1, X: k * ex, Y: k * ey, Z: k * ez}).Normalized()
}

// perpendicular returns a unit vector orthogonal to the unit vector v,
// preferring the body X axis so an inverted level body converges in roll.
func perpendicular(v imu.Vec3) (x, y, z float64) {
	if math.Abs(v.Y) < 0.9 {
		// v × ŷ
		x, y, z = -v.Z, 0, v.X
	} else {
		// v × x̂
		x, y, z = 0, v.Z, -v.Y
	}
	n := math.Sqrt(x*x + y*y + z*z)
	return x / n, y / n, z / n
}
