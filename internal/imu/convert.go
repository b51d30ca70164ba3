// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

import (
	"fmt"
	"math"
)

// StandardGravity is 1 g in m/s².
const StandardGravity = 9.80665

// Vec3 is a 3-axis vector in body coordinates.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// IsFinite reports whether no component is NaN or ±Inf.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// PhysicalSample is a RawSample converted to physical units.
type PhysicalSample struct {
	Accel Vec3 `json:"accel"` // m/s²
	Gyro  Vec3 `json:"gyro"`  // deg/s
}

// Scale holds the sensitivity divisors for the configured full-scale ranges.
// Both values are fixed positive numbers.
type Scale struct {
	AccelLSBPerG  float64 `json:"accel_lsb_per_g" yaml:"accel_lsb_per_g"`
	GyroLSBPerDPS float64 `json:"gyro_lsb_per_dps" yaml:"gyro_lsb_per_dps"`
}

// Sensitivities per range code (0..3), from the MPU-6000/6050 datasheet.
var (
	accelLSBPerG  = [4]float64{16384, 8192, 4096, 2048}
	gyroLSBPerDPS = [4]float64{131, 65.5, 32.8, 16.4}
)

// DefaultScale matches a sensor left at ±2 g and ±250 °/s.
var DefaultScale = Scale{AccelLSBPerG: 16384, GyroLSBPerDPS: 131}

// ScaleForRange returns the Scale for accelerometer code 0..3 (±2/4/8/16 g)
// and gyroscope code 0..3 (±250/500/1000/2000 °/s).
func ScaleForRange(accelRange, gyroRange byte) (Scale, error) {
	if accelRange > 3 {
		return Scale{}, fmt.Errorf("accel range code must be 0-3, got %d", accelRange)
	}
	if gyroRange > 3 {
		return Scale{}, fmt.Errorf("gyro range code must be 0-3, got %d", gyroRange)
	}
	return Scale{
		AccelLSBPerG:  accelLSBPerG[accelRange],
		GyroLSBPerDPS: gyroLSBPerDPS[gyroRange],
	}, nil
}

// ToPhysicalAccel converts raw accelerometer counts to m/s².
func (s Scale) ToPhysicalAccel(x, y, z int16) Vec3 {
	k := StandardGravity / s.AccelLSBPerG
	return Vec3{X: float64(x) * k, Y: float64(y) * k, Z: float64(z) * k}
}

// ToPhysicalGyro converts raw gyroscope counts to deg/s.
func (s Scale) ToPhysicalGyro(x, y, z int16) Vec3 {
	return Vec3{
		X: float64(x) / s.GyroLSBPerDPS,
		Y: float64(y) / s.GyroLSBPerDPS,
		Z: float64(z) / s.GyroLSBPerDPS,
	}
}

// ToPhysical converts a whole RawSample.
func (s Scale) ToPhysical(r RawSample) PhysicalSample {
	return PhysicalSample{
		Accel: s.ToPhysicalAccel(r.Ax, r.Ay, r.Az),
		Gyro:  s.ToPhysicalGyro(r.Gx, r.Gy, r.Gz),
	}
}

// AccelToRaw is the inverse of ToPhysicalAccel for a single axis.
func (s Scale) AccelToRaw(v float64) int16 {
	return toCounts(v / StandardGravity * s.AccelLSBPerG)
}

// GyroToRaw is the inverse of ToPhysicalGyro for a single axis.
func (s Scale) GyroToRaw(v float64) int16 {
	return toCounts(v * s.GyroLSBPerDPS)
}

func toCounts(f float64) int16 {
	f = math.Round(f)
	switch {
	case f > math.MaxInt16:
		return math.MaxInt16
	case f < math.MinInt16:
		return math.MinInt16
	}
	return int16(f)
}
