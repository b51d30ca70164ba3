// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

const (
	radToDeg = 180.0 / math.Pi
	degToRad = math.Pi / 180.0

	// Vectors shorter than this carry no usable direction.
	minVectorNorm = 1e-9

	// Cosine below which measured and predicted gravity count as opposed.
	antiparallelCos = -1 + 1e-6
)

// Pose is the canonical representation of orientation for the app, in degrees.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// AccelTilt computes roll and pitch in degrees from a gravity-only
// accelerometer reading:
//
//	roll  = atan2(ay, az)
//	pitch = atan2(-ax, sqrt(ay² + az²))
//
// rollOK is false when ay and az are both ~0 (roll undefined at ±90° pitch);
// pitchOK is false for a ~zero vector.
func AccelTilt(a imu.Vec3) (roll, pitch float64, rollOK, pitchOK bool) {
	yz := math.Sqrt(a.Y*a.Y + a.Z*a.Z)
	if yz > minVectorNorm {
		roll = math.Atan2(a.Y, a.Z) * radToDeg
		rollOK = true
	}
	if a.Norm() > minVectorNorm {
		pitch = math.Atan2(-a.X, yz) * radToDeg
		pitchOK = true
	}
	return roll, pitch, rollOK, pitchOK
}

// ComputePoseFromAccel computes roll and pitch from accelerometer data only.
// Yaw is 0; it is not observable from gravity. Undefined angles are 0.
func ComputePoseFromAccel(ax, ay, az float64) Pose {
	roll, pitch, _, _ := AccelTilt(imu.Vec3{X: ax, Y: ay, Z: az})
	return Pose{Roll: roll, Pitch: pitch}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
