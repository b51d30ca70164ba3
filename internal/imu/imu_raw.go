// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// RawSample is one unprocessed accel+gyro register readout, in sensor counts.
// It lives for a single tick and is never persisted.
type RawSample struct {
	Source string `json:"source"` // sensor name, e.g. "mpu6050" or "sim"

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

// RawSource is the transport boundary: one bus transaction per call.
// An error means the sample for this tick is unavailable.
type RawSource interface {
	ReadRaw() (RawSample, error)
}
