// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration estimates stationary accelerometer and gyroscope bias.
//
// The device must be still and level while Calibrate runs. Nothing here
// detects motion; the noise figures are reported for the operator only.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

// ErrInvalidCount is returned when the requested sample count is not positive.
var ErrInvalidCount = errors.New("calibration: sample count must be > 0")

// Noise is the per-axis standard deviation of the samples, in raw counts.
type Noise struct {
	Accel imu.Vec3 `json:"accel" yaml:"accel"`
	Gyro  imu.Vec3 `json:"gyro" yaml:"gyro"`
}

// Bias holds per-axis offsets in physical units: accel in m/s², gyro in deg/s.
// The accel Z offset is the deviation from 1 g, not gravity itself.
// The zero value means "uncalibrated" and is valid to Apply.
type Bias struct {
	Accel   imu.Vec3  `json:"accel" yaml:"accel"`
	Gyro    imu.Vec3  `json:"gyro" yaml:"gyro"`
	Samples int       `json:"samples" yaml:"samples"`
	Noise   Noise     `json:"noise" yaml:"noise"`
	At      time.Time `json:"calibrated_at" yaml:"calibrated_at"`
}

// Apply subtracts the bias from a converted sample.
func (b Bias) Apply(s imu.PhysicalSample) imu.PhysicalSample {
	return imu.PhysicalSample{
		Accel: s.Accel.Sub(b.Accel),
		Gyro:  s.Gyro.Sub(b.Gyro),
	}
}

// IsZero reports whether no calibration has been applied.
func (b Bias) IsZero() bool {
	return b.Accel == (imu.Vec3{}) && b.Gyro == (imu.Vec3{})
}

// Calibrate reads count samples from src and averages them into a Bias.
//
// A read failure or cancelled ctx aborts the run; the partial sums are
// dropped and no Bias is returned. Retrying, or falling back to a zero
// Bias, is left to the caller.
func Calibrate(ctx context.Context, src imu.RawSource, count int, scale imu.Scale) (Bias, error) {
	if count <= 0 {
		return Bias{}, ErrInvalidCount
	}
	if src == nil {
		return Bias{}, errors.New("calibration: source is nil")
	}

	var sum [6]int64
	axes := make([][]float64, 6)
	for i := range axes {
		axes[i] = make([]float64, 0, count)
	}

	for n := 0; n < count; n++ {
		if err := ctx.Err(); err != nil {
			return Bias{}, fmt.Errorf("calibration: aborted after %d/%d samples: %w", n, count, err)
		}
		r, err := src.ReadRaw()
		if err != nil {
			return Bias{}, fmt.Errorf("calibration: sample %d/%d: %w", n+1, count, err)
		}
		vals := [6]int16{r.Ax, r.Ay, r.Az, r.Gx, r.Gy, r.Gz}
		for i, v := range vals {
			sum[i] += int64(v)
			axes[i] = append(axes[i], float64(v))
		}
	}

	var mean [6]float64
	for i := range sum {
		mean[i] = float64(sum[i]) / float64(count)
	}
	// At rest and level the Z axis reads +1 g.
	mean[2] -= scale.AccelLSBPerG

	k := imu.StandardGravity / scale.AccelLSBPerG
	b := Bias{
		Accel:   imu.Vec3{X: mean[0] * k, Y: mean[1] * k, Z: mean[2] * k},
		Gyro:    imu.Vec3{X: mean[3] / scale.GyroLSBPerDPS, Y: mean[4] / scale.GyroLSBPerDPS, Z: mean[5] / scale.GyroLSBPerDPS},
		Samples: count,
		Noise:   noiseOf(axes),
		At:      time.Now().UTC(),
	}
	return b, nil
}

func noiseOf(axes [][]float64) Noise {
	var sd [6]float64
	for i, a := range axes {
		if len(a) < 2 {
			continue
		}
		_, sd[i] = stat.MeanStdDev(a, nil)
	}
	return Noise{
		Accel: imu.Vec3{X: sd[0], Y: sd[1], Z: sd[2]},
		Gyro:  imu.Vec3{X: sd[3], Y: sd[4], Z: sd[5]},
	}
}
