// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package attitude runs one estimation tick: raw counts are converted to
// physical units, bias-corrected, and fed to both orientation estimators.
package attitude

import (
	"time"

	"github.com/relabs-tech/inertial_attitude/internal/calibration"
	"github.com/relabs-tech/inertial_attitude/internal/imu"
	"github.com/relabs-tech/inertial_attitude/internal/orientation"
)

// Options configures an Engine. Zero Alpha and Gain select the defaults.
type Options struct {
	Scale     imu.Scale
	Bias      calibration.Bias
	Alpha     float64
	Gain      float64
	AccelGate float64
}

// Reading is the output of one tick. The two poses are independent
// estimates of the same body and are not reconciled.
type Reading struct {
	Time          time.Time              `json:"time"`
	Raw           imu.RawSample          `json:"raw"`
	Accel         imu.Vec3               `json:"accel"` // m/s², bias removed
	Gyro          imu.Vec3               `json:"gyro"`  // deg/s, bias removed
	Complementary orientation.Pose       `json:"complementary"`
	Quaternion    orientation.Pose       `json:"quaternion"`
	Q             orientation.Quaternion `json:"q"`
}

// Engine owns both estimator states. It is single-threaded: Step and Reset
// must not race with each other or with reads of the estimators.
type Engine struct {
	scale imu.Scale
	bias  calibration.Bias

	comp *orientation.Complementary
	quat *orientation.QuaternionEstimator

	now func() time.Time
}

// NewEngine returns an Engine with both estimators initialised.
func NewEngine(opts Options) *Engine {
	if opts.Scale == (imu.Scale{}) {
		opts.Scale = imu.DefaultScale
	}
	if opts.Alpha == 0 {
		opts.Alpha = orientation.DefaultAlpha
	}
	if opts.Gain == 0 {
		opts.Gain = orientation.DefaultQuaternionGain
	}
	q := orientation.NewQuaternionEstimator(opts.Gain)
	q.AccelGate = opts.AccelGate
	return &Engine{
		scale: opts.Scale,
		bias:  opts.Bias,
		comp:  orientation.NewComplementary(opts.Alpha),
		quat:  q,
		now:   time.Now,
	}
}

// Step processes one raw sample taken dt seconds after the previous one.
func (e *Engine) Step(raw imu.RawSample, dt float64) Reading {
	s := e.bias.Apply(e.scale.ToPhysical(raw))

	e.comp.Update(s.Accel, s.Gyro, dt)
	e.quat.Update(s.Gyro, s.Accel, dt)

	q := e.quat.Quaternion()
	return Reading{
		Time:          e.now().UTC(),
		Raw:           raw,
		Accel:         s.Accel,
		Gyro:          s.Gyro,
		Complementary: e.comp.Pose(),
		Quaternion:    q.Pose(),
		Q:             q,
	}
}

// Reset re-initialises both estimators, keeping scale and bias.
func (e *Engine) Reset() {
	e.comp.Init()
	e.quat.Init()
}

// Bias returns the bias applied to every sample.
func (e *Engine) Bias() calibration.Bias { return e.bias }

// Scale returns the raw-to-physical scale in use.
func (e *Engine) Scale() imu.Scale { return e.scale }
