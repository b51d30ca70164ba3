// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

// Motion is the true attitude of a simulated body, in degrees.
type Motion func(elapsed float64) (roll, pitch, yaw float64)

// SwayMotion rocks the body smoothly while turning at 30 °/s.
func SwayMotion(elapsed float64) (roll, pitch, yaw float64) {
	return 20 * math.Sin(elapsed),
		15 * math.Cos(elapsed*0.7),
		math.Mod(elapsed*30, 360)
}

// Simulated produces the raw counts an ideal IMU would report while
// following Motion. Gyro output is the body angular rate derived from the
// Euler angle rates, so estimators see consistent gyro and gravity.
type Simulated struct {
	Name     string
	Scale    imu.Scale
	Motion   Motion
	GyroBias imu.Vec3 // deg/s added to every gyro sample
	Noise    float64  // standard deviation in raw counts; 0 disables

	// Now defaults to time.Now; tests drive it explicitly.
	Now func() time.Time

	mu    sync.Mutex
	start time.Time
	rng   *rand.Rand
}

// NewSimulated returns a simulated source following SwayMotion.
func NewSimulated(scale imu.Scale) *Simulated {
	return &Simulated{Name: "simulated", Scale: scale, Motion: SwayMotion}
}

// ReadRaw samples the motion at the current time.
func (s *Simulated) ReadRaw() (imu.RawSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now()
	if s.start.IsZero() {
		s.start = t
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(1, 2))
	}
	accel, gyro := s.sampleAt(t.Sub(s.start).Seconds())

	sc := s.Scale
	if sc == (imu.Scale{}) {
		sc = imu.DefaultScale
	}
	return imu.RawSample{
		Source: s.Name,
		Ax:     sc.AccelToRaw(accel.X + s.noise()/sc.AccelLSBPerG*imu.StandardGravity),
		Ay:     sc.AccelToRaw(accel.Y + s.noise()/sc.AccelLSBPerG*imu.StandardGravity),
		Az:     sc.AccelToRaw(accel.Z + s.noise()/sc.AccelLSBPerG*imu.StandardGravity),
		Gx:     sc.GyroToRaw(gyro.X + s.GyroBias.X + s.noise()/sc.GyroLSBPerDPS),
		Gy:     sc.GyroToRaw(gyro.Y + s.GyroBias.Y + s.noise()/sc.GyroLSBPerDPS),
		Gz:     sc.GyroToRaw(gyro.Z + s.GyroBias.Z + s.noise()/sc.GyroLSBPerDPS),
	}, nil
}

// Truth returns the attitude the source is following at elapsed seconds.
func (s *Simulated) Truth(elapsed float64) (roll, pitch, yaw float64) {
	return s.motion()(elapsed)
}

func (s *Simulated) motion() Motion {
	if s.Motion == nil {
		return SwayMotion
	}
	return s.Motion
}

func (s *Simulated) noise() float64 {
	if s.Noise <= 0 {
		return 0
	}
	return s.rng.NormFloat64() * s.Noise
}

// sampleAt returns specific force (m/s²) and body rate (deg/s).
func (s *Simulated) sampleAt(elapsed float64) (accel, gyro imu.Vec3) {
	const h = 1e-4
	m := s.motion()
	r0, p0, y0 := m(elapsed - h)
	r1, p1, y1 := m(elapsed + h)
	roll, pitch, _ := m(elapsed)

	dRoll := (r1 - r0) / (2 * h)
	dPitch := (p1 - p0) / (2 * h)
	dYaw := wrapDeg(y1-y0) / (2 * h)

	phi := roll * math.Pi / 180
	theta := pitch * math.Pi / 180
	sphi, cphi := math.Sincos(phi)
	sth, cth := math.Sincos(theta)

	g := imu.StandardGravity
	accel = imu.Vec3{X: -g * sth, Y: g * sphi * cth, Z: g * cphi * cth}
	gyro = imu.Vec3{
		X: dRoll - dYaw*sth,
		Y: dPitch*cphi + dYaw*sphi*cth,
		Z: -dPitch*sphi + dYaw*cphi*cth,
	}
	return accel, gyro
}

func wrapDeg(d float64) float64 {
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}
