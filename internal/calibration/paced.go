// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"time"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

type pacedSource struct {
	src      imu.RawSource
	interval time.Duration
	last     time.Time
}

// Paced spaces reads from src at least interval apart, so a fast bus does
// not average the same sensor sample many times over.
func Paced(src imu.RawSource, interval time.Duration) imu.RawSource {
	if interval <= 0 {
		return src
	}
	return &pacedSource{src: src, interval: interval}
}

func (p *pacedSource) ReadRaw() (imu.RawSample, error) {
	if !p.last.IsZero() {
		if wait := p.interval - time.Since(p.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	p.last = time.Now()
	return p.src.ReadRaw()
}
