// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package attitude

import "time"

// TickClock turns tick timestamps into integration intervals.
//
// The first tick uses the nominal period. Gaps longer than MaxGap (a stalled
// loop, a skipped tick) are clamped so one late sample cannot fling the
// gyro integration.
type TickClock struct {
	Nominal time.Duration
	MaxGap  time.Duration

	last time.Time
}

// NewTickClock returns a clock for a loop running every period.
func NewTickClock(period time.Duration) *TickClock {
	return &TickClock{Nominal: period, MaxGap: 5 * period}
}

// Dt returns the seconds elapsed since the previous call.
func (c *TickClock) Dt(t time.Time) float64 {
	defer func() { c.last = t }()
	if c.last.IsZero() {
		return c.Nominal.Seconds()
	}
	d := t.Sub(c.last)
	switch {
	case d <= 0:
		return c.Nominal.Seconds()
	case c.MaxGap > 0 && d > c.MaxGap:
		return c.MaxGap.Seconds()
	}
	return d.Seconds()
}
