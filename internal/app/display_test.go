// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/inertial_attitude/internal/orientation"
)

func lit(pix []byte) int {
	n := 0
	for _, b := range pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

func TestRenderAttitude(t *testing.T) {
	waiting := renderAttitude(Snapshot{})
	assert.Equal(t, displayW*displayH/8, len(waiting.Pix))
	assert.Positive(t, lit(waiting.Pix))

	a := renderAttitude(Snapshot{Quaternion: &PoseMessage{Pose: orientation.Pose{Roll: 10}}})
	b := renderAttitude(Snapshot{Quaternion: &PoseMessage{Pose: orientation.Pose{Roll: -80}}})
	assert.False(t, bytes.Equal(a.Pix, b.Pix))
	assert.False(t, bytes.Equal(a.Pix, waiting.Pix))

	full := renderAttitude(Snapshot{
		Complementary: &PoseMessage{},
		Quaternion:    &PoseMessage{},
		Bias:          &BiasMessage{Origin: BiasFromCalibration},
	})
	assert.Greater(t, lit(full.Pix), lit(a.Pix))
}
