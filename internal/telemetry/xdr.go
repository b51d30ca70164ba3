// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package telemetry encodes attitude as NMEA 0183 XDR transducer sentences
// for serial consumers such as chart plotters and EFIS displays.
package telemetry

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/relabs-tech/inertial_attitude/internal/orientation"
)

// TalkerID is the talker used for emitted sentences ("YX": transducer).
const TalkerID = "YX"

// Transducer names carried in the XDR sentence.
const (
	angularDisplacement = "A"

	NameRoll  = "ROLL"
	NamePitch = "PITCH"
	NameYaw   = "YAW"
)

// ErrNotAttitude is returned when a sentence carries no attitude angles.
var ErrNotAttitude = errors.New("telemetry: not an attitude XDR sentence")

// EncodeXDR renders p as a complete sentence including checksum, without
// the trailing CRLF.
func EncodeXDR(p orientation.Pose) string {
	body := fmt.Sprintf("%s%s,A,%.2f,D,%s,A,%.2f,D,%s,A,%.2f,D,%s",
		TalkerID, nmea.TypeXDR,
		p.Roll, NameRoll,
		p.Pitch, NamePitch,
		p.Yaw, NameYaw)
	return "$" + body + "*" + nmea.Checksum(body)
}

// DecodeXDR parses a sentence produced by EncodeXDR. Angles missing from
// the sentence are left at zero; a sentence with none of them is an error.
func DecodeXDR(line string) (orientation.Pose, error) {
	s, err := nmea.Parse(strings.TrimSpace(line))
	if err != nil {
		return orientation.Pose{}, fmt.Errorf("telemetry: %w", err)
	}
	x, ok := s.(nmea.XDR)
	if !ok {
		return orientation.Pose{}, fmt.Errorf("%w: got %s", ErrNotAttitude, s.DataType())
	}

	var p orientation.Pose
	found := false
	for _, m := range x.Measurements {
		if m.TransducerType != angularDisplacement {
			continue
		}
		switch m.TransducerName {
		case NameRoll:
			p.Roll = m.Value
		case NamePitch:
			p.Pitch = m.Value
		case NameYaw:
			p.Yaw = m.Value
		default:
			continue
		}
		found = true
	}
	if !found {
		return orientation.Pose{}, ErrNotAttitude
	}
	return p, nil
}

// XDRWriter writes one sentence per pose to an underlying writer, typically
// a serial port. Safe for concurrent use.
type XDRWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewXDRWriter wraps w.
func NewXDRWriter(w io.Writer) *XDRWriter {
	return &XDRWriter{w: w}
}

// WritePose writes p followed by CRLF.
func (x *XDRWriter) WritePose(p orientation.Pose) error {
	line := EncodeXDR(p) + "\r\n"
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, err := io.WriteString(x.w, line); err != nil {
		return fmt.Errorf("telemetry: write XDR: %w", err)
	}
	return nil
}
