// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"
)

// SerialOptions returns 8N1 options for portName at baud.
func SerialOptions(portName string, baud uint) serial.OpenOptions {
	return serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
}

// OpenSerial opens portName for writing XDR sentences.
func OpenSerial(portName string, baud uint) (io.ReadWriteCloser, error) {
	opts := SerialOptions(portName, baud)
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open serial %s: %w", portName, err)
	}
	log.Printf("telemetry: serial port opened on %s at %d baud", opts.PortName, opts.BaudRate)
	return port, nil
}
