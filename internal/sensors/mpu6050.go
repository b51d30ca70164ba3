// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors talks to the MPU-6050 over I2C and provides a simulated
// source for running without hardware.
package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

// DefaultAddr is the MPU-6050 address with AD0 low.
const DefaultAddr = 0x68

// ErrUnknownDevice is returned when WHO_AM_I does not identify an MPU-6050
// compatible part.
var ErrUnknownDevice = errors.New("unexpected WHO_AM_I")

// Register-compatible parts: MPU-6050, MPU-6500, MPU-9250.
var knownWhoAmI = map[byte]string{
	0x68: "MPU-6050",
	0x70: "MPU-6500",
	0x71: "MPU-9250",
}

// Options selects the full-scale ranges and sampling configuration written
// at Init. Range codes are 0..3.
type Options struct {
	AccelRange    byte
	GyroRange     byte
	DLPF          byte // CONFIG.DLPF_CFG, 0..6
	SampleRateDiv byte // SMPLRT_DIV
}

// DefaultOptions: ±2 g, ±250 °/s, 44 Hz low pass, 100 Hz output rate.
var DefaultOptions = Options{DLPF: 3, SampleRateDiv: 9}

// MPU6050 is an accelerometer/gyroscope on an I2C bus.
type MPU6050 struct {
	name  string
	dev   i2c.Dev
	opts  Options
	scale imu.Scale

	mu     sync.Mutex
	closer func() error
}

// New binds a device on an already opened bus and initialises it.
func New(name string, bus i2c.Bus, addr uint16, opts Options) (*MPU6050, error) {
	scale, err := imu.ScaleForRange(opts.AccelRange, opts.GyroRange)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: %w", name, err)
	}
	if opts.DLPF > 6 {
		return nil, fmt.Errorf("%s IMU: DLPF config %d out of range (0..6)", name, opts.DLPF)
	}
	d := &MPU6050{
		name:  name,
		dev:   i2c.Dev{Bus: bus, Addr: addr},
		opts:  opts,
		scale: scale,
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Open initialises the periph host, opens busName ("" selects the first
// bus) and binds the device at addr.
func Open(name, busName string, addr uint16, opts Options) (*MPU6050, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s IMU: periph host init: %w", name, err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("%s IMU: I2C open (%q): %w", name, busName, err)
	}
	d, err := New(name, bus, addr, opts)
	if err != nil {
		bus.Close()
		return nil, err
	}
	d.closer = bus.Close
	return d, nil
}

// Init identifies the chip, wakes it and writes the configured ranges.
func (d *MPU6050) Init() error {
	id, err := d.ReadRegister(regWhoAmI)
	if err != nil {
		return fmt.Errorf("%s IMU: read WHO_AM_I: %w", d.name, err)
	}
	part, ok := knownWhoAmI[id]
	if !ok {
		return fmt.Errorf("%s IMU: %w 0x%02X", d.name, ErrUnknownDevice, id)
	}

	writes := []struct {
		reg, val byte
		what     string
	}{
		{regPwrMgmt1, 0x00, "wake"},
		{regSmplrtDiv, d.opts.SampleRateDiv, "sample rate divider"},
		{regConfig, d.opts.DLPF, "DLPF config"},
		{regGyroConfig, d.opts.GyroRange << 3, "gyro range"},
		{regAccelConfig, d.opts.AccelRange << 3, "accel range"},
	}
	for _, w := range writes {
		if err := d.WriteRegister(w.reg, w.val); err != nil {
			return fmt.Errorf("%s IMU: %s: %w", d.name, w.what, err)
		}
	}

	log.Printf("%s IMU: %s at 0x%02X, accel ±%dg, gyro ±%d°/s, DLPF %d, output %d Hz",
		d.name, part, d.dev.Addr,
		[]int{2, 4, 8, 16}[d.opts.AccelRange],
		[]int{250, 500, 1000, 2000}[d.opts.GyroRange],
		d.opts.DLPF, d.OutputRate())
	return nil
}

// OutputRate returns the sample output rate in Hz for the configured
// divider. The gyro output rate is 1 kHz with the DLPF enabled.
func (d *MPU6050) OutputRate() int {
	internal := 1000
	if d.opts.DLPF == 0 {
		internal = 8000
	}
	return internal / (1 + int(d.opts.SampleRateDiv))
}

// Scale returns the counts-per-unit divisors matching the configured ranges.
func (d *MPU6050) Scale() imu.Scale { return d.scale }

// ReadRaw reads accel and gyro in one burst so all six axes come from the
// same sample.
func (d *MPU6050) ReadRaw() (imu.RawSample, error) {
	var buf [burstLen]byte
	d.mu.Lock()
	err := d.dev.Tx([]byte{regAccelXoutH}, buf[:])
	d.mu.Unlock()
	if err != nil {
		return imu.RawSample{}, fmt.Errorf("%s IMU: burst read: %w", d.name, err)
	}
	return decodeBurst(d.name, buf[:]), nil
}

// Temperature reads the die temperature.
func (d *MPU6050) Temperature() (physic.Temperature, error) {
	var buf [2]byte
	d.mu.Lock()
	err := d.dev.Tx([]byte{regTempOutH}, buf[:])
	d.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("%s IMU: temperature read: %w", d.name, err)
	}
	raw := int16(binary.BigEndian.Uint16(buf[:]))
	celsius := float64(raw)/340 + 36.53
	return physic.ZeroCelsius + physic.Temperature(celsius*float64(physic.Celsius)), nil
}

// ReadRegister reads a single register.
func (d *MPU6050) ReadRegister(reg byte) (byte, error) {
	var v [1]byte
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.dev.Tx([]byte{reg}, v[:]); err != nil {
		return 0, err
	}
	return v[0], nil
}

// WriteRegister writes a single register.
func (d *MPU6050) WriteRegister(reg, val byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev.Tx([]byte{reg, val}, nil)
}

// ReadAllRegisters reads every register in RegisterMap.
func (d *MPU6050) ReadAllRegisters() (map[byte]byte, error) {
	out := make(map[byte]byte)
	for _, r := range RegisterMap() {
		v, err := d.ReadRegister(r.Address)
		if err != nil {
			return nil, fmt.Errorf("%s IMU: read 0x%02X (%s): %w", d.name, r.Address, r.Name, err)
		}
		out[r.Address] = v
	}
	return out, nil
}

// Name returns the label stamped on every sample.
func (d *MPU6050) Name() string { return d.name }

// Close releases the bus if Open created it.
func (d *MPU6050) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer()
}

// decodeBurst splits the 14-byte burst; bytes 6..7 are TEMP_OUT.
func decodeBurst(source string, b []byte) imu.RawSample {
	word := func(i int) int16 { return int16(binary.BigEndian.Uint16(b[i:])) }
	return imu.RawSample{
		Source: source,
		Ax:     word(0),
		Ay:     word(2),
		Az:     word(4),
		Gx:     word(8),
		Gy:     word(10),
		Gz:     word(12),
	}
}
