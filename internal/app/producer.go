// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/inertial_attitude/internal/attitude"
	"github.com/relabs-tech/inertial_attitude/internal/calibration"
	"github.com/relabs-tech/inertial_attitude/internal/config"
	"github.com/relabs-tech/inertial_attitude/internal/imu"
	"github.com/relabs-tech/inertial_attitude/internal/sensors"
	"github.com/relabs-tech/inertial_attitude/internal/telemetry"
)

// Topics names the MQTT topics a producer publishes to. Empty topics are
// skipped.
type Topics struct {
	Raw           string
	Complementary string
	Quaternion    string
	Calibration   string
}

// Producer wires a raw source to the estimation engine and its outputs.
type Producer struct {
	Source    imu.RawSource
	Scale     imu.Scale
	Publisher Publisher
	Topics    Topics

	Interval time.Duration

	CalibrationSamples  int
	CalibrationInterval time.Duration
	CalibrationFile     string

	Alpha     float64
	Gain      float64
	AccelGate float64

	// XDR receives the quaternion pose each tick when set.
	XDR *telemetry.XDRWriter

	// LogEvery logs a summary line every n ticks; 0 disables it.
	LogEvery int

	// Ticks overrides the internal ticker.
	Ticks <-chan time.Time

	runID string
	seq   uint64
}

// RunAttitudeProducer reads the sensor named in the global config (or the
// simulated source when no bus is configured) and publishes both attitude
// estimates until ctx is cancelled.
func RunAttitudeProducer(ctx context.Context) error {
	log.Println("starting attitude producer (IMU → MQTT)")
	cfg := config.Get()

	src, scale, closeSrc, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	pub, err := NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer pub.Close()

	p := &Producer{
		Source:    src,
		Scale:     scale,
		Publisher: pub,
		Topics: Topics{
			Raw:           cfg.TopicIMURaw,
			Complementary: cfg.TopicPoseComplementary,
			Quaternion:    cfg.TopicPoseQuaternion,
			Calibration:   cfg.TopicCalibration,
		},
		Interval:            cfg.SampleInterval(),
		CalibrationSamples:  cfg.CalibrationSamples,
		CalibrationInterval: time.Duration(cfg.CalibrationInterval) * time.Millisecond,
		CalibrationFile:     cfg.CalibrationFile,
		Alpha:               cfg.FilterAlpha,
		Gain:                cfg.QuaternionGain,
		AccelGate:           cfg.AccelGate,
		LogEvery:            max(1, int(5*time.Second/cfg.SampleInterval())),
	}

	if cfg.SerialPort != "" {
		port, err := telemetry.OpenSerial(cfg.SerialPort, uint(cfg.SerialBaudRate))
		if err != nil {
			log.Printf("producer: XDR output disabled: %v", err)
		} else {
			defer port.Close()
			p.XDR = telemetry.NewXDRWriter(port)
		}
	}

	return p.Run(ctx)
}

// openSource opens the MPU-6050 on the configured bus. With no bus
// configured the simulated source is used.
func openSource(cfg *config.Config) (imu.RawSource, imu.Scale, func(), error) {
	if cfg.IMUI2CBus == "" {
		scale, err := imu.ScaleForRange(cfg.IMUAccelRange, cfg.IMUGyroRange)
		if err != nil {
			return nil, imu.Scale{}, nil, err
		}
		log.Println("producer: IMU_I2C_BUS not set, using simulated source")
		return sensors.NewSimulated(scale), scale, func() {}, nil
	}

	dev, err := sensors.Open("imu", cfg.IMUI2CBus, cfg.IMUI2CAddr, sensors.Options{
		AccelRange:    cfg.IMUAccelRange,
		GyroRange:     cfg.IMUGyroRange,
		DLPF:          cfg.IMUDLPFConfig,
		SampleRateDiv: cfg.IMUSampleRateDiv,
	})
	if err != nil {
		return nil, imu.Scale{}, nil, err
	}
	if temp, err := dev.Temperature(); err == nil {
		log.Printf("producer: IMU die temperature %s", temp)
	}
	return dev, dev.Scale(), func() { dev.Close() }, nil
}

// Run establishes the bias, then samples and publishes on every tick until
// ctx is cancelled or Ticks is closed.
func (p *Producer) Run(ctx context.Context) error {
	if p.Source == nil || p.Publisher == nil {
		return errors.New("producer: source and publisher are required")
	}
	if p.Interval <= 0 {
		return fmt.Errorf("producer: invalid sample interval %v", p.Interval)
	}
	if p.Scale == (imu.Scale{}) {
		p.Scale = imu.DefaultScale
	}
	p.runID = uuid.NewString()

	bias, origin := p.establishBias(ctx)
	if ctx.Err() != nil {
		return nil
	}
	if p.Topics.Calibration != "" {
		msg := BiasMessage{Bias: bias, Origin: origin, Scale: p.Scale, RunID: p.runID}
		if err := publishJSON(p.Publisher, p.Topics.Calibration, msg); err != nil {
			log.Printf("producer: %v", err)
		}
	}

	engine := attitude.NewEngine(attitude.Options{
		Scale:     p.Scale,
		Bias:      bias,
		Alpha:     p.Alpha,
		Gain:      p.Gain,
		AccelGate: p.AccelGate,
	})
	clock := attitude.NewTickClock(p.Interval)

	ticks := p.Ticks
	if ticks == nil {
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	log.Printf("producer: run %s sampling every %v", p.runID, p.Interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("producer: shutting down")
			return nil
		case t, ok := <-ticks:
			if !ok {
				return nil
			}
			p.tick(engine, clock, t)
		}
	}
}

func (p *Producer) tick(engine *attitude.Engine, clock *attitude.TickClock, t time.Time) {
	raw, err := p.Source.ReadRaw()
	if err != nil {
		// The estimators keep their state; the next good tick integrates
		// over the whole gap.
		log.Printf("producer: IMU read error: %v", err)
		return
	}

	r := engine.Step(raw, clock.Dt(t))
	p.seq++
	p.publish(r)

	if p.XDR != nil {
		if err := p.XDR.WritePose(r.Quaternion); err != nil {
			log.Printf("producer: %v", err)
		}
	}

	if p.LogEvery > 0 && (p.seq-1)%uint64(p.LogEvery) == 0 {
		log.Printf("%s tick %d: comp R=%.2f P=%.2f | quat R=%.2f P=%.2f Y=%.2f | accel %.2f %.2f %.2f m/s² | gyro %.2f %.2f %.2f °/s",
			t.Format(time.RFC3339), p.seq,
			r.Complementary.Roll, r.Complementary.Pitch,
			r.Quaternion.Roll, r.Quaternion.Pitch, r.Quaternion.Yaw,
			r.Accel.X, r.Accel.Y, r.Accel.Z,
			r.Gyro.X, r.Gyro.Y, r.Gyro.Z,
		)
	}
}

func (p *Producer) publish(r attitude.Reading) {
	out := []struct {
		topic string
		msg   any
	}{
		{p.Topics.Raw, RawMessage{RawSample: r.Raw, Accel: r.Accel, Gyro: r.Gyro, RunID: p.runID, Seq: p.seq, Time: r.Time}},
		{p.Topics.Complementary, PoseMessage{Pose: r.Complementary, Estimator: EstimatorComplementary, RunID: p.runID, Seq: p.seq, Time: r.Time}},
		{p.Topics.Quaternion, PoseMessage{Pose: r.Quaternion, Estimator: EstimatorQuaternion, Q: &r.Q, RunID: p.runID, Seq: p.seq, Time: r.Time}},
	}
	for _, o := range out {
		if o.topic == "" {
			continue
		}
		if err := publishJSON(p.Publisher, o.topic, o.msg); err != nil {
			log.Printf("producer: %v", err)
		}
	}
}

// establishBias reuses the bias file when present, otherwise calibrates.
// A failed calibration falls back to a zero bias so the loop still runs.
func (p *Producer) establishBias(ctx context.Context) (calibration.Bias, string) {
	if p.CalibrationFile != "" {
		b, err := calibration.LoadFile(p.CalibrationFile)
		switch {
		case err == nil:
			log.Printf("producer: using bias from %s (%d samples, %s)",
				p.CalibrationFile, b.Samples, b.At.Format(time.RFC3339))
			return b, BiasFromFile
		case errors.Is(err, os.ErrNotExist):
			log.Printf("producer: no bias file at %s, calibrating", p.CalibrationFile)
		default:
			log.Printf("producer: ignoring bias file: %v", err)
		}
	}

	if p.CalibrationSamples <= 0 {
		log.Println("producer: calibration disabled, running without bias")
		return calibration.Bias{}, BiasNone
	}

	log.Printf("producer: calibrating over %d samples, keep the sensor still and level", p.CalibrationSamples)
	src := calibration.Paced(p.Source, p.CalibrationInterval)
	b, err := calibration.Calibrate(ctx, src, p.CalibrationSamples, p.Scale)
	if err != nil {
		log.Printf("producer: %v; running without bias", err)
		return calibration.Bias{}, BiasNone
	}
	logBias("producer", b)

	if p.CalibrationFile != "" {
		if err := calibration.SaveFile(p.CalibrationFile, b); err != nil {
			log.Printf("producer: %v", err)
		} else {
			log.Printf("producer: bias saved to %s", p.CalibrationFile)
		}
	}
	return b, BiasFromCalibration
}

func logBias(component string, b calibration.Bias) {
	log.Printf("%s: accel bias X=%.4f Y=%.4f Z=%.4f m/s² (noise %.1f %.1f %.1f counts)",
		component, b.Accel.X, b.Accel.Y, b.Accel.Z, b.Noise.Accel.X, b.Noise.Accel.Y, b.Noise.Accel.Z)
	log.Printf("%s: gyro bias  X=%.4f Y=%.4f Z=%.4f °/s (noise %.1f %.1f %.1f counts)",
		component, b.Gyro.X, b.Gyro.Y, b.Gyro.Z, b.Noise.Gyro.X, b.Noise.Gyro.Y, b.Noise.Gyro.Z)
}
