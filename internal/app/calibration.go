// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/relabs-tech/inertial_attitude/internal/calibration"
	"github.com/relabs-tech/inertial_attitude/internal/config"
	"github.com/relabs-tech/inertial_attitude/internal/imu"
)

// RunCalibration waits for the operator to confirm the sensor is still,
// measures the bias and writes it to CALIBRATION_FILE. With a nil prompt
// reader it starts immediately.
func RunCalibration(ctx context.Context, prompt io.Reader) error {
	cfg := config.Get()
	if cfg.CalibrationFile == "" {
		return errors.New("calibration: CALIBRATION_FILE is not set")
	}

	src, scale, closeSrc, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	if prompt != nil {
		fmt.Println("Place the sensor level and keep it still, then press Enter.")
		if _, err := bufio.NewReader(prompt).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("calibration: read prompt: %w", err)
		}
	}

	_, err = calibrateToFile(ctx, src, scale, cfg.CalibrationSamples,
		time.Duration(cfg.CalibrationInterval)*time.Millisecond, cfg.CalibrationFile)
	return err
}

func calibrateToFile(ctx context.Context, src imu.RawSource, scale imu.Scale, samples int, interval time.Duration, path string) (calibration.Bias, error) {
	log.Printf("calibration: collecting %d samples", samples)
	start := time.Now()
	b, err := calibration.Calibrate(ctx, calibration.Paced(src, interval), samples, scale)
	if err != nil {
		return calibration.Bias{}, err
	}
	log.Printf("calibration: done in %v", time.Since(start).Round(time.Millisecond))
	logBias("calibration", b)

	if err := calibration.SaveFile(path, b); err != nil {
		return calibration.Bias{}, err
	}
	log.Printf("calibration: bias written to %s", path)
	return b, nil
}
