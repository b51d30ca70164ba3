// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/inertial_attitude/internal/config"
)

const (
	displayW = 128
	displayH = 64
)

// textScreen draws up to four lines of 7x13 text on a blank 128x64 frame.
func textScreen(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, l := range lines {
		drawer.Dot = fixed.P(0, 13*(i+1))
		drawer.DrawString(l)
	}
	return img
}

// renderAttitude lays out both estimates: complementary roll/pitch on top,
// quaternion roll/pitch/yaw below.
func renderAttitude(s Snapshot) *image1bit.VerticalLSB {
	if s.Complementary == nil && s.Quaternion == nil {
		return textScreen("", "Attitude", "Waiting...")
	}
	lines := make([]string, 0, 4)
	if c := s.Complementary; c != nil {
		lines = append(lines, fmt.Sprintf("C R%6.1f P%6.1f", c.Roll, c.Pitch))
	} else {
		lines = append(lines, "C  --")
	}
	if q := s.Quaternion; q != nil {
		lines = append(lines,
			fmt.Sprintf("Q R%6.1f P%6.1f", q.Roll, q.Pitch),
			fmt.Sprintf("  Y%6.1f", q.Yaw))
	} else {
		lines = append(lines, "Q  --", "")
	}
	if b := s.Bias; b != nil {
		lines = append(lines, "bias: "+b.Origin)
	}
	return textScreen(lines...)
}

// RunDisplay shows the latest attitude on an SSD1306 OLED until ctx is
// cancelled.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	defer dev.Halt()
	log.Printf("display: initialized on bus %q", cfg.DisplayI2CBus)

	if err := dev.Draw(dev.Bounds(), textScreen("", " Inertial", " Attitude"), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	hub := newPoseHub()
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	for _, topic := range []string{cfg.TopicPoseComplementary, cfg.TopicPoseQuaternion} {
		if err := subscribeJSON(client, "display", topic, hub.setPose); err != nil {
			return err
		}
	}
	if cfg.TopicCalibration != "" {
		if err := subscribeJSON(client, "display", cfg.TopicCalibration, hub.setBias); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s, _ := hub.snapshot()
			if err := dev.Draw(dev.Bounds(), renderAttitude(s), image.Point{}); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}
