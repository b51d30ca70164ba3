// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/relabs-tech/inertial_attitude/internal/config"
)

func formatPose(m PoseMessage) string {
	tag := "[COMP]"
	if m.Estimator == EstimatorQuaternion {
		tag = "[QUAT]"
	}
	s := fmt.Sprintf("%s #%-6d ROLL=%7.2f  PITCH=%7.2f  YAW=%7.2f",
		tag, m.Seq, m.Roll, m.Pitch, m.Yaw)
	if m.Q != nil {
		s += fmt.Sprintf("  q=(%.4f, %.4f, %.4f, %.4f)", m.Q.W, m.Q.X, m.Q.Y, m.Q.Z)
	}
	return s
}

func formatBias(m BiasMessage) string {
	return fmt.Sprintf("[BIAS] origin=%s samples=%d accel=(%.4f, %.4f, %.4f) m/s² gyro=(%.4f, %.4f, %.4f) °/s run=%s",
		m.Origin, m.Samples,
		m.Accel.X, m.Accel.Y, m.Accel.Z,
		m.Gyro.X, m.Gyro.Y, m.Gyro.Z,
		m.RunID)
}

// RunConsoleMQTT prints every pose and bias message until ctx is cancelled.
func RunConsoleMQTT(ctx context.Context) error {
	return runConsole(ctx, config.Get(), os.Stdout)
}

func runConsole(ctx context.Context, cfg *config.Config, out io.Writer) error {
	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	var mu sync.Mutex
	printLine := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, s)
	}

	for _, topic := range []string{cfg.TopicPoseComplementary, cfg.TopicPoseQuaternion} {
		if err := subscribeJSON(client, "console", topic, func(m PoseMessage) { printLine(formatPose(m)) }); err != nil {
			return err
		}
	}
	if cfg.TopicCalibration != "" {
		if err := subscribeJSON(client, "console", cfg.TopicCalibration, func(m BiasMessage) { printLine(formatBias(m)) }); err != nil {
			return err
		}
	}

	<-ctx.Done()
	log.Println("console: shutting down")
	return nil
}
