// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/inertial_attitude/internal/app"
	"github.com/relabs-tech/inertial_attitude/internal/config"
)

func main() {
	configPath := flag.String("config", "./attitude_config.txt", "path to configuration file")
	noPrompt := flag.Bool("yes", false, "start immediately without waiting for Enter")
	flag.Parse()

	log.Println("starting inertial-attitude bias calibration")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var prompt io.Reader
	if !*noPrompt {
		prompt = os.Stdin
	}
	if err := app.RunCalibration(ctx, prompt); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
