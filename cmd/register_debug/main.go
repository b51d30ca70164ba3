// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/relabs-tech/inertial_attitude/internal/app"
	"github.com/relabs-tech/inertial_attitude/internal/config"
	"github.com/relabs-tech/inertial_attitude/internal/sensors"
)

func main() {
	configPath := flag.String("config", "./attitude_config.txt", "path to configuration file")
	addr := flag.String("addr", ":8081", "listen address")
	flag.Parse()

	log.Println("starting MPU-6050 register debug tool (standalone)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	dev, err := sensors.Open("imu", cfg.IMUI2CBus, cfg.IMUI2CAddr, sensors.Options{
		AccelRange:    cfg.IMUAccelRange,
		GyroRange:     cfg.IMUGyroRange,
		DLPF:          cfg.IMUDLPFConfig,
		SampleRateDiv: cfg.IMUSampleRateDiv,
	})
	if err != nil {
		log.Fatalf("failed to open IMU: %v", err)
	}
	defer dev.Close()

	mux := http.NewServeMux()
	debug := app.NewRegisterDebug(dev).Handler()
	mux.Handle("/ws", debug)
	mux.Handle("/api/imu", debug)
	mux.Handle("/", app.StaticPage("register_debug", "web/register_debug.html"))

	log.Printf("Register debug tool listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
